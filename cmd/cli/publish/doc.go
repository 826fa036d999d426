// Package publish provides the publish and packages commands of the snapshots CLI.
package publish
