// Package mirrors checks, before anything is cloned, that every snapshot
// mirror exists on GitHub and accepts pushes from the publishing token.
package mirrors
