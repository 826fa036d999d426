// Package snapshot publishes prebuilt package output to per-package mirror repositories.
//
// Publisher validates that the source working tree is clean, runs the configured
// staging, build and help steps, and then, when a credential is available, clones
// every snapshot mirror into a disposable directory, replaces its contents with
// the package output, and pushes a commit and tag named after the package's
// snapshot hash. Every git command runs with an explicit working directory.
package snapshot
