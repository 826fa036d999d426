// Package gitrepo contains helpers for interrogating Git repositories and
// addressing hosted mirrors.
//
// RepositoryManager reads the working tree status and the latest commit of the
// source repository; RepositoryIdentifier and CloneURL describe where snapshot
// mirrors live and how to clone them with a token.
package gitrepo
