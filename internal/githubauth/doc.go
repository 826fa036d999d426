// Package githubauth resolves the publishing credential and target branch from
// explicit options and the CI environment.
package githubauth
