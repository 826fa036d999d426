package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for snapshot publishing.
const (
	EnvSnapshotGitHubToken = "SNAPSHOT_GITHUB_TOKEN"
	EnvCIBranch            = "CI_BRANCH"
	EnvGitHubHeadRef       = "GITHUB_HEAD_REF"
	EnvGitHubRefName       = "GITHUB_REF_NAME"
)

// DefaultBranchName is used when neither an option nor the CI environment names a branch.
const DefaultBranchName = "main"

var branchPreference = []string{
	EnvCIBranch,
	EnvGitHubHeadRef,
	EnvGitHubRefName,
}

// EnvironmentLookup reports the value of an environment variable.
type EnvironmentLookup func(key string) (string, bool)

// ProcessEnvironment reads from the process environment.
func ProcessEnvironment() EnvironmentLookup {
	return os.LookupEnv
}

// MapEnvironment reads from a fixed map, typically a test fixture.
func MapEnvironment(environment map[string]string) EnvironmentLookup {
	return func(key string) (string, bool) {
		value, exists := environment[key]
		return value, exists
	}
}

// ResolveToken returns the explicit token when set, otherwise the snapshot token
// from the environment. An empty result means publishing is skipped.
func ResolveToken(explicitToken string, lookup EnvironmentLookup) string {
	if trimmedToken := strings.TrimSpace(explicitToken); len(trimmedToken) > 0 {
		return trimmedToken
	}
	if value, ok := lookupTrimmed(lookup, EnvSnapshotGitHubToken); ok {
		return value
	}
	return ""
}

// ResolveBranch applies option, CI environment, then DefaultBranchName precedence.
func ResolveBranch(explicitBranch string, lookup EnvironmentLookup) string {
	if trimmedBranch := strings.TrimSpace(explicitBranch); len(trimmedBranch) > 0 {
		return trimmedBranch
	}
	for _, key := range branchPreference {
		if value, ok := lookupTrimmed(lookup, key); ok {
			return value
		}
	}
	return DefaultBranchName
}

func lookupTrimmed(lookup EnvironmentLookup, key string) (string, bool) {
	if lookup == nil {
		return "", false
	}
	value, exists := lookup(key)
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
