package tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationGitIdentityNameConstant  = "user.name=Integration Test"
	integrationGitIdentityEmailConstant = "user.email=integration@example.com"
)

func runIntegrationCommand(testInstance *testing.T, repositoryRoot string, environment []string, timeout time.Duration, arguments []string) (string, error) {
	testInstance.Helper()

	executionContext, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	command := exec.CommandContext(executionContext, "go", arguments...)
	command.Dir = repositoryRoot
	command.Env = append(append([]string{}, os.Environ()...), environment...)

	outputBytes, runError := command.CombinedOutput()
	return string(outputBytes), runError
}

func repositoryRootDirectory(testInstance *testing.T) string {
	testInstance.Helper()

	currentWorkingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)
	return filepath.Dir(currentWorkingDirectory)
}

// initializeSourceRepository creates a git repository with a single commit and returns its path.
func initializeSourceRepository(testInstance *testing.T) string {
	testInstance.Helper()

	repositoryPath := testInstance.TempDir()
	runGit(testInstance, repositoryPath, "init", "--quiet")
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, "package.json"), []byte("{}\n"), 0o600))
	runGit(testInstance, repositoryPath, "add", "-A")
	runGit(testInstance, repositoryPath, "-c", integrationGitIdentityNameConstant, "-c", integrationGitIdentityEmailConstant, "commit", "--quiet", "-m", "initial commit")
	return repositoryPath
}

func runGit(testInstance *testing.T, workingDirectory string, arguments ...string) {
	testInstance.Helper()

	command := exec.Command("git", arguments...)
	command.Dir = workingDirectory
	outputBytes, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(outputBytes))
}

func filterStructuredOutput(rawOutput string) string {
	lines := strings.Split(rawOutput, "\n")
	var filtered []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			continue
		}
		filtered = append(filtered, line)
	}
	if len(filtered) == 0 {
		return ""
	}
	return strings.Join(filtered, "\n") + "\n"
}
