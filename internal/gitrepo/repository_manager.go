package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/snapshots/internal/execshell"
)

const (
	gitStatusSubcommandConstant                = "status"
	gitPorcelainFlagConstant                   = "--porcelain"
	gitLogSubcommandConstant                   = "log"
	gitLatestCommitLimitFlagConstant           = "-1"
	gitShortSummaryFormatFlagConstant          = "--pretty=format:%h %s"
	executorNotConfiguredMessageConstant       = "git executor not configured"
	worktreeStatusErrorTemplateConstant        = "unable to read working tree status: %w"
	latestCommitErrorTemplateConstant          = "unable to read latest commit: %w"
	emptyLatestCommitMessageConstant           = "repository has no commits"
	latestCommitSummarySeparatorConstant       = " "
	latestCommitSummaryDisplayTemplateConstant = "%s %s"
)

// ErrGitExecutorNotConfigured indicates a RepositoryManager was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrNoCommits indicates the repository has no commit to derive a summary from.
var ErrNoCommits = errors.New(emptyLatestCommitMessageConstant)

// GitCommandExecutor runs git with explicit invocation details.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommitSummary carries the abbreviated hash and subject line of a commit.
type CommitSummary struct {
	ShortHash string
	Subject   string
}

// Message renders the summary as "<short hash> <subject>".
func (summary CommitSummary) Message() string {
	if len(summary.Subject) == 0 {
		return summary.ShortHash
	}
	return fmt.Sprintf(latestCommitSummaryDisplayTemplateConstant, summary.ShortHash, summary.Subject)
}

// RepositoryManager inspects the source repository the publisher runs from.
type RepositoryManager struct {
	executor GitCommandExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitCommandExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree reports whether repositoryPath has no uncommitted or untracked changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitPorcelainFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, fmt.Errorf(worktreeStatusErrorTemplateConstant, executionError)
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// LatestCommitSummary reads the short hash and subject of HEAD.
func (manager *RepositoryManager) LatestCommitSummary(executionContext context.Context, repositoryPath string) (CommitSummary, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLogSubcommandConstant, gitLatestCommitLimitFlagConstant, gitShortSummaryFormatFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return CommitSummary{}, fmt.Errorf(latestCommitErrorTemplateConstant, executionError)
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	if len(trimmedOutput) == 0 {
		return CommitSummary{}, fmt.Errorf(latestCommitErrorTemplateConstant, ErrNoCommits)
	}

	shortHash, subject, _ := strings.Cut(trimmedOutput, latestCommitSummarySeparatorConstant)
	return CommitSummary{ShortHash: shortHash, Subject: strings.TrimSpace(subject)}, nil
}
