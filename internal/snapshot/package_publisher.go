package snapshot

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/snapshots/internal/execshell"
	"github.com/temirov/snapshots/internal/gitrepo"
)

const (
	gitCloneSubcommandConstant          = "clone"
	gitCheckoutSubcommandConstant       = "checkout"
	gitCreateBranchFlagConstant         = "-b"
	gitRemoveSubcommandConstant         = "rm"
	gitRecursiveForceFlagConstant       = "-rf"
	gitCurrentDirectoryPathspecConstant = "."
	gitCommitSigningKeyConstant         = "commit.gpgsign"
	gitFalseValueConstant               = "false"
	gitAddSubcommandConstant            = "add"
	gitAllFlagConstant                  = "-A"
	gitCommitSubcommandConstant         = "commit"
	gitMessageFlagConstant              = "-m"
	gitTagSubcommandConstant            = "tag"
	gitPushSubcommandConstant           = "push"
	gitOriginRemoteConstant             = "origin"
	gitHeadReferenceConstant            = "HEAD"
	gitTagsFlagConstant                 = "--tags"
	packageSkippedLogMessageConstant    = "package not marked for snapshots, skipping"
	packagePublishedLogMessageConstant  = "snapshot published"
	branchCreatedLogMessageConstant     = "snapshot branch missing, creating it"
	nothingToRemoveLogMessageConstant   = "mirror has no tracked files to remove"
	packageNameFieldNameConstant        = "package"
	mirrorFieldNameConstant             = "mirror"
	tagFieldNameConstant                = "tag"
	cloneDirectoryFieldNameConstant     = "clone_directory"
	mirrorParseErrorTemplateConstant    = "invalid snapshot repository: %w"
	cloneErrorTemplateConstant          = "unable to clone %s: %w"
	checkoutErrorTemplateConstant       = "unable to check out branch %s: %w"
	createBranchErrorTemplateConstant   = "unable to create branch %s: %w"
	removeErrorTemplateConstant         = "unable to clear tracked files: %w"
	copyDistErrorTemplateConstant       = "unable to copy package output: %w"
	disableSigningErrorTemplateConstant = "unable to disable commit signing: %w"
	readmeErrorTemplateConstant         = "unable to update README: %w"
	markerErrorTemplateConstant         = "unable to write uniqueness marker: %w"
	stageErrorTemplateConstant          = "unable to stage snapshot: %w"
	commitErrorTemplateConstant         = "unable to commit snapshot: %w"
	tagErrorTemplateConstant            = "unable to tag snapshot %s: %w"
	pushBranchErrorTemplateConstant     = "unable to push %s: %w"
	pushTagsErrorTemplateConstant       = "unable to push tags: %w"
)

// GitExecutor runs git with explicit invocation details.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

func gitDetails(workingDirectory string, arguments ...string) execshell.CommandDetails {
	return execshell.CommandDetails{Arguments: arguments, WorkingDirectory: workingDirectory}
}

// publishPackage replaces the contents of one mirror with the package output and
// pushes a tagged commit. Packages not marked for snapshots are skipped untouched.
func (publisher *Publisher) publishPackage(executionContext context.Context, runContext RunContext, packageInfo PackageInfo) (PackageOutcome, error) {
	if !packageInfo.Snapshot {
		publisher.logger.Info(packageSkippedLogMessageConstant, zap.String(packageNameFieldNameConstant, packageInfo.Name))
		return PackageOutcome{Name: packageInfo.Name, Skipped: true}, nil
	}

	mirror, parseError := gitrepo.ParseRepositoryIdentifier(packageInfo.SnapshotRepository)
	if parseError != nil {
		return PackageOutcome{}, fmt.Errorf(mirrorParseErrorTemplateConstant, parseError)
	}

	tagName := packageInfo.SnapshotHash
	if len(tagName) == 0 {
		tagName = runContext.CommitSummary.ShortHash
	}

	cloneDirectory := filepath.Join(runContext.TemporaryRoot, mirror.Basename())
	outcome := PackageOutcome{Name: packageInfo.Name, Mirror: mirror.String(), Tag: tagName, CloneDirectory: cloneDirectory}

	cloneURL := gitrepo.CloneURL(publisher.configuration.GitHost, mirror, runContext.Token)
	if _, cloneError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(runContext.TemporaryRoot, gitCloneSubcommandConstant, cloneURL, mirror.Basename())); cloneError != nil {
		return PackageOutcome{}, fmt.Errorf(cloneErrorTemplateConstant, mirror.String(), cloneError)
	}

	if len(runContext.Branch) > 0 {
		if branchError := publisher.switchBranch(executionContext, cloneDirectory, runContext.Branch); branchError != nil {
			return PackageOutcome{}, branchError
		}
	}

	if _, removeError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitRemoveSubcommandConstant, gitRecursiveForceFlagConstant, gitCurrentDirectoryPathspecConstant)); removeError != nil {
		if ClassifyRemovalFailure(removeError) != OutcomeNothingToRemove {
			return PackageOutcome{}, fmt.Errorf(removeErrorTemplateConstant, removeError)
		}
		publisher.logger.Info(nothingToRemoveLogMessageConstant, zap.String(mirrorFieldNameConstant, mirror.String()))
	}

	if copyError := CopyDirectory(publisher.fileSystem, publisher.resolveDist(packageInfo.Dist), cloneDirectory); copyError != nil {
		return PackageOutcome{}, fmt.Errorf(copyDistErrorTemplateConstant, copyError)
	}

	if len(runContext.Token) > 0 {
		if _, signingError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitConfigSubcommandConstant, gitCommitSigningKeyConstant, gitFalseValueConstant)); signingError != nil {
			return PackageOutcome{}, fmt.Errorf(disableSigningErrorTemplateConstant, signingError)
		}
	}

	header := ReadmeHeader{
		PackageName:        packageInfo.Name,
		UpstreamRepository: publisher.configuration.UpstreamRepository,
		InstallCommand:     InstallCommandFor(publisher.configuration.InstallCommandTemplate, mirror.String()),
	}
	if readmeError := PrependReadmeHeader(publisher.fileSystem, cloneDirectory, header); readmeError != nil {
		return PackageOutcome{}, fmt.Errorf(readmeErrorTemplateConstant, readmeError)
	}

	if markerError := WriteUniquenessMarker(publisher.fileSystem, cloneDirectory, publisher.clock.Now()); markerError != nil {
		return PackageOutcome{}, fmt.Errorf(markerErrorTemplateConstant, markerError)
	}

	if _, stageError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitAddSubcommandConstant, gitAllFlagConstant)); stageError != nil {
		return PackageOutcome{}, fmt.Errorf(stageErrorTemplateConstant, stageError)
	}
	if _, commitError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitCommitSubcommandConstant, gitMessageFlagConstant, runContext.CommitSummary.Message())); commitError != nil {
		return PackageOutcome{}, fmt.Errorf(commitErrorTemplateConstant, commitError)
	}
	if _, tagError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitTagSubcommandConstant, tagName)); tagError != nil {
		return PackageOutcome{}, fmt.Errorf(tagErrorTemplateConstant, tagName, tagError)
	}

	pushReference := runContext.Branch
	if len(pushReference) == 0 {
		pushReference = gitHeadReferenceConstant
	}
	if _, pushError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitPushSubcommandConstant, gitOriginRemoteConstant, pushReference)); pushError != nil {
		return PackageOutcome{}, fmt.Errorf(pushBranchErrorTemplateConstant, pushReference, pushError)
	}
	if _, pushTagsError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitPushSubcommandConstant, gitOriginRemoteConstant, gitTagsFlagConstant)); pushTagsError != nil {
		return PackageOutcome{}, fmt.Errorf(pushTagsErrorTemplateConstant, pushTagsError)
	}

	publisher.logger.Info(
		packagePublishedLogMessageConstant,
		zap.String(packageNameFieldNameConstant, packageInfo.Name),
		zap.String(mirrorFieldNameConstant, mirror.String()),
		zap.String(tagFieldNameConstant, tagName),
		zap.String(cloneDirectoryFieldNameConstant, cloneDirectory),
	)
	return outcome, nil
}

// switchBranch checks out branch, creating it when the mirror does not have it yet.
func (publisher *Publisher) switchBranch(executionContext context.Context, cloneDirectory string, branch string) error {
	_, checkoutError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitCheckoutSubcommandConstant, branch))
	if checkoutError == nil {
		return nil
	}
	if ClassifyCheckoutFailure(checkoutError) != OutcomeBranchMissing {
		return fmt.Errorf(checkoutErrorTemplateConstant, branch, checkoutError)
	}

	publisher.logger.Info(branchCreatedLogMessageConstant, zap.String(branchFieldNameConstant, branch), zap.String(cloneDirectoryFieldNameConstant, cloneDirectory))
	if _, createError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(cloneDirectory, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, branch)); createError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, branch, createError)
	}
	return nil
}
