package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/snapshots/internal/githubauth"
	"github.com/temirov/snapshots/internal/gitrepo"
	"github.com/temirov/snapshots/internal/utils"
)

const (
	dirtyWorkingTreeMessageConstant              = "working tree has uncommitted changes; commit them or pass --force"
	upstreamRepositoryRequiredMessageConstant    = "upstream_repository must be configured to publish snapshots"
	installTemplateInvalidMessageConstant        = "install_command_template must contain a single %s placeholder"
	gitExecutorMissingMessageConstant            = "git executor not configured"
	commandExecutorMissingMessageConstant        = "command executor not configured"
	repositoryInspectorMissingMessageConstant    = "repository inspector not configured"
	mirrorVerifierMissingMessageConstant         = "mirror verification requested but no verifier configured"
	worktreeCheckErrorTemplateConstant           = "unable to inspect working tree: %w"
	latestCommitErrorTemplateConstant            = "unable to determine publish message: %w"
	identityErrorTemplateConstant                = "unable to configure git identity: %w"
	mirrorVerificationErrorTemplateConstant      = "mirror verification failed: %w"
	packagePublishErrorTemplateConstant          = "unable to publish package %q: %w"
	dirtyWorkingTreeLogMessageConstant           = "refusing to publish from a dirty working tree"
	forcedDirtyWorkingTreeLogMessageConstant     = "publishing from a dirty working tree because force is set"
	temporaryRootCreatedLogMessageConstant       = "temporary directory created"
	temporaryRootKeptLogMessageConstant          = "temporary directory kept"
	temporaryRootCleanupLogMessageConstant       = "temporary directory cleanup failed"
	publishSkippedLogMessageConstant             = "no GitHub token available; build finished, publishing skipped"
	publishStartedLogMessageConstant             = "publishing snapshots"
	publishCompletedLogMessageConstant           = "snapshots published"
	repositoryPathFieldNameConstant              = "repository_path"
	temporaryRootFieldNameConstant               = "temporary_root"
	branchFieldNameConstant                      = "branch"
	packageCountFieldNameConstant                = "package_count"
	publishedCountFieldNameConstant              = "published_count"
	gitConfigSubcommandConstant                  = "config"
	gitGlobalFlagConstant                        = "--global"
	gitUserNameKeyConstant                       = "user.name"
	gitUserEmailKeyConstant                      = "user.email"
	installTemplatePlaceholderCountConstant      = 1
	upstreamRepositoryValidationTemplateConstant = "invalid upstream_repository: %w"
)

var (
	// ErrDirtyWorkingTree indicates uncommitted changes without Options.Force.
	ErrDirtyWorkingTree = errors.New(dirtyWorkingTreeMessageConstant)
	// ErrUpstreamRepositoryRequired indicates publishing was attempted without an upstream repository.
	ErrUpstreamRepositoryRequired = errors.New(upstreamRepositoryRequiredMessageConstant)
	// ErrInstallCommandTemplateInvalid indicates the install template cannot render a mirror path.
	ErrInstallCommandTemplateInvalid = errors.New(installTemplateInvalidMessageConstant)
	// ErrMirrorVerifierNotConfigured indicates VerifyMirrors without a MirrorVerifier dependency.
	ErrMirrorVerifierNotConfigured = errors.New(mirrorVerifierMissingMessageConstant)

	errGitExecutorMissing         = errors.New(gitExecutorMissingMessageConstant)
	errCommandExecutorMissing     = errors.New(commandExecutorMissingMessageConstant)
	errRepositoryInspectorMissing = errors.New(repositoryInspectorMissingMessageConstant)
)

// RepositoryInspector reads the state of the source repository.
type RepositoryInspector interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	LatestCommitSummary(executionContext context.Context, repositoryPath string) (gitrepo.CommitSummary, error)
}

// MirrorVerifier confirms that every mirror exists and accepts pushes from token.
type MirrorVerifier interface {
	VerifyMirrors(executionContext context.Context, token string, mirrors []gitrepo.RepositoryIdentifier) error
}

// Dependencies describes the collaborators of a Publisher.
type Dependencies struct {
	Logger              *zap.Logger
	GitExecutor         GitExecutor
	CommandExecutor     CommandExecutor
	RepositoryInspector RepositoryInspector
	MirrorVerifier      MirrorVerifier
	FileSystem          afero.Fs
	Clock               Clock
	Environment         githubauth.EnvironmentLookup
	PathExpander        *utils.PathExpander
}

// Options are the per-invocation inputs of a run.
type Options struct {
	Force       bool
	GitHubToken string
	Branch      string
}

// RunContext is derived once per invocation and shared by every package.
type RunContext struct {
	DirtyWorkingTree bool
	CommitSummary    gitrepo.CommitSummary
	Branch           string
	Token            string
	TemporaryRoot    string
}

// PackageOutcome reports what happened to one table entry.
type PackageOutcome struct {
	Name           string
	Skipped        bool
	Mirror         string
	Tag            string
	CloneDirectory string
}

// Result captures the observable outcome of a run.
type Result struct {
	Branch           string
	DryRun           bool
	DirtyWorkingTree bool
	TemporaryRoot    string
	Packages         []PackageOutcome
}

// Publisher builds the package set and publishes snapshots to mirror repositories.
type Publisher struct {
	logger              *zap.Logger
	gitExecutor         GitExecutor
	commandExecutor     CommandExecutor
	repositoryInspector RepositoryInspector
	mirrorVerifier      MirrorVerifier
	fileSystem          afero.Fs
	clock               Clock
	environment         githubauth.EnvironmentLookup
	pathExpander        *utils.PathExpander
	configuration       Configuration
	packageTable        PackageTable
}

// NewPublisher constructs a Publisher for the package table.
func NewPublisher(dependencies Dependencies, configuration Configuration, packageTable PackageTable) (*Publisher, error) {
	if dependencies.GitExecutor == nil {
		return nil, errGitExecutorMissing
	}
	if dependencies.CommandExecutor == nil {
		return nil, errCommandExecutorMissing
	}
	if dependencies.RepositoryInspector == nil {
		return nil, errRepositoryInspectorMissing
	}

	sanitizedConfiguration := configuration.Sanitize()
	if strings.Count(sanitizedConfiguration.InstallCommandTemplate, installCommandPlaceholderConstant) != installTemplatePlaceholderCountConstant {
		return nil, ErrInstallCommandTemplateInvalid
	}
	if len(sanitizedConfiguration.UpstreamRepository) > 0 {
		if _, parseError := gitrepo.ParseRepositoryIdentifier(sanitizedConfiguration.UpstreamRepository); parseError != nil {
			return nil, fmt.Errorf(upstreamRepositoryValidationTemplateConstant, parseError)
		}
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	environment := dependencies.Environment
	if environment == nil {
		environment = githubauth.ProcessEnvironment()
	}
	pathExpander := dependencies.PathExpander
	if pathExpander == nil {
		pathExpander = utils.NewPathExpander()
	}

	return &Publisher{
		logger:              logger,
		gitExecutor:         dependencies.GitExecutor,
		commandExecutor:     dependencies.CommandExecutor,
		repositoryInspector: dependencies.RepositoryInspector,
		mirrorVerifier:      dependencies.MirrorVerifier,
		fileSystem:          fileSystem,
		clock:               clock,
		environment:         environment,
		pathExpander:        pathExpander,
		configuration:       sanitizedConfiguration,
		packageTable:        packageTable,
	}, nil
}

// Run validates preconditions, runs the build steps, and publishes every snapshot package.
// Without a credential the run ends after the build steps with Result.DryRun set.
func (publisher *Publisher) Run(executionContext context.Context, options Options) (Result, error) {
	repositoryPath := publisher.configuration.RepositoryPath

	clean, worktreeError := publisher.repositoryInspector.CheckCleanWorktree(executionContext, repositoryPath)
	if worktreeError != nil {
		return Result{}, fmt.Errorf(worktreeCheckErrorTemplateConstant, worktreeError)
	}
	if !clean {
		if !options.Force {
			publisher.logger.Error(dirtyWorkingTreeLogMessageConstant, zap.String(repositoryPathFieldNameConstant, repositoryPath))
			return Result{DirtyWorkingTree: true}, ErrDirtyWorkingTree
		}
		publisher.logger.Warn(forcedDirtyWorkingTreeLogMessageConstant, zap.String(repositoryPathFieldNameConstant, repositoryPath))
	}

	runContext := RunContext{
		DirtyWorkingTree: !clean,
		Branch:           githubauth.ResolveBranch(options.Branch, publisher.environment),
		Token:            githubauth.ResolveToken(options.GitHubToken, publisher.environment),
	}
	if len(runContext.Token) > 0 && len(publisher.configuration.UpstreamRepository) == 0 {
		return Result{DirtyWorkingTree: runContext.DirtyWorkingTree}, ErrUpstreamRepositoryRequired
	}

	temporaryRoot, temporaryRootError := afero.TempDir(publisher.fileSystem, "", publisher.configuration.TemporaryDirectoryPrefix)
	if temporaryRootError != nil {
		return Result{}, fmt.Errorf(temporaryRootErrorTemplateConstant, temporaryRootError)
	}
	runContext.TemporaryRoot = temporaryRoot
	publisher.logger.Debug(temporaryRootCreatedLogMessageConstant, zap.String(temporaryRootFieldNameConstant, temporaryRoot))
	defer publisher.releaseTemporaryRoot(temporaryRoot)

	result := Result{
		Branch:           runContext.Branch,
		DirtyWorkingTree: runContext.DirtyWorkingTree,
		TemporaryRoot:    temporaryRoot,
	}

	if len(runContext.Token) > 0 {
		if identityError := publisher.configureIdentity(executionContext); identityError != nil {
			return result, identityError
		}
	}

	if stepError := publisher.runStep(executionContext, stagingStepNameConstant, publisher.configuration.StagingStep, temporaryRoot, runContext); stepError != nil {
		return result, stepError
	}
	if stepError := publisher.runStep(executionContext, buildStepNameConstant, publisher.configuration.BuildStep, repositoryPath, runContext); stepError != nil {
		return result, stepError
	}
	if stepError := publisher.runStep(executionContext, helpStepNameConstant, publisher.configuration.HelpStep, repositoryPath, runContext); stepError != nil {
		return result, stepError
	}

	if len(runContext.Token) == 0 {
		publisher.logger.Info(publishSkippedLogMessageConstant)
		result.DryRun = true
		return result, nil
	}

	if publisher.configuration.VerifyMirrors {
		if publisher.mirrorVerifier == nil {
			return result, ErrMirrorVerifierNotConfigured
		}
		if verificationError := publisher.mirrorVerifier.VerifyMirrors(executionContext, runContext.Token, publisher.packageTable.SnapshotMirrors()); verificationError != nil {
			return result, fmt.Errorf(mirrorVerificationErrorTemplateConstant, verificationError)
		}
	}

	commitSummary, summaryError := publisher.repositoryInspector.LatestCommitSummary(executionContext, repositoryPath)
	if summaryError != nil {
		return result, fmt.Errorf(latestCommitErrorTemplateConstant, summaryError)
	}
	runContext.CommitSummary = commitSummary

	publisher.logger.Info(
		publishStartedLogMessageConstant,
		zap.String(branchFieldNameConstant, runContext.Branch),
		zap.Int(packageCountFieldNameConstant, publisher.packageTable.Len()),
	)

	publishedCount := 0
	for _, packageInfo := range publisher.packageTable.Packages() {
		packageOutcome, publishError := publisher.publishPackage(executionContext, runContext, packageInfo)
		if publishError != nil {
			return result, fmt.Errorf(packagePublishErrorTemplateConstant, packageInfo.Name, publishError)
		}
		result.Packages = append(result.Packages, packageOutcome)
		if !packageOutcome.Skipped {
			publishedCount++
		}
	}

	publisher.logger.Info(
		publishCompletedLogMessageConstant,
		zap.String(branchFieldNameConstant, runContext.Branch),
		zap.Int(publishedCountFieldNameConstant, publishedCount),
	)
	return result, nil
}

func (publisher *Publisher) configureIdentity(executionContext context.Context) error {
	identity := [][]string{
		{gitConfigSubcommandConstant, gitGlobalFlagConstant, gitUserNameKeyConstant, publisher.configuration.GitUserName},
		{gitConfigSubcommandConstant, gitGlobalFlagConstant, gitUserEmailKeyConstant, publisher.configuration.GitUserEmail},
	}
	for _, arguments := range identity {
		if _, executionError := publisher.gitExecutor.ExecuteGit(executionContext, gitDetails(publisher.configuration.RepositoryPath, arguments...)); executionError != nil {
			return fmt.Errorf(identityErrorTemplateConstant, executionError)
		}
	}
	return nil
}

func (publisher *Publisher) releaseTemporaryRoot(temporaryRoot string) {
	if publisher.configuration.KeepTemporary {
		publisher.logger.Info(temporaryRootKeptLogMessageConstant, zap.String(temporaryRootFieldNameConstant, temporaryRoot))
		return
	}
	if removeError := publisher.fileSystem.RemoveAll(temporaryRoot); removeError != nil {
		publisher.logger.Warn(
			temporaryRootCleanupLogMessageConstant,
			zap.String(temporaryRootFieldNameConstant, temporaryRoot),
			zap.Error(fmt.Errorf(temporaryRootCleanupTemplateConstant, temporaryRoot, removeError)),
		)
	}
}

func (publisher *Publisher) resolveDist(dist string) string {
	resolvedPath := publisher.pathExpander.Resolve(publisher.configuration.RepositoryPath, dist)
	return filepath.Clean(resolvedPath)
}
