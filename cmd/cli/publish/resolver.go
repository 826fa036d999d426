package publish

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/snapshots/internal/execshell"
	"github.com/temirov/snapshots/internal/githubauth"
	"github.com/temirov/snapshots/internal/gitrepo"
	"github.com/temirov/snapshots/internal/mirrors"
	"github.com/temirov/snapshots/internal/snapshot"
	"github.com/temirov/snapshots/internal/ui"
)

const (
	shellExecutorErrorTemplateConstant     = "unable to construct shell executor: %w"
	repositoryManagerErrorTemplateConstant = "unable to construct repository manager: %w"
	mirrorVerifierErrorTemplateConstant    = "unable to construct mirror verifier: %w"
	publisherErrorTemplateConstant         = "unable to construct publisher: %w"
)

// PublisherRunner executes a single publish run.
type PublisherRunner interface {
	Run(executionContext context.Context, options snapshot.Options) (snapshot.Result, error)
}

// PublisherResolver creates publishers for the publish command.
type PublisherResolver interface {
	Resolve(logger *zap.Logger, configuration snapshot.Configuration, packageTable snapshot.PackageTable) (PublisherRunner, error)
}

// DefaultPublisherResolver wires a snapshot.Publisher to git, the build steps, and the GitHub API.
type DefaultPublisherResolver struct {
	CommandRunner        execshell.CommandRunner
	HumanReadableLogging bool
	FileSystem           afero.Fs
	Environment          githubauth.EnvironmentLookup
}

// Resolve constructs a publisher using configured collaborators or process defaults.
func (resolver *DefaultPublisherResolver) Resolve(logger *zap.Logger, configuration snapshot.Configuration, packageTable snapshot.PackageTable) (PublisherRunner, error) {
	commandRunner := resolver.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	var eventObserver execshell.CommandEventObserver
	if resolver.HumanReadableLogging {
		eventObserver = ui.NewConsoleCommandEventLogger(logger)
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, eventObserver)
	if executorError != nil {
		return nil, fmt.Errorf(shellExecutorErrorTemplateConstant, executorError)
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return nil, fmt.Errorf(repositoryManagerErrorTemplateConstant, managerError)
	}

	var mirrorVerifier snapshot.MirrorVerifier
	if configuration.VerifyMirrors {
		verifier, verifierError := mirrors.NewVerifier(logger, configuration.GitHubAPIURL)
		if verifierError != nil {
			return nil, fmt.Errorf(mirrorVerifierErrorTemplateConstant, verifierError)
		}
		mirrorVerifier = verifier
	}

	publisher, publisherError := snapshot.NewPublisher(snapshot.Dependencies{
		Logger:              logger,
		GitExecutor:         shellExecutor,
		CommandExecutor:     shellExecutor,
		RepositoryInspector: repositoryManager,
		MirrorVerifier:      mirrorVerifier,
		FileSystem:          resolver.FileSystem,
		Environment:         resolver.Environment,
	}, configuration, packageTable)
	if publisherError != nil {
		return nil, fmt.Errorf(publisherErrorTemplateConstant, publisherError)
	}

	return publisher, nil
}
