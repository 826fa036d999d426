package publish

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/snapshots/internal/execshell"
	"github.com/temirov/snapshots/internal/githubauth"
	"github.com/temirov/snapshots/internal/snapshot"
	"github.com/temirov/snapshots/internal/utils"
)

const (
	commandUseConstant                      = "publish"
	commandShortDescriptionConstant         = "Build the package set and push snapshot mirrors"
	commandLongDescriptionConstant          = "publish runs the configured staging, build and help steps, then commits every snapshot package's dist output to its mirror repository and tags it."
	forceFlagNameConstant                   = "force"
	forceFlagShorthandConstant              = "f"
	forceFlagDescriptionConstant            = "Publish even when the working tree has uncommitted changes"
	gitHubTokenFlagNameConstant             = "github-token"
	gitHubTokenFlagDescriptionConstant      = "GitHub token used to clone and push mirrors (defaults to " + githubauth.EnvSnapshotGitHubToken + ")"
	branchFlagNameConstant                  = "branch"
	branchFlagDescriptionConstant           = "Mirror branch to publish (defaults to the CI branch, then main)"
	manifestFlagNameConstant                = "manifest"
	manifestFlagDescriptionConstant         = "Path to a YAML manifest listing the package table"
	verifyMirrorsFlagNameConstant           = "verify-mirrors"
	verifyMirrorsFlagDescriptionConstant    = "Check through the GitHub API that every mirror exists and accepts pushes"
	keepTemporaryFlagNameConstant           = "keep-temporary"
	keepTemporaryFlagDescriptionConstant    = "Leave the temporary clone directory in place after the run"
	unexpectedArgumentsErrorMessageConstant = "publish does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "publish failed: %w"
	dryRunSummaryTemplateConstant           = "build finished on branch %s; no GitHub token, nothing published\n"
	skippedSummaryTemplateConstant          = "SKIP %s\n"
	publishedSummaryTemplateConstant        = "PUBLISHED %s -> %s@%s\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current publisher configuration.
type ConfigurationProvider func() snapshot.Configuration

// CommandBuilder assembles the publish command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        ConfigurationProvider
	PublisherResolver            PublisherResolver
	CommandRunner                execshell.CommandRunner
	FileSystem                   afero.Fs
	Environment                  githubauth.EnvironmentLookup
	PathExpander                 *utils.PathExpander
}

// Build constructs the publish command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().BoolP(forceFlagNameConstant, forceFlagShorthandConstant, false, forceFlagDescriptionConstant)
	command.Flags().String(gitHubTokenFlagNameConstant, "", gitHubTokenFlagDescriptionConstant)
	command.Flags().String(branchFlagNameConstant, "", branchFlagDescriptionConstant)
	command.Flags().String(manifestFlagNameConstant, "", manifestFlagDescriptionConstant)
	command.Flags().Bool(verifyMirrorsFlagNameConstant, false, verifyMirrorsFlagDescriptionConstant)
	command.Flags().Bool(keepTemporaryFlagNameConstant, false, keepTemporaryFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	configuration, configurationError := builder.parseConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	options, optionsError := parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	packageTable, tableError := loadPackageTable(builder.resolveFileSystem(), builder.resolvePathExpander(), configuration)
	if tableError != nil {
		return tableError
	}

	logger := resolveLogger(builder.LoggerProvider)
	publisher, resolveError := builder.resolvePublisher(logger, configuration, packageTable)
	if resolveError != nil {
		return resolveError
	}

	result, runError := publisher.Run(command.Context(), options)
	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}

	return writeSummary(command.OutOrStdout(), result)
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) (snapshot.Configuration, error) {
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	manifestFlagValue, manifestFlagError := command.Flags().GetString(manifestFlagNameConstant)
	if manifestFlagError != nil {
		return snapshot.Configuration{}, manifestFlagError
	}
	if trimmedManifest := strings.TrimSpace(manifestFlagValue); len(trimmedManifest) > 0 {
		configuration.ManifestPath = trimmedManifest
	}

	if command.Flags().Changed(verifyMirrorsFlagNameConstant) {
		verifyMirrorsValue, verifyMirrorsError := command.Flags().GetBool(verifyMirrorsFlagNameConstant)
		if verifyMirrorsError != nil {
			return snapshot.Configuration{}, verifyMirrorsError
		}
		configuration.VerifyMirrors = verifyMirrorsValue
	}

	if command.Flags().Changed(keepTemporaryFlagNameConstant) {
		keepTemporaryValue, keepTemporaryError := command.Flags().GetBool(keepTemporaryFlagNameConstant)
		if keepTemporaryError != nil {
			return snapshot.Configuration{}, keepTemporaryError
		}
		configuration.KeepTemporary = keepTemporaryValue
	}

	return configuration, nil
}

func parseOptions(command *cobra.Command) (snapshot.Options, error) {
	forceValue, forceError := command.Flags().GetBool(forceFlagNameConstant)
	if forceError != nil {
		return snapshot.Options{}, forceError
	}

	tokenValue, tokenError := command.Flags().GetString(gitHubTokenFlagNameConstant)
	if tokenError != nil {
		return snapshot.Options{}, tokenError
	}

	branchValue, branchError := command.Flags().GetString(branchFlagNameConstant)
	if branchError != nil {
		return snapshot.Options{}, branchError
	}

	return snapshot.Options{
		Force:       forceValue,
		GitHubToken: strings.TrimSpace(tokenValue),
		Branch:      strings.TrimSpace(branchValue),
	}, nil
}

func (builder *CommandBuilder) resolvePublisher(logger *zap.Logger, configuration snapshot.Configuration, packageTable snapshot.PackageTable) (PublisherRunner, error) {
	if builder.PublisherResolver != nil {
		return builder.PublisherResolver.Resolve(logger, configuration, packageTable)
	}

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	defaultResolver := &DefaultPublisherResolver{
		CommandRunner:        builder.CommandRunner,
		HumanReadableLogging: humanReadableLogging,
		FileSystem:           builder.resolveFileSystem(),
		Environment:          builder.Environment,
	}

	return defaultResolver.Resolve(logger, configuration, packageTable)
}

func (builder *CommandBuilder) resolveFileSystem() afero.Fs {
	if builder.FileSystem == nil {
		return afero.NewOsFs()
	}
	return builder.FileSystem
}

func (builder *CommandBuilder) resolvePathExpander() *utils.PathExpander {
	if builder.PathExpander == nil {
		return utils.NewPathExpander()
	}
	return builder.PathExpander
}

func writeSummary(outputWriter io.Writer, result snapshot.Result) error {
	if result.DryRun {
		_, writeError := fmt.Fprintf(outputWriter, dryRunSummaryTemplateConstant, result.Branch)
		return writeError
	}

	for _, packageOutcome := range result.Packages {
		var writeError error
		if packageOutcome.Skipped {
			_, writeError = fmt.Fprintf(outputWriter, skippedSummaryTemplateConstant, packageOutcome.Name)
		} else {
			_, writeError = fmt.Fprintf(outputWriter, publishedSummaryTemplateConstant, packageOutcome.Name, packageOutcome.Mirror, packageOutcome.Tag)
		}
		if writeError != nil {
			return writeError
		}
	}

	return nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}

	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func resolveConfiguration(provider ConfigurationProvider) snapshot.Configuration {
	configuration := snapshot.DefaultConfiguration()
	if provider != nil {
		configuration = provider()
	}
	return configuration.Sanitize()
}
