package publish_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/snapshots/cmd/cli/publish"
	"github.com/temirov/snapshots/internal/execshell"
	"github.com/temirov/snapshots/internal/githubauth"
	"github.com/temirov/snapshots/internal/snapshot"
)

const (
	manifestPathConstant        = "/workspace/snapshots.yaml"
	manifestContentConstant     = "packages:\n  - name: core\n    dist: packages/core/dist\n    snapshot: true\n    snapshot_repository: example/core-builds\n    snapshot_hash: v1.0.0\n  - name: docs\n    dist: packages/docs/dist\n"
	configurationMirrorConstant = "example/widgets-builds"
	flagTokenConstant           = "flag-token"
	flagBranchConstant          = "release"
)

type recordingPublisherResolver struct {
	configuration snapshot.Configuration
	packageTable  snapshot.PackageTable
	runner        *recordingPublisherRunner
	resolveError  error
}

func (resolver *recordingPublisherResolver) Resolve(_ *zap.Logger, configuration snapshot.Configuration, packageTable snapshot.PackageTable) (publish.PublisherRunner, error) {
	resolver.configuration = configuration
	resolver.packageTable = packageTable
	if resolver.resolveError != nil {
		return nil, resolver.resolveError
	}
	return resolver.runner, nil
}

type recordingPublisherRunner struct {
	options  []snapshot.Options
	result   snapshot.Result
	runError error
}

func (runner *recordingPublisherRunner) Run(_ context.Context, options snapshot.Options) (snapshot.Result, error) {
	runner.options = append(runner.options, options)
	return runner.result, runner.runError
}

type scriptedCommandRunner struct {
	commands []execshell.ShellCommand
}

func (runner *scriptedCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command)
	return execshell.ExecutionResult{}, nil
}

func configurationWithInlinePackage() snapshot.Configuration {
	configuration := snapshot.DefaultConfiguration()
	configuration.UpstreamRepository = "example/widgets"
	configuration.Packages = []snapshot.PackageInfo{{
		Name:               "widgets",
		Dist:               "dist",
		Snapshot:           true,
		SnapshotRepository: configurationMirrorConstant,
	}}
	return configuration
}

func newManifestFileSystem(testInstance *testing.T) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, manifestPathConstant, []byte(manifestContentConstant), 0o644))
	return fileSystem
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments []string) (string, error) {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestPublishCommandMapsFlagsAndConfiguration(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name                  string
		arguments             []string
		configuration         snapshot.Configuration
		expectedOptions       snapshot.Options
		expectedPackages      []string
		expectedVerifyMirrors bool
		expectedKeepTemporary bool
	}{
		{
			name:             "configuration_defaults",
			arguments:        []string{},
			configuration:    configurationWithInlinePackage(),
			expectedOptions:  snapshot.Options{},
			expectedPackages: []string{"widgets"},
		},
		{
			name:          "flags_override_configuration",
			arguments:     []string{"--force", "--github-token", flagTokenConstant, "--branch", flagBranchConstant, "--verify-mirrors", "--keep-temporary"},
			configuration: configurationWithInlinePackage(),
			expectedOptions: snapshot.Options{
				Force:       true,
				GitHubToken: flagTokenConstant,
				Branch:      flagBranchConstant,
			},
			expectedPackages:      []string{"widgets"},
			expectedVerifyMirrors: true,
			expectedKeepTemporary: true,
		},
		{
			name:      "disabled_flags_override_enabled_configuration",
			arguments: []string{"--verify-mirrors=false", "--keep-temporary=false"},
			configuration: func() snapshot.Configuration {
				configuration := configurationWithInlinePackage()
				configuration.VerifyMirrors = true
				configuration.KeepTemporary = true
				return configuration
			}(),
			expectedOptions:  snapshot.Options{},
			expectedPackages: []string{"widgets"},
		},
		{
			name:             "manifest_flag_replaces_inline_packages",
			arguments:        []string{"--manifest", manifestPathConstant},
			configuration:    configurationWithInlinePackage(),
			expectedOptions:  snapshot.Options{},
			expectedPackages: []string{"core", "docs"},
		},
		{
			name:      "manifest_from_configuration",
			arguments: []string{},
			configuration: func() snapshot.Configuration {
				configuration := configurationWithInlinePackage()
				configuration.ManifestPath = manifestPathConstant
				return configuration
			}(),
			expectedOptions:  snapshot.Options{},
			expectedPackages: []string{"core", "docs"},
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			subtest.Parallel()

			resolver := &recordingPublisherResolver{runner: &recordingPublisherRunner{}}
			builder := publish.CommandBuilder{
				LoggerProvider: func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: func() snapshot.Configuration {
					return testCase.configuration
				},
				PublisherResolver: resolver,
				FileSystem:        newManifestFileSystem(subtest),
			}

			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			_, executionError := executeCommand(subtest, command, testCase.arguments)
			require.NoError(subtest, executionError)

			require.Equal(subtest, []snapshot.Options{testCase.expectedOptions}, resolver.runner.options)
			require.Equal(subtest, testCase.expectedVerifyMirrors, resolver.configuration.VerifyMirrors)
			require.Equal(subtest, testCase.expectedKeepTemporary, resolver.configuration.KeepTemporary)

			packageNames := make([]string, 0, resolver.packageTable.Len())
			for _, packageInfo := range resolver.packageTable.Packages() {
				packageNames = append(packageNames, packageInfo.Name)
			}
			require.Equal(subtest, testCase.expectedPackages, packageNames)
		})
	}
}

func TestPublishCommandWritesSummary(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name           string
		result         snapshot.Result
		expectedOutput string
	}{
		{
			name:           "dry_run",
			result:         snapshot.Result{Branch: "main", DryRun: true},
			expectedOutput: "build finished on branch main; no GitHub token, nothing published\n",
		},
		{
			name: "published_and_skipped",
			result: snapshot.Result{Branch: "main", Packages: []snapshot.PackageOutcome{
				{Name: "widgets", Mirror: configurationMirrorConstant, Tag: "abc1234"},
				{Name: "docs", Skipped: true},
			}},
			expectedOutput: "PUBLISHED widgets -> example/widgets-builds@abc1234\nSKIP docs\n",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			subtest.Parallel()

			resolver := &recordingPublisherResolver{runner: &recordingPublisherRunner{result: testCase.result}}
			builder := publish.CommandBuilder{
				ConfigurationProvider: configurationWithInlinePackage,
				PublisherResolver:     resolver,
				FileSystem:            afero.NewMemMapFs(),
			}

			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			output, executionError := executeCommand(subtest, command, nil)
			require.NoError(subtest, executionError)
			require.Equal(subtest, testCase.expectedOutput, output)
		})
	}
}

func TestPublishCommandFailures(testInstance *testing.T) {
	testInstance.Parallel()

	resolverFailure := errors.New("resolver failure")

	testCases := []struct {
		name          string
		arguments     []string
		configuration snapshot.Configuration
		resolver      *recordingPublisherResolver
		expectedError error
		expectedText  string
	}{
		{
			name:          "positional_arguments",
			arguments:     []string{"unexpected"},
			configuration: configurationWithInlinePackage(),
			resolver:      &recordingPublisherResolver{runner: &recordingPublisherRunner{}},
			expectedText:  "publish does not accept positional arguments",
		},
		{
			name:          "missing_manifest",
			arguments:     []string{"--manifest", "/missing.yaml"},
			configuration: configurationWithInlinePackage(),
			resolver:      &recordingPublisherResolver{runner: &recordingPublisherRunner{}},
			expectedText:  "unable to read manifest /missing.yaml",
		},
		{
			name:      "duplicate_packages",
			arguments: []string{},
			configuration: func() snapshot.Configuration {
				configuration := configurationWithInlinePackage()
				configuration.Packages = append(configuration.Packages, configuration.Packages[0])
				return configuration
			}(),
			resolver:     &recordingPublisherResolver{runner: &recordingPublisherRunner{}},
			expectedText: "invalid package table",
		},
		{
			name:          "resolver_error",
			arguments:     []string{},
			configuration: configurationWithInlinePackage(),
			resolver:      &recordingPublisherResolver{resolveError: resolverFailure},
			expectedError: resolverFailure,
		},
		{
			name:          "dirty_working_tree",
			arguments:     []string{},
			configuration: configurationWithInlinePackage(),
			resolver:      &recordingPublisherResolver{runner: &recordingPublisherRunner{runError: snapshot.ErrDirtyWorkingTree}},
			expectedError: snapshot.ErrDirtyWorkingTree,
			expectedText:  "publish failed",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			subtest.Parallel()

			builder := publish.CommandBuilder{
				ConfigurationProvider: func() snapshot.Configuration {
					return testCase.configuration
				},
				PublisherResolver: testCase.resolver,
				FileSystem:        newManifestFileSystem(subtest),
			}

			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			_, executionError := executeCommand(subtest, command, testCase.arguments)
			require.Error(subtest, executionError)
			if testCase.expectedError != nil {
				require.ErrorIs(subtest, executionError, testCase.expectedError)
			}
			if len(testCase.expectedText) > 0 {
				require.Contains(subtest, executionError.Error(), testCase.expectedText)
			}
		})
	}
}

func TestPublishCommandDryRunWithDefaultResolver(testInstance *testing.T) {
	testInstance.Parallel()

	commandRunner := &scriptedCommandRunner{}
	fileSystem := afero.NewMemMapFs()

	builder := publish.CommandBuilder{
		ConfigurationProvider: configurationWithInlinePackage,
		CommandRunner:         commandRunner,
		FileSystem:            fileSystem,
		Environment:           githubauth.MapEnvironment(map[string]string{githubauth.EnvCIBranch: "feature"}),
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, nil)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "build finished on branch feature; no GitHub token, nothing published\n", output)

	require.NotEmpty(testInstance, commandRunner.commands)
	firstCommand := commandRunner.commands[0]
	require.Equal(testInstance, execshell.CommandGit, firstCommand.Name)
	require.Equal(testInstance, "status --porcelain", strings.Join(firstCommand.Details.Arguments, " "))
	for _, recordedCommand := range commandRunner.commands {
		require.NotContains(testInstance, recordedCommand.Details.Arguments, "push")
		require.NotContains(testInstance, recordedCommand.Details.Arguments, "clone")
	}
}

func TestPackagesCommandPrintsTable(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name             string
		arguments        []string
		expectedContains []string
		expectedMissing  []string
	}{
		{
			name:             "inline_configuration",
			arguments:        []string{},
			expectedContains: []string{"name: widgets", "snapshot_repository: " + configurationMirrorConstant},
		},
		{
			name:             "manifest_flag",
			arguments:        []string{"--manifest", manifestPathConstant},
			expectedContains: []string{"name: core", "snapshot_hash: v1.0.0", "name: docs"},
			expectedMissing:  []string{"name: widgets"},
		},
		{
			name:             "snapshots_only",
			arguments:        []string{"--manifest", manifestPathConstant, "--snapshots-only"},
			expectedContains: []string{"name: core"},
			expectedMissing:  []string{"name: docs"},
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			subtest.Parallel()

			builder := publish.PackagesCommandBuilder{
				ConfigurationProvider: configurationWithInlinePackage,
				FileSystem:            newManifestFileSystem(subtest),
			}

			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			output, executionError := executeCommand(subtest, command, testCase.arguments)
			require.NoError(subtest, executionError)
			require.True(subtest, strings.HasPrefix(output, "packages:\n"))
			for _, expectedFragment := range testCase.expectedContains {
				require.Contains(subtest, output, expectedFragment)
			}
			for _, missingFragment := range testCase.expectedMissing {
				require.NotContains(subtest, output, missingFragment)
			}
		})
	}
}
