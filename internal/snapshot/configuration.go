package snapshot

import (
	"strings"
	"time"
)

const (
	defaultRepositoryPathConstant           = "."
	defaultInstallCommandTemplateConstant   = "npm install github:%s"
	defaultGitUserNameConstant              = "github-actions[bot]"
	defaultGitUserEmailConstant             = "41898282+github-actions[bot]@users.noreply.github.com"
	defaultTemporaryDirectoryPrefixConstant = "snapshots-"
	installCommandPlaceholderConstant       = "%s"
	configurationKeySeparatorConstant       = "."
)

// StepConfiguration describes an external command run before publishing.
// An empty Command disables the step.
type StepConfiguration struct {
	Command          string            `mapstructure:"command"`
	Arguments        []string          `mapstructure:"arguments"`
	WorkingDirectory string            `mapstructure:"working_directory"`
	Environment      map[string]string `mapstructure:"environment"`
}

// Configuration captures publisher settings loaded from the configuration file.
type Configuration struct {
	RepositoryPath           string            `mapstructure:"repository_path"`
	UpstreamRepository       string            `mapstructure:"upstream_repository"`
	InstallCommandTemplate   string            `mapstructure:"install_command_template"`
	GitHost                  string            `mapstructure:"git_host"`
	GitHubAPIURL             string            `mapstructure:"github_api_url"`
	GitUserName              string            `mapstructure:"git_user_name"`
	GitUserEmail             string            `mapstructure:"git_user_email"`
	TemporaryDirectoryPrefix string            `mapstructure:"temporary_directory_prefix"`
	KeepTemporary            bool              `mapstructure:"keep_temporary"`
	VerifyMirrors            bool              `mapstructure:"verify_mirrors"`
	StepTimeout              time.Duration     `mapstructure:"step_timeout"`
	StagingStep              StepConfiguration `mapstructure:"staging"`
	BuildStep                StepConfiguration `mapstructure:"build"`
	HelpStep                 StepConfiguration `mapstructure:"help"`
	ManifestPath             string            `mapstructure:"manifest"`
	Packages                 []PackageInfo     `mapstructure:"packages"`
}

// DefaultConfiguration supplies baseline values for the publisher.
func DefaultConfiguration() Configuration {
	return Configuration{
		RepositoryPath:           defaultRepositoryPathConstant,
		InstallCommandTemplate:   defaultInstallCommandTemplateConstant,
		GitUserName:              defaultGitUserNameConstant,
		GitUserEmail:             defaultGitUserEmailConstant,
		TemporaryDirectoryPrefix: defaultTemporaryDirectoryPrefixConstant,
	}
}

// DefaultConfigurationValues returns the defaults keyed for viper under keyPrefix.
// Registering every key lets environment variables override values absent from configuration files.
func DefaultConfigurationValues(keyPrefix string) map[string]any {
	defaults := DefaultConfiguration()
	configurationKey := func(key string) string {
		if len(keyPrefix) == 0 {
			return key
		}
		return keyPrefix + configurationKeySeparatorConstant + key
	}

	values := map[string]any{
		configurationKey("repository_path"):            defaults.RepositoryPath,
		configurationKey("upstream_repository"):        defaults.UpstreamRepository,
		configurationKey("install_command_template"):   defaults.InstallCommandTemplate,
		configurationKey("git_host"):                   defaults.GitHost,
		configurationKey("github_api_url"):             defaults.GitHubAPIURL,
		configurationKey("git_user_name"):              defaults.GitUserName,
		configurationKey("git_user_email"):             defaults.GitUserEmail,
		configurationKey("temporary_directory_prefix"): defaults.TemporaryDirectoryPrefix,
		configurationKey("keep_temporary"):             defaults.KeepTemporary,
		configurationKey("verify_mirrors"):             defaults.VerifyMirrors,
		configurationKey("step_timeout"):               defaults.StepTimeout,
		configurationKey("manifest"):                   defaults.ManifestPath,
	}
	for _, stepKey := range []string{"staging", "build", "help"} {
		values[configurationKey(stepKey+configurationKeySeparatorConstant+"command")] = ""
		values[configurationKey(stepKey+configurationKeySeparatorConstant+"working_directory")] = ""
	}
	return values
}

// Sanitize trims configured values and restores defaults for blank entries.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.RepositoryPath = valueOrDefault(configuration.RepositoryPath, defaults.RepositoryPath)
	sanitized.UpstreamRepository = strings.TrimSpace(configuration.UpstreamRepository)
	sanitized.InstallCommandTemplate = valueOrDefault(configuration.InstallCommandTemplate, defaults.InstallCommandTemplate)
	sanitized.GitHost = strings.TrimSpace(configuration.GitHost)
	sanitized.GitHubAPIURL = strings.TrimSpace(configuration.GitHubAPIURL)
	sanitized.GitUserName = valueOrDefault(configuration.GitUserName, defaults.GitUserName)
	sanitized.GitUserEmail = valueOrDefault(configuration.GitUserEmail, defaults.GitUserEmail)
	sanitized.TemporaryDirectoryPrefix = valueOrDefault(configuration.TemporaryDirectoryPrefix, defaults.TemporaryDirectoryPrefix)
	sanitized.ManifestPath = strings.TrimSpace(configuration.ManifestPath)
	sanitized.StagingStep = configuration.StagingStep.Sanitize()
	sanitized.BuildStep = configuration.BuildStep.Sanitize()
	sanitized.HelpStep = configuration.HelpStep.Sanitize()
	if sanitized.StepTimeout < 0 {
		sanitized.StepTimeout = 0
	}

	if len(configuration.Packages) > 0 {
		sanitized.Packages = make([]PackageInfo, 0, len(configuration.Packages))
		for _, packageInfo := range configuration.Packages {
			sanitized.Packages = append(sanitized.Packages, packageInfo.Sanitize())
		}
	}

	return sanitized
}

// Sanitize trims the step command, arguments and working directory and upper-cases environment names.
func (step StepConfiguration) Sanitize() StepConfiguration {
	sanitized := step
	sanitized.Command = strings.TrimSpace(step.Command)
	sanitized.WorkingDirectory = strings.TrimSpace(step.WorkingDirectory)
	if len(step.Arguments) > 0 {
		sanitized.Arguments = make([]string, 0, len(step.Arguments))
		for _, argument := range step.Arguments {
			if trimmedArgument := strings.TrimSpace(argument); len(trimmedArgument) > 0 {
				sanitized.Arguments = append(sanitized.Arguments, trimmedArgument)
			}
		}
	}
	if len(step.Environment) > 0 {
		// viper lowercases map keys; environment variable names are restored to upper case.
		sanitized.Environment = make(map[string]string, len(step.Environment))
		for key, value := range step.Environment {
			if trimmedKey := strings.TrimSpace(key); len(trimmedKey) > 0 {
				sanitized.Environment[strings.ToUpper(trimmedKey)] = value
			}
		}
	}
	return sanitized
}

// Enabled reports whether the step has a command to run.
func (step StepConfiguration) Enabled() bool {
	return len(strings.TrimSpace(step.Command)) > 0
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
