package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/snapshots/internal/execshell"
)

const (
	stagingStepNameConstant             = "staging"
	buildStepNameConstant               = "build"
	helpStepNameConstant                = "help"
	stepSkippedLogMessageConstant       = "step not configured, skipping"
	stepCompletedLogMessageConstant     = "step completed"
	stepFailedErrorTemplateConstant     = "%s step failed: %w"
	stepFieldNameConstant               = "step"
	temporaryRootEnvironmentKeyConstant = "SNAPSHOT_TEMPORARY_ROOT"
	branchEnvironmentKeyConstant        = "SNAPSHOT_BRANCH"
)

// CommandExecutor runs arbitrary external commands.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// runStep executes a configured external step. Steps learn the temporary root
// and branch through SNAPSHOT_TEMPORARY_ROOT and SNAPSHOT_BRANCH.
func (publisher *Publisher) runStep(executionContext context.Context, stepName string, step StepConfiguration, defaultWorkingDirectory string, runContext RunContext) error {
	if !step.Enabled() {
		publisher.logger.Info(stepSkippedLogMessageConstant, zap.String(stepFieldNameConstant, stepName))
		return nil
	}

	workingDirectory := defaultWorkingDirectory
	if len(step.WorkingDirectory) > 0 {
		workingDirectory = publisher.pathExpander.Resolve(publisher.configuration.RepositoryPath, step.WorkingDirectory)
	}

	environment := make(map[string]string, len(step.Environment)+2)
	for key, value := range step.Environment {
		environment[key] = value
	}
	environment[temporaryRootEnvironmentKeyConstant] = runContext.TemporaryRoot
	environment[branchEnvironmentKeyConstant] = runContext.Branch

	stepContext := executionContext
	if publisher.configuration.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepContext, cancel = context.WithTimeout(executionContext, publisher.configuration.StepTimeout)
		defer cancel()
	}

	command := execshell.ShellCommand{
		Name: execshell.CommandName(step.Command),
		Details: execshell.CommandDetails{
			Arguments:            append([]string(nil), step.Arguments...),
			WorkingDirectory:     workingDirectory,
			EnvironmentVariables: environment,
		},
	}
	if _, executionError := publisher.commandExecutor.Execute(stepContext, command); executionError != nil {
		return fmt.Errorf(stepFailedErrorTemplateConstant, stepName, executionError)
	}

	publisher.logger.Info(stepCompletedLogMessageConstant, zap.String(stepFieldNameConstant, stepName))
	return nil
}
