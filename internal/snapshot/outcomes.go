package snapshot

import (
	"errors"
	"strings"

	"github.com/temirov/snapshots/internal/execshell"
)

// CommandOutcome classifies a failed git command the publisher may tolerate.
type CommandOutcome string

// Known outcomes.
const (
	OutcomeFatal           CommandOutcome = "fatal"
	OutcomeBranchMissing   CommandOutcome = "branch_missing"
	OutcomeNothingToRemove CommandOutcome = "nothing_to_remove"
)

// Indicators match untranslated git diagnostics; execshell runs git under the C locale.
var branchMissingIndicators = []string{
	"did not match any file(s) known to git",
	"invalid reference",
}

var nothingToRemoveIndicators = []string{
	"did not match any files",
}

// ClassifyCheckoutFailure reports OutcomeBranchMissing when checkout failed
// because the branch does not exist yet.
func ClassifyCheckoutFailure(failure error) CommandOutcome {
	return classifyCommandFailure(failure, branchMissingIndicators, OutcomeBranchMissing)
}

// ClassifyRemovalFailure reports OutcomeNothingToRemove when git rm failed
// because the clone tracks no files.
func ClassifyRemovalFailure(failure error) CommandOutcome {
	return classifyCommandFailure(failure, nothingToRemoveIndicators, OutcomeNothingToRemove)
}

// Only a completed command with a recognised diagnostic is tolerated.
// Processes that could not run, and cancellations, stay fatal.
func classifyCommandFailure(failure error, indicators []string, tolerated CommandOutcome) CommandOutcome {
	var commandFailure execshell.CommandFailedError
	if !errors.As(failure, &commandFailure) {
		return OutcomeFatal
	}

	standardError := strings.ToLower(commandFailure.Result.StandardError)
	for _, indicator := range indicators {
		if strings.Contains(standardError, indicator) {
			return tolerated
		}
	}
	return OutcomeFatal
}
