// Package execshell runs the external tools the snapshot publisher depends on.
//
// ShellExecutor wraps a CommandRunner (OSCommandRunner in production) with
// structured logging, credential redaction, and typed failures:
// CommandFailedError for non-zero exit codes and CommandExecutionError for
// processes that could not run at all. Callers distinguish the two with
// errors.As to decide which failures they can tolerate.
package execshell
