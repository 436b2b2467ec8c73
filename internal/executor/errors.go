package executor

import "fmt"

// CommandError is an OS command failure that was not tolerated
type CommandError struct {
	Command  string
	Stderr   string
	ExitCode int
	Code     Code
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command failed: %s (exit %d)", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command failed: %s: %s", e.Command, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
