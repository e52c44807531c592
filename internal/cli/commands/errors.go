package commands

import "fmt"

// Exit codes used by panelgen.
const (
	ExitFailure = 1
	// ExitNonsense is returned for a non-positive --samples.
	ExitNonsense = 69
)

// ExitError makes the process exit with Code. A nil Err means the problem has
// already been reported to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
