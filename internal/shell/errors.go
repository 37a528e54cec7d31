package shell

import "fmt"

// ClosedError is returned when an operation is attempted on a session
// that was explicitly closed.
type ClosedError struct {
	Name string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("session %q is closed", e.Name)
}

// ExitedError is returned when the liveness check finds that the shell
// process has terminated on its own. The session flips to closed; the
// handle is permanently unusable afterwards.
type ExitedError struct {
	Name string
	Code int
}

func (e *ExitedError) Error() string {
	return fmt.Sprintf("session %q process exited with code %d", e.Name, e.Code)
}
