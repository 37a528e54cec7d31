package shell

import (
	"fmt"
	"time"
)

// StreamSource identifies which output pipe a chunk came from.
type StreamSource int

const (
	Stdout StreamSource = iota
	Stderr
)

func (s StreamSource) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// CommandResult is the outcome of one Execute call.
type CommandResult struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int // -1 if the code was never recovered
	Duration time.Duration
	TimedOut bool
}

// Success reports whether the command exited zero without timing out.
func (r *CommandResult) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

func (r *CommandResult) String() string {
	status := "OK"
	if !r.Success() {
		status = fmt.Sprintf("FAIL(%d)", r.ExitCode)
	}
	return fmt.Sprintf("<CommandResult [%s] %q (%.2fs)>", status, r.Command, r.Duration.Seconds())
}

// StreamEvent is one chunk of output delivered to a streaming sink
// while a command is still running.
type StreamEvent struct {
	Source StreamSource
	Data   string
	Time   time.Time
}
