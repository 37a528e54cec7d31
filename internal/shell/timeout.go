package shell

import "time"

// The execute loop's timeout handling is a small state machine rather
// than inline clock arithmetic, so the grace-period extension and the
// signal-exactly-once invariant can be tested without a subprocess.
//
//	running -> (deadline) -> interrupted -> (token) -> completed
//	                                     -> (grace)  -> abandoned
type execPhase int

const (
	phaseRunning execPhase = iota
	phaseInterrupted // group signaled, waiting out the grace period
	phaseCompleted
	phaseAbandoned
)

// timeoutAction is what the execute loop must do after a clock check.
type timeoutAction int

const (
	actNone      timeoutAction = iota
	actInterrupt               // signal the process group, exactly once
	actAbandon                 // stop waiting for the token
)

// DefaultGracePeriod is how long the engine keeps reading after the
// interrupt, to let the shell emit the completion token once its
// foreground child has died.
const DefaultGracePeriod = 3 * time.Second

type deadlineTracker struct {
	phase       execPhase
	start       time.Time
	limit       time.Duration // 0 means no timeout
	grace       time.Duration
	graceEnd    time.Time // set when entering phaseInterrupted
	interrupted bool
}

func newDeadlineTracker(start time.Time, limit, grace time.Duration) *deadlineTracker {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &deadlineTracker{start: start, limit: limit, grace: grace}
}

// check advances the state machine to now. actInterrupt is returned at
// most once per call lifetime.
func (t *deadlineTracker) check(now time.Time) timeoutAction {
	switch t.phase {
	case phaseRunning:
		if t.limit > 0 && now.Sub(t.start) >= t.limit {
			t.phase = phaseInterrupted
			t.graceEnd = now.Add(t.grace)
			t.interrupted = true
			return actInterrupt
		}
	case phaseInterrupted:
		if !now.Before(t.graceEnd) {
			t.phase = phaseAbandoned
			return actAbandon
		}
	}
	return actNone
}

// complete records that the token arrived. Legal from any non-abandoned
// phase; an interrupted call that still completes stays marked timed out.
func (t *deadlineTracker) complete() {
	t.phase = phaseCompleted
}

func (t *deadlineTracker) timedOut() bool {
	return t.interrupted
}

// waitBudget bounds the next readiness wait: never past the active
// deadline, never longer than a second so liveness stays observable.
func (t *deadlineTracker) waitBudget(now time.Time) time.Duration {
	const (
		maxWait = time.Second
		minWait = 10 * time.Millisecond
	)

	var remaining time.Duration
	switch t.phase {
	case phaseRunning:
		if t.limit == 0 {
			return maxWait
		}
		remaining = t.limit - now.Sub(t.start)
	case phaseInterrupted:
		remaining = t.graceEnd.Sub(now)
	default:
		return minWait
	}

	if remaining < minWait {
		return minWait
	}
	if remaining > maxWait {
		return maxWait
	}
	return remaining
}
