package shell

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTrackerNoTimeoutNeverInterrupts(t *testing.T) {
	tr := newDeadlineTracker(t0, 0, time.Second)

	for _, offset := range []time.Duration{0, time.Minute, time.Hour} {
		if act := tr.check(t0.Add(offset)); act != actNone {
			t.Errorf("check at +%v = %v, want actNone", offset, act)
		}
	}
	if tr.timedOut() {
		t.Error("tracker without limit must not report timeout")
	}
}

func TestTrackerInterruptsExactlyOnce(t *testing.T) {
	tr := newDeadlineTracker(t0, time.Second, 3*time.Second)

	if act := tr.check(t0.Add(500 * time.Millisecond)); act != actNone {
		t.Fatalf("before deadline: %v, want actNone", act)
	}
	if act := tr.check(t0.Add(time.Second)); act != actInterrupt {
		t.Fatalf("at deadline: %v, want actInterrupt", act)
	}
	// Still inside the grace window: no second interrupt, no abandon.
	if act := tr.check(t0.Add(2 * time.Second)); act != actNone {
		t.Fatalf("inside grace: %v, want actNone", act)
	}
	if !tr.timedOut() {
		t.Error("interrupted tracker must report timeout")
	}
}

func TestTrackerGraceExtendsFromInterruption(t *testing.T) {
	tr := newDeadlineTracker(t0, time.Second, 3*time.Second)

	// Clock checked late: interrupt happens at +2s, so grace runs to +5s.
	if act := tr.check(t0.Add(2 * time.Second)); act != actInterrupt {
		t.Fatalf("want actInterrupt")
	}
	if act := tr.check(t0.Add(4900 * time.Millisecond)); act != actNone {
		t.Errorf("grace not yet over: %v, want actNone", act)
	}
	if act := tr.check(t0.Add(5 * time.Second)); act != actAbandon {
		t.Errorf("grace over: %v, want actAbandon", act)
	}
}

func TestTrackerCompleteWithinGraceStaysTimedOut(t *testing.T) {
	tr := newDeadlineTracker(t0, time.Second, 3*time.Second)

	tr.check(t0.Add(time.Second))
	tr.complete()

	if act := tr.check(t0.Add(time.Hour)); act != actNone {
		t.Errorf("completed tracker acted: %v", act)
	}
	if !tr.timedOut() {
		t.Error("completion after interrupt must still be timed out")
	}
}

func TestTrackerCompleteWithoutInterrupt(t *testing.T) {
	tr := newDeadlineTracker(t0, 10*time.Second, 3*time.Second)
	tr.complete()
	if tr.timedOut() {
		t.Error("clean completion must not be timed out")
	}
}

func TestTrackerDefaultGrace(t *testing.T) {
	tr := newDeadlineTracker(t0, time.Second, 0)
	if tr.grace != DefaultGracePeriod {
		t.Errorf("grace = %v, want %v", tr.grace, DefaultGracePeriod)
	}
}

func TestWaitBudget(t *testing.T) {
	tests := []struct {
		name  string
		limit time.Duration
		now   time.Duration // offset from start
		want  time.Duration
	}{
		{"no limit caps at a second", 0, 0, time.Second},
		{"far deadline caps at a second", 10 * time.Second, 0, time.Second},
		{"near deadline shrinks the wait", time.Second, 700 * time.Millisecond, 300 * time.Millisecond},
		{"past deadline floors at 10ms", time.Second, 2 * time.Second, 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newDeadlineTracker(t0, tt.limit, 3*time.Second)
			if got := tr.waitBudget(t0.Add(tt.now)); got != tt.want {
				t.Errorf("waitBudget = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitBudgetDuringGrace(t *testing.T) {
	tr := newDeadlineTracker(t0, time.Second, 3*time.Second)
	tr.check(t0.Add(time.Second)) // interrupt, grace runs to +4s

	if got := tr.waitBudget(t0.Add(3900 * time.Millisecond)); got != 100*time.Millisecond {
		t.Errorf("waitBudget near grace end = %v, want 100ms", got)
	}
	if got := tr.waitBudget(t0.Add(time.Second)); got != time.Second {
		t.Errorf("waitBudget at grace start = %v, want 1s cap", got)
	}
}
