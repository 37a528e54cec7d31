package pool

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/huskago/bashautom/internal/shell"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	m := NewManager()
	t.Cleanup(func() { m.CloseAll() })
	return m
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t)

	s, err := m.Create("work", shell.Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := m.Get("work")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session instance")
	}
}

func TestCreateDuplicateName(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Create("dup", shell.Options{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := m.Create("dup", shell.Options{})
	var de *DuplicateError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DuplicateError", err)
	}
}

func TestGetMissingName(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get("ghost")
	var ne *NotFoundError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
}

func TestGetOrCreateReusesLiveSession(t *testing.T) {
	m := newTestManager(t)

	first, err := m.GetOrCreate("shared", shell.Options{})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := m.GetOrCreate("shared", shell.Options{})
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if first != second {
		t.Error("expected the same session instance while alive")
	}
}

func TestGetOrCreateReplacesDeadSession(t *testing.T) {
	m := newTestManager(t)

	first, err := m.GetOrCreate("flaky", shell.Options{})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	first.Close()

	second, err := m.GetOrCreate("flaky", shell.Options{})
	if err != nil {
		t.Fatalf("GetOrCreate after close: %v", err)
	}
	if second == first {
		t.Error("dead session was not replaced")
	}
	if !second.Alive() {
		t.Error("replacement session should be alive")
	}
}

func TestSessionIsolation(t *testing.T) {
	m := newTestManager(t)

	a, err := m.Create("a", shell.Options{})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := m.Create("b", shell.Options{})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}

	if err := a.SetVar("WHO", "alpha"); err != nil {
		t.Fatalf("SetVar a: %v", err)
	}
	if err := b.SetVar("WHO", "beta"); err != nil {
		t.Fatalf("SetVar b: %v", err)
	}

	va, _, _ := a.GetVar("WHO")
	vb, _, _ := b.GetVar("WHO")
	if va != "alpha" || vb != "beta" {
		t.Errorf("isolation broken: a=%q b=%q", va, vb)
	}
}

func TestCloseUnknownNameIsNoOp(t *testing.T) {
	m := newTestManager(t)
	if err := m.Close("never-created"); err != nil {
		t.Errorf("Close unknown = %v, want nil", err)
	}
}

func TestCloseAllIdempotent(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Create("one", shell.Options{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create("two", shell.Options{}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.CloseAll(); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after CloseAll, want 0", m.Len())
	}
	if err := m.CloseAll(); err != nil {
		t.Fatalf("second CloseAll: %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	m := newTestManager(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := m.Create(name, shell.Options{}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	names := m.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestActiveExcludesClosed(t *testing.T) {
	m := newTestManager(t)

	s1, _ := m.Create("live", shell.Options{})
	s2, _ := m.Create("dead", shell.Options{})
	_ = s1
	s2.Close()

	active := m.Active()
	if len(active) != 1 || active[0].Name != "live" {
		t.Errorf("Active = %v, want just the live session", active)
	}
}
