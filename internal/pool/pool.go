// Package pool keeps a registry of named shell sessions so callers can
// create, look up, and bulk-close them. Individual sessions remain
// single-caller; the pool only guards its own map.
package pool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/huskago/bashautom/internal/shell"
)

// DuplicateError is returned by Create when the name is already taken.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("session %q already exists; use Get or close it first", e.Name)
}

// NotFoundError is returned by Get for an unregistered name.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no session named %q (available: %v)", e.Name, e.Available)
}

// Manager is a named session registry.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*shell.Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*shell.Session)}
}

// Create spawns a new named session. Fails with *DuplicateError if the
// name is already registered, dead or alive.
func (m *Manager) Create(name string, opts shell.Options) (*shell.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[name]; ok {
		return nil, &DuplicateError{Name: name}
	}

	s, err := shell.New(name, opts)
	if err != nil {
		return nil, err
	}
	m.sessions[name] = s
	return s, nil
}

// Get returns the session registered under name.
func (m *Manager) Get(name string) (*shell.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[name]
	if !ok {
		return nil, &NotFoundError{Name: name, Available: m.namesLocked()}
	}
	return s, nil
}

// GetOrCreate returns the live session registered under name, or
// replaces a dead registrant (or absent name) with a fresh session.
func (m *Manager) GetOrCreate(name string, opts shell.Options) (*shell.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[name]; ok {
		if s.Alive() {
			return s, nil
		}
		s.Close()
		delete(m.sessions, name)
	}

	s, err := shell.New(name, opts)
	if err != nil {
		return nil, err
	}
	m.sessions[name] = s
	return s, nil
}

// Close shuts down and removes one session. Unknown names are a no-op.
func (m *Manager) Close(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[name]
	if !ok {
		return nil
	}
	delete(m.sessions, name)
	return s.Close()
}

// CloseAll closes every registered session. Best effort: one session
// failing to close never blocks the rest. The first error is returned.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for name, s := range m.sessions {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.sessions, name)
	}
	return first
}

// Names lists all registered session names, sorted.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.namesLocked()
}

func (m *Manager) namesLocked() []string {
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns the sessions that are still alive.
func (m *Manager) Active() []*shell.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*shell.Session
	for _, s := range m.sessions {
		if s.Alive() {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of registered sessions, dead or alive.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
