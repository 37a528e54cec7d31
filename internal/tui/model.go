// Package tui is an interactive REPL over one shell session: commands
// typed at the prompt run through the session, output streams into the
// scrollback as it arrives, and ctrl+c interrupts the running command
// without killing the session.
package tui

import (
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/huskago/bashautom/internal/shell"
	"github.com/huskago/bashautom/internal/state"
)

// maxScrollback caps how many lines the REPL keeps.
const maxScrollback = 2000

type lineKind int

const (
	lineOutput lineKind = iota
	lineErrOutput
	linePrompt
	lineStatus
)

type replLine struct {
	kind lineKind
	text string
}

type chunkMsg shell.StreamEvent

type resultMsg struct {
	res *shell.CommandResult
	err error
}

type workdirMsg string

type Model struct {
	sess    *shell.Session
	store   *state.Store // nil disables history recording
	timeout time.Duration

	input   textinput.Model
	lines   []replLine
	running bool
	workdir string

	// Execute runs in its own goroutine; chunks and the final result
	// arrive through this channel, one waitForEvent command at a time.
	events chan tea.Msg

	width, height int
	quitting      bool
	err           error
}

// NewModel builds the REPL over an already-spawned session. store may
// be nil; timeout zero means commands run unbounded.
func NewModel(sess *shell.Session, store *state.Store, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "command"
	ti.Prompt = "$ "
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 80

	return Model{
		sess:    sess,
		store:   store,
		timeout: timeout,
		input:   ti,
		events:  make(chan tea.Msg),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshWorkdir)
}

func (m Model) refreshWorkdir() tea.Msg {
	dir, err := m.sess.Workdir()
	if err != nil {
		return workdirMsg("")
	}
	return workdirMsg(dir)
}

// waitForEvent pulls the next streaming message out of the channel.
// Reissued after every chunk; dropped once the result lands.
func (m Model) waitForEvent() tea.Msg {
	return <-m.events
}

// startExec runs the command in a goroutine, forwarding chunks and the
// final result through the events channel.
func (m Model) startExec(command string) tea.Cmd {
	return func() tea.Msg {
		go func() {
			var opts []shell.ExecOption
			if m.timeout > 0 {
				opts = append(opts, shell.WithTimeout(m.timeout))
			}
			opts = append(opts, shell.WithStream(func(ev shell.StreamEvent) {
				m.events <- chunkMsg(ev)
			}))
			res, err := m.sess.Execute(command, opts...)
			m.events <- resultMsg{res: res, err: err}
		}()
		return m.waitForEvent()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case chunkMsg:
		m.appendOutput(shell.StreamEvent(msg))
		return m, m.waitForEvent

	case resultMsg:
		m.running = false
		if msg.err != nil {
			m.err = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		m.appendStatus(msg.res)
		if m.store != nil {
			// History failures must not break the REPL.
			m.store.Record(m.sess.Name, msg.res)
		}
		return m, m.refreshWorkdir

	case workdirMsg:
		m.workdir = string(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Interrupt):
		if m.running {
			// Interrupt the foreground command; the session survives.
			m.sess.Signal(syscall.SIGINT)
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Quit), key.Matches(msg, keys.Escape):
		if !m.running {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, keys.Clear):
		m.lines = nil
		return m, nil

	case key.Matches(msg, keys.Enter):
		if m.running {
			return m, nil
		}
		command := strings.TrimSpace(m.input.Value())
		if command == "" {
			return m, nil
		}
		m.input.Reset()
		m.appendLine(linePrompt, "$ "+command)
		m.running = true
		return m, m.startExec(command)
	}

	if m.running {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) appendOutput(ev shell.StreamEvent) {
	kind := lineOutput
	if ev.Source == shell.Stderr {
		kind = lineErrOutput
	}
	for _, line := range strings.Split(strings.TrimRight(ev.Data, "\n"), "\n") {
		m.appendLine(kind, line)
	}
}

func (m *Model) appendStatus(res *shell.CommandResult) {
	m.appendLine(lineStatus, formatStatus(res))
}

func (m *Model) appendLine(kind lineKind, text string) {
	m.lines = append(m.lines, replLine{kind: kind, text: text})
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
}

// Err reports a fatal session error that ended the REPL.
func (m Model) Err() error {
	return m.err
}
