// Package shell runs a long-lived bash subprocess that can be driven
// command-by-command while keeping shell state (cwd, exported variables,
// functions) between calls.
//
// Each command is framed with a fresh random completion token: the
// command is written to the shell's stdin followed by an echo of
// "<token>:<exit status>", and output is read from the two non-blocking
// pipes until the token line shows up. Timeouts interrupt the shell's
// process group, never the shell itself, so a runaway command dies while
// the session survives.
//
// A Session is not safe for concurrent Execute calls; the framing
// protocol has no notion of interleaved commands. Distinct sessions are
// independent processes and can be driven from separate goroutines.
package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const (
	startupDrain   = 500 * time.Millisecond
	handshakeDrain = 200 * time.Millisecond
	closeWait      = 5 * time.Second
)

// Options configures a new session.
type Options struct {
	// Shell is the path of the shell binary. Defaults to /bin/bash.
	Shell string
	// Env is the child's environment. Nil inherits the parent's.
	Env []string
	// Dir is the initial working directory.
	Dir string
	// GracePeriod is how long Execute keeps reading after a timeout
	// interrupt. Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

// Session owns one shell subprocess and its three pipes.
type Session struct {
	Name string

	shellPath string
	grace     time.Duration

	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	outFD int
	errFD int
	mux   *poller

	closed   bool
	waitDone chan struct{}
	exitCode int // valid once waitDone is closed
}

// ExecOption customizes a single Execute call.
type ExecOption func(*execConfig)

type execConfig struct {
	timeout time.Duration
	sink    func(StreamEvent)
}

// WithTimeout interrupts the command's process group after d and marks
// the result timed out. The session itself survives.
func WithTimeout(d time.Duration) ExecOption {
	return func(c *execConfig) { c.timeout = d }
}

// WithStream delivers each output chunk to sink as it arrives, before
// Execute returns. Delivery is synchronous with the read loop, so a
// slow sink throttles draining.
func WithStream(sink func(StreamEvent)) ExecOption {
	return func(c *execConfig) { c.sink = sink }
}

// New spawns a non-interactive shell in its own process group and
// performs the startup handshake. The caller must Close the session;
// there is no finalizer.
func New(name string, opts Options) (*Session, error) {
	shellPath := opts.Shell
	if shellPath == "" {
		shellPath = "/bin/bash"
	}
	if name == "" {
		name = "sess-" + uuid.NewString()[:8]
	}

	cmd := exec.Command(shellPath, "--norc", "--noprofile")
	cmd.Env = opts.Env
	cmd.Dir = opts.Dir
	// Own process group so timeout signals hit the command subtree
	// without touching us.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		outR.Close()
		outW.Close()
		return nil, err
	}

	cmd.Stdin = stdinR
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{stdinR, stdinW, outR, outW, errR, errW} {
			f.Close()
		}
		return nil, fmt.Errorf("spawn %s: %w", shellPath, err)
	}

	// Child keeps its own copies.
	stdinR.Close()
	outW.Close()
	errW.Close()

	s := &Session{
		Name:      name,
		shellPath: shellPath,
		grace:     opts.GracePeriod,
		cmd:       cmd,
		stdin:     stdinW,
		stdout:    outR,
		stderr:    errR,
		outFD:     int(outR.Fd()),
		errFD:     int(errR.Fd()),
		mux:       newPoller(),
		waitDone:  make(chan struct{}),
	}

	// Fd() above took the pipes out of the runtime poller; from here on
	// they are read raw through unix.Read.
	_ = unix.SetNonblock(s.outFD, true)
	_ = unix.SetNonblock(s.errFD, true)
	s.mux.register(s.outFD, Stdout)
	s.mux.register(s.errFD, Stderr)

	go func() {
		err := cmd.Wait()
		s.exitCode = exitStatus(err)
		close(s.waitDone)
	}()

	// Swallow whatever the shell prints on startup; no output is normal.
	s.drain(startupDrain)

	// Make the shell ignore SIGINT while its children keep the default
	// disposition. This is what lets a timeout kill the foreground
	// command and leave the session usable.
	s.stdin.WriteString("trap : INT\n")
	s.drain(handshakeDrain)

	return s, nil
}

// PID returns the shell's process id.
func (s *Session) PID() int {
	return s.cmd.Process.Pid
}

// Alive reports whether the session can still accept commands.
func (s *Session) Alive() bool {
	return !s.closed && !s.exited()
}

func (s *Session) exited() bool {
	select {
	case <-s.waitDone:
		return true
	default:
		return false
	}
}

// ensureAlive fails fast before any public operation. Finding the
// process gone flips the session to closed for good.
func (s *Session) ensureAlive() error {
	if s.closed {
		return &ClosedError{Name: s.Name}
	}
	if s.exited() {
		s.closed = true
		return &ExitedError{Name: s.Name, Code: s.exitCode}
	}
	return nil
}

// Execute runs command in the session and blocks until its output is
// fully framed or the timeout path gives up. Ordinary command failure
// and timeouts are reported in the result, not as errors; an error here
// means the session itself is unusable.
func (s *Session) Execute(command string, opts ...ExecOption) (*CommandResult, error) {
	if err := s.ensureAlive(); err != nil {
		return nil, err
	}

	var cfg execConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	token := newToken()
	start := time.Now()

	statusCapture := "__bashautom_status=$?"
	tokenEcho := fmt.Sprintf("echo \"%s:$__bashautom_status\"", token)
	payload := command + "\n" + statusCapture + "\n" + tokenEcho + "\n"
	if _, err := s.stdin.WriteString(payload); err != nil {
		return nil, fmt.Errorf("write to session %q: %w", s.Name, err)
	}

	tracker := newDeadlineTracker(start, cfg.timeout, s.grace)
	var stdoutChunks, stderrChunks []string
	exitCode := -1
	foundToken := false

	for !foundToken {
		now := time.Now()
		switch tracker.check(now) {
		case actInterrupt:
			// Kill the foreground command; the trap keeps bash alive
			// and it will still echo the token.
			s.signalGroup(unix.SIGINT)
		case actAbandon:
			goto done
		}

		ready, err := s.mux.wait(tracker.waitBudget(now))
		if err != nil {
			return nil, fmt.Errorf("poll session %q: %w", s.Name, err)
		}

		for _, src := range ready {
			fd := s.outFD
			if src == Stderr {
				fd = s.errFD
			}
			chunk, err := readChunk(fd)
			if err != nil || len(chunk) == 0 {
				continue
			}
			text := strings.ToValidUTF8(string(chunk), "�")

			if src == Stdout && strings.Contains(text, token) {
				clean, code := splitTokenChunk(text, token)
				exitCode = code
				foundToken = true
				tracker.complete()
				if clean != "" {
					if cfg.sink != nil && strings.TrimSpace(clean) != "" {
						cfg.sink(StreamEvent{Source: src, Data: clean, Time: time.Now()})
					}
					stdoutChunks = append(stdoutChunks, clean)
				}
				continue
			}

			if cfg.sink != nil {
				cfg.sink(StreamEvent{Source: src, Data: text, Time: time.Now()})
			}
			if src == Stdout {
				stdoutChunks = append(stdoutChunks, text)
			} else {
				stderrChunks = append(stderrChunks, text)
			}
		}

		// Shell died before the token arrived: return what we have and
		// let the next liveness check surface the exit.
		if !foundToken && s.exited() {
			break
		}
	}

done:
	stdout := strings.TrimSpace(strings.Join(stdoutChunks, ""))
	stderr := strings.TrimSpace(strings.Join(stderrChunks, ""))

	// The shell echoes input lines back when stdin is not a tty in some
	// configurations; scrub the two bookkeeping statements.
	stdout = strings.ReplaceAll(stdout, statusCapture, "")
	stdout = strings.ReplaceAll(stdout, tokenEcho, "")
	stdout = strings.TrimSpace(stdout)

	return &CommandResult{
		Command:  command,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: time.Since(start),
		TimedOut: tracker.timedOut(),
	}, nil
}

// splitTokenChunk removes the token line from a chunk and parses the
// exit code from its "<token>:<code>" form. A malformed code yields -1;
// the call still completes.
func splitTokenChunk(text, token string) (clean string, code int) {
	code = -1
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, token) {
			tail := line[strings.LastIndexByte(line, ':')+1:]
			if n, err := strconv.Atoi(strings.TrimSpace(tail)); err == nil {
				code = n
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), code
}

// Signal delivers sig to the whole process group. A group that already
// exited is a benign race and not an error.
func (s *Session) Signal(sig syscall.Signal) error {
	if err := s.ensureAlive(); err != nil {
		return err
	}
	s.signalGroup(sig)
	return nil
}

func (s *Session) signalGroup(sig syscall.Signal) {
	pgid, err := unix.Getpgid(s.cmd.Process.Pid)
	if err != nil {
		return
	}
	// ESRCH means the group already exited; benign race either way.
	_ = unix.Kill(-pgid, sig)
}

// drain reads whatever both pipes have to offer for up to d. Used only
// around the handshake, where absence of output is the normal case.
func (s *Session) drain(d time.Duration) (stdout, stderr string) {
	var outBuf, errBuf strings.Builder
	deadline := time.Now().Add(d)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		wait := remaining
		if wait > 50*time.Millisecond {
			wait = 50 * time.Millisecond
		}
		ready, err := s.mux.wait(wait)
		if err != nil || len(ready) == 0 {
			break
		}
		for _, src := range ready {
			fd := s.outFD
			buf := &outBuf
			if src == Stderr {
				fd = s.errFD
				buf = &errBuf
			}
			chunk, err := readChunk(fd)
			if err != nil || len(chunk) == 0 {
				continue
			}
			buf.WriteString(strings.ToValidUTF8(string(chunk), "�"))
		}
	}
	return outBuf.String(), errBuf.String()
}

// Workdir returns the session's current working directory.
func (s *Session) Workdir() (string, error) {
	res, err := s.Execute("pwd")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// GetVar reads a variable from the session. ok is false when the
// variable is unset or expands to the empty string.
func (s *Session) GetVar(name string) (value string, ok bool, err error) {
	res, err := s.Execute(fmt.Sprintf("echo \"${%s}\"", name))
	if err != nil {
		return "", false, err
	}
	value = strings.TrimSpace(res.Stdout)
	return value, value != "", nil
}

// SetVar exports a variable into the session environment.
func (s *Session) SetVar(name, value string) error {
	_, err := s.Execute(fmt.Sprintf("export %s=%s", name, shellQuote(value)))
	return err
}

// Close shuts the session down: asks the shell to exit, waits a bounded
// interval, and force-kills on timeout. Safe to call more than once and
// from a defer.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if !s.exited() {
		s.stdin.WriteString("exit\n")
		select {
		case <-s.waitDone:
		case <-time.After(closeWait):
			s.cmd.Process.Kill()
			<-s.waitDone
		}
	}

	s.stdin.Close()
	s.stdout.Close()
	s.stderr.Close()
	return nil
}

// shellQuote wraps a string in single quotes, escaping any single
// quotes inside.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}

// exitStatus extracts the child's exit code from cmd.Wait's error.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}
