package shell

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func pipePair(t *testing.T) (r, w *os.File, fd int) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	fd = int(r.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		t.Fatalf("SetNonblock: %v", err)
	}
	return r, w, fd
}

func TestPollerReportsReadyStream(t *testing.T) {
	_, w, fd := pipePair(t)

	p := newPoller()
	p.register(fd, Stdout)

	if _, err := w.WriteString("data"); err != nil {
		t.Fatalf("write: %v", err)
	}

	ready, err := p.wait(time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(ready) != 1 || ready[0] != Stdout {
		t.Fatalf("ready = %v, want [stdout]", ready)
	}

	chunk, err := readChunk(fd)
	if err != nil {
		t.Fatalf("readChunk: %v", err)
	}
	if string(chunk) != "data" {
		t.Errorf("chunk = %q, want %q", chunk, "data")
	}
}

func TestPollerTimesOutWithNoData(t *testing.T) {
	_, _, fd := pipePair(t)

	p := newPoller()
	p.register(fd, Stderr)

	start := time.Now()
	ready, err := p.wait(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(ready) != 0 {
		t.Errorf("ready = %v, want none", ready)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("returned after %v, want the full wait", elapsed)
	}
}

func TestPollerDistinguishesStreams(t *testing.T) {
	_, w1, fd1 := pipePair(t)
	_, _, fd2 := pipePair(t)

	p := newPoller()
	p.register(fd1, Stdout)
	p.register(fd2, Stderr)

	w1.WriteString("x")

	ready, err := p.wait(time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(ready) != 1 || ready[0] != Stdout {
		t.Fatalf("ready = %v, want only stdout", ready)
	}
}

func TestReadChunkEmptyPipe(t *testing.T) {
	_, _, fd := pipePair(t)

	chunk, err := readChunk(fd)
	if err != nil {
		t.Fatalf("readChunk: %v", err)
	}
	if chunk != nil {
		t.Errorf("chunk = %q, want nil (no data right now)", chunk)
	}
}
