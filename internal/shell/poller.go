package shell

import (
	"time"

	"golang.org/x/sys/unix"
)

// readChunkSize caps how much a single read drains from a ready pipe.
// Keeping reads bounded keeps the execute loop responsive to timeouts
// between bursts.
const readChunkSize = 64 * 1024

// poller multiplexes readiness over the session's two output pipes.
// The registered descriptors must already be in non-blocking mode.
type poller struct {
	fds  []unix.PollFd
	tags []StreamSource
}

func newPoller() *poller {
	return &poller{}
}

func (p *poller) register(fd int, src StreamSource) {
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	p.tags = append(p.tags, src)
}

// wait blocks for up to d and returns the sources that became readable.
// An empty result means the interval elapsed with no data.
func (p *poller) wait(d time.Duration) ([]StreamSource, error) {
	ms := int(d.Milliseconds())
	if ms < 1 {
		ms = 1
	}

	var n int
	var err error
	for {
		n, err = unix.Poll(p.fds, ms)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	var ready []StreamSource
	for i := range p.fds {
		if p.fds[i].Revents&(unix.POLLIN|unix.POLLHUP) != 0 {
			ready = append(ready, p.tags[i])
		}
		p.fds[i].Revents = 0
	}
	return ready, nil
}

// readChunk drains up to readChunkSize bytes from a non-blocking fd.
// A nil chunk with nil error means no data right now, not end-of-stream.
func readChunk(fd int) ([]byte, error) {
	buf := make([]byte, readChunkSize)
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	return buf[:n], nil
}
