//go:build unix

package terminal

import (
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// FileSource reads single bytes from a file descriptor using poll(2)
type FileSource struct {
	fd  int
	buf [1]byte
}

// NewFileSource wraps an open file, typically os.Stdin or /dev/tty
func NewFileSource(f *os.File) *FileSource {
	return &FileSource{fd: int(f.Fd())}
}

// NewFdSource wraps a raw descriptor
func NewFdSource(fd int) *FileSource {
	return &FileSource{fd: fd}
}

// Fd returns the wrapped descriptor
func (s *FileSource) Fd() int {
	return s.fd
}

// Wait polls the descriptor for readability
// EINTR and ENOMEM are retried; the remaining timeout shrinks by 1ms per retry so
// a signal storm cannot stall the caller indefinitely
func (s *FileSource) Wait(timeout time.Duration) (bool, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
		if timeout%time.Millisecond != 0 {
			ms++
		}
	}

	fds := []unix.PollFd{
		{Fd: int32(s.fd), Events: unix.POLLIN},
	}

	for {
		n, err := unix.Poll(fds, ms)
		if err == nil {
			return n > 0, nil
		}
		if ms > 0 {
			ms--
		}
		if err == unix.EINTR || err == unix.ENOMEM {
			continue
		}
		return false, err
	}
}

// ReadByte reads one byte, retrying EINTR
func (s *FileSource) ReadByte() (byte, error) {
	for {
		n, err := unix.Read(s.fd, s.buf[:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				// O_NONBLOCK and poll lied: there is no data
				return 0, ErrWouldBlock
			}
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return s.buf[0], nil
	}
}
