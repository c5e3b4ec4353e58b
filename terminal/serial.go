//go:build linux || darwin || freebsd || openbsd || netbsd

package terminal

import (
	"fmt"

	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

// SerialSource reads keys from a serial device such as /dev/ttyUSB0
//
// The line is configured through pkg/term (raw mode, speed, restore on Close).
// Bytes are read through a second non-blocking descriptor on the same device,
// so Wait has poll(2) precision and a zero bound never blocks.
type SerialSource struct {
	*FileSource

	line *term.Term
}

// OpenSerial opens device in raw mode at the given baud rate; baud <= 0 keeps the current speed
func OpenSerial(device string, baud int) (*SerialSource, error) {
	opts := []func(*term.Term) error{term.RawMode}
	if baud > 0 {
		opts = append(opts, term.Speed(baud))
	}
	line, err := term.Open(device, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}

	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		line.Restore()
		line.Close()
		return nil, fmt.Errorf("open %s: %w", device, err)
	}

	return &SerialSource{FileSource: NewFdSource(fd), line: line}, nil
}

// Close restores the line settings and closes the device
func (s *SerialSource) Close() error {
	unix.Close(s.fd)
	s.line.Restore()
	return s.line.Close()
}
