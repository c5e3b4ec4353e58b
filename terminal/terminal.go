//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// RawMode selects how far input processing is switched off
type RawMode uint8

const (
	// RawCbreak turns off line buffering and echo but keeps signals (Ctrl-C, Ctrl-Z)
	// and output post-processing apart from NL->CRNL
	RawCbreak RawMode = iota
	// RawFull is cfmakeraw(3): no signals, no flow control, no output processing
	RawFull
)

// ParseRawMode maps a config string to a RawMode
func ParseRawMode(s string) (RawMode, error) {
	switch s {
	case "", "cbreak":
		return RawCbreak, nil
	case "full", "raw":
		return RawFull, nil
	}
	return RawCbreak, fmt.Errorf("unknown raw mode %q", s)
}

// String implements fmt.Stringer
func (m RawMode) String() string {
	if m == RawFull {
		return "full"
	}
	return "cbreak"
}

// State remembers the cooked terminal settings for Restore
type State struct {
	fd      int
	termios *unix.Termios
	full    *term.State
}

// MakeRaw switches fd to the given mode, returning the previous state
func MakeRaw(fd int, mode RawMode) (*State, error) {
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("fd %d is not a terminal", fd)
	}

	if mode == RawFull {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("make raw: %w", err)
		}
		return &State{fd: fd, full: old}, nil
	}

	old, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, fmt.Errorf("get termios: %w", err)
	}
	saved := *old

	raw := *old
	// Unbuffered input, no echo, no separate NL echo
	raw.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHONL
	// Reads block until at least one byte, no inter-byte timer
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	// XON/XOFF arrive as normal bytes, CR is not mapped to NL
	raw.Iflag &^= unix.IXON | unix.ICRNL
	// NL is not expanded to CRNL on output
	raw.Oflag &^= unix.ONLCR

	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return nil, fmt.Errorf("set termios: %w", err)
	}
	return &State{fd: fd, termios: &saved}, nil
}

// Restore returns the terminal to the state captured by MakeRaw
// Safe to call on a nil State
func (s *State) Restore() error {
	if s == nil {
		return nil
	}
	if s.full != nil {
		return term.Restore(s.fd, s.full)
	}
	if s.termios != nil {
		return unix.IoctlSetTermios(s.fd, ioctlWriteTermios, s.termios)
	}
	return nil
}

// IsTerminal reports whether fd refers to a terminal
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// EmergencyReset restores a usable terminal from a crash path
// Writes are best-effort; errors are ignored
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	// Flush if it's a file
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}

// resetTerminalMode attempts to restore terminal to cooked mode
// Best-effort for crash recovery; errors ignored
func resetTerminalMode() {
	// Try to restore via /dev/tty (works even if stdin redirected)
	if tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		defer tty.Close()
		fd := int(tty.Fd())
		if termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios); err == nil {
			termios.Lflag |= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
			termios.Iflag |= unix.ICRNL
			termios.Oflag |= unix.OPOST | unix.ONLCR
			unix.IoctlSetTermios(fd, ioctlWriteTermios, termios)
		}
	}
}
