//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// RawMode selects how far input processing is switched off
type RawMode uint8

const (
	RawCbreak RawMode = iota
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

func (m RawMode) String() string {
	if m == RawFull {
		return "full"
	}
	return "cbreak"
}

// State remembers the cooked terminal settings for Restore
type State struct {
	fd   int
	full *term.State
}

// MakeRaw switches fd to raw mode; without termios access cbreak is the same as full
func MakeRaw(fd int, mode RawMode) (*State, error) {
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("make raw: %w", err)
	}
	return &State{fd: fd, full: old}, nil
}

// Restore returns the terminal to the state captured by MakeRaw
func (s *State) Restore() error {
	if s == nil || s.full == nil {
		return nil
	}
	return term.Restore(s.fd, s.full)
}

// IsTerminal reports whether fd refers to a terminal
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// EmergencyReset restores a usable terminal from a crash path
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}
}
