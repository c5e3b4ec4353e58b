package terminal

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	defaultCols = 80
	defaultRows = 24

	// askTimeout bounds the wait for the terminal's answer to a cursor query
	askTimeout = 100 * time.Millisecond
)

// ResizeEvent represents a terminal resize
type ResizeEvent struct {
	Width  int
	Height int
}

// ErrNoSize reports that the kernel could not tell the window size
var ErrNoSize = errors.New("terminal: window size unknown")

// Size returns the terminal size for fd
//
// LINES and COLUMNS override the kernel's answer, since piped output has no
// way of knowing which width the user wants. Values outside 2..29999 fall
// back to 80x24. ErrNoSize is returned with the fallback values when the
// ioctl fails or reports zero rows and neither variable is set.
func Size(fd int) (cols, rows int, err error) {
	cols, rows, werr := winsize(fd)
	if werr != nil || rows == 0 {
		err = ErrNoSize
	}

	if v, ok := os.LookupEnv("COLUMNS"); ok {
		cols, _ = strconv.Atoi(v)
		err = nil
	}
	if v, ok := os.LookupEnv("LINES"); ok {
		rows, _ = strconv.Atoi(v)
		err = nil
	}

	return sanitizeDim(cols, defaultCols), sanitizeDim(rows, defaultRows), err
}

func sanitizeDim(v, def int) int {
	if v <= 1 || v >= 30000 {
		return def
	}
	return v
}

// AskSize queries the terminal itself: the cursor is parked at 999;999, which the
// terminal clamps to its bottom-right cell, and the reported position is the size.
// Input other than the report within the wait is consumed and lost.
func AskSize(out *Output, dec *Decoder) (cols, rows int, err error) {
	if err := out.QueryCursor(); err != nil {
		return 0, 0, err
	}
	r, err := dec.Next(askTimeout)
	if err != nil {
		return 0, 0, err
	}
	row, col, ok := r.CursorPos()
	if !ok {
		return 0, 0, ErrNoSize
	}
	return col, row, nil
}
