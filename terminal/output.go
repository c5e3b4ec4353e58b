// @lixen: #focus{sys[term,io,output]}
// @lixen: #interact{trigger[output,ansi]}
package terminal

import (
	"bufio"
	"io"
	"sync"
)

// Output emits the handful of escape sequences a line-oriented full-screen
// program needs. Writes are buffered until Flush.
type Output struct {
	mu     sync.Mutex
	writer *bufio.Writer
	rows   int
	cols   int
}

// NewOutput wraps w; rows and cols bound PlaceCursor
func NewOutput(w io.Writer, cols, rows int) *Output {
	o := &Output{
		writer: bufio.NewWriterSize(w, 4096),
	}
	o.SetSize(cols, rows)
	return o
}

// SetSize updates the bounds used to clamp cursor placement
func (o *Output) SetSize(cols, rows int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cols < 1 {
		cols = defaultCols
	}
	if rows < 1 {
		rows = defaultRows
	}
	o.cols, o.rows = cols, rows
}

// Size returns the current bounds
func (o *Output) Size() (cols, rows int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cols, o.rows
}

// PlaceCursor moves the cursor to row, col (0-indexed), clamped to the screen
func (o *Output) PlaceCursor(row, col int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	row = clamp(row, 0, o.rows-1)
	col = clamp(col, 0, o.cols-1)
	writeCursorPos(o.writer, row, col)
}

// ClearToEOL erases from the cursor to the end of the line
func (o *Output) ClearToEOL() {
	o.write(csiEOL)
}

// HomeAndClear moves to the top-left corner and erases the screen
func (o *Output) HomeAndClear() {
	o.write(csiHome, csiEOS)
}

// GoBottomAndClearToEOL moves to the status line and clears it
func (o *Output) GoBottomAndClearToEOL() {
	o.mu.Lock()
	writeCursorPos(o.writer, o.rows-1, 0)
	o.writer.Write(csiEOL)
	o.mu.Unlock()
}

// InsertLine scrolls by emitting a newline in raw output mode
func (o *Output) InsertLine() {
	o.write(crlf)
}

// StandoutStart enables reverse video
func (o *Output) StandoutStart() {
	o.write(csiStand)
}

// StandoutEnd resets attributes
func (o *Output) StandoutEnd() {
	o.write(csiNorm)
}

// Bell writes BEL and flushes immediately
func (o *Output) Bell() {
	o.write(bell)
	o.Flush()
}

// AltScreenStart saves the cursor, switches to the alternate buffer, clears it
func (o *Output) AltScreenStart() {
	o.write(csiAltScreenEnter)
}

// AltScreenEnd returns to the normal buffer and restores the cursor
func (o *Output) AltScreenEnd() {
	o.write(csiAltScreenExit)
}

// QueryCursor asks the terminal to report the cursor position after parking it
// in the bottom-right corner; the reply arrives on the input side as ESC [ row ; col R
func (o *Output) QueryCursor() error {
	o.write(csiQueryCursor)
	return o.Flush()
}

// WriteString writes text as-is
func (o *Output) WriteString(s string) {
	o.mu.Lock()
	o.writer.WriteString(s)
	o.mu.Unlock()
}

// Flush writes buffered output to the underlying writer
func (o *Output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writer.Flush()
}

func (o *Output) write(parts ...[]byte) {
	o.mu.Lock()
	for _, p := range parts {
		o.writer.Write(p)
	}
	o.mu.Unlock()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
