// @lixen: #focus{sys[term,ansi]}
package terminal

import (
	"bufio"
	"strconv"
)

// Pre-allocated ANSI sequence fragments
var (
	// CSI and control sequences
	csiSGR0  = []byte("\x1b[0m")
	csiRIS   = []byte("\x1bc") // Reset to Initial State (emergency)
	csiHome  = []byte("\x1b[H")
	csiEOS   = []byte("\x1b[J")
	csiEOL   = []byte("\x1b[K")
	bell     = []byte{ByteBell}
	crlf     = []byte("\r\n")
	csiStand = []byte("\x1b[7m")
	csiNorm  = []byte("\x1b[m")

	// Cursor control
	csiCursorShow = []byte("\x1b[?25h")
	csiCursorPos  = []byte("\x1b[") // followed by row;colH

	// Cursor position query: park the cursor at the far corner, then ask where it landed
	csiQueryCursor = []byte("\x1b[999;999H\x1b[6n")

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")
	csiAutoWrapOn     = []byte("\x1b[?7h")
)

// writeInt writes a non-negative decimal through a stack buffer
func writeInt(w *bufio.Writer, n int) {
	if n < 0 {
		n = 0
	}
	var buf [20]byte
	w.Write(strconv.AppendInt(buf[:0], int64(n), 10))
}

// writeCursorPos writes cursor positioning sequence (0-indexed input)
func writeCursorPos(w *bufio.Writer, row, col int) {
	w.Write(csiCursorPos)
	writeInt(w, row+1)
	w.WriteByte(';')
	writeInt(w, col+1)
	w.WriteByte('H')
}
