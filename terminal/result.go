package terminal

import (
	"fmt"
)

// Result is one decoded key: a raw byte, a KeyCode, or a cursor position report
//
// Layout (64 bits):
//   - low 32 bits: byte value (0-255) or KeyCode tag (negative int32)
//   - high 32 bits: zero, except for KeyCursorPos where they carry
//     1<<31 | row<<16 | col with row and col limited to 15 bits
type Result int64

// NoKey accompanies every error return from the decoder
const NoKey Result = -1

// maxCoord is the largest row or column a cursor report can carry
const maxCoord = 0x7fff

// ByteResult wraps a raw input byte
func ByteResult(b byte) Result {
	return Result(b)
}

// KeyResult wraps a KeyCode, leaving the high word clear
func KeyResult(k KeyCode) Result {
	return Result(uint32(k))
}

// CursorResult packs a 1-based cursor position report
// Coordinates are truncated to 15 bits
func CursorResult(row, col int) Result {
	hi := uint64(1<<31 | (uint32(row)&maxCoord)<<16 | uint32(col)&maxCoord)
	return Result(int64(hi<<32) | int64(KeyResult(KeyCursorPos)))
}

// Code returns the low-word tag: a byte value (>= 0), a KeyCode (< 0), or -1 for NoKey
func (r Result) Code() KeyCode {
	return KeyCode(int32(uint32(r)))
}

// IsByte reports whether r carries a raw byte
func (r Result) IsByte() bool {
	return r.Code() >= 0
}

// Byte returns the raw byte, valid only when IsByte is true
func (r Result) Byte() byte {
	return byte(r)
}

// IsKey reports whether r carries a KeyCode other than a cursor report
func (r Result) IsKey() bool {
	c := r.Code()
	return c < -1 && c != KeyCursorPos
}

// CursorPos unpacks a cursor position report (1-based)
func (r Result) CursorPos() (row, col int, ok bool) {
	if r.Code() != KeyCursorPos {
		return 0, 0, false
	}
	hi := uint32(uint64(r) >> 32)
	return int(hi >> 16 & maxCoord), int(hi & maxCoord), true
}

// String renders r for logs and the key viewer
func (r Result) String() string {
	switch {
	case r == NoKey:
		return "none"
	case r.IsByte():
		b := r.Byte()
		switch {
		case b == ByteEscape:
			return "esc"
		case b == ByteDelete:
			return "del"
		case b < 0x20:
			return fmt.Sprintf("ctrl_%c", b+'@')
		case b < 0x7f:
			return string(rune(b))
		default:
			return fmt.Sprintf("0x%02x", b)
		}
	}
	if row, col, ok := r.CursorPos(); ok {
		return fmt.Sprintf("cursor_pos(%d,%d)", row, col)
	}
	return r.Code().String()
}
