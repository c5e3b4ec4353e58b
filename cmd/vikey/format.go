package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/vikey/terminal"
)

const (
	nameWidth  = 18
	codeWidth  = 20
	tcellWidth = 24
)

// formatKey renders one viewer line: name, numeric value, tcell equivalent, glyph
// Columns are padded by display width so wide glyphs keep the table aligned
func formatKey(r terminal.Result, width int) string {
	var b strings.Builder

	b.WriteString(runewidth.FillRight(r.String(), nameWidth))

	var code string
	switch {
	case r.IsByte():
		code = fmt.Sprintf("byte %3d 0x%02x", r.Byte(), r.Byte())
	default:
		code = fmt.Sprintf("key %d", r.Code())
	}
	b.WriteString(runewidth.FillRight(code, codeWidth))

	tc := "-"
	if ev := r.TcellEvent(); ev != nil {
		tc = ev.Name()
	}
	b.WriteString(runewidth.FillRight(tc, tcellWidth))

	if r.IsByte() && r.Byte() >= 0x20 && r.Byte() < 0x7f {
		b.WriteString(runewidth.FillRight(string(rune(r.Byte())), 2))
	}

	line := strings.TrimRight(b.String(), " ")
	if width > 0 && runewidth.StringWidth(line) > width {
		line = runewidth.Truncate(line, width, "…")
	}
	return line
}

// formatRune renders a completed multi-byte character
func formatRune(r rune) string {
	var b strings.Builder
	b.WriteString(runewidth.FillRight("utf8", nameWidth))
	b.WriteString(runewidth.FillRight(fmt.Sprintf("U+%04X", r), codeWidth))
	b.WriteString(runewidth.FillRight(fmt.Sprintf("width %d", runewidth.RuneWidth(r)), tcellWidth))
	b.WriteString(string(r))
	return b.String()
}

// runeAssembler collects the bytes of a UTF-8 sequence arriving one key at a time
type runeAssembler struct {
	buf [utf8.UTFMax]byte
	n   int
}

// add feeds one byte; returns the rune once its encoding is complete
// ASCII resets any partial sequence
func (a *runeAssembler) add(b byte) (rune, bool) {
	if b < utf8.RuneSelf {
		a.n = 0
		return 0, false
	}
	a.buf[a.n] = b
	a.n++
	if !utf8.FullRune(a.buf[:a.n]) {
		return 0, false
	}
	r, _ := utf8.DecodeRune(a.buf[:a.n])
	a.n = 0
	if r == utf8.RuneError {
		return 0, false
	}
	return r, true
}
