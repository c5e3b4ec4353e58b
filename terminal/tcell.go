package terminal

import "github.com/gdamore/tcell/v2"

// tcellKeys maps unmodified KeyCodes to tcell keys
var tcellKeys = map[KeyCode]tcell.Key{
	KeyUp:        tcell.KeyUp,
	KeyDown:      tcell.KeyDown,
	KeyRight:     tcell.KeyRight,
	KeyLeft:      tcell.KeyLeft,
	KeyHome:      tcell.KeyHome,
	KeyEnd:       tcell.KeyEnd,
	KeyInsert:    tcell.KeyInsert,
	KeyDelete:    tcell.KeyDelete,
	KeyPageUp:    tcell.KeyPgUp,
	KeyPageDown:  tcell.KeyPgDn,
	KeyBackspace: tcell.KeyBackspace2,
}

// TcellEvent converts r into a tcell key event for programs built on tcell widgets
// Returns nil for NoKey and cursor position reports, which have no tcell equivalent
func (r Result) TcellEvent() *tcell.EventKey {
	if r == NoKey {
		return nil
	}

	if r.IsByte() {
		// tcell turns control bytes and DEL into its own key codes
		return tcell.NewEventKey(tcell.KeyRune, rune(r.Byte()), tcell.ModNone)
	}

	code := r.Code()
	if !r.IsKey() {
		return nil
	}

	mod := tcell.ModNone
	if code.Ctrl() {
		mod |= tcell.ModCtrl
	}
	if code.Alt() {
		mod |= tcell.ModAlt
	}

	base := code.Base()
	if base == KeyD {
		return tcell.NewEventKey(tcell.KeyRune, 'd', mod)
	}
	k, ok := tcellKeys[base]
	if !ok {
		return nil
	}
	return tcell.NewEventKey(k, 0, mod)
}
