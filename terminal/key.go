// @lixen: #focus{sys[io],input[keys]}
package terminal

// KeyCode identifies a non-character key reported by an escape sequence.
// Values are negative so they never collide with a raw byte (0-255);
// -1 is reserved for NoKey.
//
// Low 5 bits identify the key. Bits 0x40 and 0x20 are cleared for the
// Ctrl and Alt variants of the same key.
type KeyCode int32

const (
	KeyUp        KeyCode = -2
	KeyDown      KeyCode = -3
	KeyRight     KeyCode = -4
	KeyLeft      KeyCode = -5
	KeyHome      KeyCode = -6
	KeyEnd       KeyCode = -7
	KeyInsert    KeyCode = -8
	KeyDelete    KeyCode = -9
	KeyPageUp    KeyCode = -10
	KeyPageDown  KeyCode = -11
	KeyBackspace KeyCode = -12 // Only reported with a modifier
	KeyD         KeyCode = -13 // Only reported with Alt

	KeyCtrlRight    = KeyRight &^ 0x40
	KeyCtrlLeft     = KeyLeft &^ 0x40
	KeyAltRight     = KeyRight &^ 0x20
	KeyAltLeft      = KeyLeft &^ 0x20
	KeyAltBackspace = KeyBackspace &^ 0x20
	KeyAltD         = KeyD &^ 0x20

	// KeyCursorPos tags a cursor position report, see Result.CursorPos
	KeyCursorPos KeyCode = -0x100
)

// Raw bytes the decoder treats specially or callers commonly test for
const (
	ByteEscape    byte = 0x1b
	ByteBell      byte = 0x07
	ByteBackspace byte = 0x08
	ByteDelete    byte = 0x7f
	ByteCtrlC     byte = 0x03
)

// keyToName maps KeyCode constants to canonical config string names
var keyToName = map[KeyCode]string{
	KeyUp:       "up",
	KeyDown:     "down",
	KeyRight:    "right",
	KeyLeft:     "left",
	KeyHome:     "home",
	KeyEnd:      "end",
	KeyInsert:   "insert",
	KeyDelete:   "delete",
	KeyPageUp:   "page_up",
	KeyPageDown: "page_down",

	KeyCtrlRight:    "ctrl_right",
	KeyCtrlLeft:     "ctrl_left",
	KeyAltRight:     "alt_right",
	KeyAltLeft:      "alt_left",
	KeyAltBackspace: "alt_backspace",
	KeyAltD:         "alt_d",

	KeyCursorPos: "cursor_pos",
}

// nameToKey is the reverse lookup, built from keyToName
var nameToKey map[string]KeyCode

func init() {
	nameToKey = make(map[string]KeyCode, len(keyToName))
	for k, v := range keyToName {
		nameToKey[v] = k
	}
	// Aliases
	nameToKey["pgup"] = KeyPageUp
	nameToKey["pgdn"] = KeyPageDown
}

// KeyName returns the canonical string name for a KeyCode
// Returns empty string for values outside the enumeration
func KeyName(k KeyCode) string {
	return keyToName[k]
}

// KeyByName resolves a canonical name to a KeyCode
func KeyByName(name string) (KeyCode, bool) {
	k, ok := nameToKey[name]
	return k, ok
}

// String implements fmt.Stringer
func (k KeyCode) String() string {
	if name, ok := keyToName[k]; ok {
		return name
	}
	return "unknown"
}

// Ctrl reports whether k is a Ctrl-modified variant
func (k KeyCode) Ctrl() bool {
	return k < 0 && k != KeyCursorPos && k&0x40 == 0
}

// Alt reports whether k is an Alt-modified variant
func (k KeyCode) Alt() bool {
	return k < 0 && k != KeyCursorPos && k&0x20 == 0
}

// Base strips the modifier bits, returning the unmodified key
func (k KeyCode) Base() KeyCode {
	if k >= 0 || k == KeyCursorPos {
		return k
	}
	return k | 0x60
}
