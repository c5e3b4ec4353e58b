// @lixen: #focus{sys[term,input]}
package terminal

import (
	"bytes"
	"fmt"
	"sort"
)

// Sequence is one recognized escape sequence: the bytes that follow ESC and the key they encode
type Sequence struct {
	Bytes []byte
	Code  KeyCode
}

// MappingSet selects optional groups of table entries
type MappingSet uint8

const (
	// MapAltEditing: ESC DEL, ESC BS -> AltBackspace; ESC d -> AltD
	MapAltEditing MappingSet = 1 << iota
	// MapAltWordJumps: ESC f -> AltRight, ESC b -> AltLeft (readline word motions)
	MapAltWordJumps

	MapNone MappingSet = 0
	MapAll             = MapAltEditing | MapAltWordJumps
)

// Known escape sequences, see "Xterm Control Sequences"
// Grouped by mapping set; final ordering is established by NewSequenceTable
var (
	altEditingSequences = []Sequence{
		{[]byte{0x7f}, KeyAltBackspace},
		{[]byte{'\b'}, KeyAltBackspace},
		{[]byte{'d'}, KeyAltD},
	}

	altWordJumpSequences = []Sequence{
		{[]byte{'f'}, KeyAltRight},
		{[]byte{'b'}, KeyAltLeft},
	}

	baseSequences = []Sequence{
		// SS3 cursor keys (application mode)
		{[]byte("OA"), KeyUp},
		{[]byte("OB"), KeyDown},
		{[]byte("OC"), KeyRight},
		{[]byte("OD"), KeyLeft},
		{[]byte("OH"), KeyHome},
		{[]byte("OF"), KeyEnd},

		// CSI cursor keys
		{[]byte("[A"), KeyUp},
		{[]byte("[B"), KeyDown},
		{[]byte("[C"), KeyRight},
		{[]byte("[D"), KeyLeft},
		{[]byte("[H"), KeyHome}, // xterm
		{[]byte("[F"), KeyEnd},  // xterm

		// vt220 editing keypad
		{[]byte("[1~"), KeyHome},
		{[]byte("[2~"), KeyInsert},
		{[]byte("[3~"), KeyDelete},
		{[]byte("[4~"), KeyEnd},
		{[]byte("[5~"), KeyPageUp},
		{[]byte("[6~"), KeyPageDown},
		{[]byte("[7~"), KeyHome}, // rxvt
		{[]byte("[8~"), KeyEnd},  // rxvt

		// xterm modified cursor keys: ESC [ 1 ; <mod> <dir>
		{[]byte("[1;5C"), KeyCtrlRight},
		{[]byte("[1;5D"), KeyCtrlLeft},
		{[]byte("[1;3C"), KeyAltRight},
		{[]byte("[1;3D"), KeyAltLeft},
	}
)

// SequenceTable is an immutable list of sequences ordered shortest first
// The ordering lets a stalled read end the search: every remaining entry is
// at least as long as the one that ran out of input
type SequenceTable struct {
	entries []Sequence
	maxLen  int
}

// NewSequenceTable builds the table for the given mapping sets plus any extra entries
// Extra entries must be non-empty and fit the pending buffer
func NewSequenceTable(sets MappingSet, extra ...Sequence) (*SequenceTable, error) {
	var all []Sequence
	if sets&MapAltEditing != 0 {
		all = append(all, altEditingSequences...)
	}
	if sets&MapAltWordJumps != 0 {
		all = append(all, altWordJumpSequences...)
	}
	all = append(all, baseSequences...)

	for _, s := range extra {
		if len(s.Bytes) == 0 {
			return nil, fmt.Errorf("sequence for %s is empty", s.Code)
		}
		if len(s.Bytes) > maxPending {
			return nil, fmt.Errorf("sequence %q exceeds %d bytes", s.Bytes, maxPending)
		}
		if s.Code >= -1 {
			return nil, fmt.Errorf("sequence %q maps to invalid key code %d", s.Bytes, s.Code)
		}
		all = append(all, Sequence{Bytes: bytes.Clone(s.Bytes), Code: s.Code})
	}

	// Stable: entries of equal length keep catalog order
	sort.SliceStable(all, func(i, j int) bool {
		return len(all[i].Bytes) < len(all[j].Bytes)
	})

	t := &SequenceTable{entries: all}
	for _, s := range all {
		if len(s.Bytes) > t.maxLen {
			t.maxLen = len(s.Bytes)
		}
	}
	return t, nil
}

// DefaultSequenceTable returns the table with every mapping set enabled
func DefaultSequenceTable() *SequenceTable {
	t, _ := NewSequenceTable(MapAll)
	return t
}

// Len returns the number of entries
func (t *SequenceTable) Len() int {
	return len(t.entries)
}

// MaxLen returns the longest sequence length
func (t *SequenceTable) MaxLen() int {
	return t.maxLen
}

// Lookup returns the key for an exact sequence (bytes after ESC)
func (t *SequenceTable) Lookup(seq []byte) (KeyCode, bool) {
	for _, s := range t.entries {
		if bytes.Equal(s.Bytes, seq) {
			return s.Code, true
		}
	}
	return 0, false
}

// Entries returns a copy of the ordered entries
func (t *SequenceTable) Entries() []Sequence {
	out := make([]Sequence, len(t.entries))
	copy(out, t.entries)
	return out
}
