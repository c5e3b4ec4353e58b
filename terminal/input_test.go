package terminal

import (
	"errors"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"
)

const testTimeout = 10 * time.Millisecond

type stepKind uint8

const (
	stepByte stepKind = iota
	stepPause
	stepWaitErr
	stepReadErr
)

type step struct {
	kind stepKind
	b    byte
	err  error
}

// scriptSource replays bytes, gaps and failures in order
// Past the end of the script it is idle, or at end of file once closed
type scriptSource struct {
	steps  []step
	pos    int
	closed bool

	waits []time.Duration
	reads int
}

func script(parts ...any) *scriptSource {
	s := &scriptSource{}
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			for i := 0; i < len(v); i++ {
				s.steps = append(s.steps, step{kind: stepByte, b: v[i]})
			}
		case []byte:
			for _, b := range v {
				s.steps = append(s.steps, step{kind: stepByte, b: b})
			}
		case step:
			s.steps = append(s.steps, v)
		default:
			panic("script: unsupported part")
		}
	}
	return s
}

func pause() step            { return step{kind: stepPause} }
func waitErr(err error) step { return step{kind: stepWaitErr, err: err} }
func readErr(err error) step { return step{kind: stepReadErr, err: err} }

func (s *scriptSource) remaining() int { return len(s.steps) - s.pos }

func (s *scriptSource) Wait(timeout time.Duration) (bool, error) {
	s.waits = append(s.waits, timeout)
	if s.pos >= len(s.steps) {
		return s.closed, nil
	}
	st := s.steps[s.pos]
	switch st.kind {
	case stepPause:
		s.pos++
		return false, nil
	case stepWaitErr:
		s.pos++
		return false, st.err
	}
	return true, nil
}

func (s *scriptSource) ReadByte() (byte, error) {
	s.reads++
	if s.pos >= len(s.steps) {
		if s.closed {
			return 0, io.EOF
		}
		return 0, ErrWouldBlock
	}
	st := s.steps[s.pos]
	s.pos++
	switch st.kind {
	case stepPause:
		return 0, ErrWouldBlock
	case stepByte:
		return st.b, nil
	}
	return 0, st.err
}

func newTestDecoder(t *testing.T, src Source, opts DecoderOptions) *Decoder {
	t.Helper()
	d, err := NewDecoder(src, opts)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	return d
}

// expectKeys reads len(want) keys and compares them in order
func expectKeys(t *testing.T, d *Decoder, want ...Result) {
	t.Helper()
	for i, w := range want {
		got, err := d.Next(testTimeout)
		if err != nil {
			t.Fatalf("key %d: unexpected error %v (want %v)", i, err, w)
		}
		if got != w {
			t.Fatalf("key %d: got %v (%#x), want %v (%#x)", i, got, int64(got), w, int64(w))
		}
	}
}

func expectWouldBlock(t *testing.T, d *Decoder) {
	t.Helper()
	got, err := d.Next(testTimeout)
	if !errors.Is(err, ErrWouldBlock) || got != NoKey {
		t.Fatalf("Expected NoKey/ErrWouldBlock, got %v/%v", got, err)
	}
}

// TestPlainBytes verifies ordinary bytes come back one per call, unmodified
func TestPlainBytes(t *testing.T) {
	src := script("ab\x01\x7f\xc3")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d,
		ByteResult('a'), ByteResult('b'), ByteResult(0x01),
		ByteResult(0x7f), ByteResult(0xc3),
	)
	if d.Pending() != 0 {
		t.Errorf("Pending = %d after plain bytes", d.Pending())
	}
	expectWouldBlock(t, d)
}

// TestNoReadAhead verifies a plain key never pulls the following bytes into the decoder
func TestNoReadAhead(t *testing.T) {
	src := script("xyz")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, ByteResult('x'))
	if src.remaining() != 2 {
		t.Errorf("Decoder consumed %d extra bytes", 2-src.remaining())
	}
}

// TestEveryTableEntry verifies each catalog sequence decodes to its key
func TestEveryTableEntry(t *testing.T) {
	table := DefaultSequenceTable()
	for _, seq := range table.Entries() {
		t.Run(strings.ReplaceAll(string(seq.Bytes), "\x7f", "DEL"), func(t *testing.T) {
			src := script([]byte{ByteEscape}, seq.Bytes, "z")
			d := newTestDecoder(t, src, DefaultDecoderOptions())

			expectKeys(t, d, KeyResult(seq.Code), ByteResult('z'))
			if d.Pending() != 0 {
				t.Errorf("Pending = %d", d.Pending())
			}
		})
	}
}

// TestSequenceLeavesTrailingInput verifies a match stops reading at its last byte
func TestSequenceLeavesTrailingInput(t *testing.T) {
	src := script("\x1b[5~hello")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, KeyResult(KeyPageUp))
	if src.remaining() != 5 {
		t.Errorf("Expected 5 unread bytes, got %d", src.remaining())
	}
	expectKeys(t, d, ByteResult('h'), ByteResult('e'))
}

// TestModifiedArrows verifies Ctrl and Alt arrow variants and their bit layout
func TestModifiedArrows(t *testing.T) {
	src := script("\x1b[1;5C", "\x1b[1;3C", "\x1b[1;5D", "\x1b[1;3D")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d,
		KeyResult(KeyCtrlRight), KeyResult(KeyAltRight),
		KeyResult(KeyCtrlLeft), KeyResult(KeyAltLeft),
	)

	if KeyCtrlRight != KeyRight&^0x40 || KeyAltRight != KeyRight&^0x20 {
		t.Error("Modifier bits not cleared from base key")
	}
	if !KeyCtrlRight.Ctrl() || KeyCtrlRight.Alt() || KeyCtrlRight.Base() != KeyRight {
		t.Errorf("KeyCtrlRight: ctrl=%v alt=%v base=%v", KeyCtrlRight.Ctrl(), KeyCtrlRight.Alt(), KeyCtrlRight.Base())
	}
	if !KeyAltLeft.Alt() || KeyAltLeft.Ctrl() || KeyAltLeft.Base() != KeyLeft {
		t.Errorf("KeyAltLeft: ctrl=%v alt=%v base=%v", KeyAltLeft.Ctrl(), KeyAltLeft.Alt(), KeyAltLeft.Base())
	}
}

// TestLoneEscape verifies ESC followed by silence is reported as ESC
func TestLoneEscape(t *testing.T) {
	src := script("\x1b", pause())
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, ByteResult(ByteEscape))
	if d.Pending() != 0 {
		t.Errorf("Pending = %d", d.Pending())
	}
	// The continuation wait uses the escape timeout, not the caller's
	if len(src.waits) != 2 || src.waits[1] != escapeTimeout {
		t.Errorf("waits = %v", src.waits)
	}
}

// TestEscapeThenByte verifies ESC x with an unknown x returns ESC and keeps x
func TestEscapeThenByte(t *testing.T) {
	src := script("\x1bx")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, ByteResult(ByteEscape))
	if d.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", d.Pending())
	}
	expectKeys(t, d, ByteResult('x'))
	expectWouldBlock(t, d)
}

// TestDoubleEscape verifies ESC ESC yields two ESC keys
func TestDoubleEscape(t *testing.T) {
	src := script("\x1b\x1b")
	d := newTestDecoder(t, src, DefaultDecoderOptions())
	expectKeys(t, d, ByteResult(ByteEscape), ByteResult(ByteEscape))
	expectWouldBlock(t, d)
}

// TestAltMappings verifies the optional sets can be switched off
func TestAltMappings(t *testing.T) {
	on := newTestDecoder(t, script("\x1bf\x1bb\x1bd\x1b\x7f\x1b\b"), DefaultDecoderOptions())
	expectKeys(t, on,
		KeyResult(KeyAltRight), KeyResult(KeyAltLeft), KeyResult(KeyAltD),
		KeyResult(KeyAltBackspace), KeyResult(KeyAltBackspace),
	)

	opts := DefaultDecoderOptions()
	opts.Mappings = MapNone
	off := newTestDecoder(t, script("\x1bf", pause(), "\x1bd"), opts)
	expectKeys(t, off,
		ByteResult(ByteEscape), ByteResult('f'),
		ByteResult(ByteEscape), ByteResult('d'),
	)
}

// TestSplitSequence verifies a sequence broken by a gap degrades to ESC plus its bytes
func TestSplitSequence(t *testing.T) {
	src := script("\x1b[", pause(), "A")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, ByteResult(ByteEscape), ByteResult('['), ByteResult('A'))
}

// TestCursorReport verifies ESC [ row ; col R decoding
func TestCursorReport(t *testing.T) {
	src := script("\x1b[24;80R", "\x1b[1;1R", "\x1b[32767;32767Rq")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	tests := []struct{ row, col int }{{24, 80}, {1, 1}, {32767, 32767}}
	for _, tt := range tests {
		r, err := d.Next(testTimeout)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		row, col, ok := r.CursorPos()
		if !ok || row != tt.row || col != tt.col {
			t.Errorf("CursorPos = %d,%d,%v want %d,%d", row, col, ok, tt.row, tt.col)
		}
		if r.Code() != KeyCursorPos || r.IsKey() || r.IsByte() {
			t.Errorf("Result %#x classified wrong", int64(r))
		}
		if uint64(r)>>63 != 1 {
			t.Errorf("High marker bit missing in %#x", int64(r))
		}
	}
	expectKeys(t, d, ByteResult('q'))
}

// TestCursorReportSharingPrefix verifies reports that look like modified arrows
// up to their final byte, and that input typed right after them survives
func TestCursorReportSharingPrefix(t *testing.T) {
	src := script("\x1b[1;5Rabc", "\x1b[1;3R")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d,
		CursorResult(1, 5),
		ByteResult('a'), ByteResult('b'), ByteResult('c'),
		CursorResult(1, 3),
	)
	expectWouldBlock(t, d)
}

// TestCursorReportRejected verifies malformed or out-of-range reports are dropped
func TestCursorReportRejected(t *testing.T) {
	inputs := []string{
		"\x1b[0;5R",     // row zero
		"\x1b[5;0R",     // col zero
		"\x1b[32768;1R", // row too large
		"\x1b[;5R",      // missing row
		"\x1b[5R",       // missing col
	}
	for _, in := range inputs {
		src := script(in, pause(), "k")
		d := newTestDecoder(t, src, DefaultDecoderOptions())
		expectKeys(t, d, ByteResult('k'))
	}

	opts := DefaultDecoderOptions()
	opts.CursorReports = false
	d := newTestDecoder(t, script("\x1b[24;80R", pause(), "k"), opts)
	expectKeys(t, d, ByteResult('k'))
}

// TestGarbageDropped verifies an unknown multi-byte sequence is discarded whole
func TestGarbageDropped(t *testing.T) {
	src := script("\x1b[99z", pause(), "ok")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, ByteResult('o'), ByteResult('k'))
}

// TestGarbageThenIdle verifies dropping garbage restarts the wait with the caller's timeout
func TestGarbageThenIdle(t *testing.T) {
	src := script("\x1b[99z", pause())
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectWouldBlock(t, d)
	if last := src.waits[len(src.waits)-1]; last != testTimeout {
		t.Errorf("Restart wait = %v, want %v", last, testTimeout)
	}
}

// TestBufferFull verifies accumulation stops at the buffer limit and the overflow is dropped
func TestBufferFull(t *testing.T) {
	// 20 bytes after ESC, no terminator: 15 fill the buffer, 5 remain in the stream
	tail := "[" + strings.Repeat("1", 19)
	src := script("\x1b", tail)
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, ByteResult('1'))
	if src.remaining() != 4 {
		t.Errorf("remaining = %d, want 4", src.remaining())
	}
	if d.Pending() != 0 {
		t.Errorf("Pending = %d", d.Pending())
	}
}

// TestLongestCursorReport verifies the largest report fits the buffer
func TestLongestCursorReport(t *testing.T) {
	// Leading zeros stretch it to exactly 15 bytes after ESC
	src := script("\x1b[0032767;32767R")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	r, err := d.Next(testTimeout)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row, col, ok := r.CursorPos(); !ok || row != 32767 || col != 32767 {
		t.Errorf("CursorPos = %d,%d,%v", row, col, ok)
	}
}

// TestEndOfStream verifies EOF at rest and mid-sequence
func TestEndOfStream(t *testing.T) {
	src := script()
	src.closed = true
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	r, err := d.Next(Forever)
	if r != NoKey || !errors.Is(err, ErrEndOfStream) || !errors.Is(err, io.EOF) {
		t.Errorf("Got %v/%v, want NoKey/ErrEndOfStream wrapping io.EOF", r, err)
	}

	src = script("\x1b[")
	src.closed = true
	d = newTestDecoder(t, src, DefaultDecoderOptions())
	r, err = d.Next(testTimeout)
	if r != NoKey || !errors.Is(err, ErrEndOfStream) {
		t.Errorf("Mid-sequence: got %v/%v", r, err)
	}
	if d.Pending() != 0 {
		t.Errorf("Pending = %d after end of stream", d.Pending())
	}
}

// TestSourceErrors verifies hard wait and read failures end the stream
func TestSourceErrors(t *testing.T) {
	d := newTestDecoder(t, script(waitErr(syscall.EIO)), DefaultDecoderOptions())
	if _, err := d.Next(testTimeout); !errors.Is(err, ErrEndOfStream) || !errors.Is(err, syscall.EIO) {
		t.Errorf("Wait failure: %v", err)
	}

	d = newTestDecoder(t, script(readErr(syscall.EBADF)), DefaultDecoderOptions())
	if _, err := d.Next(testTimeout); !errors.Is(err, ErrEndOfStream) || !errors.Is(err, syscall.EBADF) {
		t.Errorf("Read failure: %v", err)
	}

	d = newTestDecoder(t, script("\x1b", waitErr(syscall.EIO)), DefaultDecoderOptions())
	if _, err := d.Next(testTimeout); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("Continuation wait failure: %v", err)
	}
}

// TestInterruptedRetried verifies EINTR from wait or read is retried transparently
func TestInterruptedRetried(t *testing.T) {
	src := script(waitErr(syscall.EINTR), "a", readErr(syscall.EINTR), "b",
		"\x1b", waitErr(syscall.EINTR), "[B")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectKeys(t, d, ByteResult('a'), ByteResult('b'), KeyResult(KeyDown))
}

// TestWouldBlock verifies an idle stream returns ErrWouldBlock with the caller's bound
func TestWouldBlock(t *testing.T) {
	src := script()
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	expectWouldBlock(t, d)
	if len(src.waits) != 1 || src.waits[0] != testTimeout {
		t.Errorf("waits = %v", src.waits)
	}
	if src.reads != 0 {
		t.Errorf("Read after failed wait: %d", src.reads)
	}
}

// TestNoPoll verifies NoPoll skips the first wait
func TestNoPoll(t *testing.T) {
	src := script("a")
	d := newTestDecoder(t, src, DefaultDecoderOptions())

	r, err := d.Next(NoPoll)
	if err != nil || r != ByteResult('a') {
		t.Fatalf("Got %v/%v", r, err)
	}
	if len(src.waits) != 0 {
		t.Errorf("NoPoll waited: %v", src.waits)
	}

	r, err = d.Next(NoPoll)
	if r != NoKey || !errors.Is(err, ErrWouldBlock) {
		t.Errorf("Empty NoPoll: got %v/%v", r, err)
	}

	// Continuation bytes still wait
	src = script("\x1b[C")
	d = newTestDecoder(t, src, DefaultDecoderOptions())
	r, err = d.Next(NoPoll)
	if err != nil || r != KeyResult(KeyRight) {
		t.Fatalf("Got %v/%v", r, err)
	}
	for _, w := range src.waits {
		if w != escapeTimeout {
			t.Errorf("Continuation wait %v, want %v", w, escapeTimeout)
		}
	}
}

// TestPendingServedWithoutWait verifies a kept byte is returned without touching the source
func TestPendingServedWithoutWait(t *testing.T) {
	src := script("\x1bx")
	d := newTestDecoder(t, src, DefaultDecoderOptions())
	expectKeys(t, d, ByteResult(ByteEscape))

	waits, reads := len(src.waits), src.reads
	expectKeys(t, d, ByteResult('x'))
	if len(src.waits) != waits || src.reads != reads {
		t.Error("Pending byte should not hit the source")
	}
}

// TestCustomEscapeTimeout verifies the continuation wait is configurable
func TestCustomEscapeTimeout(t *testing.T) {
	opts := DefaultDecoderOptions()
	opts.EscapeTimeout = 200 * time.Millisecond
	src := script("\x1b", pause())
	d := newTestDecoder(t, src, opts)

	expectKeys(t, d, ByteResult(ByteEscape))
	if src.waits[len(src.waits)-1] != 200*time.Millisecond {
		t.Errorf("waits = %v", src.waits)
	}

	opts.EscapeTimeout = 0
	d = newTestDecoder(t, script(), opts)
	if d.escTimeout != escapeTimeout {
		t.Errorf("Zero timeout should keep default, got %v", d.escTimeout)
	}
}

// TestExtraSequences verifies caller-supplied entries join the table
func TestExtraSequences(t *testing.T) {
	const keyBackTab KeyCode = -0x40
	opts := DefaultDecoderOptions()
	opts.Extra = []Sequence{{Bytes: []byte("[Z"), Code: keyBackTab}}

	d := newTestDecoder(t, script("\x1b[Z"), opts)
	expectKeys(t, d, KeyResult(keyBackTab))
}

// TestNewDecoderErrors verifies constructor validation
func TestNewDecoderErrors(t *testing.T) {
	if _, err := NewDecoder(nil, DefaultDecoderOptions()); err == nil {
		t.Error("Expected error for nil source")
	}

	opts := DefaultDecoderOptions()
	opts.Extra = []Sequence{{Bytes: nil, Code: -0x40}}
	if _, err := NewDecoder(script(), opts); err == nil {
		t.Error("Expected error for empty extra sequence")
	}
}

// TestReset verifies Reset drops a kept byte
func TestReset(t *testing.T) {
	d := newTestDecoder(t, script("\x1bx"), DefaultDecoderOptions())
	expectKeys(t, d, ByteResult(ByteEscape))
	d.Reset()
	if d.Pending() != 0 {
		t.Errorf("Pending = %d after Reset", d.Pending())
	}
	expectWouldBlock(t, d)
}

// TestParseCursorReport exercises the report grammar directly
func TestParseCursorReport(t *testing.T) {
	tests := []struct {
		in       string
		row, col int
		ok       bool
	}{
		{"[24;80R", 24, 80, true},
		{"[1;1R", 1, 1, true},
		{"[032;07R", 32, 7, true},
		{"[32767;32767R", 32767, 32767, true},
		{"[32768;1R", 0, 0, false},
		{"[99999999999;1R", 0, 0, false},
		{"[24;80", 0, 0, false},
		{"[24;R", 0, 0, false},
		{"[24:80R", 0, 0, false},
		{"O24;80R", 0, 0, false},
		{"[24;8xR", 0, 0, false},
		{"[R", 0, 0, false},
	}
	for _, tt := range tests {
		row, col, ok := parseCursorReport([]byte(tt.in))
		if ok != tt.ok || row != tt.row || col != tt.col {
			t.Errorf("parseCursorReport(%q) = %d,%d,%v want %d,%d,%v",
				tt.in, row, col, ok, tt.row, tt.col, tt.ok)
		}
	}
}
