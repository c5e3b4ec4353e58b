package terminal

import (
	"errors"
	"fmt"
	"log"
	"syscall"
	"time"
)

// KeyBufferSize bounds the pending buffer; long enough for "ESC [ 9999 ; 9999 R"
const KeyBufferSize = 16

// maxPending is the most bytes the decoder keeps, one slot stays reserved
const maxPending = KeyBufferSize - 1

// escapeTimeout is the wait for each continuation byte after ESC
// Escape sequences arrive as a unit; a longer gap means the sequence is complete or
// the user pressed ESC alone. Serial consoles may split a sequence, hence a non-zero wait
const escapeTimeout = 50 * time.Millisecond

// DecoderOptions configures a Decoder
type DecoderOptions struct {
	// Mappings selects optional table entries
	Mappings MappingSet
	// Extra entries appended to the built-in table
	Extra []Sequence
	// CursorReports enables parsing of ESC [ row ; col R
	CursorReports bool
	// EscapeTimeout overrides the per-byte continuation wait, zero keeps the default
	EscapeTimeout time.Duration
}

// DefaultDecoderOptions enables every mapping set and cursor reports
func DefaultDecoderOptions() DecoderOptions {
	return DecoderOptions{
		Mappings:      MapAll,
		CursorReports: true,
		EscapeTimeout: escapeTimeout,
	}
}

// Decoder turns a byte stream into keys, one per call to Next
// Not safe for concurrent use; one decoder per stream
type Decoder struct {
	src           Source
	table         *SequenceTable
	cursorReports bool
	escTimeout    time.Duration

	// Bytes read but not yet consumed, survives across Next calls
	pending [KeyBufferSize]byte
	n       int
}

// NewDecoder creates a decoder reading from src
func NewDecoder(src Source, opts DecoderOptions) (*Decoder, error) {
	if src == nil {
		return nil, errors.New("terminal: nil source")
	}
	table, err := NewSequenceTable(opts.Mappings, opts.Extra...)
	if err != nil {
		return nil, fmt.Errorf("terminal: sequence table: %w", err)
	}
	d := &Decoder{
		src:           src,
		table:         table,
		cursorReports: opts.CursorReports,
		escTimeout:    opts.EscapeTimeout,
	}
	if d.escTimeout <= 0 {
		d.escTimeout = escapeTimeout
	}
	return d, nil
}

// Table returns the sequence table in use
func (d *Decoder) Table() *SequenceTable {
	return d.table
}

// Pending returns the number of buffered, unconsumed bytes
func (d *Decoder) Pending() int {
	return d.n
}

// Reset drops any pending input
func (d *Decoder) Reset() {
	d.n = 0
}

// Next returns the next logical key
//
// timeout is Forever, NoPoll, or a bound on the wait for the first byte.
// Returns NoKey with ErrWouldBlock when nothing arrives in time, and NoKey with
// an error wrapping ErrEndOfStream when the stream is closed or fails.
// Consumes only the bytes of the returned key; a lone byte following an
// unmatched ESC is kept for the next call.
func (d *Decoder) Next(timeout time.Duration) (Result, error) {
	for {
		if d.n == 0 {
			if timeout >= Forever {
				ready, err := d.wait(timeout)
				if err != nil {
					return NoKey, endOfStream(err)
				}
				if !ready {
					return NoKey, ErrWouldBlock
				}
			}
			// One byte only: reading further would swallow text pasted after this key
			b, err := d.read()
			if err != nil {
				if errors.Is(err, ErrWouldBlock) {
					return NoKey, ErrWouldBlock
				}
				return NoKey, endOfStream(err)
			}
			d.pending[0] = b
			d.n = 1
		}

		c := d.pending[0]
		d.consume(1)
		if c != ByteEscape {
			return ByteResult(c), nil
		}

		r, ok, err := d.decodeEscape()
		if err != nil {
			return NoKey, err
		}
		if ok {
			return r, nil
		}
		// Unrecognized escape input was dropped; wait for a new key
	}
}

// decodeEscape resolves the bytes following ESC
// Returns ok=false when the input was discarded as garbage
func (d *Decoder) decodeEscape() (Result, bool, error) {
	stalled := false

scan:
	for _, seq := range d.table.entries {
		for i := 0; ; i++ {
			if d.n <= i {
				more, err := d.fill()
				if err != nil {
					return NoKey, false, err
				}
				if !more {
					// Shortest-first ordering: nothing later can match less input
					stalled = true
					break scan
				}
			}
			if d.pending[i] != seq.Bytes[i] {
				break
			}
			if i == len(seq.Bytes)-1 {
				d.n = 0
				return KeyResult(seq.Code), true, nil
			}
		}
	}

	// The scan may already hold a whole report, e.g. [1;5R shares a prefix with [1;5C
	if r, ok := d.cursorReport(); ok {
		return r, true, nil
	}

	if !stalled {
		// No table match; drain the rest of the burst looking for a cursor report
		for d.n < maxPending {
			more, err := d.fill()
			if err != nil {
				return NoKey, false, err
			}
			if !more {
				break
			}
			if r, ok := d.cursorReport(); ok {
				return r, true, nil
			}
		}
	}

	if d.n <= 1 {
		// Alt-x usually arrives as ESC x: report ESC, keep x for the next call
		return ByteResult(ByteEscape), true, nil
	}

	log.Printf("terminal: dropped unrecognized escape sequence %q", d.pending[:d.n])
	d.n = 0
	return NoKey, false, nil
}

// fill appends one byte to the pending buffer if it arrives within the escape timeout
// Returns false on timeout, on a full buffer, or when a non-blocking read finds nothing
func (d *Decoder) fill() (bool, error) {
	if d.n >= maxPending {
		return false, nil
	}
	ready, err := d.wait(d.escTimeout)
	if err != nil {
		d.n = 0
		return false, endOfStream(err)
	}
	if !ready {
		return false, nil
	}
	b, err := d.read()
	if err != nil {
		if errors.Is(err, ErrWouldBlock) {
			return false, nil
		}
		d.n = 0
		return false, endOfStream(err)
	}
	d.pending[d.n] = b
	d.n++
	return true, nil
}

// consume drops k bytes from the front of the pending buffer
func (d *Decoder) consume(k int) {
	d.n -= k
	if d.n > 0 {
		copy(d.pending[:], d.pending[k:k+d.n])
	}
}

func (d *Decoder) wait(timeout time.Duration) (bool, error) {
	for {
		ready, err := d.src.Wait(timeout)
		if err != nil && isInterrupted(err) {
			continue
		}
		return ready, err
	}
}

func (d *Decoder) read() (byte, error) {
	for {
		b, err := d.src.ReadByte()
		if err != nil && isInterrupted(err) {
			continue
		}
		return b, err
	}
}

// isInterrupted reports whether err is an interrupted system call
func isInterrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}

// endOfStream wraps err under ErrEndOfStream, the cause stays matchable
func endOfStream(err error) error {
	return fmt.Errorf("%w: %w", ErrEndOfStream, err)
}

// cursorReport consumes the pending bytes when they form a cursor position report
func (d *Decoder) cursorReport() (Result, bool) {
	if !d.cursorReports {
		return NoKey, false
	}
	row, col, ok := parseCursorReport(d.pending[:d.n])
	if !ok {
		return NoKey, false
	}
	d.n = 0
	return CursorResult(row, col), true
}

// parseCursorReport matches "[ row ; col R" (bytes after ESC)
// Both numbers must be in 1..0x7fff and the final byte must be 'R'
func parseCursorReport(b []byte) (row, col int, ok bool) {
	n := len(b)
	if n < 5 || b[0] != '[' || b[n-1] != 'R' || !isDigit(b[1]) {
		return 0, 0, false
	}

	row, i := parseDecimal(b, 1)
	if i+1 >= n || b[i] != ';' || !isDigit(b[i+1]) {
		return 0, 0, false
	}
	col, i = parseDecimal(b, i+1)
	if b[i] != 'R' {
		return 0, 0, false
	}
	if row < 1 || col < 1 || row > maxCoord || col > maxCoord {
		return 0, 0, false
	}
	return row, col, true
}

// parseDecimal reads digits from b[i:], saturating just above maxCoord
// Returns the value and the index of the first non-digit
func parseDecimal(b []byte, i int) (int, int) {
	v := 0
	for ; i < len(b) && isDigit(b[i]); i++ {
		if v <= maxCoord {
			v = v*10 + int(b[i]-'0')
		}
	}
	return v, i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
