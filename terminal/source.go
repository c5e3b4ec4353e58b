package terminal

import (
	"errors"
	"time"
)

// Timeout values accepted by Source.Wait and Decoder.Next besides non-negative bounds
const (
	// Forever blocks until input arrives
	Forever time.Duration = -1
	// NoPoll skips the wait entirely; the caller knows input is ready (or the fd is non-blocking)
	NoPoll time.Duration = -2
)

var (
	// ErrWouldBlock reports that no input arrived within the requested bound
	ErrWouldBlock = errors.New("terminal: no input available")
	// ErrEndOfStream reports a closed stream or an unrecoverable read error
	ErrEndOfStream = errors.New("terminal: end of input stream")
)

// Source abstracts the byte stream feeding a Decoder.
// Implementations must retry interrupted system calls themselves where they can;
// the decoder also retries any error matching syscall.EINTR.
type Source interface {
	// Wait blocks until a byte is readable or the timeout elapses.
	// A negative timeout waits forever. Returns false on timeout.
	Wait(timeout time.Duration) (bool, error)

	// ReadByte reads exactly one byte.
	// Returns ErrWouldBlock if no data is available on a non-blocking stream,
	// io.EOF when the stream is closed.
	ReadByte() (byte, error)
}
