package terminal

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// pollInterval bounds each blocking wait so the pump notices Stop
const pollInterval = 100 * time.Millisecond

// EventType discriminates Event payloads
type EventType uint8

const (
	EventKey EventType = iota
	EventResize
	EventError
	EventClosed
)

// Event is one item delivered by KeyService
type Event struct {
	Type   EventType
	Key    Result // EventKey
	Width  int    // EventResize
	Height int    // EventResize
	Err    error  // EventError, EventClosed
}

// KeyService decodes keys on a background goroutine and delivers them as events
type KeyService struct {
	src    Source
	fd     int
	dec    *Decoder
	resize *resizeHandler

	eventCh chan Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewKeyService creates a service reading src
// fd is watched for SIGWINCH size changes; pass -1 to disable
func NewKeyService(src Source, fd int) *KeyService {
	return &KeyService{
		src:     src,
		fd:      fd,
		eventCh: make(chan Event, 256),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Name implements Service
func (s *KeyService) Name() string {
	return "input"
}

// Dependencies implements Service
func (s *KeyService) Dependencies() []string {
	return nil
}

// Init implements Service
// args[0]: DecoderOptions (optional, defaults to DefaultDecoderOptions())
func (s *KeyService) Init(args ...any) error {
	opts := DefaultDecoderOptions()
	if len(args) > 0 {
		if o, ok := args[0].(DecoderOptions); ok {
			opts = o
		}
	}

	dec, err := NewDecoder(s.src, opts)
	if err != nil {
		return fmt.Errorf("input init: %w", err)
	}
	s.dec = dec
	return nil
}

// Decoder returns the underlying decoder
// Only safe to use directly before Start or after Stop
func (s *KeyService) Decoder() *Decoder {
	return s.dec
}

// Start implements Service - launches the decode pump
func (s *KeyService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if s.stopped {
		return errors.New("input service already stopped")
	}
	if s.dec == nil {
		return errors.New("input service not initialized")
	}
	s.running = true

	var resizeCh <-chan ResizeEvent
	if s.fd >= 0 {
		s.resize = newResizeHandler(s.fd)
		s.resize.start()
		resizeCh = s.resize.events()
	}

	go s.pumpLoop(resizeCh)
	return nil
}

// pumpLoop decodes keys until stop signal or end of stream
func (s *KeyService) pumpLoop(resizeCh <-chan ResizeEvent) {
	defer close(s.doneCh)

	defer func() {
		if r := recover(); r != nil {
			EmergencyReset(os.Stdout)
			os.Stdout.Sync()
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mKEY DECODER CRASHED: %v\x1b[0m\r\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Stderr.Sync()
			os.Exit(1)
		}
	}()

	for {
		select {
		case <-s.stopCh:
			return
		case ev := <-resizeCh:
			if !s.send(Event{Type: EventResize, Width: ev.Width, Height: ev.Height}) {
				return
			}
			continue
		default:
		}

		r, err := s.dec.Next(pollInterval)
		switch {
		case err == nil:
			if !s.send(Event{Type: EventKey, Key: r}) {
				return
			}
		case errors.Is(err, ErrWouldBlock):
		case errors.Is(err, ErrEndOfStream):
			log.Printf("input: %v", err)
			s.send(Event{Type: EventClosed, Err: err})
			return
		default:
			if !s.send(Event{Type: EventError, Err: err}) {
				return
			}
		}
	}
}

// send delivers ev unless the service is stopping
func (s *KeyService) send(ev Event) bool {
	select {
	case s.eventCh <- ev:
		return true
	case <-s.stopCh:
		return false
	}
}

// Stop implements Service - signals stop and waits for the pump
// A pump blocked in Next returns within pollInterval
func (s *KeyService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	if s.resize != nil {
		s.resize.stop()
		s.resize = nil
	}
	return nil
}

// Events returns the event channel
func (s *KeyService) Events() <-chan Event {
	return s.eventCh
}
