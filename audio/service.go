package audio

import (
	"log"
	"sync"

	"github.com/lixenwraith/vikey/terminal"
)

// BellService owns the configured Ringer
// Handles graceful degradation when no audio backend is available
type BellService struct {
	mu     sync.Mutex
	cfg    BellConfig
	out    *terminal.Output
	tone   *ToneBell
	ringer Ringer
}

// NewService creates a new bell service
func NewService() *BellService {
	return &BellService{ringer: NoBell{}}
}

// Name implements Service
func (s *BellService) Name() string {
	return "bell"
}

// Dependencies implements Service
func (s *BellService) Dependencies() []string {
	return nil
}

// Init implements Service
// args[0]: BellConfig (optional, defaults to DefaultBellConfig())
// args[1]: *terminal.Output used by the terminal bell and as tone fallback
func (s *BellService) Init(args ...any) error {
	s.cfg = DefaultBellConfig()
	if len(args) > 0 {
		if cfg, ok := args[0].(BellConfig); ok {
			s.cfg = cfg
		}
	}
	if len(args) > 1 {
		if out, ok := args[1].(*terminal.Output); ok {
			s.out = out
		}
	}

	mode, err := ParseMode(s.cfg.Mode)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case ModeOff:
		s.ringer = NoBell{}
	case ModeTerminal:
		s.ringer = TerminalBell{Out: s.out}
	case ModeTone:
		s.tone = NewToneBell(s.cfg.Frequency, s.cfg.Duration, TerminalBell{Out: s.out})
		s.ringer = s.tone
	}
	return nil
}

// Start implements Service
// Opens the speaker for the tone bell; on failure the tone bell keeps ringing its fallback
func (s *BellService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tone == nil {
		return nil
	}
	if err := s.tone.Initialize(); err != nil {
		log.Printf("bell: audio unavailable, using terminal bell: %v", err)
	}
	return nil
}

// Stop implements Service
func (s *BellService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tone != nil {
		s.tone.Cleanup()
	}
	return nil
}

// Ring sounds the configured bell
func (s *BellService) Ring() {
	s.mu.Lock()
	r := s.ringer
	s.mu.Unlock()
	r.Ring()
}

// Ringer returns the active Ringer
func (s *BellService) Ringer() Ringer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ringer
}
