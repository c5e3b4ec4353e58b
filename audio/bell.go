package audio

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/vikey/terminal"
)

const (
	sampleRate = beep.SampleRate(44100)

	// DefaultFrequency and DefaultDuration match the PC speaker beep of DOS consoles
	DefaultFrequency = 440.0
	DefaultDuration  = 100 * time.Millisecond
)

// Bell modes accepted in configuration
const (
	ModeTone     = "tone"
	ModeTerminal = "terminal"
	ModeOff      = "none"
)

// Ringer sounds the bell
type Ringer interface {
	Ring()
}

// NoBell is a silent Ringer
type NoBell struct{}

func (NoBell) Ring() {}

// TerminalBell rings by writing BEL to the terminal
type TerminalBell struct {
	Out *terminal.Output
}

func (b TerminalBell) Ring() {
	if b.Out != nil {
		b.Out.Bell()
	}
}

// BellConfig selects and tunes the bell
type BellConfig struct {
	Mode      string
	Frequency float64
	Duration  time.Duration
}

// DefaultBellConfig returns a terminal bell with the DOS tone parameters preset
func DefaultBellConfig() BellConfig {
	return BellConfig{
		Mode:      ModeTerminal,
		Frequency: DefaultFrequency,
		Duration:  DefaultDuration,
	}
}

// ParseMode normalizes a mode string
func ParseMode(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case ModeTone, ModeTerminal, ModeOff:
		return m, nil
	case "off":
		return ModeOff, nil
	case "":
		return ModeTerminal, nil
	default:
		return "", fmt.Errorf("unknown bell mode %q", s)
	}
}

// ToneBell plays a short sine tone through the sound card
// Falls back to the fallback Ringer when no audio device could be opened
type ToneBell struct {
	mu          sync.Mutex
	freq        float64
	dur         time.Duration
	mixer       *beep.Mixer
	fallback    Ringer
	initialized bool
}

// NewToneBell creates a tone bell; fallback may be nil
func NewToneBell(freq float64, dur time.Duration, fallback Ringer) *ToneBell {
	if freq <= 0 {
		freq = DefaultFrequency
	}
	if dur <= 0 {
		dur = DefaultDuration
	}
	if fallback == nil {
		fallback = NoBell{}
	}
	return &ToneBell{
		freq:     freq,
		dur:      dur,
		mixer:    &beep.Mixer{},
		fallback: fallback,
	}
}

// Initialize opens the speaker
func (b *ToneBell) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*50))
	if err != nil {
		return err
	}

	speaker.Play(b.mixer)
	b.initialized = true
	return nil
}

// Cleanup silences pending tones
func (b *ToneBell) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	speaker.Lock()
	b.mixer.Clear()
	speaker.Unlock()
	b.initialized = false
}

// Ring queues one tone, or rings the fallback before Initialize succeeds
func (b *ToneBell) Ring() {
	b.mu.Lock()
	if !b.initialized {
		b.mu.Unlock()
		b.fallback.Ring()
		return
	}
	streamer := b.Streamer()
	b.mu.Unlock()

	speaker.Lock()
	b.mixer.Add(streamer)
	speaker.Unlock()
}

// Streamer returns a finite streamer for one tone
func (b *ToneBell) Streamer() beep.Streamer {
	return beep.Take(sampleRate.N(b.dur), NewToneGenerator(sampleRate, b.freq, b.dur))
}

// ToneGenerator generates a sine tone with short fades at both ends
type ToneGenerator struct {
	sr    beep.SampleRate
	freq  float64
	total int
	pos   int
}

// NewToneGenerator creates a tone generator for a tone of length dur
func NewToneGenerator(sr beep.SampleRate, freq float64, dur time.Duration) *ToneGenerator {
	return &ToneGenerator{
		sr:    sr,
		freq:  freq,
		total: sr.N(dur),
	}
}

func (g *ToneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	fade := g.sr.N(5 * time.Millisecond)
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		// Square-ish edges click; ramp in and out
		envelope := 1.0
		if fade > 0 {
			envelope = math.Min(float64(g.pos)/float64(fade), 1.0)
			if rem := g.total - g.pos; rem < fade {
				envelope = math.Min(envelope, math.Max(float64(rem)/float64(fade), 0))
			}
		}

		sample := 0.25 * envelope * math.Sin(2*math.Pi*g.freq*t)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ToneGenerator) Err() error {
	return nil
}
