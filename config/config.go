// Package config loads vikey settings from a TOML file with environment overrides
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/lixenwraith/vikey/audio"
	"github.com/lixenwraith/vikey/terminal"
)

// Config is the full settings tree
type Config struct {
	Input    InputConfig    `toml:"input"`
	Terminal TerminalConfig `toml:"terminal"`
	Bell     BellConfig     `toml:"bell"`
	Log      LogConfig      `toml:"log"`
}

// InputConfig controls the key decoder and its byte source
type InputConfig struct {
	EscapeTimeoutMs int    `toml:"escape_timeout_ms"`
	AltEditing      bool   `toml:"alt_editing"`
	AltWordJumps    bool   `toml:"alt_word_jumps"`
	CursorReports   bool   `toml:"cursor_reports"`
	Device          string `toml:"device"`
	Baud            int    `toml:"baud"`

	// Sequences maps extra escape sequences (bytes after ESC) to key names,
	// e.g. "[1;2C" = "right" to report Shift-Right as Right
	Sequences map[string]string `toml:"sequences,omitempty"`
}

// TerminalConfig controls terminal setup
type TerminalConfig struct {
	RawMode   string `toml:"raw_mode"`
	AskSize   bool   `toml:"ask_size"`
	AltScreen bool   `toml:"alt_screen"`
}

// BellConfig controls the bell
type BellConfig struct {
	Mode        string  `toml:"mode"`
	FrequencyHz float64 `toml:"frequency_hz"`
	DurationMs  int     `toml:"duration_ms"`
}

// LogConfig controls debug logging
type LogConfig struct {
	Debug bool   `toml:"debug"`
	Dir   string `toml:"dir"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Input: InputConfig{
			EscapeTimeoutMs: 50,
			AltEditing:      true,
			AltWordJumps:    true,
			CursorReports:   true,
			Baud:            115200,
		},
		Terminal: TerminalConfig{
			RawMode: "cbreak",
			AskSize: true,
		},
		Bell: BellConfig{
			Mode:        audio.ModeTerminal,
			FrequencyHz: audio.DefaultFrequency,
			DurationMs:  int(audio.DefaultDuration / time.Millisecond),
		},
		Log: LogConfig{
			Dir: "logs",
		},
	}
}

// Load reads path over the defaults
// A missing file yields the defaults; keys absent from the file keep their default
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg, rejecting unknown keys
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return err
	}
	return nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	var errs []error
	if c.Input.EscapeTimeoutMs < 1 || c.Input.EscapeTimeoutMs > 10000 {
		errs = append(errs, fmt.Errorf("input.escape_timeout_ms %d out of range 1..10000", c.Input.EscapeTimeoutMs))
	}
	if _, err := c.extraSequences(); err != nil {
		errs = append(errs, err)
	}
	if c.Input.Baud < 0 {
		errs = append(errs, fmt.Errorf("input.baud %d is negative", c.Input.Baud))
	}
	if _, err := terminal.ParseRawMode(c.Terminal.RawMode); err != nil {
		errs = append(errs, fmt.Errorf("terminal.raw_mode: %w", err))
	}
	if _, err := audio.ParseMode(c.Bell.Mode); err != nil {
		errs = append(errs, fmt.Errorf("bell.mode: %w", err))
	}
	if c.Bell.FrequencyHz < 20 || c.Bell.FrequencyHz > 20000 {
		errs = append(errs, fmt.Errorf("bell.frequency_hz %g out of range 20..20000", c.Bell.FrequencyHz))
	}
	if c.Bell.DurationMs < 1 || c.Bell.DurationMs > 5000 {
		errs = append(errs, fmt.Errorf("bell.duration_ms %d out of range 1..5000", c.Bell.DurationMs))
	}
	return errors.Join(errs...)
}

// DecoderOptions converts the input section for terminal.NewDecoder
func (c *Config) DecoderOptions() terminal.DecoderOptions {
	var sets terminal.MappingSet
	if c.Input.AltEditing {
		sets |= terminal.MapAltEditing
	}
	if c.Input.AltWordJumps {
		sets |= terminal.MapAltWordJumps
	}
	extra, _ := c.extraSequences()
	return terminal.DecoderOptions{
		Mappings:      sets,
		Extra:         extra,
		CursorReports: c.Input.CursorReports,
		EscapeTimeout: time.Duration(c.Input.EscapeTimeoutMs) * time.Millisecond,
	}
}

// extraSequences resolves input.sequences, ordered by sequence for a stable table
func (c *Config) extraSequences() ([]terminal.Sequence, error) {
	if len(c.Input.Sequences) == 0 {
		return nil, nil
	}
	seqs := make([]string, 0, len(c.Input.Sequences))
	for seq := range c.Input.Sequences {
		seqs = append(seqs, seq)
	}
	sort.Strings(seqs)

	extra := make([]terminal.Sequence, 0, len(seqs))
	for _, seq := range seqs {
		name := c.Input.Sequences[seq]
		code, ok := terminal.KeyByName(name)
		if !ok || code == terminal.KeyCursorPos {
			return nil, fmt.Errorf("input.sequences: %q maps to unknown key %q", seq, name)
		}
		if seq == "" || len(seq) >= terminal.KeyBufferSize {
			return nil, fmt.Errorf("input.sequences: %q must be 1..%d bytes", seq, terminal.KeyBufferSize-1)
		}
		extra = append(extra, terminal.Sequence{Bytes: []byte(seq), Code: code})
	}
	return extra, nil
}

// RawMode returns the parsed terminal.raw_mode, cbreak if invalid
func (c *Config) RawMode() terminal.RawMode {
	m, _ := terminal.ParseRawMode(c.Terminal.RawMode)
	return m
}

// BellConfig converts the bell section for audio.BellService
func (c *Config) BellConfig() audio.BellConfig {
	mode, err := audio.ParseMode(c.Bell.Mode)
	if err != nil {
		mode = audio.ModeTerminal
	}
	return audio.BellConfig{
		Mode:      mode,
		Frequency: c.Bell.FrequencyHz,
		Duration:  time.Duration(c.Bell.DurationMs) * time.Millisecond,
	}
}

// Marshal renders c as TOML
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
