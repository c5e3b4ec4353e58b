package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "VIKEY_"

// ApplyEnv overrides settings from VIKEY_* variables
// Unparseable values are reported and leave the setting unchanged
func (c *Config) ApplyEnv() error {
	var firstErr error
	note := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if v := os.Getenv(EnvPrefix + "ESCAPE_TIMEOUT_MS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			c.Input.EscapeTimeoutMs = val
		} else {
			note(fmt.Errorf("%sESCAPE_TIMEOUT_MS: %w", EnvPrefix, err))
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "DEVICE"); ok {
		c.Input.Device = v
	}

	if v := os.Getenv(EnvPrefix + "BAUD"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			c.Input.Baud = val
		} else {
			note(fmt.Errorf("%sBAUD: %w", EnvPrefix, err))
		}
	}

	if v := os.Getenv(EnvPrefix + "RAW_MODE"); v != "" {
		c.Terminal.RawMode = v
	}

	if v := os.Getenv(EnvPrefix + "BELL"); v != "" {
		c.Bell.Mode = v
	}

	if v := os.Getenv(EnvPrefix + "DEBUG"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			c.Log.Debug = val
		} else {
			note(fmt.Errorf("%sDEBUG: %w", EnvPrefix, err))
		}
	}

	return firstErr
}
