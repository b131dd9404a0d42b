package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.WindowSec < 1 {
		return errors.New("transcription.window_sec must be at least 1")
	}
	if t.OverlapSec < 0 {
		return errors.New("transcription.overlap_sec must not be negative")
	}
	if t.OverlapSec >= t.WindowSec {
		return fmt.Errorf("transcription.overlap_sec (%d) must be smaller than window_sec (%d)", t.OverlapSec, t.WindowSec)
	}
	if t.Worker == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("transcription.worker is required. Set SCRIBE_WORKER env var or edit %s (create with 'scribe config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
