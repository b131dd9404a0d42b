package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Worker = strings.TrimSpace(t.Worker)
	if t.Worker == "" {
		if value, ok := os.LookupEnv("SCRIBE_WORKER"); ok {
			t.Worker = strings.TrimSpace(value)
		}
	}
	t.Engine = strings.TrimSpace(t.Engine)
	if t.Engine == "" {
		t.Engine = defaultEngine
	}
	t.Language = strings.ToLower(strings.TrimSpace(t.Language))
	if t.Concurrency <= 0 {
		t.Concurrency = defaultConcurrency
	}
	if t.GlobalConcurrency < 0 {
		t.GlobalConcurrency = 0
	}
	if t.TimeoutSec < 0 {
		t.TimeoutSec = 0
	}
	if t.MaxRetries < 0 {
		t.MaxRetries = 0
	}
	if t.RetryBaseDelayMS <= 0 {
		t.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
	if t.ProgressIntervalSec <= 0 {
		t.ProgressIntervalSec = defaultProgressIntervalSec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
