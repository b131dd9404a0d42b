package config

const (
	defaultWorkDir             = "~/.local/share/scribe/work"
	defaultLogDir              = "~/.local/share/scribe/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultWindowSec           = 600
	defaultOverlapSec          = 10
	defaultConcurrency         = 1
	defaultGlobalConcurrency   = 0
	defaultTimeoutSec          = 0
	defaultMaxRetries          = 2
	defaultRetryBaseDelayMS    = 1000
	defaultWorker              = "scribe-worker"
	defaultEngine              = "whisper"
	defaultLanguage            = "en"
	defaultProgressIntervalSec = 15
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Transcription: Transcription{
			WindowSec:           defaultWindowSec,
			OverlapSec:          defaultOverlapSec,
			Concurrency:         defaultConcurrency,
			GlobalConcurrency:   defaultGlobalConcurrency,
			TimeoutSec:          defaultTimeoutSec,
			MaxRetries:          defaultMaxRetries,
			RetryBaseDelayMS:    defaultRetryBaseDelayMS,
			Worker:              defaultWorker,
			Engine:              defaultEngine,
			Language:            defaultLanguage,
			ProgressIntervalSec: defaultProgressIntervalSec,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
