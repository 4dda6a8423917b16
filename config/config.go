package config

import (
	"time"

	"github.com/pitabwire/frame/config"
)

// TranscriptorConfig holds configuration for the callscribe service.
type TranscriptorConfig struct {
	config.ConfigurationDefault

	WatchDir      string `envDefault:"./recordings" env:"WATCH_DIR"`
	ScanOnStart   bool   `envDefault:"true"         env:"SCAN_ON_START"`
	QueueCapacity int    `envDefault:"256"          env:"QUEUE_CAPACITY"`
	// MaxConcurrentJobs bounds how many recordings are processed at once.
	MaxConcurrentJobs int `envDefault:"2"    env:"MAX_CONCURRENT_JOBS"`
	SettleDelayMs     int `envDefault:"1000" env:"SETTLE_DELAY_MS"`

	ASRBackend      string `envDefault:"fasterwhisper"         env:"ASR_BACKEND"`
	ASRServiceURL   string `envDefault:"http://localhost:9000" env:"ASR_SERVICE_URL"`
	WhisperModel    string `envDefault:"large-v3"              env:"WHISPER_MODEL_SIZE"`
	WhisperLanguage string `envDefault:"pl"                    env:"WHISPER_LANGUAGE"`
	WhisperBeamSize int    `envDefault:"5"                     env:"WHISPER_BEAM_SIZE"`

	DiarizerBackend    string `envDefault:"pyannote"              env:"DIARIZER_BACKEND"`
	DiarizerServiceURL string `envDefault:"http://localhost:9001" env:"DIARIZER_SERVICE_URL"`
	DiarizerAuthToken  string `envDefault:""                      env:"DIARIZER_AUTH_TOKEN"`
	ExpectedSpeakers   int    `envDefault:"2"                     env:"EXPECTED_SPEAKERS"`

	// Optional YAML file overriding the built-in role classifier rules.
	ClassifierRulesPath string `envDefault:"" env:"CLASSIFIER_RULES_PATH"`

	FFmpegPath string `envDefault:"ffmpeg" env:"FFMPEG_PATH"`
}

// SettleDelay returns the watcher settle delay as a duration.
func (c *TranscriptorConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}
