// Package config provides configuration loading from environment
// variables. All settings carry defaults; the agent runs with no
// environment at all.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	// DBFilename is the SQLite database filename under the data dir.
	DBFilename = "cutroom.db"

	defaultDataDirName = ".cutroom"
)

// Config holds all configuration for the agent.
type Config struct {
	// Server settings. The bridge only ever binds loopback.
	Port int `env:"CUTROOM_PORT, default=8791" json:"port"`

	// Logging settings
	LogLevel  string `env:"CUTROOM_LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
	LogFormat string `env:"CUTROOM_LOG_FORMAT, default=json" json:"log_format"` // "json" or "text"

	// Storage settings. Empty DataDir resolves to ~/.cutroom.
	DataDir string `env:"CUTROOM_DATA_DIR" json:"data_dir"`

	// Media toolchain settings
	FFmpegPath  string        `env:"CUTROOM_FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath string        `env:"CUTROOM_FFPROBE_PATH" json:"ffprobe_path,omitempty"`
	ToolTimeout time.Duration `env:"CUTROOM_TOOL_TIMEOUT, default=10m" json:"tool_timeout"`

	// Silence detection settings
	SilenceNoiseDb float64 `env:"CUTROOM_SILENCE_NOISE_DB, default=-35" json:"silence_noise_db"`

	// Transcription settings
	TranscribeAPIKey string `env:"CUTROOM_TRANSCRIBE_API_KEY" json:"-"` // Masked in JSON
	TranscribeAPIURL string `env:"CUTROOM_TRANSCRIBE_API_URL" json:"transcribe_api_url,omitempty"`
	TranscribeModel  string `env:"CUTROOM_TRANSCRIBE_MODEL, default=whisper-1" json:"transcribe_model"`

	// Headless disables the system tray; used on CI and servers.
	Headless bool `env:"CUTROOM_HEADLESS, default=false" json:"headless"`
}

// Load reads configuration from environment variables using go-envconfig
// and resolves the data directory.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: port must be between 1 and 65535, got %d", cfg.Port)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}

	return cfg, nil
}

// DBPath returns the full path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFilename)
}

// ArtifactsDir returns where generated artifacts (subtitles, extracted
// audio) land.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.DataDir, "artifacts")
}

// ThumbnailsDir returns where asset thumbnails land.
func (c *Config) ThumbnailsDir() string {
	return filepath.Join(c.DataDir, "thumbnails")
}

// ProjectsDir returns the default directory for saved project files.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.DataDir, "projects")
}

// EnsureDirs creates the data directory tree.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.ArtifactsDir(), c.ThumbnailsDir(), c.ProjectsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: cannot create %s: %w", dir, err)
		}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirName
	}
	return filepath.Join(home, defaultDataDirName)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
