// Package config manages application configuration: defaults, JSON file
// persistence, environment overrides, validation, and change notification
// for live reconfiguration of the download queue.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DownloadMode selects what the downloader fetches.
type DownloadMode string

const (
	ModeAudio      DownloadMode = "audio"
	ModeVideo      DownloadMode = "video"
	ModeAudioVideo DownloadMode = "audio-video"
)

// CoverFormat selects the embedded cover art format.
type CoverFormat string

const (
	CoverJPG  CoverFormat = "jpg"
	CoverPNG  CoverFormat = "png"
	CoverWebP CoverFormat = "webp"
)

// Limits on user-tunable values.
const (
	MinConcurrentLimit = 1
	MaxConcurrentLimit = 10
)

// Config is the full application configuration. The queue reads a fresh
// copy on every dispatch, so edits apply to jobs that have not started yet.
type Config struct {
	// Paths
	OutputPath  string `koanf:"output_path" json:"output_path"`
	TempPath    string `koanf:"temp_path" json:"temp_path"`
	CookiesPath string `koanf:"cookies_path" json:"cookies_path,omitempty"`

	// Download settings
	ITag            string       `koanf:"itag" json:"itag"`
	DownloadMode    DownloadMode `koanf:"download_mode" json:"download_mode"`
	ConcurrentLimit int          `koanf:"concurrent_limit" json:"concurrent_limit"`

	// Cover art
	SaveCover    bool        `koanf:"save_cover" json:"save_cover"`
	CoverSize    int         `koanf:"cover_size" json:"cover_size"`
	CoverFormat  CoverFormat `koanf:"cover_format" json:"cover_format"`
	CoverQuality int         `koanf:"cover_quality" json:"cover_quality"`

	// Naming templates
	TemplateFolder string `koanf:"template_folder" json:"template_folder"`
	TemplateFile   string `koanf:"template_file" json:"template_file"`
	TemplateDate   string `koanf:"template_date" json:"template_date"`

	// Advanced options
	POToken        string `koanf:"po_token" json:"po_token,omitempty"`
	ExcludeTags    string `koanf:"exclude_tags" json:"exclude_tags,omitempty"`
	Truncate       int    `koanf:"truncate" json:"truncate,omitempty"`
	Overwrite      bool   `koanf:"overwrite" json:"overwrite"`
	NoSyncedLyrics bool   `koanf:"no_synced_lyrics" json:"no_synced_lyrics"`

	// Server
	Server ServerConfig `koanf:"server" json:"server"`

	// Logging
	Log LogConfig `koanf:"log" json:"log"`
}

// ServerConfig configures the local HTTP API the frontend talks to.
type ServerConfig struct {
	Addr string `koanf:"addr" json:"addr"`
}

// LogConfig configures application logging.
type LogConfig struct {
	Level string `koanf:"level" json:"level"`
}

// Default returns the baseline configuration used when no file or
// environment overrides exist.
func Default() Config {
	return Config{
		OutputPath:      "./downloads",
		TempPath:        "./temp",
		ITag:            "141",
		DownloadMode:    ModeAudio,
		ConcurrentLimit: 3,
		SaveCover:       true,
		CoverSize:       1400,
		CoverFormat:     CoverJPG,
		CoverQuality:    95,
		TemplateFolder:  "{album_artist}/{album}",
		TemplateFile:    "{track:02d} {title}",
		TemplateDate:    "%Y-%m-%d",
		Server:          ServerConfig{Addr: "127.0.0.1:8632"},
		Log:             LogConfig{Level: "info"},
	}
}

// DefaultPath returns the per-user config file location, falling back to a
// dot directory under the working directory when the OS config dir is
// unavailable.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "grabtune", "config.json")
	}
	return filepath.Join(".grabtune", "config.json")
}

// Validate checks value ranges and makes sure the working directories exist,
// creating them when necessary.
func Validate(cfg Config) error {
	if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %q: %w", cfg.OutputPath, err)
	}
	if err := os.MkdirAll(cfg.TempPath, 0o755); err != nil {
		return fmt.Errorf("cannot create temp directory %q: %w", cfg.TempPath, err)
	}

	if cfg.CookiesPath != "" {
		if _, err := os.Stat(cfg.CookiesPath); err != nil {
			return fmt.Errorf("cookies file %q: %w", cfg.CookiesPath, err)
		}
	}

	if _, err := strconv.Atoi(cfg.ITag); err != nil {
		return fmt.Errorf("invalid itag %q: must be numeric", cfg.ITag)
	}

	switch cfg.DownloadMode {
	case ModeAudio, ModeVideo, ModeAudioVideo:
	default:
		return fmt.Errorf("invalid download mode %q", cfg.DownloadMode)
	}

	if cfg.ConcurrentLimit < MinConcurrentLimit || cfg.ConcurrentLimit > MaxConcurrentLimit {
		return fmt.Errorf("concurrent limit %d out of range %d..%d",
			cfg.ConcurrentLimit, MinConcurrentLimit, MaxConcurrentLimit)
	}

	switch cfg.CoverFormat {
	case CoverJPG, CoverPNG, CoverWebP:
	default:
		return fmt.Errorf("invalid cover format %q", cfg.CoverFormat)
	}

	if cfg.CoverQuality < 1 || cfg.CoverQuality > 100 {
		return fmt.Errorf("cover quality %d out of range 1..100", cfg.CoverQuality)
	}

	return nil
}
