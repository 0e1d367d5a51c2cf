// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvCacheDir overrides the cache directory when set.
const EnvCacheDir = "FRAMEIO_CACHE_DIR"

// Config represents the full configuration for frameio.
type Config struct {
	// CacheDir holds fetched remote sources and unpacked archives.
	CacheDir string `yaml:"cache_dir"`

	// FFmpegPath overrides the capture grabber binary location.
	FFmpegPath string `yaml:"ffmpeg_path"`

	// LogLevel is one of debug, info, warn, error, quiet.
	LogLevel string `yaml:"log_level"`

	// Encoding defaults
	JPEGQuality int     `yaml:"jpeg_quality"`
	FPS         float64 `yaml:"fps"`

	// Capture
	CaptureWidth      int `yaml:"capture_width"`
	CaptureHeight     int `yaml:"capture_height"`
	CaptureIntervalMs int `yaml:"capture_interval_ms"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	cacheDir := filepath.Join(os.TempDir(), "frameio-cache")
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "frameio")
	}

	return Config{
		CacheDir:   cacheDir,
		FFmpegPath: "ffmpeg",
		LogLevel:   "info",

		JPEGQuality: 90,
		FPS:         30.0,

		CaptureWidth:      640,
		CaptureHeight:     480,
		CaptureIntervalMs: 200,
	}
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults. Environment overrides are applied last.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Load returns the defaults with environment overrides applied.
func Load() Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		c.CacheDir = dir
	}
}
