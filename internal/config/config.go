// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Storage   StorageConfig   `toml:"storage"`
	Aria2     Aria2Config     `toml:"aria2"`
	Transcode TranscodeConfig `toml:"transcode"`
	Feeds     FeedsConfig     `toml:"feeds"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type StorageConfig struct {
	MediaRoot   string `toml:"media_root"`
	VaultRoot   string `toml:"vault_root"`
	VaultSecret string `toml:"vault_secret"`
}

type Aria2Config struct {
	URL       string `toml:"url"`
	Secret    string `toml:"secret"`
	UserAgent string `toml:"user_agent"`
}

type TranscodeConfig struct {
	FFmpeg          string       `toml:"ffmpeg"`
	FFprobe         string       `toml:"ffprobe"`
	SegmentSeconds  int          `toml:"segment_seconds"`
	ThumbnailOffset int          `toml:"thumbnail_offset"`
	Tiers           []TierConfig `toml:"tiers"`
}

// TierConfig overrides one quality tier. Bitrates are in kbit/s.
type TierConfig struct {
	Resolution   string `toml:"resolution"`
	VideoBitrate int    `toml:"video_bitrate"`
	AudioBitrate int    `toml:"audio_bitrate"`
}

type FeedsConfig struct {
	PollInterval time.Duration `toml:"poll_interval"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8484
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/streamcloud.db"
	}
	if cfg.Storage.MediaRoot == "" {
		cfg.Storage.MediaRoot = "./uploads/media"
	}
	if cfg.Storage.VaultRoot == "" {
		cfg.Storage.VaultRoot = "./uploads/vault"
	}
	if cfg.Aria2.URL == "" {
		cfg.Aria2.URL = "ws://localhost:6800/jsonrpc"
	}
	if cfg.Aria2.UserAgent == "" {
		cfg.Aria2.UserAgent = "Mozilla/5.0 StreamCloud/1.0"
	}
	if cfg.Transcode.FFmpeg == "" {
		cfg.Transcode.FFmpeg = "ffmpeg"
	}
	if cfg.Transcode.FFprobe == "" {
		cfg.Transcode.FFprobe = "ffprobe"
	}
	if cfg.Transcode.SegmentSeconds == 0 {
		cfg.Transcode.SegmentSeconds = 10
	}
	if cfg.Transcode.ThumbnailOffset == 0 {
		cfg.Transcode.ThumbnailOffset = 2
	}
	if cfg.Feeds.PollInterval == 0 {
		cfg.Feeds.PollInterval = 15 * time.Minute
	}

	return &cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match
	})
}
