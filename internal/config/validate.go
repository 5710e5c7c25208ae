package config

import (
	"fmt"
	"regexp"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var resolutionPattern = regexp.MustCompile(`^\d+x\d+$`)

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Storage.MediaRoot == "" {
		errs = append(errs, "storage.media_root: required")
	}

	if c.Aria2.URL == "" {
		errs = append(errs, "aria2.url: required")
	}

	if c.Transcode.SegmentSeconds < 0 {
		errs = append(errs, fmt.Sprintf("transcode.segment_seconds: must be positive, got %d", c.Transcode.SegmentSeconds))
	}
	for i, tier := range c.Transcode.Tiers {
		if !resolutionPattern.MatchString(tier.Resolution) {
			errs = append(errs, fmt.Sprintf("transcode.tiers[%d].resolution: must match WIDTHxHEIGHT, got %q", i, tier.Resolution))
		}
		if tier.VideoBitrate <= 0 {
			errs = append(errs, fmt.Sprintf("transcode.tiers[%d].video_bitrate: must be positive", i))
		}
		if tier.AudioBitrate <= 0 {
			errs = append(errs, fmt.Sprintf("transcode.tiers[%d].audio_bitrate: must be positive", i))
		}
	}

	if c.Feeds.PollInterval < 0 {
		errs = append(errs, "feeds.poll_interval: must be positive")
	}

	return errs
}
