// Package transcode produces thumbnails, adaptive HLS rendition sets, and
// audio format conversions by driving the external ffmpeg binary.
package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Tier is one quality rung of the adaptive ladder. Bitrates are in kbit/s.
type Tier struct {
	Resolution   string // "WIDTHxHEIGHT"
	VideoBitrate int
	AudioBitrate int
}

// Width returns the horizontal pixel count of the tier, or 0 if malformed.
func (t Tier) Width() int {
	w, _, ok := strings.Cut(t.Resolution, "x")
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(w)
	return n
}

// Height returns the vertical pixel count of the tier, or 0 if malformed.
func (t Tier) Height() int {
	_, h, ok := strings.Cut(t.Resolution, "x")
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(h)
	return n
}

// Bandwidth is the manifest bandwidth estimate in bits per second.
func (t Tier) Bandwidth() int {
	return t.VideoBitrate * 1000
}

// DefaultTiers is the standard four-rung ladder from 1080p down to 360p.
func DefaultTiers() []Tier {
	return []Tier{
		{Resolution: "1920x1080", VideoBitrate: 4000, AudioBitrate: 192},
		{Resolution: "1280x720", VideoBitrate: 2800, AudioBitrate: 128},
		{Resolution: "854x480", VideoBitrate: 1400, AudioBitrate: 128},
		{Resolution: "640x360", VideoBitrate: 800, AudioBitrate: 96},
	}
}

const (
	// PlaylistName is the per-tier sub-manifest filename.
	PlaylistName = "playlist.m3u8"
	// MasterName is the top-level manifest filename.
	MasterName = "master.m3u8"
)

// Runner executes an external command. Swapped for a fake in tests.
type Runner interface {
	Run(ctx context.Context, name string, args []string) error
}

// Engine drives ffmpeg to produce derived artifacts.
type Engine struct {
	ffmpeg          string
	tiers           []Tier
	segmentSeconds  int
	thumbnailOffset int
	runner          Runner
	flight          singleflight.Group
	log             *slog.Logger
}

// Config for the engine. Zero values fall back to defaults.
type Config struct {
	FFmpeg          string
	Tiers           []Tier
	SegmentSeconds  int
	ThumbnailOffset int
	Runner          Runner // nil uses the real ffmpeg binary
}

// New creates a transcode engine.
func New(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		ffmpeg:          cfg.FFmpeg,
		tiers:           cfg.Tiers,
		segmentSeconds:  cfg.SegmentSeconds,
		thumbnailOffset: cfg.ThumbnailOffset,
		runner:          cfg.Runner,
		log:             log.With("component", "transcode"),
	}
	if e.ffmpeg == "" {
		e.ffmpeg = "ffmpeg"
	}
	if len(e.tiers) == 0 {
		e.tiers = DefaultTiers()
	}
	if e.segmentSeconds == 0 {
		e.segmentSeconds = 10
	}
	if e.thumbnailOffset == 0 {
		e.thumbnailOffset = 2
	}
	if e.runner == nil {
		e.runner = execRunner{}
	}
	return e
}

// Tiers returns the configured quality ladder.
func (e *Engine) Tiers() []Tier {
	return e.tiers
}

// Thumbnail extracts a single frame at the configured offset, scaled to 300x169.
func (e *Engine) Thumbnail(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: create thumbnail dir: %v", ErrTranscodeFailed, err)
	}
	args := buildThumbnailArgs(src, dst, e.thumbnailOffset)
	if err := e.runner.Run(ctx, e.ffmpeg, args); err != nil {
		return fmt.Errorf("%w: thumbnail: %v", ErrTranscodeFailed, err)
	}
	return nil
}

// HLS produces one segmented rendition per configured tier under outDir, then
// writes the top-level manifest. Tiers run concurrently; any tier failure
// removes outDir entirely and no master manifest is written.
// Concurrent calls for the same outDir are collapsed into one invocation.
func (e *Engine) HLS(ctx context.Context, src, outDir string) (string, error) {
	v, err, _ := e.flight.Do(outDir, func() (any, error) {
		return e.generateHLS(ctx, src, outDir)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (e *Engine) generateHLS(ctx context.Context, src, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", ErrTranscodeFailed, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, tier := range e.tiers {
		g.Go(func() error {
			tierDir := filepath.Join(outDir, tier.Resolution)
			if err := os.MkdirAll(tierDir, 0755); err != nil {
				return fmt.Errorf("create tier dir %s: %w", tier.Resolution, err)
			}
			args := buildTierArgs(src, tier, e.segmentSeconds, tierDir)
			if err := e.runner.Run(ctx, e.ffmpeg, args); err != nil {
				return fmt.Errorf("encode tier %s: %w", tier.Resolution, err)
			}
			e.log.Debug("tier complete", "tier", tier.Resolution, "source", src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// No partial rendition sets: remove everything written so far.
		if rmErr := os.RemoveAll(outDir); rmErr != nil {
			e.log.Error("cleanup after failed transcode", "dir", outDir, "error", rmErr)
		}
		return "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	masterPath := filepath.Join(outDir, MasterName)
	if err := os.WriteFile(masterPath, []byte(masterManifest(e.tiers)), 0644); err != nil {
		if rmErr := os.RemoveAll(outDir); rmErr != nil {
			e.log.Error("cleanup after failed manifest write", "dir", outDir, "error", rmErr)
		}
		return "", fmt.Errorf("%w: write master manifest: %v", ErrTranscodeFailed, err)
	}

	e.log.Info("hls bundle complete", "source", src, "tiers", len(e.tiers), "master", masterPath)
	return masterPath, nil
}

// audioCodecs maps target container format to ffmpeg encoder.
var audioCodecs = map[string]string{
	"mp3":  "libmp3lame",
	"aac":  "aac",
	"flac": "flac",
	"wav":  "pcm_s16le",
}

// AudioCodec returns the encoder for a target format, defaulting to mp3.
func AudioCodec(format string) string {
	if codec, ok := audioCodecs[strings.ToLower(format)]; ok {
		return codec
	}
	return "libmp3lame"
}

// ConvertAudio transcodes an audio file to the target format.
func (e *Engine) ConvertAudio(ctx context.Context, src, dst, format string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: create output dir: %v", ErrTranscodeFailed, err)
	}
	args := buildAudioArgs(src, dst, format)
	if err := e.runner.Run(ctx, e.ffmpeg, args); err != nil {
		// Remove any partial output.
		_ = os.Remove(dst)
		return fmt.Errorf("%w: audio conversion: %v", ErrTranscodeFailed, err)
	}
	return nil
}

// masterManifest renders the top-level manifest referencing each tier's
// sub-manifest with its bandwidth estimate and resolution.
func masterManifest(tiers []Tier) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, t := range tiers {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n", t.Bandwidth(), t.Resolution)
		b.WriteString(t.Resolution + "/" + PlaylistName + "\n")
	}
	return b.String()
}
