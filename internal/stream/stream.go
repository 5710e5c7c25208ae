// Package stream resolves playback requests to files on disk: HLS manifests,
// segments, and on-demand audio conversions.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/streamcloud/streamcloud/internal/catalog"
)

var (
	// ErrNotFound indicates the requested stream artifact does not exist.
	ErrNotFound = errors.New("stream not found")

	// ErrNotStreamable indicates the asset has no HLS bundle.
	ErrNotStreamable = errors.New("asset not streamable")
)

// AudioConverter produces audio files in a target format.
type AudioConverter interface {
	ConvertAudio(ctx context.Context, src, dst, format string) error
}

// Resolver maps assets and quality choices to playable files.
type Resolver struct {
	store     *catalog.Store
	converter AudioConverter
	mediaRoot string
	flight    singleflight.Group
	log       *slog.Logger
}

// NewResolver creates a stream resolver.
func NewResolver(store *catalog.Store, converter AudioConverter, mediaRoot string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:     store,
		converter: converter,
		mediaRoot: mediaRoot,
		log:       log.With("component", "stream"),
	}
}

// MasterManifest returns the asset's top-level manifest path.
func (r *Resolver) MasterManifest(ctx context.Context, assetID string) (string, error) {
	a, err := r.store.Get(assetID)
	if err != nil {
		return "", err
	}
	if a.StreamPath == "" {
		return "", fmt.Errorf("asset %s: %w", assetID, ErrNotStreamable)
	}
	if _, err := os.Stat(a.StreamPath); err != nil {
		return "", fmt.Errorf("asset %s: %w", assetID, ErrNotFound)
	}
	return a.StreamPath, nil
}

// Variant returns the sub-manifest whose height is closest to the requested
// quality ("480p", "720p", ...). An unparsable quality or an asset with no
// renditions falls back to the master manifest.
func (r *Resolver) Variant(ctx context.Context, assetID, quality string) (string, error) {
	master, err := r.MasterManifest(ctx, assetID)
	if err != nil {
		return "", err
	}

	target, ok := parseQuality(quality)
	if !ok {
		return master, nil
	}

	hlsDir := filepath.Dir(master)
	heights, err := renditionHeights(hlsDir)
	if err != nil || len(heights) == 0 {
		return master, nil
	}

	best := closest(heights, target)
	playlist := filepath.Join(hlsDir, best, "playlist.m3u8")
	if _, err := os.Stat(playlist); err != nil {
		return master, nil
	}
	return playlist, nil
}

// parseQuality extracts the height from labels like "480p".
func parseQuality(quality string) (int, bool) {
	s := strings.TrimSuffix(strings.ToLower(quality), "p")
	h, err := strconv.Atoi(s)
	if err != nil || h <= 0 {
		return 0, false
	}
	return h, true
}

// renditionHeights lists the per-tier directories under an HLS bundle,
// keyed by their "WIDTHxHEIGHT" names.
func renditionHeights(hlsDir string) (map[string]int, error) {
	entries, err := os.ReadDir(hlsDir)
	if err != nil {
		return nil, err
	}
	heights := make(map[string]int)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		_, h, ok := strings.Cut(e.Name(), "x")
		if !ok {
			continue
		}
		height, err := strconv.Atoi(h)
		if err != nil {
			continue
		}
		heights[e.Name()] = height
	}
	return heights, nil
}

// closest picks the rendition whose height is nearest the target, preferring
// the lower rendition on a tie.
func closest(heights map[string]int, target int) string {
	var bestName string
	bestDiff, bestHeight := -1, 0
	for name, h := range heights {
		diff := h - target
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff || (diff == bestDiff && h < bestHeight) {
			bestName, bestDiff, bestHeight = name, diff, h
		}
	}
	return bestName
}

// File resolves a relative path inside an asset's HLS bundle, for serving
// segments and sub-manifests. Paths escaping the bundle are rejected.
func (r *Resolver) File(ctx context.Context, assetID, rel string) (string, error) {
	master, err := r.MasterManifest(ctx, assetID)
	if err != nil {
		return "", err
	}
	hlsDir := filepath.Dir(master)

	clean := filepath.Clean("/" + rel)
	full := filepath.Join(hlsDir, clean)
	if !strings.HasPrefix(full, hlsDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q: %w", rel, ErrNotFound)
	}
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("path %q: %w", rel, ErrNotFound)
	}
	return full, nil
}

// Audio returns a playable audio file in the requested format, converting
// and caching on first use. The original file is served when it already has
// the right format. Concurrent requests for the same conversion collapse
// into one ffmpeg run.
func (r *Resolver) Audio(ctx context.Context, assetID, format string) (string, error) {
	a, err := r.store.Get(assetID)
	if err != nil {
		return "", err
	}
	if a.Type != catalog.TypeAudio {
		return "", fmt.Errorf("asset %s is not audio: %w", assetID, ErrNotFound)
	}
	if _, err := os.Stat(a.FilePath); err != nil {
		return "", fmt.Errorf("asset %s: %w", assetID, ErrNotFound)
	}

	format = strings.ToLower(format)
	if format == "" || format == a.Format {
		return a.FilePath, nil
	}

	cached := filepath.Join(r.mediaRoot, "converted", a.ID+"."+format)
	key := cached
	_, err, _ = r.flight.Do(key, func() (any, error) {
		if _, statErr := os.Stat(cached); statErr == nil {
			return nil, nil
		}
		r.log.Info("converting audio", "asset", a.ID, "from", a.Format, "to", format)
		return nil, r.converter.ConvertAudio(ctx, a.FilePath, cached, format)
	})
	if err != nil {
		return "", err
	}
	return cached, nil
}

// mimeTypes maps file extensions to streaming content types.
var mimeTypes = map[string]string{
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".jpg":  "image/jpeg",
	".png":  "image/png",
}

// MIMEType returns the content type for a stream file, defaulting to
// application/octet-stream.
func MIMEType(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}
