// Package probe extracts technical metadata from media files via ffprobe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Metadata is the technical description of a media file.
type Metadata struct {
	Duration   float64           // seconds
	BitRate    int64             // bits per second
	SizeBytes  int64
	Codec      string            // codec of the first stream
	Width      int               // 0 for audio
	Height     int               // 0 for audio
	FrameRate  string            // e.g. "24000/1001", empty for audio
	SampleRate int               // 0 for video-only
	Channels   int               // 0 for video-only
	Container  string            // format name, e.g. "mov,mp4,m4a,3gp,3g2,mj2"
	Tags       map[string]string
}

// Prober wraps the external ffprobe binary.
type Prober struct {
	binary string
}

// New creates a prober. An empty binary defaults to "ffprobe" on PATH.
func New(binary string) *Prober {
	bin := strings.TrimSpace(binary)
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{binary: bin}
}

const probeTimeout = 30 * time.Second

// Probe inspects a media file. Returns ErrProbeFailed (wrapped) if the file is
// unreadable or not a recognized media container.
func (p *Prober) Probe(ctx context.Context, filePath string) (*Metadata, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: file path is required", ErrProbeFailed)
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, probeTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrProbeFailed, err, msg)
	}

	meta, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	return meta, nil
}

// probePayload is the subset of ffprobe JSON output we parse.
type probePayload struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type probeFormat struct {
	Duration   string            `json:"duration"`
	BitRate    string            `json:"bit_rate"`
	Size       string            `json:"size"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

func parseProbeOutput(data []byte) (*Metadata, error) {
	var payload probePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if len(payload.Streams) == 0 {
		return nil, fmt.Errorf("no streams found")
	}

	meta := &Metadata{
		Container: payload.Format.FormatName,
		Tags:      payload.Format.Tags,
	}
	if meta.Tags == nil {
		meta.Tags = map[string]string{}
	}

	meta.Duration, _ = strconv.ParseFloat(payload.Format.Duration, 64)
	meta.BitRate, _ = strconv.ParseInt(payload.Format.BitRate, 10, 64)
	meta.SizeBytes, _ = strconv.ParseInt(payload.Format.Size, 10, 64)

	// First stream describes the primary track: video stream for video files,
	// the lone audio stream for audio files.
	first := payload.Streams[0]
	meta.Codec = first.CodecName

	for _, s := range payload.Streams {
		switch s.CodecType {
		case "video":
			if meta.Width == 0 {
				meta.Width = s.Width
				meta.Height = s.Height
				meta.FrameRate = s.RFrameRate
			}
		case "audio":
			if meta.SampleRate == 0 {
				meta.SampleRate, _ = strconv.Atoi(s.SampleRate)
				meta.Channels = s.Channels
			}
		}
	}

	return meta, nil
}

// Map converts metadata to a generic map for catalog storage.
func (m *Metadata) Map() map[string]any {
	out := map[string]any{
		"duration": m.Duration,
		"bitRate":  m.BitRate,
		"size":     m.SizeBytes,
		"codec":    m.Codec,
	}
	if m.Width > 0 {
		out["width"] = m.Width
		out["height"] = m.Height
	}
	if m.FrameRate != "" {
		out["fps"] = m.FrameRate
	}
	if m.SampleRate > 0 {
		out["sampleRate"] = m.SampleRate
		out["channels"] = m.Channels
	}
	if m.Container != "" {
		out["container"] = m.Container
	}
	return out
}
