package probe

import (
	"context"
	"errors"
	"testing"
)

const videoProbeJSON = `{
  "streams": [
    {
      "codec_type": "video",
      "codec_name": "h264",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "24000/1001"
    },
    {
      "codec_type": "audio",
      "codec_name": "aac",
      "sample_rate": "48000",
      "channels": 2
    }
  ],
  "format": {
    "duration": "5400.120000",
    "bit_rate": "4500000",
    "size": "3037584000",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "tags": {"title": "Example"}
  }
}`

const audioProbeJSON = `{
  "streams": [
    {
      "codec_type": "audio",
      "codec_name": "mp3",
      "sample_rate": "44100",
      "channels": 2
    }
  ],
  "format": {
    "duration": "213.5",
    "bit_rate": "192000",
    "size": "5124000",
    "format_name": "mp3"
  }
}`

func TestParseProbeOutput_Video(t *testing.T) {
	meta, err := parseProbeOutput([]byte(videoProbeJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if meta.Codec != "h264" {
		t.Errorf("Codec = %q, want h264", meta.Codec)
	}
	if meta.Width != 1920 || meta.Height != 1080 {
		t.Errorf("resolution = %dx%d, want 1920x1080", meta.Width, meta.Height)
	}
	if meta.Duration != 5400.12 {
		t.Errorf("Duration = %f, want 5400.12", meta.Duration)
	}
	if meta.BitRate != 4500000 {
		t.Errorf("BitRate = %d, want 4500000", meta.BitRate)
	}
	if meta.SampleRate != 48000 || meta.Channels != 2 {
		t.Errorf("audio = %d/%d, want 48000/2", meta.SampleRate, meta.Channels)
	}
	if meta.Tags["title"] != "Example" {
		t.Errorf("Tags = %v", meta.Tags)
	}
}

func TestParseProbeOutput_Audio(t *testing.T) {
	meta, err := parseProbeOutput([]byte(audioProbeJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if meta.Codec != "mp3" {
		t.Errorf("Codec = %q, want mp3", meta.Codec)
	}
	if meta.Width != 0 || meta.Height != 0 {
		t.Errorf("unexpected video dimensions: %dx%d", meta.Width, meta.Height)
	}
	if meta.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", meta.SampleRate)
	}
}

func TestParseProbeOutput_NoStreams(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{"streams": [], "format": {}}`))
	if err == nil {
		t.Fatal("expected error for empty streams")
	}
}

func TestParseProbeOutput_BadJSON(t *testing.T) {
	_, err := parseProbeOutput([]byte(`not json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestProbe_MissingFile(t *testing.T) {
	p := New("")
	_, err := p.Probe(context.Background(), "/nonexistent/video.mp4")
	if !errors.Is(err, ErrProbeFailed) {
		t.Errorf("expected ErrProbeFailed, got %v", err)
	}
}

func TestMetadataMap(t *testing.T) {
	meta, err := parseProbeOutput([]byte(videoProbeJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	m := meta.Map()
	if m["codec"] != "h264" {
		t.Errorf("codec = %v", m["codec"])
	}
	if m["width"] != 1920 {
		t.Errorf("width = %v", m["width"])
	}
	if _, ok := m["sampleRate"]; !ok {
		t.Error("sampleRate missing")
	}
}
