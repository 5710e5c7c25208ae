package transcode

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// buildTierArgs assembles the ffmpeg argument list for one HLS tier. Bitrate
// caps follow the usual streaming ladder shape: maxrate at 107% of the target
// and a buffer of 1.5x.
func buildTierArgs(src string, tier Tier, segmentSeconds int, tierDir string) []string {
	w, h := tier.Width(), tier.Height()
	maxrate := tier.VideoBitrate * 107 / 100
	bufsize := tier.VideoBitrate * 3 / 2

	scale := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		w, h, w, h,
	)

	return []string{
		"-i", src,
		"-vf", scale,
		"-c:v", "h264",
		"-profile:v", "main",
		"-sc_threshold", "0",
		"-g", "48",
		"-keyint_min", "48",
		"-b:v", fmt.Sprintf("%dk", tier.VideoBitrate),
		"-maxrate", fmt.Sprintf("%dk", maxrate),
		"-bufsize", fmt.Sprintf("%dk", bufsize),
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", tier.AudioBitrate),
		"-ar", "48000",
		"-hls_time", strconv.Itoa(segmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(tierDir, "segment_%03d.ts"),
		filepath.Join(tierDir, PlaylistName),
	}
}

func buildThumbnailArgs(src, dst string, offsetSeconds int) []string {
	return []string{
		"-ss", strconv.Itoa(offsetSeconds),
		"-i", src,
		"-vframes", "1",
		"-vf", "scale=300:169",
		"-y",
		dst,
	}
}

func buildAudioArgs(src, dst, format string) []string {
	return []string{
		"-i", src,
		"-vn",
		"-c:a", AudioCodec(format),
		"-ar", "48000",
		"-ac", "2",
		"-y",
		dst,
	}
}
