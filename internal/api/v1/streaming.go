package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/streamcloud/streamcloud/internal/catalog"
	"github.com/streamcloud/streamcloud/internal/stream"
)

// streamMedia serves the original media file in byte ranges. Clients must
// send a Range header; whole-file requests are refused so a misbehaving
// player cannot pin a multi-gigabyte transfer.
func (s *Server) streamMedia(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Catalog.Store().Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	f, err := os.Open(a.FilePath)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Media file missing")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "IO_ERROR", err.Error())
		return
	}
	size := info.Size()

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Accept-Ranges", "bytes")
		writeError(w, http.StatusBadRequest, "RANGE_REQUIRED", "Range header is required")
		return
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		writeError(w, http.StatusRequestedRangeNotSatisfiable, "INVALID_RANGE", err.Error())
		return
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "IO_ERROR", err.Error())
		return
	}

	w.Header().Set("Content-Type", stream.MIMEType(a.FilePath))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.WriteHeader(http.StatusPartialContent)
	_, _ = io.CopyN(w, f, end-start+1)
}

// parseRange parses a single-range "bytes=start-end" header against the
// given file size, returning inclusive offsets.
func parseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit")
	}
	// Multiple ranges are not supported; take the first.
	spec, _, _ = strings.Cut(spec, ",")
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed range %q", header)
	}

	if startStr == "" {
		// Suffix range: last N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("malformed range %q", header)
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range %q", header)
	}
	if start >= size {
		return 0, 0, fmt.Errorf("range start %d beyond size %d", start, size)
	}
	end = size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("malformed range %q", header)
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, nil
}

// hlsManifest serves the master manifest, or the closest-quality variant
// playlist when a quality parameter is present.
func (s *Server) hlsManifest(w http.ResponseWriter, r *http.Request) {
	var (
		path string
		err  error
	)
	if q := queryString(r, "quality"); q != nil {
		path, err = s.deps.Streams.Variant(r.Context(), r.PathValue("id"), *q)
	} else {
		path, err = s.deps.Streams.MasterManifest(r.Context(), r.PathValue("id"))
	}
	if err != nil {
		writeStreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", stream.MIMEType(path))
	http.ServeFile(w, r, path)
}

// hlsFile serves variant playlists and segments addressed relative to the
// asset's rendition root.
func (s *Server) hlsFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.deps.Streams.File(r.Context(), r.PathValue("id"), r.PathValue("path"))
	if err != nil {
		writeStreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", stream.MIMEType(path))
	http.ServeFile(w, r, path)
}

// streamAudio serves an audio asset, converting to the requested format on
// first access. Without a format parameter the user's preferred format
// applies.
func (s *Server) streamAudio(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		p, err := s.deps.Prefs.Get(r.Context(), userID(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
			return
		}
		format = p.PreferredAudioFormat
	}

	path, err := s.deps.Streams.Audio(r.Context(), r.PathValue("id"), format)
	if err != nil {
		writeStreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", stream.MIMEType(path))
	http.ServeFile(w, r, path)
}

func (s *Server) getThumbnail(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Catalog.Store().Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Media not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	if a.Thumbnail == "" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No thumbnail for this media")
		return
	}
	http.ServeFile(w, r, a.Thumbnail)
}

func writeStreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stream.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Stream not found")
	case errors.Is(err, stream.ErrNotStreamable):
		writeError(w, http.StatusConflict, "NOT_STREAMABLE", "Asset has no stream renditions")
	default:
		writeError(w, http.StatusInternalServerError, "STREAM_ERROR", err.Error())
	}
}
