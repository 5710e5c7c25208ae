package rss

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Releases</title>
    <item>
      <title>Show.Name.S01E01.1080p.WEB-DL</title>
      <guid>abc-123</guid>
      <link>https://tracker.example/page/1</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
      <enclosure url="https://tracker.example/dl/1.torrent" length="734003200" type="application/x-bittorrent"/>
    </item>
    <item>
      <title>Another Release</title>
      <link>https://tracker.example/dl/2.torrent</link>
      <pubDate>Tue, 10 Jan 2023 08:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestParse(t *testing.T) {
	items, err := Parse(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	first := items[0]
	if first.Title != "Show.Name.S01E01.1080p.WEB-DL" {
		t.Errorf("title = %q", first.Title)
	}
	if first.GUID != "abc-123" {
		t.Errorf("guid = %q", first.GUID)
	}
	// Enclosure URL wins over the page link.
	if first.DownloadURL != "https://tracker.example/dl/1.torrent" {
		t.Errorf("download url = %q", first.DownloadURL)
	}
	if first.Size != 734003200 {
		t.Errorf("size = %d", first.Size)
	}
	want := time.Date(2006, 1, 2, 15, 4, 5, 0, time.FixedZone("", -7*3600))
	if !first.PublishDate.Equal(want) {
		t.Errorf("pubDate = %v, want %v", first.PublishDate, want)
	}

	// Missing GUID falls back to the download URL.
	second := items[1]
	if second.GUID != "https://tracker.example/dl/2.torrent" {
		t.Errorf("fallback guid = %q", second.GUID)
	}
	if second.PublishDate.IsZero() {
		t.Errorf("RFC1123 pubDate not parsed")
	}
}

func TestParseInvalidXML(t *testing.T) {
	if _, err := Parse(strings.NewReader("not xml at all")); err == nil {
		t.Fatal("Parse() expected error for invalid XML")
	}
}

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := NewClient("Mozilla/5.0 StreamCloud/1.0", slog.New(slog.NewTextHandler(os.Stderr, nil)))
	items, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	if gotUA != "Mozilla/5.0 StreamCloud/1.0" {
		t.Errorf("user agent = %q", gotUA)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("", nil)
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch() expected error on 403")
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{734003200, "700.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
