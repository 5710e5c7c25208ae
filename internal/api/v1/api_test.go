package v1

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/streamcloud/streamcloud/internal/catalog"
	"github.com/streamcloud/streamcloud/internal/download"
	"github.com/streamcloud/streamcloud/internal/download/mocks"
	"github.com/streamcloud/streamcloud/internal/feed"
	"github.com/streamcloud/streamcloud/internal/migrations"
	"github.com/streamcloud/streamcloud/internal/notify"
	"github.com/streamcloud/streamcloud/internal/prefs"
	"github.com/streamcloud/streamcloud/internal/probe"
	"github.com/streamcloud/streamcloud/internal/stream"
	"github.com/streamcloud/streamcloud/internal/vault"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open db")
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err, "apply schema")
	return db
}

type fakeProber struct{}

func (fakeProber) Probe(ctx context.Context, filePath string) (*probe.Metadata, error) {
	return &probe.Metadata{
		Duration:   180,
		SizeBytes:  1024,
		Codec:      "mp3",
		SampleRate: 44100,
		Channels:   2,
		Container:  "mp3",
	}, nil
}

type fakeTranscoder struct{}

func (fakeTranscoder) Thumbnail(ctx context.Context, src, dst string) error { return nil }
func (fakeTranscoder) HLS(ctx context.Context, src, outDir string) (string, error) {
	return filepath.Join(outDir, "master.m3u8"), nil
}
func (fakeTranscoder) ConvertAudio(ctx context.Context, src, dst, format string) error {
	return os.WriteFile(dst, []byte(format), 0o644)
}

type testFixture struct {
	srv       *Server
	mux       *http.ServeMux
	daemon    *mocks.MockDaemon
	db        *sql.DB
	mediaRoot string
}

func setupFixture(t *testing.T) *testFixture {
	t.Helper()
	db := setupTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mediaRoot := t.TempDir()

	ctrl := gomock.NewController(t)
	daemon := mocks.NewMockDaemon(ctrl)

	prefsSvc := prefs.NewService(prefs.NewStore(db))
	notifySvc := notify.NewService(notify.NewStore(db), prefsSvc, log)
	catalogSvc := catalog.NewService(catalog.NewStore(db), fakeProber{}, fakeTranscoder{}, mediaRoot, log)
	orch := download.NewOrchestrator(download.OrchestratorConfig{
		Store:    download.NewStore(db),
		Daemon:   daemon,
		Quota:    prefsSvc,
		Notifier: notifySvc,
	}, log)
	resolver := stream.NewResolver(catalog.NewStore(db), fakeTranscoder{}, mediaRoot, log)
	vaultSvc := vault.NewService(vault.NewStore(db), t.TempDir(), "vault-secret", log)

	srv, err := New(ServerDeps{
		Catalog:       catalogSvc,
		Streams:       resolver,
		Downloads:     orch,
		Feeds:         feed.NewStore(db),
		Notifications: notify.NewStore(db),
		Prefs:         prefsSvc,
		Vault:         vaultSvc,
		Daemon:        daemon,
		UploadDir:     t.TempDir(),
	}, log)
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	return &testFixture{srv: srv, mux: mux, daemon: daemon, db: db, mediaRoot: mediaRoot}
}

func (f *testFixture) do(t *testing.T, method, path, user string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestMissingUserHeader(t *testing.T) {
	f := setupFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/media", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadAndGetMedia(t *testing.T) {
	f := setupFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Night Drive"))
	require.NoError(t, mw.WriteField("category", "movie"))
	require.NoError(t, mw.WriteField("genres", "electronic, ambient"))
	part, err := mw.CreateFormFile("file", "night-drive.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("audio bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", &buf)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created assetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Night Drive", created.Title)
	assert.Equal(t, "audio", created.Type)
	assert.Equal(t, []string{"electronic", "ambient"}, created.Genres)
	assert.Equal(t, "user-1", created.OwnerID)

	w = f.do(t, http.MethodGet, "/api/v1/media/"+created.ID, "user-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/media?q=night", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list listAssetsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestUpdateMediaOwnerGate(t *testing.T) {
	f := setupFixture(t)

	a := &catalog.Asset{Title: "Mine", Category: catalog.CategoryMovie, Type: catalog.TypeVideo, OwnerID: "user-1"}
	require.NoError(t, f.srv.deps.Catalog.Store().Add(a))

	newTitle := "Stolen"
	w := f.do(t, http.MethodPut, "/api/v1/media/"+a.ID, "user-2",
		jsonBody(t, updateAssetRequest{Title: &newTitle}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/media/"+a.ID, "user-1",
		jsonBody(t, updateAssetRequest{Title: &newTitle}))
	require.Equal(t, http.StatusOK, w.Code)
	var updated assetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Stolen", updated.Title)
}

func TestStreamRequiresRange(t *testing.T) {
	f := setupFixture(t)

	path := filepath.Join(f.mediaRoot, "movie.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	a := &catalog.Asset{Title: "Clip", Category: catalog.CategoryMovie, Type: catalog.TypeVideo, FilePath: path, OwnerID: "user-1"}
	require.NoError(t, f.srv.deps.Catalog.Store().Add(a))

	w := f.do(t, http.MethodGet, "/api/v1/media/"+a.ID+"/stream", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
}

func TestStreamPartialContent(t *testing.T) {
	f := setupFixture(t)

	path := filepath.Join(f.mediaRoot, "movie.mp4")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	a := &catalog.Asset{Title: "Clip", Category: catalog.CategoryMovie, Type: catalog.TypeVideo, FilePath: path, OwnerID: "user-1"}
	require.NoError(t, f.srv.deps.Catalog.Store().Add(a))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media/"+a.ID+"/stream", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Range", "bytes=2-5")
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "bytes 2-5/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, "2345", w.Body.String())

	// Range starting beyond the file is unsatisfiable.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/media/"+a.ID+"/stream", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Range", "bytes=50-60")
	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
	assert.Equal(t, "bytes */10", w.Header().Get("Content-Range"))
}

func TestHLSManifestAndSegments(t *testing.T) {
	f := setupFixture(t)

	hlsDir := filepath.Join(f.mediaRoot, "hls", "asset-1")
	require.NoError(t, os.MkdirAll(filepath.Join(hlsDir, "640x360"), 0o755))
	master := filepath.Join(hlsDir, "master.m3u8")
	require.NoError(t, os.WriteFile(master, []byte("#EXTM3U\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hlsDir, "640x360", "playlist.m3u8"), []byte("#EXTM3U\n#EXTINF\n"), 0o644))

	a := &catalog.Asset{ID: "asset-1", Title: "Show", Category: catalog.CategorySeries, Type: catalog.TypeVideo, StreamPath: master, OwnerID: "user-1"}
	require.NoError(t, f.srv.deps.Catalog.Store().Add(a))

	w := f.do(t, http.MethodGet, "/api/v1/media/asset-1/hls", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.apple.mpegurl", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "#EXTM3U")

	w = f.do(t, http.MethodGet, "/api/v1/media/asset-1/hls/640x360/playlist.m3u8", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "#EXTINF")

	// Escaping the rendition root is refused.
	w = f.do(t, http.MethodGet, "/api/v1/media/asset-1/hls/..%2F..%2Fsecret", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAndCancelDownload(t *testing.T) {
	f := setupFixture(t)

	f.daemon.EXPECT().
		AddURI(gomock.Any(), []string{"magnet:?xt=urn:btih:abc"}, gomock.Any()).
		Return("gid-1", nil)

	w := f.do(t, http.MethodPost, "/api/v1/downloads", "user-1",
		jsonBody(t, submitDownloadRequest{URL: "magnet:?xt=urn:btih:abc", Kind: "magnet"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var job jobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "downloading", job.Status)
	assert.Equal(t, "gid-1", job.GID)

	w = f.do(t, http.MethodGet, "/api/v1/downloads?active=true", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []jobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)

	f.daemon.EXPECT().Remove(gomock.Any(), "gid-1").Return(nil)
	w = f.do(t, http.MethodDelete, "/api/v1/downloads/1", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// A finished job cannot be cancelled again.
	w = f.do(t, http.MethodDelete, "/api/v1/downloads/1", "user-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Another user's job looks like it does not exist.
	w = f.do(t, http.MethodDelete, "/api/v1/downloads/1", "user-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitDownloadValidation(t *testing.T) {
	f := setupFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/downloads", "user-1",
		jsonBody(t, submitDownloadRequest{Kind: "magnet"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitDownloadQuotaRejected(t *testing.T) {
	f := setupFixture(t)

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "3221225472")
	}))
	defer origin.Close()

	w := f.do(t, http.MethodPost, "/api/v1/downloads", "user-1",
		jsonBody(t, submitDownloadRequest{URL: origin.URL + "/big.mkv", Kind: "direct"}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "QUOTA_EXCEEDED")
}

func TestFeedCRUD(t *testing.T) {
	f := setupFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/feeds", "user-1",
		jsonBody(t, feedRequest{URL: "https://example.com/rss", Label: "releases", Patterns: []string{"show name"}}))
	require.Equal(t, http.StatusCreated, w.Code)
	var created feedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Same URL again conflicts.
	w = f.do(t, http.MethodPost, "/api/v1/feeds", "user-1",
		jsonBody(t, feedRequest{URL: "https://example.com/rss"}))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPut, "/api/v1/feeds/1", "user-1",
		jsonBody(t, feedRequest{Label: "renamed"}))
	require.Equal(t, http.StatusOK, w.Code)
	var updated feedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "renamed", updated.Label)
	assert.Equal(t, []string{"show name"}, updated.Patterns)

	w = f.do(t, http.MethodDelete, "/api/v1/feeds/1", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/feeds", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []feedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestNotifications(t *testing.T) {
	f := setupFixture(t)

	n := &notify.Notification{UserID: "user-1", Message: "download complete", Type: notify.TypeSuccess}
	require.NoError(t, f.srv.deps.Notifications.Add(n))

	w := f.do(t, http.MethodGet, "/api/v1/notifications/unread-count", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread":1}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/notifications/1/read", "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Foreign notifications are invisible.
	w = f.do(t, http.MethodPost, "/api/v1/notifications/1/read", "user-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/notifications?unread=true", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []notificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestPreferences(t *testing.T) {
	f := setupFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/preferences", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p prefsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "720p", p.StreamingQuality)
	assert.Equal(t, "mp3", p.PreferredAudioFormat)

	quality := "1080p"
	w = f.do(t, http.MethodPatch, "/api/v1/preferences", "user-1",
		jsonBody(t, prefsUpdateRequest{StreamingQuality: &quality}))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "1080p", p.StreamingQuality)
	assert.Equal(t, "mp3", p.PreferredAudioFormat)

	bad := "4320p"
	w = f.do(t, http.MethodPatch, "/api/v1/preferences", "user-1",
		jsonBody(t, prefsUpdateRequest{StreamingQuality: &bad}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVaultRoundTrip(t *testing.T) {
	f := setupFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("type", "credential"))
	require.NoError(t, mw.WriteField("encrypt", "true"))
	part, err := mw.CreateFormFile("file", "api-key.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("super secret"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vault", &buf)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created vaultItemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Encrypted)
	assert.Equal(t, int64(len("super secret")), created.SizeBytes)

	w = f.do(t, http.MethodGet, "/api/v1/vault/"+created.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "super secret", w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/vault/"+created.ID, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/vault/"+created.ID, "user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSystemStatus(t *testing.T) {
	f := setupFixture(t)

	f.daemon.EXPECT().GlobalStat(gomock.Any()).
		Return(&download.GlobalStat{DownloadSpeed: 1 << 20, NumActive: 2}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/system/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "connected", resp.Daemon)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 2, resp.Stats.NumActive)
}

func TestSystemPause(t *testing.T) {
	f := setupFixture(t)

	f.daemon.EXPECT().PauseAll(gomock.Any()).Return(nil)
	w := f.do(t, http.MethodPost, "/api/v1/system/pause", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
