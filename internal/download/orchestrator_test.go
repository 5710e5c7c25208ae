package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
)

// fakeDaemon is a scriptable Daemon for orchestrator tests.
type fakeDaemon struct {
	addGID    string
	addErr    error
	addCalls  int
	lastURIs  []string
	lastOpts  map[string]string
	status    *DaemonStatus
	statusErr error
	removed   []string
	events    chan Event
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{addGID: "gid-1", events: make(chan Event, 8)}
}

func (f *fakeDaemon) AddURI(_ context.Context, uris []string, opts map[string]string) (string, error) {
	f.addCalls++
	f.lastURIs = uris
	f.lastOpts = opts
	return f.addGID, f.addErr
}

func (f *fakeDaemon) TellStatus(_ context.Context, gid string) (*DaemonStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeDaemon) Remove(_ context.Context, gid string) error {
	f.removed = append(f.removed, gid)
	return nil
}

func (f *fakeDaemon) GlobalStat(context.Context) (*GlobalStat, error) { return &GlobalStat{}, nil }
func (f *fakeDaemon) PauseAll(context.Context) error                  { return nil }
func (f *fakeDaemon) UnpauseAll(context.Context) error                { return nil }
func (f *fakeDaemon) PurgeResults(context.Context) error              { return nil }
func (f *fakeDaemon) Events() <-chan Event                            { return f.events }

type fakeQuota struct {
	max int64
}

func (f *fakeQuota) MaxDownloadSize(context.Context, string) (int64, error) {
	return f.max, nil
}

type fakeFinalizer struct {
	calls  []string
	err    error
}

func (f *fakeFinalizer) Finalize(_ context.Context, mediaID, filePath string) error {
	f.calls = append(f.calls, mediaID+":"+filePath)
	return f.err
}

type fakeNotifier struct {
	messages []string
	kinds    []string
}

func (f *fakeNotifier) Notify(_ context.Context, _, message, kind string) error {
	f.messages = append(f.messages, message)
	f.kinds = append(f.kinds, kind)
	return nil
}

type orchFixture struct {
	orch      *Orchestrator
	daemon    *fakeDaemon
	finalizer *fakeFinalizer
	notifier  *fakeNotifier
	store     *Store
}

func newOrchestrator(t *testing.T, quota Quota) *orchFixture {
	t.Helper()
	f := &orchFixture{
		daemon:    newFakeDaemon(),
		finalizer: &fakeFinalizer{},
		notifier:  &fakeNotifier{},
		store:     NewStore(setupTestDB(t)),
	}
	f.orch = NewOrchestrator(OrchestratorConfig{
		Store:       f.store,
		Daemon:      f.daemon,
		Quota:       quota,
		Finalizer:   f.finalizer,
		Notifier:    f.notifier,
		DownloadDir: "/srv/media",
		UserAgent:   "Mozilla/5.0 StreamCloud/1.0",
	}, testLogger())
	return f
}

func TestSubmit(t *testing.T) {
	f := newOrchestrator(t, nil)

	j, err := f.orch.Submit(context.Background(), SubmitRequest{
		Kind:        SourceDirect,
		URL:         "https://example.com/file.mkv",
		RequestedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if j.Status != StatusDownloading || j.GID != "gid-1" {
		t.Errorf("job = %s / gid %q", j.Status, j.GID)
	}
	if f.daemon.lastOpts["user-agent"] != "Mozilla/5.0 StreamCloud/1.0" {
		t.Errorf("user agent not passed: %v", f.daemon.lastOpts)
	}
	if f.daemon.lastOpts["dir"] != "/srv/media" {
		t.Errorf("download dir not passed: %v", f.daemon.lastOpts)
	}
	if want := []string{"info"}; !reflect.DeepEqual(f.notifier.kinds, want) {
		t.Errorf("notifications = %v, want %v", f.notifier.kinds, want)
	}
}

func TestSubmitPassesSizeCap(t *testing.T) {
	f := newOrchestrator(t, &fakeQuota{max: 2 << 30})

	_, err := f.orch.Submit(context.Background(), SubmitRequest{
		Kind: SourceMagnet, URL: "magnet:?xt=urn:btih:abc", RequestedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got := f.daemon.lastOpts["max-download-limit"]; got != "2097152K" {
		t.Errorf("max-download-limit = %q, want 2097152K", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newOrchestrator(t, nil)

	_, err := f.orch.Submit(context.Background(), SubmitRequest{Kind: SourceDirect, URL: ""})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("empty url error = %v, want ErrInvalidRequest", err)
	}
	_, err = f.orch.Submit(context.Background(), SubmitRequest{Kind: "carrier-pigeon", URL: "x"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("bad kind error = %v, want ErrInvalidRequest", err)
	}
}

func TestSubmitDaemonRejection(t *testing.T) {
	f := newOrchestrator(t, nil)
	f.daemon.addErr = errors.New("daemon says no")

	_, err := f.orch.Submit(context.Background(), SubmitRequest{
		Kind: SourceDirect, URL: "https://example.com/x", RequestedBy: "user-1",
	})
	if !errors.Is(err, ErrSubmitFailed) {
		t.Fatalf("Submit() error = %v, want ErrSubmitFailed", err)
	}

	// The record stays behind in error state.
	jobs, _ := f.store.List(JobFilter{})
	if len(jobs) != 1 || jobs[0].Status != StatusError {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestSubmitQuotaExceeded(t *testing.T) {
	// 3 GiB payload against a 2 GiB limit.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.FormatInt(3<<30, 10))
	}))
	defer srv.Close()

	f := newOrchestrator(t, &fakeQuota{max: 2 << 30})

	_, err := f.orch.Submit(context.Background(), SubmitRequest{
		Kind: SourceDirect, URL: srv.URL + "/big.mkv", RequestedBy: "user-1",
	})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Submit() error = %v, want ErrQuotaExceeded", err)
	}
	if f.daemon.addCalls != 0 {
		t.Errorf("payload reached the daemon despite quota rejection")
	}
}

func TestSubmitQuotaSkippedForMagnets(t *testing.T) {
	f := newOrchestrator(t, &fakeQuota{max: 1})

	_, err := f.orch.Submit(context.Background(), SubmitRequest{
		Kind: SourceMagnet, URL: "magnet:?xt=urn:btih:abc", RequestedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

func TestSubmitQuotaProbeFailureNotFatal(t *testing.T) {
	f := newOrchestrator(t, &fakeQuota{max: 2 << 30})

	// Unreachable host: the size check fails, the download proceeds.
	_, err := f.orch.Submit(context.Background(), SubmitRequest{
		Kind: SourceDirect, URL: "http://127.0.0.1:1/file.mkv", RequestedBy: "user-1",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if f.daemon.addCalls != 1 {
		t.Errorf("download never submitted")
	}
}

func submitJob(t *testing.T, f *orchFixture) *Job {
	t.Helper()
	mediaID := "asset-1"
	j, err := f.orch.Submit(context.Background(), SubmitRequest{
		MediaID: &mediaID, Kind: SourceDirect,
		URL: "https://example.com/file.mkv", RequestedBy: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return j
}

func TestEventLifecycle(t *testing.T) {
	f := newOrchestrator(t, nil)
	j := submitJob(t, f)
	ctx := context.Background()

	f.orch.handleEvent(ctx, Event{Kind: EventStarted, GID: j.GID})
	got, _ := f.store.Get(j.ID)
	if got.Status != StatusDownloading {
		t.Fatalf("after start: %s, want downloading", got.Status)
	}

	f.daemon.status = &DaemonStatus{GID: j.GID, Status: "complete", Files: []string{"/downloads/file.mkv"}}
	f.orch.handleEvent(ctx, Event{Kind: EventCompleted, GID: j.GID})

	got, _ = f.store.Get(j.ID)
	if got.Status != StatusDone || got.Progress != 100 {
		t.Errorf("after complete: %s / %v", got.Status, got.Progress)
	}
	if len(f.finalizer.calls) != 1 || f.finalizer.calls[0] != "asset-1:/downloads/file.mkv" {
		t.Errorf("finalizer calls = %v", f.finalizer.calls)
	}
	if want := []string{"info", "success"}; !reflect.DeepEqual(f.notifier.kinds, want) {
		t.Errorf("notifications = %v, want %v", f.notifier.kinds, want)
	}
}

func TestEventFailure(t *testing.T) {
	f := newOrchestrator(t, nil)
	j := submitJob(t, f)
	ctx := context.Background()

	f.orch.handleEvent(ctx, Event{Kind: EventStarted, GID: j.GID})
	f.daemon.status = &DaemonStatus{GID: j.GID, Status: "error", ErrorMessage: "tracker timeout"}
	f.orch.handleEvent(ctx, Event{Kind: EventFailed, GID: j.GID})

	got, _ := f.store.Get(j.ID)
	if got.Status != StatusError || got.Error != "tracker timeout" {
		t.Errorf("after failure: %s / %q", got.Status, got.Error)
	}
	if want := []string{"info", "error"}; !reflect.DeepEqual(f.notifier.kinds, want) {
		t.Errorf("notifications = %v, want %v", f.notifier.kinds, want)
	}
}

func TestEventCompleteBeforeStart(t *testing.T) {
	f := newOrchestrator(t, nil)
	j := submitJob(t, f)

	f.daemon.status = &DaemonStatus{GID: j.GID, Status: "complete", Files: []string{"/downloads/tiny.txt"}}
	f.orch.handleEvent(context.Background(), Event{Kind: EventCompleted, GID: j.GID})

	got, _ := f.store.Get(j.ID)
	if got.Status != StatusDone {
		t.Errorf("status = %s, want done", got.Status)
	}
}

func TestCancelThenLateCompletion(t *testing.T) {
	f := newOrchestrator(t, nil)
	j := submitJob(t, f)
	ctx := context.Background()

	f.orch.handleEvent(ctx, Event{Kind: EventStarted, GID: j.GID})
	if err := f.orch.Cancel(ctx, j.ID, "user-1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if len(f.daemon.removed) != 1 || f.daemon.removed[0] != j.GID {
		t.Errorf("daemon.Remove not called: %v", f.daemon.removed)
	}

	// The daemon had already finished; its stale completion must not
	// resurrect the canceled job.
	f.daemon.status = &DaemonStatus{GID: j.GID, Status: "complete", Files: []string{"/downloads/file.mkv"}}
	f.orch.handleEvent(ctx, Event{Kind: EventCompleted, GID: j.GID})

	got, _ := f.store.Get(j.ID)
	if got.Status != StatusError || got.Error != "canceled by user" {
		t.Errorf("after stale completion: %s / %q", got.Status, got.Error)
	}
	if len(f.finalizer.calls) != 0 {
		t.Errorf("finalizer ran for canceled job")
	}
}

func TestCancelGuards(t *testing.T) {
	f := newOrchestrator(t, nil)
	j := submitJob(t, f)
	ctx := context.Background()

	if err := f.orch.Cancel(ctx, j.ID, "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign cancel error = %v, want ErrNotFound", err)
	}
	if err := f.orch.Cancel(ctx, 9999, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing job cancel error = %v, want ErrNotFound", err)
	}

	if err := f.orch.Cancel(ctx, j.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := f.orch.Cancel(ctx, j.ID, "user-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double cancel error = %v, want ErrInvalidTransition", err)
	}
}

func TestFinalizeFailureFailsJob(t *testing.T) {
	f := newOrchestrator(t, nil)
	f.finalizer.err = errors.New("probe failed")
	j := submitJob(t, f)
	ctx := context.Background()

	f.orch.handleEvent(ctx, Event{Kind: EventStarted, GID: j.GID})
	f.daemon.status = &DaemonStatus{GID: j.GID, Status: "complete", Files: []string{"/downloads/corrupt.bin"}}
	f.orch.handleEvent(ctx, Event{Kind: EventCompleted, GID: j.GID})

	got, _ := f.store.Get(j.ID)
	if got.Status != StatusError {
		t.Errorf("status = %s, want error after finalize failure", got.Status)
	}
}

func TestGetStatusLiveProgress(t *testing.T) {
	f := newOrchestrator(t, nil)
	j := submitJob(t, f)
	ctx := context.Background()
	f.orch.handleEvent(ctx, Event{Kind: EventStarted, GID: j.GID})

	f.daemon.status = &DaemonStatus{GID: j.GID, Status: "active", TotalLength: 1000, CompletedLength: 425}
	got, err := f.orch.GetStatus(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if got.Progress != 42.5 {
		t.Errorf("progress = %v, want 42.5", got.Progress)
	}

	// Daemon query failure serves the stored value unchanged.
	f.daemon.statusErr = errors.New("connection lost")
	got, err = f.orch.GetStatus(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if got.Progress != 42.5 {
		t.Errorf("stale progress = %v, want 42.5", got.Progress)
	}
}
