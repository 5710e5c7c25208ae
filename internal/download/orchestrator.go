package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Quota answers how many bytes a user may download per job.
type Quota interface {
	MaxDownloadSize(ctx context.Context, userID string) (int64, error)
}

// Finalizer attaches a finished payload to its catalog asset.
type Finalizer interface {
	Finalize(ctx context.Context, mediaID, filePath string) error
}

// Notifier delivers user-facing messages about job outcomes.
type Notifier interface {
	Notify(ctx context.Context, userID, message, kind string) error
}

// Orchestrator owns the job lifecycle: submission, daemon event handling,
// cancellation, and status queries.
type Orchestrator struct {
	store       *Store
	daemon      Daemon
	quota       Quota
	finalizer   Finalizer
	notifier    Notifier
	http        *http.Client
	downloadDir string
	userAgent   string
	log         *slog.Logger

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// OrchestratorConfig wires an orchestrator's collaborators. Quota, Finalizer,
// and Notifier are optional. DownloadDir, when set, is passed to the daemon
// so payloads land where Finalize expects them.
type OrchestratorConfig struct {
	Store       *Store
	Daemon      Daemon
	Quota       Quota
	Finalizer   Finalizer
	Notifier    Notifier
	HTTPClient  *http.Client
	DownloadDir string
	UserAgent   string
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg OrchestratorConfig, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Orchestrator{
		store:       cfg.Store,
		daemon:      cfg.Daemon,
		quota:       cfg.Quota,
		finalizer:   cfg.Finalizer,
		notifier:    cfg.Notifier,
		http:        httpClient,
		downloadDir: cfg.DownloadDir,
		userAgent:   cfg.UserAgent,
		log:         log.With("component", "download"),
	}
}

// Store exposes the job store for read paths.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// Daemon exposes the daemon control surface for system endpoints.
func (o *Orchestrator) Daemon() Daemon {
	return o.daemon
}

// lock returns the per-job mutex, creating it on first use. Event handling,
// cancellation, and status updates for one job serialize on it.
func (o *Orchestrator) lock(jobID int64) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	if o.locks == nil {
		o.locks = make(map[int64]*sync.Mutex)
	}
	mu, ok := o.locks[jobID]
	if !ok {
		mu = &sync.Mutex{}
		o.locks[jobID] = mu
	}
	return mu
}

// SubmitRequest describes a new download.
type SubmitRequest struct {
	MediaID     *string
	Kind        SourceKind
	URL         string
	RequestedBy string
}

// Submit checks the user's quota, records the job, and hands the payload to
// the daemon. Acceptance binds the GID and moves the job straight to
// downloading.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("%w: url required", ErrInvalidRequest)
	}
	if !ValidSourceKind(req.Kind) {
		return nil, fmt.Errorf("%w: unknown source kind %q", ErrInvalidRequest, req.Kind)
	}

	limit := o.userLimit(ctx, req.RequestedBy)
	if err := o.checkQuota(ctx, req, limit); err != nil {
		return nil, err
	}

	j := &Job{
		MediaID:     req.MediaID,
		Status:      StatusPending,
		SourceKind:  req.Kind,
		SourceURL:   req.URL,
		RequestedBy: req.RequestedBy,
	}
	if err := o.store.Add(j); err != nil {
		return nil, err
	}

	options := map[string]string{}
	if o.downloadDir != "" {
		options["dir"] = o.downloadDir
	}
	if limit > 0 {
		options["max-download-limit"] = strconv.FormatInt(limit/1024, 10) + "K"
	}
	if o.userAgent != "" {
		options["user-agent"] = o.userAgent
	}
	gid, err := o.daemon.AddURI(ctx, []string{req.URL}, options)
	if err != nil {
		if terr := o.store.Transition(j, StatusError, err.Error()); terr != nil {
			o.log.Error("mark submit failure", "job_id", j.ID, "error", terr)
		}
		o.log.Error("submit failed", "job_id", j.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if err := o.store.SetGID(j, gid); err != nil {
		return nil, err
	}
	if err := o.store.Transition(j, StatusDownloading, ""); err != nil {
		o.log.Error("mark job downloading", "job_id", j.ID, "error", err)
	} else {
		o.notify(ctx, j.RequestedBy, fmt.Sprintf("Download started: %s", shortURL(j.SourceURL)), "info")
	}

	o.log.Info("download submitted", "job_id", j.ID, "gid", gid, "kind", req.Kind)
	return j, nil
}

// userLimit reads the user's per-job byte cap. Unknown users and read
// failures yield 0, which disables the cap.
func (o *Orchestrator) userLimit(ctx context.Context, userID string) int64 {
	if o.quota == nil {
		return 0
	}
	max, err := o.quota.MaxDownloadSize(ctx, userID)
	if err != nil {
		o.log.Debug("read download limit", "user_id", userID, "error", err)
		return 0
	}
	if max < 0 {
		return 0
	}
	return max
}

// checkQuota compares the payload size against the user's limit when the
// size can be learned cheaply. Magnet links and local files carry no
// Content-Length, and a failed probe never blocks the download.
func (o *Orchestrator) checkQuota(ctx context.Context, req SubmitRequest, max int64) error {
	if max <= 0 || req.Kind == SourceMagnet || req.Kind == SourceFile {
		return nil
	}

	size, err := o.probeSize(ctx, req.URL)
	if err != nil {
		o.log.Debug("size probe failed, skipping quota check", "url", req.URL, "error", err)
		return nil
	}
	if size > max {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrQuotaExceeded, size, max)
	}
	return nil
}

func (o *Orchestrator) probeSize(ctx context.Context, url string) (int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	if o.userAgent != "" {
		httpReq.Header.Set("User-Agent", o.userAgent)
	}
	resp, err := o.http.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if resp.ContentLength < 0 {
		return 0, errors.New("no content length")
	}
	return resp.ContentLength, nil
}

// Run consumes daemon events until the context ends or the connection drops.
// Events are handled one at a time so transitions for a job never race.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-o.daemon.Events():
			if !ok {
				return ErrDaemonUnavailable
			}
			o.handleEvent(ctx, ev)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev Event) {
	j, err := o.store.GetByGID(ev.GID)
	if err != nil {
		o.log.Debug("event for unknown gid", "gid", ev.GID, "kind", ev.Kind)
		return
	}

	mu := o.lock(j.ID)
	mu.Lock()
	defer mu.Unlock()

	// Reload under the lock; Cancel may have raced ahead of us.
	j, err = o.store.Get(j.ID)
	if err != nil {
		return
	}
	if j.Status.IsTerminal() {
		o.log.Debug("stale event for finished job", "job_id", j.ID, "kind", ev.Kind, "status", j.Status)
		return
	}

	switch ev.Kind {
	case EventStarted:
		// Submission already moved the job to downloading; a start push
		// only matters when it outruns the submit path.
		if j.Status == StatusPending {
			if err := o.store.Transition(j, StatusDownloading, ""); err != nil {
				o.log.Debug("ignore start event", "job_id", j.ID, "error", err)
			}
		}
	case EventCompleted:
		o.complete(ctx, j)
	case EventFailed:
		o.fail(ctx, j)
	}
}

func (o *Orchestrator) complete(ctx context.Context, j *Job) {
	// Jobs normally arrive here already downloading; advance stragglers
	// whose submit-time transition did not land.
	if j.Status == StatusPending {
		if err := o.store.Transition(j, StatusDownloading, ""); err != nil {
			o.log.Error("advance to downloading", "job_id", j.ID, "error", err)
			return
		}
	}

	var filePath string
	if st, err := o.daemon.TellStatus(ctx, j.GID); err == nil && len(st.Files) > 0 {
		filePath = st.Files[0]
	}

	if o.finalizer != nil && j.MediaID != nil && filePath != "" {
		if err := o.finalizer.Finalize(ctx, *j.MediaID, filePath); err != nil {
			o.log.Error("finalize downloaded asset", "job_id", j.ID, "media_id", *j.MediaID, "error", err)
			o.fail(ctx, j)
			return
		}
	}

	if err := o.store.SetProgress(j, 100); err != nil {
		o.log.Error("record completion progress", "job_id", j.ID, "error", err)
	}
	if err := o.store.Transition(j, StatusDone, ""); err != nil {
		o.log.Error("mark job done", "job_id", j.ID, "error", err)
		return
	}
	o.log.Info("download complete", "job_id", j.ID, "gid", j.GID)
	o.notify(ctx, j.RequestedBy, fmt.Sprintf("Download finished: %s", shortURL(j.SourceURL)), "success")
}

func (o *Orchestrator) fail(ctx context.Context, j *Job) {
	message := "download failed"
	if st, err := o.daemon.TellStatus(ctx, j.GID); err == nil && st.ErrorMessage != "" {
		message = st.ErrorMessage
	}
	if err := o.store.Transition(j, StatusError, message); err != nil {
		o.log.Error("mark job failed", "job_id", j.ID, "error", err)
		return
	}
	o.log.Warn("download failed", "job_id", j.ID, "gid", j.GID, "reason", message)
	o.notify(ctx, j.RequestedBy, fmt.Sprintf("Download failed: %s", shortURL(j.SourceURL)), "error")
}

func (o *Orchestrator) notify(ctx context.Context, userID, message, kind string) {
	if o.notifier == nil || userID == "" {
		return
	}
	if err := o.notifier.Notify(ctx, userID, message, kind); err != nil {
		o.log.Error("deliver notification", "user_id", userID, "error", err)
	}
}

// shortURL trims long source URLs for human-facing messages.
func shortURL(url string) string {
	if i := strings.Index(url, "?"); i > 0 {
		url = url[:i]
	}
	if len(url) > 80 {
		url = url[:77] + "..."
	}
	return url
}

// Cancel stops a job. The record moves to error immediately; removing the
// transfer from the daemon is best effort, and a late completion event for
// the removed transfer is ignored.
func (o *Orchestrator) Cancel(ctx context.Context, jobID int64, requesterID string) error {
	mu := o.lock(jobID)
	mu.Lock()
	defer mu.Unlock()

	j, err := o.store.Get(jobID)
	if err != nil {
		return err
	}
	if requesterID != "" && j.RequestedBy != requesterID {
		return fmt.Errorf("get download %d: %w", jobID, ErrNotFound)
	}
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, j.Status)
	}

	if err := o.store.Transition(j, StatusError, "canceled by user"); err != nil {
		return err
	}
	if j.GID != "" {
		if err := o.daemon.Remove(ctx, j.GID); err != nil {
			o.log.Warn("remove from daemon", "job_id", jobID, "gid", j.GID, "error", err)
		}
	}
	o.log.Info("download canceled", "job_id", jobID)
	return nil
}

// GetStatus returns the job with progress refreshed from the daemon when the
// job is still active. A failed daemon query falls back to the last stored
// progress.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID int64) (*Job, error) {
	mu := o.lock(jobID)
	mu.Lock()
	defer mu.Unlock()

	j, err := o.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	if j.Status.IsTerminal() || j.GID == "" {
		return j, nil
	}

	st, err := o.daemon.TellStatus(ctx, j.GID)
	if err != nil {
		o.log.Debug("live status unavailable, serving stored progress", "job_id", jobID, "error", err)
		return j, nil
	}
	if p := st.Progress(); p > j.Progress {
		if err := o.store.SetProgress(j, p); err != nil {
			o.log.Error("store progress", "job_id", jobID, "error", err)
		}
	}
	return j, nil
}
