package feed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/streamcloud/streamcloud/internal/catalog"
	"github.com/streamcloud/streamcloud/internal/download"
	"github.com/streamcloud/streamcloud/pkg/rss"
	"github.com/streamcloud/streamcloud/pkg/title"
)

// Fetcher retrieves feed contents.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]rss.Item, error)
}

// Submitter hands new payloads to the download pipeline.
type Submitter interface {
	Submit(ctx context.Context, req download.SubmitRequest) (*download.Job, error)
}

// StubCreator records placeholder assets for incoming content.
type StubCreator interface {
	CreateStub(ctx context.Context, assetTitle, ownerID string) (*catalog.Asset, error)
}

// Watcher polls every source on an interval and submits matching entries.
type Watcher struct {
	store     *Store
	fetcher   Fetcher
	submitter Submitter
	stubs     StubCreator
	interval  time.Duration
	flight    singleflight.Group
	log       *slog.Logger
}

// NewWatcher creates a feed watcher.
func NewWatcher(store *Store, fetcher Fetcher, submitter Submitter, stubs StubCreator, interval time.Duration, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Watcher{
		store:     store,
		fetcher:   fetcher,
		submitter: submitter,
		stubs:     stubs,
		interval:  interval,
		log:       log.With("component", "feed"),
	}
}

// Store exposes the source store for management endpoints.
func (w *Watcher) Store() *Store {
	return w.store
}

// Run polls on the configured interval until the context ends. The first
// poll happens immediately.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll checks every source once. Overlapping calls collapse into a single
// cycle; the late caller shares the running cycle's outcome.
func (w *Watcher) Poll(ctx context.Context) {
	_, _, _ = w.flight.Do("poll", func() (any, error) {
		w.pollAll(ctx)
		return nil, nil
	})
}

func (w *Watcher) pollAll(ctx context.Context) {
	sources, err := w.store.List()
	if err != nil {
		w.log.Error("list feed sources", "error", err)
		return
	}
	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}
		w.pollSource(ctx, src)
	}
}

// pollSource fetches one source and submits its new matching entries. The
// watermark only advances after a successful fetch, so a flaky source
// retries the same window next cycle.
func (w *Watcher) pollSource(ctx context.Context, src *Source) {
	checkedAt := time.Now()

	items, err := w.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		w.log.Warn("feed fetch failed", "url", src.URL, "error", err)
		return
	}

	selector := NewSelector(src.Patterns)
	submitted := 0
	for _, item := range items {
		if !w.isNew(src, item) {
			continue
		}
		if !selector.Matches(item.Title) {
			continue
		}
		if err := w.submit(ctx, src, item); err != nil {
			w.log.Error("submit feed entry", "url", src.URL, "title", item.Title, "error", err)
			continue
		}
		submitted++
	}

	if err := w.store.SetLastChecked(src.ID, checkedAt); err != nil {
		w.log.Error("advance feed watermark", "url", src.URL, "error", err)
	}
	w.log.Debug("feed polled", "url", src.URL, "items", len(items), "submitted", submitted)
}

// isNew reports whether the item postdates the source's watermark. Entries
// without a parsable date only count as new on the very first poll, so a
// dateless feed cannot resubmit its whole history every cycle.
func (w *Watcher) isNew(src *Source, item rss.Item) bool {
	if src.LastChecked == nil {
		return true
	}
	if item.PublishDate.IsZero() {
		return false
	}
	return item.PublishDate.After(*src.LastChecked)
}

func (w *Watcher) submit(ctx context.Context, src *Source, item rss.Item) error {
	assetTitle := title.StripReleaseTags(item.Title)
	if assetTitle == "" {
		assetTitle = item.Title
	}
	stub, err := w.stubs.CreateStub(ctx, assetTitle, src.OwnerID)
	if err != nil {
		return err
	}

	_, err = w.submitter.Submit(ctx, download.SubmitRequest{
		MediaID:     &stub.ID,
		Kind:        sourceKind(item.DownloadURL),
		URL:         item.DownloadURL,
		RequestedBy: src.OwnerID,
	})
	if err != nil {
		return err
	}
	w.log.Info("feed entry submitted", "source", src.Label, "title", item.Title)
	return nil
}

// sourceKind classifies a feed payload by its URL so magnet links skip the
// size probe downstream.
func sourceKind(url string) download.SourceKind {
	if strings.HasPrefix(url, "magnet:") {
		return download.SourceMagnet
	}
	return download.SourceDirect
}
