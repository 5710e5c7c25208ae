// Package server ties the HTTP surface and background loops together.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/streamcloud/streamcloud/internal/download"
	"github.com/streamcloud/streamcloud/internal/feed"
)

// Runner owns the HTTP server and the background loops: the download event
// dispatcher and the feed watcher.
type Runner struct {
	addr    string
	handler http.Handler
	orch    *download.Orchestrator
	watcher *feed.Watcher
	log     *slog.Logger
}

// NewRunner creates a runner. Orchestrator and watcher may be nil; their
// loops are then skipped.
func NewRunner(addr string, handler http.Handler, orch *download.Orchestrator, watcher *feed.Watcher, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		addr:    addr,
		handler: handler,
		orch:    orch,
		watcher: watcher,
		log:     log.With("component", "server"),
	}
}

// Run starts all components and blocks until the context is canceled or a
// component fails. The HTTP server gets a grace period to drain in-flight
// requests on shutdown.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              r.addr,
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		r.log.Info("http server listening", "addr", r.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if r.orch != nil {
		g.Go(func() error {
			if err := r.orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("download dispatcher: %w", err)
			}
			return nil
		})
	}

	if r.watcher != nil {
		g.Go(func() error {
			if err := r.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("feed watcher: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
