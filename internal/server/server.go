package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohankatakam/rosterpulse/internal/ingestion"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

const (
	requestTimeout     = 60 * time.Second
	historyTimeout     = 15 * time.Second
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 90 * time.Second
	serverIdleTimeout  = 60 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// ErrRefreshInProgress is returned when a refresh is already running
var ErrRefreshInProgress = stderrors.New("refresh already in progress")

// Runner produces a report for a roster
type Runner interface {
	Run(ctx context.Context, entries []models.RosterEntry) (*models.Report, error)
}

// Options configures a Server
type Options struct {
	Runner   Runner
	Source   ingestion.CommitSource // used for commit history lookups
	Roster   []models.RosterEntry
	Gatherer prometheus.Gatherer // nil disables /metrics
	Location *time.Location
	Logger   *slog.Logger
}

// Server serves the most recent report over HTTP. Only the latest report is
// kept, in memory; a refresh replaces it wholesale.
type Server struct {
	runner   Runner
	source   ingestion.CommitSource
	roster   []models.RosterEntry
	gatherer prometheus.Gatherer
	location *time.Location
	logger   *slog.Logger

	mu      sync.RWMutex
	latest  *models.Report
	lastErr error

	refreshMu sync.Mutex
	running   atomic.Bool
}

// New creates a server. Call Refresh to load the first report.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "server")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Server{
		runner:   opts.Runner,
		source:   opts.Source,
		roster:   opts.Roster,
		gatherer: opts.Gatherer,
		location: loc,
		logger:   logger,
	}
}

// Latest returns the most recent report, or nil before the first refresh
func (s *Server) Latest() *models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// LastError returns the error of the most recent failed refresh
func (s *Server) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Refresh runs the pipeline and swaps in the new report. Concurrent refreshes
// are rejected with ErrRefreshInProgress.
func (s *Server) Refresh(ctx context.Context) (*models.Report, error) {
	if !s.refreshMu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

// StartRefresh runs a refresh in the background and returns once it has
// claimed the refresh slot. The outcome lands in Latest or LastError.
func (s *Server) StartRefresh(ctx context.Context) error {
	if !s.refreshMu.TryLock() {
		return ErrRefreshInProgress
	}

	go func() {
		defer s.refreshMu.Unlock()
		s.refresh(ctx)
	}()
	return nil
}

// refresh requires refreshMu
func (s *Server) refresh(ctx context.Context) (*models.Report, error) {
	s.running.Store(true)
	defer s.running.Store(false)

	start := time.Now()
	report, err := s.runner.Run(ctx, s.roster)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.logger.Error("refresh failed", "error", err)
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	s.latest = report
	s.lastErr = nil
	s.logger.Info("report refreshed",
		"run_id", report.RunID,
		"duration", time.Since(start),
		"invalid", len(report.InvalidEntries),
	)
	return report, nil
}

// Refreshing reports whether a refresh is running
func (s *Server) Refreshing() bool {
	return s.running.Load()
}

// StartRefresher refreshes on every tick until ctx is done
func (s *Server) StartRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Refresh(ctx); err != nil && !stderrors.Is(err, ErrRefreshInProgress) {
					s.logger.Warn("scheduled refresh failed", "error", err)
				}
			}
		}
	}()
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))

	router.Get("/healthz", s.handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/summary", s.handleSummary)
		r.Get("/users", s.handleUsers)
		r.Get("/users/{identity}/commits", s.handleCommits)
		r.Get("/invalid", s.handleInvalid)
		r.Post("/refresh", s.handleRefresh)
	})

	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
