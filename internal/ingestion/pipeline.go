package ingestion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/rosterpulse/internal/metrics"
	"github.com/rohankatakam/rosterpulse/internal/models"
	"github.com/rohankatakam/rosterpulse/internal/roster"
	"github.com/rohankatakam/rosterpulse/internal/temporal"
)

// PipelineConfig holds everything a run needs besides the commit source
type PipelineConfig struct {
	Scheduler  SchedulerConfig
	WindowSize int
	Location   *time.Location
}

// DefaultPipelineConfig returns the stock run configuration
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Scheduler:  DefaultSchedulerConfig(),
		WindowSize: temporal.DefaultWindowSize,
		Location:   time.UTC,
	}
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithClock overrides the time source used to anchor the window
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithObserver adds a scheduling observer
func WithObserver(o BatchObserver) Option {
	return func(p *Pipeline) { p.observers = append(p.observers, o) }
}

// WithMetrics records batch, fetch and run metrics
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
		p.observers = append(p.observers, m)
	}
}

// Pipeline turns a roster into a Report: fetch, classify, bucket, roll up
type Pipeline struct {
	cfg       PipelineConfig
	source    CommitSource
	scheduler *Scheduler
	observers []BatchObserver
	metrics   *Metrics
	now       func() time.Time
	logger    *logrus.Logger
}

// NewPipeline creates a pipeline over the given commit source
func NewPipeline(source CommitSource, cfg PipelineConfig, logger *logrus.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	p := &Pipeline{
		cfg:    cfg,
		source: source,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}

	// Fail fast on a bad window size rather than at first run
	if _, err := temporal.NewWindow(cfg.WindowSize, time.Time{}, cfg.Location); err != nil {
		return nil, err
	}

	scheduler, err := NewScheduler(source, cfg.Scheduler, multiObserver(p.observers), logger)
	if err != nil {
		return nil, err
	}
	p.scheduler = scheduler

	return p, nil
}

// Source returns the commit source the pipeline fetches from
func (p *Pipeline) Source() CommitSource {
	return p.source
}

// Run fetches every entry and builds the report. Partial failure is a normal
// result: unreachable entries land in InvalidEntries and the run completes.
// An error is returned only for an unusable roster.
func (p *Pipeline) Run(ctx context.Context, entries []models.RosterEntry) (*models.Report, error) {
	if err := roster.Validate(entries); err != nil {
		return nil, err
	}

	startedAt := p.now()
	window, err := temporal.NewWindow(p.cfg.WindowSize, startedAt, p.cfg.Location)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)
	log.WithFields(logrus.Fields{
		"entries":    len(entries),
		"batch_size": p.cfg.Scheduler.BatchSize,
		"window":     len(window.Dates),
	}).Info("Starting ingestion run")

	outcomes := p.scheduler.Run(ctx, entries)

	report := BuildReport(entries, outcomes, window)
	report.RunID = runID
	report.StartedAt = startedAt
	report.FinishedAt = p.now()

	if ctx.Err() != nil {
		log.WithError(ctx.Err()).Warn("Ingestion run cancelled, report is partial")
	}
	if p.metrics != nil {
		p.metrics.ObserveReport(report)
	}

	log.WithFields(logrus.Fields{
		"duration":     report.Duration().String(),
		"reachable":    len(report.CommitCounts),
		"invalid":      len(report.InvalidEntries),
		"active_users": report.Rollup.TotalActiveUsers,
	}).Info("Ingestion run completed")

	return report, nil
}

// BuildReport classifies outcomes and computes histograms and the rollup.
// It is a pure function of its inputs; run metadata is left for the caller.
func BuildReport(entries []models.RosterEntry, outcomes []models.FetchOutcome, window temporal.Window) *models.Report {
	c := Classify(outcomes)

	histograms := make(map[string][]models.DailyBucket, len(c.Successes))
	for _, outcome := range c.Successes {
		histograms[outcome.Entry.Identity] = window.Histogram(outcome.Commits)
	}

	rosterCopy := make([]models.RosterEntry, len(entries))
	copy(rosterCopy, entries)

	return &models.Report{
		Window:         window.Dates,
		Roster:         rosterCopy,
		CommitCounts:   c.CommitCounts,
		Histograms:     histograms,
		InvalidEntries: c.InvalidEntries,
		Rollup:         metrics.Aggregate(entries, c.CommitCounts, histograms),
	}
}

// Narrow returns a copy of the report restricted to entries matching the
// filter, with the rollup recomputed over the narrowed roster
func Narrow(report *models.Report, filter roster.Filter) *models.Report {
	if report == nil || filter.IsZero() {
		return report
	}

	entries := filter.Apply(report.Roster)
	counts := make(map[string]int)
	histograms := make(map[string][]models.DailyBucket)
	for _, e := range entries {
		if n, ok := report.CommitCounts[e.Identity]; ok {
			counts[e.Identity] = n
		}
		if h, ok := report.Histograms[e.Identity]; ok {
			histograms[e.Identity] = h
		}
	}

	narrowed := *report
	narrowed.Roster = entries
	narrowed.CommitCounts = counts
	narrowed.Histograms = histograms
	narrowed.InvalidEntries = filter.ApplyInvalid(report.InvalidEntries)
	narrowed.Rollup = metrics.Aggregate(entries, counts, histograms)
	return &narrowed
}

type observers []BatchObserver

func multiObserver(list []BatchObserver) BatchObserver {
	var out observers
	for _, o := range list {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (o observers) OnBatchStart(index, size int, at time.Time) {
	for _, obs := range o {
		obs.OnBatchStart(index, size, at)
	}
}

func (o observers) OnFetch(outcome models.FetchOutcome, elapsed time.Duration) {
	for _, obs := range o {
		obs.OnFetch(outcome, elapsed)
	}
}
