package ingestion

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/models"
)

const (
	DefaultBatchSize       = 10
	DefaultInterBatchDelay = time.Second
	DefaultFetchTimeout    = 15 * time.Second
)

// CommitSource fetches the commit list for one identity/repository pair
type CommitSource interface {
	FetchCommits(ctx context.Context, identity, repo string) ([]models.CommitRecord, error)
}

// BatchObserver receives scheduling events. OnFetch is called from fetch
// goroutines and must be safe for concurrent use.
type BatchObserver interface {
	OnBatchStart(index, size int, at time.Time)
	OnFetch(outcome models.FetchOutcome, elapsed time.Duration)
}

// SchedulerConfig controls batching and pacing
type SchedulerConfig struct {
	BatchSize       int
	InterBatchDelay time.Duration
	FetchTimeout    time.Duration // 0 = no per-fetch timeout
}

// DefaultSchedulerConfig returns the defaults used when nothing is configured
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		BatchSize:       DefaultBatchSize,
		InterBatchDelay: DefaultInterBatchDelay,
		FetchTimeout:    DefaultFetchTimeout,
	}
}

// Scheduler partitions a roster into fixed-size batches and fetches each
// batch concurrently. Batches run one at a time and consecutive batch starts
// are at least InterBatchDelay apart, which bounds the sustained request rate
// to roughly BatchSize requests per InterBatchDelay.
type Scheduler struct {
	source   CommitSource
	cfg      SchedulerConfig
	observer BatchObserver
	logger   *logrus.Logger
}

// NewScheduler creates a scheduler. A nil observer is allowed.
func NewScheduler(source CommitSource, cfg SchedulerConfig, observer BatchObserver, logger *logrus.Logger) (*Scheduler, error) {
	if source == nil {
		return nil, errors.InternalErrorf("commit source is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.ConfigErrorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.InterBatchDelay < 0 {
		return nil, errors.ConfigErrorf("inter-batch delay must not be negative, got %s", cfg.InterBatchDelay)
	}
	if cfg.FetchTimeout < 0 {
		return nil, errors.ConfigErrorf("fetch timeout must not be negative, got %s", cfg.FetchTimeout)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Scheduler{
		source:   source,
		cfg:      cfg,
		observer: observer,
		logger:   logger,
	}, nil
}

// Run fetches every roster entry and returns exactly one outcome per entry,
// in roster order.
//
// Cancelling ctx stops new batches from starting. Fetches already in flight
// are allowed to finish (bounded by FetchTimeout) and every entry that never
// started is recorded as a failure, so the result is always complete.
func (s *Scheduler) Run(ctx context.Context, roster []models.RosterEntry) []models.FetchOutcome {
	outcomes := make([]models.FetchOutcome, len(roster))
	batches := (len(roster) + s.cfg.BatchSize - 1) / s.cfg.BatchSize

	var lastStart time.Time
	for batch := 0; batch < batches; batch++ {
		start := batch * s.cfg.BatchSize
		end := min(start+s.cfg.BatchSize, len(roster))

		if err := s.pace(ctx, lastStart); err != nil {
			s.logger.WithFields(logrus.Fields{
				"batch":   batch,
				"skipped": len(roster) - start,
			}).Warn("Ingestion cancelled before batch start")
			s.failRemaining(roster[start:], outcomes[start:], err)
			break
		}

		lastStart = time.Now()
		if s.observer != nil {
			s.observer.OnBatchStart(batch, end-start, lastStart)
		}
		s.logger.WithFields(logrus.Fields{
			"batch":   batch + 1,
			"batches": batches,
			"size":    end - start,
		}).Debug("Starting batch")

		s.runBatch(ctx, roster[start:end], outcomes[start:end])
	}

	return outcomes
}

// pace blocks until InterBatchDelay has passed since the previous batch start
func (s *Scheduler) pace(ctx context.Context, lastStart time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if lastStart.IsZero() || s.cfg.InterBatchDelay == 0 {
		return nil
	}

	wait := s.cfg.InterBatchDelay - time.Since(lastStart)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runBatch fans out one fetch per entry and joins them. Each goroutine writes
// only its own slot of out.
func (s *Scheduler) runBatch(ctx context.Context, entries []models.RosterEntry, out []models.FetchOutcome) {
	var g errgroup.Group

	for i := range entries {
		i := i
		g.Go(func() error {
			out[i] = s.fetchOne(ctx, entries[i])
			return nil
		})
	}

	// fetchOne never returns an error; failures live in the outcomes
	_ = g.Wait()
}

// fetchOne performs a single isolated fetch. Errors and panics become a
// failure outcome for this entry only.
func (s *Scheduler) fetchOne(ctx context.Context, entry models.RosterEntry) (outcome models.FetchOutcome) {
	started := time.Now()
	outcome.Entry = entry

	defer func() {
		if r := recover(); r != nil {
			outcome.Commits = nil
			outcome.Err = errors.InternalErrorf("failed to fetch %s: panic: %v", entry.RepoPath(), r)
		}
		if s.observer != nil {
			s.observer.OnFetch(outcome, time.Since(started))
		}
	}()

	// in-flight fetches drain on run cancellation
	fetchCtx := context.WithoutCancel(ctx)
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(fetchCtx, s.cfg.FetchTimeout)
		defer cancel()
	}

	commits, err := s.source.FetchCommits(fetchCtx, entry.Identity, entry.Repo)
	if err != nil {
		outcome.Err = normalizeFetchError(err, entry)
		s.logger.WithFields(logrus.Fields{
			"identity": entry.Identity,
			"repo":     entry.Repo,
			"kind":     errors.Kind(outcome.Err),
		}).Debug("Fetch failed")
		return outcome
	}

	if commits == nil {
		commits = []models.CommitRecord{}
	}
	outcome.Commits = commits
	return outcome
}

// normalizeFetchError makes sure every failure carries a fetch error type
func normalizeFetchError(err error, entry models.RosterEntry) error {
	var typed *errors.Error
	if stderrors.As(err, &typed) {
		return err
	}
	return errors.Transport(err, entry.RepoPath())
}

func (s *Scheduler) failRemaining(entries []models.RosterEntry, out []models.FetchOutcome, cause error) {
	for i, entry := range entries {
		out[i] = models.FetchOutcome{
			Entry: entry,
			Err:   errors.Transport(fmt.Errorf("run cancelled: %w", cause), entry.RepoPath()),
		}
	}
}
