package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rohankatakam/rosterpulse/internal/config"
	"github.com/rohankatakam/rosterpulse/internal/github"
	"github.com/rohankatakam/rosterpulse/internal/ingestion"
	"github.com/rohankatakam/rosterpulse/internal/models"
	"github.com/rohankatakam/rosterpulse/internal/output"
	"github.com/rohankatakam/rosterpulse/internal/roster"
	"github.com/rohankatakam/rosterpulse/internal/temporal"
)

// validate checks cfg for the given command and logs warnings
func validate(ctx config.ValidationContext) error {
	result := cfg.Validate(ctx)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	return result.Err()
}

func newGitHubClient() (*github.Client, error) {
	return github.NewClient(github.Options{
		Token:     cfg.GitHub.Token,
		BaseURL:   cfg.GitHub.BaseURL,
		PerPage:   cfg.GitHub.PerPage,
		RateLimit: cfg.GitHub.RateLimit,
	})
}

func location() (*time.Location, error) {
	return temporal.ResolveLocation(cfg.Ingest.Timezone)
}

// newPipeline wires the GitHub client, scheduler and metrics into a pipeline.
// Metrics register on reg; pass nil to skip them.
func newPipeline(reg prometheus.Registerer) (*ingestion.Pipeline, error) {
	client, err := newGitHubClient()
	if err != nil {
		return nil, err
	}
	loc, err := location()
	if err != nil {
		return nil, err
	}

	pcfg := ingestion.PipelineConfig{
		Scheduler: ingestion.SchedulerConfig{
			BatchSize:       cfg.Ingest.BatchSize,
			InterBatchDelay: cfg.Ingest.InterBatchDelay,
			FetchTimeout:    cfg.Ingest.FetchTimeout,
		},
		WindowSize: cfg.Ingest.WindowSize,
		Location:   loc,
	}

	var opts []ingestion.Option
	if reg != nil {
		opts = append(opts, ingestion.WithMetrics(ingestion.NewMetrics(reg)))
	}
	return ingestion.NewPipeline(client, pcfg, logger, opts...)
}

// loadRoster reads the configured roster and applies filter
func loadRoster(filter roster.Filter) ([]models.RosterEntry, error) {
	entries, err := roster.Load(cfg.Roster.Path, cfg.Roster.DefaultRepo)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return entries, nil
	}

	narrowed := filter.Apply(entries)
	logger.WithField("kept", len(narrowed)).WithField("total", len(entries)).Debug("Applied roster filter")
	if len(narrowed) == 0 {
		return nil, fmt.Errorf("no roster entries match branch=%q section=%q", filter.Branch, filter.Section)
	}
	return narrowed, nil
}

// verbosity resolves --output, falling back to $RPULSE_OUTPUT
func verbosity() (output.VerbosityLevel, error) {
	if outputFormat == "" {
		return output.GetDefaultVerbosity(), nil
	}
	level, ok := output.ParseVerbosity(outputFormat)
	if !ok {
		return level, fmt.Errorf("unknown output format %q (use quiet, standard or json)", outputFormat)
	}
	return level, nil
}

// interactive reports whether tables may use box-drawing characters
func interactive() bool {
	return config.IsInteractive() && config.DetectMode() != config.ModeCI
}
