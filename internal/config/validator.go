package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/temporal"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextRun - rpulse run needs a readable roster
	ValidationContextRun ValidationContext = "run"
	// ValidationContextServe - rpulse serve also needs a listen address
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

const (
	maxPerPage            = 100
	minRefreshInterval    = time.Minute
	unauthenticatedRateHr = 60
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns the result as a config error, or nil when valid
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(strings.TrimRight(vr.Error(), "\n"))
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}
	for _, w := range c.envWarnings {
		result.AddWarning("%s", w)
	}

	c.validateIngest(result)
	c.validateGitHub(result)
	c.validateLog(result)

	switch ctx {
	case ValidationContextRun:
		c.validateRoster(result, true)
	case ValidationContextServe:
		c.validateRoster(result, true)
		c.validateServer(result)
	case ValidationContextAll:
		c.validateRoster(result, false)
		c.validateServer(result)
	}

	return result
}

func (c *Config) validateIngest(result *ValidationResult) {
	if c.Ingest.BatchSize <= 0 {
		result.AddError("ingest.batch_size must be positive (got %d)", c.Ingest.BatchSize)
	}
	if c.Ingest.InterBatchDelay < 0 {
		result.AddError("ingest.inter_batch_delay must not be negative (got %s)", c.Ingest.InterBatchDelay)
	}
	if c.Ingest.WindowSize <= 0 {
		result.AddError("ingest.window_size must be positive (got %d)", c.Ingest.WindowSize)
	}
	if c.Ingest.FetchTimeout < 0 {
		result.AddError("ingest.fetch_timeout must not be negative (got %s)", c.Ingest.FetchTimeout)
	} else if c.Ingest.FetchTimeout == 0 {
		result.AddWarning("ingest.fetch_timeout is 0: a hung request stalls its batch")
	}
	if _, err := temporal.ResolveLocation(c.Ingest.Timezone); err != nil {
		result.AddError("ingest.timezone: %v", err)
	}
}

func (c *Config) validateGitHub(result *ValidationResult) {
	if c.GitHub.Token == "" {
		result.AddWarning("no GitHub token: requests are unauthenticated and limited to %d per hour", unauthenticatedRateHr)
	}
	if c.GitHub.BaseURL != "" {
		u, err := url.Parse(c.GitHub.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result.AddError("github.base_url must be an http(s) URL (got %q)", c.GitHub.BaseURL)
		}
	}
	if c.GitHub.PerPage < 0 || c.GitHub.PerPage > maxPerPage {
		result.AddError("github.per_page must be between 0 and %d (got %d)", maxPerPage, c.GitHub.PerPage)
	}
	if c.GitHub.RateLimit < 0 {
		result.AddError("github.rate_limit must not be negative (got %g)", c.GitHub.RateLimit)
	}
}

func (c *Config) validateRoster(result *ValidationResult, requireFile bool) {
	repo := strings.TrimSpace(c.Roster.DefaultRepo)
	if repo == "" {
		result.AddError("roster.default_repo must not be empty")
	} else if strings.ContainsAny(repo, "/ ") {
		result.AddError("roster.default_repo must be a bare repository name (got %q)", repo)
	}

	if !requireFile {
		return
	}
	if c.Roster.Path == "" {
		result.AddError("roster.path is required")
		return
	}
	if info, err := os.Stat(c.Roster.Path); err != nil {
		result.AddError("roster file %s: %v", c.Roster.Path, err)
	} else if info.IsDir() {
		result.AddError("roster file %s is a directory", c.Roster.Path)
	}
}

func (c *Config) validateServer(result *ValidationResult) {
	if c.Server.Addr == "" {
		result.AddError("server.addr is required")
	}
	if c.Server.RefreshInterval < 0 {
		result.AddError("server.refresh_interval must not be negative (got %s)", c.Server.RefreshInterval)
	} else if c.Server.RefreshInterval > 0 && c.Server.RefreshInterval < minRefreshInterval {
		result.AddWarning("server.refresh_interval %s is short; each refresh fetches the whole roster", c.Server.RefreshInterval)
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		result.AddError("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
}
