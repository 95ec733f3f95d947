package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/rosterpulse/internal/errors"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- identity: alice\n"), 0644))

	cfg := Default()
	cfg.GitHub.Token = "ghp_test_token_value"
	cfg.Roster.Path = path
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig(t)

	for _, ctx := range []ValidationContext{ValidationContextRun, ValidationContextServe, ValidationContextAll} {
		result := cfg.Validate(ctx)
		assert.False(t, result.HasErrors(), "%s: %s", ctx, result.Error())
		assert.NoError(t, result.Err())
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero batch size", func(c *Config) { c.Ingest.BatchSize = 0 }, "ingest.batch_size"},
		{"negative delay", func(c *Config) { c.Ingest.InterBatchDelay = -time.Second }, "ingest.inter_batch_delay"},
		{"zero window", func(c *Config) { c.Ingest.WindowSize = 0 }, "ingest.window_size"},
		{"negative timeout", func(c *Config) { c.Ingest.FetchTimeout = -1 }, "ingest.fetch_timeout"},
		{"unknown timezone", func(c *Config) { c.Ingest.Timezone = "Mars/Olympus" }, "ingest.timezone"},
		{"empty default repo", func(c *Config) { c.Roster.DefaultRepo = " " }, "roster.default_repo"},
		{"slash in default repo", func(c *Config) { c.Roster.DefaultRepo = "a/b" }, "bare repository name"},
		{"missing roster file", func(c *Config) { c.Roster.Path = "/nonexistent/roster.yaml" }, "roster file"},
		{"bad base url", func(c *Config) { c.GitHub.BaseURL = "ftp://example.com" }, "github.base_url"},
		{"per page too large", func(c *Config) { c.GitHub.PerPage = 500 }, "github.per_page"},
		{"negative rate", func(c *Config) { c.GitHub.RateLimit = -1 }, "github.rate_limit"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			result := cfg.Validate(ValidationContextRun)
			require.True(t, result.HasErrors())
			assert.Contains(t, result.Error(), tt.want)

			err := result.Err()
			require.Error(t, err)
			assert.Equal(t, errors.ErrorTypeConfig, errors.GetType(err))
		})
	}
}

func TestValidate_ServeContext(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.Addr = ""
	cfg.Server.RefreshInterval = -time.Minute

	result := cfg.Validate(ValidationContextServe)
	assert.Contains(t, result.Error(), "server.addr")
	assert.Contains(t, result.Error(), "server.refresh_interval")

	// run does not care about the server block
	assert.False(t, cfg.Validate(ValidationContextRun).HasErrors())
}

func TestValidate_Warnings(t *testing.T) {
	cfg := validConfig(t)
	cfg.GitHub.Token = ""
	cfg.Server.RefreshInterval = 5 * time.Second

	result := cfg.Validate(ValidationContextServe)

	assert.False(t, result.HasErrors())
	joined := strings.Join(result.Warnings, "\n")
	assert.Contains(t, joined, "unauthenticated")
	assert.Contains(t, joined, "refresh_interval")
}
