package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// GitHub configuration
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// Batching, pacing and windowing
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`

	// Roster source
	Roster RosterConfig `yaml:"roster" mapstructure:"roster"`

	// HTTP API
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Logging
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// environment overrides that could not be parsed, reported by Validate
	envWarnings []string
}

type GitHubConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	PerPage   int     `yaml:"per_page" mapstructure:"per_page"`     // 0 = API default
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second, 0 = unlimited
}

type IngestConfig struct {
	BatchSize       int           `yaml:"batch_size" mapstructure:"batch_size"`
	InterBatchDelay time.Duration `yaml:"inter_batch_delay" mapstructure:"inter_batch_delay"`
	WindowSize      int           `yaml:"window_size" mapstructure:"window_size"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	Timezone        string        `yaml:"timezone" mapstructure:"timezone"` // "UTC", "Local" or IANA name
}

type RosterConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	DefaultRepo string `yaml:"default_repo" mapstructure:"default_repo"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"` // 0 = manual only
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Ingest: IngestConfig{
			BatchSize:       10,
			InterBatchDelay: time.Second,
			WindowSize:      5,
			FetchTimeout:    15 * time.Second,
			Timezone:        "UTC",
		},
		Roster: RosterConfig{
			Path:        "roster.yaml",
			DefaultRepo: "default-repo",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// setDefaults registers every key so that env variables reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)
	v.SetDefault("github.per_page", cfg.GitHub.PerPage)
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)

	v.SetDefault("ingest.batch_size", cfg.Ingest.BatchSize)
	v.SetDefault("ingest.inter_batch_delay", cfg.Ingest.InterBatchDelay)
	v.SetDefault("ingest.window_size", cfg.Ingest.WindowSize)
	v.SetDefault("ingest.fetch_timeout", cfg.Ingest.FetchTimeout)
	v.SetDefault("ingest.timezone", cfg.Ingest.Timezone)

	v.SetDefault("roster.path", cfg.Roster.Path)
	v.SetDefault("roster.default_repo", cfg.Roster.DefaultRepo)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.refresh_interval", cfg.Server.RefreshInterval)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.json", cfg.Log.JSON)
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	setDefaults(v, cfg)

	// Load from environment variables: RPULSE_INGEST_BATCH_SIZE etc.
	v.SetEnvPrefix("RPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".rosterpulse")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".rosterpulse"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)
	cfg.Roster.Path = expandPath(cfg.Roster.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overrides a variable that is already set, so earlier files win.
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	// Also try loading from home directory
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".rosterpulse", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		_ = godotenv.Load(homeEnvFile)
	}
}

// tokenFromKeychain is swapped out in tests
var tokenFromKeychain = func() string {
	if !DetectMode().UsesKeychain() {
		return ""
	}
	km := NewKeyringManager()
	if !km.IsAvailable() {
		return ""
	}
	token, err := km.GetGitHubToken()
	if err != nil {
		return ""
	}
	return token
}

// applyEnvOverrides applies the conventional, unprefixed variables.
// Precedence for the token: 1. GITHUB_TOKEN 2. config/RPULSE_ 3. keychain.
func applyEnvOverrides(cfg *Config) {
	// GitHub configuration
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	} else if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = tokenFromKeychain()
	}
	if url := os.Getenv("GITHUB_API_URL"); url != "" {
		cfg.GitHub.BaseURL = url
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.ParseFloat(rateLimit, 64); err == nil {
			cfg.GitHub.RateLimit = r
		} else {
			cfg.ignoreEnv("GITHUB_RATE_LIMIT", rateLimit, "a number")
		}
	}

	// Ingestion shorthands
	if size := os.Getenv("RPULSE_BATCH_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			cfg.Ingest.BatchSize = n
		} else {
			cfg.ignoreEnv("RPULSE_BATCH_SIZE", size, "an integer")
		}
	}
	if delay := os.Getenv("RPULSE_INTER_BATCH_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			cfg.Ingest.InterBatchDelay = d
		} else {
			cfg.ignoreEnv("RPULSE_INTER_BATCH_DELAY", delay, "a duration such as 2s")
		}
	}
	if size := os.Getenv("RPULSE_WINDOW_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			cfg.Ingest.WindowSize = n
		} else {
			cfg.ignoreEnv("RPULSE_WINDOW_SIZE", size, "an integer")
		}
	}
	if tz := os.Getenv("RPULSE_TIMEZONE"); tz != "" {
		cfg.Ingest.Timezone = tz
	}

	// Roster
	if path := os.Getenv("RPULSE_ROSTER"); path != "" {
		cfg.Roster.Path = path
	}
	if repo := os.Getenv("RPULSE_DEFAULT_REPO"); repo != "" {
		cfg.Roster.DefaultRepo = repo
	}
}

func (c *Config) ignoreEnv(name, value, want string) {
	c.envWarnings = append(c.envWarnings,
		fmt.Sprintf("%s=%q ignored: want %s", name, value, want))
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Redacted returns a copy safe to print: the token is masked
func (c *Config) Redacted() *Config {
	out := *c
	out.GitHub.Token = MaskToken(c.GitHub.Token)
	return &out
}

// Save saves configuration to file. The token is never written.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("github.base_url", c.GitHub.BaseURL)
	v.Set("github.per_page", c.GitHub.PerPage)
	v.Set("github.rate_limit", c.GitHub.RateLimit)
	v.Set("ingest.batch_size", c.Ingest.BatchSize)
	v.Set("ingest.inter_batch_delay", c.Ingest.InterBatchDelay.String())
	v.Set("ingest.window_size", c.Ingest.WindowSize)
	v.Set("ingest.fetch_timeout", c.Ingest.FetchTimeout.String())
	v.Set("ingest.timezone", c.Ingest.Timezone)
	v.Set("roster.path", c.Roster.Path)
	v.Set("roster.default_repo", c.Roster.DefaultRepo)
	v.Set("server.addr", c.Server.Addr)
	v.Set("server.refresh_interval", c.Server.RefreshInterval.String())
	v.Set("log.level", c.Log.Level)
	v.Set("log.file", c.Log.File)
	v.Set("log.json", c.Log.JSON)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
