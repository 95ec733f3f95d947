package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/rohankatakam/rosterpulse/internal/errors"
)

const (
	// KeyringService groups rpulse items in the OS keychain
	KeyringService = "RosterPulse"

	// KeyringGitHubTokenItem holds the personal access token
	KeyringGitHubTokenItem = "github-token"

	probeItem = "availability-probe"
)

// Token sources reported by GetTokenSource
const (
	TokenSourceEnv      = "env"
	TokenSourceKeychain = "keychain"
	TokenSourceConfig   = "config"
	TokenSourceNone     = "none"
)

// KeyringManager stores the GitHub token in the OS keychain:
// macOS Keychain, Windows Credential Manager or the Linux Secret Service.
type KeyringManager struct {
	service string
	logger  *slog.Logger
}

// NewKeyringManager creates a keyring manager for the RosterPulse service
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		service: KeyringService,
		logger:  slog.Default().With("component", "keyring"),
	}
}

// lookup returns "" for a missing item
func (km *KeyringManager) lookup(item string) (string, error) {
	value, err := keyring.Get(km.service, item)
	switch {
	case stderrors.Is(err, keyring.ErrNotFound):
		return "", nil
	case err != nil:
		return "", err
	}
	return value, nil
}

// GetGitHubToken returns the stored token, or "" if none is stored
func (km *KeyringManager) GetGitHubToken() (string, error) {
	token, err := km.lookup(KeyringGitHubTokenItem)
	if err != nil {
		km.logger.Warn("keychain read failed", "item", KeyringGitHubTokenItem, "error", err)
		return "", fmt.Errorf("read %s from keychain: %w", KeyringGitHubTokenItem, err)
	}
	km.logger.Debug("keychain lookup", "item", KeyringGitHubTokenItem, "found", token != "")
	return token, nil
}

// SetGitHubToken stores token, replacing any previous value
func (km *KeyringManager) SetGitHubToken(token string) error {
	if token == "" {
		return errors.ValidationError("refusing to store an empty GitHub token")
	}
	if err := keyring.Set(km.service, KeyringGitHubTokenItem, token); err != nil {
		km.logger.Warn("keychain write failed", "item", KeyringGitHubTokenItem, "error", err)
		return fmt.Errorf("write %s to keychain: %w", KeyringGitHubTokenItem, err)
	}
	km.logger.Info("token stored", "service", km.service, "token", MaskToken(token))
	return nil
}

// DeleteGitHubToken removes the stored token. A missing token is not an error.
func (km *KeyringManager) DeleteGitHubToken() error {
	err := keyring.Delete(km.service, KeyringGitHubTokenItem)
	if err != nil && !stderrors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("remove %s from keychain: %w", KeyringGitHubTokenItem, err)
	}
	km.logger.Info("token removed", "service", km.service)
	return nil
}

// IsAvailable probes the keychain. Headless Linux without a Secret Service
// daemon reports false.
func (km *KeyringManager) IsAvailable() bool {
	if _, err := km.lookup(probeItem); err != nil {
		km.logger.Debug("keychain unavailable", "error", err)
		return false
	}
	return true
}

// TokenSourceInfo describes where the effective GitHub token comes from
type TokenSourceInfo struct {
	Source      string
	Secure      bool
	Recommended string
}

// GetTokenSource reports where cfg's token came from, following the same
// precedence as Load: GITHUB_TOKEN, then config, then keychain.
func (km *KeyringManager) GetTokenSource(cfg *Config) TokenSourceInfo {
	if os.Getenv("GITHUB_TOKEN") != "" {
		return TokenSourceInfo{TokenSourceEnv, true, "GITHUB_TOKEN from the environment"}
	}

	if cfg.GitHub.Token == "" {
		return TokenSourceInfo{TokenSourceNone, false,
			"no token: requests are unauthenticated (60/hour). Run: rpulse login"}
	}

	if stored, _ := km.GetGitHubToken(); stored == cfg.GitHub.Token {
		return TokenSourceInfo{TokenSourceKeychain, true, "OS keychain"}
	}
	return TokenSourceInfo{TokenSourceConfig, false,
		"plaintext token in a config or .env file. Run: rpulse login"}
}

// MaskToken keeps the first and last four characters: "ghp_...abcd"
func MaskToken(token string) string {
	switch {
	case token == "":
		return "(not set)"
	case len(token) < 12:
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
