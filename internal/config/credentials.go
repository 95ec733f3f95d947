package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rohankatakam/rosterpulse/internal/errors"
)

// tokenPrefixes are the documented GitHub token formats
var tokenPrefixes = []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_"}

// CredentialManager prompts for and stores the GitHub token
type CredentialManager struct {
	keyring *KeyringManager
	in      *os.File
	out     io.Writer
}

// NewCredentialManager creates a credential manager on stdin/stdout
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		keyring: NewKeyringManager(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// ValidateToken checks the token is non-empty and warns about unknown formats
func ValidateToken(token string) (warning string, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.ConfigError("GitHub token is required")
	}
	if strings.ContainsAny(token, " \t") {
		return "", errors.ValidationError("GitHub token must not contain whitespace")
	}
	for _, p := range tokenPrefixes {
		if strings.HasPrefix(token, p) {
			return "", nil
		}
	}
	return "token does not look like a GitHub token (expected ghp_ or github_pat_ prefix)", nil
}

// PromptAndSaveToken reads a token without echo and stores it in the keychain
func (cm *CredentialManager) PromptAndSaveToken() error {
	if !cm.keyring.IsAvailable() {
		return errors.ConfigError("OS keychain is not available; set GITHUB_TOKEN instead")
	}

	fmt.Fprint(cm.out, "Enter GitHub token: ")
	token, err := cm.readSecurely()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	warning, err := ValidateToken(token)
	if err != nil {
		return err
	}
	if warning != "" {
		fmt.Fprintf(cm.out, "⚠️  %s\n", warning)
	}

	if err := cm.keyring.SetGitHubToken(token); err != nil {
		return err
	}
	fmt.Fprintln(cm.out, "✓ Saved to keychain")
	return nil
}

// readSecurely reads a password/token from stdin without echoing
func (cm *CredentialManager) readSecurely() (string, error) {
	// Try to read from terminal (supports password masking)
	if term.IsTerminal(int(cm.in.Fd())) {
		bytes, err := term.ReadPassword(int(cm.in.Fd()))
		fmt.Fprintln(cm.out) // New line after password input
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	// Fallback: Read from stdin (piped input)
	reader := bufio.NewReader(cm.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// IsInteractive returns true if stdout is a terminal (not piped)
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
