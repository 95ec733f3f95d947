package config

import (
	"os"
	"strings"
)

// DeploymentMode represents the context rpulse runs in
type DeploymentMode string

const (
	// ModeLocal is a developer or instructor at a terminal
	ModeLocal DeploymentMode = "local"

	// ModeCI is a scheduled job or pipeline
	// - token from GITHUB_TOKEN only
	// - no prompts, plain table output
	ModeCI DeploymentMode = "ci"
)

var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILDKITE",
	"TF_BUILD",
}

// DetectMode determines the deployment context from the environment.
// RPULSE_MODE overrides detection.
func DetectMode() DeploymentMode {
	switch strings.ToLower(os.Getenv("RPULSE_MODE")) {
	case "ci", "cicd":
		return ModeCI
	case "local", "dev", "development":
		return ModeLocal
	}

	for _, name := range ciEnvVars {
		if os.Getenv(name) != "" {
			return ModeCI
		}
	}
	return ModeLocal
}

func (m DeploymentMode) String() string {
	return string(m)
}

// AllowsInteractivePrompts returns true if login may prompt for a token
func (m DeploymentMode) AllowsInteractivePrompts() bool {
	return m == ModeLocal
}

// UsesKeychain returns true if the OS keychain should be consulted
func (m DeploymentMode) UsesKeychain() bool {
	return m == ModeLocal
}
