package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/rosterpulse/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub token in the OS keychain",
	Long: `Prompt for a GitHub personal access token and store it in the OS keychain.
The token is read without echo; piped input is accepted.

GITHUB_TOKEN in the environment always takes precedence over the keychain.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the GitHub token from the OS keychain",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogin(cmd *cobra.Command, args []string) error {
	mode := config.DetectMode()
	if !mode.AllowsInteractivePrompts() {
		return fmt.Errorf("login is disabled in %s mode; set GITHUB_TOKEN instead", mode)
	}

	km := config.NewKeyringManager()
	if existing, _ := km.GetGitHubToken(); existing != "" {
		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "Replacing stored token %s\n", config.MaskToken(existing))
	}

	return config.NewCredentialManager().PromptAndSaveToken()
}

func runLogout(cmd *cobra.Command, args []string) error {
	km := config.NewKeyringManager()
	if !km.IsAvailable() {
		return fmt.Errorf("OS keychain is not available")
	}
	if err := km.DeleteGitHubToken(); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Token removed from keychain")
	return nil
}
