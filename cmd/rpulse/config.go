package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/rosterpulse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults, config file, .env files and
environment variables are applied. The GitHub token is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitPath string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Save(configInitPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", configInitPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", ".rosterpulse/config.yaml", "destination file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Fprint(out, string(data))

	source := config.NewKeyringManager().GetTokenSource(cfg)
	fmt.Fprintf(out, "\n# token source: %s (%s)\n", source.Source, source.Recommended)
	fmt.Fprintf(out, "# mode: %s\n", config.DetectMode())

	result := cfg.Validate(config.ValidationContextAll)
	if result.HasErrors() {
		fmt.Fprint(out, "\n"+result.Error())
	}
	return nil
}
