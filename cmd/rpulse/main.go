package main

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/rosterpulse/internal/config"
	"github.com/rohankatakam/rosterpulse/internal/errors"
	"github.com/rohankatakam/rosterpulse/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile      string
	verbose      bool
	outputFormat string
	logger       *logrus.Logger
	cfg          *config.Config
)

func main() {
	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		var detailed *errors.Error
		if verbose && stderrors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n%s", err, detailed.DetailedString())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logging.Close()
		os.Exit(exitCode(err))
	}
}

// Exit codes: 2 when configuration or setup is broken, 1 for anything else
const (
	exitFailure = 1
	exitFatal   = 2
)

func exitCode(err error) int {
	if errors.IsFatal(err) {
		return exitFatal
	}
	return exitFailure
}

var rootCmd = &cobra.Command{
	Use:   "rpulse",
	Short: "RosterPulse - daily commit activity for a class roster",
	Long: `RosterPulse fetches recent commits for every GitHub account on a roster,
buckets them into a window of recent days and summarizes activity by branch
and section.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			if cfgFile != "" {
				return err
			}
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		return initSlog(cfg.Log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .rosterpulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: quiet, standard, json (default $RPULSE_OUTPUT or standard)")

	rootCmd.SetVersionTemplate(`RosterPulse {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(rosterCmd)
}

// initSlog routes the slog-based packages (github client, keychain, server)
// through internal/logging. Without --verbose they stay quiet below warn.
func initSlog(lc config.LogConfig) error {
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return err
	}

	var lcfg logging.Config
	if verbose {
		lcfg = logging.DebugConfig()
	} else {
		if level < slog.LevelWarn && lc.File == "" {
			level = slog.LevelWarn
		}
		lcfg = logging.Config{Level: level, JSONFormat: lc.JSON}
	}
	lcfg.OutputFile = logFilePath(lc.File)

	_, err = logging.Initialize(lcfg)
	return err
}

// logFilePath expands "auto" to a timestamped file under ~/.rosterpulse/logs
func logFilePath(file string) string {
	if file == "auto" {
		return logging.DefaultLogFile(time.Now())
	}
	return file
}
