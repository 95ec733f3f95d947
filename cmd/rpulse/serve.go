package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/rosterpulse/internal/config"
	"github.com/rohankatakam/rosterpulse/internal/logging"
	"github.com/rohankatakam/rosterpulse/internal/roster"
	"github.com/rohankatakam/rosterpulse/internal/server"
)

var (
	serveAddr       string
	serveRosterPath string
	serveOpen       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest report over HTTP",
	Long: `Run the ingestion pipeline once at startup and serve the resulting report
as JSON. POST /api/refresh re-runs it; server.refresh_interval re-runs it on
a schedule. Prometheus metrics are exposed on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVarP(&serveRosterPath, "roster", "r", "", "roster file (default from config)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the summary endpoint in a browser")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveRosterPath != "" {
		cfg.Roster.Path = serveRosterPath
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := validate(config.ValidationContextServe); err != nil {
		return err
	}

	// long-running: info-level JSON logs regardless of the CLI default
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	if _, err := logging.Initialize(logging.ServerConfig(level, logFilePath(cfg.Log.File))); err != nil {
		return err
	}

	entries, err := loadRoster(roster.Filter{})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pipeline, err := newPipeline(reg)
	if err != nil {
		return err
	}
	loc, err := location()
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Runner:   pipeline,
		Source:   pipeline.Source(),
		Roster:   entries,
		Gatherer: reg,
		Location: loc,
		Logger:   slog.Default().With("component", "server"),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// endpoints answer 503 until the first run lands
	if err := srv.StartRefresh(context.WithoutCancel(ctx)); err != nil {
		logger.WithError(err).Error("Initial refresh failed")
	}
	srv.StartRefresher(ctx, cfg.Server.RefreshInterval)

	logger.WithField("addr", cfg.Server.Addr).WithField("entries", len(entries)).Info("Serving roster report")
	if serveOpen {
		url := "http://" + browseHost(cfg.Server.Addr) + "/api/summary"
		if err := browser.OpenURL(url); err != nil {
			logger.WithError(err).Warn("Could not open browser")
		}
	}

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// browseHost turns a listen address into something a browser can reach
func browseHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
