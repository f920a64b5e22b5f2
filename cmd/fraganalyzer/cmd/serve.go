package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/analysis"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/metrics"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve searches and analyses over HTTP",
	Long: `Serve the search and analysis API over HTTP.

Routes:
  GET    /healthz
  GET    /metrics
  POST   /v1/search
  GET    /v1/rows
  GET    /v1/selection
  POST   /v1/selection
  DELETE /v1/selection
  GET    /v1/analyses
  POST   /v1/analyses/{kind}
  GET    /v1/instruments        (database only)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (0 = config value)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	// The API always exposes /metrics, even without a separate metrics listener.
	if appMetrics == nil {
		appMetrics = metrics.New()
	}

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	session, err := newSession(b)
	if err != nil {
		return err
	}

	defaults := analysis.DefaultOptions()
	defaults.BubbleScale = cfg.Analysis.BubbleScale
	defaults.HeatMapLower = cfg.Analysis.HeatMapLower
	defaults.HeatMapUpper = cfg.Analysis.HeatMapUpper

	srv, err := server.New(server.Options{
		Open:         b.open,
		Session:      session,
		Metrics:      appMetrics,
		Instruments:  b.instruments,
		Defaults:     defaults,
		MinimumPairs: cfg.Analysis.MinimumPairs,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server)
}
