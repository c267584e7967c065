package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/DazzleML/ghtraf/internal/gh"
	"github.com/DazzleML/ghtraf/internal/observability"
	"github.com/DazzleML/ghtraf/internal/tracker"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

const (
	defaultCollectInterval = time.Hour
	serveReadTimeout       = 10 * time.Second
	serveShutdownTimeout   = 5 * time.Second
)

// NewServeCommand creates the serve subcommand.
func NewServeCommand() *cobra.Command {
	var (
		listen   string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run periodic collection with a metrics endpoint",
		Long: `Run collection passes on a fixed interval and expose run metrics on
/metrics for Prometheus scraping. Intended for a small always-on host;
one-shot scheduling (cron, Actions) should use collect instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			provider, err := observability.NewProvider()
			if err != nil {
				return err
			}

			metrics, err := observability.NewRunMetrics(provider.MeterProvider)
			if err != nil {
				return err
			}

			_, tr, logger, err := setup(cmd, gh.WithRequestObserver(metrics.RecordAPICall))
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", provider.Handler)

			server := &http.Server{
				Addr:        listen,
				Handler:     mux,
				ReadTimeout: serveReadTimeout,
			}

			ctx := cmd.Context()

			go func() {
				<-ctx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
				defer cancel()

				_ = server.Shutdown(shutdownCtx)
			}()

			go collectLoop(ctx, tr, metrics, logger, interval)

			logger.Info("serving metrics", "listen", listen, "interval", interval)

			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":9180", "metrics listen address")
	cmd.Flags().DurationVar(&interval, "interval", defaultCollectInterval, "time between collection passes")

	return cmd
}

// collectLoop runs collection passes until the context is cancelled,
// recording each run's outcome. A failed pass is logged and retried at
// the next tick; the persisted document is untouched by failures.
func collectLoop(ctx context.Context, tr *tracker.Tracker, metrics *observability.RunMetrics, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		runOnce(ctx, tr, metrics, logger)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, tr *tracker.Tracker, metrics *observability.RunMetrics, logger *slog.Logger) {
	start := time.Now()

	result, err := tr.Run(ctx, tracker.RunOptions{})
	if err != nil {
		metrics.RecordRun(ctx, observability.StatusError, time.Since(start))
		logger.Error("collection pass failed", "error", err)

		return
	}

	metrics.RecordRun(ctx, observability.StatusOK, time.Since(start))
	metrics.RecordDeltas(ctx, metricNames(result.Report.Deltas))
	metrics.RecordRepairs(ctx, metricNames(result.Report.Repairs))
}

func metricNames(in map[stats.Metric]int) map[string]int {
	out := make(map[string]int, len(in))
	for m, v := range in {
		out[string(m)] = v
	}

	return out
}
