package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cvilledata/crimedash/internal/analysis"
	"github.com/cvilledata/crimedash/internal/api"
	"github.com/cvilledata/crimedash/internal/dataset"
	"github.com/cvilledata/crimedash/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	Long: `Serve filter options, metrics, aggregates and map points over HTTP.

The dataset is loaded once and cached for cache_ttl; POST /api/v1/refresh
reloads it. Prometheus metrics are exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt, err := loadOptions(c)
		if err != nil {
			return err
		}
		ttl, err := c.TTL()
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		cache := dataset.NewCache(dataset.FileLoader(c.DataPath(), opt), ttl)
		mc := analysis.DefaultMetricsConfig()
		if len(c.WindowsDays) > 0 {
			mc.WindowDays = c.WindowsDays
		}
		srv := api.NewServer(cache, api.Options{
			Metrics:     mc,
			CORSOrigins: c.CORSOrigins,
			RateLimit:   c.RateLimit,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Warm the cache; a failure is reported per request until the file is fixed.
		warmCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		if t, err := cache.Get(warmCtx); err != nil {
			logging.Warn().Err(err).Str("path", c.DataPath()).Msg("initial dataset load failed")
		} else {
			logging.Info().Int("records", t.Len()).Dur("ttl", ttl).Msg("dataset cached")
		}
		cancel()

		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address; overrides listen_addr")
}
