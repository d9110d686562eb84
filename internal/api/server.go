// Package api serves filter options, metrics and aggregates as JSON for a
// dashboard front end.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cvilledata/crimedash/internal/analysis"
	"github.com/cvilledata/crimedash/internal/incident"
	"github.com/cvilledata/crimedash/internal/logging"
)

// TableSource provides the current incident table. *dataset.Cache
// satisfies it.
type TableSource interface {
	Get(ctx context.Context) (*incident.Table, error)
	Invalidate()
}

// Options configures a Server.
type Options struct {
	Metrics analysis.MetricsConfig
	// CORSOrigins are allowed browser origins; empty disables CORS headers.
	CORSOrigins []string
	// RateLimit is requests per minute per client IP on /api/v1; 0 disables it.
	RateLimit int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Server holds the handlers' dependencies.
type Server struct {
	src       TableSource
	metrics   analysis.MetricsConfig
	origins   []string
	rateLimit int
	now       func() time.Time
}

// NewServer returns a Server reading tables from src.
func NewServer(src TableSource, opt Options) *Server {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if len(opt.Metrics.WindowDays) == 0 {
		opt.Metrics = analysis.DefaultMetricsConfig()
	}
	return &Server{
		src:       src,
		metrics:   opt.Metrics,
		origins:   opt.CORSOrigins,
		rateLimit: opt.RateLimit,
		now:       opt.Now,
	}
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info().Msg("shutting down API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
