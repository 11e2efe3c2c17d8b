// SPDX-License-Identifier: AGPL-3.0-or-later
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/flowd-org/sigdesk/internal/server/handlers"
	"github.com/flowd-org/sigdesk/internal/server/metrics"
)

// Run boots the bridge HTTP server until the context is canceled or an
// unrecoverable error occurs.
func Run(ctx context.Context, cfg Config) error {
	norm := cfg.normalize()
	logger := newLogger(norm)
	if norm.MetricsEnabled {
		metrics.Default.SetBuildInfo(map[string]string{"version": norm.Version})
	}
	if !isLoopbackAddress(norm.Bind) {
		logger.Warn("bridge listening beyond loopback", slog.String("bind", norm.Bind))
	}

	ln, err := net.Listen("tcp", norm.Bind)
	if err != nil {
		return err
	}
	logger.Info("bridge ready",
		slog.String("addr", ln.Addr().String()),
		slog.Any("commands", norm.Bridge.Names()),
	)

	server := &http.Server{
		Handler: buildHandler(norm, logger, metrics.Default),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), norm.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func buildHandler(cfg Config, logger *slog.Logger, reg *metrics.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusNoContent)
	})
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", reg.Handler())
	}
	mux.Handle("/commands", handlers.NewCommandsHandler(cfg.Bridge))
	mux.Handle("/invoke/", handlers.NewInvokeHandler(handlers.InvokeConfig{
		Registry:     cfg.Bridge,
		Metrics:      reg,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}))

	return chainMiddleware(mux,
		metricsMiddleware(cfg, reg),
		loggingMiddleware(logger),
		corsMiddleware(cfg),
	)
}
