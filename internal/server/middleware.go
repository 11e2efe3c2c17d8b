// SPDX-License-Identifier: AGPL-3.0-or-later
package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowd-org/sigdesk/internal/server/metrics"
	"github.com/flowd-org/sigdesk/internal/server/requestctx"
)

const requestIDHeader = "X-Request-Id"

// Middleware defines a HTTP middleware component.
type Middleware func(http.Handler) http.Handler

// chainMiddleware applies the supplied middlewares in order to the provided handler.
func chainMiddleware(h http.Handler, chain ...Middleware) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i] == nil {
			continue
		}
		h = chain[i](h)
	}
	return h
}

// loggingMiddleware assigns a request id and records request metadata using slog.
func loggingMiddleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			requestID := uuid.NewString()
			recorder.Header().Set(requestIDHeader, requestID)
			reqLogger := logger.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			meta := requestctx.MetadataFromContext(r.Context())
			ctx := r.Context()
			if meta == nil {
				meta = &requestctx.Metadata{}
				ctx = requestctx.WithMetadata(ctx, meta)
			}
			meta.RequestID = requestID
			ctx = requestctx.WithLogger(ctx, reqLogger)
			next.ServeHTTP(recorder, r.WithContext(ctx))
			attrs := []any{
				slog.Int("status", recorder.status),
				slog.Duration("duration", time.Since(start)),
			}
			if meta.Route != "" {
				attrs = append(attrs, slog.String("route", meta.Route))
			}
			if meta.Command != "" {
				attrs = append(attrs, slog.String("command", meta.Command), slog.String("outcome", meta.Outcome))
			}
			reqLogger.Info("request", attrs...)
		})
	}
}

// corsMiddleware admits localhost front-end origins in dev mode.
func corsMiddleware(cfg Config) Middleware {
	if !cfg.Dev {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1")) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func metricsMiddleware(cfg Config, reg *metrics.Registry) Middleware {
	if !cfg.MetricsEnabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := templateRoute(r.URL.Path)
			ctx := requestctx.WithRoute(r.Context(), route)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r.WithContext(ctx))
			reg.RecordHTTP(route, r.Method, recorder.status, time.Since(start))
		})
	}
}

func templateRoute(path string) string {
	switch {
	case path == "":
		return "/"
	case path == "/metrics", path == "/healthz", path == "/commands":
		return path
	case strings.HasPrefix(path, "/invoke/"):
		return "/invoke/{command}"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func newLogger(cfg Config) *slog.Logger {
	var handler slog.Handler
	switch strings.ToLower(cfg.Log) {
	case "json":
		handler = slog.NewJSONHandler(cfg.StdOut, nil)
	default:
		handler = slog.NewTextHandler(cfg.StdOut, nil)
	}
	return slog.New(handler)
}
