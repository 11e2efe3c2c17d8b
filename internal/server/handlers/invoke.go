// SPDX-License-Identifier: AGPL-3.0-or-later
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowd-org/sigdesk/internal/bridge"
	"github.com/flowd-org/sigdesk/internal/server/metrics"
	"github.com/flowd-org/sigdesk/internal/server/requestctx"
	"github.com/flowd-org/sigdesk/internal/server/response"
)

const invokePrefix = "/invoke/"

// InvokeConfig configures the invoke handler.
type InvokeConfig struct {
	Registry     *bridge.Registry
	Metrics      *metrics.Registry
	MaxBodyBytes int64
}

type okEnvelope struct {
	OK any `json:"ok"`
}

// NewInvokeHandler returns an HTTP handler for POST /invoke/{command}. The
// request body is the command's JSON argument object.
func NewInvokeHandler(cfg InvokeConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			response.Write(w, response.New(http.StatusMethodNotAllowed, "method not allowed"))
			return
		}
		name := strings.Trim(strings.TrimPrefix(r.URL.Path, invokePrefix), "/")
		if name == "" {
			response.Write(w, response.New(http.StatusNotFound, "command not found",
				response.WithType(response.TypeUnknownCommand),
				response.WithDetail("command name is required"),
			))
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes))
		if err != nil {
			status := http.StatusBadRequest
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				status = http.StatusRequestEntityTooLarge
			}
			response.Write(w, response.New(status, "invalid request body", response.WithDetail(err.Error())))
			return
		}

		start := time.Now()
		out, err := cfg.Registry.Invoke(r.Context(), name, body)
		outcome := classify(err)
		requestctx.SetInvocation(r.Context(), name, outcome)
		cfg.Metrics.RecordInvocation(name, outcome, time.Since(start))

		logger := requestctx.Logger(r.Context()).With(slog.String("command", name), slog.String("outcome", outcome))
		switch outcome {
		case metrics.OutcomeOK:
			response.JSON(w, http.StatusOK, okEnvelope{OK: out})
		case metrics.OutcomeRejected:
			var rej *bridge.Rejection
			errors.As(err, &rej)
			response.Write(w, response.New(http.StatusUnprocessableEntity, "command rejected",
				response.WithType(response.TypeCommandRejected),
				response.WithDetail(rej.Message),
				response.WithInstance(r.URL.Path),
				response.WithExtension("command", name),
				response.WithExtension("error", rej.Message),
			))
		case metrics.OutcomeUnknown:
			response.Write(w, response.New(http.StatusNotFound, "command not found",
				response.WithType(response.TypeUnknownCommand),
				response.WithDetail(err.Error()),
				response.WithExtension("command", name),
			))
		case metrics.OutcomeInvalid:
			response.Write(w, response.New(http.StatusBadRequest, "invalid arguments",
				response.WithType(response.TypeInvalidArgs),
				response.WithDetail(err.Error()),
				response.WithExtension("command", name),
			))
		default:
			logger.Error("command failed", slog.String("error", err.Error()))
			response.Write(w, response.New(http.StatusInternalServerError, "command failed",
				response.WithDetail(err.Error()),
				response.WithExtension("command", name),
			))
		}
	})
}

func classify(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var rej *bridge.Rejection
	if errors.As(err, &rej) {
		return metrics.OutcomeRejected
	}
	var argErr *bridge.ArgumentError
	if errors.As(err, &argErr) {
		return metrics.OutcomeInvalid
	}
	if errors.Is(err, bridge.ErrUnknownCommand) {
		return metrics.OutcomeUnknown
	}
	return metrics.OutcomeError
}

// NewCommandsHandler returns an HTTP handler for GET /commands.
func NewCommandsHandler(registry *bridge.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			response.Write(w, response.New(http.StatusMethodNotAllowed, "method not allowed"))
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{"commands": registry.Names()})
	})
}
