package requestctx

import (
	"context"
	"log/slog"
)

type loggerKey struct{}
type metadataKey struct{}

var (
	ctxLoggerKey   = &loggerKey{}
	ctxMetadataKey = &metadataKey{}
)

// Metadata stores auxiliary request attributes for structured logging.
type Metadata struct {
	RequestID string
	Route     string
	Command   string
	Outcome   string
}

// WithLogger stores the request-scoped logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLoggerKey, logger)
}

// Logger extracts the request-scoped logger from context, falling back to the
// process default.
func Logger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, _ := ctx.Value(ctxLoggerKey).(*slog.Logger); logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// WithMetadata stores request metadata in context, overwriting any existing value.
func WithMetadata(ctx context.Context, meta *Metadata) context.Context {
	if meta == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxMetadataKey, meta)
}

// MetadataFromContext retrieves the metadata pointer stored on the context, if present.
func MetadataFromContext(ctx context.Context) *Metadata {
	if ctx == nil {
		return nil
	}
	meta, _ := ctx.Value(ctxMetadataKey).(*Metadata)
	return meta
}

func ensureMetadata(ctx context.Context) (context.Context, *Metadata) {
	meta := MetadataFromContext(ctx)
	if meta == nil {
		meta = &Metadata{}
		ctx = context.WithValue(ctx, ctxMetadataKey, meta)
	}
	return ctx, meta
}

// WithRoute annotates metadata with the templated route string.
func WithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	ctx, meta := ensureMetadata(ctx)
	meta.Route = route
	return ctx
}

// Route extracts the templated route string stored on the context, if any.
func Route(ctx context.Context) (string, bool) {
	meta := MetadataFromContext(ctx)
	if meta == nil || meta.Route == "" {
		return "", false
	}
	return meta.Route, true
}

// RequestID returns the identifier assigned by the logging middleware.
func RequestID(ctx context.Context) (string, bool) {
	meta := MetadataFromContext(ctx)
	if meta == nil || meta.RequestID == "" {
		return "", false
	}
	return meta.RequestID, true
}

// SetInvocation records the bridge command and its outcome so the request log
// line can carry them.
func SetInvocation(ctx context.Context, command, outcome string) {
	meta := MetadataFromContext(ctx)
	if meta == nil {
		return
	}
	meta.Command = command
	meta.Outcome = outcome
}
