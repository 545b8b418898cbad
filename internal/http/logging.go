package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes a logger to one handler operation. The request logger
// already carries request_id; a fallback logger gets it from the context. The
// caller's role is added once a session has been resolved.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, 6+len(attrs))

	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if id := RequestIDFromContext(ctx); id != "" {
			pairs = append(pairs, "request_id", id)
		}
	}

	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if principal, ok := PrincipalFromContext(ctx); ok {
		pairs = append(pairs, "role", string(principal.Role))
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
