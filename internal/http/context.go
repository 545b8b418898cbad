package http

import (
	"context"
	"log/slog"

	"github.com/example/academigold/internal/application"
	"github.com/example/academigold/internal/logging"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	spaceIDContextKey       contextKey = "space_id"
	reservationIDContextKey contextKey = "reservation_id"
	softwareIDContextKey    contextKey = "software_id"
	userIDContextKey        contextKey = "user_id"
	requestIDContextKey     contextKey = "request_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger attaches the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithRequestID records the id assigned by RequestLogger.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext returns the request id, or "" outside RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// ContextWithSpaceID injects the space identifier resolved from the request path.
func ContextWithSpaceID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, spaceIDContextKey, id)
}

// SpaceIDFromContext extracts a space identifier previously associated with the context.
func SpaceIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(spaceIDContextKey).(int64)
	return id, ok
}

// ContextWithReservationID injects the reservation identifier resolved from the request path.
func ContextWithReservationID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, id)
}

// ReservationIDFromContext extracts a reservation identifier previously associated with the context.
func ReservationIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(int64)
	return id, ok
}

// ContextWithSoftwareID injects the software request identifier resolved from the request path.
func ContextWithSoftwareID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, softwareIDContextKey, id)
}

// SoftwareIDFromContext extracts a software request identifier previously associated with the context.
func SoftwareIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(softwareIDContextKey).(int64)
	return id, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}
