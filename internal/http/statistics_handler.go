package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/academigold/internal/application"
)

type statisticsService interface {
	Overview(ctx context.Context, principal application.Principal) (application.Overview, error)
	ReservationsFor(ctx context.Context, principal application.Principal, userID int64) (application.ReservationCounts, error)
	AvailableToday(ctx context.Context) (int, error)
}

type StatisticsHandler struct {
	service   statisticsService
	responder responder
	logger    *slog.Logger
}

func NewStatisticsHandler(service statisticsService, logger *slog.Logger) *StatisticsHandler {
	base := defaultLogger(logger)
	return &StatisticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StatisticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StatisticsHandler", operation, attrs...)
}

// Overview serves the administrator dashboard.
func (h *StatisticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	overview, err := h.service.Overview(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Overview", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "statistics overview failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, overview)
}

// Reservations serves per-user reservation counts; ?user_id= defaults to the caller.
func (h *StatisticsHandler) Reservations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var userID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
			return
		}
		userID = id
	}

	counts, err := h.service.ReservationsFor(r.Context(), principal, userID)
	if err != nil {
		h.log(r.Context(), "Reservations", "principal_id", principal.UserID, "user_id", userID).
			ErrorContext(r.Context(), "reservation statistics failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, counts)
}

func (h *StatisticsHandler) Available(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	count, err := h.service.AvailableToday(r.Context())
	if err != nil {
		h.log(r.Context(), "Available").ErrorContext(r.Context(), "available spaces lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availableResponse{SpacesAvailable: count})
}

type availableResponse struct {
	SpacesAvailable int `json:"spaces_available"`
}
