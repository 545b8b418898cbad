package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/academigold/internal/application"
	"github.com/example/academigold/internal/booking"
)

type reservationService interface {
	CheckConflict(ctx context.Context, params application.CreateReservationParams) error
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	CompleteReservation(ctx context.Context, principal application.Principal, reservationID int64) (application.Reservation, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID int64) (application.Reservation, error)
	GetReservation(ctx context.Context, principal application.Principal, reservationID int64) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	filter, err := parseReservationFilter(r)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid reservation filter", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	reservations, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		Principal: principal,
		Filter:    filter,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reservations)).InfoContext(r.Context(), "reservations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "space_id", req.SpaceID)

	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// Check reports whether the proposed reservation could be booked without
// persisting anything. Conflicts answer 409 like Create.
func (h *ReservationHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Check", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation check", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	err := h.service.CheckConflict(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.log(r.Context(), "Check", "principal_id", principal.UserID, "space_id", req.SpaceID).
			InfoContext(r.Context(), "reservation check rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, checkResponse{Available: true})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || reservationID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID, "reservation_id", reservationID).
			ErrorContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Complete", func(ctx context.Context, principal application.Principal, id int64) (application.Reservation, error) {
		return h.service.CompleteReservation(ctx, principal, id)
	})
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel", func(ctx context.Context, principal application.Principal, id int64) (application.Reservation, error) {
		return h.service.CancelReservation(ctx, principal, id)
	})
}

func (h *ReservationHandler) transition(w http.ResponseWriter, r *http.Request, operation string, apply func(context.Context, application.Principal, int64) (application.Reservation, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || reservationID <= 0 {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing reservation id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "reservation_id", reservationID)

	reservation, err := apply(r.Context(), principal, reservationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", reservation.Status).InfoContext(r.Context(), "reservation transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func parseReservationFilter(r *http.Request) (application.ReservationFilter, error) {
	query := r.URL.Query()
	var filter application.ReservationFilter

	if raw := strings.TrimSpace(query.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, errInvalidUserID
		}
		filter.UserID = id
	}
	if raw := strings.TrimSpace(query.Get("space_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, errInvalidSpaceID
		}
		filter.SpaceID = id
	}
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		date, err := booking.ParseDate(raw)
		if err != nil {
			return filter, errInvalidDate
		}
		filter.Date = date
	}
	filter.Status = application.ReservationStatus(strings.TrimSpace(query.Get("status")))
	return filter, nil
}

type reservationRequest struct {
	SpaceID int64    `json:"space_id"`
	UserID  int64    `json:"user_id"`
	Date    string   `json:"date"`
	Hours   []string `json:"hours"`
	Purpose string   `json:"purpose"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		SpaceID: r.SpaceID,
		UserID:  r.UserID,
		Date:    strings.TrimSpace(r.Date),
		Hours:   r.Hours,
		Purpose: r.Purpose,
	}
}

type checkResponse struct {
	Available bool `json:"available"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID          int64    `json:"id"`
	SpaceID     int64    `json:"space_id"`
	UserID      int64    `json:"user_id"`
	Date        string   `json:"date"`
	Hours       []string `json:"hours"`
	Purpose     string   `json:"purpose"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
	CompletedAt string   `json:"completed_at,omitempty"`
	CancelledAt string   `json:"cancelled_at,omitempty"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:          reservation.ID,
		SpaceID:     reservation.SpaceID,
		UserID:      reservation.UserID,
		Date:        reservation.Date.String(),
		Hours:       slotLabels(reservation.Hours),
		Purpose:     reservation.Purpose,
		Status:      string(reservation.Status),
		CreatedAt:   formatTime(reservation.CreatedAt),
		CompletedAt: formatTimePtr(reservation.CompletedAt),
		CancelledAt: formatTimePtr(reservation.CancelledAt),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}
