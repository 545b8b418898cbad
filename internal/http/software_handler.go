package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/academigold/internal/application"
)

type softwareService interface {
	RequestSoftware(ctx context.Context, params application.RequestSoftwareParams) (application.SoftwareRequest, error)
	ApproveSoftware(ctx context.Context, principal application.Principal, requestID int64) (application.SoftwareRequest, error)
	RejectSoftware(ctx context.Context, params application.RejectSoftwareParams) (application.SoftwareRequest, error)
	DeleteSoftware(ctx context.Context, principal application.Principal, requestID int64) error
	ListSoftware(ctx context.Context, principal application.Principal, filter application.SoftwareFilter) ([]application.SoftwareRequest, error)
}

type SoftwareHandler struct {
	service   softwareService
	responder responder
	logger    *slog.Logger
}

func NewSoftwareHandler(service softwareService, logger *slog.Logger) *SoftwareHandler {
	base := defaultLogger(logger)
	return &SoftwareHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SoftwareHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SoftwareHandler", operation, attrs...)
}

func (h *SoftwareHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	filter := application.SoftwareFilter{
		Status: application.SoftwareStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	requests, err := h.service.ListSoftware(r.Context(), principal, filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "software list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(requests)).InfoContext(r.Context(), "software requests listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSoftwareResponse{Software: toSoftwareDTOs(requests)})
}

func (h *SoftwareHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req softwareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode software request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	request, err := h.service.RequestSoftware(r.Context(), application.RequestSoftwareParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "software request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("software_id", request.ID).InfoContext(r.Context(), "software requested")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, softwareResponse{Software: toSoftwareDTO(request)})
}

func (h *SoftwareHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := SoftwareIDFromContext(r.Context())
	if !ok || requestID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSoftwareID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Approve", "principal_id", principal.UserID, "software_id", requestID)

	request, err := h.service.ApproveSoftware(r.Context(), principal, requestID)
	if err != nil {
		logger.ErrorContext(r.Context(), "software approval failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "software approved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, softwareResponse{Software: toSoftwareDTO(request)})
}

// Reject accepts an optional {"reason"} body; an empty body is allowed.
func (h *SoftwareHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := SoftwareIDFromContext(r.Context())
	if !ok || requestID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSoftwareID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log(r.Context(), "Reject", "principal_id", principal.UserID, "software_id", requestID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode rejection", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Reject", "principal_id", principal.UserID, "software_id", requestID)

	request, err := h.service.RejectSoftware(r.Context(), application.RejectSoftwareParams{
		Principal: principal,
		RequestID: requestID,
		Reason:    req.Reason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "software rejection failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "software rejected")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, softwareResponse{Software: toSoftwareDTO(request)})
}

func (h *SoftwareHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := SoftwareIDFromContext(r.Context())
	if !ok || requestID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSoftwareID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "software_id", requestID)
	if err := h.service.DeleteSoftware(r.Context(), principal, requestID); err != nil {
		logger.ErrorContext(r.Context(), "software delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "software request deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type softwareRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

func (r softwareRequest) toInput() application.SoftwareInput {
	return application.SoftwareInput{
		Name:        r.Name,
		Version:     r.Version,
		Description: r.Description,
		Category:    r.Category,
		Type:        application.SoftwareType(strings.TrimSpace(r.Type)),
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type softwareResponse struct {
	Software softwareDTO `json:"software"`
}

type listSoftwareResponse struct {
	Software []softwareDTO `json:"software"`
}

type softwareDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Version         string `json:"version"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	RequestedBy     int64  `json:"requested_by"`
	RequestDate     string `json:"request_date"`
	ApprovedDate    string `json:"approved_date,omitempty"`
	ApprovedBy      int64  `json:"approved_by,omitempty"`
	RejectedDate    string `json:"rejected_date,omitempty"`
	RejectedBy      int64  `json:"rejected_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

func toSoftwareDTO(request application.SoftwareRequest) softwareDTO {
	return softwareDTO{
		ID:              request.ID,
		Name:            request.Name,
		Version:         request.Version,
		Description:     request.Description,
		Category:        request.Category,
		Type:            string(request.Type),
		Status:          string(request.Status),
		RequestedBy:     request.RequestedBy,
		RequestDate:     formatTime(request.RequestDate),
		ApprovedDate:    formatTimePtr(request.ApprovedDate),
		ApprovedBy:      formatIDPtr(request.ApprovedBy),
		RejectedDate:    formatTimePtr(request.RejectedDate),
		RejectedBy:      formatIDPtr(request.RejectedBy),
		RejectionReason: request.RejectionReason,
	}
}

func toSoftwareDTOs(requests []application.SoftwareRequest) []softwareDTO {
	out := make([]softwareDTO, 0, len(requests))
	for _, request := range requests {
		out = append(out, toSoftwareDTO(request))
	}
	return out
}
