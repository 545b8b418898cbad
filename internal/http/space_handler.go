package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/academigold/internal/application"
	"github.com/example/academigold/internal/booking"
)

type spaceService interface {
	CreateSpace(ctx context.Context, params application.CreateSpaceParams) (application.Space, error)
	UpdateSpace(ctx context.Context, params application.UpdateSpaceParams) (application.Space, error)
	SetStatus(ctx context.Context, principal application.Principal, spaceID int64, status application.SpaceStatus) (application.Space, error)
	DeleteSpace(ctx context.Context, principal application.Principal, spaceID int64) error
	GetSpace(ctx context.Context, spaceID int64) (application.Space, error)
	ListSpaces(ctx context.Context, principal application.Principal, filter application.SpaceFilter) ([]application.Space, error)
}

type availabilityService interface {
	AvailableSlots(ctx context.Context, spaceID int64, date booking.Date) ([]booking.Slot, error)
}

type SpaceHandler struct {
	service      spaceService
	availability availabilityService
	responder    responder
	logger       *slog.Logger
}

func NewSpaceHandler(service spaceService, availability availabilityService, logger *slog.Logger) *SpaceHandler {
	base := defaultLogger(logger)
	return &SpaceHandler{service: service, availability: availability, responder: newResponder(base), logger: base}
}

func (h *SpaceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SpaceHandler", operation, attrs...)
}

func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	filter := application.SpaceFilter{
		Search:     query.Get("search"),
		Type:       application.SpaceType(strings.TrimSpace(query.Get("type"))),
		ActiveOnly: query.Get("active") == "true",
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	spaces, err := h.service.ListSpaces(r.Context(), principal, filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "space list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(spaces)).InfoContext(r.Context(), "spaces listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSpacesResponse{Spaces: toSpaceDTOs(spaces)})
}

func (h *SpaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode space request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	space, err := h.service.CreateSpace(r.Context(), application.CreateSpaceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "space creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("space_id", space.ID).InfoContext(r.Context(), "space created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, spaceResponse{Space: toSpaceDTO(space)})
}

func (h *SpaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || spaceID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	space, err := h.service.GetSpace(r.Context(), spaceID)
	if err != nil {
		h.log(r.Context(), "Get", "space_id", spaceID).ErrorContext(r.Context(), "space lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: toSpaceDTO(space)})
}

func (h *SpaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || spaceID <= 0 {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing space id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "space_id", spaceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode space update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "space_id", spaceID)

	space, err := h.service.UpdateSpace(r.Context(), application.UpdateSpaceParams{
		Principal: principal,
		SpaceID:   spaceID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "space update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "space updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: toSpaceDTO(space)})
}

func (h *SpaceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || spaceID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req spaceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetStatus", "principal_id", principal.UserID, "space_id", spaceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode space status", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetStatus", "principal_id", principal.UserID, "space_id", spaceID)

	space, err := h.service.SetStatus(r.Context(), principal, spaceID, application.SpaceStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		logger.ErrorContext(r.Context(), "space status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "space status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: toSpaceDTO(space)})
}

func (h *SpaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || spaceID <= 0 {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing space id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "space_id", spaceID)
	if err := h.service.DeleteSpace(r.Context(), principal, spaceID); err != nil {
		logger.ErrorContext(r.Context(), "space delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "space deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Availability lists the free hour slots of a space on ?date=YYYY-MM-DD.
func (h *SpaceHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.availability == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := SpaceIDFromContext(r.Context())
	if !ok || spaceID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	date, err := booking.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.log(r.Context(), "Availability", "space_id", spaceID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid availability date", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	logger := h.log(r.Context(), "Availability", "space_id", spaceID, "date", date.String())
	slots, err := h.availability.AvailableSlots(r.Context(), spaceID, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "availability lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(slots)).InfoContext(r.Context(), "availability listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		SpaceID: spaceID,
		Date:    date.String(),
		Slots:   slotLabels(slots),
	})
}

type spaceRequest struct {
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Capacity    int                 `json:"capacity"`
	Location    string              `json:"location"`
	Status      string              `json:"status"`
	Type        string              `json:"type"`
	Software    []string            `json:"software"`
	Schedule    map[string][]string `json:"schedule"`
}

func (r spaceRequest) toInput() application.SpaceInput {
	return application.SpaceInput{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		Location:    r.Location,
		Status:      application.SpaceStatus(strings.TrimSpace(r.Status)),
		Type:        application.SpaceType(strings.TrimSpace(r.Type)),
		Software:    r.Software,
		Schedule:    r.Schedule,
	}
}

type spaceStatusRequest struct {
	Status string `json:"status"`
}

type spaceResponse struct {
	Space spaceDTO `json:"space"`
}

type listSpacesResponse struct {
	Spaces []spaceDTO `json:"spaces"`
}

type availabilityResponse struct {
	SpaceID int64    `json:"space_id"`
	Date    string   `json:"date"`
	Slots   []string `json:"slots"`
}

type spaceDTO struct {
	ID          int64               `json:"id"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Capacity    int                 `json:"capacity"`
	Location    string              `json:"location"`
	Status      string              `json:"status"`
	Type        string              `json:"type"`
	Software    []string            `json:"software"`
	Schedule    map[string][]string `json:"schedule"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at,omitempty"`
}

func toSpaceDTO(space application.Space) spaceDTO {
	schedule := make(map[string][]string)
	for label, slots := range space.Schedule.Labels() {
		schedule[label] = slotLabels(slots)
	}
	software := space.Software
	if software == nil {
		software = []string{}
	}
	return spaceDTO{
		ID:          space.ID,
		Code:        space.Code,
		Name:        space.Name,
		Description: space.Description,
		Capacity:    space.Capacity,
		Location:    space.Location,
		Status:      string(space.Status),
		Type:        string(space.Type),
		Software:    software,
		Schedule:    schedule,
		CreatedAt:   formatTime(space.CreatedAt),
		UpdatedAt:   formatTimePtr(space.UpdatedAt),
	}
}

func toSpaceDTOs(spaces []application.Space) []spaceDTO {
	out := make([]spaceDTO, 0, len(spaces))
	for _, space := range spaces {
		out = append(out, toSpaceDTO(space))
	}
	return out
}
