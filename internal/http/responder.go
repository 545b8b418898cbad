package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/academigold/internal/application"
	"github.com/example/academigold/internal/booking"
)

var (
	errBadRequestBody       = errors.New("Formato de requisição inválido.")
	errInvalidSpaceID       = errors.New("ID de espaço inválido.")
	errInvalidReservationID = errors.New("ID de reserva inválido.")
	errInvalidSoftwareID    = errors.New("ID de solicitação de software inválido.")
	errInvalidUserID        = errors.New("ID de usuário inválido.")
	errInvalidDate          = errors.New("Data inválida. Use o formato AAAA-MM-DD.")
	errInvalidQuery         = errors.New("Parâmetros de consulta inválidos.")
	errMissingSessionToken  = errors.New("Informe o token de autenticação.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   localizedStatusMessage(http.StatusForbidden),
		})
		return
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
		return
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "Já existe um registro com estes dados.",
		})
		return
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "E-mail ou senha incorretos.",
		})
		return
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "Sua sessão expirou. Faça login novamente.",
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: localizedStatusMessage(http.StatusUnprocessableEntity),
			Errors:  localizeValidationErrors(vErr),
		})
		return
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		conflict := toConflictDTO(cErr)
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: string(cErr.Kind),
			Message:   conflictMessage(cErr),
			Conflict:  &conflict,
		})
		return
	}

	var tErr *application.InvalidTransitionError
	if errors.As(err, &tErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_TRANSITION",
			Message:   fmt.Sprintf("Não é possível alterar o status de %s para %s.", statusLabel(tErr.From), statusLabel(tErr.To)),
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "A requisição é inválida."
	case http.StatusUnauthorized:
		return "Autenticação necessária."
	case http.StatusForbidden:
		return "Você não tem permissão para realizar esta operação."
	case http.StatusNotFound:
		return "O recurso solicitado não foi encontrado."
	case http.StatusConflict:
		return "A requisição conflita com o estado atual do recurso."
	case http.StatusUnprocessableEntity:
		return "Os dados informados são inválidos."
	default:
		return "Ocorreu um erro interno no servidor."
	}
}

func conflictMessage(c *application.ConflictError) string {
	name := c.SpaceName
	if name == "" {
		name = fmt.Sprintf("#%d", c.SpaceID)
	}
	hours := slotLabels(c.Slots)
	switch c.Kind {
	case booking.ConflictUserDoubleBooked:
		return fmt.Sprintf("O professor já possui reserva em %s nos horários: %s.", name, strings.Join(hours, ", "))
	default:
		return fmt.Sprintf("O espaço %s já está reservado nos horários: %s.", name, strings.Join(hours, ", "))
	}
}

func statusLabel(status string) string {
	switch status {
	case string(application.ReservationConfirmed):
		return "confirmada"
	case string(application.ReservationCompleted):
		return "concluída"
	case string(application.ReservationCancelled):
		return "cancelada"
	case string(application.SoftwarePending):
		return "pendente"
	case string(application.SoftwareApproved):
		return "aprovada"
	case string(application.SoftwareRejected):
		return "rejeitada"
	default:
		return status
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "code is required":
		return "O código é obrigatório."
	case "name is required":
		return "O nome é obrigatório."
	case "location is required":
		return "A localização é obrigatória."
	case "capacity must be positive":
		return "A capacidade deve ser um número positivo."
	case "status is invalid":
		return "Status inválido."
	case "type is invalid":
		return "Tipo inválido."
	case "unknown weekday":
		return "Dia da semana desconhecido."
	case "hour slots must be on the hour":
		return "Os horários devem estar no formato HH:00."
	case "email is required":
		return "O e-mail é obrigatório."
	case "email is invalid":
		return "O e-mail informado é inválido."
	case "role is invalid":
		return "Perfil de usuário inválido."
	case "password is required":
		return "A senha é obrigatória."
	case "cannot delete own account":
		return "Você não pode excluir a própria conta."
	case "version is required":
		return "A versão é obrigatória."
	case "category is required":
		return "A categoria é obrigatória."
	case "date is required":
		return "A data é obrigatória."
	case "date is invalid":
		return "Data inválida. Use o formato AAAA-MM-DD."
	case "at least one hour slot is required":
		return "Selecione pelo menos um horário."
	case "purpose is required":
		return "A finalidade da reserva é obrigatória."
	case "space is required":
		return "Selecione um espaço."
	case "user is required":
		return "O usuário é obrigatório."
	case "user does not exist":
		return "O usuário informado não existe."
	case "space does not exist":
		return "O espaço informado não existe."
	case "space is inactive":
		return "O espaço está inativo e não aceita reservas."
	case "hour slots must be within the space schedule":
		return "Os horários devem fazer parte da grade do espaço para o dia escolhido."
	case "record violates a storage constraint":
		return "O registro viola uma restrição de armazenamento."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *conflictDTO      `json:"conflict,omitempty"`
}

type conflictDTO struct {
	Kind          string   `json:"kind"`
	SpaceID       int64    `json:"space_id"`
	SpaceName     string   `json:"space_name,omitempty"`
	Slots         []string `json:"slots"`
	ReservationID int64    `json:"reservation_id"`
}

func toConflictDTO(c *application.ConflictError) conflictDTO {
	return conflictDTO{
		Kind:          string(c.Kind),
		SpaceID:       c.SpaceID,
		SpaceName:     c.SpaceName,
		Slots:         slotLabels(c.Slots),
		ReservationID: c.ReservationID,
	}
}

func slotLabels(slots []booking.Slot) []string {
	out := make([]string, len(slots))
	for i, slot := range slots {
		out[i] = slot.String()
	}
	return out
}
