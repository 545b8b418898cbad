package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// SoftwareService handles software installation requests and their review.
type SoftwareService struct {
	requests SoftwareRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewSoftwareService constructs a software service with the provided dependencies.
func NewSoftwareService(requests SoftwareRepository, now func() time.Time) *SoftwareService {
	return NewSoftwareServiceWithLogger(requests, now, nil)
}

// NewSoftwareServiceWithLogger constructs a software service with a specified logger.
func NewSoftwareServiceWithLogger(requests SoftwareRepository, now func() time.Time, logger *slog.Logger) *SoftwareService {
	if now == nil {
		now = time.Now
	}
	return &SoftwareService{requests: requests, now: now, logger: defaultLogger(logger)}
}

func (s *SoftwareService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SoftwareService", operation, attrs...)
}

// RequestSoftware files a pending request on behalf of the principal.
func (s *SoftwareService) RequestSoftware(ctx context.Context, params RequestSoftwareParams) (request SoftwareRequest, err error) {
	if s == nil {
		err = fmt.Errorf("SoftwareService is nil")
		return
	}
	if s.requests == nil {
		err = fmt.Errorf("software repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "RequestSoftware", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to request software", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", request.ID).InfoContext(ctx, "software requested")
	}()

	if params.Principal.UserID == 0 {
		err = ErrUnauthorized
		return
	}

	input := SoftwareInput{
		Name:        strings.TrimSpace(params.Input.Name),
		Version:     strings.TrimSpace(params.Input.Version),
		Description: strings.TrimSpace(params.Input.Description),
		Category:    strings.TrimSpace(params.Input.Category),
		Type:        params.Input.Type,
	}
	if input.Type == "" {
		input.Type = SoftwareFree
	}

	vErr := &ValidationError{}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Version == "" {
		vErr.add("version", "version is required")
	}
	if input.Category == "" {
		vErr.add("category", "category is required")
	}
	if !input.Type.Valid() {
		vErr.add("type", "type is invalid")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	request = SoftwareRequest{
		Name:        input.Name,
		Version:     input.Version,
		Description: input.Description,
		Category:    input.Category,
		Type:        input.Type,
		Status:      SoftwarePending,
		RequestedBy: params.Principal.UserID,
		RequestDate: s.now(),
	}

	request, err = s.requests.CreateSoftware(ctx, request)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// ApproveSoftware marks a pending request as approved.
func (s *SoftwareService) ApproveSoftware(ctx context.Context, principal Principal, requestID int64) (SoftwareRequest, error) {
	return s.review(ctx, "ApproveSoftware", principal, requestID, SoftwareApproved, "")
}

// RejectSoftware marks a pending request as rejected. An empty reason is
// recorded as DefaultRejectionReason.
func (s *SoftwareService) RejectSoftware(ctx context.Context, params RejectSoftwareParams) (SoftwareRequest, error) {
	reason := strings.TrimSpace(params.Reason)
	if reason == "" {
		reason = DefaultRejectionReason
	}
	return s.review(ctx, "RejectSoftware", params.Principal, params.RequestID, SoftwareRejected, reason)
}

func (s *SoftwareService) review(ctx context.Context, operation string, principal Principal, requestID int64, to SoftwareStatus, reason string) (request SoftwareRequest, err error) {
	if s == nil {
		err = fmt.Errorf("SoftwareService is nil")
		return
	}
	if s.requests == nil {
		err = fmt.Errorf("software repository not configured")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
		"request_id", requestID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to review software request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", request.Status).InfoContext(ctx, "software request reviewed")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	request, err = s.requests.GetSoftware(ctx, requestID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if request.Status != SoftwarePending {
		err = &InvalidTransitionError{
			From:   string(request.Status),
			To:     string(to),
			Reason: "only pending requests can be reviewed",
		}
		return
	}

	now := s.now()
	reviewer := principal.UserID
	request.Status = to
	switch to {
	case SoftwareApproved:
		request.ApprovedDate = &now
		request.ApprovedBy = &reviewer
	case SoftwareRejected:
		request.RejectedDate = &now
		request.RejectedBy = &reviewer
		request.RejectionReason = reason
	}

	request, err = s.requests.UpdateSoftware(ctx, request)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// DeleteSoftware removes a request for administrators.
func (s *SoftwareService) DeleteSoftware(ctx context.Context, principal Principal, requestID int64) error {
	if s == nil {
		return fmt.Errorf("SoftwareService is nil")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if s.requests == nil {
		return fmt.Errorf("software repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSoftware",
		"principal_id", principal.UserID,
		"request_id", requestID,
	)

	if err := s.requests.DeleteSoftware(ctx, requestID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete software request", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "software request deleted")
	return nil
}

// ListSoftware returns requests newest first. Professors only see their own.
func (s *SoftwareService) ListSoftware(ctx context.Context, principal Principal, filter SoftwareFilter) ([]SoftwareRequest, error) {
	if s == nil {
		return nil, fmt.Errorf("SoftwareService is nil")
	}
	if s.requests == nil {
		return nil, nil
	}
	if !principal.IsAdmin() {
		filter.RequestedBy = principal.UserID
	}

	raw, err := s.requests.ListSoftware(ctx)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListSoftware", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list software requests", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	out := make([]SoftwareRequest, 0, len(raw))
	for _, request := range raw {
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		if filter.RequestedBy != 0 && request.RequestedBy != filter.RequestedBy {
			continue
		}
		out = append(out, request)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].RequestDate.After(out[j].RequestDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
