package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/example/academigold/internal/booking"
)

// SpaceService orchestrates validation, authorization, and persistence for spaces.
type SpaceService struct {
	spaces SpaceRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewSpaceService constructs a space service with the provided dependencies.
func NewSpaceService(spaces SpaceRepository, now func() time.Time) *SpaceService {
	return NewSpaceServiceWithLogger(spaces, now, nil)
}

// NewSpaceServiceWithLogger constructs a space service with a specified logger.
func NewSpaceServiceWithLogger(spaces SpaceRepository, now func() time.Time, logger *slog.Logger) *SpaceService {
	if now == nil {
		now = time.Now
	}
	return &SpaceService{spaces: spaces, now: now, logger: defaultLogger(logger)}
}

func (s *SpaceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpaceService", operation, attrs...)
}

// CreateSpace validates input and persists a new space for administrators.
func (s *SpaceService) CreateSpace(ctx context.Context, params CreateSpaceParams) (space Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}
	if s.spaces == nil {
		err = fmt.Errorf("space repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSpace", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create space", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("space_id", space.ID).InfoContext(ctx, "space created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	normalized, schedule, vErr := normalizeSpaceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	space = Space{
		Code:        normalized.Code,
		Name:        normalized.Name,
		Description: normalized.Description,
		Capacity:    normalized.Capacity,
		Location:    normalized.Location,
		Status:      normalized.Status,
		Type:        normalized.Type,
		Software:    normalized.Software,
		Schedule:    schedule,
		CreatedAt:   s.now(),
	}

	space, err = s.spaces.CreateSpace(ctx, space)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// UpdateSpace validates input and replaces an existing space for administrators.
func (s *SpaceService) UpdateSpace(ctx context.Context, params UpdateSpaceParams) (space Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}
	if s.spaces == nil {
		err = fmt.Errorf("space repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSpace",
		"principal_id", params.Principal.UserID,
		"space_id", params.SpaceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update space", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "space updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	var existing Space
	existing, err = s.spaces.GetSpace(ctx, params.SpaceID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	normalized, schedule, vErr := normalizeSpaceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	updated := existing
	updated.Code = normalized.Code
	updated.Name = normalized.Name
	updated.Description = normalized.Description
	updated.Capacity = normalized.Capacity
	updated.Location = normalized.Location
	updated.Status = normalized.Status
	updated.Type = normalized.Type
	updated.Software = normalized.Software
	updated.Schedule = schedule
	updated.UpdatedAt = &now

	space, err = s.spaces.UpdateSpace(ctx, updated)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// SetStatus activates or deactivates a space. Deactivated spaces stop
// accepting reservations; existing ones are kept.
func (s *SpaceService) SetStatus(ctx context.Context, principal Principal, spaceID int64, status SpaceStatus) (space Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}
	if s.spaces == nil {
		err = fmt.Errorf("space repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetStatus",
		"principal_id", principal.UserID,
		"space_id", spaceID,
		"status", status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to change space status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "space status changed")
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if !status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "status is invalid")
		err = vErr
		return
	}

	space, err = s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if space.Status == status {
		return
	}

	now := s.now()
	space.Status = status
	space.UpdatedAt = &now
	space, err = s.spaces.UpdateSpace(ctx, space)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// DeleteSpace removes an existing space when requested by an administrator.
func (s *SpaceService) DeleteSpace(ctx context.Context, principal Principal, spaceID int64) error {
	if s == nil {
		return fmt.Errorf("SpaceService is nil")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if s.spaces == nil {
		return fmt.Errorf("space repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSpace",
		"principal_id", principal.UserID,
		"space_id", spaceID,
	)

	if err := s.spaces.DeleteSpace(ctx, spaceID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete space", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "space deleted")
	return nil
}

// GetSpace returns a single space.
func (s *SpaceService) GetSpace(ctx context.Context, spaceID int64) (Space, error) {
	if s == nil {
		return Space{}, fmt.Errorf("SpaceService is nil")
	}
	if s.spaces == nil {
		return Space{}, fmt.Errorf("space repository not configured")
	}
	space, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return Space{}, mapRepoError(err)
	}
	return space, nil
}

// ListSpaces returns the catalog ordered by name using Portuguese collation.
func (s *SpaceService) ListSpaces(ctx context.Context, principal Principal, filter SpaceFilter) (spaces []Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}
	if s.spaces == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListSpaces", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list spaces", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(spaces)).InfoContext(ctx, "spaces listed")
	}()

	var raw []Space
	raw, err = s.spaces.ListSpaces(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	spaces = make([]Space, 0, len(raw))
	for _, space := range raw {
		if filter.ActiveOnly && space.Status != SpaceActive {
			continue
		}
		if filter.Type != "" && space.Type != filter.Type {
			continue
		}
		if search != "" && !matchesSearch(space, search) {
			continue
		}
		spaces = append(spaces, space)
	}

	sortSpaces(spaces)
	return
}

func matchesSearch(space Space, search string) bool {
	for _, field := range []string{space.Name, space.Code, space.Location} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func sortSpaces(spaces []Space) {
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(spaces, func(i, j int) bool {
		if c := col.CompareString(spaces[i].Name, spaces[j].Name); c != 0 {
			return c < 0
		}
		return spaces[i].ID < spaces[j].ID
	})
}

func normalizeSpaceInput(input SpaceInput) (SpaceInput, booking.Schedule, *ValidationError) {
	vErr := &ValidationError{}

	out := SpaceInput{
		Code:        strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Capacity:    input.Capacity,
		Location:    strings.TrimSpace(input.Location),
		Status:      input.Status,
		Type:        input.Type,
	}
	if out.Status == "" {
		out.Status = SpaceActive
	}
	if out.Type == "" {
		out.Type = SpaceLaboratory
	}

	if out.Code == "" {
		vErr.add("code", "code is required")
	}
	if out.Name == "" {
		vErr.add("name", "name is required")
	}
	if out.Location == "" {
		vErr.add("location", "location is required")
	}
	if out.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if !out.Status.Valid() {
		vErr.add("status", "status is invalid")
	}
	if !out.Type.Valid() {
		vErr.add("type", "type is invalid")
	}

	out.Software = make([]string, 0, len(input.Software))
	for _, name := range input.Software {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out.Software = append(out.Software, trimmed)
		}
	}

	raw := make(booking.Schedule, 7)
	for label, hours := range input.Schedule {
		day, ok := booking.ParseWeekday(label)
		if !ok {
			vErr.add("schedule", "unknown weekday")
			continue
		}
		for _, hour := range hours {
			slot, err := booking.ParseSlot(hour)
			if err != nil {
				vErr.add("schedule", "hour slots must be on the hour")
				continue
			}
			raw[day] = append(raw[day], slot)
		}
	}

	schedule, err := raw.Normalize()
	if err != nil {
		vErr.add("schedule", "hour slots must be on the hour")
	}

	return out, schedule, vErr
}
