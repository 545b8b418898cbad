package main

import (
	"context"
	"fmt"

	"github.com/example/academigold/internal/application"
	"github.com/example/academigold/internal/booking"
	"github.com/example/academigold/internal/persistence"
)

type userRepositoryAdapter struct {
	store *persistence.Store
}

func newUserRepositoryAdapter(store *persistence.Store) *userRepositoryAdapter {
	return &userRepositoryAdapter{store: store}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	stored, err := a.store.CreateUser(ctx, toPersistenceUser(user, passwordHash))
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id int64) (application.User, error) {
	stored, err := a.store.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash *string) (application.User, error) {
	current, err := a.store.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	hash := current.PasswordHash
	if passwordHash != nil {
		hash = *passwordHash
	}
	stored, err := a.store.UpdateUser(ctx, toPersistenceUser(user, hash))
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id int64) error {
	return a.store.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialStoreAdapter struct {
	*userRepositoryAdapter
}

func newCredentialStoreAdapter(store *persistence.Store) *credentialStoreAdapter {
	return &credentialStoreAdapter{userRepositoryAdapter: newUserRepositoryAdapter(store)}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

type spaceRepositoryAdapter struct {
	store *persistence.Store
}

func newSpaceRepositoryAdapter(store *persistence.Store) *spaceRepositoryAdapter {
	return &spaceRepositoryAdapter{store: store}
}

func (a *spaceRepositoryAdapter) CreateSpace(ctx context.Context, space application.Space) (application.Space, error) {
	stored, err := a.store.CreateSpace(ctx, toPersistenceSpace(space))
	if err != nil {
		return application.Space{}, err
	}
	return toApplicationSpace(stored)
}

func (a *spaceRepositoryAdapter) GetSpace(ctx context.Context, id int64) (application.Space, error) {
	stored, err := a.store.GetSpace(ctx, id)
	if err != nil {
		return application.Space{}, err
	}
	return toApplicationSpace(stored)
}

func (a *spaceRepositoryAdapter) UpdateSpace(ctx context.Context, space application.Space) (application.Space, error) {
	stored, err := a.store.UpdateSpace(ctx, toPersistenceSpace(space))
	if err != nil {
		return application.Space{}, err
	}
	return toApplicationSpace(stored)
}

func (a *spaceRepositoryAdapter) DeleteSpace(ctx context.Context, id int64) error {
	return a.store.DeleteSpace(ctx, id)
}

func (a *spaceRepositoryAdapter) ListSpaces(ctx context.Context) ([]application.Space, error) {
	models, err := a.store.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationSpaces(models)
}

type reservationRepositoryAdapter struct {
	store *persistence.Store
}

func newReservationRepositoryAdapter(store *persistence.Store) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{store: store}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	stored, err := a.store.CreateReservation(ctx, toPersistenceReservation(reservation))
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id int64) (application.Reservation, error) {
	stored, err := a.store.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	stored, err := a.store.UpdateReservation(ctx, toPersistenceReservation(reservation))
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context) ([]application.Reservation, error) {
	models, err := a.store.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations, nil
}

type softwareRepositoryAdapter struct {
	store *persistence.Store
}

func newSoftwareRepositoryAdapter(store *persistence.Store) *softwareRepositoryAdapter {
	return &softwareRepositoryAdapter{store: store}
}

func (a *softwareRepositoryAdapter) CreateSoftware(ctx context.Context, request application.SoftwareRequest) (application.SoftwareRequest, error) {
	stored, err := a.store.CreateSoftware(ctx, toPersistenceSoftware(request))
	if err != nil {
		return application.SoftwareRequest{}, err
	}
	return toApplicationSoftware(stored), nil
}

func (a *softwareRepositoryAdapter) GetSoftware(ctx context.Context, id int64) (application.SoftwareRequest, error) {
	stored, err := a.store.GetSoftware(ctx, id)
	if err != nil {
		return application.SoftwareRequest{}, err
	}
	return toApplicationSoftware(stored), nil
}

func (a *softwareRepositoryAdapter) UpdateSoftware(ctx context.Context, request application.SoftwareRequest) (application.SoftwareRequest, error) {
	stored, err := a.store.UpdateSoftware(ctx, toPersistenceSoftware(request))
	if err != nil {
		return application.SoftwareRequest{}, err
	}
	return toApplicationSoftware(stored), nil
}

func (a *softwareRepositoryAdapter) DeleteSoftware(ctx context.Context, id int64) error {
	return a.store.DeleteSoftware(ctx, id)
}

func (a *softwareRepositoryAdapter) ListSoftware(ctx context.Context) ([]application.SoftwareRequest, error) {
	models, err := a.store.ListSoftware(ctx)
	if err != nil {
		return nil, err
	}
	requests := make([]application.SoftwareRequest, 0, len(models))
	for _, model := range models {
		requests = append(requests, toApplicationSoftware(model))
	}
	return requests, nil
}

type snapshotAdapter struct {
	store *persistence.Store
}

func newSnapshotAdapter(store *persistence.Store) *snapshotAdapter {
	return &snapshotAdapter{store: store}
}

func (a *snapshotAdapter) Snapshot(ctx context.Context) (application.Dataset, error) {
	data, err := a.store.Snapshot(ctx)
	if err != nil {
		return application.Dataset{}, err
	}

	out := application.Dataset{
		Users:        make([]application.User, 0, len(data.Users)),
		Software:     make([]application.SoftwareRequest, 0, len(data.Software)),
		Reservations: make([]application.Reservation, 0, len(data.Reservations)),
	}
	for _, user := range data.Users {
		out.Users = append(out.Users, toApplicationUser(user))
	}
	if out.Spaces, err = toApplicationSpaces(data.Spaces); err != nil {
		return application.Dataset{}, err
	}
	for _, request := range data.Software {
		out.Software = append(out.Software, toApplicationSoftware(request))
	}
	for _, reservation := range data.Reservations {
		out.Reservations = append(out.Reservations, toApplicationReservation(reservation))
	}
	return out, nil
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Role:         string(user.Role),
		Department:   user.Department,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:         model.ID,
		Name:       model.Name,
		Email:      model.Email,
		Role:       application.Role(model.Role),
		Department: model.Department,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceSpace(space application.Space) persistence.Space {
	return persistence.Space{
		ID:          space.ID,
		Code:        space.Code,
		Name:        space.Name,
		Description: space.Description,
		Capacity:    space.Capacity,
		Location:    space.Location,
		Status:      string(space.Status),
		Type:        string(space.Type),
		Software:    append([]string(nil), space.Software...),
		Schedule:    space.Schedule.Labels(),
		CreatedAt:   space.CreatedAt,
		UpdatedAt:   space.UpdatedAt,
	}
}

func toApplicationSpace(model persistence.Space) (application.Space, error) {
	schedule, err := booking.ScheduleFromLabels(model.Schedule)
	if err != nil {
		return application.Space{}, fmt.Errorf("space %d schedule: %w", model.ID, err)
	}
	return application.Space{
		ID:          model.ID,
		Code:        model.Code,
		Name:        model.Name,
		Description: model.Description,
		Capacity:    model.Capacity,
		Location:    model.Location,
		Status:      application.SpaceStatus(model.Status),
		Type:        application.SpaceType(model.Type),
		Software:    append([]string(nil), model.Software...),
		Schedule:    schedule,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

func toApplicationSpaces(models []persistence.Space) ([]application.Space, error) {
	spaces := make([]application.Space, 0, len(models))
	for _, model := range models {
		space, err := toApplicationSpace(model)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, space)
	}
	return spaces, nil
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:          reservation.ID,
		SpaceID:     reservation.SpaceID,
		UserID:      reservation.UserID,
		Date:        reservation.Date,
		Hours:       append([]booking.Slot(nil), reservation.Hours...),
		Purpose:     reservation.Purpose,
		Status:      string(reservation.Status),
		CreatedAt:   reservation.CreatedAt,
		CompletedAt: reservation.CompletedAt,
		CancelledAt: reservation.CancelledAt,
	}
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:          model.ID,
		SpaceID:     model.SpaceID,
		UserID:      model.UserID,
		Date:        model.Date,
		Hours:       append([]booking.Slot(nil), model.Hours...),
		Purpose:     model.Purpose,
		Status:      application.ReservationStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		CompletedAt: model.CompletedAt,
		CancelledAt: model.CancelledAt,
	}
}

func toPersistenceSoftware(request application.SoftwareRequest) persistence.SoftwareRequest {
	return persistence.SoftwareRequest{
		ID:              request.ID,
		Name:            request.Name,
		Version:         request.Version,
		Description:     request.Description,
		Category:        request.Category,
		Type:            string(request.Type),
		Status:          string(request.Status),
		RequestedBy:     request.RequestedBy,
		RequestDate:     request.RequestDate,
		ApprovedDate:    request.ApprovedDate,
		ApprovedBy:      request.ApprovedBy,
		RejectedDate:    request.RejectedDate,
		RejectedBy:      request.RejectedBy,
		RejectionReason: request.RejectionReason,
	}
}

func toApplicationSoftware(model persistence.SoftwareRequest) application.SoftwareRequest {
	return application.SoftwareRequest{
		ID:              model.ID,
		Name:            model.Name,
		Version:         model.Version,
		Description:     model.Description,
		Category:        model.Category,
		Type:            application.SoftwareType(model.Type),
		Status:          application.SoftwareStatus(model.Status),
		RequestedBy:     model.RequestedBy,
		RequestDate:     model.RequestDate,
		ApprovedDate:    model.ApprovedDate,
		ApprovedBy:      model.ApprovedBy,
		RejectedDate:    model.RejectedDate,
		RejectedBy:      model.RejectedBy,
		RejectionReason: model.RejectionReason,
	}
}
