package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/academigold/internal/booking"
)

// fakeStore is an in-memory implementation of every repository interface.
type fakeStore struct {
	mu sync.Mutex

	users        map[int64]User
	passwords    map[int64]string
	spaces       map[int64]Space
	reservations map[int64]Reservation
	software     map[int64]SoftwareRequest
	nextID       int64

	listErr   error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int64]User),
		passwords:    make(map[int64]string),
		spaces:       make(map[int64]Space),
		reservations: make(map[int64]Reservation),
		software:     make(map[int64]SoftwareRequest),
		nextID:       100,
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return User{}, ErrAlreadyExists
		}
	}
	if user.ID == 0 {
		user.ID = f.id()
	}
	f.users[user.ID] = user
	f.passwords[user.ID] = passwordHash
	return user, nil
}

func (f *fakeStore) GetUser(ctx context.Context, id int64) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, user User, passwordHash *string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	f.users[user.ID] = user
	if passwordHash != nil {
		f.passwords[user.ID] = *passwordHash
	}
	return user, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return ErrNotFound
	}
	delete(f.users, id)
	delete(f.passwords, id)
	return nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeStore) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return UserCredentials{User: user, PasswordHash: f.passwords[id]}, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (f *fakeStore) CreateSpace(ctx context.Context, space Space) (Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.spaces {
		if existing.Code == space.Code {
			return Space{}, ErrAlreadyExists
		}
	}
	if space.ID == 0 {
		space.ID = f.id()
	}
	f.spaces[space.ID] = space
	return space, nil
}

func (f *fakeStore) GetSpace(ctx context.Context, id int64) (Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	space, ok := f.spaces[id]
	if !ok {
		return Space{}, ErrNotFound
	}
	return space, nil
}

func (f *fakeStore) UpdateSpace(ctx context.Context, space Space) (Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.spaces[space.ID]; !ok {
		return Space{}, ErrNotFound
	}
	f.spaces[space.ID] = space
	return space, nil
}

func (f *fakeStore) DeleteSpace(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.spaces[id]; !ok {
		return ErrNotFound
	}
	delete(f.spaces, id)
	return nil
}

func (f *fakeStore) ListSpaces(ctx context.Context) ([]Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Space, 0, len(f.spaces))
	for _, space := range f.spaces {
		out = append(out, space)
	}
	return out, nil
}

func (f *fakeStore) CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reservation.ID == 0 {
		reservation.ID = f.id()
	}
	f.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (f *fakeStore) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return reservation, nil
}

func (f *fakeStore) UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return Reservation{}, f.updateErr
	}
	if _, ok := f.reservations[reservation.ID]; !ok {
		return Reservation{}, ErrNotFound
	}
	f.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (f *fakeStore) ListReservations(ctx context.Context) ([]Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Reservation, 0, len(f.reservations))
	for _, reservation := range f.reservations {
		out = append(out, reservation)
	}
	return out, nil
}

func (f *fakeStore) CreateSoftware(ctx context.Context, request SoftwareRequest) (SoftwareRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if request.ID == 0 {
		request.ID = f.id()
	}
	f.software[request.ID] = request
	return request, nil
}

func (f *fakeStore) GetSoftware(ctx context.Context, id int64) (SoftwareRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.software[id]
	if !ok {
		return SoftwareRequest{}, ErrNotFound
	}
	return request, nil
}

func (f *fakeStore) UpdateSoftware(ctx context.Context, request SoftwareRequest) (SoftwareRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.software[request.ID]; !ok {
		return SoftwareRequest{}, ErrNotFound
	}
	f.software[request.ID] = request
	return request, nil
}

func (f *fakeStore) DeleteSoftware(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.software[id]; !ok {
		return ErrNotFound
	}
	delete(f.software, id)
	return nil
}

func (f *fakeStore) ListSoftware(ctx context.Context) ([]SoftwareRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SoftwareRequest, 0, len(f.software))
	for _, request := range f.software {
		out = append(out, request)
	}
	return out, nil
}

func (f *fakeStore) Snapshot(ctx context.Context) (Dataset, error) {
	users, _ := f.ListUsers(ctx)
	spaces, _ := f.ListSpaces(ctx)
	software, _ := f.ListSoftware(ctx)
	reservations, err := f.ListReservations(ctx)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Users: users, Spaces: spaces, Software: software, Reservations: reservations}, nil
}

var (
	admin     = Principal{UserID: 1, Role: RoleAdmin}
	professor = Principal{UserID: 2, Role: RoleProfessor}
	colleague = Principal{UserID: 3, Role: RoleProfessor}
)

// monday is 2024-09-09.
var monday = booking.NewDate(2024, time.September, 9)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seededStore holds users 1-3 and two weekday laboratories: LAB01 (id 10)
// offering 07:00-09:00 and LAB02 (id 11) offering 07:00-11:00.
func seededStore() *fakeStore {
	store := newFakeStore()
	store.users[1] = User{ID: 1, Name: "João Silva", Email: "admin@academigold.com", Role: RoleAdmin}
	store.users[2] = User{ID: 2, Name: "Maria Santos", Email: "professor@academigold.com", Role: RoleProfessor}
	store.users[3] = User{ID: 3, Name: "Ana Costa", Email: "ana@academigold.com", Role: RoleProfessor}

	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	store.spaces[10] = Space{
		ID: 10, Code: "LAB01", Name: "Laboratório de Informática 1", Capacity: 30,
		Status: SpaceActive, Type: SpaceLaboratory,
		Schedule: booking.UniformSchedule(booking.HourRange(7, 10), weekdays...),
	}
	store.spaces[11] = Space{
		ID: 11, Code: "LAB02", Name: "Laboratório de Informática 2", Capacity: 25,
		Status: SpaceActive, Type: SpaceLaboratory,
		Schedule: booking.UniformSchedule(booking.HourRange(7, 12), weekdays...),
	}
	return store
}
