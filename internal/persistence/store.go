package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Store is the entity store: it owns the users, spaces, software and
// reservations collections, loads them once at Open and re-serializes a whole
// collection on every mutation. Readers always receive copies.
type Store struct {
	mu     sync.RWMutex
	docs   Documents
	logger *slog.Logger

	users        []User
	spaces       []Space
	software     []SoftwareRequest
	reservations []Reservation
	seq          Sequences
}

// Options configures Open.
type Options struct {
	Logger *slog.Logger
	// Seed supplies the records used when a document is missing or unreadable.
	// Defaults to DefaultSeed without password hashes.
	Seed func() Dataset
}

// Open loads every collection from docs. Missing or undecodable documents fall
// back to the seed dataset; backend read failures are returned.
func Open(ctx context.Context, docs Documents, opts Options) (*Store, error) {
	if docs == nil {
		return nil, errors.New("persistence: documents backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	seedFn := opts.Seed
	if seedFn == nil {
		seedFn = func() Dataset { return DefaultSeed(nil, time.Now()) }
	}

	var seeded *Dataset
	seed := func() Dataset {
		if seeded == nil {
			d := seedFn()
			seeded = &d
		}
		return *seeded
	}

	s := &Store{docs: docs, logger: logger.With("component", "persistence.Store")}

	var err error
	if s.users, err = loadCollection(ctx, s, KeyUsers, func() []User { return seed().Users }, userID); err != nil {
		return nil, err
	}
	if s.spaces, err = loadCollection(ctx, s, KeySpaces, func() []Space { return seed().Spaces }, spaceID); err != nil {
		return nil, err
	}
	if s.software, err = loadCollection(ctx, s, KeySoftware, func() []SoftwareRequest { return seed().Software }, softwareID); err != nil {
		return nil, err
	}
	if s.reservations, err = loadCollection(ctx, s, KeyReservations, func() []Reservation { return seed().Reservations }, reservationID); err != nil {
		return nil, err
	}
	if err := s.loadSequences(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Close releases the documents backend.
func (s *Store) Close() error {
	if s == nil || s.docs == nil {
		return nil
	}
	return s.docs.Close()
}

func loadCollection[T any](ctx context.Context, s *Store, key string, fallback func() []T, idOf func(T) int64) ([]T, error) {
	payload, err := s.docs.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.InfoContext(ctx, "document missing, using seed data", "key", key)
		return dedupeByID(fallback(), idOf), nil
	case err != nil:
		return nil, fmt.Errorf("persistence: load %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		s.logger.WarnContext(ctx, "document unreadable, using seed data", "key", key, "error", err)
		return dedupeByID(fallback(), idOf), nil
	}
	// A JSON null is not a collection; an emptied collection is stored as [].
	if items == nil {
		s.logger.WarnContext(ctx, "document is not an array, using seed data", "key", key)
		return dedupeByID(fallback(), idOf), nil
	}
	return dedupeByID(items, idOf), nil
}

func (s *Store) loadSequences(ctx context.Context) error {
	floor := Sequences{
		Users:        maxID(s.users, userID),
		Spaces:       maxID(s.spaces, spaceID),
		Software:     maxID(s.software, softwareID),
		Reservations: maxID(s.reservations, reservationID),
	}

	payload, err := s.docs.Get(ctx, KeySequences)
	switch {
	case errors.Is(err, ErrNotFound):
		s.seq = floor
		return nil
	case err != nil:
		return fmt.Errorf("persistence: load %s: %w", KeySequences, err)
	}

	var stored Sequences
	if err := json.Unmarshal(payload, &stored); err != nil {
		s.logger.WarnContext(ctx, "sequences unreadable, deriving from records", "error", err)
		s.seq = floor
		return nil
	}

	s.seq = Sequences{
		Users:        max(stored.Users, floor.Users),
		Spaces:       max(stored.Spaces, floor.Spaces),
		Software:     max(stored.Software, floor.Software),
		Reservations: max(stored.Reservations, floor.Reservations),
	}
	return nil
}

// Snapshot returns a copy of every collection.
func (s *Store) Snapshot(ctx context.Context) (Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Dataset{
		Users:        cloneAll(s.users, cloneUser),
		Spaces:       cloneAll(s.spaces, cloneSpace),
		Software:     cloneAll(s.software, cloneSoftware),
		Reservations: cloneAll(s.reservations, cloneReservation),
	}, nil
}

// --- users ---

// ListUsers returns every user in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.users, cloneUser), nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := find(s.users, id, userID)
	if !ok {
		return User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail looks a user up by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return cloneUser(user), nil
		}
	}
	return User{}, ErrNotFound
}

// CreateUser assigns the next user id and appends the record.
func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(0, user.Email) {
		return User{}, fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
	}

	seq := s.seq
	seq.Users++
	user.ID = seq.Users

	next := append(cloneAll(s.users, cloneUser), cloneUser(user))
	if err := s.writeLocked(ctx, KeyUsers, next, seq); err != nil {
		return User{}, err
	}
	s.users, s.seq = next, seq
	return cloneUser(user), nil
}

// UpdateUser replaces an existing user.
func (s *Store) UpdateUser(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := find(s.users, user.ID, userID); !ok {
		return User{}, ErrNotFound
	}
	if s.emailTakenLocked(user.ID, user.Email) {
		return User{}, fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
	}

	next := upsert(cloneAll(s.users, cloneUser), cloneUser(user), userID)
	if err := s.writeLocked(ctx, KeyUsers, next, s.seq); err != nil {
		return User{}, err
	}
	s.users = next
	return cloneUser(user), nil
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := without(s.users, id, userID)
	if !ok {
		return ErrNotFound
	}
	if err := s.writeLocked(ctx, KeyUsers, next, s.seq); err != nil {
		return err
	}
	s.users = next
	return nil
}

func (s *Store) emailTakenLocked(id int64, email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, existing := range s.users {
		if existing.ID != id && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

// --- spaces ---

// ListSpaces returns every space in insertion order.
func (s *Store) ListSpaces(ctx context.Context) ([]Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.spaces, cloneSpace), nil
}

// GetSpace returns the space with the given id.
func (s *Store) GetSpace(ctx context.Context, id int64) (Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	space, ok := find(s.spaces, id, spaceID)
	if !ok {
		return Space{}, ErrNotFound
	}
	return cloneSpace(space), nil
}

// CreateSpace assigns the next space id and appends the record.
func (s *Store) CreateSpace(ctx context.Context, space Space) (Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.codeTakenLocked(0, space.Code) {
		return Space{}, fmt.Errorf("%w: code %s", ErrDuplicate, space.Code)
	}

	seq := s.seq
	seq.Spaces++
	space.ID = seq.Spaces

	next := append(cloneAll(s.spaces, cloneSpace), cloneSpace(space))
	if err := s.writeLocked(ctx, KeySpaces, next, seq); err != nil {
		return Space{}, err
	}
	s.spaces, s.seq = next, seq
	return cloneSpace(space), nil
}

// UpdateSpace replaces an existing space.
func (s *Store) UpdateSpace(ctx context.Context, space Space) (Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := find(s.spaces, space.ID, spaceID); !ok {
		return Space{}, ErrNotFound
	}
	if s.codeTakenLocked(space.ID, space.Code) {
		return Space{}, fmt.Errorf("%w: code %s", ErrDuplicate, space.Code)
	}

	next := upsert(cloneAll(s.spaces, cloneSpace), cloneSpace(space), spaceID)
	if err := s.writeLocked(ctx, KeySpaces, next, s.seq); err != nil {
		return Space{}, err
	}
	s.spaces = next
	return cloneSpace(space), nil
}

// DeleteSpace removes a space.
func (s *Store) DeleteSpace(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := without(s.spaces, id, spaceID)
	if !ok {
		return ErrNotFound
	}
	if err := s.writeLocked(ctx, KeySpaces, next, s.seq); err != nil {
		return err
	}
	s.spaces = next
	return nil
}

func (s *Store) codeTakenLocked(id int64, code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, existing := range s.spaces {
		if existing.ID != id && strings.EqualFold(existing.Code, code) {
			return true
		}
	}
	return false
}

// --- software requests ---

// ListSoftware returns every software request in insertion order.
func (s *Store) ListSoftware(ctx context.Context) ([]SoftwareRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.software, cloneSoftware), nil
}

// GetSoftware returns the software request with the given id.
func (s *Store) GetSoftware(ctx context.Context, id int64) (SoftwareRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := find(s.software, id, softwareID)
	if !ok {
		return SoftwareRequest{}, ErrNotFound
	}
	return cloneSoftware(request), nil
}

// CreateSoftware assigns the next request id and appends the record.
func (s *Store) CreateSoftware(ctx context.Context, request SoftwareRequest) (SoftwareRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seq
	seq.Software++
	request.ID = seq.Software

	next := append(cloneAll(s.software, cloneSoftware), cloneSoftware(request))
	if err := s.writeLocked(ctx, KeySoftware, next, seq); err != nil {
		return SoftwareRequest{}, err
	}
	s.software, s.seq = next, seq
	return cloneSoftware(request), nil
}

// UpdateSoftware replaces an existing software request.
func (s *Store) UpdateSoftware(ctx context.Context, request SoftwareRequest) (SoftwareRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := find(s.software, request.ID, softwareID); !ok {
		return SoftwareRequest{}, ErrNotFound
	}

	next := upsert(cloneAll(s.software, cloneSoftware), cloneSoftware(request), softwareID)
	if err := s.writeLocked(ctx, KeySoftware, next, s.seq); err != nil {
		return SoftwareRequest{}, err
	}
	s.software = next
	return cloneSoftware(request), nil
}

// DeleteSoftware removes a software request.
func (s *Store) DeleteSoftware(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := without(s.software, id, softwareID)
	if !ok {
		return ErrNotFound
	}
	if err := s.writeLocked(ctx, KeySoftware, next, s.seq); err != nil {
		return err
	}
	s.software = next
	return nil
}

// --- reservations ---

// ListReservations returns every reservation in insertion order.
func (s *Store) ListReservations(ctx context.Context) ([]Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.reservations, cloneReservation), nil
}

// GetReservation returns the reservation with the given id.
func (s *Store) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reservation, ok := find(s.reservations, id, reservationID)
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return cloneReservation(reservation), nil
}

// CreateReservation assigns the next reservation id and appends the record.
func (s *Store) CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seq
	seq.Reservations++
	reservation.ID = seq.Reservations

	next := append(cloneAll(s.reservations, cloneReservation), cloneReservation(reservation))
	if err := s.writeLocked(ctx, KeyReservations, next, seq); err != nil {
		return Reservation{}, err
	}
	s.reservations, s.seq = next, seq
	return cloneReservation(reservation), nil
}

// UpdateReservation replaces an existing reservation.
func (s *Store) UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := find(s.reservations, reservation.ID, reservationID); !ok {
		return Reservation{}, ErrNotFound
	}

	next := upsert(cloneAll(s.reservations, cloneReservation), cloneReservation(reservation), reservationID)
	if err := s.writeLocked(ctx, KeyReservations, next, s.seq); err != nil {
		return Reservation{}, err
	}
	s.reservations = next
	return cloneReservation(reservation), nil
}

// ReplaceReservations swaps the whole collection. Duplicate ids collapse to
// the last occurrence and the sequence is raised past the highest id.
func (s *Store) ReplaceReservations(ctx context.Context, reservations []Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := dedupeByID(cloneAll(reservations, cloneReservation), reservationID)
	seq := s.seq
	seq.Reservations = max(seq.Reservations, maxID(next, reservationID))
	if err := s.writeLocked(ctx, KeyReservations, next, seq); err != nil {
		return err
	}
	s.reservations, s.seq = next, seq
	return nil
}

// --- write path ---

func (s *Store) writeLocked(ctx context.Context, key string, items any, seq Sequences) error {
	if seq != s.seq {
		if err := s.putLocked(ctx, KeySequences, seq); err != nil {
			return err
		}
	}
	return s.putLocked(ctx, key, items)
}

func (s *Store) putLocked(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("persistence: encode %s: %w", key, err)
	}
	if err := s.docs.Put(ctx, key, payload); err != nil {
		s.logger.ErrorContext(ctx, "failed to save document", "key", key, "error", err)
		return fmt.Errorf("persistence: save %s: %w", key, err)
	}
	return nil
}

// --- generic collection helpers ---

func userID(u User) int64                { return u.ID }
func spaceID(s Space) int64              { return s.ID }
func softwareID(r SoftwareRequest) int64 { return r.ID }
func reservationID(r Reservation) int64  { return r.ID }

func cloneAll[T any](items []T, clone func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = clone(item)
	}
	return out
}

func find[T any](items []T, id int64, idOf func(T) int64) (T, bool) {
	for _, item := range items {
		if idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func upsert[T any](items []T, item T, idOf func(T) int64) []T {
	id := idOf(item)
	for i := range items {
		if idOf(items[i]) == id {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func without[T any](items []T, id int64, idOf func(T) int64) ([]T, bool) {
	out := make([]T, 0, len(items))
	removed := false
	for _, item := range items {
		if idOf(item) == id {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed
}

// dedupeByID keeps one entry per id: the last one seen, at the position of the first.
func dedupeByID[T any](items []T, idOf func(T) int64) []T {
	if len(items) == 0 {
		return items
	}
	index := make(map[int64]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := idOf(item)
		if pos, ok := index[id]; ok {
			out[pos] = item
			continue
		}
		index[id] = len(out)
		out = append(out, item)
	}
	return out
}

func maxID[T any](items []T, idOf func(T) int64) int64 {
	var highest int64
	for _, item := range items {
		if id := idOf(item); id > highest {
			highest = id
		}
	}
	return highest
}
