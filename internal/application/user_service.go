package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users  UserRepository
	hash   PasswordHasher
	now    func() time.Time
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hash: hash, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized)
	if normalized.Password == "" {
		vErr.add("password", "password is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hashed string
	hashed, err = s.hash(normalized.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	user = User{
		Name:       normalized.Name,
		Email:      normalized.Email,
		Role:       normalized.Role,
		Department: normalized.Department,
		CreatedAt:  s.now(),
	}

	user, err = s.users.CreateUser(ctx, user, hashed)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// UpdateUser validates input and updates an existing user for administrators.
// The password changes only when a new one is supplied.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	normalized := normalizeUserInput(params.Input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	var passwordHash *string
	if normalized.Password != "" {
		var hashed string
		hashed, err = s.hash(normalized.Password)
		if err != nil {
			err = fmt.Errorf("hash password: %w", err)
			return
		}
		passwordHash = &hashed
	}

	now := s.now()
	updated := existing
	updated.Name = normalized.Name
	updated.Email = normalized.Email
	updated.Role = normalized.Role
	updated.Department = normalized.Department
	updated.UpdatedAt = &now

	user, err = s.users.UpdateUser(ctx, updated, passwordHash)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// DeleteUser removes a user when requested by an administrator. Administrators
// cannot delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID int64) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)

	if userID == principal.UserID {
		vErr := &ValidationError{}
		vErr.add("user_id", "cannot delete own account")
		logger.ErrorContext(ctx, "failed to delete user", "error", vErr, "error_kind", ErrorKind(vErr))
		return vErr
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// GetUser returns a single user. Professors may only read themselves.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID int64) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin() && principal.UserID != userID {
		return User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return user, nil
}

// ListUsers returns all users ordered by name for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	out := make([]User, len(users))
	copy(out, users)

	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	role := Role(strings.ToLower(strings.TrimSpace(string(input.Role))))
	if role == "" {
		role = RoleProfessor
	}
	return UserInput{
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Role:       role,
		Department: strings.TrimSpace(input.Department),
		Password:   strings.TrimSpace(input.Password),
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if !input.Role.Valid() {
		vErr.add("role", "role is invalid")
	}

	return vErr
}
