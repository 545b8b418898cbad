package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "academigold"

// sessionClaims is the JWT payload of a session token.
type sessionClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService coordinates login and session validation. Sessions are signed
// HS256 tokens, so nothing is stored server side.
type AuthService struct {
	credentials    CredentialStore
	verifyPassword PasswordVerifier
	secret         []byte
	tokenID        func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, secret []byte, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, nil, secret, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, verify PasswordVerifier, secret []byte, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 8 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		verifyPassword: verify,
		secret:         append([]byte(nil), secret...),
		tokenID:        func() string { return uuid.NewString() },
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}
	if len(s.secret) == 0 {
		err = fmt.Errorf("session secret not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if mapped := mapRepoError(err); errors.Is(mapped, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.issue(creds.User)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

func (s *AuthService) issue(user User) (Session, error) {
	now := s.now()
	session := Session{
		ID:        s.tokenID(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	claims := sessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    sessionIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	session.Token = token
	return session, nil
}

// ValidateSession verifies a session token and resolves the principal. The
// user is re-read so deleted accounts and role changes take effect at once.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	logger := s.loggerWith(ctx, "ValidateSession")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session rejected", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	token = strings.TrimSpace(token)
	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	claims := &sessionClaims{}
	_, parseErr := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if parseErr != nil {
		if errors.Is(parseErr, jwt.ErrTokenExpired) {
			err = ErrSessionExpired
			return
		}
		err = ErrInvalidCredentials
		return
	}

	userID, convErr := strconv.ParseInt(claims.Subject, 10, 64)
	if convErr != nil || userID <= 0 {
		err = ErrInvalidCredentials
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, userID)
	if err != nil {
		if mapped := mapRepoError(err); errors.Is(mapped, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	principal = Principal{UserID: user.ID, Role: user.Role}
	return
}
