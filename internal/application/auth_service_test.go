package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newAuthFixture(t *testing.T, now *time.Time) (*AuthService, *fakeStore) {
	t.Helper()
	store := seededStore()
	store.passwords[2] = "hash:prof123"
	verify := func(hash, password string) error {
		if hash != "hash:"+password {
			return ErrInvalidCredentials
		}
		return nil
	}
	svc := NewAuthServiceWithLogger(store, verify, []byte("test-secret"), func() time.Time { return *now }, time.Hour, nil)
	return svc, store
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 9, 9, 8, 0, 0, 0, time.UTC)
	svc, _ := newAuthFixture(t, &now)

	t.Run("issues a signed session", func(t *testing.T) {
		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: " Professor@AcademiGold.com ", Password: "prof123"})
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if result.User.ID != 2 || result.Session.UserID != 2 {
			t.Fatalf("unexpected result %+v", result)
		}
		if result.Session.Token == "" || result.Session.ID == "" {
			t.Fatalf("expected token and id, got %+v", result.Session)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("unexpected expiry %v", result.Session.ExpiresAt)
		}
	})

	cases := map[string]AuthenticateParams{
		"wrong password": {Email: "professor@academigold.com", Password: "nope"},
		"unknown email":  {Email: "ghost@academigold.com", Password: "prof123"},
		"missing fields": {},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Authenticate(context.Background(), params); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 9, 9, 8, 0, 0, 0, time.UTC)
	svc, store := newAuthFixture(t, &now)

	result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "professor@academigold.com", Password: "prof123"})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}

	principal, err := svc.ValidateSession(context.Background(), result.Session.Token)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if principal != professor {
		t.Fatalf("expected %+v, got %+v", professor, principal)
	}

	if _, err := svc.ValidateSession(context.Background(), result.Session.Token+"x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for tampered token, got %v", err)
	}

	other := NewAuthService(store, []byte("other-secret"), func() time.Time { return now }, time.Hour)
	if _, err := other.ValidateSession(context.Background(), result.Session.Token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for foreign signature, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svc.ValidateSession(context.Background(), result.Session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestAuthService_ValidateSessionForDeletedUser(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 9, 9, 8, 0, 0, 0, time.UTC)
	svc, store := newAuthFixture(t, &now)

	result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "professor@academigold.com", Password: "prof123"})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	delete(store.users, 2)

	if _, err := svc.ValidateSession(context.Background(), result.Session.Token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
