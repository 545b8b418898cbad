package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/example/academigold/internal/config"
	"github.com/example/academigold/internal/testfixtures"
)

func TestOpenDocuments(t *testing.T) {
	t.Parallel()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()

		docs, err := openDocuments(context.Background(), config.Config{StoreDriver: config.DriverMemory})
		if err != nil {
			t.Fatalf("openDocuments: %v", err)
		}
		defer docs.Close()
	})

	t.Run("sqlite file", func(t *testing.T) {
		t.Parallel()

		cfg := config.Config{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "academigold.db")}
		docs, err := openDocuments(context.Background(), cfg)
		if err != nil {
			t.Fatalf("openDocuments: %v", err)
		}
		if err := docs.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()

		if _, err := openDocuments(context.Background(), config.Config{StoreDriver: "mongo"}); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})
}

func TestAppEndToEnd(t *testing.T) {
	t.Parallel()

	// The seed occupies LAB01 on 2024-09-09; the following Monday is free.
	now := func() time.Time { return time.Date(2024, 9, 16, 6, 0, 0, 0, time.Local) }
	cfg := config.Config{
		StoreDriver:   config.DriverMemory,
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := newApp(context.Background(), cfg, logger, now)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	admin := login(t, a.handler, "admin@academigold.com", "admin123")
	professor := login(t, a.handler, "professor@academigold.com", "prof123")

	rec := do(a.handler, http.MethodGet, "/spaces?search=lab01", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list spaces: %d %s", rec.Code, rec.Body.String())
	}
	var spaces struct {
		Spaces []struct {
			ID   int64  `json:"id"`
			Code string `json:"code"`
		} `json:"spaces"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spaces); err != nil {
		t.Fatalf("decode spaces: %v", err)
	}
	if len(spaces.Spaces) != 1 || spaces.Spaces[0].Code != "LAB01" {
		t.Fatalf("unexpected spaces %+v", spaces.Spaces)
	}
	labID := spaces.Spaces[0].ID

	body := `{"space_id":` + itoa(labID) + `,"date":"2024-09-16","hours":["08:00","09:00"],"purpose":"Aula de algoritmos"}`
	rec = do(a.handler, http.MethodPost, "/reservations", professor, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reservation: %d %s", rec.Code, rec.Body.String())
	}

	overlap := `{"space_id":` + itoa(labID) + `,"user_id":1,"date":"2024-09-16","hours":["09:00"],"purpose":"Reunião"}`
	rec = do(a.handler, http.MethodPost, "/reservations", admin, overlap)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "SPACE_OCCUPIED") {
		t.Fatalf("expected SPACE_OCCUPIED, got %s", rec.Body.String())
	}

	rec = do(a.handler, http.MethodGet, "/spaces/"+itoa(labID)+"/availability?date=2024-09-16", professor, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("availability: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"08:00"`) || !strings.Contains(rec.Body.String(), `"07:00"`) {
		t.Fatalf("unexpected availability %s", rec.Body.String())
	}

	rec = do(a.handler, http.MethodGet, "/users", professor, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected professor to be forbidden from listing users, got %d", rec.Code)
	}

	rec = do(a.handler, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	for _, want := range []string{
		"academigold_reservations_created_total 1",
		`academigold_reservation_conflicts_total{kind="SPACE_OCCUPIED"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestSweepCompletesElapsedReservations(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(testfixtures.ReferenceTime().AddDate(0, 0, 7))
	cfg := config.Config{StoreDriver: config.DriverMemory, SessionSecret: "s", SessionTTL: 12 * time.Hour}

	a, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), clock.NowFunc())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	professor := login(t, a.handler, "professor@academigold.com", "prof123")
	rec := do(a.handler, http.MethodPost, "/reservations", professor,
		`{"space_id":1,"date":"`+clock.Today().String()+`","hours":["07:00"],"purpose":"Monitoria"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reservation: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Reservation struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"reservation"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode reservation: %v", err)
	}
	if created.Reservation.Status != "confirmed" {
		t.Fatalf("expected confirmed reservation, got %q", created.Reservation.Status)
	}
	path := "/reservations/" + itoa(created.Reservation.ID)

	a.sweep(context.Background())
	if got := reservationStatus(t, a.handler, path, professor); got != "confirmed" {
		t.Fatalf("expected reservation to stay confirmed before its end, got %q", got)
	}

	clock.Advance(3 * time.Hour)
	a.sweep(context.Background())

	if got := reservationStatus(t, a.handler, path, professor); got != "completed" {
		t.Fatalf("expected sweep to complete the reservation, got %q", got)
	}
}

func reservationStatus(t *testing.T, handler http.Handler, path, token string) string {
	t.Helper()
	rec := do(handler, http.MethodGet, path, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get %s: %d %s", path, rec.Code, rec.Body.String())
	}
	var body struct {
		Reservation struct {
			Status string `json:"status"`
		} `json:"reservation"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode reservation: %v", err)
	}
	return body.Reservation.Status
}

func login(t *testing.T, handler http.Handler, email, password string) string {
	t.Helper()
	rec := do(handler, http.MethodPost, "/sessions", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	token := rec.Header().Get("X-Session-Token")
	if token == "" {
		t.Fatalf("login %s: missing token", email)
	}
	return token
}

func do(handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
