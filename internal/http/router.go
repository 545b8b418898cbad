package http

import (
	"net/http"
	"strconv"
	"strings"
)

type RouterConfig struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Spaces       *SpaceHandler
	Reservations *ReservationHandler
	Software     *SoftwareHandler
	Statistics   *StatisticsHandler
	// Metrics is served unauthenticated at /metrics when set.
	Metrics http.Handler
	// RequireSession guards every route except login, /healthz and /metrics.
	RequireSession func(http.Handler) http.Handler
	// Instrument wraps each route with its pattern as label.
	Instrument func(route string, next http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, public bool, fn http.HandlerFunc) {
		var h http.Handler = fn
		if !public && cfg.RequireSession != nil {
			h = cfg.RequireSession(h)
		}
		if cfg.Instrument != nil {
			h = cfg.Instrument(pattern, h)
		}
		mux.Handle(pattern, h)
	}

	handle("/healthz", true, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	if cfg.Auth != nil {
		handle("/sessions", true, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		handle("/sessions/current", false, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Auth.CurrentSession(w, r)
			case http.MethodDelete:
				cfg.Auth.DeleteCurrentSession(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	if cfg.Spaces != nil {
		handle("/spaces", false, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Spaces.List(w, r)
			case http.MethodPost:
				cfg.Spaces.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		handle("/spaces/", false, func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := resourcePath(r.URL.Path, "/spaces/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithSpaceID(r.Context(), id))
			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Spaces.Get(w, r)
				case http.MethodPut:
					cfg.Spaces.Update(w, r)
				case http.MethodDelete:
					cfg.Spaces.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "status":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Spaces.SetStatus(w, r)
			case "availability":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Spaces.Availability(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Reservations != nil {
		handle("/reservations", false, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Reservations.List(w, r)
			case http.MethodPost:
				cfg.Reservations.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		handle("/reservations/check", false, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Reservations.Check(w, r)
		})
		handle("/reservations/", false, func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := resourcePath(r.URL.Path, "/reservations/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithReservationID(r.Context(), id))
			switch action {
			case "":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Reservations.Get(w, r)
			case "complete", "cancel":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				if action == "complete" {
					cfg.Reservations.Complete(w, r)
				} else {
					cfg.Reservations.Cancel(w, r)
				}
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Software != nil {
		handle("/software", false, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Software.List(w, r)
			case http.MethodPost:
				cfg.Software.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		handle("/software/", false, func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := resourcePath(r.URL.Path, "/software/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithSoftwareID(r.Context(), id))
			switch action {
			case "":
				if r.Method != http.MethodDelete {
					methodNotAllowed(w, http.MethodDelete)
					return
				}
				cfg.Software.Delete(w, r)
			case "approve", "reject":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				if action == "approve" {
					cfg.Software.Approve(w, r)
				} else {
					cfg.Software.Reject(w, r)
				}
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Users != nil {
		handle("/users", false, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.List(w, r)
			case http.MethodPost:
				cfg.Users.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		handle("/users/", false, func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := resourcePath(r.URL.Path, "/users/")
			if !ok || action != "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithUserID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Users.Get(w, r)
			case http.MethodPut:
				cfg.Users.Update(w, r)
			case http.MethodDelete:
				cfg.Users.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Statistics != nil {
		handle("/statistics", false, getOnly(cfg.Statistics.Overview))
		handle("/statistics/reservations", false, getOnly(cfg.Statistics.Reservations))
		handle("/statistics/available", false, getOnly(cfg.Statistics.Available))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// resourcePath splits "/prefix/{id}[/action]" into its numeric id and action.
func resourcePath(path, prefix string) (int64, string, bool) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return 0, "", false
	}
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	if strings.Contains(action, "/") {
		return 0, "", false
	}
	return id, action, true
}

func getOnly(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		fn(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
