package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/observability"
	"github.com/thriftstock/thriftstock/internal/platform/httpx"
	"github.com/thriftstock/thriftstock/internal/shared"
	"github.com/thriftstock/thriftstock/internal/view"
	console "github.com/thriftstock/thriftstock/internal/web"
	"github.com/thriftstock/thriftstock/jobs"
	"github.com/thriftstock/thriftstock/web"
)

// HealthChecker probes the inventory backend. *backend.Client satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) (backend.Health, error)
}

// RefdataStatus reports whether reference data is usable.
type RefdataStatus interface {
	Ready() bool
	Loading() bool
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	WebHandler     *console.Handler
	JobHandler     *jobs.Handler
	Backend        HealthChecker
	Refdata        RefdataStatus
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	// Probes and metrics sit outside sessions, CSRF and rate limiting.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(params))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		if params.WebHandler != nil {
			params.WebHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

type readiness struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Refdata string `json:"refdata,omitempty"`
}

// readyHandler reports 200 only when the backend answers its health probe.
// Reference data state is informational.
func readyHandler(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := readiness{Status: "ok", Backend: "ok"}
		if params.Refdata != nil {
			switch {
			case params.Refdata.Ready():
				out.Refdata = "ready"
			case params.Refdata.Loading():
				out.Refdata = "loading"
			default:
				out.Refdata = "unavailable"
			}
		}
		if params.Backend == nil {
			httpx.JSON(w, http.StatusOK, out)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		health, err := params.Backend.Health(ctx)
		if err != nil {
			params.Logger.Warn("readiness probe failed", slog.Any("error", err))
			httpx.RespondError(w, httpx.Unavailable(shared.UserSafeMessage(err), err))
			return
		}
		if health.Status != "" {
			out.Backend = health.Status
		}
		httpx.JSON(w, http.StatusOK, out)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
