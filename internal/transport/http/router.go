// Package httptransport assembles the HTTP surface: module handlers, the
// middleware chain, and the operational endpoints. Business logic stays in
// the module services; this package only mounts them.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retiro/internal/platform/middleware"
	"retiro/pkg/platform/httputil"
)

// Registrar is anything that can mount its routes on a chi router. All
// module handlers satisfy it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthCheckFunc adapts a plain function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Health(ctx context.Context) error { return f(ctx) }

// Deps carries everything the router mounts. Optional entries may be nil.
type Deps struct {
	Retreats      Registrar
	Rosters       Registrar
	Registrations Registrar
	Relationships Registrar
	Payments      Registrar

	SigningKey string
	Logger     *slog.Logger
	Registry   *prometheus.Registry

	// Health checks by dependency name, reported on /healthz.
	Health map[string]HealthChecker
}

// NewRouter builds the full API router. Operational endpoints are open; the
// back-office API requires a bearer token.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestMetadata)

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireBackOffice(deps.SigningKey, logger))
		for _, h := range []Registrar{
			deps.Retreats,
			deps.Rosters,
			deps.Registrations,
			deps.Relationships,
			deps.Payments,
		} {
			if h != nil {
				h.Register(r)
			}
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		report := make(map[string]string, len(checks)+1)
		report["status"] = "ok"
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				report[name] = err.Error()
				report["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		httputil.WriteJSON(w, status, report)
	}
}
