// Package httpapi assembles the HTTP surface: public reads, token-gated
// mutations, exports, and the operational endpoints.
package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	agghandler "epistats/internal/aggregate/handler"
	exporthandler "epistats/internal/export/handler"
	"epistats/internal/platform/middleware"
	platformredis "epistats/internal/platform/redis"
	statshandler "epistats/internal/stats/handler"
	"epistats/pkg/platform/httputil"
)

// Deps carries everything the router wires together.
type Deps struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	Stats          *statshandler.Handler
	Aggregates     *agghandler.Handler
	Exports        *exporthandler.Handler
	DB             *sql.DB
	Redis          *platformredis.Client

	// LegacyAggregateData points GET /data/{country} at the flattened
	// snapshot table instead of the per-date store.
	LegacyAggregateData bool
}

// NewRouter builds the chi router. Mutating routes sit behind the auth
// middleware; reads and exports are public.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestMetadata)

	r.Route("/api", func(r chi.Router) {
		deps.Stats.Register(r)
		deps.Aggregates.Register(r)
		deps.Exports.Register(r)

		// The generic read path targets whichever schema the deployment runs.
		if deps.LegacyAggregateData {
			r.Get("/data/{country}", deps.Aggregates.HandleGet)
		} else {
			r.Get("/data/{country}", deps.Stats.HandleGet)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.TokenValidator, deps.Logger))
			deps.Stats.RegisterProtected(r)
			deps.Aggregates.RegisterProtected(r)
		})
	})

	r.Get("/healthz", healthz(deps))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func healthz(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.DB.PingContext(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "postgres": "down"})
			return
		}
		if deps.Redis != nil {
			if err := deps.Redis.Health(ctx); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": "down"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
