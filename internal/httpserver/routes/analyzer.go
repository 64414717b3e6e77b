package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipbook/clipbook/internal/httpserver/deps"
	"github.com/clipbook/clipbook/internal/httpserver/handlers"
	"github.com/clipbook/clipbook/internal/httpserver/mw"
)

func init() { Register(registerAnalyzer) }

func registerAnalyzer(r chi.Router, d deps.Deps) {
	guarded := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)

	guarded.Get("/api/analyzer/status", handlers.AnalyzerStatus(d))

	// The text-generation endpoints are expensive remote calls; a
	// per-IP token bucket keeps a misbehaving UI from hammering them.
	limited := guarded.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             5,
		RefillPerIPPerMin: 10,
		MaxEntries:        1024,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	}))

	limited.Post("/api/explain", handlers.Explain(d))
	limited.Post("/api/optimize", handlers.Optimize(d))
	limited.Post("/api/related", handlers.Related(d))
}
