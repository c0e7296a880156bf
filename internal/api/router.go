package api

import (
	"net/http"

	_ "fxengine/docs"
	"fxengine/internal/rate/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func NewRouter(rateHandler *handler.Handler, adminRate limiter.Rate, gatherer prometheus.Gatherer) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Get("/api/v1/rates/supported-currencies", rateHandler.GetSupportedCodes)
	router.Get("/api/v1/rates/{base:[A-Za-z]{3}}/{quote:[A-Za-z]{3}}", rateHandler.GetRate)
	router.Get("/api/v1/convert", rateHandler.Convert)

	router.Route("/api/v1/fx", func(r chi.Router) {
		r.Get("/health", rateHandler.Health)
		r.Get("/mode", rateHandler.GetMode)
		r.Get("/settings", rateHandler.GetSettings)
		r.Get("/volatility", rateHandler.Volatility)
		r.Post("/cache/clear", rateHandler.ClearCache)

		// refresh and toggle hit the provider or reset the memo, so they are throttled
		r.Group(func(r chi.Router) {
			r.Use(adminLimiter(adminRate))
			r.Post("/refresh", rateHandler.Refresh)
			r.Post("/mode/toggle", rateHandler.ToggleMode)
		})
	})
	return router
}

// adminLimiter throttles per client IP with an in-memory store.
func adminLimiter(rate limiter.Rate) func(http.Handler) http.Handler {
	instance := limiter.New(memory.NewStore(), rate)
	return stdlib.NewMiddleware(instance).Handler
}
