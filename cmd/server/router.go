package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/cart-tracker/internal/api"
	apiMiddleware "github.com/phrazzld/cart-tracker/internal/api/middleware"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	if app.config.Server.MetricsEnabled {
		r.Use(metrics.InstrumentHandler)
	}

	itemHandler := api.NewItemHandler(
		app.intakeService,
		app.config.Cookie,
		app.config.Server.MaxBodyBytes,
		app.logger,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/item", itemHandler.CreateItem)
		r.Get("/item", itemHandler.RejectGet)
	})

	r.Get("/health", healthHandler(app))

	if app.config.Server.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	return r
}

func healthHandler(app *application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	}
}
