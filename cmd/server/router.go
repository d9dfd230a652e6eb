package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkessler/worklog-api/internal/api"
	apiMiddleware "github.com/mkessler/worklog-api/internal/api/middleware"
	"github.com/mkessler/worklog-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.oauth,
		app.jwtService,
		app.users,
		app.registry,
		&app.config.Auth,
		app.logger,
	)
	repoHandler := api.NewRepoHandler(app.github, app.registry, app.logger)
	activityHandler := api.NewActivityHandler(app.activity, app.registry, app.logger)
	summarizeHandler := api.NewSummarizeHandler(app.summarize, app.registry, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// OAuth endpoints (public)
		r.Get("/auth/login", authHandler.Login)
		r.Get("/auth/callback", authHandler.Callback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/repos", repoHandler.ListRepos)
			r.Get("/activity/{owner}/{repo}", activityHandler.Get)

			r.Post("/summarize/start", summarizeHandler.Start)
			r.Get("/summarize/status/{jobID}", summarizeHandler.Status)
			r.Get("/summarize/saved", summarizeHandler.Saved)
		})
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
			"status":  "ok",
			"backend": app.backendName,
		})
	})

	return r
}
