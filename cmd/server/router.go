package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/wordwise-srs/internal/api"
	"github.com/phrazzld/wordwise-srs/internal/api/middleware"
	"github.com/rs/cors"
)

// setupRouter builds the HTTP handler tree.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware(app.logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: app.config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}).Handler)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	studyHandler := api.NewStudyHandler(app.studyService, app.logger)
	authMiddleware := middleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/profile", studyHandler.GetProfile)
		r.Put("/profile/preferences", studyHandler.UpdatePreferences)

		r.Route("/words", func(r chi.Router) {
			r.Get("/studied", studyHandler.StudiedWords)
			r.Get("/leeches", studyHandler.Leeches)
			r.Post("/{wordID}/learn", studyHandler.LearnWord)
			r.Post("/{wordID}/review", studyHandler.ReviewWord)
			r.Post("/{wordID}/postpone", studyHandler.PostponeWord)
		})

		r.Get("/reviews/due", studyHandler.DueReviews)
		r.Get("/stats", studyHandler.Stats)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := app.db.PingContext(r.Context()); err != nil {
			app.logger.Warn("health check failed: database unreachable")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response")
		}
	})

	return r
}
