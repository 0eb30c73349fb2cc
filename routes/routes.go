package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/hackathon-registration/handlers"
	"github.com/Dosada05/hackathon-registration/middleware"
)

// SetupRoutes assembles the API router. The frontend is served elsewhere, so
// CORS stays permissive like the original deployment.
func SetupRoutes(router chi.Router, registrationHandler *handlers.RegistrationHandler, logger *slog.Logger) {
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/test", registrationHandler.Test)
		r.Get("/check-team-name/{name}", registrationHandler.CheckTeamName)
		r.Post("/register", registrationHandler.Register)
		r.Get("/registrations/{registrationId}", registrationHandler.GetRegistration)
	})
}
