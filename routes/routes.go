package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/esportshub/esports-hub/handlers"
	"github.com/esportshub/esports-hub/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	tournamentHandler *handlers.TournamentHandler,
	homeHandler *handlers.HomeHandler,
	adminHandler *handlers.AdminHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Публичные маршруты: витрина рейтинга и предстоящих турниров
	router.Get("/home", homeHandler.Home)
	router.Get("/rankings", homeHandler.Rankings)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListUpcoming)
		r.Get("/{id}", tournamentHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/{id}/registrations", tournamentHandler.ListRegistrations)
			r.Post("/register", tournamentHandler.Register)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{id}", teamHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", teamHandler.Create)
			r.Get("/mine", teamHandler.Mine)
			r.Put("/{id}", teamHandler.Update)
			r.Delete("/{id}", teamHandler.Delete)
			r.Post("/{id}/logo", teamHandler.UploadLogo)
			r.Post("/{id}/players", teamHandler.AddPlayer)
			r.Put("/{id}/players/{playerID}", teamHandler.RenamePlayer)
			r.Delete("/{id}/players/{playerID}", teamHandler.RemovePlayer)
		})
	})

	// Админ-панель: управление турнирами, модерация заявок, аудит
	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireAdmin)

		r.Get("/tournaments", adminHandler.ListTournaments)
		r.Post("/tournaments", adminHandler.CreateTournament)
		r.Put("/tournaments/{tournamentID}", adminHandler.UpdateTournament)
		r.Patch("/tournaments/{tournamentID}/visibility", adminHandler.SetTournamentHidden)
		r.Post("/tournaments/{tournamentID}/archive", adminHandler.ArchiveTournament)
		r.Post("/tournaments/sweep", adminHandler.RunSweep)

		r.Post("/registrations/{registrationID}/approve", adminHandler.ApproveRegistration)
		r.Post("/registrations/{registrationID}/reject", adminHandler.RejectRegistration)

		r.Post("/rankings/snapshot", adminHandler.SaveRankSnapshot)
		r.Get("/rankings/snapshot", adminHandler.LatestRankSnapshot)

		r.Get("/audit", adminHandler.ListAuditLog)
		r.Get("/audit/export", adminHandler.ExportAuditLog)
	})
}
