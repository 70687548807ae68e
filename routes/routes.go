package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/round-submissions/handlers"
	"github.com/Dosada05/round-submissions/middleware"
	"github.com/Dosada05/round-submissions/services"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Files      *handlers.FileHandler
	Submission *handlers.SubmissionHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(
	router *chi.Mux,
	h Handlers,
	resolver services.IdentityResolver,
	allowedOrigins []string,
	logger *slog.Logger,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Post("/users/signin", h.Auth.SignIn)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Identify(resolver))

		r.Get("/files/{id}", h.Files.Download)
		r.Post("/roundsubmissions/{id}/file", h.Files.UploadSubmissionFile)
		r.Get("/roundsubmissions/{id}", h.Submission.Get)
		r.Post("/events/{id}/initial-file", h.Files.UploadEventInitialFile)
		r.Get("/ws/{channel}", h.WebSocket.ServeWs)
	})
}
