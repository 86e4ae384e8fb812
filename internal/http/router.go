package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/offerslab/offers-api/internal/http/handlers"
	"github.com/offerslab/offers-api/internal/identity"
	"github.com/offerslab/offers-api/internal/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	authHandler *handlers.AuthHandler,
	itemsHandler *handlers.ItemsHandler,
	tokens *identity.TokenService,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)

	allowCredentials := len(allowedOrigins) > 0 && allowedOrigins[0] != "*"
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: allowCredentials,
	}))

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)
	r.Get("/healthz", healthHandler.ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/start", authHandler.HandleStart)
		r.Post("/verify", authHandler.HandleVerify)
		r.Post("/refresh", authHandler.HandleRefresh)
		if authHandler.GoogleEnabled() {
			r.Post("/google", authHandler.HandleGoogle)
		}
	})

	// Protected routes (require valid bearer token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorizer(tokens))
		r.Post("/items", itemsHandler.HandleCreate)
		r.Get("/items/{item_id}", itemsHandler.HandleGet)
	})

	return r
}
