package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ape-stjoseph/tombola-api/internal/auth"
	"github.com/ape-stjoseph/tombola-api/internal/config"
	"github.com/ape-stjoseph/tombola-api/internal/handlers"
	"github.com/ape-stjoseph/tombola-api/internal/middleware"
	"github.com/ape-stjoseph/tombola-api/internal/services"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Participant *handlers.ParticipantHandler
	Lot         *handlers.LotHandler
	Newsletter  *handlers.NewsletterHandler
	Audit       *handlers.AuditHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	authService *services.AuthService,
	rateLimitService *services.RateLimitService,
	cfg *config.Config,
	logger *slog.Logger,
) {
	authPolicy := middleware.AuthRateLimitPolicy()
	genericPolicy := middleware.RateLimitPolicy{
		MaxRequests: cfg.RateLimit.GenericMaxRequests,
		Window:      cfg.RateLimit.GenericWindow,
	}

	// The storage-backed limiter only guards production traffic; local
	// development and the test suite run unthrottled.
	limited := func(policy middleware.RateLimitPolicy) func(r chi.Router) {
		return func(r chi.Router) {
			if cfg.RateLimitEnabled() {
				r.Use(middleware.RateLimit(rateLimitService, policy, logger))
			}
		}
	}

	// Credential endpoints, strictest budget
	router.Group(func(r chi.Router) {
		limited(authPolicy)(r)
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
	})

	// Public surface
	router.Group(func(r chi.Router) {
		limited(genericPolicy)(r)

		r.With(auth.Optional(authService)).Get("/lots", h.Lot.List)

		r.Post("/newsletter/subscribe", h.Newsletter.Subscribe)
		r.Get("/newsletter/confirm", h.Newsletter.Confirm)
		r.Post("/newsletter/unsubscribe", h.Newsletter.Unsubscribe)
	})

	// Authenticated surface
	router.Group(func(r chi.Router) {
		limited(genericPolicy)(r)
		r.Use(auth.Required(authService))

		r.Post("/auth/logout", h.Auth.Logout)
		r.Get("/auth/me", h.Auth.Me)
		r.Post("/auth/change-password", h.Auth.ChangePassword)
		r.Delete("/auth/account", h.Auth.DeleteAccount)

		r.Post("/participants", h.Participant.Create)
		r.Get("/participants/mine", h.Participant.ListMine)

		r.Post("/lots", h.Lot.Create)
		r.Post("/lots/{id}/reserve", h.Lot.Reserve)
		r.Post("/lots/{id}/remis", h.Lot.MarkRemis)
		r.Post("/lots/{id}/available", h.Lot.MarkAvailable)
		r.Delete("/lots/{id}", h.Lot.Delete)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.AdminRequired())

			r.Get("/participants", h.Participant.ListAll)
			r.Delete("/participants/{id}", h.Participant.Delete)
			r.Post("/lots/{id}/force-statut", h.Lot.ForceStatut)
			r.Get("/audit-logs", h.Audit.List)
			r.Post("/newsletter/send", h.Newsletter.Send)
		})
	})
}
