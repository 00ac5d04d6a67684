package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// AuthContextKey is the key for storing the resolved session in context
	AuthContextKey contextKey = "auth"
)

// SessionResolver turns a bearer token into the caller's identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.AuthContext, error)
}

// Optional resolves the bearer token when one is presented and injects
// the result into context. Requests without a valid session pass
// through anonymously; handlers decide what that means.
func Optional(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := pkghttp.BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				// Expired and unknown tokens degrade to anonymous here.
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Required rejects requests without a live session.
func Required(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := pkghttp.BearerToken(r)
			if token == "" {
				pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
				return
			}

			authCtx, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, models.ErrUnauthorized) {
					pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Session invalide ou expirée")
					return
				}
				pkghttp.WriteInternalError(w, "Erreur interne")
				return
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminRequired enforces the admin role. Must run after Required.
func AdminRequired() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r)
			if authCtx == nil {
				pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
				return
			}

			if !authCtx.IsAdmin() {
				pkghttp.WriteError(w, http.StatusForbidden, pkghttp.CodeAdminRequired, "Réservé aux administrateurs")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetAuthContext extracts the resolved session from request context
func GetAuthContext(r *http.Request) *models.AuthContext {
	authCtx, ok := r.Context().Value(AuthContextKey).(*models.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
