package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ape-stjoseph/tombola-api/internal/models"
)

type mockResolver struct {
	ResolveFunc func(ctx context.Context, token string) (*models.AuthContext, error)
}

func (m *mockResolver) Resolve(ctx context.Context, token string) (*models.AuthContext, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, token)
	}
	return nil, models.ErrUnauthorized
}

func liveSession(roles ...string) *models.AuthContext {
	return &models.AuthContext{
		User:    &models.User{ID: "user_1", Email: "parent@example.com"},
		Session: &models.Session{ID: "session_1", UserID: "user_1"},
		Roles:   roles,
	}
}

func TestRequired(t *testing.T) {
	passedThrough := func() (http.Handler, *bool) {
		called := false
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}), &called
	}

	t.Run("injects the session for a valid token", func(t *testing.T) {
		resolver := &mockResolver{
			ResolveFunc: func(ctx context.Context, token string) (*models.AuthContext, error) {
				return liveSession(), nil
			},
		}
		var got *models.AuthContext
		handler := Required(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetAuthContext(r)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/participants", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.NotNil(t, got)
		assert.Equal(t, "user_1", got.User.ID)
	})

	t.Run("rejects a missing header without resolving", func(t *testing.T) {
		resolver := &mockResolver{
			ResolveFunc: func(ctx context.Context, token string) (*models.AuthContext, error) {
				t.Fatal("resolver should not run without a token")
				return nil, nil
			},
		}
		next, called := passedThrough()
		handler := Required(resolver)(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/participants", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, *called)
	})

	t.Run("rejects an invalid or expired session", func(t *testing.T) {
		resolver := &mockResolver{}
		next, called := passedThrough()
		handler := Required(resolver)(next)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/participants", nil)
		req.Header.Set("Authorization", "Bearer expiredtoken")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "AUTHENTICATION_REQUIRED")
		assert.False(t, *called)
	})
}

func TestOptional(t *testing.T) {
	t.Run("passes anonymous requests through", func(t *testing.T) {
		var got *models.AuthContext
		handler := Optional(&mockResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetAuthContext(r)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/lots", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, got)
	})

	t.Run("a bad token degrades to anonymous", func(t *testing.T) {
		var got *models.AuthContext
		handler := Optional(&mockResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetAuthContext(r)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/lots", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, got)
	})
}

func TestAdminRequired(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows admins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs", nil)
		req = req.WithContext(context.WithValue(req.Context(), AuthContextKey, liveSession(models.RoleAdmin)))
		rec := httptest.NewRecorder()

		AdminRequired()(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbids regular accounts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs", nil)
		req = req.WithContext(context.WithValue(req.Context(), AuthContextKey, liveSession(models.RoleUser)))
		rec := httptest.NewRecorder()

		AdminRequired()(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "ADMIN_REQUIRED")
	})

	t.Run("requires a session at all", func(t *testing.T) {
		rec := httptest.NewRecorder()

		AdminRequired()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
