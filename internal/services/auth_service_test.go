package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	pkgauth "github.com/ape-stjoseph/tombola-api/pkg/auth"
)

func newAuthService(users *MockUserRepository, sessions *MockSessionRepository, roles *MockRoleRepository) *AuthService {
	return NewAuthService(users, sessions, roles, NewTestAuditService(), 7*24*time.Hour, slog.Default())
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates account and returns a session", func(t *testing.T) {
		users := &MockUserRepository{}
		svc := newAuthService(users, &MockSessionRepository{}, &MockRoleRepository{})

		resp, err := svc.Register(context.Background(), "  Parent@Example.COM ", "correct horse battery", RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, "parent@example.com", resp.User.Email)
		assert.Len(t, resp.Token, 64)
		assert.True(t, resp.ExpiresAt.After(time.Now()))
	})

	t.Run("rejects passwords outside the length bounds", func(t *testing.T) {
		svc := newAuthService(&MockUserRepository{}, &MockSessionRepository{}, &MockRoleRepository{})

		_, err := svc.Register(context.Background(), "parent@example.com", "short", RequestMeta{})

		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("rejects an already registered email", func(t *testing.T) {
		users := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return NewTestUser("user_1", email, "hash"), nil
			},
		}
		svc := newAuthService(users, &MockSessionRepository{}, &MockRoleRepository{})

		_, err := svc.Register(context.Background(), "parent@example.com", "correct horse battery", RequestMeta{})

		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := pkgauth.HashPassword("correct horse battery")
	require.NoError(t, err)

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		users := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return NewTestUser("user_1", email, hash), nil
			},
		}
		svc := newAuthService(users, &MockSessionRepository{}, &MockRoleRepository{})

		resp, err := svc.Login(context.Background(), "parent@example.com", "correct horse battery", RequestMeta{})

		require.NoError(t, err)
		assert.Len(t, resp.Token, 64)
	})

	t.Run("unknown account and wrong password fail identically", func(t *testing.T) {
		knownUsers := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return NewTestUser("user_1", email, hash), nil
			},
		}

		tests := []struct {
			name     string
			users    *MockUserRepository
			password string
		}{
			{name: "unknown email", users: &MockUserRepository{}, password: "correct horse battery"},
			{name: "wrong password", users: knownUsers, password: "wrong password here"},
			{name: "empty password", users: knownUsers, password: ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := newAuthService(tt.users, &MockSessionRepository{}, &MockRoleRepository{})

				_, err := svc.Login(context.Background(), "parent@example.com", tt.password, RequestMeta{})

				assert.ErrorIs(t, err, models.ErrInvalidCredentials)
			})
		}
	})

	t.Run("session expiry honors the configured TTL", func(t *testing.T) {
		users := &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return NewTestUser("user_1", email, hash), nil
			},
		}
		svc := newAuthService(users, &MockSessionRepository{}, &MockRoleRepository{})
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return base }

		resp, err := svc.Login(context.Background(), "parent@example.com", "correct horse battery", RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, base.Add(7*24*time.Hour), resp.ExpiresAt)
	})
}

func TestAuthService_Resolve(t *testing.T) {
	token := "a3f1b2c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2"

	t.Run("rejects short tokens without a lookup", func(t *testing.T) {
		sessions := &MockSessionRepository{
			GetByTokenFunc: func(ctx context.Context, token string) (*models.Session, error) {
				t.Fatal("lookup should not happen for short tokens")
				return nil, nil
			},
		}
		svc := newAuthService(&MockUserRepository{}, sessions, &MockRoleRepository{})

		_, err := svc.Resolve(context.Background(), "tooshort")

		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("deletes an expired session and fails", func(t *testing.T) {
		deleted := ""
		sessions := &MockSessionRepository{
			GetByTokenFunc: func(ctx context.Context, tok string) (*models.Session, error) {
				return &models.Session{ID: "session_1", UserID: "user_1", Token: tok, ExpiresAt: time.Now().Add(-time.Minute)}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		}
		svc := newAuthService(&MockUserRepository{}, sessions, &MockRoleRepository{})

		_, err := svc.Resolve(context.Background(), token)

		assert.ErrorIs(t, err, models.ErrUnauthorized)
		assert.Equal(t, "session_1", deleted)
	})

	t.Run("returns user, session and roles for a live token", func(t *testing.T) {
		sessions := &MockSessionRepository{
			GetByTokenFunc: func(ctx context.Context, tok string) (*models.Session, error) {
				return &models.Session{ID: "session_1", UserID: "user_1", Token: tok, ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
		}
		users := &MockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
				return NewTestUser(id, "parent@example.com", "hash"), nil
			},
		}
		roles := &MockRoleRepository{
			GetForUserFunc: func(ctx context.Context, userID string) ([]string, error) {
				return []string{models.RoleAdmin}, nil
			},
		}
		svc := newAuthService(users, sessions, roles)

		authCtx, err := svc.Resolve(context.Background(), token)

		require.NoError(t, err)
		assert.Equal(t, "user_1", authCtx.User.ID)
		assert.True(t, authCtx.IsAdmin())
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	hash, err := pkgauth.HashPassword("correct horse battery")
	require.NoError(t, err)

	authCtx := &models.AuthContext{
		User:    NewTestUser("user_1", "parent@example.com", hash),
		Session: &models.Session{ID: "session_1", UserID: "user_1"},
	}

	t.Run("rejects a wrong current password", func(t *testing.T) {
		svc := newAuthService(&MockUserRepository{}, &MockSessionRepository{}, &MockRoleRepository{})

		err := svc.ChangePassword(context.Background(), authCtx, "not the password", "a brand new password", RequestMeta{})

		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("revokes every other session but keeps the current one", func(t *testing.T) {
		var keptSession string
		sessions := &MockSessionRepository{
			DeleteOthersFunc: func(ctx context.Context, userID, keepSessionID string) (int64, error) {
				keptSession = keepSessionID
				return 2, nil
			},
		}
		updated := false
		users := &MockUserRepository{
			UpdatePasswordHashFunc: func(ctx context.Context, id, passwordHash string) error {
				updated = true
				assert.NotEqual(t, hash, passwordHash)
				return nil
			},
		}
		svc := newAuthService(users, sessions, &MockRoleRepository{})

		err := svc.ChangePassword(context.Background(), authCtx, "correct horse battery", "a brand new password", RequestMeta{})

		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, "session_1", keptSession)
	})
}

func TestAuthService_DeleteAccount(t *testing.T) {
	cascaded := ""
	users := &MockUserRepository{
		DeleteCascadeFunc: func(ctx context.Context, userID string) error {
			cascaded = userID
			return nil
		},
	}
	svc := newAuthService(users, &MockSessionRepository{}, &MockRoleRepository{})
	authCtx := &models.AuthContext{
		User:    NewTestUser("user_1", "parent@example.com", "hash"),
		Session: &models.Session{ID: "session_1", UserID: "user_1"},
	}

	err := svc.DeleteAccount(context.Background(), authCtx, RequestMeta{})

	require.NoError(t, err)
	assert.Equal(t, "user_1", cascaded)
}
