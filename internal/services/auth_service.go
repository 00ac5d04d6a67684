package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	pkgauth "github.com/ape-stjoseph/tombola-api/pkg/auth"
)

// UserRepository defines the user storage operations the auth service needs
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	DeleteCascade(ctx context.Context, userID string) error
}

// SessionRepository defines the session storage operations
type SessionRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.Session, error)
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteOthers(ctx context.Context, userID, keepSessionID string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}

// RoleRepository defines role lookups
type RoleRepository interface {
	GetForUser(ctx context.Context, userID string) ([]string, error)
	Grant(ctx context.Context, userID, role string) error
}

// AuthService owns registration, login and the session lifecycle.
type AuthService struct {
	users      UserRepository
	sessions   SessionRepository
	roles      RoleRepository
	audit      *AuditService
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewAuthService(users UserRepository, sessions SessionRepository, roles RoleRepository, audit *AuditService, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		roles:      roles,
		audit:      audit,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// UserResponse represents a user in HTTP responses
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse is returned by register and login: the bearer token and
// its absolute expiry.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// RequestMeta carries the client identifier and user agent for audit
// records; handlers fill it from headers.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and logs it in immediately.
func (s *AuthService) Register(ctx context.Context, email, password string, meta RequestMeta) (*AuthResponse, error) {
	email = NormalizeEmail(email)

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.audit.Record(ctx, AuditEntry{
		UserID:       &user.ID,
		Action:       models.AuditRegister,
		ResourceType: models.ResourceUser,
		ResourceID:   &user.ID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})

	return authResponse(session, user), nil
}

// Login authenticates and issues a fresh session. Missing accounts and
// wrong passwords fail identically so existence never leaks.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*AuthResponse, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.audit.Record(ctx, AuditEntry{
				Action:       models.AuditLoginFailed,
				ResourceType: models.ResourceSession,
				ClientIP:     meta.ClientIP,
				UserAgent:    meta.UserAgent,
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !pkgauth.VerifyPassword(password, user.PasswordHash) {
		s.logger.Info("login failed: invalid credentials")
		s.audit.Record(ctx, AuditEntry{
			UserID:       &user.ID,
			Action:       models.AuditLoginFailed,
			ResourceType: models.ResourceSession,
			ClientIP:     meta.ClientIP,
			UserAgent:    meta.UserAgent,
		})
		return nil, models.ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.Record(ctx, AuditEntry{
		UserID:       &user.ID,
		Action:       models.AuditLoginSuccess,
		ResourceType: models.ResourceSession,
		ResourceID:   &session.ID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})

	return authResponse(session, user), nil
}

// Resolve turns a bearer token into an AuthContext. An expired session
// is deleted as a side effect before resolution fails: expiry is lazy,
// there is no background reaper.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.AuthContext, error) {
	if len(token) < 32 {
		return nil, models.ErrUnauthorized
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to look up session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to delete expired session", slog.Any("error", err))
		}
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load session user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	roles, err := s.roles.GetForUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to load roles", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.AuthContext{User: user, Session: session, Roles: roles}, nil
}

// Logout revokes the presented session only.
func (s *AuthService) Logout(ctx context.Context, authCtx *models.AuthContext, meta RequestMeta) error {
	if err := s.sessions.Delete(ctx, authCtx.Session.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to delete session", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &authCtx.User.ID,
		Action:       models.AuditLogout,
		ResourceType: models.ResourceSession,
		ResourceID:   &authCtx.Session.ID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

// ChangePassword verifies the current password, stores a new hash and
// revokes every other session, keeping the caller logged in.
func (s *AuthService) ChangePassword(ctx context.Context, authCtx *models.AuthContext, current, next string, meta RequestMeta) error {
	if !pkgauth.VerifyPassword(current, authCtx.User.PasswordHash) {
		return models.ErrInvalidCredentials
	}

	if err := pkgauth.ValidatePassword(next); err != nil {
		return models.ErrBadRequest
	}

	hash, err := pkgauth.HashPassword(next)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePasswordHash(ctx, authCtx.User.ID, hash); err != nil {
		s.logger.Error("failed to update password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	revoked, err := s.sessions.DeleteOthers(ctx, authCtx.User.ID, authCtx.Session.ID)
	if err != nil {
		s.logger.Error("failed to revoke other sessions", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password changed",
		slog.String("user_id", authCtx.User.ID),
		slog.Int64("sessions_revoked", revoked))
	s.audit.Record(ctx, AuditEntry{
		UserID:       &authCtx.User.ID,
		Action:       models.AuditPasswordChanged,
		ResourceType: models.ResourceUser,
		ResourceID:   &authCtx.User.ID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

// DeleteAccount removes the account and everything attached to it,
// including every session. The cascade runs in one transaction.
func (s *AuthService) DeleteAccount(ctx context.Context, authCtx *models.AuthContext, meta RequestMeta) error {
	userID := authCtx.User.ID

	if err := s.users.DeleteCascade(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("account deleted", slog.String("user_id", userID))
	// The user's own audit rows are gone with the cascade; record the
	// deletion itself without a user reference.
	s.audit.Record(ctx, AuditEntry{
		Action:       models.AuditAccountDeleted,
		ResourceType: models.ResourceUser,
		ResourceID:   &userID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, userID string) (*models.Session, error) {
	token, err := pkgauth.GenerateToken()
	if err != nil {
		s.logger.Error("failed to generate session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	session, err := s.sessions.Create(ctx, userID, token, s.now().Add(s.sessionTTL))
	if err != nil {
		s.logger.Error("failed to create session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return session, nil
}

func authResponse(session *models.Session, user *models.User) *AuthResponse {
	return &AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User: &UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
		},
	}
}
