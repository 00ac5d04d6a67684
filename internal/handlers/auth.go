package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ape-stjoseph/tombola-api/internal/auth"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/services"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// AuthServiceInterface defines the auth business logic the handler needs
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	Login(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	Logout(ctx context.Context, authCtx *models.AuthContext, meta services.RequestMeta) error
	ChangePassword(ctx context.Context, authCtx *models.AuthContext, current, next string, meta services.RequestMeta) error
	DeleteAccount(ctx context.Context, authCtx *models.AuthContext, meta services.RequestMeta) error
}

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	if err := h.service.Logout(r.Context(), authCtx, requestMeta(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Déconnecté"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"id":       authCtx.User.ID,
		"email":    authCtx.User.Email,
		"roles":    authCtx.Roles,
		"is_admin": authCtx.IsAdmin(),
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), authCtx, req.CurrentPassword, req.NewPassword, requestMeta(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Mot de passe modifié"})
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), authCtx, requestMeta(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Compte supprimé"})
}
