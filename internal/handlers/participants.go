package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ape-stjoseph/tombola-api/internal/auth"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/services"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// ParticipantServiceInterface defines the participant business logic
type ParticipantServiceInterface interface {
	Create(ctx context.Context, userID string, input services.CreateParticipantInput, meta services.RequestMeta) (*models.Participant, error)
	ListMine(ctx context.Context, userID string) ([]*models.Participant, error)
	ListAll(ctx context.Context) ([]*models.Participant, error)
	Delete(ctx context.Context, id string, actorID *string, meta services.RequestMeta) error
}

// ParticipantHandler handles raffle profile endpoints.
type ParticipantHandler struct {
	service ParticipantServiceInterface
}

func NewParticipantHandler(service ParticipantServiceInterface) *ParticipantHandler {
	return &ParticipantHandler{service: service}
}

// CreateParticipantRequest represents the request body for a new profile
type CreateParticipantRequest struct {
	Prenom  string  `json:"prenom" validate:"required,min=1,max=100"`
	Email   string  `json:"email" validate:"required,email"`
	Role    string  `json:"role" validate:"omitempty,oneof=parent enseignant autre"`
	Classes *string `json:"classes" validate:"omitempty,min=1,max=200"`
	Emoji   string  `json:"emoji"`
}

func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	var req CreateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = "parent"
	}

	participant, err := h.service.Create(r.Context(), authCtx.User.ID, services.CreateParticipantInput{
		Prenom:  req.Prenom,
		Email:   req.Email,
		Role:    req.Role,
		Classes: req.Classes,
		Emoji:   req.Emoji,
	}, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, participant)
}

// ListMine returns the caller's profiles.
func (h *ParticipantHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	participants, err := h.service.ListMine(r.Context(), authCtx.User.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, participants)
}

// ListAll returns every profile; admin only, enforced in routing.
func (h *ParticipantHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	participants, err := h.service.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, participants)
}

// Delete removes a profile and its lots; admin only.
func (h *ParticipantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Missing participant id")
		return
	}

	if err := h.service.Delete(r.Context(), id, &authCtx.User.ID, requestMeta(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Participant supprimé"})
}
