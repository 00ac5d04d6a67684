package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ape-stjoseph/tombola-api/internal/auth"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/repositories"
	"github.com/ape-stjoseph/tombola-api/internal/services"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// LotServiceInterface defines the lot business logic
type LotServiceInterface interface {
	Create(ctx context.Context, userID string, input services.CreateLotInput, meta services.RequestMeta) (*models.Lot, error)
	List(ctx context.Context) ([]*repositories.LotListing, error)
	Reserve(ctx context.Context, lotID, reserverID, callerUserID string, meta services.RequestMeta) (*models.Lot, error)
	MarkRemis(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error)
	MarkAvailable(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error)
	ForceStatut(ctx context.Context, lotID, statut string, actorID *string, meta services.RequestMeta) (*models.Lot, error)
	Delete(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) error
}

// LotHandler handles donated-lot endpoints.
type LotHandler struct {
	service LotServiceInterface
}

func NewLotHandler(service LotServiceInterface) *LotHandler {
	return &LotHandler{service: service}
}

// CreateLotRequest represents the request body for a donated lot
type CreateLotRequest struct {
	Nom         string `json:"nom" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Icone       string `json:"icone" validate:"max=100"`
}

// ReserveLotRequest names the participant claiming the lot
type ReserveLotRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

// ForceStatutRequest represents the admin override body
type ForceStatutRequest struct {
	Statut string `json:"statut" validate:"required,oneof=disponible reserve remis"`
}

func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	var req CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	lot, err := h.service.Create(r.Context(), authCtx.User.ID, services.CreateLotInput{
		Nom:         req.Nom,
		Description: req.Description,
		Icone:       req.Icone,
	}, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, lot)
}

// List is public: anonymous visitors browse the lot table too.
func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	lots, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, lots)
}

func (h *LotHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	var req ReserveLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	lot, err := h.service.Reserve(r.Context(), chi.URLParam(r, "id"), req.ParticipantID, authCtx.User.ID, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, lot)
}

func (h *LotHandler) MarkRemis(w http.ResponseWriter, r *http.Request) {
	h.ownerTransition(w, r, h.service.MarkRemis)
}

func (h *LotHandler) MarkAvailable(w http.ResponseWriter, r *http.Request) {
	h.ownerTransition(w, r, h.service.MarkAvailable)
}

func (h *LotHandler) ownerTransition(w http.ResponseWriter, r *http.Request, transition func(context.Context, string, *string, services.RequestMeta) (*models.Lot, error)) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	// Admins act on any lot; owners only on their own.
	callerUserID := &authCtx.User.ID
	if authCtx.IsAdmin() {
		callerUserID = nil
	}

	lot, err := transition(r.Context(), chi.URLParam(r, "id"), callerUserID, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, lot)
}

// ForceStatut is the admin override that bypasses the state machine.
func (h *LotHandler) ForceStatut(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	var req ForceStatutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	lot, err := h.service.ForceStatut(r.Context(), chi.URLParam(r, "id"), req.Statut, &authCtx.User.ID, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, lot)
}

func (h *LotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	callerUserID := &authCtx.User.ID
	if authCtx.IsAdmin() {
		callerUserID = nil
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), callerUserID, requestMeta(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Lot supprimé"})
}
