package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ape-stjoseph/tombola-api/internal/auth"
	"github.com/ape-stjoseph/tombola-api/internal/services"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// NewsletterServiceInterface defines the mailing-list business logic
type NewsletterServiceInterface interface {
	Subscribe(ctx context.Context, email string) error
	Confirm(ctx context.Context, token string) error
	Unsubscribe(ctx context.Context, signedToken string) error
	Send(ctx context.Context, subject, html string, actorID *string, meta services.RequestMeta) (*services.SendResult, error)
}

// NewsletterHandler handles the double-opt-in mailing list endpoints.
type NewsletterHandler struct {
	service NewsletterServiceInterface
}

func NewNewsletterHandler(service NewsletterServiceInterface) *NewsletterHandler {
	return &NewsletterHandler{service: service}
}

// SubscribeRequest represents the request body for a subscription
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UnsubscribeRequest carries the signed unsubscribe token
type UnsubscribeRequest struct {
	Token string `json:"token" validate:"required"`
}

// SendNewsletterRequest represents the admin bulk-send body
type SendNewsletterRequest struct {
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Body    string `json:"body" validate:"required"`
}

func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Subscribe(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusAccepted, map[string]string{
		"message": "Un email de confirmation vient de vous être envoyé",
	})
}

// Confirm is hit from the link in the confirmation mail.
func (h *NewsletterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		pkghttp.WriteBadRequest(w, "Missing confirmation token")
		return
	}

	if err := h.service.Confirm(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Inscription confirmée"})
}

func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Unsubscribe(r.Context(), req.Token); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]string{"message": "Désinscription effectuée"})
}

// Send mails every confirmed subscriber; admin only.
func (h *NewsletterHandler) Send(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r)
	if authCtx == nil {
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
		return
	}

	var req SendNewsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Send(r.Context(), req.Subject, req.Body, &authCtx.User.ID, requestMeta(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, result)
}
