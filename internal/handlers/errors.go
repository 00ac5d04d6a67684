package handlers

import (
	"errors"
	"net/http"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/services"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// writeServiceError maps service sentinels onto the response envelope.
// Anything unmapped becomes an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeInvalidLogin, "Email ou mot de passe incorrect")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteError(w, http.StatusUnauthorized, pkghttp.CodeAuthRequired, "Authentification requise")
	case errors.Is(err, models.ErrSelfReservation):
		pkghttp.WriteBadRequest(w, "Impossible de réserver son propre lot")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Accès refusé")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Ressource introuvable")
	case errors.Is(err, models.ErrAlreadyRegistered):
		pkghttp.WriteConflict(w, "Un profil participant existe déjà pour ce compte")
	case errors.Is(err, models.ErrAlreadySubscribed):
		pkghttp.WriteConflict(w, "Cette adresse est déjà inscrite")
	case errors.Is(err, models.ErrLotNotAvailable):
		pkghttp.WriteBadRequest(w, "Ce lot n'est plus disponible")
	case errors.Is(err, models.ErrLotNotReserved):
		pkghttp.WriteBadRequest(w, "Ce lot n'est pas réservé")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Conflit avec une ressource existante")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Requête invalide")
	default:
		pkghttp.WriteInternalError(w, "Erreur interne")
	}
}

// requestMeta extracts the audit metadata every mutation records.
func requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{
		ClientIP:  pkghttp.ClientIdentifier(r),
		UserAgent: pkghttp.UserAgent(r),
	}
}
