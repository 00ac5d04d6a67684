package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// AuditServiceInterface exposes the admin audit trail
type AuditServiceInterface interface {
	List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error)
}

// AuditHandler serves the admin audit trail.
type AuditHandler struct {
	service AuditServiceInterface
}

func NewAuditHandler(service AuditServiceInterface) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns recent audit entries, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, entries)
}
