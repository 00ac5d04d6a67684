package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/services"
)

// withURLParam attaches a chi route parameter to the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestLotHandler_Reserve(t *testing.T) {
	t.Run("maps self-reservation to 400", func(t *testing.T) {
		svc := &MockLotService{
			ReserveFunc: func(ctx context.Context, lotID, reserverID, callerUserID string, meta services.RequestMeta) (*models.Lot, error) {
				return nil, models.ErrSelfReservation
			},
		}
		handler := NewLotHandler(svc)

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/reserve", `{"participant_id":"participant_1"}`)
		rec := httptest.NewRecorder()
		handler.Reserve(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps a lost race to 400", func(t *testing.T) {
		svc := &MockLotService{
			ReserveFunc: func(ctx context.Context, lotID, reserverID, callerUserID string, meta services.RequestMeta) (*models.Lot, error) {
				return nil, models.ErrLotNotAvailable
			},
		}
		handler := NewLotHandler(svc)

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/reserve", `{"participant_id":"participant_2"}`)
		rec := httptest.NewRecorder()
		handler.Reserve(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps a non-reserved transition to 400", func(t *testing.T) {
		svc := &MockLotService{
			MarkRemisFunc: func(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error) {
				return nil, models.ErrLotNotReserved
			},
		}
		handler := NewLotHandler(svc)

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/remis", "")
		rec := httptest.NewRecorder()
		handler.MarkRemis(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns the reserved lot", func(t *testing.T) {
		handler := NewLotHandler(&MockLotService{})

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/reserve", `{"participant_id":"participant_2"}`)
		rec := httptest.NewRecorder()
		handler.Reserve(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"statut":"reserve"`)
	})
}

func TestLotHandler_OwnerTransitions(t *testing.T) {
	t.Run("admins skip the ownership check", func(t *testing.T) {
		var gotCaller *string = new(string)
		svc := &MockLotService{
			MarkRemisFunc: func(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error) {
				gotCaller = callerUserID
				return &models.Lot{ID: lotID, Statut: models.LotRemis}, nil
			},
		}
		handler := NewLotHandler(svc)

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/remis", "", models.RoleAdmin)
		rec := httptest.NewRecorder()
		handler.MarkRemis(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, gotCaller)
	})

	t.Run("regular accounts carry their user id into the check", func(t *testing.T) {
		var gotCaller *string
		svc := &MockLotService{
			MarkAvailableFunc: func(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error) {
				gotCaller = callerUserID
				return &models.Lot{ID: lotID, Statut: models.LotDisponible}, nil
			},
		}
		handler := NewLotHandler(svc)

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/available", "")
		rec := httptest.NewRecorder()
		handler.MarkAvailable(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		if assert.NotNil(t, gotCaller) {
			assert.Equal(t, "user_1", *gotCaller)
		}
	})

	t.Run("maps a non-owner to 403", func(t *testing.T) {
		svc := &MockLotService{
			MarkRemisFunc: func(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error) {
				return nil, models.ErrForbidden
			},
		}
		handler := NewLotHandler(svc)

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/remis", "")
		rec := httptest.NewRecorder()
		handler.MarkRemis(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLotHandler_ForceStatut(t *testing.T) {
	t.Run("rejects an unknown statut at the DTO layer", func(t *testing.T) {
		handler := NewLotHandler(&MockLotService{})

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/force-statut", `{"statut":"vendu"}`, models.RoleAdmin)
		rec := httptest.NewRecorder()
		handler.ForceStatut(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("applies a valid override", func(t *testing.T) {
		handler := NewLotHandler(&MockLotService{})

		req := authenticatedRequest(http.MethodPost, "/api/v1/lots/lot_1/force-statut", `{"statut":"remis"}`, models.RoleAdmin)
		rec := httptest.NewRecorder()
		handler.ForceStatut(rec, withURLParam(req, "id", "lot_1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"statut":"remis"`)
	})
}
