package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/ape-stjoseph/tombola-api/internal/auth"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/repositories"
	"github.com/ape-stjoseph/tombola-api/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc       func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	LoginFunc          func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	LogoutFunc         func(ctx context.Context, authCtx *models.AuthContext, meta services.RequestMeta) error
	ChangePasswordFunc func(ctx context.Context, authCtx *models.AuthContext, current, next string, meta services.RequestMeta) error
	DeleteAccountFunc  func(ctx context.Context, authCtx *models.AuthContext, meta services.RequestMeta) error
}

func (m *MockAuthService) Register(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, meta)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, meta)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) Logout(ctx context.Context, authCtx *models.AuthContext, meta services.RequestMeta) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, authCtx, meta)
	}
	return nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, authCtx *models.AuthContext, current, next string, meta services.RequestMeta) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, authCtx, current, next, meta)
	}
	return nil
}

func (m *MockAuthService) DeleteAccount(ctx context.Context, authCtx *models.AuthContext, meta services.RequestMeta) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, authCtx, meta)
	}
	return nil
}

// MockLotService implements LotServiceInterface for testing
type MockLotService struct {
	CreateFunc        func(ctx context.Context, userID string, input services.CreateLotInput, meta services.RequestMeta) (*models.Lot, error)
	ListFunc          func(ctx context.Context) ([]*repositories.LotListing, error)
	ReserveFunc       func(ctx context.Context, lotID, reserverID, callerUserID string, meta services.RequestMeta) (*models.Lot, error)
	MarkRemisFunc     func(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error)
	MarkAvailableFunc func(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error)
	ForceStatutFunc   func(ctx context.Context, lotID, statut string, actorID *string, meta services.RequestMeta) (*models.Lot, error)
	DeleteFunc        func(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) error
}

func (m *MockLotService) Create(ctx context.Context, userID string, input services.CreateLotInput, meta services.RequestMeta) (*models.Lot, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, input, meta)
	}
	return &models.Lot{ID: "lot_1", Nom: input.Nom, Statut: models.LotDisponible}, nil
}

func (m *MockLotService) List(ctx context.Context) ([]*repositories.LotListing, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*repositories.LotListing{}, nil
}

func (m *MockLotService) Reserve(ctx context.Context, lotID, reserverID, callerUserID string, meta services.RequestMeta) (*models.Lot, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, lotID, reserverID, callerUserID, meta)
	}
	return &models.Lot{ID: lotID, Statut: models.LotReserve, ReservedBy: &reserverID}, nil
}

func (m *MockLotService) MarkRemis(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error) {
	if m.MarkRemisFunc != nil {
		return m.MarkRemisFunc(ctx, lotID, callerUserID, meta)
	}
	return &models.Lot{ID: lotID, Statut: models.LotRemis}, nil
}

func (m *MockLotService) MarkAvailable(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) (*models.Lot, error) {
	if m.MarkAvailableFunc != nil {
		return m.MarkAvailableFunc(ctx, lotID, callerUserID, meta)
	}
	return &models.Lot{ID: lotID, Statut: models.LotDisponible}, nil
}

func (m *MockLotService) ForceStatut(ctx context.Context, lotID, statut string, actorID *string, meta services.RequestMeta) (*models.Lot, error) {
	if m.ForceStatutFunc != nil {
		return m.ForceStatutFunc(ctx, lotID, statut, actorID, meta)
	}
	return &models.Lot{ID: lotID, Statut: statut}, nil
}

func (m *MockLotService) Delete(ctx context.Context, lotID string, callerUserID *string, meta services.RequestMeta) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, lotID, callerUserID, meta)
	}
	return nil
}

// authenticatedRequest builds a request carrying a resolved session.
func authenticatedRequest(method, target, body string, roles ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	authCtx := &models.AuthContext{
		User:    &models.User{ID: "user_1", Email: "parent@example.com"},
		Session: &models.Session{ID: "session_1", UserID: "user_1"},
		Roles:   roles,
	}
	return req.WithContext(context.WithValue(req.Context(), auth.AuthContextKey, authCtx))
}
