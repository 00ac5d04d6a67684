package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/repositories"
)

// NewTestUser builds a user for tests.
func NewTestUser(id, email, passwordHash string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestAuditService returns an audit service backed by a no-op repo.
func NewTestAuditService() *AuditService {
	return NewAuditService(&MockAuditLogRepository{}, slog.Default())
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	CreateFunc             func(ctx context.Context, email, passwordHash string) (*models.User, error)
	UpdatePasswordHashFunc func(ctx context.Context, id, passwordHash string) error
	DeleteCascadeFunc      func(ctx context.Context, userID string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, email, passwordHash)
	}
	return NewTestUser("user_1", email, passwordHash), nil
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordHashFunc != nil {
		return m.UpdatePasswordHashFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) DeleteCascade(ctx context.Context, userID string) error {
	if m.DeleteCascadeFunc != nil {
		return m.DeleteCascadeFunc(ctx, userID)
	}
	return nil
}

// MockSessionRepository implements SessionRepository for testing
type MockSessionRepository struct {
	CreateFunc           func(ctx context.Context, userID, token string, expiresAt time.Time) (*models.Session, error)
	GetByTokenFunc       func(ctx context.Context, token string) (*models.Session, error)
	DeleteFunc           func(ctx context.Context, id string) error
	DeleteOthersFunc     func(ctx context.Context, userID, keepSessionID string) (int64, error)
	DeleteAllForUserFunc func(ctx context.Context, userID string) error
}

func (m *MockSessionRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, token, expiresAt)
	}
	return &models.Session{ID: "session_1", UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}, nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockSessionRepository) DeleteOthers(ctx context.Context, userID, keepSessionID string) (int64, error) {
	if m.DeleteOthersFunc != nil {
		return m.DeleteOthersFunc(ctx, userID, keepSessionID)
	}
	return 0, nil
}

func (m *MockSessionRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	if m.DeleteAllForUserFunc != nil {
		return m.DeleteAllForUserFunc(ctx, userID)
	}
	return nil
}

// MockRoleRepository implements RoleRepository for testing
type MockRoleRepository struct {
	GetForUserFunc func(ctx context.Context, userID string) ([]string, error)
	GrantFunc      func(ctx context.Context, userID, role string) error
}

func (m *MockRoleRepository) GetForUser(ctx context.Context, userID string) ([]string, error) {
	if m.GetForUserFunc != nil {
		return m.GetForUserFunc(ctx, userID)
	}
	return []string{}, nil
}

func (m *MockRoleRepository) Grant(ctx context.Context, userID, role string) error {
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, userID, role)
	}
	return nil
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc func(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error)
	Entries    []*models.AuditLogEntry
}

func (m *MockAuditLogRepository) Create(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	m.Entries = append(m.Entries, entry)
	return entry, nil
}

func (m *MockAuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return m.Entries, nil
}

// MockParticipantRepository implements ParticipantRepository for testing
type MockParticipantRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.Participant, error)
	GetByUserIDFunc   func(ctx context.Context, userID string) (*models.Participant, error)
	ListByUserIDFunc  func(ctx context.Context, userID string) ([]*models.Participant, error)
	ListAllFunc       func(ctx context.Context) ([]*models.Participant, error)
	CreateFunc        func(ctx context.Context, p *models.Participant) (*models.Participant, error)
	DeleteCascadeFunc func(ctx context.Context, id string) error
}

func (m *MockParticipantRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockParticipantRepository) GetByUserID(ctx context.Context, userID string) (*models.Participant, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockParticipantRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Participant, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return []*models.Participant{}, nil
}

func (m *MockParticipantRepository) ListAll(ctx context.Context) ([]*models.Participant, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []*models.Participant{}, nil
}

func (m *MockParticipantRepository) Create(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	created := *p
	created.ID = "participant_1"
	created.CreatedAt = time.Now()
	return &created, nil
}

func (m *MockParticipantRepository) DeleteCascade(ctx context.Context, id string) error {
	if m.DeleteCascadeFunc != nil {
		return m.DeleteCascadeFunc(ctx, id)
	}
	return nil
}

// MockLotRepository implements LotRepository for testing
type MockLotRepository struct {
	GetByIDFunc     func(ctx context.Context, id string) (*models.Lot, error)
	CreateFunc      func(ctx context.Context, lot *models.Lot) (*models.Lot, error)
	ListAllFunc     func(ctx context.Context) ([]*repositories.LotListing, error)
	ReserveFunc     func(ctx context.Context, lotID, reserverID string) (bool, error)
	ReleaseFunc     func(ctx context.Context, lotID string) (bool, error)
	MarkRemisFunc   func(ctx context.Context, lotID string) (bool, error)
	ForceStatutFunc func(ctx context.Context, lotID, statut string) error
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockLotRepository) GetByID(ctx context.Context, id string) (*models.Lot, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockLotRepository) Create(ctx context.Context, lot *models.Lot) (*models.Lot, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, lot)
	}
	created := *lot
	created.ID = "lot_1"
	created.Statut = models.LotDisponible
	created.CreatedAt = time.Now()
	return &created, nil
}

func (m *MockLotRepository) ListAll(ctx context.Context) ([]*repositories.LotListing, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []*repositories.LotListing{}, nil
}

func (m *MockLotRepository) Reserve(ctx context.Context, lotID, reserverID string) (bool, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, lotID, reserverID)
	}
	return false, nil
}

func (m *MockLotRepository) Release(ctx context.Context, lotID string) (bool, error) {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, lotID)
	}
	return false, nil
}

func (m *MockLotRepository) MarkRemis(ctx context.Context, lotID string) (bool, error) {
	if m.MarkRemisFunc != nil {
		return m.MarkRemisFunc(ctx, lotID)
	}
	return false, nil
}

func (m *MockLotRepository) ForceStatut(ctx context.Context, lotID, statut string) error {
	if m.ForceStatutFunc != nil {
		return m.ForceStatutFunc(ctx, lotID, statut)
	}
	return nil
}

func (m *MockLotRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockRateLimitRepository implements RateLimitRepository for testing
type MockRateLimitRepository struct {
	SweepStaleFunc   func(ctx context.Context, cutoff time.Time) (int64, error)
	TryInsertFunc    func(ctx context.Context, identifier, endpoint string, windowStart time.Time) (bool, error)
	TryIncrementFunc func(ctx context.Context, identifier, endpoint string, max int) (*models.RateLimitRecord, bool, error)
	GetFunc          func(ctx context.Context, identifier, endpoint string) (*models.RateLimitRecord, error)
}

func (m *MockRateLimitRepository) SweepStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.SweepStaleFunc != nil {
		return m.SweepStaleFunc(ctx, cutoff)
	}
	return 0, nil
}

func (m *MockRateLimitRepository) TryInsert(ctx context.Context, identifier, endpoint string, windowStart time.Time) (bool, error) {
	if m.TryInsertFunc != nil {
		return m.TryInsertFunc(ctx, identifier, endpoint, windowStart)
	}
	return true, nil
}

func (m *MockRateLimitRepository) TryIncrement(ctx context.Context, identifier, endpoint string, max int) (*models.RateLimitRecord, bool, error) {
	if m.TryIncrementFunc != nil {
		return m.TryIncrementFunc(ctx, identifier, endpoint, max)
	}
	return nil, false, nil
}

func (m *MockRateLimitRepository) Get(ctx context.Context, identifier, endpoint string) (*models.RateLimitRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, identifier, endpoint)
	}
	return nil, models.ErrNotFound
}

// MockNewsletterRepository implements NewsletterRepository for testing
type MockNewsletterRepository struct {
	GetByEmailFunc           func(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	UpsertPendingFunc        func(ctx context.Context, email, token string, expiresAt time.Time) (*models.NewsletterSubscriber, error)
	ConfirmFunc              func(ctx context.Context, token string, now time.Time) (*models.NewsletterSubscriber, error)
	DeleteByEmailFunc        func(ctx context.Context, email string) error
	ListConfirmedFunc        func(ctx context.Context) ([]*models.NewsletterSubscriber, error)
	DeleteExpiredPendingFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (m *MockNewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockNewsletterRepository) UpsertPending(ctx context.Context, email, token string, expiresAt time.Time) (*models.NewsletterSubscriber, error) {
	if m.UpsertPendingFunc != nil {
		return m.UpsertPendingFunc(ctx, email, token, expiresAt)
	}
	return &models.NewsletterSubscriber{ID: "sub_1", Email: email, Status: models.SubscriberPending, ConfirmToken: &token, ConfirmExpiresAt: &expiresAt}, nil
}

func (m *MockNewsletterRepository) Confirm(ctx context.Context, token string, now time.Time) (*models.NewsletterSubscriber, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, token, now)
	}
	return nil, models.ErrNotFound
}

func (m *MockNewsletterRepository) DeleteByEmail(ctx context.Context, email string) error {
	if m.DeleteByEmailFunc != nil {
		return m.DeleteByEmailFunc(ctx, email)
	}
	return nil
}

func (m *MockNewsletterRepository) ListConfirmed(ctx context.Context) ([]*models.NewsletterSubscriber, error) {
	if m.ListConfirmedFunc != nil {
		return m.ListConfirmedFunc(ctx)
	}
	return []*models.NewsletterSubscriber{}, nil
}

func (m *MockNewsletterRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredPendingFunc != nil {
		return m.DeleteExpiredPendingFunc(ctx, now)
	}
	return 0, nil
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	SendFunc func(ctx context.Context, to, subject, htmlBody string) error
	Sent     []string
}

func (m *MockEmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, htmlBody)
	}
	m.Sent = append(m.Sent, to)
	return nil
}
