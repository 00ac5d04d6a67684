package services

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/repositories"
)

// LotRepository defines the lot storage operations
type LotRepository interface {
	GetByID(ctx context.Context, id string) (*models.Lot, error)
	Create(ctx context.Context, lot *models.Lot) (*models.Lot, error)
	ListAll(ctx context.Context) ([]*repositories.LotListing, error)
	Reserve(ctx context.Context, lotID, reserverID string) (bool, error)
	Release(ctx context.Context, lotID string) (bool, error)
	MarkRemis(ctx context.Context, lotID string) (bool, error)
	ForceStatut(ctx context.Context, lotID, statut string) error
	Delete(ctx context.Context, id string) error
}

// LotService owns the lot state machine:
//
//	disponible -> reserve -> remis
//	reserve -> disponible (un-reservation)
//
// No public transition skips a state; only the admin force paths do.
type LotService struct {
	lots         LotRepository
	participants ParticipantRepository
	audit        *AuditService
	logger       *slog.Logger
}

func NewLotService(lots LotRepository, participants ParticipantRepository, audit *AuditService, logger *slog.Logger) *LotService {
	return &LotService{lots: lots, participants: participants, audit: audit, logger: logger}
}

// CreateLotInput is the validated input for a donated lot.
type CreateLotInput struct {
	Nom         string
	Description string
	Icone       string
}

// Create registers a donated lot for the caller's participant profile.
func (s *LotService) Create(ctx context.Context, userID string, input CreateLotInput, meta RequestMeta) (*models.Lot, error) {
	if n := utf8.RuneCountInString(input.Nom); n < 1 || n > 200 {
		return nil, models.ErrBadRequest
	}

	parent, err := s.participants.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Donating requires a raffle profile first.
			return nil, models.ErrBadRequest
		}
		s.logger.Error("failed to load participant", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	lot, err := s.lots.Create(ctx, &models.Lot{
		Nom:         input.Nom,
		Description: input.Description,
		Icone:       input.Icone,
		ParentID:    parent.ID,
	})
	if err != nil {
		s.logger.Error("failed to create lot", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       models.AuditLotCreated,
		ResourceType: models.ResourceLot,
		ResourceID:   &lot.ID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})

	return lot, nil
}

// List returns every lot with owner and reserver display names.
func (s *LotService) List(ctx context.Context) ([]*repositories.LotListing, error) {
	lots, err := s.lots.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list lots", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return lots, nil
}

// Reserve claims an available lot for reserverID. Self-reservation is
// rejected for every lot state; the claim itself is a single
// conditional update, so two concurrent reservers cannot both win.
func (s *LotService) Reserve(ctx context.Context, lotID, reserverID, callerUserID string, meta RequestMeta) (*models.Lot, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load lot", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if lot.ParentID == reserverID {
		return nil, models.ErrSelfReservation
	}

	if _, err := s.participants.GetByID(ctx, reserverID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load reserver", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	claimed, err := s.lots.Reserve(ctx, lotID, reserverID)
	if err != nil {
		s.logger.Error("failed to reserve lot", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !claimed {
		return nil, models.ErrLotNotAvailable
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       &callerUserID,
		Action:       models.AuditLotReserved,
		ResourceType: models.ResourceLot,
		ResourceID:   &lotID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
		Details:      map[string]interface{}{"reserved_by": reserverID},
	})

	return s.lots.GetByID(ctx, lotID)
}

// MarkRemis moves a reserved lot to the terminal delivered state. Only
// the account owning the lot's participant may do it.
func (s *LotService) MarkRemis(ctx context.Context, lotID string, callerUserID *string, meta RequestMeta) (*models.Lot, error) {
	return s.ownerTransition(ctx, lotID, callerUserID, meta, models.AuditLotRemis, s.lots.MarkRemis)
}

// MarkAvailable cancels a reservation, putting the lot back on the
// table. Same ownership rule as MarkRemis.
func (s *LotService) MarkAvailable(ctx context.Context, lotID string, callerUserID *string, meta RequestMeta) (*models.Lot, error) {
	return s.ownerTransition(ctx, lotID, callerUserID, meta, models.AuditLotReleased, s.lots.Release)
}

func (s *LotService) ownerTransition(ctx context.Context, lotID string, callerUserID *string, meta RequestMeta, action string, transition func(context.Context, string) (bool, error)) (*models.Lot, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load lot", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if lot.Statut != models.LotReserve {
		return nil, models.ErrLotNotReserved
	}

	if callerUserID != nil {
		owner, err := s.isOwner(ctx, lot, *callerUserID)
		if err != nil {
			return nil, err
		}
		if !owner {
			return nil, models.ErrForbidden
		}
	}

	done, err := transition(ctx, lotID)
	if err != nil {
		s.logger.Error("lot transition failed", slog.String("action", action), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !done {
		// Lost a race with a concurrent transition.
		return nil, models.ErrLotNotReserved
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       callerUserID,
		Action:       action,
		ResourceType: models.ResourceLot,
		ResourceID:   &lotID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})

	return s.lots.GetByID(ctx, lotID)
}

// ForceStatut sets any statut regardless of current state. Admin path
// that deliberately bypasses the state machine.
func (s *LotService) ForceStatut(ctx context.Context, lotID, statut string, actorID *string, meta RequestMeta) (*models.Lot, error) {
	if !models.ValidLotStatut(statut) {
		return nil, models.ErrBadRequest
	}

	if err := s.lots.ForceStatut(ctx, lotID, statut); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to force lot statut", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       actorID,
		Action:       models.AuditLotForced,
		ResourceType: models.ResourceLot,
		ResourceID:   &lotID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
		Details:      map[string]interface{}{"statut": statut},
	})

	return s.lots.GetByID(ctx, lotID)
}

// Delete removes a lot; only the owner's account may do it.
func (s *LotService) Delete(ctx context.Context, lotID string, callerUserID *string, meta RequestMeta) error {
	lot, err := s.lots.GetByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load lot", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if callerUserID != nil {
		owner, err := s.isOwner(ctx, lot, *callerUserID)
		if err != nil {
			return err
		}
		if !owner {
			return models.ErrForbidden
		}
	}

	if err := s.lots.Delete(ctx, lotID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete lot", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       callerUserID,
		Action:       models.AuditLotDeleted,
		ResourceType: models.ResourceLot,
		ResourceID:   &lotID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

// isOwner is the single ownership predicate used by every lot endpoint:
// the caller owns a lot when their account is linked to the lot's
// parent participant.
func (s *LotService) isOwner(ctx context.Context, lot *models.Lot, callerUserID string) (bool, error) {
	parent, err := s.participants.GetByID(ctx, lot.ParentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		s.logger.Error("failed to load lot owner", slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	return parent.UserID != nil && *parent.UserID == callerUserID, nil
}
