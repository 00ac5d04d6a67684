package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/ape-stjoseph/tombola-api/internal/models"
)

// ParticipantRepository defines the raffle-profile storage operations
type ParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	GetByUserID(ctx context.Context, userID string) (*models.Participant, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.Participant, error)
	ListAll(ctx context.Context) ([]*models.Participant, error)
	Create(ctx context.Context, p *models.Participant) (*models.Participant, error)
	DeleteCascade(ctx context.Context, id string) error
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ParticipantService is the raffle participant registry: one profile
// per account, with application-level cascade on delete.
type ParticipantService struct {
	repo   ParticipantRepository
	audit  *AuditService
	logger *slog.Logger
}

func NewParticipantService(repo ParticipantRepository, audit *AuditService, logger *slog.Logger) *ParticipantService {
	return &ParticipantService{repo: repo, audit: audit, logger: logger}
}

// CreateParticipantInput is the validated input for a new profile.
type CreateParticipantInput struct {
	Prenom  string
	Email   string
	Role    string
	Classes *string
	Emoji   string
}

// Create registers the user's raffle profile. A second profile for the
// same account is rejected; the uniqueness rule lives here, not in a
// database constraint.
func (s *ParticipantService) Create(ctx context.Context, userID string, input CreateParticipantInput, meta RequestMeta) (*models.Participant, error) {
	if err := validateParticipantInput(&input); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUserID(ctx, userID); err == nil {
		return nil, models.ErrAlreadyRegistered
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing participant", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	participant := &models.Participant{
		UserID:  &userID,
		Prenom:  input.Prenom,
		Email:   NormalizeEmail(input.Email),
		Role:    input.Role,
		Classes: input.Classes,
		Emoji:   input.Emoji,
	}

	created, err := s.repo.Create(ctx, participant)
	if err != nil {
		s.logger.Error("failed to create participant", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("participant created",
		slog.String("participant_id", created.ID),
		slog.String("user_id", userID))
	s.audit.Record(ctx, AuditEntry{
		UserID:       &userID,
		Action:       models.AuditParticipantCreated,
		ResourceType: models.ResourceParticipant,
		ResourceID:   &created.ID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})

	return created, nil
}

// ListMine returns the caller's profiles.
func (s *ParticipantService) ListMine(ctx context.Context, userID string) ([]*models.Participant, error) {
	participants, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list participants", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return participants, nil
}

// ListAll returns every profile; admin surface.
func (s *ParticipantService) ListAll(ctx context.Context) ([]*models.Participant, error) {
	participants, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list participants", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return participants, nil
}

// Delete removes a profile with its lots; lots the participant had
// reserved are put back on the table first.
func (s *ParticipantService) Delete(ctx context.Context, id string, actorID *string, meta RequestMeta) error {
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete participant", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       actorID,
		Action:       models.AuditParticipantDeleted,
		ResourceType: models.ResourceParticipant,
		ResourceID:   &id,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

func validateParticipantInput(input *CreateParticipantInput) error {
	if n := utf8.RuneCountInString(input.Prenom); n < 1 || n > 100 {
		return models.ErrBadRequest
	}
	if !emailPattern.MatchString(input.Email) {
		return models.ErrBadRequest
	}
	if input.Classes != nil {
		if n := utf8.RuneCountInString(*input.Classes); n < 1 || n > 200 {
			return models.ErrBadRequest
		}
	}
	// Cap rather than reject: multi-codepoint emoji are counted in
	// runes, not graphemes, which is close enough here.
	if runes := []rune(input.Emoji); len(runes) > 10 {
		input.Emoji = string(runes[:10])
	}
	return nil
}
