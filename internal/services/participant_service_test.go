package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ape-stjoseph/tombola-api/internal/models"
)

func newParticipantService(repo *MockParticipantRepository) *ParticipantService {
	return NewParticipantService(repo, NewTestAuditService(), slog.Default())
}

func validInput() CreateParticipantInput {
	return CreateParticipantInput{
		Prenom: "Claire",
		Email:  "Claire@Example.com",
		Role:   "parent",
		Emoji:  "🎉",
	}
}

func TestParticipantService_Create(t *testing.T) {
	t.Run("creates a profile with a normalized email", func(t *testing.T) {
		var stored *models.Participant
		repo := &MockParticipantRepository{
			CreateFunc: func(ctx context.Context, p *models.Participant) (*models.Participant, error) {
				stored = p
				created := *p
				created.ID = "participant_1"
				return &created, nil
			},
		}
		svc := newParticipantService(repo)

		created, err := svc.Create(context.Background(), "user_1", validInput(), RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, "participant_1", created.ID)
		assert.Equal(t, "claire@example.com", stored.Email)
		require.NotNil(t, stored.UserID)
		assert.Equal(t, "user_1", *stored.UserID)
	})

	t.Run("rejects a second profile for the same account", func(t *testing.T) {
		repo := &MockParticipantRepository{
			GetByUserIDFunc: func(ctx context.Context, userID string) (*models.Participant, error) {
				return &models.Participant{ID: "participant_1", UserID: &userID}, nil
			},
		}
		svc := newParticipantService(repo)

		_, err := svc.Create(context.Background(), "user_1", validInput(), RequestMeta{})

		assert.ErrorIs(t, err, models.ErrAlreadyRegistered)
	})

	t.Run("validates the input", func(t *testing.T) {
		longClasses := strings.Repeat("a", 201)
		tests := []struct {
			name   string
			mutate func(*CreateParticipantInput)
		}{
			{name: "empty prenom", mutate: func(in *CreateParticipantInput) { in.Prenom = "" }},
			{name: "prenom too long", mutate: func(in *CreateParticipantInput) { in.Prenom = strings.Repeat("a", 101) }},
			{name: "email without domain", mutate: func(in *CreateParticipantInput) { in.Email = "claire@" }},
			{name: "email with spaces", mutate: func(in *CreateParticipantInput) { in.Email = "cl aire@example.com" }},
			{name: "empty classes", mutate: func(in *CreateParticipantInput) { empty := ""; in.Classes = &empty }},
			{name: "classes too long", mutate: func(in *CreateParticipantInput) { in.Classes = &longClasses }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := newParticipantService(&MockParticipantRepository{})
				input := validInput()
				tt.mutate(&input)

				_, err := svc.Create(context.Background(), "user_1", input, RequestMeta{})

				assert.ErrorIs(t, err, models.ErrBadRequest)
			})
		}
	})

	t.Run("caps an oversized emoji instead of rejecting it", func(t *testing.T) {
		var stored *models.Participant
		repo := &MockParticipantRepository{
			CreateFunc: func(ctx context.Context, p *models.Participant) (*models.Participant, error) {
				stored = p
				return p, nil
			},
		}
		svc := newParticipantService(repo)
		input := validInput()
		input.Emoji = strings.Repeat("🎉", 12)

		_, err := svc.Create(context.Background(), "user_1", input, RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, 10, len([]rune(stored.Emoji)))
	})
}

func TestParticipantService_Delete(t *testing.T) {
	t.Run("cascades through the repository", func(t *testing.T) {
		deleted := ""
		repo := &MockParticipantRepository{
			DeleteCascadeFunc: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		}
		svc := newParticipantService(repo)
		actor := "user_admin"

		err := svc.Delete(context.Background(), "participant_1", &actor, RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, "participant_1", deleted)
	})

	t.Run("missing profile is a not-found", func(t *testing.T) {
		repo := &MockParticipantRepository{
			DeleteCascadeFunc: func(ctx context.Context, id string) error {
				return models.ErrNotFound
			},
		}
		svc := newParticipantService(repo)

		err := svc.Delete(context.Background(), "participant_missing", nil, RequestMeta{})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
