package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ape-stjoseph/tombola-api/internal/database"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db, pool: db.Pool}
}

func scanParticipantRow(scanner rowScanner) (*models.Participant, error) {
	var p models.Participant

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.Prenom, &p.Email,
		&p.Role, &p.Classes, &p.Emoji, &p.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

func scanParticipantRows(rows pgx.Rows) ([]*models.Participant, error) {
	defer rows.Close()

	participants := make([]*models.Participant, 0)

	for rows.Next() {
		p, err := scanParticipantRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}

	return participants, nil
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	query := `
		SELECT id, user_id, prenom, email, role, classes, emoji, created_at
		FROM participants WHERE id = $1
	`

	return scanParticipantRow(r.pool.QueryRow(ctx, query, id))
}

// GetByUserID returns the user's participant profile, if any. At most
// one exists per user; the registry enforces it before inserting.
func (r *ParticipantRepository) GetByUserID(ctx context.Context, userID string) (*models.Participant, error) {
	query := `
		SELECT id, user_id, prenom, email, role, classes, emoji, created_at
		FROM participants WHERE user_id = $1
	`

	return scanParticipantRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *ParticipantRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Participant, error) {
	query := `
		SELECT id, user_id, prenom, email, role, classes, emoji, created_at
		FROM participants WHERE user_id = $1 ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}

	return scanParticipantRows(rows)
}

func (r *ParticipantRepository) ListAll(ctx context.Context) ([]*models.Participant, error) {
	query := `
		SELECT id, user_id, prenom, email, role, classes, emoji, created_at
		FROM participants ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}

	return scanParticipantRows(rows)
}

func (r *ParticipantRepository) Create(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	query := `
		INSERT INTO participants (id, user_id, prenom, email, role, classes, emoji, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, prenom, email, role, classes, emoji, created_at
	`

	return scanParticipantRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), p.UserID, p.Prenom, p.Email,
		p.Role, p.Classes, p.Emoji, time.Now(),
	))
}

// DeleteCascade removes a participant together with its lots, first
// putting any lot the participant had reserved back on the table. The
// release must happen at the application level because a plain foreign
// key cannot reset statut.
func (r *ParticipantRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE lots SET statut = $1, reserved_by = NULL WHERE reserved_by = $2`,
			models.LotDisponible, id,
		); err != nil {
			return fmt.Errorf("failed to release reserved lots: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM lots WHERE parent_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete lots: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete participant: %w", err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}
