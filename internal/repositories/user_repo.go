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

type UserRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE id = $1
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail looks up a user by normalized email. Emails are stored
// lowercase; the caller normalizes before lookup.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	now := time.Now()

	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, password_hash, created_at, updated_at
	`

	return scanUserRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), email, passwordHash, now, now,
	))
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteCascade removes a user and everything hanging off the account,
// in foreign-key dependency order, inside one transaction: the
// participant's lots, releases of lots the participant had reserved,
// the participant, sessions, roles, audit logs, then the user row.
func (r *UserRepository) DeleteCascade(ctx context.Context, userID string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM participants WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("failed to find participants: %w", err)
		}

		participantIDs := make([]string, 0, 1)
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan participant id: %w", err)
			}
			participantIDs = append(participantIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating participant rows: %w", err)
		}

		for _, pid := range participantIDs {
			// Lots this participant had reserved go back on the table.
			if _, err := tx.Exec(ctx,
				`UPDATE lots SET statut = $1, reserved_by = NULL WHERE reserved_by = $2`,
				models.LotDisponible, pid,
			); err != nil {
				return fmt.Errorf("failed to release reserved lots: %w", err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM lots WHERE parent_id = $1`, pid); err != nil {
				return fmt.Errorf("failed to delete lots: %w", err)
			}
		}

		statements := []string{
			`DELETE FROM participants WHERE user_id = $1`,
			`DELETE FROM sessions WHERE user_id = $1`,
			`DELETE FROM roles WHERE user_id = $1`,
			`DELETE FROM audit_logs WHERE user_id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, userID); err != nil {
				return fmt.Errorf("cascade delete failed: %w", err)
			}
		}

		result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}
