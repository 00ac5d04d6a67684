package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ape-stjoseph/tombola-api/internal/database"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NewsletterRepository struct {
	pool *pgxpool.Pool
}

func NewNewsletterRepository(db *database.DB) *NewsletterRepository {
	return &NewsletterRepository{pool: db.Pool}
}

func scanSubscriberRow(scanner rowScanner) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber

	err := scanner.Scan(
		&sub.ID, &sub.Email, &sub.Status,
		&sub.ConfirmToken, &sub.ConfirmExpiresAt, &sub.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &sub, nil
}

func (r *NewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	query := `
		SELECT id, email, status, confirm_token, confirm_expires_at, created_at
		FROM newsletter_subscribers WHERE email = $1
	`

	return scanSubscriberRow(r.pool.QueryRow(ctx, query, email))
}

// UpsertPending creates a pending subscription, or refreshes the token
// and expiry of an existing pending row. Confirmed rows are left alone;
// the service treats those as a conflict before calling this.
func (r *NewsletterRepository) UpsertPending(ctx context.Context, email, token string, expiresAt time.Time) (*models.NewsletterSubscriber, error) {
	query := `
		INSERT INTO newsletter_subscribers (id, email, status, confirm_token, confirm_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE
		SET confirm_token = EXCLUDED.confirm_token, confirm_expires_at = EXCLUDED.confirm_expires_at
		WHERE newsletter_subscribers.status = $3
		RETURNING id, email, status, confirm_token, confirm_expires_at, created_at
	`

	return scanSubscriberRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), email, models.SubscriberPending, token, expiresAt, time.Now(),
	))
}

// Confirm flips a pending subscription to confirmed when the token is
// known and unexpired. Returns ErrNotFound otherwise.
func (r *NewsletterRepository) Confirm(ctx context.Context, token string, now time.Time) (*models.NewsletterSubscriber, error) {
	query := `
		UPDATE newsletter_subscribers
		SET status = $1, confirm_token = NULL, confirm_expires_at = NULL
		WHERE confirm_token = $2 AND status = $3 AND confirm_expires_at > $4
		RETURNING id, email, status, confirm_token, confirm_expires_at, created_at
	`

	return scanSubscriberRow(r.pool.QueryRow(ctx, query,
		models.SubscriberConfirmed, token, models.SubscriberPending, now,
	))
}

func (r *NewsletterRepository) DeleteByEmail(ctx context.Context, email string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM newsletter_subscribers WHERE email = $1`, email,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *NewsletterRepository) ListConfirmed(ctx context.Context) ([]*models.NewsletterSubscriber, error) {
	query := `
		SELECT id, email, status, confirm_token, confirm_expires_at, created_at
		FROM newsletter_subscribers WHERE status = $1 ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, models.SubscriberConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.NewsletterSubscriber, 0)
	for rows.Next() {
		sub, err := scanSubscriberRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}

	return subs, nil
}

// DeleteExpiredPending purges pending rows whose confirmation window
// has lapsed. Run periodically by the cleanup manager.
func (r *NewsletterRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM newsletter_subscribers WHERE status = $1 AND confirm_expires_at < $2`,
		models.SubscriberPending, now,
	)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
