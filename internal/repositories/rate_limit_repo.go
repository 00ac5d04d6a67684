package repositories

import (
	"context"
	"time"

	"github.com/ape-stjoseph/tombola-api/internal/database"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RateLimitRepository struct {
	pool *pgxpool.Pool
}

func NewRateLimitRepository(db *database.DB) *RateLimitRepository {
	return &RateLimitRepository{pool: db.Pool}
}

// SweepStale deletes every counter whose window started before the
// cutoff, across all identifiers and endpoints. Cost is O(stale rows),
// bounded in practice because it runs on every check.
func (r *RateLimitRepository) SweepStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM rate_limits WHERE window_start < $1`, cutoff,
	)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// TryInsert starts a fresh window with count 1. Returns false when a
// counter for the key already exists (including a concurrent insert
// that won the race).
func (r *RateLimitRepository) TryInsert(ctx context.Context, identifier, endpoint string, windowStart time.Time) (bool, error) {
	query := `
		INSERT INTO rate_limits (identifier, endpoint, request_count, window_start)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (identifier, endpoint) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, identifier, endpoint, windowStart)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return result.RowsAffected() == 1, nil
}

// TryIncrement bumps the counter only while it is below max, in a
// single conditional update so concurrent bursts cannot overshoot.
// Returns the updated record, or ok=false when the counter is at the
// cap (or the row vanished).
func (r *RateLimitRepository) TryIncrement(ctx context.Context, identifier, endpoint string, max int) (*models.RateLimitRecord, bool, error) {
	query := `
		UPDATE rate_limits SET request_count = request_count + 1
		WHERE identifier = $1 AND endpoint = $2 AND request_count < $3
		RETURNING identifier, endpoint, request_count, window_start
	`

	var rec models.RateLimitRecord
	err := r.pool.QueryRow(ctx, query, identifier, endpoint, max).Scan(
		&rec.Identifier, &rec.Endpoint, &rec.RequestCount, &rec.WindowStart,
	)
	if err != nil {
		if database.MapPostgresError(err) == models.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, database.MapPostgresError(err)
	}

	return &rec, true, nil
}

// Get fetches the counter for a key, used to compute the reset time of
// a rejected request.
func (r *RateLimitRepository) Get(ctx context.Context, identifier, endpoint string) (*models.RateLimitRecord, error) {
	query := `
		SELECT identifier, endpoint, request_count, window_start
		FROM rate_limits WHERE identifier = $1 AND endpoint = $2
	`

	var rec models.RateLimitRecord
	err := r.pool.QueryRow(ctx, query, identifier, endpoint).Scan(
		&rec.Identifier, &rec.Endpoint, &rec.RequestCount, &rec.WindowStart,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}
