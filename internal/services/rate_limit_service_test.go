package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ape-stjoseph/tombola-api/internal/models"
)

// inMemoryRateLimitStore mirrors the SQL counter semantics so windows
// can be exercised end to end with a fake clock.
type inMemoryRateLimitStore struct {
	rows map[string]*models.RateLimitRecord
}

func newInMemoryRateLimitStore() *inMemoryRateLimitStore {
	return &inMemoryRateLimitStore{rows: make(map[string]*models.RateLimitRecord)}
}

func (s *inMemoryRateLimitStore) key(identifier, endpoint string) string {
	return identifier + "|" + endpoint
}

func (s *inMemoryRateLimitStore) SweepStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for k, rec := range s.rows {
		if rec.WindowStart.Before(cutoff) {
			delete(s.rows, k)
			removed++
		}
	}
	return removed, nil
}

func (s *inMemoryRateLimitStore) TryInsert(ctx context.Context, identifier, endpoint string, windowStart time.Time) (bool, error) {
	k := s.key(identifier, endpoint)
	if _, exists := s.rows[k]; exists {
		return false, nil
	}
	s.rows[k] = &models.RateLimitRecord{
		Identifier:   identifier,
		Endpoint:     endpoint,
		RequestCount: 1,
		WindowStart:  windowStart,
	}
	return true, nil
}

func (s *inMemoryRateLimitStore) TryIncrement(ctx context.Context, identifier, endpoint string, max int) (*models.RateLimitRecord, bool, error) {
	rec, exists := s.rows[s.key(identifier, endpoint)]
	if !exists || rec.RequestCount >= max {
		return nil, false, nil
	}
	rec.RequestCount++
	copied := *rec
	return &copied, true, nil
}

func (s *inMemoryRateLimitStore) Get(ctx context.Context, identifier, endpoint string) (*models.RateLimitRecord, error) {
	rec, exists := s.rows[s.key(identifier, endpoint)]
	if !exists {
		return nil, models.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func TestRateLimitService_Check(t *testing.T) {
	const (
		maxRequests = 5
		window      = 60 * time.Second
	)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("allows up to the limit then denies without counting", func(t *testing.T) {
		store := newInMemoryRateLimitStore()
		svc := NewRateLimitService(store, slog.Default())
		svc.now = func() time.Time { return base }

		for i := 1; i <= maxRequests; i++ {
			d, err := svc.Check(context.Background(), "192.0.2.10", "/api/v1/auth/login", maxRequests, window)
			require.NoError(t, err)
			assert.True(t, d.Allowed, "request %d should pass", i)
			assert.Equal(t, maxRequests-i, d.Remaining)
		}

		for i := 0; i < 3; i++ {
			d, err := svc.Check(context.Background(), "192.0.2.10", "/api/v1/auth/login", maxRequests, window)
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, 0, d.Remaining)
			assert.Equal(t, base.Add(window), d.ResetAt)
		}

		// Denied requests never push the counter past the cap.
		rec, err := store.Get(context.Background(), "192.0.2.10", "/api/v1/auth/login")
		require.NoError(t, err)
		assert.Equal(t, maxRequests, rec.RequestCount)
	})

	t.Run("a fresh window starts after the previous one lapses", func(t *testing.T) {
		store := newInMemoryRateLimitStore()
		svc := NewRateLimitService(store, slog.Default())
		now := base
		svc.now = func() time.Time { return now }

		for i := 0; i < maxRequests+1; i++ {
			svc.Check(context.Background(), "192.0.2.10", "/api/v1/auth/login", maxRequests, window)
		}

		now = base.Add(window + time.Second)
		d, err := svc.Check(context.Background(), "192.0.2.10", "/api/v1/auth/login", maxRequests, window)

		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, maxRequests-1, d.Remaining)
		assert.Equal(t, now.Add(window), d.ResetAt)
	})

	t.Run("identifiers and endpoints count independently", func(t *testing.T) {
		store := newInMemoryRateLimitStore()
		svc := NewRateLimitService(store, slog.Default())
		svc.now = func() time.Time { return base }

		for i := 0; i < maxRequests; i++ {
			svc.Check(context.Background(), "192.0.2.10", "/api/v1/auth/login", maxRequests, window)
		}

		other, err := svc.Check(context.Background(), "192.0.2.20", "/api/v1/auth/login", maxRequests, window)
		require.NoError(t, err)
		assert.True(t, other.Allowed)

		elsewhere, err := svc.Check(context.Background(), "192.0.2.10", "/api/v1/lots", maxRequests, window)
		require.NoError(t, err)
		assert.True(t, elsewhere.Allowed)
	})

	t.Run("storage failures surface to the caller", func(t *testing.T) {
		repo := &MockRateLimitRepository{
			SweepStaleFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
				return 0, errors.New("connection refused")
			},
		}
		svc := NewRateLimitService(repo, slog.Default())

		_, err := svc.Check(context.Background(), "192.0.2.10", "/api/v1/lots", maxRequests, window)

		assert.Error(t, err)
	})
}
