package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ape-stjoseph/tombola-api/internal/models"
)

// RateLimitRepository defines the fixed-window counter storage
type RateLimitRepository interface {
	SweepStale(ctx context.Context, cutoff time.Time) (int64, error)
	TryInsert(ctx context.Context, identifier, endpoint string, windowStart time.Time) (bool, error)
	TryIncrement(ctx context.Context, identifier, endpoint string, max int) (*models.RateLimitRecord, bool, error)
	Get(ctx context.Context, identifier, endpoint string) (*models.RateLimitRecord, error)
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimitService implements a fixed-window counter per
// (identifier, endpoint). It returns storage errors to the caller;
// treating them as Allow is the caller's policy, not the service's.
type RateLimitService struct {
	repo   RateLimitRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewRateLimitService(repo RateLimitRepository, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{repo: repo, logger: logger, now: time.Now}
}

// Check counts one request against the window. Stale rows across the
// whole table are swept first; frequency of the sweep equals request
// frequency, so it stays bounded without a timer.
func (s *RateLimitService) Check(ctx context.Context, identifier, endpoint string, maxRequests int, window time.Duration) (Decision, error) {
	now := s.now()

	if _, err := s.repo.SweepStale(ctx, now.Add(-window)); err != nil {
		return Decision{}, err
	}

	inserted, err := s.repo.TryInsert(ctx, identifier, endpoint, now)
	if err != nil {
		return Decision{}, err
	}
	if inserted {
		return Decision{
			Allowed:   true,
			Remaining: maxRequests - 1,
			ResetAt:   now.Add(window),
		}, nil
	}

	rec, ok, err := s.repo.TryIncrement(ctx, identifier, endpoint, maxRequests)
	if err != nil {
		return Decision{}, err
	}
	if ok {
		return Decision{
			Allowed:   true,
			Remaining: maxRequests - rec.RequestCount,
			ResetAt:   rec.WindowStart.Add(window),
		}, nil
	}

	// At the cap: the counter is not incremented further.
	rec, err = s.repo.Get(ctx, identifier, endpoint)
	if err != nil {
		return Decision{}, err
	}

	s.logger.Warn("rate limit exceeded",
		slog.String("identifier", identifier),
		slog.String("endpoint", endpoint),
		slog.Int("count", rec.RequestCount))

	return Decision{
		Allowed:   false,
		Remaining: 0,
		ResetAt:   rec.WindowStart.Add(window),
	}, nil
}
