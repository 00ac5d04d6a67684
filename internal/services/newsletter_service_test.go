package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ape-stjoseph/tombola-api/internal/models"
)

func newNewsletterService(repo *MockNewsletterRepository, email *MockEmailSender) *NewsletterService {
	return NewNewsletterService(repo, email, NewTestAuditService(), slog.Default(),
		"https://ape-stjoseph.example.org", "test-unsubscribe-secret-0123456789abcdef", 48*time.Hour)
}

func TestNewsletterService_Subscribe(t *testing.T) {
	t.Run("stores a pending subscription and mails the confirmation link", func(t *testing.T) {
		var storedToken string
		repo := &MockNewsletterRepository{
			UpsertPendingFunc: func(ctx context.Context, email, token string, expiresAt time.Time) (*models.NewsletterSubscriber, error) {
				storedToken = token
				return &models.NewsletterSubscriber{ID: "sub_1", Email: email, Status: models.SubscriberPending}, nil
			},
		}
		var sentBody string
		email := &MockEmailSender{
			SendFunc: func(ctx context.Context, to, subject, htmlBody string) error {
				sentBody = htmlBody
				assert.Equal(t, "parent@example.com", to)
				return nil
			},
		}
		svc := newNewsletterService(repo, email)

		err := svc.Subscribe(context.Background(), " Parent@Example.com ")

		require.NoError(t, err)
		assert.Len(t, storedToken, 64)
		assert.Contains(t, sentBody, "/newsletter/confirm?token="+storedToken)
	})

	t.Run("rejects an already confirmed address", func(t *testing.T) {
		repo := &MockNewsletterRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
				return &models.NewsletterSubscriber{ID: "sub_1", Email: email, Status: models.SubscriberConfirmed}, nil
			},
		}
		svc := newNewsletterService(repo, &MockEmailSender{})

		err := svc.Subscribe(context.Background(), "parent@example.com")

		assert.ErrorIs(t, err, models.ErrAlreadySubscribed)
	})

	t.Run("refreshes an existing pending subscription", func(t *testing.T) {
		upserted := false
		repo := &MockNewsletterRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
				return &models.NewsletterSubscriber{ID: "sub_1", Email: email, Status: models.SubscriberPending}, nil
			},
			UpsertPendingFunc: func(ctx context.Context, email, token string, expiresAt time.Time) (*models.NewsletterSubscriber, error) {
				upserted = true
				return &models.NewsletterSubscriber{ID: "sub_1", Email: email, Status: models.SubscriberPending}, nil
			},
		}
		svc := newNewsletterService(repo, &MockEmailSender{})

		require.NoError(t, svc.Subscribe(context.Background(), "parent@example.com"))
		assert.True(t, upserted)
	})

	t.Run("rejects a malformed address", func(t *testing.T) {
		svc := newNewsletterService(&MockNewsletterRepository{}, &MockEmailSender{})

		assert.ErrorIs(t, svc.Subscribe(context.Background(), "not-an-email"), models.ErrBadRequest)
	})
}

func TestNewsletterService_Confirm(t *testing.T) {
	t.Run("confirms a live token", func(t *testing.T) {
		repo := &MockNewsletterRepository{
			ConfirmFunc: func(ctx context.Context, token string, now time.Time) (*models.NewsletterSubscriber, error) {
				return &models.NewsletterSubscriber{ID: "sub_1", Status: models.SubscriberConfirmed}, nil
			},
		}
		svc := newNewsletterService(repo, &MockEmailSender{})

		assert.NoError(t, svc.Confirm(context.Background(), "sometoken"))
	})

	t.Run("unknown and expired tokens fail the same way", func(t *testing.T) {
		svc := newNewsletterService(&MockNewsletterRepository{}, &MockEmailSender{})

		assert.ErrorIs(t, svc.Confirm(context.Background(), "expired-or-unknown"), models.ErrNotFound)
	})
}

func TestNewsletterService_UnsubscribeTokenRoundTrip(t *testing.T) {
	svc := newNewsletterService(&MockNewsletterRepository{}, &MockEmailSender{})

	token, err := svc.signUnsubscribeToken("parent@example.com")
	require.NoError(t, err)

	email, err := svc.parseUnsubscribeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", email)

	t.Run("a token signed with another secret is rejected", func(t *testing.T) {
		other := newNewsletterService(&MockNewsletterRepository{}, &MockEmailSender{})
		other.unsubscribeSecret = []byte("a-completely-different-secret-value")

		_, err := other.parseUnsubscribeToken(token)

		assert.Error(t, err)
	})

	t.Run("garbage tokens map to bad request", func(t *testing.T) {
		err := svc.Unsubscribe(context.Background(), "not.a.jwt")

		assert.ErrorIs(t, err, models.ErrBadRequest)
	})
}

func TestNewsletterService_Unsubscribe(t *testing.T) {
	deleted := ""
	repo := &MockNewsletterRepository{
		DeleteByEmailFunc: func(ctx context.Context, email string) error {
			deleted = email
			return nil
		},
	}
	svc := newNewsletterService(repo, &MockEmailSender{})

	token, err := svc.signUnsubscribeToken("parent@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(context.Background(), token))
	assert.Equal(t, "parent@example.com", deleted)
}

func TestNewsletterService_Send(t *testing.T) {
	confirmed := func(emails ...string) *MockNewsletterRepository {
		return &MockNewsletterRepository{
			ListConfirmedFunc: func(ctx context.Context) ([]*models.NewsletterSubscriber, error) {
				subs := make([]*models.NewsletterSubscriber, 0, len(emails))
				for _, e := range emails {
					subs = append(subs, &models.NewsletterSubscriber{Email: e, Status: models.SubscriberConfirmed})
				}
				return subs, nil
			},
		}
	}
	actor := "user_admin"

	t.Run("mails every confirmed subscriber with an unsubscribe footer", func(t *testing.T) {
		email := &MockEmailSender{}
		bodies := map[string]string{}
		email.SendFunc = func(ctx context.Context, to, subject, htmlBody string) error {
			bodies[to] = htmlBody
			return nil
		}
		svc := newNewsletterService(confirmed("a@example.com", "b@example.com"), email)

		result, err := svc.Send(context.Background(), "Kermesse 2026", "<p>Rendez-vous samedi</p>", &actor, RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Sent)
		assert.Equal(t, 0, result.Failed)
		for to, body := range bodies {
			assert.Contains(t, body, "/newsletter/unsubscribe?token=", "footer missing for %s", to)
		}
		assert.NotEqual(t, bodies["a@example.com"], bodies["b@example.com"], "unsubscribe tokens must be per recipient")
	})

	t.Run("counts failures without aborting the run", func(t *testing.T) {
		email := &MockEmailSender{
			SendFunc: func(ctx context.Context, to, subject, htmlBody string) error {
				if strings.HasPrefix(to, "b@") {
					return errors.New("mailbox unavailable")
				}
				return nil
			},
		}
		svc := newNewsletterService(confirmed("a@example.com", "b@example.com", "c@example.com"), email)

		result, err := svc.Send(context.Background(), "Kermesse 2026", "<p>Rendez-vous samedi</p>", &actor, RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Sent)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("requires subject and body", func(t *testing.T) {
		svc := newNewsletterService(confirmed(), &MockEmailSender{})

		_, err := svc.Send(context.Background(), "", "<p>body</p>", &actor, RequestMeta{})
		assert.ErrorIs(t, err, models.ErrBadRequest)

		_, err = svc.Send(context.Background(), "subject", "", &actor, RequestMeta{})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})
}

func TestNewsletterService_CleanupExpired(t *testing.T) {
	repo := &MockNewsletterRepository{
		DeleteExpiredPendingFunc: func(ctx context.Context, now time.Time) (int64, error) {
			return 3, nil
		},
	}
	svc := newNewsletterService(repo, &MockEmailSender{})

	purged, err := svc.CleanupExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
}
