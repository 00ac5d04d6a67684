package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ape-stjoseph/tombola-api/internal/models"
	pkgauth "github.com/ape-stjoseph/tombola-api/pkg/auth"
	pkglogger "github.com/ape-stjoseph/tombola-api/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// NewsletterRepository defines the mailing-list storage operations
type NewsletterRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
	UpsertPending(ctx context.Context, email, token string, expiresAt time.Time) (*models.NewsletterSubscriber, error)
	Confirm(ctx context.Context, token string, now time.Time) (*models.NewsletterSubscriber, error)
	DeleteByEmail(ctx context.Context, email string) error
	ListConfirmed(ctx context.Context) ([]*models.NewsletterSubscriber, error)
	DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error)
}

// NewsletterService manages the double-opt-in mailing list.
//
// Confirmation tokens are stored rows with an expiry; unsubscribe links
// are stateless signed tokens instead, so links in already-sent issues
// keep working after cleanup.
type NewsletterService struct {
	repo              NewsletterRepository
	email             EmailSender
	audit             *AuditService
	logger            *slog.Logger
	siteBaseURL       string
	unsubscribeSecret []byte
	confirmTTL        time.Duration
	now               func() time.Time
}

func NewNewsletterService(repo NewsletterRepository, email EmailSender, audit *AuditService, logger *slog.Logger, siteBaseURL, unsubscribeSecret string, confirmTTL time.Duration) *NewsletterService {
	return &NewsletterService{
		repo:              repo,
		email:             email,
		audit:             audit,
		logger:            logger,
		siteBaseURL:       siteBaseURL,
		unsubscribeSecret: []byte(unsubscribeSecret),
		confirmTTL:        confirmTTL,
		now:               time.Now,
	}
}

// Subscribe creates or refreshes a pending subscription and sends the
// confirmation mail. Already-confirmed addresses conflict.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return models.ErrBadRequest
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err == nil {
		if existing.Status == models.SubscriberConfirmed {
			return models.ErrAlreadySubscribed
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check subscriber", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, err := pkgauth.GenerateToken()
	if err != nil {
		s.logger.Error("failed to generate confirmation token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if _, err := s.repo.UpsertPending(ctx, email, token, s.now().Add(s.confirmTTL)); err != nil {
		s.logger.Error("failed to store subscription", slog.Any("error", err))
		return models.ErrInternalServer
	}

	confirmLink := fmt.Sprintf("%s/newsletter/confirm?token=%s", s.siteBaseURL, token)
	body := fmt.Sprintf(
		`<p>Bonjour,</p>
<p>Pour confirmer votre inscription à la lettre d'information de l'APE, cliquez sur le lien ci-dessous&nbsp;:</p>
<p><a href="%s">Confirmer mon inscription</a></p>
<p>Ce lien expire dans 48 heures. Si vous n'êtes pas à l'origine de cette demande, ignorez ce message.</p>`,
		confirmLink,
	)

	if err := s.email.Send(ctx, email, "Confirmez votre inscription", body); err != nil {
		s.logger.Error("failed to send confirmation email", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("newsletter subscription pending",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// Confirm flips a pending subscription to confirmed. Unknown or
// expired tokens are indistinguishable to the caller.
func (s *NewsletterService) Confirm(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrBadRequest
	}

	if _, err := s.repo.Confirm(ctx, token, s.now()); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to confirm subscription", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// Unsubscribe removes the subscriber named by a signed unsubscribe
// token.
func (s *NewsletterService) Unsubscribe(ctx context.Context, signedToken string) error {
	email, err := s.parseUnsubscribeToken(signedToken)
	if err != nil {
		return models.ErrBadRequest
	}

	if err := s.repo.DeleteByEmail(ctx, email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to unsubscribe", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("newsletter unsubscribed")
	return nil
}

// SendResult reports the outcome of one bulk send.
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Send mails every confirmed subscriber. Each send is independent:
// failures are counted and reported, never retried, and never abort
// the rest of the run.
func (s *NewsletterService) Send(ctx context.Context, subject, html string, actorID *string, meta RequestMeta) (*SendResult, error) {
	if subject == "" || html == "" {
		return nil, models.ErrBadRequest
	}

	subscribers, err := s.repo.ListConfirmed(ctx)
	if err != nil {
		s.logger.Error("failed to list subscribers", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	result := &SendResult{}
	for _, sub := range subscribers {
		body := html + s.unsubscribeFooter(sub.Email)
		if err := s.email.Send(ctx, sub.Email, subject, body); err != nil {
			s.logger.Error("newsletter send failed for recipient", slog.Any("error", err))
			result.Failed++
			continue
		}
		result.Sent++
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:       actorID,
		Action:       models.AuditNewsletterSent,
		ResourceType: models.ResourceNewsletter,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
		Details:      map[string]interface{}{"sent": result.Sent, "failed": result.Failed},
	})

	return result, nil
}

// CleanupExpired purges pending subscriptions whose confirmation
// window lapsed; called by the background cleanup manager.
func (s *NewsletterService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredPending(ctx, s.now())
}

func (s *NewsletterService) unsubscribeFooter(email string) string {
	token, err := s.signUnsubscribeToken(email)
	if err != nil {
		s.logger.Error("failed to sign unsubscribe token", slog.Any("error", err))
		return ""
	}

	link := fmt.Sprintf("%s/newsletter/unsubscribe?token=%s", s.siteBaseURL, token)
	return fmt.Sprintf(`<hr><p style="font-size:12px"><a href="%s">Se désinscrire</a></p>`, link)
}

func (s *NewsletterService) signUnsubscribeToken(email string) (string, error) {
	claims := jwt.MapClaims{
		"sub": email,
		"use": "unsubscribe",
		"iat": s.now().Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.unsubscribeSecret)
}

func (s *NewsletterService) parseUnsubscribeToken(signedToken string) (string, error) {
	token, err := jwt.Parse(signedToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.unsubscribeSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid unsubscribe token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["use"] != "unsubscribe" {
		return "", fmt.Errorf("invalid unsubscribe token")
	}

	email, _ := claims["sub"].(string)
	if email == "" {
		return "", fmt.Errorf("invalid unsubscribe token")
	}
	return email, nil
}
