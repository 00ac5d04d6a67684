package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ape-stjoseph/tombola-api/internal/models"
)

const (
	maxIPLength        = 45
	maxUserAgentLength = 500
)

// AuditLogRepository defines the audit storage operations
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error)
	List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error)
}

// AuditService records security and state-changing events with a
// dual-write pattern (slog + database). Persistence is best-effort:
// no failure here ever propagates to the primary action.
type AuditService struct {
	repo   AuditLogRepository
	logger *slog.Logger
}

func NewAuditService(repo AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// AuditEntry is the input to Record; Details is serialized to JSON.
type AuditEntry struct {
	UserID       *string
	Action       string
	ResourceType string
	ResourceID   *string
	ClientIP     string
	UserAgent    string
	Details      map[string]interface{}
}

// Record writes one audit row. IP and user agent are truncated to the
// column bounds; any failure is logged and swallowed.
func (s *AuditService) Record(ctx context.Context, e AuditEntry) {
	s.logger.InfoContext(ctx, "audit event",
		slog.String("action", e.Action),
		slog.String("resource_type", e.ResourceType),
		slog.Any("user_id", e.UserID),
	)

	entry := &models.AuditLogEntry{
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		IPAddress:    truncate(e.ClientIP, maxIPLength),
		UserAgent:    truncate(e.UserAgent, maxUserAgentLength),
	}

	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to marshal audit details",
				slog.String("action", e.Action),
				slog.Any("error", err))
		} else {
			details := string(raw)
			entry.Details = &details
		}
	}

	if _, err := s.repo.Create(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", e.Action),
			slog.Any("error", err))
	}
}

// List returns recent audit entries for the admin trail.
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, limit, offset)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
