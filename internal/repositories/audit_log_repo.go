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

type AuditLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{pool: db.Pool}
}

func scanAuditLogRow(scanner rowScanner) (*models.AuditLogEntry, error) {
	var entry models.AuditLogEntry
	var ip, ua *string

	err := scanner.Scan(
		&entry.ID, &entry.UserID, &entry.Action, &entry.ResourceType,
		&entry.ResourceID, &ip, &ua, &entry.Details, &entry.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if ip != nil {
		entry.IPAddress = *ip
	}
	if ua != nil {
		entry.UserAgent = *ua
	}

	return &entry, nil
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	query := `
		INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, action, resource_type, resource_id, ip_address, user_agent, details, created_at
	`

	return scanAuditLogRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), entry.UserID, entry.Action, entry.ResourceType,
		entry.ResourceID, entry.IPAddress, entry.UserAgent, entry.Details, time.Now(),
	))
}

// List returns recent entries, newest first.
func (r *AuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, user_id, action, resource_type, resource_id, ip_address, user_agent, details, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditLogEntry, 0)
	for rows.Next() {
		entry, err := scanAuditLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return entries, nil
}
