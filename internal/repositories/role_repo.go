package repositories

import (
	"context"
	"fmt"

	"github.com/ape-stjoseph/tombola-api/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{pool: db.Pool}
}

// GetForUser returns every role attached to the user. An empty slice
// means no elevated privilege.
func (r *RoleRepository) GetForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]string, 0)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}

	return roles, nil
}

// Grant attaches a role to a user; granting an already-held role is a
// no-op.
func (r *RoleRepository) Grant(ctx context.Context, userID, role string) error {
	query := `
		INSERT INTO roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, userID, role); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}
