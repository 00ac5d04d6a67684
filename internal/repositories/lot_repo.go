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

type LotRepository struct {
	pool *pgxpool.Pool
}

func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{pool: db.Pool}
}

// LotListing is a lot joined with display names for the public list.
type LotListing struct {
	models.Lot
	ParentPrenom     string  `json:"parent_prenom"`
	ReservedByPrenom *string `json:"reserved_by_prenom,omitempty"`
}

func scanLotRow(scanner rowScanner) (*models.Lot, error) {
	var lot models.Lot

	err := scanner.Scan(
		&lot.ID, &lot.Nom, &lot.Description, &lot.Icone,
		&lot.Statut, &lot.ParentID, &lot.ReservedBy, &lot.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &lot, nil
}

func (r *LotRepository) GetByID(ctx context.Context, id string) (*models.Lot, error) {
	query := `
		SELECT id, nom, description, icone, statut, parent_id, reserved_by, created_at
		FROM lots WHERE id = $1
	`

	return scanLotRow(r.pool.QueryRow(ctx, query, id))
}

func (r *LotRepository) Create(ctx context.Context, lot *models.Lot) (*models.Lot, error) {
	query := `
		INSERT INTO lots (id, nom, description, icone, statut, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, nom, description, icone, statut, parent_id, reserved_by, created_at
	`

	return scanLotRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), lot.Nom, lot.Description, lot.Icone,
		models.LotDisponible, lot.ParentID, time.Now(),
	))
}

func (r *LotRepository) ListAll(ctx context.Context) ([]*LotListing, error) {
	query := `
		SELECT l.id, l.nom, l.description, l.icone, l.statut, l.parent_id, l.reserved_by, l.created_at,
		       p.prenom, rp.prenom
		FROM lots l
		JOIN participants p ON p.id = l.parent_id
		LEFT JOIN participants rp ON rp.id = l.reserved_by
		ORDER BY l.created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	lots := make([]*LotListing, 0)
	for rows.Next() {
		var l LotListing
		err := rows.Scan(
			&l.ID, &l.Nom, &l.Description, &l.Icone,
			&l.Statut, &l.ParentID, &l.ReservedBy, &l.CreatedAt,
			&l.ParentPrenom, &l.ReservedByPrenom,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lot rows: %w", err)
	}

	return lots, nil
}

// Reserve claims an available lot for reserverID with a single
// conditional update. The statut predicate makes concurrent reservers
// serialize on the row: exactly one update matches, the loser sees zero
// rows affected.
func (r *LotRepository) Reserve(ctx context.Context, lotID, reserverID string) (bool, error) {
	query := `
		UPDATE lots SET statut = $1, reserved_by = $2
		WHERE id = $3 AND statut = $4
	`

	result, err := r.pool.Exec(ctx, query,
		models.LotReserve, reserverID, lotID, models.LotDisponible,
	)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() == 1, nil
}

// Release puts a reserved lot back to disponible. Returns false when
// the lot was not in the reserve state.
func (r *LotRepository) Release(ctx context.Context, lotID string) (bool, error) {
	query := `
		UPDATE lots SET statut = $1, reserved_by = NULL
		WHERE id = $2 AND statut = $3
	`

	result, err := r.pool.Exec(ctx, query, models.LotDisponible, lotID, models.LotReserve)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() == 1, nil
}

// MarkRemis moves a reserved lot to the terminal remis state. Returns
// false when the lot was not in the reserve state. reserved_by is
// cleared so delivered lots never match a reserver's cascade release.
func (r *LotRepository) MarkRemis(ctx context.Context, lotID string) (bool, error) {
	query := `
		UPDATE lots SET statut = $1, reserved_by = NULL
		WHERE id = $2 AND statut = $3
	`

	result, err := r.pool.Exec(ctx, query, models.LotRemis, lotID, models.LotReserve)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() == 1, nil
}

// ForceStatut sets a lot's statut regardless of its current state.
// Admin-only path; reserved_by is cleared unless the target state keeps
// a reservation.
func (r *LotRepository) ForceStatut(ctx context.Context, lotID, statut string) error {
	var query string
	if statut == models.LotReserve {
		query = `UPDATE lots SET statut = $1 WHERE id = $2`
	} else {
		query = `UPDATE lots SET statut = $1, reserved_by = NULL WHERE id = $2`
	}

	result, err := r.pool.Exec(ctx, query, statut, lotID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *LotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
