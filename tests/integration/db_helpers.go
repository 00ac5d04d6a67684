package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ape-stjoseph/tombola-api/internal/database"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	pkgauth "github.com/ape-stjoseph/tombola-api/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database handles
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase starts a PostgreSQL container and applies the
// embedded migrations.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("tombola"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()
	if err := database.MigrateDB(sqlDB); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"lots",
		"participants",
		"sessions",
		"roles",
		"audit_logs",
		"rate_limits",
		"newsletter_subscribers",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedUser inserts an account with a hashed password.
func SeedUser(ctx context.Context, pool *pgxpool.Pool, email, password string) (*models.User, error) {
	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, email, password_hash, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, email, hashedPassword).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// GrantAdmin marks an account as admin.
func GrantAdmin(ctx context.Context, pool *pgxpool.Pool, userID string) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO roles (user_id, role) VALUES ($1, 'admin') ON CONFLICT DO NOTHING`, userID)
	return err
}

// SeedParticipant inserts a raffle profile linked to an account.
func SeedParticipant(ctx context.Context, pool *pgxpool.Pool, userID *string, prenom, email string) (*models.Participant, error) {
	query := `
		INSERT INTO participants (user_id, prenom, email, role, created_at)
		VALUES ($1, $2, $3, 'parent', NOW())
		RETURNING id, prenom, email, created_at
	`

	var p models.Participant
	p.UserID = userID
	err := pool.QueryRow(ctx, query, userID, prenom, email).Scan(
		&p.ID,
		&p.Prenom,
		&p.Email,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert participant: %w", err)
	}

	return &p, nil
}

// SeedLot inserts a lot owned by a participant.
func SeedLot(ctx context.Context, pool *pgxpool.Pool, parentID, nom string) (*models.Lot, error) {
	query := `
		INSERT INTO lots (nom, statut, parent_id, created_at)
		VALUES ($1, 'disponible', $2, NOW())
		RETURNING id, nom, statut, parent_id, created_at
	`

	var lot models.Lot
	err := pool.QueryRow(ctx, query, nom, parentID).Scan(
		&lot.ID,
		&lot.Nom,
		&lot.Statut,
		&lot.ParentID,
		&lot.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lot: %w", err)
	}

	return &lot, nil
}
