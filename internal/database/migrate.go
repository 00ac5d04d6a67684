package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/ape-stjoseph/tombola-api/internal/config"
	"github.com/pressly/goose/v3"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies pending goose migrations. It opens a short-lived
// database/sql connection (lib/pq) because goose does not speak pgx
// pools.
func Migrate(cfg *config.DatabaseConfig, logger *slog.Logger) error {
	db, err := goose.OpenDBWithDriver("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	if err := MigrateDB(db); err != nil {
		return err
	}

	logger.Info("database migrations applied")
	return nil
}

// MigrateDB applies the embedded migrations over an existing
// connection; the integration harness uses it against testcontainers.
func MigrateDB(db *sql.DB) error {
	goose.SetBaseFS(migrationFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
