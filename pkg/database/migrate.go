package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"contacts-api/pkg/database/migrations"
	"contacts-api/pkg/utils"
)

// gooseRun is a seam for tests.
var gooseRun = func(ctx context.Context, command string, db *sql.DB, dir string) error {
	return goose.RunContext(ctx, command, db, dir)
}

// Migrate runs a goose command ("up", "down", "status", ...) against the
// embedded migrations.
func Migrate(ctx context.Context, config utils.DatabaseConfig, command string) error {
	db, err := sql.Open("pgx", DSN(config))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return runMigrations(ctx, db, command)
}

func runMigrations(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := gooseRun(ctx, command, db, "."); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	return nil
}
