package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/anempire/anempire-web/migrations"
)

// Migrate applies the embedded goose migrations against the given DSN.
func Migrate(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("platform/db: open migration conn: %w", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()

	goose.SetBaseFS(migrations.Files)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("platform/db: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("platform/db: run migrations: %w", err)
	}
	return nil
}
