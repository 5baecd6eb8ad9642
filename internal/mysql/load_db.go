package mysql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
)

//go:embed users.sql sessions.sql
var schema embed.FS

var schemaFiles = []string{"users.sql", "sessions.sql"}

// ParseDSN parses dsn and forces the options the repositories depend on:
// DATETIME columns scan into time.Time, in UTC.
func ParseDSN(dsn string) (*driver.Config, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg, nil
}

func LoadDB(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to DB: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create tables: %w", err)
	}
	return db, nil
}

// Migrate runs the embedded schema files in order. Every statement is
// idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, file := range schemaFiles {
		query, err := schema.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(query)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", file, err)
		}
	}
	return nil
}
