// Package store keeps identifications, fragment ions and spectra in SQLite or
// PostgreSQL and serves them to the search engine and the aggregator.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/config"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/logger"
)

// Store wraps a pooled sqlx.DB connection.
type Store struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	s, err := OpenDSN(ctx, cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "postgres" {
		s.db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		s.db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		s.db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	}
	return s, nil
}

// OpenDSN connects with an explicit driver ("sqlite3" or "postgres") and data
// source name.
func OpenDSN(ctx context.Context, driver, dsn string) (*Store, error) {
	var schema string
	switch driver {
	case "sqlite3":
		schema = sqliteSchema
	case "postgres":
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, core.NewSourceError("database", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, core.NewSourceError("database", err)
	}

	s := &Store{
		db:     db,
		driver: driver,
		logger: logger.WithComponent("store"),
	}
	if err := s.migrate(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver returns the database driver name.
func (s *Store) Driver() string {
	return s.driver
}

// migrate creates the tables one statement at a time; lib/pq does not accept
// several statements with parameters and SQLite stops at the first error.
func (s *Store) migrate(ctx context.Context, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// Reset deletes every stored row.
func (s *Store) Reset(ctx context.Context) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, table := range []string{"FragmentIonTable", "IdentificationTable", "SpectrumTable"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Counts returns the number of rows per table.
func (s *Store) Counts(ctx context.Context) (ImportCounts, error) {
	var c ImportCounts
	queries := []struct {
		dest  *int
		table string
	}{
		{&c.Identifications, "IdentificationTable"},
		{&c.FragmentIons, "FragmentIonTable"},
		{&c.Spectra, "SpectrumTable"},
	}
	for _, q := range queries {
		if err := s.db.GetContext(ctx, q.dest, "SELECT COUNT(*) FROM "+q.table); err != nil {
			return ImportCounts{}, core.NewSourceError("database", err)
		}
	}
	return c, nil
}

// Instruments returns the distinct instrument names, sorted.
func (s *Store) Instruments(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.SelectContext(ctx, &out,
		"SELECT DISTINCT instrument_name FROM IdentificationTable WHERE instrument_name <> '' ORDER BY instrument_name")
	if err != nil {
		return nil, core.NewSourceError("identifications", err)
	}
	return out, nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewSourceError("database", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.NewSourceError("database", err)
	}
	return nil
}
