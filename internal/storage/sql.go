package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"room-reservation/internal/config"
)

// queries implements Store over either a live *sqlx.DB or an open
// transaction; every query method lives on this type so WithTx gets the
// whole surface for free.
type queries struct {
	ext sqlx.ExtContext
}

type SQLProvider struct {
	queries

	db *sqlx.DB

	config *config.Storage

	logger *slog.Logger
}

func NewSQLProvider(config *config.Storage, driverName string, dataSource string) (provider *SQLProvider) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil
	}

	logger := slog.With("component", "storage")

	return &SQLProvider{
		queries: queries{ext: db},
		db:      db,
		config:  config,
		logger:  logger,
	}
}

// WithTx runs fn inside a single database transaction. With the SQLite
// driver opened in immediate-lock mode this serializes writers, which is
// what makes the booking core's check-then-write sequences atomic.
func (p *SQLProvider) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&queries{ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Error("Transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := sqlx.GetContext(ctx, p.db, &version,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err != nil {
		return -1, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
