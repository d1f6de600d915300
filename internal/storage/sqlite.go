package storage

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"room-reservation/internal/config"
)

type SQLiteProvider struct {
	SQLProvider
}

// NewSQLiteProvider opens the SQLite database in immediate-lock transaction
// mode so that WithTx blocks competing writers for the duration of a
// check-then-write sequence.
func NewSQLiteProvider(config *config.Storage) (provider *SQLiteProvider) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on&_loc=UTC", config.SQLite.Path)

	inner := NewSQLProvider(config, "sqlite3", dsn)
	if inner == nil {
		return nil
	}

	return &SQLiteProvider{
		SQLProvider: *inner,
	}
}
