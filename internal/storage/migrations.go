// Schema migrations are embedded SQL files applied in version order.
//
// Filenames must match NNNN_name.up.sql or NNNN_name.down.sql, discovered
// under a driver-specific subdirectory of migrations/. Adding or removing a
// migration requires rebuilding the binary.
//
// Heavily influenced by Authelia's migration system https://github.com/authelia/authelia/blob/master/internal/storage/migrations.go

package storage

import (
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

//go:embed migrations/**/*.sql
var migrationsFS embed.FS

var reMigrationFilename = regexp.MustCompile(`^(?P<Version>\d{4})\_(?P<Name>[^.]+)\.(?P<Direction>(up|down))\.sql$`)

// SchemaMigration represents a single database migration
type SchemaMigration struct {
	Version int
	Name    string
	Up      bool
	SQL     string
}

func migrationsDir(driver string) (string, error) {
	switch driver {
	case "sqlite3":
		return "migrations/sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", driver)
	}
}

func parseMigrationFile(dir, filename string) (*SchemaMigration, error) {
	m := reMigrationFilename.FindStringSubmatch(filename)
	if m == nil {
		return nil, fmt.Errorf("not a migration file: %s", filename)
	}

	version, err := strconv.Atoi(m[reMigrationFilename.SubexpIndex("Version")])
	if err != nil {
		return nil, err
	}

	data, err := migrationsFS.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("read migration file: %w", err)
	}

	return &SchemaMigration{
		Version: version,
		Name:    m[reMigrationFilename.SubexpIndex("Name")],
		Up:      m[reMigrationFilename.SubexpIndex("Direction")] == "up",
		SQL:     string(data),
	}, nil
}

// loadUpMigrations returns all "up" migrations for the driver, sorted by
// version.
func loadUpMigrations(driver string) ([]SchemaMigration, error) {
	dir, err := migrationsDir(driver)
	if err != nil {
		return nil, err
	}

	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	var migrations []SchemaMigration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		migration, err := parseMigrationFile(dir, entry.Name())
		if err != nil {
			continue
		}
		if !migration.Up {
			continue
		}
		migrations = append(migrations, *migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// runMigrations brings the schema up to the latest embedded version.
func (p *SQLProvider) runMigrations(driver string) error {
	logger := slog.With("component", "migrations", "driver", driver)

	if _, err := p.db.Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := p.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("read current schema version: %w", err)
	}

	migrations, err := loadUpMigrations(driver)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		logger.Info("Applying migration", "version", migration.Version, "name", migration.Name)

		tx, err := p.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration transaction: %w", err)
		}
		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %04d_%s: %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %04d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %04d: %w", migration.Version, err)
		}
	}

	return nil
}
