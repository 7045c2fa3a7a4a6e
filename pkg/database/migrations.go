package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// migration is one .sql file from the migrations directory. The numeric
// filename prefix is its version: "001_initial_schema.sql" is version 1
// with name "initial_schema".
type migration struct {
	version int
	name    string
	sql     string
}

// Migrator applies pending schema migrations at startup. Applied versions
// are tracked in schema_migrations so restarts are idempotent.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a migrator over an open database handle.
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// RunMigrations applies, in version order, every migration in dir that the
// schema_migrations table does not record yet. Each migration runs in its
// own transaction together with its tracking row.
func (m *Migrator) RunMigrations(dir string) error {
	m.logger.Info("Running database migrations", zap.String("dir", dir))

	if err := m.ensureVersionTable(); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	migrations, err := m.readDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	pending := 0
	for _, mig := range migrations {
		if applied[mig.version] {
			continue
		}

		m.logger.Info("Applying migration",
			zap.Int("version", mig.version),
			zap.String("name", mig.name))

		if err := m.apply(mig); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", mig.version, mig.name, err)
		}
		pending++
	}

	m.logger.Info("Database schema up to date", zap.Int("applied", pending))
	return nil
}

func (m *Migrator) ensureVersionTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (m *Migrator) appliedVersions() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// readDir loads every .sql file directly in dir, sorted by version. The
// migrations directory is flat; subdirectories are ignored.
func (m *Migrator) readDir(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var migrations []migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		mig, err := parseMigrationName(entry.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[mig.version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", mig.version, prev, entry.Name())
		}
		seen[mig.version] = entry.Name()

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		mig.sql = string(content)
		migrations = append(migrations, mig)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}

func parseMigrationName(filename string) (migration, error) {
	base := strings.TrimSuffix(filename, ".sql")
	prefix, name, ok := strings.Cut(base, "_")
	if !ok {
		return migration{}, fmt.Errorf("migration filename %q must look like 001_name.sql", filename)
	}

	var version int
	if _, err := fmt.Sscanf(prefix, "%d", &version); err != nil {
		return migration{}, fmt.Errorf("migration filename %q has no numeric version: %w", filename, err)
	}
	return migration{version: version, name: name}, nil
}

func (m *Migrator) apply(mig migration) error {
	return m.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(mig.sql); err != nil {
			return err
		}
		_, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			mig.version, mig.name,
		)
		return err
	})
}
