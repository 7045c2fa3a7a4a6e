package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
}

func TestRunMigrationsAppliesInOrderAndIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "002_add_color.sql", "ALTER TABLE things ADD COLUMN color TEXT;")
	writeMigration(t, dir, "001_create_things.sql", "CREATE TABLE things (id INTEGER PRIMARY KEY);")

	m := NewMigrator(db, zap.NewNop())
	if err := m.RunMigrations(dir); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// the ALTER only succeeds if 001 ran before 002 despite directory order
	if _, err := db.Exec("INSERT INTO things (id, color) VALUES (1, 'red')"); err != nil {
		t.Fatalf("migrated schema unusable: %v", err)
	}

	// a second run must skip both recorded versions
	if err := m.RunMigrations(dir); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count applied: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 recorded migrations, got %d", applied)
	}
}

func TestRunMigrationsRejectsDuplicateVersions(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	writeMigration(t, dir, "001_first.sql", "CREATE TABLE a (id INTEGER);")
	writeMigration(t, dir, "001_second.sql", "CREATE TABLE b (id INTEGER);")

	if err := NewMigrator(db, zap.NewNop()).RunMigrations(dir); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestParseMigrationName(t *testing.T) {
	mig, err := parseMigrationName("003_add_vehicles.sql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mig.version != 3 || mig.name != "add_vehicles" {
		t.Errorf("got version %d name %q", mig.version, mig.name)
	}

	if _, err := parseMigrationName("schema.sql"); err == nil {
		t.Error("expected error for filename without version prefix")
	}
}
