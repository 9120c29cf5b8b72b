package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *sql.DB {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	return db
}

func TestConfigureDatabase(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Configure database (should apply pragmas and run migrations)
	err := ConfigureDatabase(db)
	if err != nil {
		t.Fatalf("Failed to configure database: %v", err)
	}

	// Verify that migrations table was created
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check for migrations table: %v", err)
	}

	if count != 1 {
		t.Error("Expected schema_migrations table to be created")
	}

	// Verify that migrations were applied
	err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}

	expectedMigrations := len(GetMigrations())
	if count != expectedMigrations {
		t.Errorf("Expected %d migrations to be applied, got %d", expectedMigrations, count)
	}
}

func TestRunMigrations(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	for _, table := range []string{"minutiae_sets", "minutiae"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check for %s table: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Expected %s table to be created", table)
		}
	}

	// source column added by migration 2
	if _, err := db.Exec("INSERT INTO minutiae_sets (id, image_path, source) VALUES ('a', 'print.png', 'mindtct')"); err != nil {
		t.Fatalf("Failed to insert with source column: %v", err)
	}
	var source string
	if err := db.QueryRow("SELECT source FROM minutiae_sets WHERE id = 'a'").Scan(&source); err != nil {
		t.Fatalf("Failed to read source: %v", err)
	}
	if source != "mindtct" {
		t.Errorf("Expected source mindtct, got %s", source)
	}
}

func TestOpen_CascadeDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("INSERT INTO minutiae_sets (id, image_path) VALUES ('s', 'p.png')"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO minutiae (set_id, position, x, y, angle, type, quality) VALUES ('s', 0, 1, 2, 3, 1, 1)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM minutiae_sets WHERE id = 's'"); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM minutiae").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected minutiae rows to be removed with their set, got %d", count)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Run migrations twice - should be idempotent
	err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Failed to run migrations first time: %v", err)
	}

	err = RunMigrations(db)
	if err != nil {
		t.Fatalf("Failed to run migrations second time (should be idempotent): %v", err)
	}

	// Verify migration count is still correct
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}

	expectedMigrations := len(GetMigrations())
	if count != expectedMigrations {
		t.Errorf("Expected %d migrations after running twice, got %d", expectedMigrations, count)
	}
}

func TestGetCurrentVersion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Before any migrations, version should be 0
	version, err := getCurrentVersion(db)
	if err != nil {
		t.Fatalf("Failed to get current version: %v", err)
	}

	if version != 0 {
		t.Errorf("Expected initial version 0, got %d", version)
	}

	// Create migrations table and add a migration
	err = ensureMigrationsTable(db)
	if err != nil {
		t.Fatalf("Failed to create migrations table: %v", err)
	}

	// Insert a test migration
	_, err = db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", 1, "test_migration")
	if err != nil {
		t.Fatalf("Failed to insert test migration: %v", err)
	}

	// Check version again
	version, err = getCurrentVersion(db)
	if err != nil {
		t.Fatalf("Failed to get current version after migration: %v", err)
	}

	if version != 1 {
		t.Errorf("Expected version 1 after migration, got %d", version)
	}
}

func TestGetMigrations(t *testing.T) {
	migrations := GetMigrations()

	if len(migrations) == 0 {
		t.Error("Expected at least one migration")
	}

	// Verify migrations are ordered by version
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Error("Expected migrations to be ordered by version")
		}
	}

	// Verify each migration has required fields
	for _, migration := range migrations {
		if migration.Version <= 0 {
			t.Errorf("Migration %s has invalid version %d", migration.Name, migration.Version)
		}

		if migration.Name == "" {
			t.Errorf("Migration %d has empty name", migration.Version)
		}

		if migration.SQL == "" {
			t.Errorf("Migration %s has empty SQL", migration.Name)
		}
	}
}
