// Package database opens the sqlite catalog database and keeps its schema
// up to date.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// GetMigrations returns all available migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_minutiae_sets_table",
			SQL: `
				CREATE TABLE IF NOT EXISTS minutiae_sets (
					id TEXT PRIMARY KEY,
					image_path TEXT NOT NULL,
					width INTEGER NOT NULL DEFAULT 0,
					height INTEGER NOT NULL DEFAULT 0,
					note TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE TABLE IF NOT EXISTS minutiae (
					set_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					x INTEGER NOT NULL,
					y INTEGER NOT NULL,
					angle REAL NOT NULL,
					type INTEGER NOT NULL,
					quality REAL NOT NULL,
					PRIMARY KEY (set_id, position),
					FOREIGN KEY (set_id) REFERENCES minutiae_sets (id) ON DELETE CASCADE
				);

				CREATE INDEX IF NOT EXISTS idx_minutiae_sets_image_path ON minutiae_sets (image_path);
				CREATE INDEX IF NOT EXISTS idx_minutiae_sets_updated_at ON minutiae_sets (updated_at);
			`,
		},
		{
			Version: 2,
			Name:    "add_minutiae_sets_source",
			SQL: `
				-- Where a set came from: a file, manual labeling or mindtct
				ALTER TABLE minutiae_sets ADD COLUMN source TEXT NOT NULL DEFAULT 'file';

				CREATE INDEX IF NOT EXISTS idx_minutiae_sets_source ON minutiae_sets (source);
			`,
		},
	}
}

// Open opens the sqlite database at path, creating its directory, and
// configures it.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	// foreign_keys is per connection, so it goes in the DSN for every pooled one
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := ConfigureDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	// First, create the migrations table if it doesn't exist
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current schema version
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	// Run pending migrations
	migrations := GetMigrations()
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue // Already applied
		}

		if err := runMigration(db, migration); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureMigrationsTable(db *sql.DB) error {
	sql := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := db.Exec(sql)
	return err
}

// getCurrentVersion returns the current schema version
func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// If table doesn't exist, return version 0
		if err.Error() == "SQL logic error: no such table: schema_migrations (1)" {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// runMigration executes a single migration
func runMigration(db *sql.DB, migration Migration) error {
	// Start transaction
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Execute migration SQL
	if _, err := tx.Exec(migration.SQL); err != nil {
		return err
	}

	// Record migration as applied
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version, migration.Name,
	); err != nil {
		return err
	}

	// Commit transaction
	return tx.Commit()
}

// ConfigureDatabase applies SQLite optimizations and runs migrations
func ConfigureDatabase(db *sql.DB) error {
	// Configure connection pool for SQLite
	// SQLite serializes writes, so limit connections to avoid contention.
	// WAL mode allows concurrent readers, so we allow a few connections.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0) // Don't expire connections

	// Apply SQLite performance configurations
	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-ahead logging for better concurrency
		"PRAGMA busy_timeout=5000",  // Wait up to 5 seconds for locks
		"PRAGMA synchronous=NORMAL", // Safer sync mode with good performance
		"PRAGMA cache_size=10000",   // Increase cache size for better performance
		"PRAGMA foreign_keys=ON",    // Enforce foreign key constraints
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma '%s': %w", pragma, err)
		}
	}

	// Run all pending migrations
	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
