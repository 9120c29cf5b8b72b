// Package catalog keeps explicitly saved minutiae sets in a sqlite
// database so they can be listed, reopened and exported later.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	"minview/internal/database"
	"minview/internal/minutiae"
)

// ErrNotFound is returned when no set has the requested id
var ErrNotFound = errors.New("minutiae set not found")

// Source records how a set was produced
type Source string

const (
	SourceFile    Source = "file"
	SourceManual  Source = "manual"
	SourceMindtct Source = "mindtct"
)

// Entry is a saved minutiae set
type Entry struct {
	ID        string             `json:"id"`
	ImagePath string             `json:"image_path"`
	Dims      image.Point        `json:"dims"`
	Note      string             `json:"note"`
	Source    Source             `json:"source"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Minutiae  []minutiae.Minutia `json:"minutiae,omitempty"`
}

// Collection returns the entry's minutiae as a collection
func (e *Entry) Collection() *minutiae.Collection {
	return minutiae.NewCollection(e.Minutiae...)
}

// Summary is a listed set without its minutiae
type Summary struct {
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path"`
	Note      string    `json:"note"`
	Source    Source    `json:"source"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store manages the catalog database
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at path
func Open(path string) (*Store, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection for maintenance
func (s *Store) DB() *sql.DB {
	return s.db
}

// Save inserts or updates a set. An empty ID creates a new set with a
// fresh id. The set's minutiae are replaced as a whole.
func (s *Store) Save(ctx context.Context, e Entry) (string, error) {
	if e.ImagePath == "" {
		return "", fmt.Errorf("image path is required")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Source == "" {
		e.Source = SourceFile
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO minutiae_sets (id, image_path, width, height, note, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			image_path = excluded.image_path,
			width = excluded.width,
			height = excluded.height,
			note = excluded.note,
			source = excluded.source,
			updated_at = excluded.updated_at
	`, e.ID, e.ImagePath, e.Dims.X, e.Dims.Y, e.Note, string(e.Source), now, now)
	if err != nil {
		return "", fmt.Errorf("failed to save minutiae set: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM minutiae WHERE set_id = ?", e.ID); err != nil {
		return "", fmt.Errorf("failed to clear minutiae: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO minutiae (set_id, position, x, y, angle, type, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range e.Minutiae {
		if _, err := stmt.ExecContext(ctx, e.ID, i, m.X, m.Y, m.Angle, int(m.Type), m.Quality); err != nil {
			return "", fmt.Errorf("failed to save minutia %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit minutiae set: %w", err)
	}
	log.Printf("[Catalog] Saved set %s (%d minutiae)", e.ID, len(e.Minutiae))
	return e.ID, nil
}

// Get retrieves a set with its minutiae in saved order
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	var source string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, image_path, width, height, note, source, created_at, updated_at
		FROM minutiae_sets WHERE id = ?
	`, id).Scan(&e.ID, &e.ImagePath, &e.Dims.X, &e.Dims.Y, &e.Note, &source, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get minutiae set: %w", err)
	}
	e.Source = Source(source)

	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, angle, type, quality FROM minutiae
		WHERE set_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get minutiae: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m minutiae.Minutia
		var typ int
		if err := rows.Scan(&m.X, &m.Y, &m.Angle, &typ, &m.Quality); err != nil {
			return nil, fmt.Errorf("failed to scan minutia: %w", err)
		}
		m.Type = minutiae.Type(typ)
		e.Minutiae = append(e.Minutiae, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read minutiae: %w", err)
	}
	return &e, nil
}

// List returns every set, most recently updated first. A non-empty
// imagePath restricts the list to sets of that image.
func (s *Store) List(ctx context.Context, imagePath string) ([]Summary, error) {
	query := `
		SELECT s.id, s.image_path, s.note, s.source, s.updated_at, COUNT(m.position)
		FROM minutiae_sets s
		LEFT JOIN minutiae m ON m.set_id = s.id
	`
	var args []any
	if imagePath != "" {
		query += " WHERE s.image_path = ?"
		args = append(args, imagePath)
	}
	query += " GROUP BY s.id ORDER BY s.updated_at DESC, s.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list minutiae sets: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var source string
		if err := rows.Scan(&sum.ID, &sum.ImagePath, &sum.Note, &source, &sum.UpdatedAt, &sum.Count); err != nil {
			return nil, fmt.Errorf("failed to scan minutiae set: %w", err)
		}
		sum.Source = Source(source)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a set and its minutiae
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM minutiae WHERE set_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete minutiae: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM minutiae_sets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete minutiae set: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete minutiae set: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}
