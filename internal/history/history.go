// Package history persists synced drops in a local SQLite database so the
// CLI can show them across runs and without hitting the backend. The
// session keeps drops in memory only; this cache is the durable mirror.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/andinfinity/idroplink-go/internal/session"
)

// Store is a SQLite-backed drop cache. It implements session.DropRecorder.
// Single-writer: the owning process is the only mutator.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates a Store at dbPath, applying migrations.
// Use ":memory:" for tests.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("opening drop history database", slog.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}

	// The cache is tiny and single-writer; one connection avoids
	// SQLITE_BUSY without WAL bookkeeping.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceDrops swaps the cached list for the given one in a single
// transaction. Positions preserve the slice order (newest first).
func (s *Store) ReplaceDrops(drops []session.Drop) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: begin replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec("DELETE FROM drops"); err != nil {
		return fmt.Errorf("history: clearing drops: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO drops (position, id, name, url, short_id, type, path, views, drop_date, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range drops {
		var uploadedAt int64
		if !d.UploadedAt.IsZero() {
			uploadedAt = d.UploadedAt.Unix()
		}

		if _, err := stmt.Exec(i, d.ID, d.Name, d.URL, d.ShortID, d.Type, d.Path, d.Views, d.DropDate, uploadedAt); err != nil {
			return fmt.Errorf("history: inserting drop %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: committing replace: %w", err)
	}

	s.logger.Debug("drop history replaced", slog.Int("count", len(drops)))

	return nil
}

// Clear wipes the cache. Called on logout.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM drops"); err != nil {
		return fmt.Errorf("history: clearing drops: %w", err)
	}

	return nil
}

// List returns the cached drops in stored order (newest first).
func (s *Store) List() ([]session.Drop, error) {
	rows, err := s.db.Query(`
		SELECT id, name, url, short_id, type, path, views, drop_date
		FROM drops ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("history: listing drops: %w", err)
	}
	defer rows.Close()

	var drops []session.Drop

	for rows.Next() {
		var d session.Drop
		if err := rows.Scan(&d.ID, &d.Name, &d.URL, &d.ShortID, &d.Type, &d.Path, &d.Views, &d.DropDate); err != nil {
			return nil, fmt.Errorf("history: scanning drop: %w", err)
		}

		drops = append(drops, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating drops: %w", err)
	}

	return drops, nil
}
