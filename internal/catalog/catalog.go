// Package catalog keeps a SQLite record of the PCD files a viewer session
// writes, so files can be listed per session and pruned with their rows.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Entry describes one written cloud file.
type Entry struct {
	Path     string
	CloudID  string
	Session  string
	Cloud    string
	Viewport int
	Created  string // pointcloud timestamp, YYYYMMDD.HHMMSS.mmm
	Points   int
	Fields   []string
}

// Store is a catalog backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog at path and migrates it to the latest
// schema. Use ":memory:" for a throwaway catalog.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts or replaces the entry for e.Path.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cloud_files (path, cloud_id, session, cloud, viewport, created, points, fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Path, e.CloudID, e.Session, e.Cloud, e.Viewport, e.Created, e.Points, strings.Join(e.Fields, " "))
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Path, err)
	}
	return nil
}

// List returns the entries of a session ordered by creation time then path.
// An empty session lists everything.
func (s *Store) List(ctx context.Context, session string) ([]Entry, error) {
	query := `SELECT path, cloud_id, session, cloud, viewport, created, points, fields FROM cloud_files`
	var args []interface{}
	if session != "" {
		query += ` WHERE session = ?`
		args = append(args, session)
	}
	query += ` ORDER BY created, path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var fields string
		if err := rows.Scan(&e.Path, &e.CloudID, &e.Session, &e.Cloud, &e.Viewport, &e.Created, &e.Points, &fields); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if fields != "" {
			e.Fields = strings.Split(fields, " ")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget deletes the rows of the given paths and returns how many went.
func (s *Store) Forget(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for _, p := range paths {
		res, err := tx.ExecContext(ctx, `DELETE FROM cloud_files WHERE path = ?`, p)
		if err != nil {
			return 0, fmt.Errorf("forget %s: %w", p, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, tx.Commit()
}

// PruneBefore deletes rows created before the given timestamp string.
func (s *Store) PruneBefore(ctx context.Context, created string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cloud_files WHERE created < ?`, created)
	if err != nil {
		return 0, fmt.Errorf("prune catalog: %w", err)
	}
	return res.RowsAffected()
}
