// Package sqlite keeps grids in a single-file SQLite database. Each grid row
// is stored as a JSON array so ragged rows survive a round trip.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/JonMunkholm/gridroute/internal/grid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is a grid.Provider backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ grid.Provider = (*Store)(nil)

// Open creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListGrids returns grids ordered by position.
func (s *Store) ListGrids(ctx context.Context) ([]grid.Handle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM grids ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list grids: %w", err)
	}
	defer rows.Close()

	handles := []grid.Handle{}
	for rows.Next() {
		var h grid.Handle
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("scan grid: %w", err)
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

// GridByName returns the first grid, by position, with exactly this name.
func (s *Store) GridByName(ctx context.Context, name string) (grid.Handle, bool, error) {
	var h grid.Handle
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM grids WHERE name = ? ORDER BY position, id LIMIT 1`, name,
	).Scan(&h.ID, &h.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return grid.Handle{}, false, nil
	}
	if err != nil {
		return grid.Handle{}, false, fmt.Errorf("grid by name %q: %w", name, err)
	}
	return h, true, nil
}

// FetchValues implements grid.Provider.
func (s *Store) FetchValues(ctx context.Context, h grid.Handle) ([][]any, error) {
	if err := s.exists(ctx, s.db, h.ID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM grid_rows WHERE grid_id = ? ORDER BY row_num`, h.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch grid %d: %w", h.ID, err)
	}
	defer rows.Close()

	values := [][]any{}
	for rows.Next() {
		var cells []byte
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row, err := grid.UnmarshalRow(cells)
		if err != nil {
			return nil, err
		}
		values = append(values, row)
	}
	return values, rows.Err()
}

// AppendRow implements grid.Provider.
func (s *Store) AppendRow(ctx context.Context, h grid.Handle, row []any) error {
	cells, err := grid.MarshalRow(row)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.exists(ctx, tx, h.ID); err != nil {
		return err
	}
	if err := insertRow(ctx, tx, h.ID, cells); err != nil {
		return err
	}
	return tx.Commit()
}

// Create adds a grid after all existing ones and returns its handle.
func (s *Store) Create(ctx context.Context, name string, values [][]any) (grid.Handle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return grid.Handle{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO grids (name, position) VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM grids))`,
		name)
	if err != nil {
		return grid.Handle{}, fmt.Errorf("create grid %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return grid.Handle{}, fmt.Errorf("create grid %q: %w", name, err)
	}

	for _, row := range values {
		cells, err := grid.MarshalRow(row)
		if err != nil {
			return grid.Handle{}, err
		}
		if err := insertRow(ctx, tx, id, cells); err != nil {
			return grid.Handle{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return grid.Handle{}, fmt.Errorf("commit: %w", err)
	}
	return grid.Handle{ID: id, Name: name}, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exists(ctx context.Context, q querier, id int64) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM grids WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("lookup grid %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", grid.ErrGridNotFound, id)
	}
	return nil
}

func insertRow(ctx context.Context, tx *sql.Tx, gridID int64, cells []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO grid_rows (grid_id, row_num, cells)
		VALUES (?, (SELECT COALESCE(MAX(row_num) + 1, 0) FROM grid_rows WHERE grid_id = ?), ?)`,
		gridID, gridID, string(cells))
	if err != nil {
		return fmt.Errorf("insert row into grid %d: %w", gridID, err)
	}
	return nil
}
