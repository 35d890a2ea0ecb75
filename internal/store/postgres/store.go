// Package postgres keeps grids in PostgreSQL, one JSONB document per row.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PoolConfig mirrors the DB_* settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a grid.Provider over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ grid.Provider = (*Store)(nil)

// Connect opens a pool, pings it and applies the schema.
func Connect(ctx context.Context, cfg PoolConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// New wraps an existing pool. The schema must already be applied.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool exposes the pool for health checks.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// ListGrids implements grid.Provider.
func (s *Store) ListGrids(ctx context.Context) ([]grid.Handle, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM grids ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list grids: %w", err)
	}

	handles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (grid.Handle, error) {
		var h grid.Handle
		err := row.Scan(&h.ID, &h.Name)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("list grids: %w", err)
	}
	if handles == nil {
		handles = []grid.Handle{}
	}
	return handles, nil
}

// GridByName implements grid.Provider.
func (s *Store) GridByName(ctx context.Context, name string) (grid.Handle, bool, error) {
	var h grid.Handle
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM grids WHERE name = $1 ORDER BY position, id LIMIT 1`, name,
	).Scan(&h.ID, &h.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return grid.Handle{}, false, nil
	}
	if err != nil {
		return grid.Handle{}, false, fmt.Errorf("grid by name %q: %w", name, err)
	}
	return h, true, nil
}

// FetchValues implements grid.Provider.
func (s *Store) FetchValues(ctx context.Context, h grid.Handle) ([][]any, error) {
	if err := exists(ctx, s.pool, h.ID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT cells::text FROM grid_rows WHERE grid_id = $1 ORDER BY row_num`, h.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch grid %d: %w", h.ID, err)
	}

	values, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]any, error) {
		var cells string
		if err := row.Scan(&cells); err != nil {
			return nil, err
		}
		return grid.UnmarshalRow([]byte(cells))
	})
	if err != nil {
		return nil, fmt.Errorf("fetch grid %d: %w", h.ID, err)
	}
	if values == nil {
		values = [][]any{}
	}
	return values, nil
}

// AppendRow implements grid.Provider. The grid row is locked so concurrent
// appends get consecutive row numbers.
func (s *Store) AppendRow(ctx context.Context, h grid.Handle, row []any) error {
	cells, err := grid.MarshalRow(row)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM grids WHERE id = $1 FOR UPDATE`, h.ID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", grid.ErrGridNotFound, h.ID)
		}
		if err != nil {
			return fmt.Errorf("lock grid %d: %w", h.ID, err)
		}
		return insertRow(ctx, tx, id, cells)
	})
}

// Create adds a grid after all existing ones.
func (s *Store) Create(ctx context.Context, name string, values [][]any) (grid.Handle, error) {
	var h grid.Handle
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO grids (name, position)
			VALUES ($1, (SELECT COALESCE(MAX(position), 0) + 1 FROM grids))
			RETURNING id, name`, name,
		).Scan(&h.ID, &h.Name)
		if err != nil {
			return fmt.Errorf("create grid %q: %w", name, err)
		}

		for _, row := range values {
			cells, err := grid.MarshalRow(row)
			if err != nil {
				return err
			}
			if err := insertRow(ctx, tx, h.ID, cells); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return grid.Handle{}, err
	}
	return h, nil
}

func exists(ctx context.Context, db DBTX, id int64) error {
	var found bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM grids WHERE id = $1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("lookup grid %d: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: id %d", grid.ErrGridNotFound, id)
	}
	return nil
}

func insertRow(ctx context.Context, db DBTX, gridID int64, cells []byte) error {
	_, err := db.Exec(ctx, `
		INSERT INTO grid_rows (grid_id, row_num, cells)
		VALUES ($1, (SELECT COALESCE(MAX(row_num) + 1, 0) FROM grid_rows WHERE grid_id = $1), $2::jsonb)`,
		gridID, string(cells))
	if err != nil {
		return fmt.Errorf("insert row into grid %d: %w", gridID, err)
	}
	return nil
}
