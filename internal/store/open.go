// Package store opens the grid backend selected by configuration.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/gridroute/internal/config"
	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/store/postgres"
	"github.com/JonMunkholm/gridroute/internal/store/sqlite"
	"github.com/JonMunkholm/gridroute/internal/store/xlsx"
)

// Backend is a provider that can also create grids, which the CLI and the
// seed step need. Every backend implements it.
type Backend interface {
	grid.Provider
	io.Closer
	Create(ctx context.Context, name string, values [][]any) (grid.Handle, error)
}

// Open returns the backend named by cfg.Backend. The caller closes it.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	var (
		b   Backend
		err error
	)

	switch cfg.Backend {
	case config.BackendMemory, "":
		b = memoryBackend{grid.NewMemory()}
	case config.BackendXLSX:
		b, err = xlsx.Open(cfg.XLSXPath)
	case config.BackendSQLite:
		b, err = sqlite.Open(cfg.SQLitePath)
	case config.BackendPostgres:
		b, err = postgres.Connect(ctx, postgres.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	slog.Info("store opened", "backend", cfg.Backend)
	return b, nil
}

type memoryBackend struct {
	*grid.Memory
}

func (m memoryBackend) Create(ctx context.Context, name string, values [][]any) (grid.Handle, error) {
	return m.Memory.Create(name, values), nil
}

func (memoryBackend) Close() error { return nil }
