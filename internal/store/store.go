// Package store opens the catalog.Store selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/config"
	"github.com/JonMunkholm/cardadmin/internal/store/gormstore"
	"github.com/JonMunkholm/cardadmin/internal/store/memstore"
	"github.com/JonMunkholm/cardadmin/internal/store/pgstore"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// Open connects the configured driver and, when AutoMigrate is set,
// creates the schema. The caller closes the store.
func Open(ctx context.Context, cfg config.StoreConfig) (catalog.Store, error) {
	var (
		s   catalog.Store
		err error
	)

	switch cfg.Driver {
	case config.DriverPgx:
		s, err = pgstore.Open(ctx, cfg.URL, pgstore.Options{
			MaxConns:        int32(cfg.MaxConns),
			MinConns:        int32(cfg.MinConns),
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
	case config.DriverGormPostgres:
		s, err = gormstore.Open(gormstore.Postgres, cfg.URL)
	case config.DriverSQLite:
		s, err = gormstore.Open(gormstore.SQLite, cfg.URL)
	case config.DriverMemory:
		s = memstore.New()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Driver, err)
	}

	if m, ok := s.(migrator); ok && cfg.AutoMigrate {
		if err := m.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate %s store: %w", cfg.Driver, err)
		}
	}
	return s, nil
}
