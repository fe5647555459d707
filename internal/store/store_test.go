package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/config"
	"github.com/JonMunkholm/cardadmin/internal/store/gormstore"
	"github.com/JonMunkholm/cardadmin/internal/store/memstore"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.StoreConfig
		check   func(t *testing.T, s catalog.Store)
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  config.StoreConfig{Driver: config.DriverMemory},
			check: func(t *testing.T, s catalog.Store) {
				if _, ok := s.(*memstore.Store); !ok {
					t.Errorf("store is %T, want *memstore.Store", s)
				}
			},
		},
		{
			name: "sqlite with migration",
			cfg: config.StoreConfig{
				Driver:      config.DriverSQLite,
				URL:         filepath.Join(t.TempDir(), "catalog.db"),
				AutoMigrate: true,
			},
			check: func(t *testing.T, s catalog.Store) {
				if _, ok := s.(*gormstore.Store); !ok {
					t.Fatalf("store is %T, want *gormstore.Store", s)
				}
				if _, err := s.CountSets(ctx); err != nil {
					t.Errorf("CountSets() after migrate error = %v", err)
				}
			},
		},
		{
			name:    "unknown driver",
			cfg:     config.StoreConfig{Driver: "mysql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			tt.check(t, s)
		})
	}
}
