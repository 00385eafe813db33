// ABOUTME: Opens the record store backend named in config
// ABOUTME: Memory, SQLite, PostgreSQL, Charm KV, or the hosted record API
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/dealdeck/charm"
	"github.com/harperreed/dealdeck/config"
	"github.com/harperreed/dealdeck/db"
	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/remote"
	"go.uber.org/zap"
)

func nopClose() error { return nil }

// openStore returns the configured store and a function that releases it.
// The memory backend always starts from the demo data.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (recordstore.Store, func() error, error) {
	var (
		store  recordstore.Store
		closer = nopClose
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = recordstore.NewMemoryStore()
	case config.BackendSQLite, config.BackendPostgres:
		rs, err := db.Open(db.Dialect(cfg.Store.Backend), cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, closer = rs, rs.Close
	case config.BackendCharm:
		ccfg, err := charm.LoadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load charm config: %w", err)
		}
		client, err := charm.Open(ccfg)
		if err != nil {
			return nil, nil, err
		}
		store, closer = charm.NewKVStore(client), client.Close
	case config.BackendRemote:
		client, err := remote.New(cfg.Store.RemoteURL, remote.StaticToken(cfg.Store.RemoteToken), remote.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		store = client
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	log.Debug("opened record store", zap.String("backend", cfg.Store.Backend))

	if cfg.Store.Seed || cfg.Store.Backend == config.BackendMemory {
		report, err := recordstore.Seed(ctx, store)
		if err != nil {
			_ = closer()
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		for table, n := range report {
			if n > 0 {
				log.Info("seeded demo data", zap.String("table", table), zap.Int("records", n))
			}
		}
	}
	return store, closer, nil
}
