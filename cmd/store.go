package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nanomed-sim/nanomed-sim/sim"
	"github.com/nanomed-sim/nanomed-sim/sim/store/memory"
	"github.com/nanomed-sim/nanomed-sim/sim/store/postgres"
	"github.com/nanomed-sim/nanomed-sim/sim/store/sqlite"
)

// openStore creates the record store selected by cfg. The caller owns Close.
func openStore(ctx context.Context, cfg StoreConfig) (sim.RecordStore, error) {
	switch cfg.Backend {
	case "memory":
		logrus.Info("using in-memory store; records are discarded on exit")
		return memory.NewStore(), nil
	case "sqlite":
		store, err := sqlite.NewStore(expandHome(cfg.Path))
		if err != nil {
			return nil, err
		}
		logrus.Infof("using sqlite store at %s", store.Path())
		return store, nil
	case "postgres":
		store, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		logrus.Info("using postgres store")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (valid: memory, sqlite, postgres)", cfg.Backend)
	}
}
