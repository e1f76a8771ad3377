package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/warehouse-monitor/internal/application/movement"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitor/internal/infrastructure/postgres"
	"github.com/jhoicas/warehouse-monitor/internal/infrastructure/sqlite"
	"github.com/jhoicas/warehouse-monitor/pkg/config"
)

// storage backend elegido por STORAGE_DRIVER, visto a través de los puertos de aplicación.
type storage struct {
	txRunner  movement.TxRunner
	movements repository.MovementRepository
	ledger    repository.QuantityLedger
	ping      func(ctx context.Context) error
	close     func() error
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &storage{txRunner: s.TxRunner(), movements: s.Movements(), ledger: s.Ledger(), ping: s.Ping, close: s.Close}, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &storage{txRunner: s.TxRunner(), movements: s.Movements(), ledger: s.Ledger(), ping: s.Ping, close: s.Close}, nil
	default:
		return nil, fmt.Errorf("driver de almacenamiento %q no soportado", cfg.Storage.Driver)
	}
}
