package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/facilitator"
	"github.com/aretw0/facilitator/internal/config"
	"github.com/aretw0/facilitator/pkg/adapters/memory"
	"github.com/aretw0/facilitator/pkg/adapters/redis"
	"github.com/aretw0/facilitator/pkg/adapters/sqlite"
	"github.com/aretw0/facilitator/pkg/ports"
)

// openStore opens the configured store. The returned options wire any
// store-specific locker; close releases the store.
func openStore(cfg config.Config, logger *slog.Logger) (ports.NodeExecutionStore, []facilitator.Option, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.DriverRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		locker := redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		logger.Debug("using redis store", "addr", cfg.Redis.Addr)
		return store, []facilitator.Option{facilitator.WithLocker(locker)}, store.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Debug("using sqlite store", "path", cfg.SQLite.Path)
		return store, nil, store.Close, nil

	case config.DriverMemory:
		return memory.NewStore(), nil, noop, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown store %q", cfg.Store)
}

// newEngine builds an engine over the configured store.
func newEngine(cfg config.Config, logger *slog.Logger, opts ...facilitator.Option) (*facilitator.Engine, func() error, error) {
	store, storeOpts, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return nil, closeStore, err
	}

	all := []facilitator.Option{
		facilitator.WithStore(store),
		facilitator.WithLogger(logger),
		facilitator.WithMaxDepth(cfg.MaxDepth),
		facilitator.WithLockTTL(cfg.LockTTL),
	}
	all = append(all, storeOpts...)
	all = append(all, opts...)

	eng, err := facilitator.New(all...)
	if err != nil {
		_ = closeStore()
		return nil, func() error { return nil }, err
	}
	return eng, closeStore, nil
}
