package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/catalog"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/config"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/handler"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/repository"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/service"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/timeline"
	"go.uber.org/zap"
)

type doctorStore interface {
	catalog.DoctorStore
	repository.DoctorWriter
}

// storage bundles the stores of the configured driver
type storage struct {
	appointments service.AppointmentStore
	doctors      doctorStore
	links        service.LinkStore
	timeline     timeline.Store
	pinger       handler.Pinger
	migrate      func(ctx context.Context) error
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		store, err := repository.OpenSQLite(ctx, cfg.Database.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return &storage{
			appointments: store,
			doctors:      store,
			links:        store.Links(),
			timeline:     store,
			pinger:       store,
			// the schema is applied on open
			migrate: func(context.Context) error { return nil },
			close: func() {
				if err := store.Close(); err != nil {
					log.Warn("failed to close sqlite store", zap.Error(err))
				}
			},
		}, nil

	default:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid database url: %w", err)
		}
		if cfg.Database.MaxOpenConns > 0 {
			poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.ConnMaxLifetime > 0 {
			poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info("Database connection established")

		return &storage{
			appointments: repository.NewAppointmentRepository(pool, log),
			doctors:      repository.NewDoctorRepository(pool, log),
			links:        repository.NewLinkRepository(pool, log),
			timeline:     repository.NewTimelineRepository(pool, log),
			pinger:       pool,
			migrate: func(ctx context.Context) error {
				return repository.Migrate(ctx, pool, log)
			},
			close: pool.Close,
		}, nil
	}
}
