// Package connect opens the configured event store and hands it to a
// store.Handle once a connection succeeds.
package connect

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ms-bulletin/internal/config"
	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/store"
	"ms-bulletin/internal/store/bunstore"
	"ms-bulletin/internal/store/migrations"
	"ms-bulletin/internal/store/mongostore"
)

// Opener makes one connection attempt.
type Opener func(ctx context.Context) (store.Repository, error)

// FromConfig returns an Opener for the backend named by cfg.Driver.
func FromConfig(cfg config.StoreConfig, loc *time.Location, log *logger.Logger) Opener {
	return func(ctx context.Context) (store.Repository, error) {
		switch cfg.Driver {
		case "mongo", "mongodb":
			s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
			if err != nil {
				return nil, err
			}
			s.Location = loc
			return s, nil

		case bunstore.DriverPostgres:
			if cfg.PostgresDSN == "" {
				return nil, fmt.Errorf("POSTGRES_DSN not set")
			}
			db, err := bunstore.Open(ctx, bunstore.DriverPostgres, cfg.PostgresDSN, bunstore.Options{
				MaxOpenConns: cfg.MaxOpenConns,
				MaxIdleConns: cfg.MaxIdleConns,
			})
			if err != nil {
				return nil, err
			}
			if cfg.AutoMigrate {
				if err := migratePostgres(cfg.PostgresDSN, log); err != nil {
					db.Close()
					return nil, err
				}
			}
			return db, nil

		case bunstore.DriverSQLite:
			db, err := bunstore.Open(ctx, bunstore.DriverSQLite, cfg.SQLiteDSN, bunstore.Options{MaxOpenConns: 1})
			if err != nil {
				return nil, err
			}
			if cfg.AutoMigrate {
				if err := db.CreateSchema(ctx); err != nil {
					db.Close()
					return nil, err
				}
			}
			return db, nil
		}
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Driver)
	}
}

// migratePostgres runs the schema migrations over a dedicated connection,
// since the runner closes the handle it is given.
func migratePostgres(dsn string, log *logger.Logger) error {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL for migrations: %w", err)
	}

	runner := migrations.NewRunner(sqldb, migrations.MigrateOptions{}, log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", err.Error())
		}
	}()
	return runner.RunMigrations()
}

// WithRetry calls open up to retries times, sleeping delay between
// attempts. It gives up early when ctx is done.
func WithRetry(ctx context.Context, open Opener, retries int, delay time.Duration, log *logger.Logger) (store.Repository, error) {
	if retries < 1 {
		retries = 1
	}

	var err error
	for i := 0; i < retries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to event store (attempt %d/%d)", i+1, retries))

		var repo store.Repository
		repo, err = open(ctx)
		if err == nil {
			log.Info("DATABASE", "✅ Event store connection successful")
			return repo, nil
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to event store: %v", err))

		if i == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %w", retries, err)
}

// Background connects without blocking the caller. On success the
// repository is stored in h; done, when non-nil, receives the final error.
func Background(ctx context.Context, h *store.Handle, open Opener, retries int, delay time.Duration, log *logger.Logger, done func(error)) {
	go func() {
		repo, err := WithRetry(ctx, open, retries, delay, log)
		if err == nil {
			h.Set(repo)
		} else {
			log.Error("DATABASE", fmt.Sprintf("Event store still unavailable, requests will be refused: %v", err))
		}
		if done != nil {
			done(err)
		}
	}()
}
