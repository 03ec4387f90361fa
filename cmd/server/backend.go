package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/infrastructure/db/mongo"
	"github.com/taskdesk/task-system/internal/infrastructure/db/redis"
	"github.com/taskdesk/task-system/internal/infrastructure/db/sqlite"
	"github.com/taskdesk/task-system/internal/infrastructure/http/handlers"
	"github.com/taskdesk/task-system/internal/pkg/config"
)

// backend holds the repositories selected by STORAGE_DRIVER and
// LOCKOUT_BACKEND together with their readiness probes.
type backend struct {
	identities ports.IdentityRepository
	tasks      ports.TaskRepository
	notes      ports.NoteRepository
	lockout    ports.LockoutTracker
	probes     []handlers.Probe
	closers    []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, policy ports.LockoutPolicy, log zerolog.Logger) (*backend, error) {
	b := &backend{}
	var storageLockout ports.LockoutTracker

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("sqlite close")
			}
		})
		b.identities, b.tasks, b.notes = store.Identities(), store.Tasks(), store.Notes()
		b.probes = append(b.probes, handlers.Probe{Name: "sqlite", Ping: store.Ping})
		storageLockout = store.Lockout(policy)
		log.Info().Str("path", cfg.Storage.SQLitePath).Msg("sqlite store opened")

	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		})
		repos := mongo.NewRepositories(db)
		if err := repos.EnsureIndexes(ctx); err != nil {
			b.close()
			return nil, err
		}
		b.identities, b.tasks, b.notes = repos.Identities, repos.Tasks, repos.Notes
		b.probes = append(b.probes, handlers.Probe{Name: "mongodb", Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})
		storageLockout = mongo.NewLockoutRepository(db, policy)
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Lockout.Backend {
	case config.LockoutStorage:
		b.lockout = storageLockout
	case config.LockoutRedis:
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.lockout = redis.NewLockoutTracker(client, policy)
		b.probes = append(b.probes, redisProbe(client))
	case config.LockoutNone:
		log.Warn().Msg("account lockout disabled")
	}

	return b, nil
}

func redisProbe(client *goredis.Client) handlers.Probe {
	return handlers.Probe{Name: "redis", Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}
