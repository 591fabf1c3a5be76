// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/tagtree/internal/api"
	"github.com/taibuivan/tagtree/internal/core/note"
	"github.com/taibuivan/tagtree/internal/core/notetag"
	"github.com/taibuivan/tagtree/internal/core/tag"
	"github.com/taibuivan/tagtree/internal/platform/config"
	"github.com/taibuivan/tagtree/internal/platform/memdb"
	"github.com/taibuivan/tagtree/internal/platform/migration"
	pgstore "github.com/taibuivan/tagtree/internal/platform/postgres"
	redisstore "github.com/taibuivan/tagtree/internal/platform/redis"
)

// stores bundles the three repositories of one backend with its readiness
// checks and the function releasing its connections.
type stores struct {
	tags     tag.Repository
	notes    note.Repository
	noteTags notetag.Repository
	checks   []api.DependencyCheck
	close    func()
}

// openStores connects the backend selected by STORE_BACKEND.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}

		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			pool.Close()
			return nil, err
		}

		return &stores{
			tags:     tag.NewPostgresRepository(pool),
			notes:    note.NewPostgresRepository(pool),
			noteTags: notetag.NewPostgresRepository(pool),
			checks: []api.DependencyCheck{{
				Name:  "postgres",
				Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
			}},
			close: func() {
				log.Info("closing postgres pool")
				pool.Close()
			},
		}, nil

	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}

		return &stores{
			tags:     tag.NewRedisRepository(client, cfg.MoveRetryLimit),
			notes:    note.NewRedisRepository(client, cfg.MoveRetryLimit),
			noteTags: notetag.NewRedisRepository(client, cfg.MoveRetryLimit),
			checks: []api.DependencyCheck{{
				Name:  "redis",
				Check: func(ctx context.Context) error { return redisstore.Ping(ctx, client) },
			}},
			close: func() {
				log.Info("closing redis client")
				if cerr := client.Close(); cerr != nil {
					log.Error("redis close error", slog.Any("error", cerr))
				}
			},
		}, nil

	case config.BackendMemory:
		// The three repositories must share one database so that deletes
		// cascade across the junction.
		db := memdb.New()
		log.Warn("memory_backend_selected", slog.String("detail", "data is lost on restart"))

		return &stores{
			tags:     tag.NewMemoryRepository(db),
			notes:    note.NewMemoryRepository(db),
			noteTags: notetag.NewMemoryRepository(db),
			close:    func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
