package main

import (
	"context"
	"fmt"

	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/db"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/ikkim/storefront/pkg/redis"
)

// openStore builds the key-value backend named by cfg.Storage.Driver. The
// returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (storage.KeyValueStore, func(), error) {
	noop := func() {}

	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryStore(), noop, nil

	case "sqlite", "postgres":
		gormDB, err := db.Open(&cfg.Storage, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(gormDB); err != nil {
			db.Close(gormDB)
			return nil, nil, err
		}
		return storage.NewGormStore(gormDB), func() {
			if err := db.Close(gormDB); err != nil {
				logger.Error("Failed to close database connection", err)
			}
		}, nil

	case "redis":
		client, err := redis.Connect(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisStore(client, "storefront"), func() {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}, nil

	case "s3":
		client := storage.NewS3Client(ctx, cfg.S3.Region, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)
		return storage.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix), noop, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}
