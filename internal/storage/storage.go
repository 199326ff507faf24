// Package storage selects the user store backend named by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/pilab-dev/shadow-login/config"
	"github.com/pilab-dev/shadow-login/memory"
	"github.com/pilab-dev/shadow-login/mongodb"
	"github.com/pilab-dev/shadow-login/postgres"
	"github.com/pilab-dev/shadow-login/services"
)

// Open connects the configured backend. The caller closes the provider.
func Open(ctx context.Context, cfg *config.ServerConfig) (services.RepositoryProvider, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return memory.NewRepositoryProvider(), nil
	case config.StorageMongoDB:
		return mongodb.NewMongoRepositoryProvider(ctx, cfg.MongoURI, cfg.MongoDBName)
	case config.StoragePostgres:
		return postgres.NewRepositoryProvider(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: unknown STORAGE_DRIVER %q", config.ErrInvalidConfig, cfg.StorageDriver)
	}
}
