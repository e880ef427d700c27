package server

import (
	"context"
	"fmt"

	"oeo-pos/internal/config"
	"oeo-pos/internal/database"
	"oeo-pos/internal/repository"

	"go.uber.org/zap"
)

// OpenStore connects the configured backend and prepares its schema. The
// Postgres backend is migrated, the Mongo backend gets its unique indexes.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("Database health check", zap.Any("health", database.Health(ctx, db)))

		if err := database.RunMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		return repository.NewPostgresStore(db), nil

	case config.StoreDriverMongo:
		db, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		store := repository.NewMongoStore(db)

		if err := repository.CreateMongoIndexes(ctx, db); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		logger.Info("MongoDB connected", zap.String("database", cfg.Mongo.Database))
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
