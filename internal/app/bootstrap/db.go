// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratagrades/internal/app/system/indexes"
	"github.com/dalemusser/stratagrades/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. Pool sizes come from the app config; everything else uses
// wafflemongo's defaults.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
	}, nil
}

// EnsureSchema creates the collections with their JSON-Schema validators,
// then the indexes. The context carries coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Collections first so indexes are created on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
