// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/indexes"
	"github.com/dalemusser/stratadrive/internal/app/system/tasks"
	"github.com/dalemusser/stratadrive/internal/app/system/timeouts"
	"github.com/dalemusser/stratadrive/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects MongoDB, the blob backend and (optionally) Redis.
// Anything already connected is closed again if a later step fails.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	client, err := connectMongo(ctx, appCfg, logger)
	if err != nil {
		return deps, err
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)

	if err := connectBlobs(appCfg, &deps, logger); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}

	if appCfg.RedisAddr != "" {
		rdb, err := connectRedis(ctx, appCfg)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		deps.Redis = rdb
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	} else {
		logger.Info("redis_addr not set; trash sweep runs without a cross-replica lock")
	}

	deps.Scheduler = tasks.NewScheduler(logger)
	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return client, nil
}

func connectBlobs(appCfg AppConfig, deps *DBDeps, logger *zap.Logger) error {
	switch appCfg.StorageType {
	case "s3":
		s3, err := blob.NewS3(blob.S3Config{
			Endpoint:  appCfg.StorageS3Endpoint,
			Region:    appCfg.StorageS3Region,
			Bucket:    appCfg.StorageS3Bucket,
			AccessKey: appCfg.StorageS3AccessKey,
			SecretKey: appCfg.StorageS3SecretKey,
			UseSSL:    appCfg.StorageS3UseSSL,
			PublicURL: appCfg.StorageS3PublicURL,
		}, logger)
		if err != nil {
			logger.Error("S3 blob store init failed", zap.Error(err))
			return err
		}
		deps.Blobs = s3
		logger.Info("using S3 blob storage", zap.String("bucket", appCfg.StorageS3Bucket))
	default:
		local, err := blob.NewLocal(blob.LocalConfig{
			Dir:       appCfg.StorageLocalPath,
			BaseURL:   appCfg.StorageLocalURL,
			TicketKey: appCfg.StorageTicketKey,
		}, logger)
		if err != nil {
			logger.Error("local blob store init failed", zap.Error(err))
			return err
		}
		deps.Blobs = local
		deps.LocalBlobs = local
		logger.Info("using local blob storage", zap.String("path", appCfg.StorageLocalPath))
	}
	return nil
}

func connectRedis(ctx context.Context, appCfg AppConfig) (redis.UniversalClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// EnsureSchema creates the collections with their JSON-Schema validators and
// reconciles the indexes. The unique indexes on users.principal_id and stars
// are what keep concurrent writers honest, so a failure here aborts startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
