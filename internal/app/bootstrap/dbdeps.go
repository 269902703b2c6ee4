// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/stratadrive/internal/app/system/blob"
	"github.com/dalemusser/stratadrive/internal/app/system/tasks"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Blobs is the configured blob backend. LocalBlobs is set only for the
	// local backend, which also needs the /blobs routes mounted.
	Blobs      blob.Store
	LocalBlobs *blob.LocalStore

	// Redis is nil when redis_addr is blank.
	Redis redis.UniversalClient

	// Scheduler is created here so Startup can register jobs and Shutdown
	// can stop them.
	Scheduler *tasks.Scheduler
}
