// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side (ports, TLS, logging, CORS); everything StrataDrive needs
// beyond that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Blob storage configuration
	StorageType           string // "local" or "s3"
	StorageLocalPath      string // directory for local blobs
	StorageLocalURL       string // public base URL for /blobs (defaults to BaseURL)
	StorageTicketKey      string // HMAC key for local upload tickets
	StorageMaxUploadBytes int64  // cap on a single local upload

	// S3-compatible configuration (only used if StorageType is "s3")
	StorageS3Endpoint  string
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3AccessKey string
	StorageS3SecretKey string
	StorageS3UseSSL    bool
	StorageS3PublicURL string // optional CDN prefix instead of presigned GETs

	// Identity provider
	IdpJWTSecret     string // HS256 secret for principal tokens
	IdpJWTIssuer     string // required "iss" claim (blank disables the check)
	IdpWebhookSecret string // HMAC secret for POST /idp/events

	// FileMutationPolicy is "member", "admin", or "owner_or_admin".
	FileMutationPolicy string

	// Trash sweep
	TrashSweepSchedule string        // cron expression (default @weekly)
	TrashRetention     time.Duration // minimum time in trash before purge
	TrashSweepWorkers  int

	// Redis (optional; enables the cross-replica sweep lock)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RateLimitPerMinute caps write requests per principal (or client IP).
	// Zero disables rate limiting.
	RateLimitPerMinute int

	// Audit logging: "all", "db", "log", or "off"
	AuditLogFiles     string
	AuditLogDirectory string

	// BaseURL is the public URL of this service, e.g. https://drive.example.com
	BaseURL string
}
