// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/dalemusser/stratadrive/internal/app/system/authz"
	"github.com/dalemusser/stratadrive/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for StrataDrive.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_type, etc.
//   - Environment variables: STRATADRIVE_MONGO_URI, STRATADRIVE_STORAGE_TYPE, etc.
//   - Command-line flags: --mongo_uri, --storage_type, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "strata_drive", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Blob storage
	{Name: "storage_type", Default: "local", Desc: "Blob backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/blobs", Desc: "Local directory for blobs"},
	{Name: "storage_local_url", Default: "", Desc: "Public base URL for /blobs (blank uses base_url)"},
	{Name: "storage_ticket_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Signing key for local upload tickets"},
	{Name: "storage_max_upload_bytes", Default: 50 << 20, Desc: "Largest accepted local upload in bytes"},

	// S3-compatible storage
	{Name: "storage_s3_endpoint", Default: "s3.amazonaws.com", Desc: "S3 endpoint host"},
	{Name: "storage_s3_region", Default: "", Desc: "S3 region"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_access_key", Default: "", Desc: "S3 access key"},
	{Name: "storage_s3_secret_key", Default: "", Desc: "S3 secret key"},
	{Name: "storage_s3_use_ssl", Default: true, Desc: "Use TLS for S3"},
	{Name: "storage_s3_public_url", Default: "", Desc: "Permanent public URL prefix for blobs (bucket endpoint or CDN); required for s3"},

	// Identity provider
	{Name: "idp_jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HS256 secret for principal tokens"},
	{Name: "idp_jwt_issuer", Default: "", Desc: "Required token issuer (blank accepts any)"},
	{Name: "idp_webhook_secret", Default: "", Desc: "HMAC secret for identity-provider events"},

	// Authorization
	{Name: "file_mutation_policy", Default: "member", Desc: "Who may rename/trash/delete files: 'member', 'admin', or 'owner_or_admin'"},

	// Trash sweep
	{Name: "trash_sweep_schedule", Default: tasks.DefaultTrashSweepSchedule, Desc: "Cron schedule for the trash sweep"},
	{Name: "trash_retention", Default: "0s", Desc: "Minimum time a file stays in the trash before it is purged"},
	{Name: "trash_sweep_workers", Default: 4, Desc: "Concurrent purges per sweep"},

	// Redis
	{Name: "redis_addr", Default: "", Desc: "Redis address for the sweep lock (blank disables it)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	{Name: "rate_limit_per_minute", Default: 300, Desc: "Write requests per minute per principal or IP (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_files", Default: "all", Desc: "File event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_directory", Default: "all", Desc: "Directory event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL of this service"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, STRATADRIVE_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STRATADRIVE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		StorageType:           appValues.String("storage_type"),
		StorageLocalPath:      appValues.String("storage_local_path"),
		StorageLocalURL:       appValues.String("storage_local_url"),
		StorageTicketKey:      appValues.String("storage_ticket_key"),
		StorageMaxUploadBytes: int64(appValues.Int("storage_max_upload_bytes")),

		StorageS3Endpoint:  appValues.String("storage_s3_endpoint"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3AccessKey: appValues.String("storage_s3_access_key"),
		StorageS3SecretKey: appValues.String("storage_s3_secret_key"),
		StorageS3UseSSL:    appValues.Bool("storage_s3_use_ssl"),
		StorageS3PublicURL: appValues.String("storage_s3_public_url"),

		IdpJWTSecret:     appValues.String("idp_jwt_secret"),
		IdpJWTIssuer:     appValues.String("idp_jwt_issuer"),
		IdpWebhookSecret: appValues.String("idp_webhook_secret"),

		FileMutationPolicy: appValues.String("file_mutation_policy"),

		TrashSweepSchedule: appValues.String("trash_sweep_schedule"),
		TrashRetention:     appValues.Duration("trash_retention", 0),
		TrashSweepWorkers:  appValues.Int("trash_sweep_workers"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		RateLimitPerMinute: appValues.Int("rate_limit_per_minute"),

		AuditLogFiles:     appValues.String("audit_log_files"),
		AuditLogDirectory: appValues.String("audit_log_directory"),

		BaseURL: appValues.String("base_url"),
	}

	if appCfg.StorageLocalURL == "" {
		appCfg.StorageLocalURL = appCfg.BaseURL
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// StrataDrive rejects a malformed MongoDB URI, an unknown storage backend or
// mutation policy, and an unparsable sweep schedule before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(appCfg)
}

// validateApp holds the checks that need no core config.
func validateApp(appCfg AppConfig) error {
	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageTicketKey == "" {
			return fmt.Errorf("storage_type local requires storage_ticket_key")
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" {
			return fmt.Errorf("storage_type s3 requires storage_s3_bucket")
		}
		if strings.TrimSpace(appCfg.StorageS3PublicURL) == "" {
			return fmt.Errorf("storage_type s3 requires storage_s3_public_url (stored download urls never expire)")
		}
	default:
		return fmt.Errorf("unknown storage_type %q (want local or s3)", appCfg.StorageType)
	}

	if _, err := authz.ParsePolicy(appCfg.FileMutationPolicy); err != nil {
		return fmt.Errorf("file_mutation_policy: %w", err)
	}
	if err := tasks.ValidateSchedule(appCfg.TrashSweepSchedule); err != nil {
		return fmt.Errorf("trash_sweep_schedule: %w", err)
	}
	if appCfg.TrashRetention < 0 {
		return fmt.Errorf("trash_retention must not be negative")
	}
	if appCfg.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative")
	}
	if appCfg.IdpJWTSecret == "" {
		return fmt.Errorf("idp_jwt_secret is required")
	}
	for name, mode := range map[string]string{
		"audit_log_files":     appCfg.AuditLogFiles,
		"audit_log_directory": appCfg.AuditLogDirectory,
	} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s: unknown mode %q", name, mode)
		}
	}
	return nil
}
