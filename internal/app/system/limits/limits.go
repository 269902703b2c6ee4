// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size for JSON bodies on the file routes.
	MaxJSONBody = 64 << 10 // 64 KB

	// MaxEventBody is the maximum size for an identity-provider webhook payload.
	MaxEventBody = 1 << 20 // 1 MB

	// DefaultMaxUpload caps a single local blob upload when no limit is configured.
	DefaultMaxUpload = 50 << 20 // 50 MB
)
