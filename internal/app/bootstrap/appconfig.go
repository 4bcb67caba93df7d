// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, timeouts); everything
// specific to the grades dashboard lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Dashboard filter cookie
	SessionKey    string        // Secret key for signing the filter cookie (must be strong in production)
	SessionName   string        // Cookie name (default: stratagrades-session)
	SessionMaxAge time.Duration // Cookie lifetime (default: 720h)

	// CSRF protection for the dashboard forms
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// API key for the ingest API (/api/grades/*). Empty rejects every request.
	APIKey string

	// Grades endpoint the dashboard fetches from. Empty means this server's
	// own /grades endpoint.
	GradesURL   string
	GradesToken string // optional bearer token sent to GradesURL

	// Student served by /grades when the request names none.
	DefaultStudent string

	// Sync states not refreshed within this window are marked expired.
	SessionStaleAfter time.Duration

	// Sync ledger retention.
	LedgerRetention time.Duration

	// Display
	SiteName string
	BaseURL  string // e.g., "https://grades.example.com" or "http://localhost:8080"
}
