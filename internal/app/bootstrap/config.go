// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratagrades/internal/app/system/inputval"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATAGRADES"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, grades_url, etc.
//   - Environment variables: STRATAGRADES_MONGO_URI, STRATAGRADES_GRADES_URL, etc.
//   - Command-line flags: --mongo_uri, --grades_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratagrades", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Filter cookie signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratagrades-session", Desc: "Filter cookie name"},
	{Name: "session_max_age", Default: "720h", Desc: "Filter cookie max age (e.g., 24h, 720h)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Ingest API
	{Name: "api_key", Default: "", Desc: "API key for POST /api/grades/* (empty rejects all ingest requests)"},

	// Grades endpoint
	{Name: "grades_url", Default: "", Desc: "Grades endpoint the dashboard fetches (blank uses this server's /grades)"},
	{Name: "grades_token", Default: "", Desc: "Optional bearer token for the grades endpoint"},
	{Name: "default_student", Default: "", Desc: "Student served by /grades when none is given"},

	{Name: "session_stale_after", Default: "24h", Desc: "Mark grade-source sessions expired after this long without a sync"},
	{Name: "ledger_retention", Default: "720h", Desc: "How long sync ledger entries are kept"},

	{Name: "site_name", Default: "StrataGrades", Desc: "Site name shown in the page header"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this server"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence:
// flags > env (WAFFLE_* for core, STRATAGRADES_* for app) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionMaxAge: appValues.Duration("session_max_age", 720*time.Hour),

		CSRFKey: appValues.String("csrf_key"),
		APIKey:  appValues.String("api_key"),

		GradesURL:      strings.TrimSpace(appValues.String("grades_url")),
		GradesToken:    appValues.String("grades_token"),
		DefaultStudent: appValues.String("default_student"),

		SessionStaleAfter: appValues.Duration("session_stale_after", 24*time.Hour),
		LedgerRetention:   appValues.Duration("ledger_retention", 720*time.Hour),

		SiteName: appValues.String("site_name"),
		BaseURL:  strings.TrimRight(appValues.String("base_url"), "/"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.GradesURL != "" && !inputval.IsValidHTTPURL(appCfg.GradesURL) {
		logger.Error("invalid grades URL", zap.String("grades_url", appCfg.GradesURL))
		return fmt.Errorf("grades_url must be an absolute http(s) URL, got %q", appCfg.GradesURL)
	}
	if appCfg.GradesURL == "" && !inputval.IsValidHTTPURL(appCfg.BaseURL) {
		return fmt.Errorf("base_url must be an absolute http(s) URL when grades_url is blank, got %q", appCfg.BaseURL)
	}

	if appCfg.SessionStaleAfter <= 0 {
		return fmt.Errorf("session_stale_after must be positive, got %v", appCfg.SessionStaleAfter)
	}

	if appCfg.APIKey == "" {
		logger.Warn("api_key is empty; the grade ingest API will reject every request")
	}

	return nil
}

// gradesURL returns the endpoint the dashboard fetches from.
func (c AppConfig) gradesURL() string {
	if c.GradesURL != "" {
		return c.GradesURL
	}
	return c.BaseURL + "/grades"
}
