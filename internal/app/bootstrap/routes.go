// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	dashboardfeature "github.com/dalemusser/stratagrades/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/stratagrades/internal/app/features/errors"
	gradesapifeature "github.com/dalemusser/stratagrades/internal/app/features/gradesapi"
	healthfeature "github.com/dalemusser/stratagrades/internal/app/features/health"
	appresources "github.com/dalemusser/stratagrades/internal/app/resources"
	ledgerstore "github.com/dalemusser/stratagrades/internal/app/store/ledger"
	"github.com/dalemusser/stratagrades/internal/app/system/gradefetch"
	"github.com/dalemusser/stratagrades/internal/app/system/ledger"
	"github.com/dalemusser/stratagrades/internal/app/system/uisession"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed.
//
// Route groups:
//   - Dashboard (/dashboard): browser UI, filter cookie + CSRF on forms
//   - Grades payload (/grades): public JSON, permissive CORS
//   - Ingest API (/api/grades): API key auth, no CSRF, recorded in the sync ledger
//   - Health (/health, /ready, /readyz, /livez)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := uisession.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("ui session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// CSRF protection for the dashboard forms only. The JSON endpoints
	// are either read-only or authenticated by API key.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratagrades_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			errorsHandler.Forbidden(w, req)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// /assets/* serves embedded assets (bundled into the binary)
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// Grades payload and ingest API
	gradesHandler := gradesapifeature.NewHandler(deps.MongoDatabase, appCfg.DefaultStudent, logger)
	r.Mount("/grades", gradesapifeature.Routes(gradesHandler))

	ledgerCfg := ledger.DefaultConfig(ledgerstore.New(deps.MongoDatabase), logger)
	r.Route("/api/grades", func(r chi.Router) {
		r.Use(ledger.Middleware(ledgerCfg))
		r.Mount("/", gradesapifeature.APIRoutes(gradesHandler, appCfg.APIKey, logger))
	})

	// Dashboard
	fetcher := gradefetch.New(gradefetch.Config{
		URL:    appCfg.gradesURL(),
		Token:  appCfg.GradesToken,
		Logger: logger,
	})
	dashboardHandler := dashboardfeature.NewHandler(fetcher, sessionMgr, errLog, logger)
	r.Group(func(r chi.Router) {
		r.Use(csrfProtect)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		target := "/dashboard"
		if req.URL.RawQuery != "" {
			target += "?" + req.URL.RawQuery
		}
		http.Redirect(w, req, target, http.StatusSeeOther)
	})

	// 404/405 catch-alls for unmatched routes
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}
