// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle.
// Each function is called in order by app.Run, from configuration
// loading through DB setup, one-time startup work, HTTP handler
// construction, and finally graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "stratagrades", // used only for logging/diagnostics
	LoadConfig:     LoadConfig,     // load core + app config
	ValidateConfig: ValidateConfig, // validate MongoDB URI and grades URL
	ConnectDB:      ConnectDB,      // connect to MongoDB and return DBDeps
	EnsureSchema:   EnsureSchema,   // create indexes
	Startup:        Startup,        // shared templates, site name, background jobs
	BuildHandler:   BuildHandler,   // build the HTTP router + middleware stack
	Shutdown:       Shutdown,       // stop jobs, disconnect MongoDB
}
