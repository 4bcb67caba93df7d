// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratagrades/internal/app/resources"
	ledgerstore "github.com/dalemusser/stratagrades/internal/app/store/ledger"
	syncstatestore "github.com/dalemusser/stratagrades/internal/app/store/syncstate"
	"github.com/dalemusser/stratagrades/internal/app/system/tasks"
	"github.com/dalemusser/stratagrades/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It registers the shared templates, sets the site name used by every page,
// and starts the background jobs. Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	viewdata.Init(appCfg.SiteName)

	logger.Info("grades source",
		zap.String("grades_url", appCfg.gradesURL()),
		zap.Bool("token", appCfg.GradesToken != ""),
		zap.String("default_student", appCfg.DefaultStudent))

	startTaskRunner(deps.MongoDatabase, appCfg, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	// Badge shows "Session expired" once a student's scraper goes quiet.
	taskRunner.Register(tasks.SessionExpiryJob(syncstatestore.New(db), logger, appCfg.SessionStaleAfter, 0))
	taskRunner.Register(tasks.LedgerPruneJob(ledgerstore.New(db), logger, appCfg.LedgerRetention))

	taskRunner.Start()
}
