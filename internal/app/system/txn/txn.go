// Package txn runs multi-document MongoDB writes in a transaction when the
// deployment supports it, and falls back to plain sequential writes on a
// standalone server.
//
// Usage:
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    if _, err := coll.DeleteMany(ctx, filter); err != nil {
//	        return err
//	    }
//	    _, err := coll.InsertMany(ctx, docs)
//	    return err
//	})
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func receives the context to use for every operation in the unit of work.
// Inside a transaction it is a mongo.SessionContext.
type Func func(ctx context.Context) error

// Run executes fn inside a transaction if possible, otherwise directly.
// When ctx already carries a session (an enclosing Run), fn joins it.
// log may be nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := db.Client().StartSession()
	if err != nil {
		if log != nil {
			log.Warn("failed to start session, running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err == nil {
		return nil
	}
	if IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions not supported, running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (standalone mongod, some DocumentDB setups).
//
// Known codes: 20 (transaction numbers need a replica set), 51
// (IllegalOperation), 263 (operation not allowed in a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// Message matching needs two hits to avoid false positives.
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}
