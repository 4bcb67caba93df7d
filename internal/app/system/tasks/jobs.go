// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionExpirer marks stale grade-source sessions as expired.
// syncstatestore.Store satisfies it.
type SessionExpirer interface {
	ExpireStale(ctx context.Context, before time.Time) (int64, error)
}

// SessionExpiryJob flags sync states whose last sync is older than staleAfter
// so the dashboard badge shows "Session expired". It never refetches.
func SessionExpiryJob(store SessionExpirer, logger *zap.Logger, staleAfter, interval time.Duration) Job {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return Job{
		Name:     "session-expiry",
		Interval: interval,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := store.ExpireStale(ctx, time.Now().UTC().Add(-staleAfter))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("expired stale grade sessions",
					zap.Int64("count", n),
					zap.Duration("stale_after", staleAfter))
			}
			return nil
		},
	}
}

// LedgerPruner deletes old sync ledger entries. ledgerstore.Store satisfies it.
type LedgerPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LedgerPruneJob removes ledger entries older than retention, once an hour.
func LedgerPruneJob(store LedgerPruner, logger *zap.Logger, retention time.Duration) Job {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return Job{
		Name:     "ledger-prune",
		Interval: time.Hour,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := store.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned sync ledger", zap.Int64("deleted", n))
			}
			return nil
		},
	}
}
