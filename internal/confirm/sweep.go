package confirm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweep flips stale pending records to expired through the same
// predicate Decide uses, and prunes terminal records older than the
// retention window. Returns the number of records it expired.
func (w *Workflow) Sweep(ctx context.Context) int {
	now := w.now()

	w.mu.RLock()
	entries := make([]*entry, 0, len(w.table))
	for _, e := range w.table {
		entries = append(entries, e)
	}
	w.mu.RUnlock()

	expired := 0
	var prune []string
	for _, e := range entries {
		e.mu.Lock()
		if w.stale(e.rec, now) {
			w.transitionLocked(ctx, e, StatusExpired, now)
			expired++
		}
		if e.rec.Status.Terminal() && now.Sub(e.rec.DecidedAt) > w.retention {
			prune = append(prune, e.rec.Token)
		}
		e.mu.Unlock()
	}

	if len(prune) > 0 {
		w.mu.Lock()
		for _, token := range prune {
			delete(w.table, token)
		}
		w.mu.Unlock()
		w.logger.Debug("pruned terminal confirmations", zap.Int("count", len(prune)))
	}
	if expired > 0 {
		w.logger.Info("expired stale confirmations", zap.Int("count", expired))
	}
	return expired
}

// RunSweeper sweeps every interval until ctx is done. interval <= 0
// disables the sweeper; lazy expiry in Decide and Get still applies.
func (w *Workflow) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}
