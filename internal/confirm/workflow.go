package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"opsgate/internal/audit"
	"opsgate/internal/command"
	"opsgate/internal/metrics"
)

const (
	DefaultTTL = 5 * time.Minute
	// DefaultRetention is how long terminal records stay queryable
	// before the sweeper prunes them.
	DefaultRetention = time.Hour
)

// Dispatcher receives each confirmed command. The workflow calls it
// exactly once per record, at the confirming transition.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec Record) error
}

// Config wires a Workflow. Zero values get defaults; Dispatcher and
// Audit may stay nil.
type Config struct {
	TTL        time.Duration
	Retention  time.Duration
	Dispatcher Dispatcher
	Audit      audit.Store
	Logger     *zap.Logger
	Now        func() time.Time // test hook
}

// Workflow holds pending commands hostage until an operator decides.
// One entry mutex per record serializes racing decisions on a token;
// the table lock only guards the map itself.
type Workflow struct {
	mu    sync.RWMutex
	table map[string]*entry

	ttl       time.Duration
	retention time.Duration
	now       func() time.Time

	dispatcher Dispatcher
	trail      audit.Store
	logger     *zap.Logger
	hub        *hub
}

type entry struct {
	mu  sync.Mutex
	rec Record
}

func NewWorkflow(cfg Config) *Workflow {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Workflow{
		table:      map[string]*entry{},
		ttl:        cfg.TTL,
		retention:  cfg.Retention,
		now:        cfg.Now,
		dispatcher: cfg.Dispatcher,
		trail:      cfg.Audit,
		logger:     cfg.Logger,
		hub:        newHub(),
	}
}

// Register parks cmd behind a fresh token and returns the pending record.
func (w *Workflow) Register(ctx context.Context, cmd command.Command) Record {
	now := w.now()
	rec := Record{
		Token:     uuid.NewString(),
		Command:   cmd,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(w.ttl),
	}

	w.mu.Lock()
	for {
		if _, exists := w.table[rec.Token]; !exists {
			break
		}
		rec.Token = uuid.NewString()
	}
	w.table[rec.Token] = &entry{rec: rec}
	w.mu.Unlock()

	metrics.PendingConfirmations.Inc()
	w.appendTrail(ctx, rec, audit.EventRegistered, "")
	w.logger.Info("confirmation registered",
		zap.String("token", rec.Token),
		zap.String("command", cmd.Summary()),
		zap.Time("expires_at", rec.ExpiresAt))
	return rec
}

// Decide applies decision to the record behind token. Expiry is checked
// before the already-decided case, so a stale token always reports
// expiry rather than a conflict. Re-submitting the decision a terminal
// record already took returns that record again with no error.
func (w *Workflow) Decide(ctx context.Context, token string, decision Decision) (Record, error) {
	if decision != DecisionConfirm && decision != DecisionCancel {
		return Record{}, ErrBadDecision
	}
	e, ok := w.lookup(token)
	if !ok {
		return Record{}, &TokenNotFoundError{Token: token}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := w.now()
	if e.rec.Status == StatusExpired || w.stale(e.rec, now) {
		if e.rec.Status != StatusExpired {
			w.transitionLocked(ctx, e, StatusExpired, now)
		}
		return e.rec, &ExpiredError{Token: token, ExpiresAt: e.rec.ExpiresAt}
	}
	if e.rec.Status.Terminal() {
		if decision.matches(e.rec.Status) {
			return e.rec, nil
		}
		return e.rec, &AlreadyDecidedError{Token: token, Status: e.rec.Status}
	}

	target := StatusCancelled
	if decision == DecisionConfirm {
		target = StatusConfirmed
	}
	w.transitionLocked(ctx, e, target, now)

	if target == StatusConfirmed {
		w.dispatchLocked(ctx, e.rec)
	}
	return e.rec, nil
}

// Get returns the current record for token. A pending record past its
// deadline flips to expired here too, so a status probe never reports a
// stale pending.
func (w *Workflow) Get(ctx context.Context, token string) (Record, error) {
	e, ok := w.lookup(token)
	if !ok {
		return Record{}, &TokenNotFoundError{Token: token}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if now := w.now(); w.stale(e.rec, now) {
		w.transitionLocked(ctx, e, StatusExpired, now)
	}
	return e.rec, nil
}

func (w *Workflow) lookup(token string) (*entry, bool) {
	w.mu.RLock()
	e, ok := w.table[token]
	w.mu.RUnlock()
	return e, ok
}

// stale is the single expiry predicate. Decide, Get and the sweeper all
// go through it.
func (w *Workflow) stale(rec Record, now time.Time) bool {
	return rec.Status == StatusPending && now.After(rec.ExpiresAt)
}

// transitionLocked moves e to a terminal status. Caller holds e.mu.
func (w *Workflow) transitionLocked(ctx context.Context, e *entry, to Status, now time.Time) {
	from := e.rec.Status
	e.rec.Status = to
	e.rec.DecidedAt = now

	metrics.PendingConfirmations.Dec()
	metrics.Confirmations.WithLabelValues(string(to)).Inc()
	w.appendTrail(ctx, e.rec, string(to), "")
	w.hub.broadcast(e.rec)
	w.logger.Info("confirmation transition",
		zap.String("token", e.rec.Token),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
}

// dispatchLocked releases a confirmed command downstream. A dispatch
// failure is logged and audited but does not undo the confirmation.
func (w *Workflow) dispatchLocked(ctx context.Context, rec Record) {
	if w.dispatcher == nil {
		w.logger.Info("no dispatcher configured, command not released",
			zap.String("token", rec.Token))
		return
	}
	if err := w.dispatcher.Dispatch(ctx, rec); err != nil {
		metrics.Dispatches.WithLabelValues("error").Inc()
		w.appendTrail(ctx, rec, audit.EventDispatched, err.Error())
		w.logger.Error("dispatch failed",
			zap.String("token", rec.Token), zap.Error(err))
		return
	}
	metrics.Dispatches.WithLabelValues("ok").Inc()
	w.appendTrail(ctx, rec, audit.EventDispatched, "")
}

// appendTrail is best effort; a broken audit backend must not block
// decisions.
func (w *Workflow) appendTrail(ctx context.Context, rec Record, event, note string) {
	if w.trail == nil {
		return
	}
	err := w.trail.Append(ctx, audit.Entry{
		Token:   rec.Token,
		Event:   event,
		Command: rec.Command,
		At:      w.now(),
		Note:    note,
	})
	if err != nil {
		w.logger.Warn("audit append failed",
			zap.String("token", rec.Token), zap.String("event", event), zap.Error(err))
	}
}
