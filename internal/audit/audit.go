package audit

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"opsgate/internal/command"
)

// Workflow events recorded in the trail.
const (
	EventRegistered = "registered"
	EventConfirmed  = "confirmed"
	EventCancelled  = "cancelled"
	EventExpired    = "expired"
	EventDispatched = "dispatched"
)

// Entry is one append-only audit record.
type Entry struct {
	Token   string          `json:"token"`
	Event   string          `json:"event"`
	Command command.Command `json:"command"`
	At      time.Time       `json:"at"`
	Note    string          `json:"note,omitempty"`
}

// Store is an append-only audit trail keyed by confirmation token.
type Store interface {
	Append(ctx context.Context, e Entry) error
	ListByToken(ctx context.Context, token string) ([]Entry, error)
	Close() error
}

// NewFromEnv picks a backend: AUDIT_PG_DSN wins, then AUDIT_BADGER_PATH,
// else an in-memory trail that lives as long as the process. Backend
// failures degrade to memory so the workflow never starts without a trail.
func NewFromEnv(logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dsn := strings.TrimSpace(os.Getenv("AUDIT_PG_DSN")); dsn != "" {
		s, err := NewPostgres(dsn)
		if err == nil {
			logger.Info("audit trail on postgres")
			return s
		}
		logger.Warn("audit postgres unavailable, using memory", zap.Error(err))
	}
	if path := strings.TrimSpace(os.Getenv("AUDIT_BADGER_PATH")); path != "" {
		s, err := NewBadger(path)
		if err == nil {
			logger.Info("audit trail on badger", zap.String("path", path))
			return s
		}
		logger.Warn("audit badger unavailable, using memory", zap.Error(err))
	}
	return NewMemory()
}

// Memory keeps the trail in process memory.
type Memory struct {
	mu      sync.RWMutex
	byToken map[string][]Entry
}

func NewMemory() *Memory { return &Memory{byToken: map[string][]Entry{}} }

func (m *Memory) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken[e.Token] = append(m.byToken[e.Token], e)
	return nil
}

func (m *Memory) ListByToken(_ context.Context, token string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.byToken[token]))
	copy(out, m.byToken[token])
	return out, nil
}

func (m *Memory) Close() error { return nil }
