package transcript

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Exchange is one archived model interaction. This is the only place a
// raw model reply is persisted; everything returned to callers goes
// through the typed error surface instead.
type Exchange struct {
	ID     string          `json:"id"`
	Text   string          `json:"text"`
	Prompt string          `json:"prompt"`
	Reply  json.RawMessage `json:"reply,omitempty"`
	Error  string          `json:"error,omitempty"`
	At     time.Time       `json:"at"`
}

// Archive stores exchanges for privileged diagnostics.
type Archive interface {
	Save(ctx context.Context, ex Exchange) error
}

// Nop drops every exchange. Default when no object store is configured.
type Nop struct{}

func (Nop) Save(context.Context, Exchange) error { return nil }

// Recorder adapts an Archive into the exchange hook the model
// interpreter accepts. Archive failures are logged, never surfaced.
func Recorder(a Archive, logger *zap.Logger) func(ctx context.Context, prompt, text string, raw json.RawMessage, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, prompt, text string, raw json.RawMessage, err error) {
		ex := Exchange{
			ID:     uuid.NewString(),
			Text:   text,
			Prompt: prompt,
			Reply:  raw,
			At:     time.Now().UTC(),
		}
		if err != nil {
			ex.Error = err.Error()
		}
		if saveErr := a.Save(ctx, ex); saveErr != nil {
			logger.Warn("transcript archive failed",
				zap.String("id", ex.ID), zap.Error(saveErr))
		}
	}
}
