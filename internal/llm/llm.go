package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidJSON is returned when a backend answered but the reply body
// could not be treated as JSON.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Client is implemented by every model backend. GenerateJSON sends the
// instruction prompt plus a JSON-encoded input payload and returns the
// model's raw JSON reply. Clients make exactly one request per call;
// retry policy belongs to the caller.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

// Truncate shortens s to at most n bytes for log output. Raw model
// replies are only ever logged through this.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
