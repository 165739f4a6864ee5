package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Middleware decorates a Client to inject cross-cutting concerns.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithLogging logs one line per request with backend name, latency and
// outcome. Reply bodies are logged truncated only.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next Client) Client {
		if logger == nil {
			logger = zap.NewNop()
		}
		return &logged{next: next, logger: logger}
	}
}

type logged struct {
	next   Client
	logger *zap.Logger
}

func (c *logged) Name() string { return c.next.Name() }
func (c *logged) Close() error { return c.next.Close() }

func (c *logged) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.next.GenerateJSON(ctx, prompt, input)
	fields := []zap.Field{
		zap.String("backend", c.next.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("prompt_bytes", len(prompt)),
	}
	if err != nil {
		c.logger.Warn("llm request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.logger.Debug("llm request ok", append(fields, zap.String("reply", Truncate(string(raw), 200)))...)
	return raw, nil
}
