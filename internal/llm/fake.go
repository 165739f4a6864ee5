package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeClient returns deterministic replies for offline runs and tests.
// The zero value answers every call with a fixed create_vm payload; set
// Reply or Err to steer behavior.
type FakeClient struct {
	mu      sync.Mutex
	Reply   json.RawMessage
	Err     error
	Prompts []string
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Reply != nil {
		return f.Reply, nil
	}
	return json.RawMessage(`{"action":"create_vm","name":"demo-vm","flavor":"medium"}`), nil
}
