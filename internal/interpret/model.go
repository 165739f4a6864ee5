package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"opsgate/internal/command"
	"opsgate/internal/llm"
	"opsgate/internal/metrics"
	"opsgate/internal/util/jsonutil"
)

// DefaultTimeout bounds one inference call.
const DefaultTimeout = 30 * time.Second

// ExchangeHook receives every model exchange: the instruction prompt,
// the operator text, the raw reply (nil on transport failure) and the
// request error. Used to archive transcripts; raw replies must not
// travel anywhere less privileged.
type ExchangeHook func(ctx context.Context, prompt, text string, raw json.RawMessage, err error)

// Model interprets operator text by prompting an LLM for a JSON command
// and validating the reply. One attempt per call, bounded by timeout;
// callers that want a fallback own that decision.
type Model struct {
	client  llm.Client
	timeout time.Duration
	logger  *zap.Logger

	// OnExchange, when set, is called synchronously after every
	// inference attempt.
	OnExchange ExchangeHook
}

func NewModel(client llm.Client, timeout time.Duration, logger *zap.Logger) *Model {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{client: client, timeout: timeout, logger: logger}
}

type promptInput struct {
	Text string `json:"text"`
}

// Interpret sends text to the model and returns the validated command.
// Failures are classified: *UnavailableError when no reply arrived,
// *OutputError when the reply was not a usable command.
func (m *Model) Interpret(ctx context.Context, text string) (command.Command, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return command.Command{}, ErrEmptyInput
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	raw, err := m.client.GenerateJSON(cctx, instructionPrompt, promptInput{Text: trimmed})
	metrics.InferenceSeconds.Observe(time.Since(start).Seconds())
	if m.OnExchange != nil {
		m.OnExchange(ctx, instructionPrompt, trimmed, raw, err)
	}
	if err != nil {
		if errors.Is(err, llm.ErrInvalidJSON) {
			return command.Command{}, &OutputError{Backend: m.client.Name(), Raw: raw, Err: err}
		}
		return command.Command{}, &UnavailableError{Backend: m.client.Name(), Err: err}
	}

	var fields command.Raw
	if err := jsonutil.DecodeObject(raw, &fields); err != nil {
		m.logger.Debug("model reply not decodable",
			zap.String("backend", m.client.Name()),
			zap.String("reply", llm.Truncate(string(raw), 200)))
		return command.Command{}, &OutputError{Backend: m.client.Name(), Raw: raw, Err: err}
	}
	cmd, err := command.Validate(fields)
	if err != nil {
		return command.Command{}, &OutputError{Backend: m.client.Name(), Raw: raw, Err: err}
	}
	return cmd, nil
}
