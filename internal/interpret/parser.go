package interpret

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"opsgate/internal/command"
	"opsgate/internal/metrics"
)

// Parser is the single entry point for turning operator text into a
// validated command. It prefers the model when asked to and one is
// configured, and falls back to the pattern rules when the model is
// unavailable or its output is unusable. The branch is explicit so the
// fallback decision always shows up in logs and metrics.
type Parser struct {
	model    *Model // nil when no model backend is configured
	fallback *Fallback
	logger   *zap.Logger
}

func NewParser(model *Model, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{model: model, fallback: NewFallback(), logger: logger}
}

// Parse returns a schema-valid command or an error; never both, never a
// partially populated command.
func (p *Parser) Parse(ctx context.Context, text string, preferModel bool) (command.Command, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return command.Command{}, ErrEmptyInput
	}

	if preferModel && p.model != nil {
		cmd, err := p.model.Interpret(ctx, trimmed)
		if err == nil {
			metrics.Interpretations.WithLabelValues("model", "ok").Inc()
			return cmd, nil
		}
		var unavail *UnavailableError
		var output *OutputError
		switch {
		case errors.As(err, &unavail):
			p.logger.Warn("model unavailable, using pattern rules",
				zap.String("backend", unavail.Backend), zap.Error(unavail.Err))
			metrics.Interpretations.WithLabelValues("model", "unavailable").Inc()
		case errors.As(err, &output):
			p.logger.Warn("model output unusable, using pattern rules",
				zap.String("backend", output.Backend), zap.Error(output.Err))
			metrics.Interpretations.WithLabelValues("model", "invalid").Inc()
		default:
			return command.Command{}, err
		}
		metrics.FallbackTotal.Inc()
	}

	cmd, err := p.fallback.Interpret(trimmed)
	if err != nil {
		metrics.Interpretations.WithLabelValues("fallback", "error").Inc()
		return command.Command{}, err
	}
	metrics.Interpretations.WithLabelValues("fallback", "ok").Inc()
	return cmd, nil
}
