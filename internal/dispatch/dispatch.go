package dispatch

import (
	"context"

	"go.uber.org/zap"

	"opsgate/internal/confirm"
)

// Logged is the no-infrastructure dispatcher: confirmed commands are
// written to the log and nothing else happens. Default when no broker
// is configured.
type Logged struct {
	logger *zap.Logger
}

func NewLogged(logger *zap.Logger) *Logged {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logged{logger: logger}
}

func (d *Logged) Dispatch(_ context.Context, rec confirm.Record) error {
	d.logger.Info("command released",
		zap.String("token", rec.Token),
		zap.String("command", rec.Command.Summary()))
	return nil
}

func (d *Logged) Close() {}
