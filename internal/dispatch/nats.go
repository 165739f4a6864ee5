package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"opsgate/internal/confirm"
)

// Subject carrying confirmed commands.
const Subject = "opsgate.commands.confirmed"

var (
	_ confirm.Dispatcher = (*Logged)(nil)
	_ confirm.Dispatcher = (*NATS)(nil)
)

// NATS publishes each confirmed command as one JSON message on Subject.
type NATS struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNATS(url string, logger *zap.Logger) (*NATS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name("opsgate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATS{nc: nc, logger: logger}, nil
}

func (d *NATS) Dispatch(_ context.Context, rec confirm.Record) error {
	if d.nc == nil || d.nc.IsClosed() {
		return fmt.Errorf("dispatch: nats not connected")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return d.nc.Publish(Subject, payload)
}

func (d *NATS) Close() {
	if d.nc != nil {
		d.nc.Drain()
		d.nc.Close()
	}
}
