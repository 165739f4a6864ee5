package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"opsgate/internal/confirm"
)

const (
	watchWriteWait = 10 * time.Second
	watchPongWait  = 60 * time.Second
	watchPingEvery = (watchPongWait * 9) / 10
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleWatch streams status transitions for one confirmation over a websocket.
// The current status is sent first so late subscribers never miss the outcome.
func (h *ConfirmHandler) handleWatch(w http.ResponseWriter, r *http.Request, token string) {
	rec, err := h.flow.Get(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}

	conn, err := watchUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
		h.logger.Warn("watch ws set read deadline failed", zap.String("token", token), zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	writeCh := make(chan confirm.Event, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(evt); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	events, cancelWatch := h.flow.Watch(token)
	defer cancelWatch()

	at := rec.CreatedAt
	if rec.Status.Terminal() {
		at = rec.DecidedAt
	}
	pushWatchEvent(writeCh, confirm.Event{Token: rec.Token, Status: rec.Status, At: at})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				pushWatchEvent(writeCh, evt)
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			<-writerDone
			return
		}
	}
}

// pushWatchEvent never blocks the broadcaster; when the buffer is full the
// oldest event is dropped in favour of the newest.
func pushWatchEvent(writeCh chan confirm.Event, evt confirm.Event) {
	select {
	case writeCh <- evt:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- evt:
	default:
	}
}
