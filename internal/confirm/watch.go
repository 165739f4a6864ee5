package confirm

import (
	"sync"
	"time"
)

// Event is one status change seen by watchers of a token.
type Event struct {
	Token  string    `json:"token"`
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: map[string]map[chan Event]struct{}{}}
}

// Watch subscribes to transitions of one token. Call cancel when done;
// it closes the channel. Events are dropped rather than letting a slow
// watcher block a transition.
func (w *Workflow) Watch(token string) (<-chan Event, func()) {
	ch := make(chan Event, 4)
	h := w.hub

	h.mu.Lock()
	set, ok := h.subs[token]
	if !ok {
		set = map[chan Event]struct{}{}
		h.subs[token] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		set, ok := h.subs[token]
		if !ok {
			return
		}
		if _, live := set[ch]; !live {
			return
		}
		delete(set, ch)
		close(ch)
		if len(set) == 0 {
			delete(h.subs, token)
		}
	}
	return ch, cancel
}

// broadcast runs under the hub lock so a concurrent cancel cannot close
// a channel mid-send.
func (h *hub) broadcast(rec Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[rec.Token] {
		select {
		case ch <- Event{Token: rec.Token, Status: rec.Status, At: rec.DecidedAt}:
		default:
		}
	}
}
