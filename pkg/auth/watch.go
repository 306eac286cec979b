package auth

import (
	"context"
	"sync"
)

// stateHub fans State snapshots out to watchers. Sends never block:
// a watcher whose buffer is full loses intermediate snapshots and
// catches up on the next publish.
type stateHub struct {
	mu     sync.Mutex
	subs   map[chan State]struct{}
	buffer int
	closed bool
}

func newStateHub(buffer int) *stateHub {
	return &stateHub{
		subs:   make(map[chan State]struct{}),
		buffer: max(buffer, 1),
	}
}

// subscribe registers a watcher and immediately delivers the current
// snapshot. The subscription is removed when ctx is cancelled.
func (h *stateHub) subscribe(ctx context.Context, current State) <-chan State {
	ch := make(chan State, h.buffer)

	h.mu.Lock()
	if h.closed {
		close(ch)
		h.mu.Unlock()
		return ch
	}
	h.subs[ch] = struct{}{}
	ch <- current
	h.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			h.unsubscribe(ch)
		}()
	}

	return ch
}

func (h *stateHub) unsubscribe(ch chan State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// publish delivers a snapshot to every watcher, dropping it for
// watchers whose buffer is full.
func (h *stateHub) publish(snapshot State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for ch := range h.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// close shuts down the hub and closes all watcher channels.
func (h *stateHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for ch := range h.subs {
		close(ch)
	}
	clear(h.subs)
}
