// Package realtime fans out per-user events (new messages, notifications) to open
// Server-Sent Events streams.
package realtime

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	KindMessage      = "message"
	KindNotification = "notification"
)

type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// Hub holds the live subscriptions of every connected user. A user may have several
// streams open (tabs, devices).
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{}), buffer: 16}
}

// Subscribe registers a stream for userID; call the returned func to unsubscribe.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every stream of userID. Slow streams drop the event rather than block.
func (h *Hub) Publish(userID string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Online reports whether userID has at least one open stream.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID]) > 0
}

// Serve writes events from ch as SSE frames until ch closes or the client goes away.
// A comment line is sent every heartbeat to keep proxies from timing the stream out.
func Serve(w *bufio.Writer, ch <-chan Event, heartbeat time.Duration) {
	if _, err := fmt.Fprint(w, "retry: 3000\n\n"); err != nil {
		return
	}
	if w.Flush() != nil {
		return
	}
	tick := time.NewTicker(heartbeat)
	defer tick.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if WriteEvent(w, ev) != nil {
				return
			}
		case <-tick.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if w.Flush() != nil {
				return
			}
		}
	}
}

func WriteEvent(w *bufio.Writer, ev Event) error {
	b, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, b); err != nil {
		return err
	}
	return w.Flush()
}
