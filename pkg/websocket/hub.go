package websocketPkg

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Event is the envelope every subscriber receives as one JSON text frame.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type IHub interface {
	Subscribe(buffer int) (<-chan Event, func())
	Broadcast(eventType string, data interface{})
	Subscribers() int
	Close()
}

// hub fans events out to subscribers. A subscriber whose buffer is full
// misses the event rather than stalling the broadcaster.
type hub struct {
	mu     sync.RWMutex
	log    *logrus.Logger
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewHub(log *logrus.Logger) IHub {
	return &hub{
		log:  log,
		subs: make(map[int]chan Event),
	}
}

func (h *hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *hub) Broadcast(eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.WithFields(logrus.Fields{
				"subscriber": id,
				"event":      eventType,
			}).Debug("Subscriber buffer full, dropping event")
		}
	}
}

func (h *hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
