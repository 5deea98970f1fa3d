package batch

import (
	"sync"

	"print-packager/internal/domain"
)

const subscriberBuffer = 16

// ProgressHub fans progress events out to the subscribers of each batch.
// Slow subscribers lose intermediate events, never the latest one.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Progress]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subs: make(map[string]map[chan domain.Progress]struct{}),
	}
}

// Subscribe returns a channel of progress updates for batchID and a cancel
// func that must be called once the caller stops reading.
func (h *ProgressHub) Subscribe(batchID string) (<-chan domain.Progress, func()) {
	ch := make(chan domain.Progress, subscriberBuffer)

	h.mu.Lock()
	if h.subs[batchID] == nil {
		h.subs[batchID] = make(map[chan domain.Progress]struct{})
	}
	h.subs[batchID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[batchID], ch)
			if len(h.subs[batchID]) == 0 {
				delete(h.subs, batchID)
			}
			close(ch)
		})
	}
}

func (h *ProgressHub) Publish(event domain.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[event.BatchID] {
		select {
		case ch <- event.Progress:
			continue
		default:
		}
		// Drop the oldest queued update to make room for the newest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event.Progress:
		default:
		}
	}
}

func (h *ProgressHub) Subscribers(batchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[batchID])
}
