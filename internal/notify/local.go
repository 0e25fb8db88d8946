package notify

import (
	"context"
	"sync"
)

// LocalTransport delivers events to in-process subscribers. Slow
// subscribers drop events rather than block the publisher; the
// periodic poll covers whatever gets lost.
type LocalTransport struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func NewLocalTransport() *LocalTransport {
	return &LocalTransport{subs: make(map[int]chan Event)}
}

func (t *LocalTransport) Name() string { return "local" }

func (t *LocalTransport) Publish(_ context.Context, event Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers an observer. The returned cancel func must be
// called when the observer goes away.
func (t *LocalTransport) Subscribe() (<-chan Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++

	ch := make(chan Event, 16)
	t.subs[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
