package sse

import (
	"context"
	"sync"
	"time"

	"ms-bulletin/internal/models"
	"ms-bulletin/internal/notify"
)

// Broadcaster fans lifecycle notifications out to connected moderators.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan models.EventNotification]struct{}
	Now     func() time.Time
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan models.EventNotification]struct{}),
		Now:     time.Now,
	}
}

// Subscribe registers a client until ctx is done, then closes its channel.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan models.EventNotification {
	ch := make(chan models.EventNotification, 10)

	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(ch)
	}()
	return ch
}

// Emit sends n to every client. A client whose buffer is full misses it.
func (b *Broadcaster) Emit(n models.EventNotification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.clients {
		select {
		case ch <- n:
		default:
		}
	}
}

// Notify satisfies events.Notifier.
func (b *Broadcaster) Notify(_ context.Context, action string, ev models.Event) {
	b.Emit(notify.NewNotification(action, ev, b.Now()))
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) remove(ch chan models.EventNotification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}
