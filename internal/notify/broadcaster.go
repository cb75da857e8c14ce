package notify

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/thirdeye/internal/models"
)

const DefaultBuffer = 100

type subscriber struct {
	role models.Role
	ch   chan Notification
}

type Broadcaster struct {
	subscribers map[uint64]subscriber
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	buffer      int
	mu          sync.RWMutex
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subscribers: make(map[uint64]subscriber),
		buffer:      buffer,
	}
}

// Subscribe registers a stream that only receives what role may see.
func (b *Broadcaster) Subscribe(role models.Role) (uint64, <-chan Notification) {
	id := b.nextID.Add(1)
	ch := make(chan Notification, b.buffer)

	b.mu.Lock()
	b.subscribers[id] = subscriber{role: role, ch: ch}
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if s, ok := b.subscribers[id]; ok {
		close(s.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Broadcast returns the number of subscribers that received n.
func (b *Broadcaster) Broadcast(n Notification) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, s := range b.subscribers {
		if !n.VisibleTo(s.role) {
			continue
		}
		select {
		case s.ch <- n:
			delivered++
		default:
			// slow subscriber
			b.dropped.Add(1)
		}
	}
	return delivered
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close ends every stream.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.subscribers {
		close(s.ch)
		delete(b.subscribers, id)
	}
}
