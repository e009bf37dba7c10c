package common

import "sync"

// Broadcaster fans state snapshots out to subscribers. Sends never block: a
// subscriber that falls behind misses intermediate snapshots and can always
// read the latest state from its owner.
type Broadcaster[T any] struct {
	subs   map[int]chan T
	nextID int
	mu     sync.Mutex
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a subscriber with the given channel buffer. The returned
// function unsubscribes and closes the channel.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan T, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers value to every subscriber with room in its buffer.
func (b *Broadcaster[T]) Publish(value T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- value:
		default:
		}
	}
}
