package sync

import gosync "sync"

// Bridge carries unread-count changes from the surface that caused them
// to every other surface. Subscribers receive the new count but should
// re-read it from the store rather than keep their own tally.
type Bridge struct {
	mu     gosync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(count int)
}

// NewBridge returns a bridge with no subscribers.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bridge) Subscribe(fn func(count int)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once gosync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Emit calls every subscriber in subscription order with count.
// Subscribers run outside the bridge lock and may subscribe or
// unsubscribe from within the callback.
func (b *Bridge) Emit(count int) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(count)
	}
}

func (b *Bridge) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
