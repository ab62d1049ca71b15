package notify

import "sync"

// Bus delivers each published event to every subscribed listener,
// synchronously, in registration order, on the publisher's goroutine.
// The bus holds no reference to a listener beyond its Subscription: a
// released handle frees the listener, so a closed screen cannot be kept
// alive by the bus.
type Bus struct {
	mu   sync.Mutex
	subs []*Subscription
	next int
}

// Subscription is the handle returned by Subscribe. The subscriber owns it
// and must call Unsubscribe when it no longer wants events.
type Subscription struct {
	id  int
	bus *Bus
	fn  func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns its handle.
func (b *Bus) Subscribe(fn func(Event)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	sub := &Subscription{id: b.next, bus: b, fn: fn}
	b.subs = append(b.subs, sub)
	return sub
}

// Unsubscribe removes the listener. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	s.bus = nil
}

// Publish delivers the event to all current subscribers in registration
// order. Listeners run on the caller's goroutine; a slow listener delays
// the publisher, not other subscribers' ordering.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.fn(event)
	}
}
