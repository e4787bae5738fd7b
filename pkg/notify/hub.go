// Package notify fans values out to registered handlers.
package notify

import "sync"

// Subscription is a registered handler.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

type handler[T any] struct {
	id int
	fn func(T)
}

// Hub delivers each emitted value to every handler in subscription order.
// Handlers run on the emitting goroutine, outside the hub lock, so they may
// subscribe or unsubscribe from within a callback.
type Hub[T any] struct {
	mu       sync.Mutex
	next     int
	handlers []handler[T]
	subs     map[int]*Subscription
}

// Subscribe registers fn.
func (h *Hub[T]) Subscribe(fn func(T)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	sub := &Subscription{cancel: func() { h.remove(id) }}
	h.handlers = append(h.handlers, handler[T]{id: id, fn: fn})
	if h.subs == nil {
		h.subs = make(map[int]*Subscription)
	}
	h.subs[id] = sub
	return sub
}

func (h *Hub[T]) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
	for i, hd := range h.handlers {
		if hd.id == id {
			h.handlers = append(h.handlers[:i:i], h.handlers[i+1:]...)
			return
		}
	}
}

// Emit calls every handler with v.
func (h *Hub[T]) Emit(v T) {
	h.mu.Lock()
	fns := make([]func(T), 0, len(h.handlers))
	for _, hd := range h.handlers {
		fns = append(fns, hd.fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the number of live subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

// CloseAll closes every subscription.
func (h *Hub[T]) CloseAll() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}
