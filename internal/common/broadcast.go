package common

import "sync"

// Hub fans a value out to every registered handler. Delivery happens on
// the publishing goroutine, in subscription order, before Publish returns.
// All methods are safe for concurrent use.
type Hub[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]func(T)
	order    []uint64
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		handlers: make(map[uint64]func(T)),
	}
}

// Subscribe registers fn and returns the function that removes it.
// Calling the returned function more than once is harmless.
func (h *Hub[T]) Subscribe(fn func(T)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.handlers[id] = fn
	h.order = append(h.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub[T]) Publish(value T) {
	for _, fn := range h.snapshot() {
		fn(value)
	}
}

// snapshot copies the handlers so a handler may subscribe or unsubscribe
// while being notified.
func (h *Hub[T]) snapshot() []func(T) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	handlers := make([]func(T), 0, len(h.order))
	for _, id := range h.order {
		if fn, ok := h.handlers[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	return handlers
}

func (h *Hub[T]) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.handlers, id)
	for i, existing := range h.order {
		if existing == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}
