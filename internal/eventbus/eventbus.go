// Package eventbus is a small in-process event dispatcher. Publishers emit
// typed events; subscribers register per event type. The bus decouples the
// core packages from observability backends.
package eventbus

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type registration struct {
	id uint64
	fn func(context.Context, any)
}

// Bus dispatches events to handlers keyed by the event's dynamic type.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[reflect.Type][]registration
}

// New creates an empty Bus.
func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]registration)} }

func (b *Bus) subscribe(t reflect.Type, fn func(context.Context, any)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], registration{id: id, fn: fn})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		regs := b.handlers[t]
		for i, r := range regs {
			if r.id == id {
				regs = append(regs[:i], regs[i+1:]...)
				break
			}
		}
		if len(regs) == 0 {
			delete(b.handlers, t)
		} else {
			b.handlers[t] = regs
		}
	}
}

func (b *Bus) emit(ctx context.Context, e any) {
	if b == nil {
		return
	}
	t := reflect.TypeOf(e)
	b.mu.RLock()
	regs := b.handlers[t]
	if len(regs) == 0 {
		b.mu.RUnlock()
		return
	}
	snapshot := append([]registration(nil), regs...)
	b.mu.RUnlock()
	for _, r := range snapshot {
		r.fn(ctx, e)
	}
}

var global atomic.Pointer[Bus]

// Use sets the global bus. Passing nil disables event publishing.
func Use(b *Bus) { global.Store(b) }

// Subscribe registers h with the global bus.
func Subscribe[T any](h Handler[T]) (unsubscribe func()) {
	b := global.Load()
	if b == nil {
		return func() {}
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.subscribe(t, func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Publish sends e through the global bus.
func Publish[T any](ctx context.Context, e T) {
	if b := global.Load(); b != nil {
		b.emit(ctx, e)
	}
}
