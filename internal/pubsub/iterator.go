package pubsub

import (
	"context"
	"sync"
)

type pull struct {
	ch chan pullResult
}

type pullResult struct {
	value any
	ok    bool
	err   error
}

// Iterator multiplexes one or more triggers into a single ordered pull-based
// stream. Values published before a pull are buffered in the push queue; a
// pull made before any value arrives parks in the pull queue until a value
// is published, the iterator is stopped, or the pull's context ends.
type Iterator struct {
	broker *Broker

	mu        sync.Mutex
	pushQueue []any
	pullQueue []pull
	subIDs    []uint64
	done      bool
	err       error
}

// Iterator subscribes to every listed trigger and returns the multiplexed
// stream. Stop releases all underlying registrations.
func (b *Broker) Iterator(triggers ...string) *Iterator {
	it := &Iterator{broker: b}
	for _, trigger := range triggers {
		id := b.Subscribe(trigger, it.push)
		it.subIDs = append(it.subIDs, id)
	}
	return it
}

func (it *Iterator) push(payload any) {
	it.mu.Lock()
	if it.done {
		it.mu.Unlock()
		return
	}
	if len(it.pullQueue) > 0 {
		waiter := it.pullQueue[0]
		it.pullQueue = it.pullQueue[1:]
		it.mu.Unlock()
		waiter.ch <- pullResult{value: payload, ok: true}
		return
	}
	it.pushQueue = append(it.pushQueue, payload)
	it.mu.Unlock()
}

// Next pulls the next value. It returns (value, true, nil) for a delivered
// payload, (nil, false, nil) once the iterator has been stopped, and
// (nil, false, err) when the iterator failed or ctx ended first.
func (it *Iterator) Next(ctx context.Context) (any, bool, error) {
	it.mu.Lock()
	if len(it.pushQueue) > 0 {
		v := it.pushQueue[0]
		it.pushQueue = it.pushQueue[1:]
		it.mu.Unlock()
		return v, true, nil
	}
	if it.done {
		err := it.err
		it.mu.Unlock()
		return nil, false, err
	}
	waiter := pull{ch: make(chan pullResult, 1)}
	it.pullQueue = append(it.pullQueue, waiter)
	it.mu.Unlock()

	select {
	case res := <-waiter.ch:
		return res.value, res.ok, res.err
	case <-ctx.Done():
		it.removePull(waiter)
		return nil, false, ctx.Err()
	}
}

func (it *Iterator) removePull(w pull) {
	it.mu.Lock()
	defer it.mu.Unlock()
	for i, p := range it.pullQueue {
		if p.ch == w.ch {
			it.pullQueue = append(it.pullQueue[:i], it.pullQueue[i+1:]...)
			return
		}
	}
}

// Stop cancels the iterator: it unsubscribes from every underlying trigger
// and resolves all pending pulls with the completion signal. Safe to call
// more than once.
func (it *Iterator) Stop() {
	it.finish(nil)
}

// Fail terminates the iterator with err: it unsubscribes from every
// underlying trigger and rejects all pending pulls without a value.
func (it *Iterator) Fail(err error) {
	it.finish(err)
}

func (it *Iterator) finish(err error) {
	it.mu.Lock()
	if it.done {
		it.mu.Unlock()
		return
	}
	it.done = true
	it.err = err
	waiters := it.pullQueue
	it.pullQueue = nil
	subs := it.subIDs
	it.subIDs = nil
	it.mu.Unlock()

	for _, id := range subs {
		it.broker.Unsubscribe(id)
	}
	for _, w := range waiters {
		w.ch <- pullResult{ok: false, err: err}
	}
}
