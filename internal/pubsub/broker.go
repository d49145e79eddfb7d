package pubsub

import (
	"sync"

	"github.com/rs/zerolog"
)

// Callback receives one published payload.
type Callback func(payload any)

type registration struct {
	id uint64
	fn Callback
}

// Broker is a trigger-keyed publish/subscribe dispatcher. It is long-lived
// (one per process or server context) and owns every registration until it
// is unsubscribed or Clear is called.
type Broker struct {
	mu       sync.Mutex
	nextID   uint64
	triggers map[string][]registration
	byID     map[uint64]string
	log      zerolog.Logger
}

// NewBroker creates an empty broker logging through logger.
func NewBroker(logger zerolog.Logger) *Broker {
	return &Broker{
		triggers: make(map[string][]registration),
		byID:     make(map[uint64]string),
		log:      logger,
	}
}

// Subscribe registers fn for trigger and returns a registration id. Ids are
// unique and monotonically increasing per broker instance.
func (b *Broker) Subscribe(trigger string, fn Callback) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.triggers[trigger] = append(b.triggers[trigger], registration{id: id, fn: fn})
	b.byID[id] = trigger
	return id
}

// Unsubscribe removes exactly the registration identified by id. A trigger
// left with zero registrations is removed entirely, so subscribe/unsubscribe
// churn does not grow the trigger table.
func (b *Broker) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	trigger, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)
	regs := b.triggers[trigger]
	for i, r := range regs {
		if r.id == id {
			regs = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(b.triggers, trigger)
	} else {
		b.triggers[trigger] = regs
	}
}

// Publish delivers payload synchronously to every callback registered for
// trigger. A panicking callback is caught and logged; delivery to the
// remaining callbacks continues. Callbacks may themselves subscribe or
// unsubscribe: delivery runs against a snapshot taken outside the lock, so
// reentrant calls cannot corrupt the trigger table.
func (b *Broker) Publish(trigger string, payload any) {
	b.mu.Lock()
	regs := b.triggers[trigger]
	if len(regs) == 0 {
		b.mu.Unlock()
		return
	}
	snapshot := append([]registration(nil), regs...)
	b.mu.Unlock()

	for _, r := range snapshot {
		b.deliver(trigger, r, payload)
	}
}

func (b *Broker) deliver(trigger string, r registration, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error().
				Str("trigger", trigger).
				Uint64("subscription", r.id).
				Interface("panic", rec).
				Msg("subscriber callback panicked")
		}
	}()
	r.fn(payload)
}

// Clear drops every registration.
func (b *Broker) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.triggers = make(map[string][]registration)
	b.byID = make(map[uint64]string)
}

// SubscriberCount reports the number of registrations for trigger.
func (b *Broker) SubscriberCount(trigger string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.triggers[trigger])
}
