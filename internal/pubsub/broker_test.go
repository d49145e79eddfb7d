package pubsub

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestBroker() *Broker {
	return NewBroker(zerolog.Nop())
}

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	b := newTestBroker()
	var order []string
	b.Subscribe("order:changed", func(payload any) { order = append(order, "first") })
	b.Subscribe("order:changed", func(payload any) { order = append(order, "second") })
	b.Subscribe("order:changed", func(payload any) { order = append(order, "third") })

	b.Publish("order:changed", nil)
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestSubscribeIDsAreMonotonic(t *testing.T) {
	b := newTestBroker()
	var prev uint64
	for i := 0; i < 100; i++ {
		id := b.Subscribe("t", func(any) {})
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestUnsubscribeRemovesExactlyOne(t *testing.T) {
	b := newTestBroker()
	var got []int
	b.Subscribe("t", func(any) { got = append(got, 1) })
	id := b.Subscribe("t", func(any) { got = append(got, 2) })
	b.Subscribe("t", func(any) { got = append(got, 3) })

	b.Unsubscribe(id)
	b.Publish("t", nil)
	require.Equal(t, []int{1, 3}, got)

	// Unsubscribing an unknown id is a no-op.
	b.Unsubscribe(9999)
	b.Publish("t", nil)
	require.Equal(t, []int{1, 3, 1, 3}, got)
}

func TestEmptyTriggerIsRemoved(t *testing.T) {
	b := newTestBroker()
	id1 := b.Subscribe("t", func(any) {})
	id2 := b.Subscribe("t", func(any) {})
	require.Equal(t, 2, b.SubscriberCount("t"))

	b.Unsubscribe(id1)
	b.Unsubscribe(id2)
	require.Equal(t, 0, b.SubscriberCount("t"))
	require.NotContains(t, b.triggers, "t")
}

func TestPanickingCallbackDoesNotStopDelivery(t *testing.T) {
	b := newTestBroker()
	delivered := false
	b.Subscribe("t", func(any) { panic("boom") })
	b.Subscribe("t", func(any) { delivered = true })

	require.NotPanics(t, func() { b.Publish("t", nil) })
	require.True(t, delivered)
}

func TestReentrantSubscribeDuringPublish(t *testing.T) {
	b := newTestBroker()
	var calls int
	b.Subscribe("t", func(any) {
		calls++
		// Registered mid-delivery; must not receive the in-flight payload.
		b.Subscribe("t", func(any) { calls += 100 })
	})

	b.Publish("t", nil)
	require.Equal(t, 1, calls)

	b.Publish("t", nil)
	require.Equal(t, 102, calls)
}

func TestReentrantUnsubscribeDuringPublish(t *testing.T) {
	b := newTestBroker()
	var got []int
	var lateID uint64
	b.Subscribe("t", func(any) {
		got = append(got, 1)
		b.Unsubscribe(lateID)
	})
	lateID = b.Subscribe("t", func(any) { got = append(got, 2) })

	// The snapshot taken at publish time still delivers to the late
	// subscriber; subsequent publishes do not.
	b.Publish("t", nil)
	require.Equal(t, []int{1, 2}, got)
	b.Publish("t", nil)
	require.Equal(t, []int{1, 2, 1}, got)
}

func TestClear(t *testing.T) {
	b := newTestBroker()
	b.Subscribe("a", func(any) {})
	b.Subscribe("b", func(any) {})
	b.Clear()
	require.Equal(t, 0, b.SubscriberCount("a"))
	require.Equal(t, 0, b.SubscriberCount("b"))
}

func TestTriggerNames(t *testing.T) {
	require.Equal(t, "order:changed", ChangedTrigger("order"))
	require.Equal(t, "order:field:total", FieldTrigger("order", "total"))
	require.Equal(t, "order:action:confirm", ActionTrigger("order", "confirm"))
}
