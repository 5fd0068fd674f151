package reminder

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	t.Cleanup(bus.Stop)

	var got atomic.Value
	bus.Subscribe(func(event *ReminderEvent) {
		got.Store(event.MedicationName)
	})

	bus.Publish(&ReminderEvent{MedicationID: 1, MedicationName: "Heartgard"})

	require.Eventually(t, func() bool {
		return got.Load() == "Heartgard"
	}, time.Second, 5*time.Millisecond)
}

func TestEventBusStampsTimestamp(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	t.Cleanup(bus.Stop)

	var stamped atomic.Bool
	bus.Subscribe(func(event *ReminderEvent) {
		stamped.Store(!event.Timestamp.IsZero())
	})

	bus.Publish(&ReminderEvent{MedicationID: 1})
	require.Eventually(t, stamped.Load, time.Second, 5*time.Millisecond)
}

func TestEventBusSurvivesPanickingHandler(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	t.Cleanup(bus.Stop)

	var delivered atomic.Int32
	bus.Subscribe(func(*ReminderEvent) { panic("boom") })
	bus.Subscribe(func(*ReminderEvent) { delivered.Add(1) })

	bus.Publish(&ReminderEvent{MedicationID: 1})
	bus.Publish(&ReminderEvent{MedicationID: 2})

	require.Eventually(t, func() bool {
		return delivered.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestEventBusDropsAfterStop(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()

	var delivered atomic.Int32
	bus.Subscribe(func(*ReminderEvent) { delivered.Add(1) })

	bus.Stop()
	bus.Publish(&ReminderEvent{MedicationID: 1})

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, delivered.Load())
}

func TestTryPublishWithoutGlobalBus(t *testing.T) {
	// Not parallel: touches the package-level singleton.
	SetGlobalBus(nil)
	assert.False(t, TryPublish(&ReminderEvent{MedicationID: 1}))

	bus := NewEventBus()
	t.Cleanup(func() {
		bus.Stop()
		SetGlobalBus(nil)
	})
	SetGlobalBus(bus)
	assert.True(t, TryPublish(&ReminderEvent{MedicationID: 1}))
}
