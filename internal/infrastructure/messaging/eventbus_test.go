package messaging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
)

func TestPublish_DeliversInOrder(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	var order []string

	require.NoError(t, bus.Subscribe(shared.EventLevelUp, HandlerFunc{
		HandlerName: "first",
		Fn: func(shared.Event) error {
			order = append(order, "first")
			return nil
		},
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, HandlerFunc{
		HandlerName: "second",
		Fn: func(shared.Event) error {
			order = append(order, "second")
			return nil
		},
	}))
	require.NoError(t, bus.SubscribeAll(HandlerFunc{
		HandlerName: "global",
		Fn: func(shared.Event) error {
			order = append(order, "global")
			return nil
		},
	}))

	event := shared.LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, "user-1"),
		OldLevel:  1,
		NewLevel:  2,
	}
	require.NoError(t, bus.Publish(event))
	assert.Equal(t, []string{"first", "second", "global"}, order)
}

func TestPublish_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	called := false

	require.NoError(t, bus.Subscribe(shared.EventPetFed, HandlerFunc{
		HandlerName: "pet-only",
		Fn: func(shared.Event) error {
			called = true
			return nil
		},
	}))

	require.NoError(t, bus.Publish(shared.LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, "user-1"),
	}))
	assert.False(t, called)
}

func TestPublish_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	delivered := false

	require.NoError(t, bus.Subscribe(shared.EventLevelUp, HandlerFunc{
		HandlerName: "failing",
		Fn:          func(shared.Event) error { return errors.New("boom") },
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, HandlerFunc{
		HandlerName: "next",
		Fn: func(shared.Event) error {
			delivered = true
			return nil
		},
	}))

	err := bus.Publish(shared.LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, "user-1"),
	})
	require.NoError(t, err, "handler errors are logged, not propagated")
	assert.True(t, delivered)
}

func TestClosedBusRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, "user-1"),
	})
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
