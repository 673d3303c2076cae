package eventhandler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
)

type fakeSyncTrigger struct {
	calls atomic.Int64
}

func (f *fakeSyncTrigger) Sync(context.Context) error {
	f.calls.Add(1)
	return nil
}

func TestOnLevelUpTriggersSync(t *testing.T) {
	trigger := &fakeSyncTrigger{}
	handler := NewOnLevelUpHandler(trigger, nil)

	err := handler.Handle(shared.LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, "user-1"),
		OldLevel:  1,
		NewLevel:  2,
		XP:        110,
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return trigger.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestOnLevelUpIgnoresOtherEvents(t *testing.T) {
	trigger := &fakeSyncTrigger{}
	handler := NewOnLevelUpHandler(trigger, nil)

	require.NoError(t, handler.Handle(shared.QuizDayResetEvent("user-1")))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, trigger.calls.Load())
}

func TestOnLevelUpWithoutTrigger(t *testing.T) {
	handler := NewOnLevelUpHandler(nil, nil)
	require.NoError(t, handler.Handle(shared.LevelUpEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, "user-1"),
		NewLevel:  2,
	}))
}

func TestOnSessionCompletedTriggersSync(t *testing.T) {
	trigger := &fakeSyncTrigger{}
	handler := NewOnSessionCompletedHandler(trigger, nil)

	err := handler.Handle(shared.SessionCompletedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventSessionCompleted, "user-1"),
		CorrectCount: 8,
		WrongCount:   2,
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return trigger.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}
