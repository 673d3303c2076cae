package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_FreshUserUnlocksNothing(t *testing.T) {
	s := NewState(nil, nil)
	changes := s.Evaluate(Inputs{}, time.Now())
	assert.False(t, changes.Any())
	assert.Empty(t, s.Log())
}

func TestEvaluate_StreakAchievement(t *testing.T) {
	s := NewState(nil, nil)
	now := time.Now()

	changes := s.Evaluate(Inputs{StreakDays: 6}, now)
	assert.False(t, changes.Any())

	changes = s.Evaluate(Inputs{StreakDays: 7}, now)
	require.Len(t, changes.Unlocked, 1)
	assert.Equal(t, KindStreak, changes.Unlocked[0].Kind)
	assert.NotEmpty(t, changes.Unlocked[0].ID)
	assert.Contains(t, changes.Badges, BadgeStreak)
}

func TestEvaluate_Idempotent(t *testing.T) {
	s := NewState(nil, nil)
	now := time.Now()
	in := Inputs{StreakDays: 10, SessionComplete: true, AnsweredCount: 10, Accuracy: 1.0, Level: 12, XP: 1500}

	first := s.Evaluate(in, now)
	assert.Len(t, first.Unlocked, 3)
	assert.Len(t, first.Badges, 5) // everything except Speed

	second := s.Evaluate(in, now)
	assert.False(t, second.Any(), "second pass with same inputs must be a no-op")
	assert.Len(t, s.Log(), 3, "log gets at most one entry per kind")
}

func TestEvaluate_NeverRevokes(t *testing.T) {
	s := NewState(nil, nil)
	now := time.Now()

	s.Evaluate(Inputs{SessionComplete: true, AnsweredCount: 10, Accuracy: 0.9}, now)
	require.Len(t, s.Log(), 2)

	// Next day: session incomplete, accuracy dropped. Nothing reverts.
	s.Evaluate(Inputs{SessionComplete: false, AnsweredCount: 2, Accuracy: 0.5}, now.Add(24*time.Hour))
	assert.Len(t, s.Log(), 2)
	for _, b := range s.Badges() {
		if b.Name == BadgeScholar || b.Name == BadgeAccuracy {
			assert.True(t, b.Earned, "badge %s must stay earned", b.Name)
		}
	}
}

func TestEvaluate_AccuracyNeedsAnswers(t *testing.T) {
	s := NewState(nil, nil)
	changes := s.Evaluate(Inputs{AnsweredCount: 0, Accuracy: 1.0}, time.Now())
	assert.False(t, changes.Any())
}

func TestEvaluate_LevelAndXPBadges(t *testing.T) {
	s := NewState(nil, nil)
	now := time.Now()

	changes := s.Evaluate(Inputs{Level: 9, XP: 999}, now)
	assert.Empty(t, changes.Badges)

	changes = s.Evaluate(Inputs{Level: 10, XP: 1000}, now)
	assert.ElementsMatch(t, []string{BadgeMaster, BadgeDiamond}, changes.Badges)
}

func TestSpeedBadge_NeverEarnable(t *testing.T) {
	s := NewState(nil, nil)
	s.Evaluate(Inputs{StreakDays: 100, SessionComplete: true, AnsweredCount: 10, Accuracy: 1.0, Level: 99, XP: 99999}, time.Now())

	for _, b := range s.Badges() {
		if b.Name == BadgeSpeed {
			assert.False(t, b.Earned)
			return
		}
	}
	t.Fatal("Speed badge missing from catalog")
}

func TestNewState_CorruptBadgesFallBackToCatalog(t *testing.T) {
	s := NewState(nil, []Badge{{Name: "bogus"}})
	assert.Len(t, s.Badges(), len(DefaultBadges()))
}

func TestResetAll(t *testing.T) {
	s := NewState(nil, nil)
	now := time.Now()
	s.Evaluate(Inputs{StreakDays: 7, SessionComplete: true, AnsweredCount: 10, Accuracy: 1.0}, now)
	require.NotEmpty(t, s.Log())

	s.ResetAll()
	assert.Empty(t, s.Log())
	for _, b := range s.Badges() {
		assert.False(t, b.Earned)
	}
}
