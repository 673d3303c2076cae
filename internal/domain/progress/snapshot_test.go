package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLevel(t *testing.T) {
	cases := []struct {
		xp    XP
		level Level
	}{
		{0, 1},
		{1, 1},
		{99, 1},
		{100, 2},
		{105, 2},
		{999, 10},
		{1000, 11},
		{-5, 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.level, CalculateLevel(tc.xp), "xp=%d", tc.xp)
	}
}

func TestCalculateLevel_Monotonic(t *testing.T) {
	prev := CalculateLevel(0)
	for xp := XP(1); xp <= 2500; xp++ {
		level := CalculateLevel(xp)
		assert.GreaterOrEqual(t, level, prev, "level regressed at xp=%d", xp)
		prev = level
	}
}

func TestXPRequiredForLevel(t *testing.T) {
	assert.Equal(t, XP(0), XPRequiredForLevel(1))
	assert.Equal(t, XP(100), XPRequiredForLevel(2))
	assert.Equal(t, XP(900), XPRequiredForLevel(10))

	// Round trip: reaching the threshold yields exactly that level.
	for level := Level(1); level <= 50; level++ {
		assert.Equal(t, level, CalculateLevel(XPRequiredForLevel(level)))
	}
}

func TestSnapshot_CreditXP_LevelUpFiresOnce(t *testing.T) {
	s := NewSnapshot()
	s.XP = 95
	s.Normalize()
	assert.Equal(t, Level(1), s.Level)

	leveledUp, oldLevel := s.CreditXP(10)
	assert.True(t, leveledUp)
	assert.Equal(t, Level(1), oldLevel)
	assert.Equal(t, XP(105), s.XP)
	assert.Equal(t, Level(2), s.Level)

	// A second normalize must not report another crossing.
	leveledUp, _ = s.Normalize()
	assert.False(t, leveledUp)
}

func TestSnapshot_CreditXP_ClampsAtZero(t *testing.T) {
	s := NewSnapshot()
	s.XP = 3
	leveledUp, _ := s.CreditXP(-10)
	assert.False(t, leveledUp)
	assert.Equal(t, XP(0), s.XP)
	assert.Equal(t, Level(1), s.Level)
}

func TestSnapshot_MergeRemote_Monotonic(t *testing.T) {
	s := NewSnapshot()
	s.XP = 80
	s.StreakDays = 4
	s.Normalize()

	// Remote behind local: nothing regresses.
	changed, _ := s.MergeRemote(50, 2)
	assert.False(t, changed)
	assert.Equal(t, XP(80), s.XP)
	assert.Equal(t, StreakDays(4), s.StreakDays)

	// Remote ahead on one field only.
	changed, _ = s.MergeRemote(50, 9)
	assert.True(t, changed)
	assert.Equal(t, XP(80), s.XP)
	assert.Equal(t, StreakDays(9), s.StreakDays)
}

func TestSnapshot_MergeRemote_Idempotent(t *testing.T) {
	s := NewSnapshot()
	s.XP = 120
	s.StreakDays = 3
	s.Normalize()

	s.MergeRemote(200, 5)
	first := s
	changed, leveledUp := s.MergeRemote(200, 5)
	assert.False(t, changed)
	assert.False(t, leveledUp)
	assert.Equal(t, first.XP, s.XP)
	assert.Equal(t, first.StreakDays, s.StreakDays)
	assert.Equal(t, first.Level, s.Level)
}

func TestSnapshot_MergeRemote_LevelRecomputedNotTrusted(t *testing.T) {
	s := NewSnapshot()
	s.XP = 40
	s.Normalize()

	// Merged XP of 250 puts the user at level 3 regardless of what the
	// remote record claims its level is.
	_, leveledUp := s.MergeRemote(250, 0)
	assert.True(t, leveledUp)
	assert.Equal(t, Level(3), s.Level)
}
