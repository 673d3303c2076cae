// Package progress contains the core progress value objects: experience
// points, streak days, and the level derived from XP. Level is never stored
// as independently-mutable truth - it is always recomputed from XP, and the
// cached copy exists only so level-up crossings can be detected.
package progress

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XP represents accumulated experience points.
type XP int

// IsValid checks that XP is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add credits experience, never going below zero.
func (x XP) Add(delta int) XP {
	next := int(x) + delta
	if next < 0 {
		next = 0
	}
	return XP(next)
}

// StreakDays represents consecutive days of activity.
type StreakDays int

// IsValid checks that the streak is non-negative.
func (s StreakDays) IsValid() bool {
	return s >= 0
}

// Level represents the user's level, computed from XP.
type Level int

// XPPerLevel is the amount of experience each level spans.
// Total XP required to reach level n is (n-1) * XPPerLevel.
const XPPerLevel = 100

// CalculateLevel computes the level for the given XP: xp/100 + 1.
// Level 1 is the floor; negative XP never occurs but clamps defensively.
func CalculateLevel(xp XP) Level {
	if xp < 0 {
		return 1
	}
	return Level(int(xp)/XPPerLevel + 1)
}

// XPRequiredForLevel returns the total XP threshold required to reach level n.
func XPRequiredForLevel(level Level) XP {
	if level <= 1 {
		return 0
	}
	return XP((int(level) - 1) * XPPerLevel)
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is the progress record owned by the client session: xp, streak,
// and the cached level. Mutated by the quiz engine, pet interactions, and
// synchronizer merges - all funneled through the owning engine.
type Snapshot struct {
	XP         XP         `json:"xp"`
	StreakDays StreakDays `json:"streak_days"`
	Level      Level      `json:"level"`

	// LastActivityAt is the last local activity, used by the streak rule.
	LastActivityAt time.Time `json:"last_activity_at"`
}

// NewSnapshot returns the default snapshot for a fresh user.
func NewSnapshot() Snapshot {
	return Snapshot{XP: 0, StreakDays: 0, Level: 1}
}

// Normalize recomputes the cached level from XP and reports whether a
// level-up crossing occurred. Must be called after every XP mutation.
func (s *Snapshot) Normalize() (leveledUp bool, oldLevel Level) {
	oldLevel = s.Level
	if oldLevel < 1 {
		oldLevel = 1
	}
	computed := CalculateLevel(s.XP)
	s.Level = computed
	return computed > oldLevel, oldLevel
}

// CreditXP adds experience and recomputes the level.
func (s *Snapshot) CreditXP(amount int) (leveledUp bool, oldLevel Level) {
	s.XP = s.XP.Add(amount)
	return s.Normalize()
}

// MergeRemote applies the monotonic merge rule against remote authoritative
// values: each field independently takes max(local, remote), and level is
// recomputed from the merged XP rather than trusted from the remote record.
// Merging twice with the same inputs is idempotent. Reports whether any
// field changed and whether the merge produced a level-up crossing.
func (s *Snapshot) MergeRemote(remoteXP XP, remoteStreak StreakDays) (changed, leveledUp bool) {
	if remoteXP > s.XP {
		s.XP = remoteXP
		changed = true
	}
	if remoteStreak > s.StreakDays {
		s.StreakDays = remoteStreak
		changed = true
	}
	leveledUp, _ = s.Normalize()
	return changed, leveledUp
}
