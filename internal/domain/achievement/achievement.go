// Package achievement derives unlocked achievements and badges from the
// current progress, quiz, and pet values. Evaluation is idempotent and
// side-effect-free apart from appending to the unlock log: running it twice
// with the same inputs changes nothing, and an unlock is never revoked by
// evaluation.
package achievement

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an achievement. At most one achievement per kind is ever
// earned.
type Kind string

const (
	KindStreak      Kind = "streak"
	KindQuizMastery Kind = "quiz-mastery"
	KindAccuracy    Kind = "accuracy"
)

// Unlock thresholds.
const (
	StreakThresholdDays = 7
	AccuracyThreshold   = 0.9
	MasterLevel         = 10
	DiamondXP           = 1000
)

// Badge catalog names. The catalog is fixed at six badges.
const (
	BadgeStreak   = "Streak"
	BadgeScholar  = "Scholar"
	BadgeMaster   = "Master"
	BadgeDiamond  = "Diamond"
	BadgeAccuracy = "Accuracy"
	BadgeSpeed    = "Speed"
)

// Achievement is immutable once created.
type Achievement struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Badge is a catalog entry whose earned flag transitions false → true only.
type Badge struct {
	Name                   string     `json:"name"`
	Icon                   string     `json:"icon"`
	Earned                 bool       `json:"earned"`
	EarnedAt               *time.Time `json:"earned_at,omitempty"`
	RequirementDescription string     `json:"requirement_description"`
}

// DefaultBadges returns the fixed catalog of six badges, none earned.
// "Speed" is reserved: it requires same-day multi-session tracking that the
// engine does not keep, so it has no unlock rule and is never earnable.
func DefaultBadges() []Badge {
	return []Badge{
		{Name: BadgeStreak, Icon: "🔥", RequirementDescription: "Keep a 7-day learning streak"},
		{Name: BadgeScholar, Icon: "🎓", RequirementDescription: "Complete a full daily quiz"},
		{Name: BadgeMaster, Icon: "⭐", RequirementDescription: "Reach level 10"},
		{Name: BadgeDiamond, Icon: "💎", RequirementDescription: "Accumulate 1000 XP"},
		{Name: BadgeAccuracy, Icon: "🎯", RequirementDescription: "Keep quiz accuracy at 90% or above"},
		{Name: BadgeSpeed, Icon: "⚡", RequirementDescription: "Complete 5 quiz sessions in one day"},
	}
}

// Inputs are the watched values an evaluation pass reads.
type Inputs struct {
	StreakDays      int
	SessionComplete bool
	AnsweredCount   int
	Accuracy        float64 // correct / (correct + wrong), 0 before any answer
	Level           int
	XP              int
}

// Changes lists what one evaluation pass newly unlocked.
type Changes struct {
	Unlocked []Achievement
	Badges   []string
}

// Any reports whether the pass unlocked anything.
func (c Changes) Any() bool {
	return len(c.Unlocked) > 0 || len(c.Badges) > 0
}

// State holds the append-only unlock log and the badge catalog.
type State struct {
	log    []Achievement
	badges []Badge
}

// NewState builds achievement state from persisted values. Either argument
// may be nil/empty for a fresh user; a short or corrupt badge list falls
// back to the default catalog.
func NewState(log []Achievement, badges []Badge) *State {
	if len(badges) != len(DefaultBadges()) {
		badges = DefaultBadges()
	}
	return &State{
		log:    append([]Achievement(nil), log...),
		badges: append([]Badge(nil), badges...),
	}
}

// Log returns a copy of the unlock log.
func (s *State) Log() []Achievement {
	return append([]Achievement(nil), s.log...)
}

// Badges returns a copy of the badge catalog with earned flags.
func (s *State) Badges() []Badge {
	return append([]Badge(nil), s.badges...)
}

// Evaluate runs one idempotent pass over the watched values and returns what
// it newly unlocked. Called whenever streak, quiz completion, accuracy,
// level, or xp change.
func (s *State) Evaluate(in Inputs, now time.Time) Changes {
	var changes Changes

	if in.StreakDays >= StreakThresholdDays && !s.hasKind(KindStreak) {
		changes.Unlocked = append(changes.Unlocked, s.unlock(Achievement{
			Kind:        KindStreak,
			Title:       "7-Day Streak",
			Description: "Studied seven days in a row",
			Icon:        "🔥",
			EarnedAt:    now,
		}))
	}

	if in.SessionComplete && !s.hasKind(KindQuizMastery) {
		changes.Unlocked = append(changes.Unlocked, s.unlock(Achievement{
			Kind:        KindQuizMastery,
			Title:       "Quiz Master",
			Description: "Completed a full daily quiz session",
			Icon:        "🎓",
			EarnedAt:    now,
		}))
	}

	highAccuracy := in.AnsweredCount > 0 && in.Accuracy >= AccuracyThreshold
	if highAccuracy && !s.hasKind(KindAccuracy) {
		changes.Unlocked = append(changes.Unlocked, s.unlock(Achievement{
			Kind:        KindAccuracy,
			Title:       "Perfect Score",
			Description: "Kept quiz accuracy at 90% or above",
			Icon:        "🎯",
			EarnedAt:    now,
		}))
	}

	// Badge rules. "Speed" deliberately has none.
	changes.Badges = s.earnBadges(now, map[string]bool{
		BadgeStreak:   in.StreakDays >= StreakThresholdDays,
		BadgeScholar:  in.SessionComplete,
		BadgeMaster:   in.Level >= MasterLevel,
		BadgeDiamond:  in.XP >= DiamondXP,
		BadgeAccuracy: highAccuracy,
	})

	return changes
}

// ResetAll clears the unlock log and all badge earned flags. Used only by
// the manual, user-initiated quiz reset; daily resets never call this.
func (s *State) ResetAll() {
	s.log = nil
	s.badges = DefaultBadges()
}

func (s *State) hasKind(kind Kind) bool {
	for _, a := range s.log {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

func (s *State) unlock(a Achievement) Achievement {
	a.ID = uuid.NewString()
	s.log = append(s.log, a)
	return a
}

func (s *State) earnBadges(now time.Time, met map[string]bool) []string {
	var earned []string
	for i := range s.badges {
		b := &s.badges[i]
		if b.Earned || !met[b.Name] {
			continue
		}
		b.Earned = true
		t := now
		b.EarnedAt = &t
		earned = append(earned, b.Name)
	}
	return earned
}
