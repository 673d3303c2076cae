// Package pet implements the virtual-companion lifecycle: one-time
// selection, feed/play interactions with cooldowns, experience accrual, and
// threshold-based evolution. XP bonuses for the owning progress snapshot are
// returned to the caller, never credited here.
package pet

import (
	"strings"
	"time"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
)

const (
	// FeedCooldown is the minimum gap between feedings.
	FeedCooldown = 5 * time.Minute
	// PlayCooldown is the minimum gap between play interactions.
	PlayCooldown = 10 * time.Minute

	// Feed effects.
	FeedHappinessGain = 10
	FeedEnergyGain    = 15
	FeedXPBonus       = 5

	// Play effects.
	PlayHappinessGain = 20
	PlayEnergyCost    = 10
	PlayExperience    = 8
	PlayXPBonus       = 8

	// EvolutionThreshold is the pet experience at which the pet levels up.
	// Experience past the threshold carries over into the new level.
	EvolutionThreshold = 100
	// EvolutionXPBonus is credited to the progress snapshot per evolution.
	EvolutionXPBonus = 20

	// Defaults applied on selection and on explicit reset.
	DefaultHappiness = 50
	DefaultEnergy    = 50

	statMax = 100
)

// Stage is the display stage derived from pet level. Stage display names are
// catalog data keyed by species; these keys are the lookup.
type Stage string

const (
	StageEgg       Stage = "egg"
	StageHatchling Stage = "hatchling"
	StageJuvenile  Stage = "juvenile"
	StageAdult     Stage = "adult"
	StageElder     Stage = "elder"
)

// StageForLevel maps a pet level to its display stage.
func StageForLevel(level int) Stage {
	switch {
	case level <= 0:
		return StageEgg
	case level <= 3:
		return StageHatchling
	case level <= 6:
		return StageJuvenile
	case level <= 9:
		return StageAdult
	default:
		return StageElder
	}
}

// State is the persisted companion state. A zero Species means the user has
// not completed the one-time selection flow yet.
type State struct {
	Species      string    `json:"species"`
	Name         string    `json:"name"`
	Level        int       `json:"level"`
	Experience   int       `json:"experience"` // [0,100)
	Happiness    int       `json:"happiness"`  // [0,100]
	Energy       int       `json:"energy"`     // [0,100]
	LastFedAt    time.Time `json:"last_fed_at"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// IsSelected reports whether the selection flow has completed.
func (s *State) IsSelected() bool {
	return s.Species != ""
}

// Stage returns the current display stage key.
func (s *State) Stage() Stage {
	return StageForLevel(s.Level)
}

// InteractionResult reports the side effects of an interaction that the
// owning engine must apply: the XP bonus for the progress snapshot and any
// evolution that occurred.
type InteractionResult struct {
	XPBonus  int
	Evolved  bool
	NewLevel int
}

// Select completes the one-time species/name choice. Species and name are
// immutable for the account afterwards; re-selection requires Reset.
func (s *State) Select(species, name string) error {
	if s.IsSelected() {
		return shared.NewDomainError("pet", "Select",
			shared.ErrAlreadyExists, "companion already selected")
	}
	species = strings.TrimSpace(species)
	name = strings.TrimSpace(name)
	if species == "" {
		return shared.NewDomainError("pet", "Select",
			shared.ErrEmptyValue, "species is required")
	}
	if name == "" {
		return shared.NewDomainError("pet", "Select",
			shared.ErrEmptyValue, "name is required")
	}

	s.Species = species
	s.Name = name
	s.Level = 0
	s.Experience = 0
	s.Happiness = DefaultHappiness
	s.Energy = DefaultEnergy
	s.LastFedAt = time.Time{}
	s.LastPlayedAt = time.Time{}
	return nil
}

// Reset zeroes the companion back to the unselected default so the selection
// flow can run again.
func (s *State) Reset() {
	*s = State{}
}

// Feed applies the feeding interaction. Rejected inside the 5-minute
// cooldown window with no state change.
func (s *State) Feed(now time.Time) (InteractionResult, error) {
	if !s.IsSelected() {
		return InteractionResult{}, shared.NewDomainError("pet", "Feed",
			shared.ErrInvalidState, "no companion selected")
	}
	if remaining := cooldownRemaining(s.LastFedAt, FeedCooldown, now); remaining > 0 {
		return InteractionResult{}, shared.WrapError("pet", "Feed",
			shared.ErrRejected, "fed too recently, wait "+remaining.Round(time.Second).String(),
			shared.ErrCooldownActive)
	}

	s.Happiness = clampStat(s.Happiness + FeedHappinessGain)
	s.Energy = clampStat(s.Energy + FeedEnergyGain)
	s.LastFedAt = now
	return InteractionResult{XPBonus: FeedXPBonus}, nil
}

// Play applies the play interaction. Rejected inside the 10-minute cooldown
// window with no state change. Play accrues pet experience and may trigger
// an evolution.
func (s *State) Play(now time.Time) (InteractionResult, error) {
	if !s.IsSelected() {
		return InteractionResult{}, shared.NewDomainError("pet", "Play",
			shared.ErrInvalidState, "no companion selected")
	}
	if remaining := cooldownRemaining(s.LastPlayedAt, PlayCooldown, now); remaining > 0 {
		return InteractionResult{}, shared.WrapError("pet", "Play",
			shared.ErrRejected, "played too recently, wait "+remaining.Round(time.Second).String(),
			shared.ErrCooldownActive)
	}

	s.Happiness = clampStat(s.Happiness + PlayHappinessGain)
	s.Energy = clampStat(s.Energy - PlayEnergyCost)
	s.Experience += PlayExperience
	s.LastPlayedAt = now

	res := InteractionResult{XPBonus: PlayXPBonus}
	s.checkEvolution(&res)
	return res, nil
}

// checkEvolution runs after every experience-increasing operation. Experience
// past the threshold carries into the new level; each evolution adds the
// snapshot bonus once.
func (s *State) checkEvolution(res *InteractionResult) {
	for s.Experience >= EvolutionThreshold {
		s.Experience -= EvolutionThreshold
		s.Level++
		res.Evolved = true
		res.XPBonus += EvolutionXPBonus
	}
	res.NewLevel = s.Level
}

func cooldownRemaining(last time.Time, cooldown time.Duration, now time.Time) time.Duration {
	if last.IsZero() {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}

func clampStat(v int) int {
	if v < 0 {
		return 0
	}
	if v > statMax {
		return statMax
	}
	return v
}
