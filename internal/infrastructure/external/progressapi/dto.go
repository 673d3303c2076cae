package progressapi

// APIResponse is the standard envelope the Progress Service wraps payloads in.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// ProgressDTO is the remote authoritative progress record. The level field
// is advisory only: the engine always recomputes level from merged XP and
// never trusts the remote value.
type ProgressDTO struct {
	XP         int `json:"xp"`
	StreakDays int `json:"streak_days"`
	Level      int `json:"level"`
}

// xpUpdateDTO is the body for the xp update endpoint.
type xpUpdateDTO struct {
	XP int `json:"xp"`
}

// streakUpdateDTO is the body for the streak update endpoint.
type streakUpdateDTO struct {
	StreakDays int `json:"streak_days"`
}

// levelUpdateDTO is the body for the advisory level update endpoint.
type levelUpdateDTO struct {
	Level int `json:"level"`
}
