package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the progress engine; the achievement pass and the opportunistic
// sync both hang off these.
const (
	// Progress events
	EventXPGained      EventType = "progress.xp_gained"
	EventLevelUp       EventType = "progress.level_up"
	EventStreakUpdated EventType = "progress.streak_updated"

	// Quiz events
	EventAnswerEvaluated  EventType = "quiz.answer_evaluated"
	EventSessionCompleted EventType = "quiz.session_completed"
	EventQuizDayReset     EventType = "quiz.day_reset"
	EventQuizManualReset  EventType = "quiz.manual_reset"

	// Pet events
	EventPetSelected EventType = "pet.selected"
	EventPetFed      EventType = "pet.fed"
	EventPetPlayed   EventType = "pet.played"
	EventPetEvolved  EventType = "pet.evolved"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventBadgeEarned         EventType = "achievement.badge_earned"

	// System events
	EventSyncCompleted EventType = "system.sync_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	// For the progress engine this is the user ID owning the session.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, never fatal.
	Handle(event Event) error

	// Name identifies the handler in logs.
	Name() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// NewBaseEvent creates a new base event with a fresh correlation ID.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:          eventType,
		Timestamp:     time.Now(),
		AggregateId:   aggregateID,
		CorrelationID: uuid.NewString(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted whenever XP is credited to the snapshot.
type XPGainedEvent struct {
	BaseEvent
	Amount int    `json:"amount"`
	NewXP  int    `json:"new_xp"`
	Source string `json:"source"` // quiz, pet_feed, pet_play, pet_evolution, tutoring, merge
}

// Payload implements Event.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"amount": e.Amount, "new_xp": e.NewXP, "source": e.Source}
}

// LevelUpEvent is emitted when the recomputed level exceeds the cached level.
// Fires exactly once per crossing regardless of how the XP arrived.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
	XP       int `json:"xp"`
}

// Payload implements Event.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"old_level": e.OldLevel, "new_level": e.NewLevel, "xp": e.XP}
}

// StreakUpdatedEvent is emitted when the local streak rule changes streakDays.
type StreakUpdatedEvent struct {
	BaseEvent
	StreakDays int `json:"streak_days"`
}

// Payload implements Event.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"streak_days": e.StreakDays}
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// AnswerEvaluatedEvent is emitted after each answer submission.
type AnswerEvaluatedEvent struct {
	BaseEvent
	Index   int     `json:"index"`
	Correct bool    `json:"correct"`
	Score   float64 `json:"score"`
}

// Payload implements Event.
func (e AnswerEvaluatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"index": e.Index, "correct": e.Correct, "score": e.Score}
}

// SessionCompletedEvent is emitted when the tenth item has been answered.
type SessionCompletedEvent struct {
	BaseEvent
	CorrectCount int `json:"correct_count"`
	WrongCount   int `json:"wrong_count"`
}

// Payload implements Event.
func (e SessionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"correct_count": e.CorrectCount, "wrong_count": e.WrongCount}
}

// PlainEvent carries no payload beyond the base fields. Used for resets and
// other events whose type is the whole message.
type PlainEvent struct {
	BaseEvent
}

// Payload implements Event.
func (e PlainEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// QuizDayResetEvent marks an automatic day-boundary reset.
func QuizDayResetEvent(userID string) Event {
	return PlainEvent{BaseEvent: NewBaseEvent(EventQuizDayReset, userID)}
}

// QuizManualResetEvent marks a user-initiated full reset.
func QuizManualResetEvent(userID string) Event {
	return PlainEvent{BaseEvent: NewBaseEvent(EventQuizManualReset, userID)}
}

// ══════════════════════════════════════════════════════════════════════════════
// PET EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// PetSelectionEvent records the one-time companion choice.
type PetSelectionEvent struct {
	BaseEvent
	Species string `json:"species"`
	Name    string `json:"name"`
}

// Payload implements Event.
func (e PetSelectionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"species": e.Species, "name": e.Name}
}

// PetSelectedEvent builds the selection event.
func PetSelectedEvent(userID, species, name string) Event {
	return PetSelectionEvent{BaseEvent: NewBaseEvent(EventPetSelected, userID), Species: species, Name: name}
}

// PetInteractionEvent builds a fed or played event.
func PetInteractionEvent(eventType EventType, userID string) Event {
	return PlainEvent{BaseEvent: NewBaseEvent(eventType, userID)}
}

// PetEvolvedEvent is emitted when pet experience wraps past 100.
type PetEvolvedEvent struct {
	BaseEvent
	Species  string `json:"species"`
	NewLevel int    `json:"new_level"`
	Stage    string `json:"stage"`
}

// Payload implements Event.
func (e PetEvolvedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"species": e.Species, "new_level": e.NewLevel, "stage": e.Stage}
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted at most once per achievement kind.
type AchievementUnlockedEvent struct {
	BaseEvent
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

// Payload implements Event.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"kind": e.Kind, "title": e.Title}
}

// BadgeEarnedEvent is emitted when a badge's earned flag flips false → true.
type BadgeEarnedEvent struct {
	BaseEvent
	Badge string `json:"badge"`
}

// Payload implements Event.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"badge": e.Badge}
}

// ══════════════════════════════════════════════════════════════════════════════
// SYSTEM EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// SyncCompletedEvent is emitted after a successful reconciliation pass.
type SyncCompletedEvent struct {
	BaseEvent
	PushedXP     int  `json:"pushed_xp"`
	MergeApplied bool `json:"merge_applied"`
}

// Payload implements Event.
func (e SyncCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"pushed_xp": e.PushedXP, "merge_applied": e.MergeApplied}
}
