// Package engine implements the progress engine: the single owned instance
// per authenticated session through which every progress mutation funnels.
// It composes the quiz state machine, the pet lifecycle, the achievement
// pass, and the persisted snapshot, and serializes all of it behind one
// mutex - the Go rendition of the original single-threaded event queue.
//
// Ordering contract: each operation runs to completion (mutate, evaluate
// achievements, persist) before its events are published, and events are
// published outside the lock so handlers may call back into the engine.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/achievement"
	"github.com/impranzal/brainBuddy-sub000/internal/domain/pet"
	"github.com/impranzal/brainBuddy-sub000/internal/domain/progress"
	"github.com/impranzal/brainBuddy-sub000/internal/domain/quiz"
	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/catalog"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/messaging"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/persistence/kvstore"
	"github.com/impranzal/brainBuddy-sub000/pkg/timeutil"
)

// Persisted record keys. Each logical field is an independent record so a
// corrupt field can never take its neighbors down with it.
const (
	keySnapshot     = "snapshot"
	keyQuizItems    = "quiz_items"
	keyQuizSession  = "quiz_session"
	keyQuizDate     = "quiz_date"
	keyPet          = "pet"
	keyAchievements = "achievement_log"
	keyBadges       = "badges"
)

// XP credit sources, recorded on XPGainedEvent.
const (
	SourceQuiz         = "quiz"
	SourcePetFeed      = "pet_feed"
	SourcePetPlay      = "pet_play"
	SourcePetEvolution = "pet_evolution"
	SourceTutoring     = "tutoring"
)

// Config wires an Engine.
type Config struct {
	// UserID namespaces every persisted record. Required.
	UserID string

	// Store is the durable per-user key/value store. Required.
	Store kvstore.Store

	// Bus receives domain events. Required.
	Bus messaging.EventBus

	// Bank supplies daily quiz sets. Required.
	Bank *catalog.QuizBank

	// Logger for structured logging.
	Logger *slog.Logger

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// RemoteStats is the display-only view of server-reported values, refreshed
// by the stats job. Never merged into the local snapshot - the monotonic
// merge path is the only way remote values reach local state.
type RemoteStats struct {
	XP         int       `json:"xp"`
	StreakDays int       `json:"streak_days"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// QuizView is the read model the UI gets for the current session.
type QuizView struct {
	State         quiz.State               `json:"state"`
	CurrentIndex  int                      `json:"current_index"`
	CurrentItem   *quiz.Item               `json:"current_item,omitempty"`
	AnsweredCount int                      `json:"answered_count"`
	CorrectCount  int                      `json:"correct_count"`
	WrongCount    int                      `json:"wrong_count"`
	Performance   []quiz.PerformancePoint  `json:"performance"`
	TotalScore    float64                  `json:"total_score"`
	Accuracy      float64                  `json:"accuracy"`
}

// PetView is the read model for the companion, including the derived stage
// display name from the species catalog.
type PetView struct {
	Selected         bool      `json:"selected"`
	State            pet.State `json:"state"`
	Stage            pet.Stage `json:"stage"`
	StageDisplayName string    `json:"stage_display_name"`
}

// Engine is the per-session progress engine.
type Engine struct {
	mu sync.Mutex

	userID string
	store  kvstore.Store
	bus    messaging.EventBus
	bank   *catalog.QuizBank
	logger *slog.Logger
	clock  func() time.Time

	snapshot     progress.Snapshot
	quiz         *quiz.Engine
	quizDate     string
	pet          pet.State
	achievements *achievement.State
	remoteStats  RemoteStats

	// loaded flips once Load has read every persisted field; remote merges
	// are suppressed until then so a fast sync response cannot overwrite
	// just-loaded local state with stale defaults.
	loaded bool
}

// New builds an Engine. Call Load before anything else.
func New(cfg Config) (*Engine, error) {
	if cfg.UserID == "" {
		return nil, shared.NewDomainError("engine", "New", shared.ErrEmptyValue, "user id is required")
	}
	if cfg.Store == nil || cfg.Bus == nil || cfg.Bank == nil {
		return nil, shared.NewDomainError("engine", "New", shared.ErrInvalidInput, "store, bus, and bank are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.Now
	}
	return &Engine{
		userID:       cfg.UserID,
		store:        cfg.Store,
		bus:          cfg.Bus,
		bank:         cfg.Bank,
		logger:       cfg.Logger.With("user_id", cfg.UserID),
		clock:        cfg.Clock,
		snapshot:     progress.NewSnapshot(),
		achievements: achievement.NewState(nil, nil),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOADING
// ══════════════════════════════════════════════════════════════════════════════

// Load reads every persisted field, falling back to per-field defaults on
// absence or corruption, and arms the day-boundary reset if the persisted
// quiz date is stale. Only after Load returns are remote merges accepted.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	events := e.load(ctx)
	e.mu.Unlock()
	e.publish(events)
	return nil
}

func (e *Engine) load(ctx context.Context) []shared.Event {
	var events []shared.Event

	snapshot := progress.NewSnapshot()
	if e.store.Read(ctx, e.userID, keySnapshot, &snapshot) {
		snapshot.Normalize()
	}
	e.snapshot = snapshot

	var petState pet.State
	e.store.Read(ctx, e.userID, keyPet, &petState)
	e.pet = petState

	var log []achievement.Achievement
	var badges []achievement.Badge
	e.store.Read(ctx, e.userID, keyAchievements, &log)
	e.store.Read(ctx, e.userID, keyBadges, &badges)
	e.achievements = achievement.NewState(log, badges)

	var quizDate string
	e.store.Read(ctx, e.userID, keyQuizDate, &quizDate)
	e.quizDate = quizDate

	now := e.clock()
	if e.quizDate == timeutil.FormatDate(now) {
		// Same day: restore items and session.
		items := e.bank.DailySet(e.dayNumber(now))
		e.store.Read(ctx, e.userID, keyQuizItems, &items)
		session := quiz.NewSession()
		e.store.Read(ctx, e.userID, keyQuizSession, &session)
		e.quiz = quiz.NewEngine(items, session)
	} else {
		// New calendar day (or fresh user): reset to today's set. Earned
		// achievements are untouched by the daily boundary.
		events = e.startNewDay(ctx, now, events)
	}

	e.loaded = true
	e.logger.Info("progress state loaded",
		"xp", int(e.snapshot.XP),
		"streak_days", int(e.snapshot.StreakDays),
		"level", int(e.snapshot.Level),
		"quiz_state", string(e.quiz.State()),
		"pet_selected", e.pet.IsSelected())
	return events
}

// startNewDay swaps in today's daily set and resets the session. The reset
// event fires only when an earlier day is actually being replaced, not for a
// fresh user. Caller holds the lock.
func (e *Engine) startNewDay(ctx context.Context, now time.Time, events []shared.Event) []shared.Event {
	hadPreviousDay := e.quizDate != ""

	e.quiz = quiz.NewEngine(e.bank.DailySet(e.dayNumber(now)), quiz.NewSession())
	e.quiz.ResetForNewDay()
	e.quizDate = timeutil.FormatDate(now)

	e.persist(ctx, keyQuizItems, e.quiz.Items())
	e.persist(ctx, keyQuizSession, e.quiz.Session())
	e.persist(ctx, keyQuizDate, e.quizDate)

	if hadPreviousDay {
		events = append(events, shared.QuizDayResetEvent(e.userID))
	}
	return events
}

// ensureCurrentDay lazily applies the day-boundary reset when a mutation or
// read crosses midnight inside a long-lived session. Caller holds the lock.
func (e *Engine) ensureCurrentDay(ctx context.Context, events []shared.Event) []shared.Event {
	now := e.clock()
	if e.quizDate != timeutil.FormatDate(now) {
		events = e.startNewDay(ctx, now, events)
	}
	return events
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswer evaluates the chosen option for the given item index,
// credits XP on a correct answer, applies the streak rule, runs the
// achievement pass, and persists everything that changed.
func (e *Engine) SubmitAnswer(ctx context.Context, index int, selectedOption string) (quiz.Result, error) {
	e.mu.Lock()
	var events []shared.Event
	events = e.ensureCurrentDay(ctx, events)

	res, err := e.quiz.SubmitAnswer(index, selectedOption)
	if err != nil {
		e.mu.Unlock()
		return quiz.Result{}, err
	}

	events = e.applyStreakRule(events)

	if res.Correct && res.XPAwarded > 0 {
		events = e.creditXP(res.XPAwarded, SourceQuiz, events)
	}

	events = append(events, shared.AnswerEvaluatedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventAnswerEvaluated, e.userID),
		Index:     res.Index,
		Correct:   res.Correct,
		Score:     res.Score,
	})
	if res.SessionComplete {
		events = append(events, shared.SessionCompletedEvent{
			BaseEvent:    shared.NewBaseEvent(shared.EventSessionCompleted, e.userID),
			CorrectCount: e.quiz.CorrectCount(),
			WrongCount:   e.quiz.WrongCount(),
		})
	}

	events = e.evaluateAchievements(ctx, events)

	e.persist(ctx, keyQuizItems, e.quiz.Items())
	e.persist(ctx, keyQuizSession, e.quiz.Session())
	e.persist(ctx, keySnapshot, e.snapshot)
	e.mu.Unlock()

	e.publish(events)
	return res, nil
}

// ResetQuizzes is the manual, user-initiated full reset: today's quiz state,
// the achievement log, and all badge earned flags are cleared. Pet progress,
// xp, and streak are deliberately untouched. Distinct from the automatic
// daily reset, which never touches achievements.
func (e *Engine) ResetQuizzes(ctx context.Context) {
	e.mu.Lock()
	var events []shared.Event

	e.quiz.ResetForNewDay()
	e.achievements.ResetAll()

	e.persist(ctx, keyQuizItems, e.quiz.Items())
	e.persist(ctx, keyQuizSession, e.quiz.Session())
	e.persist(ctx, keyAchievements, e.achievements.Log())
	e.persist(ctx, keyBadges, e.achievements.Badges())

	events = append(events, shared.QuizManualResetEvent(e.userID))
	e.mu.Unlock()

	e.publish(events)
}

// ══════════════════════════════════════════════════════════════════════════════
// PET OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SelectPet completes the one-time companion selection against the species
// catalog.
func (e *Engine) SelectPet(ctx context.Context, speciesID, name string) error {
	if _, ok := catalog.SpeciesByID(speciesID); !ok {
		return shared.NewDomainError("pet", "Select", shared.ErrNotFound, "unknown species")
	}

	e.mu.Lock()
	if err := e.pet.Select(speciesID, name); err != nil {
		e.mu.Unlock()
		return err
	}
	e.persist(ctx, keyPet, e.pet)
	events := []shared.Event{shared.PetSelectedEvent(e.userID, speciesID, name)}
	e.mu.Unlock()

	e.publish(events)
	return nil
}

// ResetPet zeroes the companion so the selection flow can run again.
func (e *Engine) ResetPet(ctx context.Context) {
	e.mu.Lock()
	e.pet.Reset()
	e.persist(ctx, keyPet, e.pet)
	e.mu.Unlock()
}

// FeedPet applies the feeding interaction and credits its XP bonus.
func (e *Engine) FeedPet(ctx context.Context) (pet.InteractionResult, error) {
	return e.petInteraction(ctx, shared.EventPetFed, SourcePetFeed,
		func(now time.Time) (pet.InteractionResult, error) { return e.pet.Feed(now) })
}

// PlayPet applies the play interaction, credits its XP bonus, and handles
// any evolution the added experience triggered.
func (e *Engine) PlayPet(ctx context.Context) (pet.InteractionResult, error) {
	return e.petInteraction(ctx, shared.EventPetPlayed, SourcePetPlay,
		func(now time.Time) (pet.InteractionResult, error) { return e.pet.Play(now) })
}

func (e *Engine) petInteraction(ctx context.Context, eventType shared.EventType, source string,
	interact func(now time.Time) (pet.InteractionResult, error)) (pet.InteractionResult, error) {

	e.mu.Lock()
	res, err := interact(e.clock())
	if err != nil {
		e.mu.Unlock()
		return pet.InteractionResult{}, err
	}

	var events []shared.Event
	events = append(events, shared.PetInteractionEvent(eventType, e.userID))

	if res.Evolved {
		events = append(events, shared.PetEvolvedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventPetEvolved, e.userID),
			Species:   e.pet.Species,
			NewLevel:  res.NewLevel,
			Stage:     string(e.pet.Stage()),
		})
		// Evolution bonus rides inside res.XPBonus already; attribute the
		// whole credit to the evolution when one happened.
		source = SourcePetEvolution
	}
	if res.XPBonus > 0 {
		events = e.creditXP(res.XPBonus, source, events)
	}

	events = e.evaluateAchievements(ctx, events)

	e.persist(ctx, keyPet, e.pet)
	e.persist(ctx, keySnapshot, e.snapshot)
	e.mu.Unlock()

	e.publish(events)
	return res, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EXTERNAL XP CREDITS
// ══════════════════════════════════════════════════════════════════════════════

// CreditXP records an externally originated XP credit, such as a completed
// tutoring session. Non-positive amounts are rejected.
func (e *Engine) CreditXP(ctx context.Context, amount int, source string) error {
	if amount <= 0 {
		return shared.NewDomainError("engine", "CreditXP", shared.ErrValueOutOfRange, "amount must be positive")
	}
	if source == "" {
		source = SourceTutoring
	}

	e.mu.Lock()
	var events []shared.Event
	events = e.creditXP(amount, source, events)
	events = e.evaluateAchievements(ctx, events)
	e.persist(ctx, keySnapshot, e.snapshot)
	e.mu.Unlock()

	e.publish(events)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SYNC ENTRY POINTS
// ══════════════════════════════════════════════════════════════════════════════

// LocalProgress returns what the synchronizer pushes: xp, streak, derived
// level, and whether the initial load has completed.
func (e *Engine) LocalProgress() (xp, streakDays, level int, loaded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.snapshot.XP), int(e.snapshot.StreakDays), int(e.snapshot.Level), e.loaded
}

// ApplyRemote merges remote authoritative values under the monotonic rule.
// Suppressed before Load completes so a fast remote response cannot clobber
// local state with stale defaults; a late response after load is harmless by
// the same rule. Returns whether anything changed.
func (e *Engine) ApplyRemote(ctx context.Context, remoteXP, remoteStreak int) bool {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		e.logger.Debug("remote merge suppressed during initial load")
		return false
	}

	var events []shared.Event
	changed, leveledUp := e.snapshot.MergeRemote(progress.XP(remoteXP), progress.StreakDays(remoteStreak))
	if leveledUp {
		events = append(events, shared.LevelUpEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, e.userID),
			NewLevel:  int(e.snapshot.Level),
			XP:        int(e.snapshot.XP),
		})
	}
	if changed {
		events = e.evaluateAchievements(ctx, events)
		e.persist(ctx, keySnapshot, e.snapshot)
	}
	e.mu.Unlock()

	e.publish(events)
	return changed
}

// SetRemoteStats stores the display-only server-reported values.
func (e *Engine) SetRemoteStats(remoteXP, remoteStreak int) {
	e.mu.Lock()
	e.remoteStats = RemoteStats{XP: remoteXP, StreakDays: remoteStreak, FetchedAt: e.clock()}
	e.mu.Unlock()
}

// ══════════════════════════════════════════════════════════════════════════════
// READ ACCESSORS
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot returns a copy of the progress snapshot.
func (e *Engine) Snapshot() progress.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// RemoteStats returns the last display-only server values.
func (e *Engine) RemoteStats() RemoteStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remoteStats
}

// Quiz returns the current quiz read model, applying the day boundary first
// so a session left open overnight presents a fresh set.
func (e *Engine) Quiz(ctx context.Context) QuizView {
	e.mu.Lock()
	events := e.ensureCurrentDay(ctx, nil)
	item, idx := e.quiz.CurrentItem()
	var itemCopy *quiz.Item
	if item != nil {
		c := *item
		c.Options = append([]string(nil), c.Options...)
		itemCopy = &c
	}
	view := QuizView{
		State:         e.quiz.State(),
		CurrentIndex:  idx,
		CurrentItem:   itemCopy,
		AnsweredCount: e.quiz.CorrectCount() + e.quiz.WrongCount(),
		CorrectCount:  e.quiz.CorrectCount(),
		WrongCount:    e.quiz.WrongCount(),
		Performance:   e.quiz.Session().Performance,
		TotalScore:    e.quiz.TotalScore(),
		Accuracy:      e.quiz.Accuracy(),
	}
	e.mu.Unlock()

	e.publish(events)
	return view
}

// Pet returns the companion read model with its catalog stage name.
func (e *Engine) Pet() PetView {
	e.mu.Lock()
	defer e.mu.Unlock()
	stage := e.pet.Stage()
	return PetView{
		Selected:         e.pet.IsSelected(),
		State:            e.pet,
		Stage:            stage,
		StageDisplayName: catalog.StageDisplayName(e.pet.Species, stage),
	}
}

// Achievements returns a copy of the unlock log.
func (e *Engine) Achievements() []achievement.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.achievements.Log()
}

// Badges returns the badge catalog with earned flags.
func (e *Engine) Badges() []achievement.Badge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.achievements.Badges()
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERNALS
// ══════════════════════════════════════════════════════════════════════════════

// creditXP mutates the snapshot and queues the XP/level-up events. Caller
// holds the lock.
func (e *Engine) creditXP(amount int, source string, events []shared.Event) []shared.Event {
	leveledUp, oldLevel := e.snapshot.CreditXP(amount)
	events = append(events, shared.XPGainedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventXPGained, e.userID),
		Amount:    amount,
		NewXP:     int(e.snapshot.XP),
		Source:    source,
	})
	if leveledUp {
		events = append(events, shared.LevelUpEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventLevelUp, e.userID),
			OldLevel:  int(oldLevel),
			NewLevel:  int(e.snapshot.Level),
			XP:        int(e.snapshot.XP),
		})
	}
	return events
}

// applyStreakRule advances streakDays on the first quiz activity of a new
// calendar day: consecutive days extend the streak, a gap restarts it at 1.
// Caller holds the lock.
func (e *Engine) applyStreakRule(events []shared.Event) []shared.Event {
	now := e.clock()
	last := e.snapshot.LastActivityAt
	if !last.IsZero() && timeutil.SameDay(last, now) {
		e.snapshot.LastActivityAt = now
		return events
	}

	if !last.IsZero() && timeutil.DaysBetween(last, now) == 1 {
		e.snapshot.StreakDays++
	} else {
		e.snapshot.StreakDays = 1
	}
	e.snapshot.LastActivityAt = now

	return append(events, shared.StreakUpdatedEvent{
		BaseEvent:  shared.NewBaseEvent(shared.EventStreakUpdated, e.userID),
		StreakDays: int(e.snapshot.StreakDays),
	})
}

// evaluateAchievements runs the idempotent achievement pass over the
// current watched values and queues unlock events. Caller holds the lock.
func (e *Engine) evaluateAchievements(ctx context.Context, events []shared.Event) []shared.Event {
	changes := e.achievements.Evaluate(achievement.Inputs{
		StreakDays:      int(e.snapshot.StreakDays),
		SessionComplete: e.quiz != nil && e.quiz.State() == quiz.StateSessionComplete,
		AnsweredCount:   e.answeredCount(),
		Accuracy:        e.accuracy(),
		Level:           int(e.snapshot.Level),
		XP:              int(e.snapshot.XP),
	}, e.clock())

	if !changes.Any() {
		return events
	}

	for _, a := range changes.Unlocked {
		events = append(events, shared.AchievementUnlockedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventAchievementUnlocked, e.userID),
			Kind:      string(a.Kind),
			Title:     a.Title,
		})
	}
	for _, name := range changes.Badges {
		events = append(events, shared.BadgeEarnedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventBadgeEarned, e.userID),
			Badge:     name,
		})
	}

	e.persist(ctx, keyAchievements, e.achievements.Log())
	e.persist(ctx, keyBadges, e.achievements.Badges())
	return events
}

func (e *Engine) answeredCount() int {
	if e.quiz == nil {
		return 0
	}
	return e.quiz.CorrectCount() + e.quiz.WrongCount()
}

func (e *Engine) accuracy() float64 {
	if e.quiz == nil {
		return 0
	}
	return e.quiz.Accuracy()
}

// persist writes one record, logging and swallowing failures: the in-memory
// state stays authoritative for the rest of the session.
func (e *Engine) persist(ctx context.Context, key string, value interface{}) {
	if err := e.store.Write(ctx, e.userID, key, value); err != nil {
		e.logger.Warn("persist failed, continuing on in-memory state",
			"key", key, "error", err)
	}
}

// publish delivers queued events after the lock is released.
func (e *Engine) publish(events []shared.Event) {
	for _, event := range events {
		if err := e.bus.Publish(event); err != nil {
			e.logger.Error("publish failed", "event_type", event.EventType(), "error", err)
		}
	}
}

func (e *Engine) dayNumber(now time.Time) int {
	return timeutil.DaysBetween(time.Unix(0, 0), now)
}
