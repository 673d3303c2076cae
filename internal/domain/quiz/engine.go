// Package quiz implements the ten-item daily quiz state machine:
// presentation, answer evaluation, scoring, the performance series, and the
// day-boundary reset. The engine is pure domain state - persistence and XP
// crediting belong to the owning progress engine.
package quiz

import (
	"fmt"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
)

// SessionSize is the fixed number of items in one daily set.
const SessionSize = 10

const (
	// SeedScore is the performance series starting point.
	SeedScore = 50.0
	// CorrectBump is added to the score on a correct answer.
	CorrectBump = 10.0
	// PenaltyStep scales the cumulative penalty: 5 × wrong answers so far.
	PenaltyStep = 5.0
	// MaxScore / MinScore clamp the performance series.
	MaxScore = 100.0
	MinScore = 0.0
)

// Outcome of a single answered item.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
)

// State of the quiz state machine. Evaluating is transient inside
// SubmitAnswer, so only the two observable states are modeled.
type State string

const (
	StatePresenting      State = "presenting"
	StateSessionComplete State = "session_complete"
)

// Item is one quiz question in the daily set.
type Item struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"` // ordered, exactly 4
	CorrectOption string   `json:"correct_option"`
	Completed     bool     `json:"completed"`
	XPReward      int      `json:"xp_reward"`
}

// PerformancePoint is one entry in the running performance series.
type PerformancePoint struct {
	Outcome Outcome `json:"outcome"`
	Score   float64 `json:"score"`   // clamped to [0,100]
	Penalty float64 `json:"penalty"` // 0 for correct answers
}

// Session is the mutable state of today's quiz run.
type Session struct {
	CurrentIndex int                `json:"current_index"`
	Answers      map[int]string     `json:"answers"`
	Completed    bool               `json:"completed"`
	Performance  []PerformancePoint `json:"performance"`
}

// NewSession returns an empty session at Presenting(0).
func NewSession() Session {
	return Session{Answers: make(map[int]string)}
}

// Result describes the outcome of one answer submission.
type Result struct {
	Index           int
	Correct         bool
	XPAwarded       int
	Score           float64
	Penalty         float64
	SessionComplete bool
}

// Engine runs the daily quiz over a fixed ordered set of items.
type Engine struct {
	items   []Item
	session Session
}

// NewEngine builds an engine over the given daily set. If every item is
// already completed for the current date the session starts complete.
func NewEngine(items []Item, session Session) *Engine {
	if session.Answers == nil {
		session.Answers = make(map[int]string)
	}
	e := &Engine{items: items, session: session}
	if !e.session.Completed && e.allCompleted() && len(items) > 0 {
		e.session.Completed = true
		e.session.CurrentIndex = len(items)
	}
	return e
}

// State returns the current observable state.
func (e *Engine) State() State {
	if e.session.Completed {
		return StateSessionComplete
	}
	return StatePresenting
}

// Items returns the daily set.
func (e *Engine) Items() []Item {
	return e.items
}

// Session returns a copy of the session state for persistence and display.
func (e *Engine) Session() Session {
	out := e.session
	out.Answers = make(map[int]string, len(e.session.Answers))
	for k, v := range e.session.Answers {
		out.Answers[k] = v
	}
	out.Performance = append([]PerformancePoint(nil), e.session.Performance...)
	return out
}

// CurrentItem returns the item being presented, or nil when the session is
// complete.
func (e *Engine) CurrentItem() (*Item, int) {
	if e.session.Completed || e.session.CurrentIndex >= len(e.items) {
		return nil, -1
	}
	return &e.items[e.session.CurrentIndex], e.session.CurrentIndex
}

// SubmitAnswer evaluates the chosen option for the given index. The index
// guards against double submission: answers for an index the session has
// already advanced past are rejected without mutating anything.
func (e *Engine) SubmitAnswer(index int, selectedOption string) (Result, error) {
	if e.session.Completed {
		return Result{}, shared.NewDomainError("quiz", "SubmitAnswer",
			shared.ErrRejected, "daily session already complete")
	}
	if index != e.session.CurrentIndex {
		return Result{}, shared.WrapError("quiz", "SubmitAnswer",
			shared.ErrRejected, fmt.Sprintf("index %d already advanced past", index),
			shared.ErrAlreadyAnswered)
	}
	if e.session.CurrentIndex >= len(e.items) {
		return Result{}, shared.NewDomainError("quiz", "SubmitAnswer",
			shared.ErrInvalidState, "no item to answer")
	}

	item := &e.items[e.session.CurrentIndex]
	correct := selectedOption == item.CorrectOption

	res := Result{Index: e.session.CurrentIndex, Correct: correct}
	prev := SeedScore
	if n := len(e.session.Performance); n > 0 {
		prev = e.session.Performance[n-1].Score
	}

	if correct {
		item.Completed = true
		res.XPAwarded = item.XPReward
		res.Score = clampScore(prev + CorrectBump)
		e.session.Performance = append(e.session.Performance, PerformancePoint{
			Outcome: OutcomeCorrect,
			Score:   res.Score,
		})
	} else {
		res.Penalty = PenaltyStep * float64(e.wrongCount()+1)
		res.Score = clampScore(prev - res.Penalty)
		e.session.Performance = append(e.session.Performance, PerformancePoint{
			Outcome: OutcomeWrong,
			Score:   res.Score,
			Penalty: res.Penalty,
		})
	}

	e.session.Answers[e.session.CurrentIndex] = selectedOption
	e.session.CurrentIndex++
	if e.session.CurrentIndex >= len(e.items) {
		e.session.Completed = true
		res.SessionComplete = true
	}

	return res, nil
}

// ResetForNewDay clears completion on all items and starts a fresh session.
// In-progress answers for the old day are discarded; achievements already
// earned are untouched (they live outside this engine).
func (e *Engine) ResetForNewDay() {
	for i := range e.items {
		e.items[i].Completed = false
	}
	e.session = NewSession()
}

// TotalScore is the sum of credited XP for correct answers minus all
// recorded penalties. Deliberately not clamped - callers may want to show a
// negative trend.
func (e *Engine) TotalScore() float64 {
	total := 0.0
	for i, p := range e.session.Performance {
		if p.Outcome == OutcomeCorrect {
			if i < len(e.items) {
				total += float64(e.items[i].XPReward)
			}
		} else {
			total -= p.Penalty
		}
	}
	return total
}

// CorrectCount returns the number of correct answers so far today.
func (e *Engine) CorrectCount() int {
	n := 0
	for _, p := range e.session.Performance {
		if p.Outcome == OutcomeCorrect {
			n++
		}
	}
	return n
}

// WrongCount returns the number of wrong answers so far today.
func (e *Engine) WrongCount() int {
	return e.wrongCount()
}

// Accuracy is correct / (correct + wrong) over the current session.
// Returns 0 before any answer.
func (e *Engine) Accuracy() float64 {
	answered := len(e.session.Performance)
	if answered == 0 {
		return 0
	}
	return float64(e.CorrectCount()) / float64(answered)
}

func (e *Engine) wrongCount() int {
	n := 0
	for _, p := range e.session.Performance {
		if p.Outcome == OutcomeWrong {
			n++
		}
	}
	return n
}

func (e *Engine) allCompleted() bool {
	for _, it := range e.items {
		if !it.Completed {
			return false
		}
	}
	return true
}

func clampScore(s float64) float64 {
	if s > MaxScore {
		return MaxScore
	}
	if s < MinScore {
		return MinScore
	}
	return s
}
