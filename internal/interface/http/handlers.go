package http

import (
	"net/http"
	"time"

	"github.com/impranzal/brainBuddy-sub000/config"
	"github.com/impranzal/brainBuddy-sub000/internal/engine"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	startedAt := s.startedAt
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(startedAt).String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress handles GET /api/v1/progress.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"xp":               int(snap.XP),
		"streak_days":      int(snap.StreakDays),
		"level":            int(snap.Level),
		"last_activity_at": snap.LastActivityAt,
	})
}

// handleGetRemoteStats handles GET /api/v1/progress/remote. Display-only
// server-reported values; may lag behind local state.
func (s *Server) handleGetRemoteStats(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeatureSyncRemoteStats) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Engine.RemoteStats())
}

// handleCreditXP handles POST /api/v1/progress/xp, the entry point for
// externally originated XP credits such as tutoring sessions.
func (s *Server) handleCreditXP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int    `json:"amount"`
		Source string `json:"source"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.deps.Engine.CreditXP(r.Context(), req.Amount, req.Source); err != nil {
		writeDomainError(w, err)
		return
	}
	s.handleGetProgress(w, r)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

// quizResponse strips the correct option from the presented item so the UI
// cannot leak the answer before evaluation.
func quizResponse(view engine.QuizView) engine.QuizView {
	if view.CurrentItem != nil {
		item := *view.CurrentItem
		item.CorrectOption = ""
		view.CurrentItem = &item
	}
	return view
}

// handleGetQuiz handles GET /api/v1/quiz.
func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeatureQuizDaily) {
		return
	}
	writeJSON(w, http.StatusOK, quizResponse(s.deps.Engine.Quiz(r.Context())))
}

// handleSubmitAnswer handles POST /api/v1/quiz/answer.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeatureQuizDaily) {
		return
	}

	var req struct {
		Index          int    `json:"index"`
		SelectedOption string `json:"selected_option"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.Engine.SubmitAnswer(r.Context(), req.Index, req.SelectedOption)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"index":            res.Index,
		"correct":          res.Correct,
		"xp_awarded":       res.XPAwarded,
		"score":            res.Score,
		"penalty":          res.Penalty,
		"session_complete": res.SessionComplete,
	})
}

// handleResetQuizzes handles POST /api/v1/quiz/reset, the manual full reset.
func (s *Server) handleResetQuizzes(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeatureQuizManualReset) {
		return
	}
	s.deps.Engine.ResetQuizzes(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PET
// ══════════════════════════════════════════════════════════════════════════════

// handleGetPet handles GET /api/v1/pet.
func (s *Server) handleGetPet(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeaturePetCompanion) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Engine.Pet())
}

// handleSelectPet handles POST /api/v1/pet/select.
func (s *Server) handleSelectPet(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeaturePetCompanion) {
		return
	}

	var req struct {
		Species string `json:"species"`
		Name    string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.deps.Engine.SelectPet(r.Context(), req.Species, req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.deps.Engine.Pet())
}

// handleFeedPet handles POST /api/v1/pet/feed.
func (s *Server) handleFeedPet(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeaturePetCompanion) {
		return
	}
	res, err := s.deps.Engine.FeedPet(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"xp_bonus":  res.XPBonus,
		"evolved":   res.Evolved,
		"new_level": res.NewLevel,
		"pet":       s.deps.Engine.Pet(),
	})
}

// handlePlayPet handles POST /api/v1/pet/play.
func (s *Server) handlePlayPet(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeaturePetCompanion) {
		return
	}
	res, err := s.deps.Engine.PlayPet(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"xp_bonus":  res.XPBonus,
		"evolved":   res.Evolved,
		"new_level": res.NewLevel,
		"pet":       s.deps.Engine.Pet(),
	})
}

// handleResetPet handles POST /api/v1/pet/reset, allowing the selection flow
// to run again.
func (s *Server) handleResetPet(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeaturePetCompanion) {
		return
	}
	s.deps.Engine.ResetPet(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetAchievements handles GET /api/v1/achievements.
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeatureAchievements) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Engine.Achievements())
}

// handleGetBadges handles GET /api/v1/badges.
func (s *Server) handleGetBadges(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(w, config.FeatureAchievements) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Engine.Badges())
}
