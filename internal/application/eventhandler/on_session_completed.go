package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON SESSION COMPLETED HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// OnSessionCompletedHandler reacts to a finished daily quiz: logs the
// session summary and triggers an opportunistic sync, since session
// completion is the largest single progress change of the day.
type OnSessionCompletedHandler struct {
	syncTrigger SyncTrigger
	logger      *slog.Logger
	syncTimeout time.Duration
}

// NewOnSessionCompletedHandler creates the session-completed handler.
func NewOnSessionCompletedHandler(syncTrigger SyncTrigger, logger *slog.Logger) *OnSessionCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnSessionCompletedHandler{
		syncTrigger: syncTrigger,
		logger:      logger.With("handler", "on_session_completed"),
		syncTimeout: 30 * time.Second,
	}
}

// Name implements shared.EventHandler.
func (h *OnSessionCompletedHandler) Name() string { return "on_session_completed" }

// Handle implements shared.EventHandler.
func (h *OnSessionCompletedHandler) Handle(event shared.Event) error {
	completed, ok := event.(shared.SessionCompletedEvent)
	if !ok {
		h.logger.Warn("received non-SessionCompletedEvent", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("daily quiz completed",
		"user_id", completed.AggregateID(),
		"correct", completed.CorrectCount,
		"wrong", completed.WrongCount,
	)

	if h.syncTrigger != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.syncTimeout)
			defer cancel()
			if err := h.syncTrigger.Sync(ctx); err != nil {
				h.logger.Warn("opportunistic sync failed", "error", err)
			}
		}()
	}
	return nil
}
