// Package eventhandler contains handlers for domain events published by the
// progress engine. Handlers run synchronously on the bus, so anything slow
// (network sync) is pushed onto a goroutine with its own timeout.
package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
)

// SyncTrigger is the slice of the synchronizer the handlers need to kick an
// opportunistic reconciliation.
type SyncTrigger interface {
	Sync(ctx context.Context) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler reacts to level-up crossings: logs the milestone for the
// UI notification layer and triggers an opportunistic sync so the remote
// record catches up without waiting for the next scheduled pass.
type OnLevelUpHandler struct {
	syncTrigger SyncTrigger
	logger      *slog.Logger
	syncTimeout time.Duration
}

// NewOnLevelUpHandler creates the level-up handler. syncTrigger may be nil
// when no Progress Service is configured.
func NewOnLevelUpHandler(syncTrigger SyncTrigger, logger *slog.Logger) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLevelUpHandler{
		syncTrigger: syncTrigger,
		logger:      logger.With("handler", "on_level_up"),
		syncTimeout: 30 * time.Second,
	}
}

// Name implements shared.EventHandler.
func (h *OnLevelUpHandler) Name() string { return "on_level_up" }

// Handle implements shared.EventHandler.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	levelUp, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.logger.Warn("received non-LevelUpEvent", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("level up",
		"user_id", levelUp.AggregateID(),
		"old_level", levelUp.OldLevel,
		"new_level", levelUp.NewLevel,
		"xp", levelUp.XP,
	)

	h.triggerSync()
	return nil
}

// triggerSync runs the opportunistic sync off the bus goroutine so gameplay
// never waits on the network.
func (h *OnLevelUpHandler) triggerSync() {
	if h.syncTrigger == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.syncTimeout)
		defer cancel()
		if err := h.syncTrigger.Sync(ctx); err != nil {
			h.logger.Warn("opportunistic sync failed", "error", err)
		}
	}()
}
