package engine

import (
	"context"
	"log/slog"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/external/progressapi"
)

// ProgressClient is the slice of the Progress Service client the
// synchronizer needs.
type ProgressClient interface {
	GetProgress(ctx context.Context, token string) (progressapi.ProgressDTO, error)
	PutXP(ctx context.Context, token string, xp int) error
	PutStreak(ctx context.Context, token string, streakDays int) error
	PutLevel(ctx context.Context, token string, level int) error
}

// TokenProvider yields the current session credential. An empty string means
// no authenticated session; sync is skipped silently.
type TokenProvider func() string

// Synchronizer reconciles the local snapshot against the remote Progress
// Service. Every failure is logged and survived: the engine keeps operating
// on local state and the next tick tries again.
type Synchronizer struct {
	engine *Engine
	client ProgressClient
	token  TokenProvider
	logger *slog.Logger
}

// NewSynchronizer wires a synchronizer.
func NewSynchronizer(engine *Engine, client ProgressClient, token TokenProvider, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{engine: engine, client: client, token: token, logger: logger}
}

// Sync runs one reconciliation pass:
//
//  1. skip silently without a session credential or before the initial load,
//  2. push local xp, streak, and derived level when there is anything to
//     push,
//  3. read the remote record back and merge it monotonically.
//
// The push is best-effort per field: a failed xp push does not block the
// streak push or the read-back.
func (s *Synchronizer) Sync(ctx context.Context) error {
	token := s.token()
	if token == "" {
		s.logger.Debug("sync skipped, no session credential")
		return nil
	}

	xp, streakDays, level, loaded := s.engine.LocalProgress()
	if !loaded {
		s.logger.Debug("sync skipped, initial load not complete")
		return nil
	}

	var pushErr error
	if xp > 0 || streakDays > 0 {
		pushErr = s.push(ctx, token, xp, streakDays, level)
	}

	remote, err := s.client.GetProgress(ctx, token)
	if err != nil {
		s.logger.Warn("remote read-back failed, keeping local state", "error", err)
		return err
	}

	merged := s.engine.ApplyRemote(ctx, remote.XP, remote.StreakDays)
	if merged {
		s.logger.Info("remote progress merged",
			"remote_xp", remote.XP, "remote_streak", remote.StreakDays)
	}
	return pushErr
}

// RefreshRemoteStats fetches the server-reported values for display only.
// Nothing is merged.
func (s *Synchronizer) RefreshRemoteStats(ctx context.Context) error {
	token := s.token()
	if token == "" {
		return nil
	}

	remote, err := s.client.GetProgress(ctx, token)
	if err != nil {
		return err
	}
	s.engine.SetRemoteStats(remote.XP, remote.StreakDays)
	return nil
}

func (s *Synchronizer) push(ctx context.Context, token string, xp, streakDays, level int) error {
	var firstErr error
	record := func(op string, err error) {
		if err == nil {
			return
		}
		s.logger.Warn("push failed", "op", op, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if xp > 0 {
		record("put_xp", s.client.PutXP(ctx, token, xp))
	}
	if streakDays > 0 {
		record("put_streak", s.client.PutStreak(ctx, token, streakDays))
	}
	record("put_level", s.client.PutLevel(ctx, token, level))

	if firstErr != nil {
		return shared.WrapError("sync", "push", shared.ErrExternalService,
			"pushing local progress", firstErr)
	}
	return nil
}
