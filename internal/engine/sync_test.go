package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/external/progressapi"
)

// fakeClient scripts the Progress Service for synchronizer tests.
type fakeClient struct {
	remote    progressapi.ProgressDTO
	getErr    error
	putXPErr  error
	getCalls  int
	pushedXP  []int
	pushedStr []int
	pushedLvl []int
}

func (f *fakeClient) GetProgress(_ context.Context, token string) (progressapi.ProgressDTO, error) {
	f.getCalls++
	if f.getErr != nil {
		return progressapi.ProgressDTO{}, f.getErr
	}
	return f.remote, nil
}

func (f *fakeClient) PutXP(_ context.Context, _ string, xp int) error {
	f.pushedXP = append(f.pushedXP, xp)
	return f.putXPErr
}

func (f *fakeClient) PutStreak(_ context.Context, _ string, streakDays int) error {
	f.pushedStr = append(f.pushedStr, streakDays)
	return nil
}

func (f *fakeClient) PutLevel(_ context.Context, _ string, level int) error {
	f.pushedLvl = append(f.pushedLvl, level)
	return nil
}

func staticToken(token string) TokenProvider {
	return func() string { return token }
}

func TestSyncSkipsSilentlyWithoutCredential(t *testing.T) {
	rig := newTestRig(t)
	client := &fakeClient{}
	sync := NewSynchronizer(rig.engine, client, staticToken(""), nil)

	require.NoError(t, sync.Sync(context.Background()))
	assert.Zero(t, client.getCalls)
	assert.Empty(t, client.pushedXP)
}

func TestSyncPushesLocalAndMergesRemote(t *testing.T) {
	rig := newTestRig(t)
	require.NoError(t, rig.engine.CreditXP(context.Background(), 80, SourceTutoring))

	client := &fakeClient{remote: progressapi.ProgressDTO{XP: 150, StreakDays: 4, Level: 9}}
	sync := NewSynchronizer(rig.engine, client, staticToken("token"), nil)

	require.NoError(t, sync.Sync(context.Background()))

	assert.Equal(t, []int{80}, client.pushedXP)
	assert.Equal(t, []int{1}, client.pushedLvl, "derived level is pushed")

	snap := rig.engine.Snapshot()
	assert.Equal(t, 150, int(snap.XP), "remote ahead wins")
	assert.Equal(t, 4, int(snap.StreakDays))
	assert.Equal(t, 2, int(snap.Level), "remote level field is never trusted")
}

func TestSyncDoesNotPushZeroProgress(t *testing.T) {
	rig := newTestRig(t)
	client := &fakeClient{remote: progressapi.ProgressDTO{XP: 40, StreakDays: 2}}
	sync := NewSynchronizer(rig.engine, client, staticToken("token"), nil)

	require.NoError(t, sync.Sync(context.Background()))

	assert.Empty(t, client.pushedXP, "nothing to push for a fresh user")
	assert.Equal(t, 1, client.getCalls, "read-back still happens")
	assert.Equal(t, 40, int(rig.engine.Snapshot().XP))
}

func TestSyncSurvivesPushFailure(t *testing.T) {
	rig := newTestRig(t)
	require.NoError(t, rig.engine.CreditXP(context.Background(), 30, SourceTutoring))

	client := &fakeClient{
		remote:   progressapi.ProgressDTO{XP: 60, StreakDays: 1},
		putXPErr: errors.New("boom"),
	}
	sync := NewSynchronizer(rig.engine, client, staticToken("token"), nil)

	err := sync.Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Equal(t, 1, client.getCalls, "read-back happens despite the failed push")
	assert.Equal(t, 60, int(rig.engine.Snapshot().XP), "merge still applied")
}

func TestSyncKeepsLocalOnReadBackFailure(t *testing.T) {
	rig := newTestRig(t)
	require.NoError(t, rig.engine.CreditXP(context.Background(), 30, SourceTutoring))

	client := &fakeClient{getErr: errors.New("connection refused")}
	sync := NewSynchronizer(rig.engine, client, staticToken("token"), nil)

	require.Error(t, sync.Sync(context.Background()))
	assert.Equal(t, 30, int(rig.engine.Snapshot().XP))
}

func TestRefreshRemoteStatsNeverMerges(t *testing.T) {
	rig := newTestRig(t)
	client := &fakeClient{remote: progressapi.ProgressDTO{XP: 777, StreakDays: 12}}
	sync := NewSynchronizer(rig.engine, client, staticToken("token"), nil)

	require.NoError(t, sync.RefreshRemoteStats(context.Background()))

	stats := rig.engine.RemoteStats()
	assert.Equal(t, 777, stats.XP)
	assert.Equal(t, 12, stats.StreakDays)
	assert.Zero(t, int(rig.engine.Snapshot().XP))
}
