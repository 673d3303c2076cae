package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynchronizer struct {
	syncCalls    int
	refreshCalls int
	syncErr      error
	lastDeadline time.Time
}

func (f *fakeSynchronizer) Sync(ctx context.Context) error {
	f.syncCalls++
	f.lastDeadline, _ = ctx.Deadline()
	return f.syncErr
}

func (f *fakeSynchronizer) RefreshRemoteStats(ctx context.Context) error {
	f.refreshCalls++
	f.lastDeadline, _ = ctx.Deadline()
	return nil
}

type fakeStore struct {
	purged   int
	purgeErr error
}

func (f *fakeStore) PurgeExpired(ctx context.Context) (int, error) {
	return f.purged, f.purgeErr
}

func TestSyncProgressJobRunsOnePass(t *testing.T) {
	sync := &fakeSynchronizer{}
	job := NewSyncProgressJob(sync, 30*time.Second, nil)

	assert.Equal(t, "sync_progress", job.Name())
	assert.NotEmpty(t, job.Description())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, sync.syncCalls)
	assert.False(t, sync.lastDeadline.IsZero(), "run carries a deadline")
}

func TestSyncProgressJobPropagatesFailure(t *testing.T) {
	sync := &fakeSynchronizer{syncErr: errors.New("service down")}
	job := NewSyncProgressJob(sync, 0, nil)

	err := job.Run(context.Background())
	assert.EqualError(t, err, "service down")
}

func TestRefreshRemoteStatsJob(t *testing.T) {
	sync := &fakeSynchronizer{}
	job := NewRefreshRemoteStatsJob(sync, 0, nil)

	assert.Equal(t, "refresh_remote_stats", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, sync.refreshCalls)
	assert.Equal(t, 0, sync.syncCalls, "stats refresh never merges")
}

func TestPurgeExpiredJob(t *testing.T) {
	job := NewPurgeExpiredJob(&fakeStore{purged: 3}, nil)

	assert.Equal(t, "purge_expired", job.Name())
	require.NoError(t, job.Run(context.Background()))
}

func TestPurgeExpiredJobPropagatesFailure(t *testing.T) {
	job := NewPurgeExpiredJob(&fakeStore{purgeErr: errors.New("locked")}, nil)
	assert.EqualError(t, job.Run(context.Background()), "locked")
}
