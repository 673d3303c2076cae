// Package jobs contains the scheduled jobs of the progress engine: pushing
// and reconciling progress with the Progress Service, refreshing the
// display-only remote stats view, and purging expired storage records.
package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Synchronizer is the slice of the engine synchronizer the jobs need.
type Synchronizer interface {
	Sync(ctx context.Context) error
	RefreshRemoteStats(ctx context.Context) error
}

// ExpiringStore is the storage housekeeping surface.
type ExpiringStore interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SYNC PROGRESS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SyncProgressJob runs one full reconciliation pass: push local progress,
// read the remote record back, merge monotonically. Failures are returned so
// the scheduler records them; nothing else reacts, the next tick retries.
type SyncProgressJob struct {
	synchronizer Synchronizer
	timeout      time.Duration
	logger       *slog.Logger
}

// NewSyncProgressJob creates the reconciliation job.
func NewSyncProgressJob(synchronizer Synchronizer, timeout time.Duration, logger *slog.Logger) *SyncProgressJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &SyncProgressJob{synchronizer: synchronizer, timeout: timeout, logger: logger}
}

// Name returns the job name.
func (j *SyncProgressJob) Name() string { return "sync_progress" }

// Description returns a human-readable description.
func (j *SyncProgressJob) Description() string {
	return "Pushes local progress to the Progress Service and merges the remote record back"
}

// Run executes one reconciliation pass.
func (j *SyncProgressJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.synchronizer.Sync(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH REMOTE STATS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshRemoteStatsJob keeps the display-only view of server-reported xp
// and streak fresh. Nothing is merged into local state.
type RefreshRemoteStatsJob struct {
	synchronizer Synchronizer
	timeout      time.Duration
	logger       *slog.Logger
}

// NewRefreshRemoteStatsJob creates the stats refresh job.
func NewRefreshRemoteStatsJob(synchronizer Synchronizer, timeout time.Duration, logger *slog.Logger) *RefreshRemoteStatsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RefreshRemoteStatsJob{synchronizer: synchronizer, timeout: timeout, logger: logger}
}

// Name returns the job name.
func (j *RefreshRemoteStatsJob) Name() string { return "refresh_remote_stats" }

// Description returns a human-readable description.
func (j *RefreshRemoteStatsJob) Description() string {
	return "Refreshes the display-only view of server-reported xp and streak"
}

// Run fetches the remote values for display.
func (j *RefreshRemoteStatsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.synchronizer.RefreshRemoteStats(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// PURGE EXPIRED RECORDS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PurgeExpiredJob drops storage records past their TTL. Backends with native
// expiry report zero purged; the job is still registered for the SQLite
// default.
type PurgeExpiredJob struct {
	store  ExpiringStore
	logger *slog.Logger
}

// NewPurgeExpiredJob creates the storage housekeeping job.
func NewPurgeExpiredJob(store ExpiringStore, logger *slog.Logger) *PurgeExpiredJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurgeExpiredJob{store: store, logger: logger}
}

// Name returns the job name.
func (j *PurgeExpiredJob) Name() string { return "purge_expired" }

// Description returns a human-readable description.
func (j *PurgeExpiredJob) Description() string {
	return "Removes persisted records past their TTL"
}

// Run purges expired records.
func (j *PurgeExpiredJob) Run(ctx context.Context) error {
	purged, err := j.store.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		j.logger.Info("expired records purged", "count", purged)
	}
	return nil
}
