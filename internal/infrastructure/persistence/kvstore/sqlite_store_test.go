package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", ttl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type payload struct {
	XP    int    `json:"xp"`
	Label string `json:"label"`
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	want := payload{XP: 120, Label: "snapshot"}
	require.NoError(t, s.Write(ctx, "user-1", "snapshot", want))

	var got payload
	require.True(t, s.Read(ctx, "user-1", "snapshot", &got))
	assert.Equal(t, want, got)
}

func TestSQLiteStore_OverwriteKeepsLatest(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "user-1", "snapshot", payload{XP: 10}))
	require.NoError(t, s.Write(ctx, "user-1", "snapshot", payload{XP: 25}))

	var got payload
	require.True(t, s.Read(ctx, "user-1", "snapshot", &got))
	assert.Equal(t, 25, got.XP)
}

func TestSQLiteStore_AbsentKeyReadsAbsent(t *testing.T) {
	s := newTestStore(t, time.Hour)

	var got payload
	assert.False(t, s.Read(context.Background(), "user-1", "missing", &got))
}

func TestSQLiteStore_UserNamespacing(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "user-1", "snapshot", payload{XP: 10}))

	var got payload
	assert.False(t, s.Read(ctx, "user-2", "snapshot", &got),
		"records must never leak across users")
}

func TestSQLiteStore_CorruptValueReadsAbsent(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress_records (user_id, key, value, expires_at, updated_at)
		VALUES ('user-1', 'snapshot', '{broken json', $1, $2)`,
		time.Now().UTC().Add(time.Hour), time.Now().UTC())
	require.NoError(t, err)

	var got payload
	assert.False(t, s.Read(ctx, "user-1", "snapshot", &got))
}

func TestSQLiteStore_ExpiredRecordReadsAbsent(t *testing.T) {
	s := newTestStore(t, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "user-1", "snapshot", payload{XP: 10}))
	time.Sleep(5 * time.Millisecond)

	var got payload
	assert.False(t, s.Read(ctx, "user-1", "snapshot", &got))
}

func TestSQLiteStore_PurgeExpired(t *testing.T) {
	s := newTestStore(t, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "user-1", "a", payload{}))
	require.NoError(t, s.Write(ctx, "user-1", "b", payload{}))
	time.Sleep(5 * time.Millisecond)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "user-1", "snapshot", payload{XP: 10}))
	require.NoError(t, s.Delete(ctx, "user-1", "snapshot"))

	var got payload
	assert.False(t, s.Read(ctx, "user-1", "snapshot", &got))
}
