package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job for tests" }
func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "dup"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	err := s.Register(job, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestRegisterRejectsNil(t *testing.T) {
	s := New(Config{})
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "x"}, nil), ErrNilSchedule)
}

func TestDueJobsRun(t *testing.T) {
	s := New(Config{TickInterval: 10 * time.Millisecond})
	job := &countingJob{name: "ticker"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(20*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDisabledJobDoesNotRun(t *testing.T) {
	s := New(Config{TickInterval: 10 * time.Millisecond})
	job := &countingJob{name: "sleeper"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(20*time.Millisecond)))
	require.NoError(t, s.DisableJob("sleeper"))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Zero(t, job.runs.Load())
}

func TestRunNowIgnoresSchedule(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "manual"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "manual")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNowReportsFailure(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "broken", err: errors.New("boom")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, result.Success)
}

func TestStopIsIdempotentlyGuarded(t *testing.T) {
	s := New(Config{})
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestListJobs(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)))
	require.NoError(t, s.Register(&countingJob{name: "b"}, NewIntervalSchedule(time.Hour)))

	infos := s.ListJobs()
	assert.Len(t, infos, 2)
	for _, info := range infos {
		assert.True(t, info.Enabled)
		assert.Contains(t, info.Schedule, "@every")
	}
}
