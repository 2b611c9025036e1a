package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAddValidatesJobs(t *testing.T) {
	s := newTestScheduler()
	noop := func(context.Context) error { return nil }

	require.Error(t, s.Add(Job{Name: "", Run: noop}))
	require.Error(t, s.Add(Job{Name: "preload"}))
	require.Error(t, s.Add(Job{Name: "preload", Schedule: "not a spec", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "preload", Schedule: "30 2 * * *", Run: noop}))
	require.Error(t, s.Add(Job{Name: "preload", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "cleanup", Schedule: "@daily", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "manual", Run: noop}))
}

func TestRunNowPropagatesErrorsAndTimeout(t *testing.T) {
	s := newTestScheduler()
	var calls atomic.Int32
	boom := errors.New("boom")
	require.NoError(t, s.Add(Job{Name: "fail", Run: func(context.Context) error {
		calls.Add(1)
		return boom
	}}))
	require.NoError(t, s.Add(Job{Name: "slow", Timeout: 10 * time.Millisecond, Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))

	err := s.RunNow(context.Background(), "fail")
	require.ErrorIs(t, err, boom)
	require.Equal(t, int32(1), calls.Load())

	err = s.RunNow(context.Background(), "slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Add(Job{Name: "tick", Schedule: "@every 1h", Run: func(context.Context) error { return nil }}))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
