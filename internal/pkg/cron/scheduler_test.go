package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(nil)
	var runs atomic.Int32
	s.AddJob("tick", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start()
	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after Stop")
}

func TestScheduler_JobSeesCancellation(t *testing.T) {
	s := NewScheduler(nil)
	started := make(chan struct{})
	s.AddJob("blocking", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	s.Start()
	<-started
	s.Stop()
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler(nil)
	var calls []string
	s.AddJob("a", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "a")
		return errors.New("boom")
	})
	s.AddJob("b", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "b")
		return nil
	})

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"a", "b"}, calls, "a failing job does not stop the rest")
	assert.Len(t, s.Jobs(), 2)
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	s := NewScheduler(nil)
	s.AddJob("never", time.Millisecond, func(ctx context.Context) error { return nil })
	s.Stop()
	s.Start()
	assert.False(t, s.started, "a stopped scheduler does not restart")
}
