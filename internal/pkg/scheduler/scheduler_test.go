package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterRunsOnce(t *testing.T) {
	s := New(context.Background())
	defer s.Stop()

	var fired atomic.Int32
	s.After(time.Millisecond, func(ctx context.Context) {
		fired.Add(1)
	})

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, time.Millisecond)
}

func TestAfterZeroDelayRunsImmediately(t *testing.T) {
	s := New(context.Background())
	defer s.Stop()

	done := make(chan struct{})
	s.After(0, func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero-delay task never ran")
	}
}

func TestStopCancelsPendingTasks(t *testing.T) {
	s := New(context.Background())

	var fired atomic.Int32
	s.After(time.Hour, func(ctx context.Context) {
		fired.Add(1)
	})
	s.Stop()

	assert.Zero(t, fired.Load(), "pending tasks must not fire after Stop")
}

func TestParentCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx)

	started := make(chan struct{})
	stopped := make(chan struct{})
	s.After(0, func(taskCtx context.Context) {
		close(started)
		<-taskCtx.Done()
		close(stopped)
	})

	<-started
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("running task did not observe parent cancellation")
	}
	s.Stop()
}
