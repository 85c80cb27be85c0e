// Package scheduler provides timer tasks scoped to one owning context, so
// staggered and retried work is cancelled together with its owner instead of
// leaking behind ad hoc sleeps.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs delayed functions under a shared parent context.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler whose tasks are cancelled when parent is done or
// Stop is called.
func New(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// After runs fn once after the delay, unless the scheduler stops first. fn
// receives the scheduler's context and must honor its cancellation.
func (s *Scheduler) After(delay time.Duration, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-s.ctx.Done():
				return
			case <-timer.C:
			}
		} else if s.ctx.Err() != nil {
			return
		}
		fn(s.ctx)
	}()
}

// Context exposes the scheduler's lifetime context for attempt deadlines.
func (s *Scheduler) Context() context.Context { return s.ctx }

// Stop cancels all pending and running tasks and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
