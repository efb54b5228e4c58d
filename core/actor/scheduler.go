package actor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Scheduler runs background tasks for one actor, outside its mailbox.
type Scheduler interface {
	Schedule(f func())
	// Wait blocks until all in-flight tasks complete.
	Wait()
}

type scheduler struct {
	ctx      context.Context
	log      *slog.Logger
	inflight atomic.Int32
	sem      chan struct{}

	wg sync.WaitGroup

	actorID string
	metrics ActorMetrics
}

// NewScheduler creates a scheduler running at most max tasks at once
// (unlimited if max <= 0). Tasks not yet started when ctx ends are skipped.
func NewScheduler(ctx context.Context, max int) Scheduler {
	return newScheduler(ctx, max, slog.Default(), "", NopActorMetrics())
}

func newScheduler(ctx context.Context, max int, log *slog.Logger, actorID string, m ActorMetrics) *scheduler {
	var sem chan struct{}
	if max > 0 {
		sem = make(chan struct{}, max)
	}
	return &scheduler{
		ctx:     ctx,
		sem:     sem,
		log:     log,
		actorID: actorID,
		metrics: m,
	}
}

func (s *scheduler) Schedule(f func()) {
	if s.ctx.Err() != nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.sem != nil {
			select {
			case <-s.ctx.Done():
				return
			case s.sem <- struct{}{}:
			}
			defer func() { <-s.sem }()
		}

		s.metrics.SchedulerInflight(s.actorID, int(s.inflight.Add(1)))
		defer func() {
			s.metrics.SchedulerInflight(s.actorID, int(s.inflight.Add(-1)))
		}()

		s.runTask(f)
	}()
}

func (s *scheduler) runTask(f func()) {
	defer s.metrics.SchedulerTaskDuration().ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.SchedulerTaskCompleted(false)
			s.log.Error("scheduled task panicked", slog.Any("recovered", r))
		}
	}()

	f()
	s.metrics.SchedulerTaskCompleted(true)
}

func (s *scheduler) Wait() { s.wg.Wait() }
