// Package scheduler drives the pipeline on a fixed interval. Ticks that
// land while a cycle is still running are skipped, never queued, and
// shutdown lets the in-flight article finish before the process exits.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// State is the scheduler's lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// CycleFunc is one pipeline run. It must honor stop by finishing the
// current article and returning without starting another.
type CycleFunc func(ctx context.Context, stop <-chan struct{})

// Scheduler owns the cron loop and the cooperative shutdown channel.
type Scheduler struct {
	interval time.Duration
	runCycle CycleFunc
	onSkip   func()

	cron   *cron.Cron
	stopCh chan struct{}
	state  atomic.Int32

	mu       sync.Mutex // guards stopped together with inFlight.Add
	stopped  bool
	inFlight sync.WaitGroup
	stopOnce sync.Once
}

// New builds a scheduler. onSkip is called for every tick dropped because
// the previous cycle was still running; it may be nil.
func New(interval time.Duration, runCycle CycleFunc, onSkip func()) *Scheduler {
	return &Scheduler{
		interval: interval,
		runCycle: runCycle,
		onSkip:   onSkip,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one cycle immediately, then schedules the interval loop.
// It returns once the loop is installed; cycles run on cron goroutines.
func (s *Scheduler) Start(ctx context.Context) error {
	s.execute(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}

	c := cron.New(cron.WithChain(s.skipIfRunning()))
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, func() { s.execute(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	slog.Info("scheduler started", "interval", s.interval)
	return nil
}

// Stop requests shutdown and blocks until any in-flight cycle drains.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("scheduler stopping, draining in-flight work")
		s.mu.Lock()
		s.stopped = true
		close(s.stopCh)
		c := s.cron
		s.mu.Unlock()

		if c != nil {
			<-c.Stop().Done()
		}
		s.inFlight.Wait()
		s.state.Store(int32(StateStopped))
		slog.Info("scheduler stopped")
	})
}

// State reports the current lifecycle phase.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) execute(ctx context.Context) {
	// The stop check and the Add must be one step, otherwise Stop can slip
	// between them and pass inFlight.Wait before this cycle registers.
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.inFlight.Add(1)
	s.mu.Unlock()
	defer s.inFlight.Done()

	s.state.Store(int32(StateRunning))
	s.runCycle(ctx, s.stopCh)

	// Stopped wins over Idle when shutdown raced the cycle's tail.
	s.state.CompareAndSwap(int32(StateRunning), int32(StateIdle))
}

// skipIfRunning drops ticks that overlap the previous cycle instead of
// queueing them, and reports each drop.
func (s *Scheduler) skipIfRunning() cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		var running atomic.Bool
		return cron.FuncJob(func() {
			if !running.CompareAndSwap(false, true) {
				slog.Warn("previous cycle still running, skipping tick")
				if s.onSkip != nil {
					s.onSkip()
				}
				return
			}
			defer running.Store(false)
			j.Run()
		})
	}
}
