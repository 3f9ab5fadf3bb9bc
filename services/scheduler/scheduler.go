// Package schedsvc runs periodic background tasks on their own tickers.
package schedsvc

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/soma/core"
)

var nowFunc = time.Now // mockable

// Task is one periodic job. Run receives the tick time in UTC.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	tasks  []Task
	logger core.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func New(logger core.Logger, tasks ...Task) *Scheduler {
	vala.BeginValidation().Validate(
		core.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	for _, t := range tasks {
		if t.Run == nil || t.Interval <= 0 {
			panic(errors.Errorf("scheduler task %q needs a Run func and a positive interval", t.Name))
		}
	}
	return &Scheduler{tasks: tasks, logger: logger}
}

// Start launches one goroutine per task; each task runs right away, then on every tick.
// Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
}

// Stop cancels the loops and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	defer s.wg.Done()

	s.runOnce(ctx, t) // at startup, without waiting a full interval

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", errors.Errorf("%v", r), map[string]interface{}{"task": t.Name})
		}
	}()

	start := nowFunc().UTC()
	if err := t.Run(ctx, start); err != nil {
		s.logger.Error("scheduled task failed", err, map[string]interface{}{"task": t.Name})
		return
	}
	s.logger.Debug("scheduled task done", map[string]interface{}{
		"task":     t.Name,
		"duration": nowFunc().UTC().Sub(start).String(),
	})
}
