package schedsvc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	logsvc "github.com/trezcool/soma/services/logger"
)

func TestScheduler(t *testing.T) {
	var ok, failing, panicking int32

	s := New(logsvc.NewDiscardLogger(),
		Task{Name: "ok", Interval: 5 * time.Millisecond, Run: func(context.Context, time.Time) error {
			atomic.AddInt32(&ok, 1)
			return nil
		}},
		Task{Name: "failing", Interval: 5 * time.Millisecond, Run: func(context.Context, time.Time) error {
			atomic.AddInt32(&failing, 1)
			return errors.New("boom")
		}},
		Task{Name: "panicking", Interval: 5 * time.Millisecond, Run: func(context.Context, time.Time) error {
			atomic.AddInt32(&panicking, 1)
			panic("oops")
		}},
	)

	s.Start(context.Background())
	s.Start(context.Background()) // no-op
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	assert.Greater(t, atomic.LoadInt32(&ok), int32(1))
	assert.Greater(t, atomic.LoadInt32(&failing), int32(1), "a failing task keeps running")
	assert.Greater(t, atomic.LoadInt32(&panicking), int32(1), "a panicking task keeps running")

	stopped := atomic.LoadInt32(&ok)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&ok), "no run after Stop")
	s.Stop() // no-op
}

func TestScheduler_PassesUTCNow(t *testing.T) {
	fixed := time.Date(2024, 5, 10, 17, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	got := make(chan time.Time, 1)
	s := New(logsvc.NewDiscardLogger(), Task{Name: "now", Interval: time.Millisecond, Run: func(_ context.Context, now time.Time) error {
		select {
		case got <- now:
		default:
		}
		return nil
	}})
	s.Start(context.Background())
	defer s.Stop()

	select {
	case now := <-got:
		assert.True(t, now.Equal(fixed))
		assert.Equal(t, time.UTC, now.Location())
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestNew_RejectsInvalidTask(t *testing.T) {
	assert.Panics(t, func() { New(logsvc.NewDiscardLogger(), Task{Name: "no interval", Run: func(context.Context, time.Time) error { return nil }}) })
	assert.Panics(t, func() { New(logsvc.NewDiscardLogger(), Task{Name: "no run", Interval: time.Second}) })
}

type silentLogger struct{}

func (silentLogger) Debug(string, ...interface{}) {}
func (silentLogger) Info(string, ...interface{})  {}
func (silentLogger) Warn(string, ...interface{})  {}
func (silentLogger) Error(string, ...interface{}) {}
func (silentLogger) Fatal(string, ...interface{}) {}

func TestScheduler_RunsAtStartup(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := New(silentLogger{}, Task{Name: "hourly", Interval: time.Hour, Run: func(context.Context, time.Time) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}})
	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run before its first tick")
	}
}

func TestNew_ValueTypedLogger(t *testing.T) {
	assert.NotPanics(t, func() { New(silentLogger{}) })
	assert.Panics(t, func() { New(nil) })
}
