package scraper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerStartStop(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler("test", time.Hour, time.Second, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})

	if !s.Start() {
		t.Fatal("Start on a stopped scheduler returned false")
	}
	if s.Start() {
		t.Error("second Start should be a no-op")
	}

	// The first tick runs immediately on Start.
	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ticks.Load() == 0 {
		t.Fatal("no tick ran after Start")
	}

	if !s.Stop() {
		t.Fatal("Stop on a running scheduler returned false")
	}
	if s.Stop() {
		t.Error("second Stop should be a no-op")
	}
}

func TestSchedulerRestart(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler("test", time.Hour, time.Second, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})

	s.Start()
	s.Stop()
	before := ticks.Load()

	if !s.Start() {
		t.Fatal("restart after Stop returned false")
	}
	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() == before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ticks.Load() == before {
		t.Error("no tick ran after restart")
	}
	s.Stop()
}

func TestSchedulerStatus(t *testing.T) {
	tickErr := errors.New("upstream down")
	s := NewScheduler("test", time.Hour, time.Second, func(ctx context.Context) error {
		return tickErr
	})

	st := s.Status()
	if st.Name != "test" || st.Running {
		t.Fatalf("initial status = %+v, want stopped", st)
	}
	if st.LastRun != nil || st.LastSuccess != nil || st.LastError != "" {
		t.Fatalf("initial status carries history: %+v", st)
	}

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st = s.Status()
		if st.LastRun != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !st.Running {
		t.Error("status should report running after Start")
	}
	if st.LastRun == nil {
		t.Fatal("LastRun not recorded after the first tick")
	}
	if st.LastSuccess != nil {
		t.Error("failing task must not record LastSuccess")
	}
	if st.LastError != tickErr.Error() {
		t.Errorf("LastError = %q, want %q", st.LastError, tickErr)
	}
}

func TestSchedulerAbsorbsTaskFailure(t *testing.T) {
	var ticks atomic.Int64
	s := NewScheduler("test", 20*time.Millisecond, 10*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return errors.New("boom")
	})

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ticks.Load() < 2 {
		t.Error("scheduler stopped ticking after a task failure")
	}
}
