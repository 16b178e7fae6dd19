// Package scraper contains the radar's two periodic loops: token ingestion
// and the alert sweep, plus the scheduler that owns their lifecycles.
package scraper

import (
	"context"
	"log"
	"sync"
	"time"
)

// TaskFunc is one tick's unit of work. It runs under a timeout-bounded
// context so a hung upstream cannot block the next tick indefinitely.
type TaskFunc func(ctx context.Context) error

// Status is a point-in-time view of a scheduler's state.
type Status struct {
	Name        string     `json:"name"`
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Scheduler runs a task on a fixed interval. It owns its lifecycle
// explicitly: Start while running and Stop while stopped are logged no-ops,
// and at most one timer goroutine exists at a time. Ticks of the same task
// never overlap; a tick that outlives a Stop request finishes naturally.
type Scheduler struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	task     TaskFunc

	mu          sync.Mutex
	running     bool
	stop        chan struct{}
	done        chan struct{}
	lastRun     time.Time
	lastSuccess time.Time
	lastErr     error
}

// NewScheduler creates a stopped scheduler. timeout bounds each tick; zero
// means the tick runs with the full interval as its deadline.
func NewScheduler(name string, interval, timeout time.Duration, task TaskFunc) *Scheduler {
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		timeout:  timeout,
		task:     task,
	}
}

// Start begins scheduling ticks, running the first one immediately. Returns
// false if the scheduler was already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Printf("⚠️  %s scheduler already running, start ignored", s.name)
		return false
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)

	log.Printf("🚀 %s scheduler started (every %s)", s.name, s.interval)
	return true
}

// Stop stops scheduling further ticks. An in-flight tick is allowed to finish;
// Stop returns once the loop goroutine has exited. Returns false if the
// scheduler was not running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		log.Printf("⚠️  %s scheduler not running, stop ignored", s.name)
		return false
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	log.Printf("🛑 %s scheduler stopped", s.name)
	return true
}

// Status reports the scheduler's current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Name: s.name, Running: s.running}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		st.LastRun = &t
	}
	if !s.lastSuccess.IsZero() {
		t := s.lastSuccess
		st.LastSuccess = &t
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Scheduler) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup, then on every tick.
	s.runTick()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.runTick()
		}
	}
}

// runTick executes one tick and absorbs its failure: a broken upstream must
// not halt the schedule.
func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := time.Now()
	err := s.task(ctx)

	s.mu.Lock()
	s.lastRun = now
	s.lastErr = err
	if err == nil {
		s.lastSuccess = now
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("❌ %s tick failed: %v", s.name, err)
	}
}
