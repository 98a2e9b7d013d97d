package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// simpleJob is a minimal Job for scheduler tests.
type simpleJob struct {
	name     string
	schedule string
	runFunc  func(ctx context.Context) error
	mu       sync.Mutex
	calls    int
}

func (j *simpleJob) Name() string     { return j.name }
func (j *simpleJob) Schedule() string { return j.schedule }
func (j *simpleJob) Run(ctx context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	if j.runFunc != nil {
		return j.runFunc(ctx)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RegisterJob_DuplicateName(t *testing.T) {
	t.Parallel()

	s := NewScheduler(discardLogger())

	err := s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"})
	if err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}

	err = s.RegisterJob(&simpleJob{name: "test", schedule: "* * * * *"})
	if err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestScheduler_Start_InvalidSchedule(t *testing.T) {
	t.Parallel()

	s := NewScheduler(discardLogger())
	_ = s.RegisterJob(&simpleJob{name: "bad", schedule: "invalid"})

	err := s.Start()
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewScheduler(discardLogger())
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() without Start() error: %v", err)
	}
}

type fakeSweeper struct {
	mu     sync.Mutex
	swept  int
	maxAge time.Duration
}

func (f *fakeSweeper) SweepExpired(maxAge time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxAge = maxAge
	return f.swept
}

func TestPendingSweepJob(t *testing.T) {
	t.Parallel()

	sweeper := &fakeSweeper{swept: 3}
	job := &PendingSweepJob{
		Pending: sweeper,
		MaxAge:  time.Hour,
		Logger:  discardLogger(),
	}

	if job.Name() != "pending_sweep" {
		t.Errorf("Name() = %q, want %q", job.Name(), "pending_sweep")
	}
	if job.Schedule() != "* * * * *" {
		t.Errorf("Schedule() = %q, want every minute", job.Schedule())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sweeper.maxAge != time.Hour {
		t.Errorf("swept with maxAge = %v, want 1h", sweeper.maxAge)
	}
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func TestStorePingJobReportsFailure(t *testing.T) {
	t.Parallel()

	var failures int
	job := &StorePingJob{
		Store:     &fakePinger{err: errors.New("connection refused")},
		Logger:    discardLogger(),
		OnFailure: func() { failures++ },
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("Run() = nil, want error")
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}

	job.Store = &fakePinger{}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() with healthy store error: %v", err)
	}
	if failures != 1 {
		t.Errorf("failures = %d after healthy ping, want 1", failures)
	}
}
