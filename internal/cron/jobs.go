package cron

import (
	"context"
	"log/slog"
	"time"
)

// PendingSweeper is the subset of the bot's pending-upload store needed by
// the sweep job. Defined here to avoid a circular dependency on the bot
// package.
type PendingSweeper interface {
	SweepExpired(maxAge time.Duration) int
}

// Pinger is the subset of the content store needed by the ping job.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PendingSweepJob expires admin upload sessions that were started but never
// finished with a cover photo.
type PendingSweepJob struct {
	Pending      PendingSweeper
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "* * * * *"
}

// Compile-time interface check.
var _ Job = (*PendingSweepJob)(nil)

// Name implements Job.
func (j *PendingSweepJob) Name() string { return "pending_sweep" }

// Schedule implements Job.
func (j *PendingSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "* * * * *"
}

// Run expires pending uploads older than MaxAge.
func (j *PendingSweepJob) Run(_ context.Context) error {
	swept := j.Pending.SweepExpired(j.MaxAge)
	if swept > 0 {
		j.Logger.Info("cron: expired pending uploads", "count", swept)
	}
	return nil
}

// StorePingJob checks content store connectivity so an unreachable database
// shows up in logs before a user hits it.
type StorePingJob struct {
	Store        Pinger
	Logger       *slog.Logger
	OnFailure    func()
	ScheduleExpr string // empty = default "*/5 * * * *"
}

var _ Job = (*StorePingJob)(nil)

// Name implements Job.
func (j *StorePingJob) Name() string { return "store_ping" }

// Schedule implements Job.
func (j *StorePingJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run pings the store. Failures are reported, not fatal.
func (j *StorePingJob) Run(ctx context.Context) error {
	if err := j.Store.Ping(ctx); err != nil {
		if j.OnFailure != nil {
			j.OnFailure()
		}
		return err
	}
	return nil
}
