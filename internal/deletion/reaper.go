// Package deletion schedules delayed removal of delivered messages.
package deletion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cinegate/cinegate/internal/metrics"
)

const deleteTimeout = 30 * time.Second

// Deleter is the slice of the Telegram client the reaper needs.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Reaper owns the deferred-deletion tasks for delivered messages. Tasks are
// cancellable: Stop abandons outstanding timers instead of leaving detached
// goroutines behind.
type Reaper struct {
	client  Deleter
	logger  *slog.Logger
	metrics *metrics.Metrics

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewReaper creates a Reaper.
func NewReaper(client Deleter, logger *slog.Logger, m *metrics.Metrics) *Reaper {
	return &Reaper{
		client:  client,
		logger:  logger,
		metrics: m,
		stopCh:  make(chan struct{}),
	}
}

// Schedule registers one deletion task for the message after delay. Deletion
// failures (message already gone, insufficient rights) are logged at debug
// and never retried.
func (r *Reaper) Schedule(chatID int64, messageID int, delay time.Duration) {
	select {
	case <-r.stopCh:
		r.metrics.DeletionsAbandoned.Inc()
		return
	default:
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		timer := time.NewTimer(delay)
		select {
		case <-r.stopCh:
			timer.Stop()
			r.metrics.DeletionsAbandoned.Inc()
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()

		if err := r.client.DeleteMessage(ctx, chatID, messageID); err != nil {
			r.logger.Debug("deferred deletion failed",
				"chat", chatID,
				"message", messageID,
				"error", err,
			)
			return
		}
		r.metrics.MessagesDeleted.Inc()
	}()
}

// Stop cancels outstanding timers and waits for in-flight deletions, up to
// the context deadline. Safe to call multiple times.
func (r *Reaper) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stopCh) })

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
