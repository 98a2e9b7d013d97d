package deletion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cinegate/cinegate/internal/metrics"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted [][2]int64
	err     error
}

func (f *fakeDeleter) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, [2]int64{chatID, int64(messageID)})
	return nil
}

func (f *fakeDeleter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReaperDeletesAfterDelay(t *testing.T) {
	client := &fakeDeleter{}
	r := NewReaper(client, discardLogger(), metrics.New())

	r.Schedule(42, 7, 20*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for client.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if client.count() != 1 {
		t.Fatalf("deleted = %d messages, want 1", client.count())
	}

	client.mu.Lock()
	got := client.deleted[0]
	client.mu.Unlock()
	if got != [2]int64{42, 7} {
		t.Errorf("deleted %v, want [42 7]", got)
	}
}

func TestReaperStopAbandonsPending(t *testing.T) {
	client := &fakeDeleter{}
	r := NewReaper(client, discardLogger(), metrics.New())

	r.Schedule(1, 1, time.Hour)
	r.Schedule(1, 2, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	if client.count() != 0 {
		t.Errorf("deleted = %d messages after Stop, want 0", client.count())
	}
}

func TestReaperSwallowsDeleteErrors(t *testing.T) {
	client := &fakeDeleter{err: errors.New("message to delete not found")}
	r := NewReaper(client, discardLogger(), metrics.New())

	// Must not panic or surface the error anywhere.
	r.Schedule(1, 1, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
}

func TestReaperScheduleAfterStopIsNoop(t *testing.T) {
	client := &fakeDeleter{}
	r := NewReaper(client, discardLogger(), metrics.New())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	r.Schedule(1, 1, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if client.count() != 0 {
		t.Errorf("deleted = %d messages scheduled after Stop, want 0", client.count())
	}
}
