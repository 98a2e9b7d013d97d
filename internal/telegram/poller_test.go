package telegram

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPollerReceivesUpdates(t *testing.T) {
	var callCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := callCount.Add(1)
		if n == 1 {
			writeJSON(t, w, APIResponse[[]Update]{
				OK: true,
				Result: []Update{
					{
						UpdateID: 1,
						Message: &Message{
							MessageID: 10,
							From:      &User{ID: 100, FirstName: "Alice", Username: "alice"},
							Chat:      Chat{ID: 200, Type: "private"},
							Text:      "/start demo",
							Date:      1700000000,
						},
					},
				},
			})
			return
		}
		// Subsequent calls: empty, give the poller time to stop.
		writeJSON(t, w, APIResponse[[]Update]{OK: true, Result: []Update{}})
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)

	var mu sync.Mutex
	var received []*Update

	poller := NewPoller(client, func(u *Update) {
		mu.Lock()
		received = append(received, u)
		mu.Unlock()
	}, discardLogger(), 0, []string{"message", "callback_query"})

	poller.Start()
	time.Sleep(500 * time.Millisecond)
	poller.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("received %d updates, want 1", len(received))
	}
	if received[0].Message.Text != "/start demo" {
		t.Errorf("Text = %q, want %q", received[0].Message.Text, "/start demo")
	}
}

func TestPollerAdvancesOffset(t *testing.T) {
	var gotOffsets []int
	var mu sync.Mutex

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req GetUpdatesRequest
		_ = json.Unmarshal(body, &req)

		mu.Lock()
		gotOffsets = append(gotOffsets, req.Offset)
		first := len(gotOffsets) == 1
		mu.Unlock()

		if first {
			writeJSON(t, w, APIResponse[[]Update]{
				OK: true,
				Result: []Update{
					{UpdateID: 7, Message: &Message{MessageID: 1, Chat: Chat{ID: 1}}},
					{UpdateID: 8, Message: &Message{MessageID: 2, Chat: Chat{ID: 1}}},
				},
			})
			return
		}
		writeJSON(t, w, APIResponse[[]Update]{OK: true, Result: []Update{}})
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	poller := NewPoller(client, func(*Update) {}, discardLogger(), 0, nil)

	poller.Start()
	time.Sleep(300 * time.Millisecond)
	poller.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(gotOffsets) < 2 {
		t.Fatalf("got %d polls, want at least 2", len(gotOffsets))
	}
	if gotOffsets[0] != 0 {
		t.Errorf("first offset = %d, want 0", gotOffsets[0])
	}
	if gotOffsets[1] != 9 {
		t.Errorf("second offset = %d, want 9", gotOffsets[1])
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, APIResponse[[]Update]{OK: true, Result: []Update{}})
		time.Sleep(20 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	poller := NewPoller(client, func(*Update) {}, discardLogger(), 0, nil)

	poller.Start()
	time.Sleep(50 * time.Millisecond)
	poller.Stop()
	poller.Stop() // must not panic or hang
}
