package telegram

import (
	"log/slog"
	"sync"
	"time"
)

const (
	maxConsecutivePollingErrors = 5
	errorPauseDuration          = 30 * time.Second
)

// Handler processes a single update. Handlers run on their own goroutine so
// a slow handler never stalls the polling loop.
type Handler func(update *Update)

// Poller implements long-polling for receiving Telegram updates.
type Poller struct {
	client         *Client
	handler        Handler
	logger         *slog.Logger
	timeout        int
	allowedUpdates []string
	stopCh         chan struct{}
	done           chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
}

// NewPoller creates a new Poller. timeout is the long-poll timeout in seconds.
func NewPoller(client *Client, handler Handler, logger *slog.Logger, timeout int, allowedUpdates []string) *Poller {
	return &Poller{
		client:         client,
		handler:        handler,
		logger:         logger,
		timeout:        timeout,
		allowedUpdates: allowedUpdates,
		stopCh:         make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine.
func (p *Poller) Start() {
	go p.loop()
}

// Stop signals the polling loop to stop and waits for it and for any
// in-flight handlers to finish. Safe to call multiple times.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.done
	p.wg.Wait()
}

// loop runs the long-polling loop until Stop() is called.
func (p *Poller) loop() {
	defer close(p.done)

	var offset int
	var consecutiveErrors int

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		updates, err := p.client.GetUpdates(p.ctx(), GetUpdatesRequest{
			Offset:         offset,
			Timeout:        p.timeout,
			AllowedUpdates: p.allowedUpdates,
		})
		if err != nil {
			consecutiveErrors++
			p.logger.Error("polling getUpdates failed",
				"error", err,
				"consecutive_errors", consecutiveErrors,
			)

			if consecutiveErrors >= maxConsecutivePollingErrors {
				p.logger.Warn("polling paused after consecutive errors",
					"pause", errorPauseDuration,
				)
				select {
				case <-p.stopCh:
					return
				case <-time.After(errorPauseDuration):
				}
				consecutiveErrors = 0
			}
			continue
		}

		consecutiveErrors = 0

		for _, update := range updates {
			offset = update.UpdateID + 1
			u := update
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.handler(&u)
			}()
		}
	}
}

// ctx returns a context that is cancelled when the poller stops.
func (p *Poller) ctx() contextWrapper {
	return contextWrapper{stopCh: p.stopCh}
}

// contextWrapper adapts a stop channel to a context.Context for the HTTP client.
type contextWrapper struct {
	stopCh <-chan struct{}
}

func (c contextWrapper) Deadline() (time.Time, bool) { return time.Time{}, false }
func (c contextWrapper) Done() <-chan struct{}       { return c.stopCh }

func (c contextWrapper) Err() error {
	select {
	case <-c.stopCh:
		return errPollerStopped
	default:
		return nil
	}
}

func (c contextWrapper) Value(any) any { return nil }

var errPollerStopped = pollerStoppedError{}

type pollerStoppedError struct{}

func (pollerStoppedError) Error() string { return "poller stopped" }
