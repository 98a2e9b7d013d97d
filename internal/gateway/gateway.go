// Package gateway serves the keep-alive, health, and metrics HTTP endpoints.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cinegate/cinegate/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports content store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gateway is the HTTP side of cinegate. It is independent of the bot's
// Telegram connection: platform keep-alive probes hit it even when polling
// is wedged.
type Gateway struct {
	addr      string
	store     Pinger
	pending   func() int
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway listening on the given port. pending reports the
// number of in-flight admin upload sessions for the health payload.
func New(port int, store Pinger, pending func() int, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{
		addr:    fmt.Sprintf(":%d", port),
		store:   store,
		pending: pending,
		metrics: m,
		logger:  logger,
	}
}

// Start begins serving in a background goroutine.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.addr,
		Handler:      g.buildRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.addr)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.addr)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
