package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// aliveBody is the fixed keep-alive response. Hosting platforms probe GET /
// to keep the process warm.
const aliveBody = "cinegate is alive!"

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(aliveBody))
	})

	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", g.metrics.Handler())

	return r
}
