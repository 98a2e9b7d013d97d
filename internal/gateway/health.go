package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"` // "ok" or "degraded"
	Store   string `json:"store"`  // "ok" or "unavailable"
	Pending int    `json:"pending_uploads"`
	Uptime  string `json:"uptime"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when the store is reachable, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Store:  "ok",
			Uptime: time.Since(g.startedAt).Round(time.Second).String(),
		}

		if g.pending != nil {
			resp.Pending = g.pending()
		}

		if err := g.store.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Store = "unavailable"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
