// Package probe exposes the agent's liveness and runtime counters over a
// small optional HTTP endpoint.
package probe

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-aksenov/tinymon/internal/agent"
	"github.com/m-aksenov/tinymon/internal/transmit"
)

// Router builds the diagnostics routes: /healthz answers plain ok while the
// process is up, /status reports tick and delivery counters.
func Router(health *agent.Health, stats func() transmit.Stats) chi.Router {
	router := chi.NewRouter()

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})

	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		snapshot := health.Snapshot()
		delivery := stats()
		snapshot["envelopes_sent"] = delivery.Sent
		snapshot["send_failures"] = delivery.Failed
		snapshot["oversize_drops"] = delivery.OversizeDrops
		snapshot["sent_bytes"] = delivery.SentBytes

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return router
}
