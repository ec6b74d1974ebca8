package agent

import (
	"sync/atomic"
	"time"
)

// Health tracks the agent's runtime counters for the diagnostics endpoint.
// All fields are atomics; the scheduler goroutine writes while HTTP
// handlers read.
type Health struct {
	ticks           atomic.Uint64
	samples         atomic.Uint64
	collectFailures atomic.Uint64
	lastTick        atomic.Uint64
	lastTickAt      atomic.Int64
}

// NewHealth returns zeroed counters.
func NewHealth() *Health {
	return &Health{}
}

// ObserveTick records one finished tick.
func (h *Health) ObserveTick(tick uint64, samples, failures int) {
	h.ticks.Add(1)
	h.samples.Add(uint64(samples))
	h.collectFailures.Add(uint64(failures))
	h.lastTick.Store(tick)
	h.lastTickAt.Store(time.Now().UnixNano())
}

// Snapshot renders the counters for the status endpoint.
func (h *Health) Snapshot() map[string]any {
	snapshot := map[string]any{
		"ticks":            h.ticks.Load(),
		"samples":          h.samples.Load(),
		"collect_failures": h.collectFailures.Load(),
		"last_tick":        h.lastTick.Load(),
	}
	if at := h.lastTickAt.Load(); at > 0 {
		snapshot["last_tick_at"] = time.Unix(0, at).UTC().Format(time.RFC3339)
	}
	return snapshot
}
