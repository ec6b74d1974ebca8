package repository

import (
	"context"
	"sort"
	"sync"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
)

// MemStorage implements the Repository interface with a bounded in-memory
// buffer per host.
type MemStorage struct {
	// mu provides thread-safe access to the envelope map
	mu sync.RWMutex

	// envelopes keeps per-host envelopes in receive order
	envelopes map[string][]models.ReceivedEnvelope

	// retention caps how many envelopes are kept per host
	retention int
}

// NewMemStorage creates a new in-memory storage instance.
//
// retention is the number of envelopes kept per host; older envelopes are
// discarded as new ones arrive.
func NewMemStorage(retention int) *MemStorage {

	return &MemStorage{
		envelopes: make(map[string][]models.ReceivedEnvelope),
		retention: retention,
	}
}

// SaveEnvelope stores one envelope, evicting the oldest entry for the host
// once the retention bound is reached.
func (ms *MemStorage) SaveEnvelope(ctx context.Context, envelope models.ReceivedEnvelope) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	kept := append(ms.envelopes[envelope.Host], envelope)
	if len(kept) > ms.retention {
		kept = kept[len(kept)-ms.retention:]
	}
	ms.envelopes[envelope.Host] = kept
	return nil
}

// ListHosts summarizes every known host, sorted by host name.
//
// LastTick is the highest tick among the retained envelopes; the gap count
// is left for the service layer, which tracks the full sequence.
func (ms *MemStorage) ListHosts(ctx context.Context) ([]models.HostSummary, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	summaries := make([]models.HostSummary, 0, len(ms.envelopes))
	for host, kept := range ms.envelopes {
		summary := models.HostSummary{Host: host, Envelopes: len(kept)}
		for _, envelope := range kept {
			if envelope.Tick > summary.LastTick {
				summary.LastTick = envelope.Tick
			}
			if envelope.ReceivedAt.After(summary.LastSeen) {
				summary.LastSeen = envelope.ReceivedAt
			}
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Host < summaries[j].Host })
	return summaries, nil
}

// ListEnvelopes returns up to limit most recent envelopes for a host,
// newest first.
func (ms *MemStorage) ListEnvelopes(ctx context.Context, host string, limit int) ([]models.ReceivedEnvelope, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	kept, exists := ms.envelopes[host]
	if !exists {
		return nil, internalerrors.ErrHostNotFound
	}
	if limit <= 0 || limit > len(kept) {
		limit = len(kept)
	}
	result := make([]models.ReceivedEnvelope, 0, limit)
	for i := len(kept) - 1; i >= len(kept)-limit; i-- {
		result = append(result, kept[i])
	}
	return result, nil
}

// Close releases any resources held by the memory storage.
func (ms *MemStorage) Close() error {

	return nil
}

// Ping checks the health of the memory storage.
//
// For MemStorage, this always returns nil since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}
