// Package service provides the business logic layer for the collector endpoint.
package service

import (
	"context"
	"sync"

	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/m-aksenov/tinymon/internal/repository"
)

// EnvelopeService accepts decoded envelopes from the ingest loop and keeps
// per-host sequence bookkeeping on top of the repository.
//
// Agents number their envelopes with a tick sequence starting at 1, so a
// jump in the sequence means datagrams were lost in transit and a tick at
// or below the highest one seen means reordering. Both are counted here
// rather than in storage because MemStorage evicts old envelopes and would
// forget the history the counters are derived from.
type EnvelopeService struct {
	// repository is the underlying data storage implementation
	repository repository.Repository

	mu         sync.Mutex
	lastTick   map[string]uint64
	gaps       map[string]uint64
	outOfOrder map[string]uint64
}

// NewEnvelopeService creates a new EnvelopeService with the specified repository.
func NewEnvelopeService(repo repository.Repository) *EnvelopeService {

	return &EnvelopeService{
		repository: repo,
		lastTick:   map[string]uint64{},
		gaps:       map[string]uint64{},
		outOfOrder: map[string]uint64{},
	}
}

// Intake records sequence bookkeeping for the envelope and stores it.
func (es *EnvelopeService) Intake(ctx context.Context, envelope models.ReceivedEnvelope) error {

	es.trackSequence(envelope.Host, envelope.Tick)
	return es.repository.SaveEnvelope(ctx, envelope)
}

// trackSequence updates the per-host tick counters.
//
// A tick of 1 after higher ticks means the agent restarted, so the
// sequence resets instead of counting as reordering.
func (es *EnvelopeService) trackSequence(host string, tick uint64) {
	es.mu.Lock()
	defer es.mu.Unlock()

	last, seen := es.lastTick[host]
	switch {
	case !seen:
		es.lastTick[host] = tick
		if tick > 1 {
			es.gaps[host] += tick - 1
		}
	case tick > last:
		es.lastTick[host] = tick
		if tick > last+1 {
			es.gaps[host] += tick - last - 1
		}
	case tick == 1:
		es.lastTick[host] = 1
	default:
		es.outOfOrder[host]++
	}
}

// Summaries lists the hosts known to the repository, annotated with the
// sequence counters tracked by this service.
func (es *EnvelopeService) Summaries(ctx context.Context) ([]models.HostSummary, error) {

	summaries, err := es.repository.ListHosts(ctx)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	defer es.mu.Unlock()
	for i := range summaries {
		summaries[i].Gaps = es.gaps[summaries[i].Host]
		summaries[i].OutOfOrder = es.outOfOrder[summaries[i].Host]
	}
	return summaries, nil
}

// ListEnvelopes retrieves recent envelopes for a host, delegating to the repository implementation.
func (es *EnvelopeService) ListEnvelopes(ctx context.Context, host string, limit int) ([]models.ReceivedEnvelope, error) {

	return es.repository.ListEnvelopes(ctx, host, limit)
}

// Ping checks the repository connection, delegating to the repository implementation.
func (es *EnvelopeService) Ping(ctx context.Context) error {

	return es.repository.Ping(ctx)
}
