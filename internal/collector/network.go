package collector

import (
	"context"
	"sync"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// ioCounters is the pair of cumulative byte counters retained per interface
// between ticks.
type ioCounters struct {
	rx uint64
	tx uint64
}

// Network reports per-interface traffic as deltas between consecutive
// ticks. The very first collection only primes the counter state and emits
// nothing; a counter that moves backwards (interface reset, counter wrap)
// reports a zero delta for that tick.
type Network struct {
	mu       sync.Mutex
	previous map[string]ioCounters
	counters func(ctx context.Context, pernic bool) ([]psnet.IOCountersStat, error)
}

// NewNetwork returns a network delta collector backed by the OS interface
// counters.
func NewNetwork() *Network {
	return &Network{counters: psnet.IOCountersWithContext}
}

// Name returns the source identifier.
func (n *Network) Name() string {
	return models.SourceNetwork
}

// Collect reads cumulative counters for every interface except loopback and
// converts them into byte deltas against the previous tick.
func (n *Network) Collect(ctx context.Context) ([]models.MetricSample, error) {
	stats, err := n.counters(ctx, true)
	if err != nil {
		return nil, classify(err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	first := n.previous == nil
	now := time.Now().UTC()
	current := make(map[string]ioCounters, len(stats))
	samples := make([]models.MetricSample, 0, len(stats))
	for _, stat := range stats {
		if stat.Name == "lo" {
			continue
		}
		cur := ioCounters{rx: stat.BytesRecv, tx: stat.BytesSent}
		current[stat.Name] = cur
		if first {
			continue
		}
		// an interface that appeared mid-run primes with a zero delta
		var rxDelta, txDelta uint64
		if prev, known := n.previous[stat.Name]; known {
			rxDelta = counterDelta(cur.rx, prev.rx)
			txDelta = counterDelta(cur.tx, prev.tx)
		}
		samples = append(samples, models.MetricSample{
			Source:    models.SourceNetwork,
			Timestamp: now,
			Fields: []models.Field{
				{Name: "interface_name", Value: stat.Name},
				{Name: "rx_bytes_delta", Value: rxDelta},
				{Name: "tx_bytes_delta", Value: txDelta},
			},
		})
	}
	n.previous = current

	if first {
		return nil, internalerrors.ErrFirstSample
	}
	return samples, nil
}

// counterDelta returns cur-prev, or zero when the counter moved backwards.
func counterDelta(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
