// Package scheduler drives the periodic collection loop: it fans a tick out
// to every registered collector, assembles the results into one envelope in
// registration order and hands it to the sink.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m-aksenov/tinymon/internal/collector"
	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	"go.uber.org/zap"
)

// Sink receives one envelope per tick. Send must not block beyond its own
// deadline; its error is logged, never fatal.
type Sink interface {
	Send(envelope models.Envelope) error
}

// TickObserver is notified after every assembled tick. Implementations must
// be safe for use from the scheduler goroutine.
type TickObserver interface {
	ObserveTick(tick uint64, samples, failures int)
}

// Scheduler owns the tick loop. Ticks are paced relative to tick start, so
// a slow round shortens the following sleep instead of shifting the grid.
type Scheduler struct {
	logger     *zap.SugaredLogger
	collectors []collector.Collector
	sink       Sink
	observer   TickObserver
	host       string
	interval   time.Duration
	timeout    time.Duration
	sequence   uint64

	// tokens serializes invocations per collector: an abandoned call keeps
	// its token until it actually returns, so the next tick skips that
	// collector instead of running it twice.
	tokens []chan struct{}
}

type collectResult struct {
	samples []models.MetricSample
	err     error
}

// New builds a scheduler over the given collectors; their order fixes the
// envelope sample order. observer may be nil.
func New(logger *zap.SugaredLogger, collectors []collector.Collector, sink Sink, observer TickObserver, host string, interval, timeout time.Duration) *Scheduler {
	tokens := make([]chan struct{}, len(collectors))
	for i := range tokens {
		tokens[i] = make(chan struct{}, 1)
		tokens[i] <- struct{}{}
	}
	return &Scheduler{
		logger:     logger,
		collectors: collectors,
		sink:       sink,
		observer:   observer,
		host:       host,
		interval:   interval,
		timeout:    timeout,
		tokens:     tokens,
	}
}

// Run executes ticks until ctx is canceled. The first tick starts
// immediately; the sequence begins at 1 and never skips a number.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		start := time.Now()
		s.sequence++
		envelope := s.runTick(ctx, s.sequence, start)
		if ctx.Err() != nil {
			return nil
		}
		if err := s.sink.Send(envelope); err != nil {
			s.logger.Warnw("envelope send failed", "tick", envelope.Tick, "error", err)
		}

		wait := s.interval - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		if !sleepContext(ctx, wait) {
			return nil
		}
	}
}

// runTick invokes every collector concurrently and assembles the envelope
// in registration order. A tick with zero samples still yields an envelope
// so the receiver can account for every sequence number.
func (s *Scheduler) runTick(ctx context.Context, sequence uint64, start time.Time) models.Envelope {
	collectors := s.collectors
	results := make([]collectResult, len(collectors))

	var wg sync.WaitGroup
	for i, c := range collectors {
		wg.Add(1)
		go func(i int, c collector.Collector) {
			defer wg.Done()
			results[i].samples, results[i].err = s.invoke(ctx, i, c)
		}(i, c)
	}
	wg.Wait()

	envelope := models.Envelope{
		Host:      s.host,
		Tick:      sequence,
		Timestamp: start.UTC(),
		Samples:   []models.MetricSample{},
	}
	failures := 0
	for i, c := range collectors {
		if err := results[i].err; err != nil {
			if errors.Is(err, internalerrors.ErrFirstSample) {
				s.logger.Debugw("collector primed", "collector", c.Name(), "tick", sequence)
				continue
			}
			failures++
			s.logger.Warnw("collector failed", "collector", c.Name(), "tick", sequence, "error", err)
			continue
		}
		envelope.Samples = append(envelope.Samples, results[i].samples...)
	}
	if s.observer != nil {
		s.observer.ObserveTick(sequence, len(envelope.Samples), failures)
	}
	return envelope
}

// invoke runs one collector under the per-tick timeout. A collector that
// outlives its deadline is abandoned: the supervisor returns ErrTimeout and
// the stale result is discarded through the buffered channel.
func (s *Scheduler) invoke(ctx context.Context, index int, c collector.Collector) ([]models.MetricSample, error) {
	select {
	case <-s.tokens[index]:
	default:
		return nil, fmt.Errorf("%w: previous invocation still running", internalerrors.ErrTimeout)
	}

	invokeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan collectResult, 1)
	go func() {
		samples, err := c.Collect(invokeCtx)
		s.tokens[index] <- struct{}{}
		done <- collectResult{samples: samples, err: err}
	}()

	select {
	case result := <-done:
		return result.samples, result.err
	case <-invokeCtx.Done():
		return nil, fmt.Errorf("%w: %s", internalerrors.ErrTimeout, c.Name())
	}
}

// sleepContext waits for d or cancellation, reporting false when canceled.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
