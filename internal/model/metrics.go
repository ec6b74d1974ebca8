// Package models defines the data structures shared by the agent and the collector endpoint.
package models

import "time"

// Source identifiers for the metric families the agent knows how to sample.
const (
	SourceDiskUsage = "disk-usage"
	SourceNetwork   = "network"
	SourceCPUFreq   = "cpufreq"
	SourceUptime    = "uptime"
	SourceService   = "service"
	SourceSmart     = "smart"
)

// MaxDatagramBytes is the largest UDP payload the agent will send and the
// endpoint will read. Envelopes above this bound are dropped, never chunked.
const MaxDatagramBytes = 65507

// Field is a single named value inside a sample. Value holds one of
// float64, int64, uint64, bool or string.
type Field struct {
	// Name is the field key as it appears on the wire
	Name string

	// Value is the sampled scalar
	Value any
}

// MetricSample is one instance of a metric family captured during a tick.
// Families with multiple instances (one per mount, interface, core, service
// or controller) produce one sample per instance, all sharing a Source.
type MetricSample struct {
	// Source is the family identifier, one of the Source constants
	Source string

	// Timestamp is the capture instant; kept for diagnostics, not serialized
	Timestamp time.Time

	// Fields are the sample values in their fixed wire order
	Fields []Field
}

// Envelope is one tick's worth of samples, sent as a single UDP datagram.
type Envelope struct {
	// Host identifies the sending machine
	Host string

	// Tick is the strictly increasing sequence number, starting at 1
	Tick uint64

	// Timestamp is the tick start instant
	Timestamp time.Time

	// Samples are ordered by collector registration, then by instance
	Samples []MetricSample
}

// SampleDTO is the wire form of a sample as decoded by the endpoint.
type SampleDTO struct {
	// Source is the family identifier
	Source string `json:"source"`

	// Fields maps field names to their values
	Fields map[string]any `json:"fields"`
}

// EnvelopeDTO is the wire form of an envelope as decoded by the endpoint.
type EnvelopeDTO struct {
	// Host identifies the sending machine
	Host string `json:"host"`

	// Tick is the sender's sequence number
	Tick uint64 `json:"tick"`

	// Timestamp is the tick start instant in RFC 3339 form
	Timestamp string `json:"timestamp"`

	// Samples are the decoded samples in wire order
	Samples []SampleDTO `json:"samples"`
}

// ReceivedEnvelope is an envelope accepted by the endpoint, together with
// receive-side metadata and the raw datagram for journaling.
type ReceivedEnvelope struct {
	// Host identifies the sending machine
	Host string `json:"host"`

	// Tick is the sender's sequence number
	Tick uint64 `json:"tick"`

	// Timestamp is the sender's tick instant
	Timestamp time.Time `json:"timestamp"`

	// Samples are the decoded samples
	Samples []SampleDTO `json:"samples"`

	// RemoteAddr is the datagram's origin address
	RemoteAddr string `json:"remote_addr"`

	// ReceivedAt is the receive instant
	ReceivedAt time.Time `json:"received_at"`

	// Raw is the datagram payload as it arrived, not part of API responses
	Raw []byte `json:"-"`
}

// HostSummary aggregates what the endpoint knows about one sender.
type HostSummary struct {
	// Host identifies the sending machine
	Host string `json:"host"`

	// Envelopes is the number of envelopes currently retained
	Envelopes int `json:"envelopes"`

	// LastTick is the highest tick seen
	LastTick uint64 `json:"last_tick"`

	// LastSeen is the most recent receive instant
	LastSeen time.Time `json:"last_seen"`

	// Gaps counts ticks skipped in the sender's sequence
	Gaps uint64 `json:"gaps"`

	// OutOfOrder counts envelopes that arrived with a tick at or below
	// the highest tick already seen
	OutOfOrder uint64 `json:"out_of_order"`
}
