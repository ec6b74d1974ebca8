// Package tinymon implements a lightweight host monitoring pipeline: an
// agent that periodically samples a fixed set of host metrics and a
// collector endpoint that receives, stores and serves the results.
//
// The agent knows six metric families:
//   - disk-usage: capacity and usage per mounted filesystem
//   - network: receive/transmit byte deltas per interface
//   - cpufreq: current frequency per CPU core
//   - uptime: seconds since boot
//   - service: liveness of configured system services
//   - smart: NVMe SMART health per controller
//
// Each sampling tick produces one envelope, serialized to JSON and sent as
// a single best-effort UDP datagram. Envelopes carry a strictly increasing
// tick sequence so the receiving side can detect loss.
//
// Features:
//   - Drift-free sampling grid with per-collector timeouts
//   - Envelopes stored in memory or in a PostgreSQL database
//   - JSON-lines journaling and HTTP forwarding of received envelopes
//   - REST API for querying hosts and recent envelopes
//   - Data compression using gzip
//   - Graceful shutdown handling
//   - Structured logging
//
// Both agent and collector endpoint support configuration via command-line
// flags and environment variables.
package tinymon
