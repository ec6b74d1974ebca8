// Package repository persists received envelopes. Two implementations
// exist: a bounded in-memory storage used when no database is configured,
// and a PostgreSQL storage for durable retention.
package repository

import (
	"context"

	models "github.com/m-aksenov/tinymon/internal/model"
)

// Repository is the storage contract the intake service works against.
type Repository interface {
	// SaveEnvelope stores one received envelope.
	SaveEnvelope(ctx context.Context, envelope models.ReceivedEnvelope) error

	// ListHosts summarizes every host that has sent at least one envelope.
	ListHosts(ctx context.Context) ([]models.HostSummary, error)

	// ListEnvelopes returns up to limit most recent envelopes for a host,
	// newest first.
	ListEnvelopes(ctx context.Context, host string, limit int) ([]models.ReceivedEnvelope, error)

	// Ping verifies the storage is reachable.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}
