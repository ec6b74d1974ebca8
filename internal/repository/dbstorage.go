package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// saveRetryDelays paces the bounded retry loop around transient database
// failures.
var saveRetryDelays = []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, time.Second}

type DBStorage struct {
	db *sql.DB
}

func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect}, nil
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

// isRetryableError reports whether a save attempt is worth repeating.
func isRetryableError(err error) bool {
	// Check if the error is a PostgreSQL error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return true
		}
	}

	// Check any network errors
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "connection reset by peer") {
		return true
	}

	return false
}

// SaveEnvelope inserts one envelope. A duplicate datagram, same host, tick
// and sent instant, is silently ignored. Transient failures are retried a
// bounded number of times.
func (storage *DBStorage) SaveEnvelope(ctx context.Context, envelope models.ReceivedEnvelope) error {
	query := `INSERT INTO envelopes (host, tick, sent_at, received_at, remote_addr, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (host, tick, sent_at) DO NOTHING`

	var lastErr error
	for attempt := 0; attempt <= len(saveRetryDelays); attempt++ {
		if attempt > 0 {
			time.Sleep(saveRetryDelays[attempt-1])
		}
		_, err := storage.db.ExecContext(ctx, query,
			envelope.Host, int64(envelope.Tick), envelope.Timestamp,
			envelope.ReceivedAt, envelope.RemoteAddr, envelope.Raw)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return fmt.Errorf("error saving envelope: %w", err)
		}
	}
	return fmt.Errorf("error saving envelope after %d attempts: %w", len(saveRetryDelays)+1, lastErr)
}

// ListHosts summarizes every host present in the envelopes table.
func (storage *DBStorage) ListHosts(ctx context.Context) ([]models.HostSummary, error) {
	query := `SELECT host, COUNT(*), MAX(tick), MAX(received_at)
		FROM envelopes GROUP BY host ORDER BY host`
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving hosts: %w", err)
	}
	defer rows.Close()

	var summaries []models.HostSummary
	for rows.Next() {
		var summary models.HostSummary
		var lastTick int64

		err = rows.Scan(&summary.Host, &summary.Envelopes, &lastTick, &summary.LastSeen)
		if err != nil {
			return nil, fmt.Errorf("error scanning host summary: %w", err)
		}
		summary.LastTick = uint64(lastTick)
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over hosts: %w", err)
	}

	return summaries, nil
}

// ListEnvelopes returns up to limit most recent envelopes for a host,
// newest first.
func (storage *DBStorage) ListEnvelopes(ctx context.Context, host string, limit int) ([]models.ReceivedEnvelope, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `SELECT host, tick, sent_at, received_at, remote_addr, payload
		FROM envelopes WHERE host = $1
		ORDER BY received_at DESC, id DESC LIMIT $2`
	rows, err := storage.db.QueryContext(ctx, query, host, limit)
	if err != nil {
		return nil, fmt.Errorf("error retrieving envelopes: %w", err)
	}
	defer rows.Close()

	var envelopes []models.ReceivedEnvelope
	for rows.Next() {
		var envelope models.ReceivedEnvelope
		var tick int64

		err = rows.Scan(&envelope.Host, &tick, &envelope.Timestamp,
			&envelope.ReceivedAt, &envelope.RemoteAddr, &envelope.Raw)
		if err != nil {
			return nil, fmt.Errorf("error scanning envelope: %w", err)
		}
		envelope.Tick = uint64(tick)

		var dto models.EnvelopeDTO
		if err := json.Unmarshal(envelope.Raw, &dto); err == nil {
			envelope.Samples = dto.Samples
		}
		envelopes = append(envelopes, envelope)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over envelopes: %w", err)
	}
	if len(envelopes) == 0 {
		return nil, internalerrors.ErrHostNotFound
	}

	return envelopes, nil
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerrors.ErrStorageUnavailable, err)
	}
	return nil
}
