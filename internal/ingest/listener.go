// Package ingest receives metric envelopes over UDP and feeds them to the
// service layer.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	"github.com/m-aksenov/tinymon/internal/journal"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/m-aksenov/tinymon/internal/service"
	"go.uber.org/zap"
)

// Listener owns the UDP socket the agents send to. Malformed datagrams are
// logged and dropped without disturbing the receive loop.
type Listener struct {
	logger   *zap.SugaredLogger
	conn     *net.UDPConn
	service  *service.EnvelopeService
	recorder journal.Recorder
}

// NewListener binds the ingest socket on the given port. A recorder of nil
// disables journaling.
func NewListener(logger *zap.SugaredLogger, port int, svc *service.EnvelopeService, recorder journal.Recorder) (*Listener, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("%w: resolving listen port %d: %v", internalerrors.ErrBadAddress, port, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: binding udp port %d: %v", internalerrors.ErrBadAddress, port, err)
	}

	return &Listener{
		logger:   logger,
		conn:     conn,
		service:  svc,
		recorder: recorder,
	}, nil
}

// Addr reports the bound listen address.
func (l *Listener) Addr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Run reads datagrams until the context is canceled. Each datagram is decoded,
// handed to the service and journaled; decode and storage failures only skip
// the offending datagram.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, models.MaxDatagramBytes)
	for {
		n, remote, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error reading datagram: %w", err)
		}
		l.handle(ctx, buf[:n], remote)
	}
}

func (l *Listener) handle(ctx context.Context, payload []byte, remote *net.UDPAddr) {
	envelope, err := decodeEnvelope(payload, remote.String(), time.Now())
	if err != nil {
		l.logger.Warnw("Dropping datagram", "remote", remote.String(), "error", err)
		return
	}

	if err := l.service.Intake(ctx, envelope); err != nil {
		l.logger.Warnw("Storing envelope failed", "host", envelope.Host, "tick", envelope.Tick, "error", err)
		return
	}

	if l.recorder != nil {
		l.recorder.Record(envelope)
	}
}

// decodeEnvelope turns a datagram into a ReceivedEnvelope. The sender's
// timestamp falls back to the receive instant when it does not parse, so a
// clock-skewed agent still gets its envelope stored.
func decodeEnvelope(payload []byte, remoteAddr string, receivedAt time.Time) (models.ReceivedEnvelope, error) {
	var dto models.EnvelopeDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return models.ReceivedEnvelope{}, fmt.Errorf("%w: %v", internalerrors.ErrMalformedEnvelope, err)
	}
	if dto.Host == "" {
		return models.ReceivedEnvelope{}, fmt.Errorf("%w: missing host", internalerrors.ErrMalformedEnvelope)
	}

	timestamp, err := time.Parse(time.RFC3339, dto.Timestamp)
	if err != nil {
		timestamp = receivedAt
	}

	raw := make([]byte, len(payload))
	copy(raw, payload)

	return models.ReceivedEnvelope{
		Host:       dto.Host,
		Tick:       dto.Tick,
		Timestamp:  timestamp,
		Samples:    dto.Samples,
		RemoteAddr: remoteAddr,
		ReceivedAt: receivedAt,
		Raw:        raw,
	}, nil
}
