package transmit

import (
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	"go.uber.org/zap"
)

// DefaultSendTimeout bounds a single datagram write.
const DefaultSendTimeout = time.Second

// Stats is a snapshot of the transmitter's delivery counters.
type Stats struct {
	// Sent counts datagrams handed to the socket
	Sent uint64

	// Failed counts write errors
	Failed uint64

	// OversizeDrops counts envelopes too large for one datagram
	OversizeDrops uint64

	// SentBytes counts payload bytes written
	SentBytes uint64
}

// Transmitter sends envelopes to one destination over a connected UDP
// socket opened once at construction. Delivery is fire and forget: errors
// are counted and reported to the caller for logging, never fatal.
type Transmitter struct {
	logger      *zap.SugaredLogger
	conn        *net.UDPConn
	sendTimeout time.Duration

	sent          atomic.Uint64
	failed        atomic.Uint64
	oversizeDrops atomic.Uint64
	sentBytes     atomic.Uint64
}

// NewTransmitter resolves the destination and opens the socket. A name or
// address that cannot be resolved is a configuration error; the agent must
// stop before its first tick.
func NewTransmitter(logger *zap.SugaredLogger, host string, port int, sendTimeout time.Duration) (*Transmitter, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerrors.ErrBadAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerrors.ErrBadAddress, err)
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Transmitter{
		logger:      logger,
		conn:        conn,
		sendTimeout: sendTimeout,
	}, nil
}

// Send serializes the envelope and writes it as one datagram. An envelope
// exceeding the datagram bound is dropped with a warning, never chunked.
func (t *Transmitter) Send(envelope models.Envelope) error {
	payload := MarshalEnvelope(envelope)
	if len(payload) > models.MaxDatagramBytes {
		t.oversizeDrops.Add(1)
		t.logger.Warnw("envelope exceeds datagram bound, dropped",
			"tick", envelope.Tick, "bytes", len(payload), "limit", models.MaxDatagramBytes)
		return nil
	}

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.sendTimeout)); err != nil {
		t.failed.Add(1)
		return fmt.Errorf("arming send deadline: %w", err)
	}
	n, err := t.conn.Write(payload)
	if err != nil {
		t.failed.Add(1)
		return fmt.Errorf("sending envelope: %w", err)
	}
	t.sent.Add(1)
	t.sentBytes.Add(uint64(n))
	return nil
}

// Stats returns the current delivery counters.
func (t *Transmitter) Stats() Stats {
	return Stats{
		Sent:          t.sent.Load(),
		Failed:        t.failed.Load(),
		OversizeDrops: t.oversizeDrops.Load(),
		SentBytes:     t.sentBytes.Load(),
	}
}

// Close releases the socket.
func (t *Transmitter) Close() error {
	return t.conn.Close()
}
