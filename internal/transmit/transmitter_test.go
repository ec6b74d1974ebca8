package transmit

import (
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	t.Cleanup(func() { logger.Sync() })
	return logger.Sugar()
}

func testListener(t *testing.T) (*net.UDPConn, int) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr).Port
}

func TestTransmitter_SendAndReceive(t *testing.T) {
	listener, port := testListener(t)

	transmitter, err := NewTransmitter(testLogger(t), "127.0.0.1", port, time.Second)
	require.NoError(t, err)
	defer transmitter.Close()

	envelope := models.Envelope{
		Host:      "web-01",
		Tick:      1,
		Timestamp: time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC),
		Samples: []models.MetricSample{{
			Source: models.SourceUptime,
			Fields: []models.Field{{Name: "seconds_since_boot", Value: uint64(3600)}},
		}},
	}
	require.NoError(t, transmitter.Send(envelope))

	// Read the datagram back and verify it is the exact wire form
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, models.MaxDatagramBytes)
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, string(MarshalEnvelope(envelope)), string(buf[:n]))

	var decoded models.EnvelopeDTO
	require.NoError(t, json.Unmarshal(buf[:n], &decoded))
	assert.Equal(t, "web-01", decoded.Host)

	stats := transmitter.Stats()
	assert.Equal(t, uint64(1), stats.Sent)
	assert.Equal(t, uint64(0), stats.Failed)
	assert.Equal(t, uint64(n), stats.SentBytes)
}

func TestTransmitter_OversizeEnvelopeDropped(t *testing.T) {
	_, port := testListener(t)

	transmitter, err := NewTransmitter(testLogger(t), "127.0.0.1", port, time.Second)
	require.NoError(t, err)
	defer transmitter.Close()

	envelope := models.Envelope{
		Host:      "web-01",
		Tick:      2,
		Timestamp: time.Now(),
		Samples: []models.MetricSample{{
			Source: models.SourceSmart,
			Fields: []models.Field{{Name: "blob", Value: strings.Repeat("x", models.MaxDatagramBytes)}},
		}},
	}

	// The drop is deliberate and silent towards the caller
	require.NoError(t, transmitter.Send(envelope))

	stats := transmitter.Stats()
	assert.Equal(t, uint64(0), stats.Sent)
	assert.Equal(t, uint64(1), stats.OversizeDrops)
}

func TestTransmitter_UnreachableDestinationIsNotFatal(t *testing.T) {
	// Grab a port with no listener behind it
	probe, port := testListener(t)
	probe.Close()

	transmitter, err := NewTransmitter(testLogger(t), "127.0.0.1", port, time.Second)
	require.NoError(t, err)
	defer transmitter.Close()

	envelope := models.Envelope{Host: "h", Tick: 1, Timestamp: time.Now(), Samples: []models.MetricSample{}}

	// Writes may surface a refusal on some kernels; the transmitter must
	// stay usable either way
	for i := 0; i < 3; i++ {
		transmitter.Send(envelope)
	}
	stats := transmitter.Stats()
	assert.Equal(t, uint64(3), stats.Sent+stats.Failed)
}

func TestNewTransmitter_BadAddress(t *testing.T) {
	_, err := NewTransmitter(testLogger(t), "127.0.0.1", 999999, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerrors.ErrBadAddress)
}
