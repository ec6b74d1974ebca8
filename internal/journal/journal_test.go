package journal

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/m-aksenov/tinymon/internal/config"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journaledEnvelope() models.ReceivedEnvelope {
	return models.ReceivedEnvelope{
		Host:       "web-01",
		Tick:       7,
		Timestamp:  time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
		Samples:    []models.SampleDTO{},
		RemoteAddr: "127.0.0.1:40000",
		ReceivedAt: time.Date(2026, 3, 5, 12, 0, 1, 0, time.UTC),
		Raw:        []byte(`{"host":"web-01","tick":7,"timestamp":"2026-03-05T12:00:00Z","samples":[]}`),
	}
}

func TestRecorder(t *testing.T) {
	// Create a buffered channel so the envelope can be received
	events := make(chan models.ReceivedEnvelope, 1)
	rec := NewRecorder(events)

	envelope := journaledEnvelope()
	rec.Record(envelope)

	received := <-events
	assert.Equal(t, envelope, received)
}

func TestRecorder_FullChannelDoesNotBlock(t *testing.T) {
	// Fill the channel so the second record has nowhere to go
	events := make(chan models.ReceivedEnvelope, 1)
	rec := NewRecorder(events)

	rec.Record(journaledEnvelope())
	rec.Record(journaledEnvelope())

	// The first envelope is retained, the second was dropped
	assert.Len(t, events, 1)
}

func TestBroadcaster(t *testing.T) {
	// Create channels
	source := make(chan models.ReceivedEnvelope)
	// Create buffered channels to ensure envelopes can be received
	sub1 := make(chan models.ReceivedEnvelope, 1)
	sub2 := make(chan models.ReceivedEnvelope, 1)

	// Start the broadcaster
	go Broadcaster(source, sub1, sub2)

	envelope := journaledEnvelope()

	// Send the envelope
	go func() {
		source <- envelope
		close(source)
	}()

	// Receive from subscribers
	received1 := <-sub1
	received2 := <-sub2

	// Check that both subscribers received the same envelope
	assert.Equal(t, envelope, received1)
	assert.Equal(t, envelope, received2)
}

func TestBroadcaster_ChannelBlocking(t *testing.T) {
	// Create channels
	source := make(chan models.ReceivedEnvelope)
	// Create unbuffered channels to simulate blocking subscribers
	sub1 := make(chan models.ReceivedEnvelope)
	sub2 := make(chan models.ReceivedEnvelope)

	// Start the broadcaster
	go Broadcaster(source, sub1, sub2)

	// Send the envelope - this should not block or cause goroutine leaks
	// even though the subscriber channels are unbuffered and have no receiver
	source <- journaledEnvelope()

	// Close the source channel
	close(source)

	// Give the broadcaster time to process
	time.Sleep(100 * time.Millisecond)

	// The test passes if it doesn't deadlock or leak goroutines
}

func TestFileSubscriber(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "journal_test_*.log")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	// Create config with the temp file path
	cfg := config.ServerConfig{
		JournalFile: tmpFile.Name(),
	}

	// Create a channel for envelopes
	events := make(chan models.ReceivedEnvelope)

	// Start the file subscriber in a goroutine
	go FileSubscriber(events, cfg)

	envelope := journaledEnvelope()

	// Send the envelope and close the channel
	events <- envelope
	close(events)

	// Give the subscriber time to process
	time.Sleep(100 * time.Millisecond)

	// The journal holds the raw datagram followed by a newline
	content, err := os.ReadFile(tmpFile.Name())
	require.NoError(t, err)
	assert.Equal(t, string(envelope.Raw)+"\n", string(content))
}

func TestFileSubscriber_AppendsLines(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "journal_test_*.log")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	cfg := config.ServerConfig{
		JournalFile: tmpFile.Name(),
	}

	events := make(chan models.ReceivedEnvelope)
	go FileSubscriber(events, cfg)

	// Send two envelopes and close the channel
	first := journaledEnvelope()
	second := journaledEnvelope()
	second.Tick = 8
	second.Raw = []byte(`{"host":"web-01","tick":8,"timestamp":"2026-03-05T12:00:10Z","samples":[]}`)
	events <- first
	events <- second
	close(events)

	// Give the subscriber time to process
	time.Sleep(100 * time.Millisecond)

	// Both datagrams appear as separate lines in order
	content, err := os.ReadFile(tmpFile.Name())
	require.NoError(t, err)
	assert.Equal(t, string(first.Raw)+"\n"+string(second.Raw)+"\n", string(content))
}

func TestFileSubscriber_FileError(t *testing.T) {
	// Create config with an invalid file path
	cfg := config.ServerConfig{
		JournalFile: "/invalid/path/that/does/not/exist/journal.log",
	}

	// Create a channel for envelopes
	events := make(chan models.ReceivedEnvelope)

	// Start the file subscriber in a goroutine
	go FileSubscriber(events, cfg)

	// Send the envelope and close the channel
	events <- journaledEnvelope()
	close(events)

	// Give the subscriber time to process
	time.Sleep(100 * time.Millisecond)

	// Just ensure the test completes without panicking
}

func TestForwardSubscriber(t *testing.T) {
	// Variable to capture the received body
	var receivedBody []byte

	// Create a test server to receive the envelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check request method and content type
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		// Read the request body
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		receivedBody = body

		// Send response
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Create config with the test server URL
	cfg := config.ServerConfig{
		ForwardURL: server.URL,
	}

	// Create a channel for envelopes
	events := make(chan models.ReceivedEnvelope)

	// Start the forward subscriber in a goroutine
	go ForwardSubscriber(events, cfg)

	envelope := journaledEnvelope()

	// Send the envelope and close the channel
	events <- envelope
	close(events)

	// Give the subscriber time to process
	time.Sleep(100 * time.Millisecond)

	// The raw datagram was re-posted unchanged
	assert.Equal(t, envelope.Raw, receivedBody)
}

func TestForwardSubscriber_NetworkError(t *testing.T) {
	// Create config with an invalid URL
	cfg := config.ServerConfig{
		ForwardURL: "http://invalid.url.that.does.not.exist",
	}

	// Create a channel for envelopes
	events := make(chan models.ReceivedEnvelope)

	// Start the forward subscriber in a goroutine
	go ForwardSubscriber(events, cfg)

	// Send the envelope and close the channel
	events <- journaledEnvelope()
	close(events)

	// Give the subscriber time to process
	time.Sleep(100 * time.Millisecond)

	// Just ensure the test completes without panicking
}
