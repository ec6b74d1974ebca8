// Package journal streams received envelopes to side destinations of the
// collector endpoint.
//
// It implements a publish-subscribe pattern for distributing envelopes to
// multiple destinations including files and HTTP endpoints.
package journal

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/m-aksenov/tinymon/internal/config"
	models "github.com/m-aksenov/tinymon/internal/model"
)

// Recorder is an interface for handing received envelopes to the journal stream.
type Recorder interface {
	// Record submits an envelope to the journal without blocking.
	Record(envelope models.ReceivedEnvelope)
}

// recorder is a concrete implementation of Recorder that sends envelopes to a channel.
type recorder struct {
	eventChan chan models.ReceivedEnvelope
}

// NewRecorder creates a new Recorder that sends envelopes to the provided channel.
func NewRecorder(eventChan chan models.ReceivedEnvelope) Recorder {
	return &recorder{
		eventChan: eventChan,
	}
}

// Record submits the envelope to the journal channel.
func (r *recorder) Record(envelope models.ReceivedEnvelope) {
	select {
	case r.eventChan <- envelope:
		// Envelope sent successfully
	default:
		// Channel is full, drop the envelope to keep the ingest loop moving
		fmt.Printf("Recorder: dropped envelope, channel is full\n")
	}
}

// Broadcaster distributes envelopes to multiple subscriber channels.
//
// It receives envelopes from a source channel and sends them to all provided
// subscriber channels using select with default case to prevent blocking and
// goroutine leaks.
func Broadcaster(source <-chan models.ReceivedEnvelope, subs ...chan<- models.ReceivedEnvelope) {
	for evt := range source {
		for _, subChan := range subs {
			select {
			case subChan <- evt:
				// Envelope sent successfully
			default:
				// Channel is blocked, discard envelope to prevent goroutine leak
				fmt.Printf("Broadcaster: dropped envelope for blocked subscriber channel\n")
			}
		}
	}
}

// FileSubscriber appends envelopes to the journal file, one raw datagram
// per line.
func FileSubscriber(events <-chan models.ReceivedEnvelope, config config.ServerConfig) {
	for evt := range events {
		f, err := os.OpenFile(config.JournalFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("FileSubscriber: не удалось открыть файл %s: %v\n", config.JournalFile, err)
			continue
		}
		_, err = f.WriteString(string(evt.Raw) + "\n")
		if err != nil {
			fmt.Printf("FileSubscriber: ошибка записи в файл: %v\n", err)
		}
		f.Close()
	}
}

// ForwardSubscriber re-posts each envelope's raw datagram to another
// collector endpoint over HTTP.
func ForwardSubscriber(events <-chan models.ReceivedEnvelope, config config.ServerConfig) {
	for evt := range events {
		resp, err := http.Post(config.ForwardURL, "application/json", bytes.NewBuffer(evt.Raw))
		if err != nil {
			fmt.Printf("ForwardSubscriber: ошибка отправки запроса на %s: %v\n", config.ForwardURL, err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
