// Package transmit turns envelopes into JSON datagrams and sends them to
// the collector endpoint over a single long-lived UDP socket.
package transmit

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"sync"
	"time"

	models "github.com/m-aksenov/tinymon/internal/model"
)

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// MarshalEnvelope renders an envelope as JSON with a fully deterministic
// byte layout: envelope keys in host/tick/timestamp/samples order, sample
// keys in source/fields order, fields exactly as ordered in the sample.
// Equal envelopes always produce identical bytes.
func MarshalEnvelope(envelope models.Envelope) []byte {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	buf.WriteString(`{"host":`)
	writeString(buf, envelope.Host)
	buf.WriteString(`,"tick":`)
	buf.WriteString(strconv.FormatUint(envelope.Tick, 10))
	buf.WriteString(`,"timestamp":`)
	writeString(buf, envelope.Timestamp.UTC().Format(time.RFC3339))
	buf.WriteString(`,"samples":[`)
	for i, sample := range envelope.Samples {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeSample(buf, sample)
	}
	buf.WriteString("]}")

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func writeSample(buf *bytes.Buffer, sample models.MetricSample) {
	buf.WriteString(`{"source":`)
	writeString(buf, sample.Source)
	buf.WriteString(`,"fields":{`)
	for i, field := range sample.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, field.Name)
		buf.WriteByte(':')
		writeValue(buf, field.Value)
	}
	buf.WriteString("}}")
}

// writeValue renders a field scalar. Non-finite floats have no JSON form
// and degrade to null rather than poisoning the whole datagram; the same
// applies to any value outside the supported scalar set.
func writeValue(buf *bytes.Buffer, value any) {
	switch v := value.(type) {
	case string:
		writeString(buf, v)
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(v, 10))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			return
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		buf.WriteString("null")
	}
}

func writeString(buf *bytes.Buffer, s string) {
	encoded, _ := json.Marshal(s)
	buf.Write(encoded)
}
