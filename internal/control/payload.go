package control

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/roomclimate/internal/catalog"
	"github.com/nerrad567/roomclimate/internal/infrastructure/mqtt"
)

// Message is one telemetry delivery queued between the transport and the cache.
type Message struct {
	Topic      string
	Payload    []byte
	ReceivedAt time.Time
}

// numeric accepts a JSON number or a string holding one.
type numeric float64

func (n *numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = numeric(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = numeric(v)
	return nil
}

// telemetryPayload is the sensor wire format.
type telemetryPayload struct {
	ID string   `json:"id"`
	V  *numeric `json:"v"`
	U  string   `json:"u"`
	T  *numeric `json:"t"`
}

// telemetryKey addresses one cache entry.
type telemetryKey struct {
	Room  string
	Kind  string
	Index string
}

// parseTelemetryTopic extracts room, kind and index from a value topic.
// Legacy kind names are normalised so "temperature" and "thermal" share a slot.
func parseTelemetryTopic(topic string) (telemetryKey, error) {
	dt, err := mqtt.ParseDeviceTopic(topic)
	if err != nil {
		return telemetryKey{}, fmt.Errorf("%w: %w", ErrMalformedTopic, err)
	}
	if dt.Channel != mqtt.ChannelValue {
		return telemetryKey{}, fmt.Errorf("%w: channel %q is not %q", ErrMalformedTopic, dt.Channel, mqtt.ChannelValue)
	}
	return telemetryKey{
		Room:  dt.Room,
		Kind:  string(catalog.NormaliseKind(dt.Kind)),
		Index: dt.Index,
	}, nil
}

// ParseReading decodes a {id, v, u, t} payload. "v" is required.
func ParseReading(payload []byte, receivedAt time.Time) (Reading, error) {
	var p telemetryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.V == nil {
		return Reading{}, fmt.Errorf("%w: missing v", ErrMalformedPayload)
	}

	r := Reading{
		SensorID:   p.ID,
		Value:      float64(*p.V),
		Unit:       p.U,
		ReceivedAt: receivedAt,
	}
	if p.T != nil {
		r.SensorTimestamp = float64(*p.T)
	}
	return r, nil
}
