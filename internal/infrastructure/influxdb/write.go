package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementTelemetry = "telemetry"
	measurementRoom      = "room_conditions"
)

// WriteReading records one sensor reading.
//
// Tags are low-cardinality addressing (room, kind, index, sensor id); the
// value and unit are fields. The timestamp is the arrival time, not the
// sensor's own clock.
//
// Example:
//
//	client.WriteReading("R1", "thermal", "1", "R1_thermal_sensor_1", "C", 23.4, time.Now())
func (c *Client) WriteReading(room, kind, index, sensorID, unit string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(readingPoint(room, kind, index, sensorID, unit, value, at))
	c.points.Add(1)
}

// WriteRoomConditions records the inputs the policy saw for one room in one
// cycle. Nil values are omitted; a point with no fields is not written.
func (c *Client) WriteRoomConditions(room string, temperature, occupants *float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	if p := roomPoint(room, temperature, occupants, at); p != nil {
		c.writeAPI.WritePoint(p)
		c.points.Add(1)
	}
}

func readingPoint(room, kind, index, sensorID, unit string, value float64, at time.Time) *write.Point {
	return write.NewPoint(
		measurementTelemetry,
		map[string]string{
			"room":      room,
			"kind":      kind,
			"index":     index,
			"sensor_id": sensorID,
		},
		map[string]interface{}{
			"value": value,
			"unit":  unit,
		},
		at,
	)
}

func roomPoint(room string, temperature, occupants *float64, at time.Time) *write.Point {
	fields := make(map[string]interface{}, 2)
	if temperature != nil {
		fields["temperature"] = *temperature
	}
	if occupants != nil {
		fields["occupants"] = *occupants
	}
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(measurementRoom, map[string]string{"room": room}, fields, at)
}
