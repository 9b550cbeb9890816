package control

import (
	"context"
	"time"

	"github.com/nerrad567/roomclimate/internal/catalog"
	"github.com/nerrad567/roomclimate/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the control loop.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceSource lists registered devices.
// Satisfied by *catalog.Registry in-process and by *RegistryClient over HTTP.
type DeviceSource interface {
	ListDevices(ctx context.Context, filter catalog.DeviceFilter) ([]catalog.Device, error)
}

// Publisher sends a JSON command on the bus. Satisfied by *mqtt.Client.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// Subscriber manages telemetry subscriptions. Satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Broadcaster pushes live updates to connected dashboards.
// Satisfied by *api.Hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// TelemetryWriter records history outside the control path.
// Satisfied by *influxdb.Client.
type TelemetryWriter interface {
	WriteReading(room, kind, index, sensorID, unit string, value float64, at time.Time)
	WriteRoomConditions(room string, temperature, occupants *float64, at time.Time)
}

// Broadcast channels.
const (
	ChannelDashboard = "dashboard"
	ChannelCommands  = "commands"
)
