package control

import "errors"

// Sentinel errors for the control loop.
var (
	// ErrTransport is returned when a command could not be published.
	// Room state is left unchanged so the next cycle retries.
	ErrTransport = errors.New("control: transport failure")

	// ErrRegistryUnavailable is returned when the device directory could not be listed.
	// The previous topic directory stays in effect.
	ErrRegistryUnavailable = errors.New("control: registry unavailable")

	// ErrMalformedTopic is returned for telemetry on a topic that is not
	// {prefix}/{room}/{kind}/{index}/value.
	ErrMalformedTopic = errors.New("control: malformed telemetry topic")

	// ErrMalformedPayload is returned for telemetry whose body is not {id, v, u, t}.
	ErrMalformedPayload = errors.New("control: malformed telemetry payload")
)
