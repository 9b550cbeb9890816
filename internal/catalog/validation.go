package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validation limits.
const (
	maxIDLength    = 128
	maxResources   = 32
	maxTopicLength = 256
)

// requiredDeviceFields is checked in order; the first missing one is reported.
var requiredDeviceFields = []string{"id", "type", "resources", "mqtt_topics", "location"}

var requiredLocationFields = []string{"campus", "building", "floor", "room"}

var requiredServiceFields = []string{"id", "service_type", "endpoint"}

var validTopicKeys = map[string]struct{}{
	TopicValue:   {},
	TopicCommand: {},
	TopicStatus:  {},
}

// DecodeDevice parses a device document received at the boundary.
//
// Presence of required fields is checked before decoding so the error names
// the first missing field in the order id, type, resources, mqtt_topics,
// location, location.campus, location.building, location.floor, location.room.
// The kind is normalised and a missing role is inferred from the topics.
//
// Returns:
//   - *Device: Validated device
//   - error: Wrapping ErrInvalidDevice on any failure
func DecodeDevice(data []byte) (*Device, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidDevice, err)
	}
	if name := firstMissing(fields, requiredDeviceFields); name != "" {
		return nil, fmt.Errorf("%w: missing required field: %s", ErrInvalidDevice, name)
	}

	var loc map[string]json.RawMessage
	if err := json.Unmarshal(fields["location"], &loc); err != nil {
		return nil, fmt.Errorf("%w: location must be an object", ErrInvalidDevice)
	}
	if name := firstMissing(loc, requiredLocationFields); name != "" {
		return nil, fmt.Errorf("%w: missing location info: %s", ErrInvalidDevice, name)
	}

	var d Device
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDevice, err)
	}
	d.Normalise()

	if err := ValidateDevice(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Normalise maps legacy kind names onto the canonical kinds and infers a
// missing role from the registered topics.
func (d *Device) Normalise() {
	d.Kind = NormaliseKind(string(d.Kind))
	if d.Role == "" {
		d.Role = inferRole(d.Topics)
	}
}

// DecodeService parses a service document received at the boundary.
func DecodeService(data []byte) (*Service, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidService, err)
	}
	if name := firstMissing(fields, requiredServiceFields); name != "" {
		return nil, fmt.Errorf("%w: missing required field: %s", ErrInvalidService, name)
	}

	var s Service
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidService, err)
	}
	if err := ValidateService(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateDevice checks the invariants of a decoded device.
// Returns an error describing the first validation failure found.
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}
	if len(d.ID) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidDevice, maxIDLength)
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, d.Kind)
	}
	if len(d.Resources) > maxResources {
		return fmt.Errorf("%w: more than %d resources", ErrInvalidDevice, maxResources)
	}
	if d.Location.Room == "" {
		return fmt.Errorf("%w: location.room must not be empty", ErrInvalidDevice)
	}

	for key, topic := range d.Topics {
		if _, ok := validTopicKeys[key]; !ok {
			return fmt.Errorf("%w: unknown mqtt_topics key %q", ErrInvalidDevice, key)
		}
		if topic == "" || len(topic) > maxTopicLength {
			return fmt.Errorf("%w: mqtt_topics.%s is empty or too long", ErrInvalidDevice, key)
		}
		// Registered topics are subscribed to and published on verbatim.
		if strings.ContainsAny(topic, "+#\x00") {
			return fmt.Errorf("%w: mqtt_topics.%s must not contain wildcards", ErrInvalidDevice, key)
		}
	}

	switch d.Role {
	case RoleSensor:
		if d.Topics[TopicValue] == "" {
			return fmt.Errorf("%w: sensor requires mqtt_topics.val", ErrInvalidDevice)
		}
	case RoleActuator:
		if d.Topics[TopicCommand] == "" {
			return fmt.Errorf("%w: actuator requires mqtt_topics.cmd", ErrInvalidDevice)
		}
	case "":
		return fmt.Errorf("%w: role cannot be inferred without val or cmd topic", ErrInvalidDevice)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidDevice, d.Role)
	}
	return nil
}

// ValidateService checks the invariants of a decoded service.
func ValidateService(s *Service) error {
	if s == nil {
		return ErrInvalidService
	}
	if s.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidService)
	}
	if len(s.ID) > maxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidService, maxIDLength)
	}
	if s.ServiceType == "" {
		return fmt.Errorf("%w: service_type is required", ErrInvalidService)
	}
	if s.Endpoint == nil {
		return fmt.Errorf("%w: endpoint must be an object", ErrInvalidService)
	}
	return nil
}

// inferRole derives the role from the topics a device registered.
// A value topic makes it a sensor; a command topic alone makes it an actuator.
func inferRole(topics map[string]string) Role {
	switch {
	case topics[TopicValue] != "":
		return RoleSensor
	case topics[TopicCommand] != "":
		return RoleActuator
	default:
		return ""
	}
}

func firstMissing(fields map[string]json.RawMessage, required []string) string {
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			return name
		}
	}
	return ""
}
