package mqtt

import (
	"fmt"
	"strings"
)

// Device topic channels. A device topic is
// {prefix}/{room}/{kind}/{index}/{channel}.
const (
	ChannelValue   = "value"
	ChannelCommand = "cmd"
	ChannelStatus  = "status"
)

// deviceTopicSegments is room, kind, index and channel.
const deviceTopicSegments = 4

// Topics builds the campus topic names that are not taken from the registry:
// the advertised device layout and the service presence topic.
//
//	topics := mqtt.NewTopics("polito/smartcampus")
//	topics.Structure()
//	// Returns: "polito/smartcampus/{room}/{kind}/{index}"
type Topics struct {
	prefix string
}

// NewTopics returns builders for the given prefix. Surrounding slashes are trimmed.
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.Trim(prefix, "/")}
}

// Prefix returns the topic prefix without a trailing slash.
func (t Topics) Prefix() string {
	return t.prefix
}

// Structure documents the device topic layout. It is advertised in the
// broker's service entry so devices can build their own topics.
func (t Topics) Structure() string {
	return t.join("{room}", "{kind}", "{index}")
}

// Status returns the presence topic of a service client (LWT target).
//
// Example: smartcampus/system/roomclimate/status
func (t Topics) Status(clientID string) string {
	return t.join("system", clientID, ChannelStatus)
}

func (t Topics) join(parts ...string) string {
	if t.prefix == "" {
		return strings.Join(parts, "/")
	}
	return t.prefix + "/" + strings.Join(parts, "/")
}

// DeviceTopic is a parsed device topic.
type DeviceTopic struct {
	Room    string
	Kind    string
	Index   string
	Channel string
}

// ParseDeviceTopic splits a device topic into its addressing segments.
//
// The prefix may itself contain slashes, so segments are taken from the end
// of the topic: the last four are room, kind, index and channel.
//
// Returns:
//   - DeviceTopic: The parsed segments
//   - error: ErrMalformedTopic if there are too few or empty segments
func ParseDeviceTopic(topic string) (DeviceTopic, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < deviceTopicSegments {
		return DeviceTopic{}, fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}
	tail := parts[len(parts)-deviceTopicSegments:]
	for _, p := range tail {
		if p == "" {
			return DeviceTopic{}, fmt.Errorf("%w: empty segment in %q", ErrMalformedTopic, topic)
		}
	}
	return DeviceTopic{
		Room:    tail[0],
		Kind:    tail[1],
		Index:   tail[2],
		Channel: tail[3],
	}, nil
}
