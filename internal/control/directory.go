package control

import (
	"sort"

	"github.com/nerrad567/roomclimate/internal/catalog"
)

// TopicDirectory maps rooms to the topics the loop reads and writes.
//
// It is rebuilt wholesale from the device list on every refresh and never
// mutated afterwards, so it can be shared between goroutines once built.
type TopicDirectory struct {
	// Occupancy maps room to the occupancy sensor's value topic.
	Occupancy map[string]string

	// Temperature maps room to the thermal sensor's value topic.
	Temperature map[string]string

	// Commands maps room to the thermal actuator's command topic.
	Commands map[string]string

	// Skipped counts devices that matched none of the three roles.
	Skipped int
}

// BuildTopicDirectory classifies devices by kind and role.
//
// When several devices fill the same room and role, the one listed last wins.
// Devices that are neither an occupancy sensor, a thermal sensor, nor a
// thermal actuator are counted in Skipped.
func BuildTopicDirectory(devices []catalog.Device) *TopicDirectory {
	dir := &TopicDirectory{
		Occupancy:   make(map[string]string),
		Temperature: make(map[string]string),
		Commands:    make(map[string]string),
	}

	for i := range devices {
		d := &devices[i]
		room := d.Location.Room
		if room == "" {
			dir.Skipped++
			continue
		}

		kind := catalog.NormaliseKind(string(d.Kind))
		role := d.Role
		if role == "" {
			role = inferRole(d)
		}

		switch {
		case kind == catalog.KindOccupancy && role == catalog.RoleSensor && d.Topic(catalog.TopicValue) != "":
			dir.Occupancy[room] = d.Topic(catalog.TopicValue)
		case kind == catalog.KindThermal && role == catalog.RoleSensor && d.Topic(catalog.TopicValue) != "":
			dir.Temperature[room] = d.Topic(catalog.TopicValue)
		case kind == catalog.KindThermal && role == catalog.RoleActuator && d.Topic(catalog.TopicCommand) != "":
			dir.Commands[room] = d.Topic(catalog.TopicCommand)
		default:
			dir.Skipped++
		}
	}
	return dir
}

// inferRole covers devices listed by an older registry that did not store a role.
func inferRole(d *catalog.Device) catalog.Role {
	switch {
	case d.Topic(catalog.TopicValue) != "":
		return catalog.RoleSensor
	case d.Topic(catalog.TopicCommand) != "":
		return catalog.RoleActuator
	default:
		return ""
	}
}

// ValueTopics returns every telemetry topic to subscribe to, sorted and de-duplicated.
func (d *TopicDirectory) ValueTopics() []string {
	seen := make(map[string]struct{}, len(d.Occupancy)+len(d.Temperature))
	for _, t := range d.Occupancy {
		seen[t] = struct{}{}
	}
	for _, t := range d.Temperature {
		seen[t] = struct{}{}
	}

	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// CommandTopic returns the actuator command topic for room.
func (d *TopicDirectory) CommandTopic(room string) (string, bool) {
	if d == nil {
		return "", false
	}
	t, ok := d.Commands[room]
	return t, ok
}
