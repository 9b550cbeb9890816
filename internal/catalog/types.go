package catalog

import (
	"maps"
	"slices"
	"strings"
)

// Kind is what a device measures or drives.
type Kind string

// Device kinds.
const (
	KindOccupancy Kind = "occupancy"
	KindThermal   Kind = "thermal"
)

// kindAliases maps legacy type names still sent by older devices.
var kindAliases = map[string]Kind{
	"wifi":        KindOccupancy,
	"temperature": KindThermal,
}

// NormaliseKind resolves legacy aliases; unknown values are returned as-is.
func NormaliseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	if k, ok := kindAliases[s]; ok {
		return k
	}
	return Kind(s)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindOccupancy || k == KindThermal
}

// Role distinguishes devices that publish readings from devices that accept commands.
type Role string

// Device roles.
const (
	RoleSensor   Role = "sensor"
	RoleActuator Role = "actuator"
)

// Topic keys allowed in a device's mqtt_topics map.
const (
	TopicValue   = "val"
	TopicCommand = "cmd"
	TopicStatus  = "status"
)

// Location places a device in the campus hierarchy.
type Location struct {
	Campus   string `json:"campus"`
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Room     string `json:"room"`
}

// Device is one registered sensor or actuator.
type Device struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"type"`
	Role      Role              `json:"role,omitempty"`
	Resources []string          `json:"resources"`
	Topics    map[string]string `json:"mqtt_topics"`
	Location  Location          `json:"location"`

	// UpdateInterval is the publish period in seconds, when the device reports one.
	UpdateInterval *float64 `json:"update_interval,omitempty"`
}

// Topic returns the topic registered under key, or "".
func (d *Device) Topic(key string) string {
	return d.Topics[key]
}

// DeepCopy returns a copy sharing no mutable state with d.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Resources = slices.Clone(d.Resources)
	cp.Topics = maps.Clone(d.Topics)
	if d.UpdateInterval != nil {
		v := *d.UpdateInterval
		cp.UpdateInterval = &v
	}
	return &cp
}

// Service is a registered network service.
type Service struct {
	ID          string         `json:"id"`
	ServiceType string         `json:"service_type"`
	Endpoint    map[string]any `json:"endpoint"`
}

// DeepCopy returns a copy of s. Endpoint values are copied one level deep.
func (s *Service) DeepCopy() *Service {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Endpoint = maps.Clone(s.Endpoint)
	return &cp
}

// ProjectInfo identifies the site the directory belongs to.
type ProjectInfo struct {
	SiteID string `json:"site_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// SystemSettings carries bookkeeping written on every replace.
type SystemSettings struct {
	LastUpdated string `json:"last_updated,omitempty"`
}

// Document is the persisted directory.
type Document struct {
	ProjectInfo    ProjectInfo    `json:"project_info"`
	SystemSettings SystemSettings `json:"system_settings"`
	Devices        []Device       `json:"devices"`
	Services       []Service      `json:"services"`
}

// NewDocument returns an empty directory.
func NewDocument() *Document {
	return &Document{
		Devices:  []Device{},
		Services: []Service{},
	}
}

// Clone returns a deep copy of the document.
func (doc *Document) Clone() *Document {
	cp := &Document{
		ProjectInfo:    doc.ProjectInfo,
		SystemSettings: doc.SystemSettings,
		Devices:        make([]Device, len(doc.Devices)),
		Services:       make([]Service, len(doc.Services)),
	}
	for i := range doc.Devices {
		cp.Devices[i] = *doc.Devices[i].DeepCopy()
	}
	for i := range doc.Services {
		cp.Services[i] = *doc.Services[i].DeepCopy()
	}
	return cp
}

// normalise replaces nil lists so the document always encodes as [].
func (doc *Document) normalise() {
	if doc.Devices == nil {
		doc.Devices = []Device{}
	}
	if doc.Services == nil {
		doc.Services = []Service{}
	}
}

// DeviceFilter selects devices. Empty fields match everything; set fields are ANDed.
type DeviceFilter struct {
	ID   string
	Room string
	Kind string
}

// IsEmpty reports whether the filter names no criteria.
func (f DeviceFilter) IsEmpty() bool {
	return f.ID == "" && f.Room == "" && f.Kind == ""
}

// Matches reports whether d's own fields satisfy the filter.
func (f DeviceFilter) Matches(d *Device) bool {
	if f.ID != "" && d.ID != f.ID {
		return false
	}
	if f.Room != "" && d.Location.Room != f.Room {
		return false
	}
	if f.Kind != "" && d.Kind != NormaliseKind(f.Kind) {
		return false
	}
	return true
}

// matchesID reports whether the room and kind encoded in the device id satisfy
// the filter. Ids that do not follow {room}_{kind}_... never match.
func (f DeviceFilter) matchesID(id string) bool {
	room, kind, ok := ParseDeviceID(id)
	if !ok {
		return false
	}
	if f.ID != "" && id != f.ID {
		return false
	}
	if f.Room != "" && room != f.Room {
		return false
	}
	if f.Kind != "" && kind != NormaliseKind(f.Kind) {
		return false
	}
	return true
}

// ParseDeviceID extracts room and kind from a structured id such as
// "R1_thermal_sensor_1".
func ParseDeviceID(id string) (room string, kind Kind, ok bool) {
	parts := strings.Split(id, "_")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], NormaliseKind(parts[1]), true
}
