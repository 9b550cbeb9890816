package control

import (
	"strconv"
	"time"

	"github.com/nerrad567/roomclimate/internal/catalog"
)

// Timetable slots: seven 90-minute slots from 08:30 to 19:00.
const (
	slotStartMinute = 8*60 + 30
	slotLength      = 90
	slotCount       = 7
)

// RoomInfo is a room's static metadata.
type RoomInfo struct {
	ID       string
	Building string
	Floor    string
	Type     string
	Capacity int
}

// RoomStatus is one row of the dashboard.
type RoomStatus struct {
	RoomID      string   `json:"room_id"`
	Building    string   `json:"building,omitempty"`
	Floor       string   `json:"floor,omitempty"`
	Type        string   `json:"type,omitempty"`
	Capacity    int      `json:"capacity"`
	Available   bool     `json:"available"`
	Temperature *float64 `json:"temperature,omitempty"`
	Occupants   *float64 `json:"occupants,omitempty"`
}

// Dashboard joins static room metadata, the free-room timetable and the
// latest telemetry into per-room status rows.
type Dashboard struct {
	rooms           []RoomInfo
	schedule        map[string][]string
	loc             *time.Location
	defaultCapacity int
}

// NewDashboard creates a dashboard.
//
// Parameters:
//   - rooms: Configured rooms, listed first and in this order
//   - schedule: Slot ("1".."7") to the rooms free during that slot
//   - loc: Site time zone the timetable is written in
//   - defaultCapacity: Capacity given to rooms seen only on the bus
func NewDashboard(rooms []RoomInfo, schedule map[string][]string, loc *time.Location, defaultCapacity int) *Dashboard {
	if loc == nil {
		loc = time.UTC
	}
	return &Dashboard{
		rooms:           rooms,
		schedule:        schedule,
		loc:             loc,
		defaultCapacity: defaultCapacity,
	}
}

// SlotAt returns the timetable slot containing t, or false outside teaching hours.
// t is read in its own location.
func SlotAt(t time.Time) (string, bool) {
	minute := t.Hour()*60 + t.Minute()
	if minute < slotStartMinute {
		return "", false
	}
	slot := (minute-slotStartMinute)/slotLength + 1
	if slot > slotCount {
		return "", false
	}
	return strconv.Itoa(slot), true
}

// Build returns the configured rooms followed by any other room present in
// snap, each with availability for now and its latest temperature and
// occupancy.
func (d *Dashboard) Build(snap Snapshot, now time.Time) []RoomStatus {
	free := make(map[string]bool)
	if slot, ok := SlotAt(now.In(d.loc)); ok {
		for _, room := range d.schedule[slot] {
			free[room] = true
		}
	}

	known := make(map[string]bool, len(d.rooms))
	out := make([]RoomStatus, 0, len(d.rooms)+len(snap))
	for _, r := range d.rooms {
		known[r.ID] = true
		out = append(out, d.status(r, snap, free))
	}
	for _, room := range snap.Rooms() {
		if known[room] {
			continue
		}
		out = append(out, d.status(RoomInfo{ID: room, Capacity: d.defaultCapacity}, snap, free))
	}
	return out
}

func (d *Dashboard) status(r RoomInfo, snap Snapshot, free map[string]bool) RoomStatus {
	return RoomStatus{
		RoomID:      r.ID,
		Building:    r.Building,
		Floor:       r.Floor,
		Type:        r.Type,
		Capacity:    r.Capacity,
		Available:   free[r.ID],
		Temperature: snap.LatestValue(r.ID, string(catalog.KindThermal)),
		Occupants:   snap.LatestValue(r.ID, string(catalog.KindOccupancy)),
	}
}

// Conditions converts a dashboard row into policy inputs.
func (s RoomStatus) Conditions() RoomConditions {
	capacity := s.Capacity
	return RoomConditions{
		RoomID:      s.RoomID,
		Temperature: s.Temperature,
		Occupants:   s.Occupants,
		Capacity:    &capacity,
	}
}
