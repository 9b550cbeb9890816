package control

import (
	"sort"
	"sync"
	"time"
)

// Reading is the latest value from one sensor.
//
// ReceivedAt is the loop's clock at arrival and is the only field used for
// ordering; SensorTimestamp is kept for display but never trusted.
type Reading struct {
	SensorID        string    `json:"sensor_id"`
	Value           float64   `json:"value"`
	Unit            string    `json:"unit"`
	SensorTimestamp float64   `json:"sensor_timestamp"`
	ReceivedAt      time.Time `json:"received_at"`
}

// Snapshot is room → kind → index → latest reading.
type Snapshot map[string]map[string]map[string]Reading

// Latest returns the most recently received reading of kind in room across all indexes.
func (s Snapshot) Latest(room, kind string) (Reading, bool) {
	var (
		latest Reading
		found  bool
	)
	for _, r := range s[room][kind] {
		if !found || r.ReceivedAt.After(latest.ReceivedAt) {
			latest = r
			found = true
		}
	}
	return latest, found
}

// LatestValue is Latest reduced to a pointer to the value, nil when absent.
func (s Snapshot) LatestValue(room, kind string) *float64 {
	r, ok := s.Latest(room, kind)
	if !ok {
		return nil
	}
	v := r.Value
	return &v
}

// Rooms returns the rooms present in the snapshot, sorted.
func (s Snapshot) Rooms() []string {
	rooms := make([]string, 0, len(s))
	for room := range s {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// TelemetryCache holds the latest reading per (room, kind, index).
//
// Record overwrites; there is no history or averaging. Snapshot returns a
// deep copy taken under the same lock, so a reader never sees a nested level
// that is mid-update.
type TelemetryCache struct {
	mu   sync.Mutex
	data Snapshot
}

// NewTelemetryCache creates an empty cache.
func NewTelemetryCache() *TelemetryCache {
	return &TelemetryCache{data: make(Snapshot)}
}

// Record stores r as the latest reading for (room, kind, index).
func (c *TelemetryCache) Record(room, kind, index string, r Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds, ok := c.data[room]
	if !ok {
		kinds = make(map[string]map[string]Reading)
		c.data[room] = kinds
	}
	indexes, ok := kinds[kind]
	if !ok {
		indexes = make(map[string]Reading)
		kinds[kind] = indexes
	}
	indexes[index] = r
}

// Snapshot returns a consistent deep copy of the cache.
func (c *TelemetryCache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := make(Snapshot, len(c.data))
	for room, kinds := range c.data {
		kindsCopy := make(map[string]map[string]Reading, len(kinds))
		for kind, indexes := range kinds {
			indexesCopy := make(map[string]Reading, len(indexes))
			for index, r := range indexes {
				indexesCopy[index] = r
			}
			kindsCopy[kind] = indexesCopy
		}
		snap[room] = kindsCopy
	}
	return snap
}
