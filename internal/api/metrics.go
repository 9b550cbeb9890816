package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/roomclimate/internal/catalog"
	"github.com/nerrad567/roomclimate/internal/control"
	"github.com/nerrad567/roomclimate/internal/infrastructure/mqtt"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string             `json:"timestamp"`
	Version       string             `json:"version"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Runtime       RuntimeMetrics     `json:"runtime"`
	WebSocket     WSMetrics          `json:"websocket"`
	Devices       *DeviceMetrics     `json:"devices,omitempty"`
	Control       *control.LoopStats `json:"control,omitempty"`
	MQTT          *mqtt.Stats        `json:"mqtt,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int    `json:"connected_clients"`
	DroppedMessages  uint64 `json:"dropped_messages"`
}

// DeviceMetrics contains device directory statistics.
type DeviceMetrics struct {
	Total  int            `json:"total"`
	Rooms  int            `json:"rooms"`
	ByKind map[string]int `json:"by_kind"`
	ByRole map[string]int `json:"by_role"`
}

// handleMetrics returns process, directory and control loop counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
		metrics.WebSocket.DroppedMessages = s.hub.Dropped()
	}

	if s.registry != nil {
		devices, err := s.registry.ListDevices(r.Context(), catalog.DeviceFilter{})
		if err == nil {
			metrics.Devices = deviceMetrics(devices)
		}
	}

	if s.control != nil {
		stats := s.control.Stats()
		metrics.Control = &stats
	}

	if s.bus != nil {
		stats := s.bus.Stats()
		metrics.MQTT = &stats
	}

	writeJSON(w, http.StatusOK, metrics)
}

func deviceMetrics(devices []catalog.Device) *DeviceMetrics {
	m := &DeviceMetrics{
		Total:  len(devices),
		ByKind: make(map[string]int),
		ByRole: make(map[string]int),
	}
	rooms := make(map[string]struct{})
	for i := range devices {
		m.ByKind[string(devices[i].Kind)]++
		m.ByRole[string(devices[i].Role)]++
		rooms[devices[i].Location.Room] = struct{}{}
	}
	m.Rooms = len(rooms)
	return m
}
