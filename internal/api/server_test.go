package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/roomclimate/internal/auth"
	"github.com/nerrad567/roomclimate/internal/catalog"
	"github.com/nerrad567/roomclimate/internal/control"
	"github.com/nerrad567/roomclimate/internal/infrastructure/config"
	"github.com/nerrad567/roomclimate/internal/infrastructure/logging"
	"github.com/nerrad567/roomclimate/internal/infrastructure/mqtt"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

const sensorBody = `{
	"id": "R1_thermal_sensor_1",
	"type": "thermal",
	"resources": ["val"],
	"mqtt_topics": {"val": "smartcampus/R1/thermal/1/value"},
	"location": {"campus": "C", "building": "B1", "floor": "1", "room": "R1"}
}`

const actuatorBody = `{
	"id": "R1_thermal_actuator_1",
	"type": "thermal",
	"resources": ["cmd"],
	"mqtt_topics": {"cmd": "smartcampus/R1/thermal/1/cmd"},
	"location": {"campus": "C", "building": "B1", "floor": "1", "room": "R1"}
}`

const occupancyBody = `{
	"id": "R2_occupancy_sensor_1",
	"type": "wifi",
	"resources": ["val"],
	"mqtt_topics": {"val": "smartcampus/R2/occupancy/1/value"},
	"location": {"campus": "C", "building": "B1", "floor": "2", "room": "R2"}
}`

// failingStore loads an empty document and rejects every replace.
type failingStore struct{}

func (failingStore) Load(context.Context) (*catalog.Document, error) {
	return catalog.NewDocument(), nil
}

func (failingStore) Replace(context.Context, *catalog.Document) error {
	return errors.New("disk full")
}

// fakeControl is a canned ControlView.
type fakeControl struct{}

func (fakeControl) DashboardNow() []control.RoomStatus {
	temp := 24.5
	return []control.RoomStatus{{RoomID: "R1", Capacity: 100, Available: true, Temperature: &temp}}
}

func (fakeControl) Snapshot() control.Snapshot {
	return control.Snapshot{"R1": {"thermal": {"1": {SensorID: "s1", Value: 24.5, Unit: "C"}}}}
}

func (fakeControl) States() map[string]control.RoomControlState {
	on := true
	return map[string]control.RoomControlState{"R1": {ShouldOn: &on, LastCmdSentOn: &on}}
}

func (fakeControl) Stats() control.LoopStats {
	return control.LoopStats{Cycles: 3, Subscriptions: 2}
}

// fakeBus reports fixed transport counters.
type fakeBus struct{}

func (fakeBus) Stats() mqtt.Stats {
	return mqtt.Stats{Connected: true, Subscriptions: 2, Received: 40}
}

type serverOption func(*Deps)

func withSecurity(sec config.SecurityConfig) serverOption {
	return func(d *Deps) { d.Security = sec }
}

func withStore(store catalog.Store) serverOption {
	return func(d *Deps) {
		reg := catalog.NewRegistry(store, catalog.ProjectInfo{SiteID: "test"}, nil)
		if err := reg.Load(context.Background()); err != nil {
			panic(err)
		}
		d.Registry = reg
	}
}

func withChecks(checks map[string]HealthCheck) serverOption {
	return func(d *Deps) { d.Checks = checks }
}

// testServer creates a Server with a file-backed registry and a canned control view.
func testServer(t *testing.T, opts ...serverOption) (*Server, http.Handler) {
	t.Helper()

	reg := catalog.NewRegistry(
		catalog.NewFileStore(filepath.Join(t.TempDir(), "directory.json")),
		catalog.ProjectInfo{SiteID: "test"},
		[]catalog.Service{
			catalog.BrokerService("localhost", 1883, "smartcampus", "smartcampus/{room}/{kind}/{index}"),
			catalog.RegistryService("http://localhost:8080/api"),
		},
	)
	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	deps := Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		APIPrefix: "/api",
		Logger:    logging.Discard(),
		Registry:  reg,
		Control:   fakeControl{},
		Bus:       fakeBus{},
		Version:   "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.hub = NewHub(srv.wsCfg, srv.logger)
	go srv.hub.Run(ctx)

	return srv, srv.buildRouter()
}

// do sends one request through the router.
func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

// ─── Construction ──────────────────────────────────────────────────

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{Registry: &catalog.Registry{}}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Error("New() without registry or control view should fail")
	}
}

// ─── Health and Middleware ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	resp := decode[healthResponse](t, w)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_FailingCheck(t *testing.T) {
	_, h := testServer(t, withChecks(map[string]HealthCheck{
		"mqtt":     func(context.Context) error { return errors.New("not connected") },
		"registry": func(context.Context) error { return nil },
	}))

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d, want 503", w.Code)
	}
	resp := decode[healthResponse](t, w)
	if resp.Status != "degraded" || resp.Checks["mqtt"] != "not connected" || resp.Checks["registry"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestRequestID(t *testing.T) {
	_, h := testServer(t)

	if w := do(t, h, http.MethodGet, "/health", ""); w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
	w := do(t, h, http.MethodGet, "/health", "", "X-Request-ID", "client-123")
	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestRequestID_RejectsOversizedHeader(t *testing.T) {
	_, h := testServer(t)

	long := strings.Repeat("a", maxRequestIDLength+1)
	w := do(t, h, http.MethodGet, "/health", "", "X-Request-ID", long)
	if got := w.Header().Get("X-Request-ID"); got == long || got == "" {
		t.Errorf("X-Request-ID = %q, want a generated id", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{
			name:    "panic before writing",
			handler: func(http.ResponseWriter, *http.Request) { panic("boom") },
			want:    http.StatusInternalServerError,
		},
		{
			name: "panic after writing",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				panic("boom")
			},
			want: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h := s.loggingMiddleware(s.recoveryMiddleware(tt.handler))
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStatusWriter_CountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusTeapot)
	fmt.Fprint(sw, "hello")

	if sw.status != http.StatusCreated || sw.written != 5 {
		t.Errorf("statusWriter = status %d, written %d; want 201, 5", sw.status, sw.written)
	}
}

func TestCORS_NoOriginPassesThrough(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, http.MethodGet, "/health", "")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, http.MethodOptions, "/api/devices", "", "Origin", "http://dashboard.local")
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestBodySizeLimit(t *testing.T) {
	_, h := testServer(t)

	big := `{"id":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	w := do(t, h, http.MethodPost, "/api/devices", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

// ─── Devices ───────────────────────────────────────────────────────

func TestCreateDevice_CreatedThenUpdated(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, http.MethodPost, "/api/devices", sensorBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("first POST status = %d, want 201: %s", w.Code, w.Body)
	}
	if got := decode[idResponse](t, w); got.ID != "R1_thermal_sensor_1" {
		t.Errorf("id = %q", got.ID)
	}

	w = do(t, h, http.MethodPost, "/api/devices", sensorBody)
	if w.Code != http.StatusOK {
		t.Errorf("second POST status = %d, want 200", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/devices/R1_thermal_sensor_1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	d := decode[catalog.Device](t, w)
	if d.Role != catalog.RoleSensor || d.Topic(catalog.TopicValue) != "smartcampus/R1/thermal/1/value" {
		t.Errorf("device = %+v", d)
	}
}

func TestCreateDevice_Validation(t *testing.T) {
	_, h := testServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing id", `{"type":"thermal"}`, "missing required field: id"},
		{"missing location", `{"id":"x","type":"thermal","resources":[],"mqtt_topics":{"val":"t"}}`, "missing required field: location"},
		{"missing room", `{"id":"x","type":"thermal","resources":[],"mqtt_topics":{"val":"t"},"location":{"campus":"C","building":"B","floor":"1"}}`, "missing location info: room"},
		{"unknown type", strings.Replace(sensorBody, `"thermal"`, `"humidity"`, 1), `unknown type "humidity"`},
		{"wildcard topic", strings.Replace(sensorBody, "smartcampus/R1/thermal/1/value", "a/+/c/d/value", 1), "mqtt_topics.val must not contain wildcards"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/devices", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			resp := decode[Error](t, w)
			if resp.Code != ErrCodeValidation || resp.Message != tt.message {
				t.Errorf("error = %+v, want message %q", resp, tt.message)
			}
		})
	}
}

func TestPutDevice(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, http.MethodPut, "/api/devices/R1_thermal_sensor_1", sensorBody)
	if w.Code != http.StatusCreated {
		t.Errorf("PUT new status = %d, want 201", w.Code)
	}
	w = do(t, h, http.MethodPut, "/api/devices/R1_thermal_sensor_1", sensorBody)
	if w.Code != http.StatusOK {
		t.Errorf("PUT existing status = %d, want 200", w.Code)
	}

	w = do(t, h, http.MethodPut, "/api/devices/other", sensorBody)
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT mismatched id status = %d, want 400", w.Code)
	}
	if resp := decode[Error](t, w); resp.Code != ErrCodeBadRequest {
		t.Errorf("mismatch error code = %q, want %q", resp.Code, ErrCodeBadRequest)
	}
}

func TestListDevices_Filter(t *testing.T) {
	_, h := testServer(t)
	for _, body := range []string{sensorBody, actuatorBody, occupancyBody} {
		if w := do(t, h, http.MethodPost, "/api/devices", body); w.Code != http.StatusCreated {
			t.Fatalf("seed status = %d: %s", w.Code, w.Body)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?room=R1", 2},
		{"?type=occupancy", 1},
		{"?type=wifi", 1},
		{"?room=R1&type=occupancy", 0},
		{"?id=R1_thermal_actuator_1", 1},
	}
	for _, tt := range tests {
		w := do(t, h, http.MethodGet, "/api/devices"+tt.query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", tt.query, w.Code)
		}
		if got := decode[[]catalog.Device](t, w); len(got) != tt.want {
			t.Errorf("GET /api/devices%s = %d devices, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestDeleteDevice(t *testing.T) {
	_, h := testServer(t)
	do(t, h, http.MethodPost, "/api/devices", sensorBody)

	w := do(t, h, http.MethodDelete, "/api/devices/R1_thermal_sensor_1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", w.Code)
	}
	if w = do(t, h, http.MethodGet, "/api/devices/R1_thermal_sensor_1", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", w.Code)
	}
	if w = do(t, h, http.MethodDelete, "/api/devices/R1_thermal_sensor_1", ""); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", w.Code)
	}
}

func TestDeleteDevices_ByFilter(t *testing.T) {
	_, h := testServer(t)
	for _, body := range []string{sensorBody, actuatorBody, occupancyBody} {
		do(t, h, http.MethodPost, "/api/devices", body)
	}

	if w := do(t, h, http.MethodDelete, "/api/devices", ""); w.Code != http.StatusBadRequest {
		t.Errorf("DELETE without criteria status = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/api/devices?room=R9", ""); w.Code != http.StatusNotFound {
		t.Errorf("DELETE no match status = %d, want 404", w.Code)
	}

	w := do(t, h, http.MethodDelete, "/api/devices?room=R1&type=thermal", "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE by filter status = %d: %s", w.Code, w.Body)
	}
	if got := decode[deletedResponse](t, w); got.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", got.Deleted)
	}
	if got := decode[[]catalog.Device](t, do(t, h, http.MethodGet, "/api/devices", "")); len(got) != 1 {
		t.Errorf("remaining = %d, want 1", len(got))
	}
}

func TestCreateDevice_PersistenceFailure(t *testing.T) {
	_, h := testServer(t, withStore(failingStore{}))

	w := do(t, h, http.MethodPost, "/api/devices", sensorBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decode[[]catalog.Device](t, do(t, h, http.MethodGet, "/api/devices", "")); len(got) != 0 {
		t.Errorf("device visible after failed persist: %+v", got)
	}
}

// ─── Services ──────────────────────────────────────────────────────

func TestServices(t *testing.T) {
	_, h := testServer(t)

	body := `{"id":"dash-01","service_type":"dashboard","endpoint":{"url":"http://dash"}}`
	if w := do(t, h, http.MethodPost, "/api/services", body); w.Code != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", w.Code, w.Body)
	}
	if w := do(t, h, http.MethodPost, "/api/services", body); w.Code != http.StatusOK {
		t.Errorf("second POST status = %d, want 200", w.Code)
	}

	services := decode[[]catalog.Service](t, do(t, h, http.MethodGet, "/api/services", ""))
	if len(services) != 3 {
		t.Fatalf("services = %d, want 3", len(services))
	}
	if services[0].ID != catalog.BrokerServiceID || services[2].ID != "dash-01" {
		t.Errorf("order = %s, %s, %s", services[0].ID, services[1].ID, services[2].ID)
	}

	if w := do(t, h, http.MethodGet, "/api/services/"+catalog.RegistryServiceID, ""); w.Code != http.StatusOK {
		t.Errorf("GET computed service status = %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/api/services/"+catalog.BrokerServiceID, ""); w.Code != http.StatusNotFound {
		t.Errorf("DELETE computed service status = %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/api/services/dash-01", ""); w.Code != http.StatusOK {
		t.Errorf("DELETE status = %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/services", `{"id":"x","service_type":"y"}`); w.Code != http.StatusBadRequest {
		t.Errorf("POST without endpoint status = %d, want 400", w.Code)
	}
}

// ─── Auth ──────────────────────────────────────────────────────────

func TestRegistryAuth(t *testing.T) {
	hash, err := auth.HashSecret("controller-secret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	_, h := testServer(t, withSecurity(config.SecurityConfig{
		JWT:     config.JWTConfig{Secret: testJWTSecret, TokenTTL: 5},
		Clients: []config.ClientConfig{{ID: "controller", SecretHash: hash}},
	}))

	if w := do(t, h, http.MethodGet, "/api/devices", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/devices", "", "Authorization", "Bearer nope"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}

	w := do(t, h, http.MethodPost, "/api/auth/token", `{"client_id":"controller","client_secret":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/auth/token", `{"client_id":"controller","client_secret":"controller-secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("token status = %d: %s", w.Code, w.Body)
	}
	tok := decode[tokenResponse](t, w)
	if tok.TokenType != "Bearer" || tok.ExpiresIn != int((5*time.Minute).Seconds()) {
		t.Errorf("token response = %+v", tok)
	}

	if w := do(t, h, http.MethodGet, "/api/devices", "", "Authorization", "Bearer "+tok.AccessToken); w.Code != http.StatusOK {
		t.Errorf("with token status = %d, want 200", w.Code)
	}

	// The read API stays open.
	if w := do(t, h, http.MethodGet, "/", ""); w.Code != http.StatusOK {
		t.Errorf("dashboard status = %d, want 200", w.Code)
	}
}

func TestIssueToken_BodyTooLarge(t *testing.T) {
	_, h := testServer(t, withSecurity(config.SecurityConfig{
		JWT: config.JWTConfig{Secret: testJWTSecret, TokenTTL: 5},
	}))

	big := `{"client_id":"` + strings.Repeat("x", maxRequestBodySize) + `","client_secret":"s"}`
	if w := do(t, h, http.MethodPost, "/api/auth/token", big); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestRegistryAuth_DisabledWithoutSecret(t *testing.T) {
	_, h := testServer(t)
	if w := do(t, h, http.MethodPost, "/api/auth/token", `{"client_id":"a","client_secret":"b"}`); w.Code == http.StatusOK {
		t.Error("token endpoint served without a jwt secret")
	}
}

// ─── Control loop read API ─────────────────────────────────────────

func TestControlReadAPI(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", w.Code)
	}
	rows := decode[[]control.RoomStatus](t, w)
	if len(rows) != 1 || rows[0].RoomID != "R1" || !rows[0].Available {
		t.Errorf("dashboard = %+v", rows)
	}

	snap := decode[control.Snapshot](t, do(t, h, http.MethodGet, "/debug/cache", ""))
	if snap["R1"]["thermal"]["1"].Value != 24.5 {
		t.Errorf("cache = %+v", snap)
	}

	states := decode[map[string]control.RoomControlState](t, do(t, h, http.MethodGet, "/debug/state", ""))
	if s, ok := states["R1"]; !ok || s.ShouldOn == nil || !*s.ShouldOn {
		t.Errorf("state = %+v", states)
	}

	metrics := decode[SystemMetrics](t, do(t, h, http.MethodGet, "/debug/metrics", ""))
	if metrics.Control == nil || metrics.Control.Cycles != 3 || metrics.Devices == nil {
		t.Errorf("metrics = %+v", metrics)
	}
	if metrics.MQTT == nil || metrics.MQTT.Received != 40 {
		t.Errorf("metrics.mqtt = %+v", metrics.MQTT)
	}
}

func TestRegistryOnlyServer(t *testing.T) {
	_, h := testServer(t, func(d *Deps) { d.Control = nil })

	if w := do(t, h, http.MethodGet, "/", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET / on registry-only server = %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/devices", ""); w.Code != http.StatusOK {
		t.Errorf("GET /api/devices = %d, want 200", w.Code)
	}
}

func TestDetail(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		want     string
	}{
		{catalog.ErrInvalidFilter, nil, "no deletion criteria"},
		{fmt.Errorf("%w: device R9_x", catalog.ErrNotFound), catalog.ErrNotFound, "device R9_x"},
		{errors.New("disk full"), nil, "disk full"},
	}
	for _, tt := range tests {
		if got := detail(tt.err, tt.sentinel); got != tt.want {
			t.Errorf("detail(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
