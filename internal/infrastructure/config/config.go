package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for roomclimate.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig          `yaml:"site"`
	Services   ServicesConfig      `yaml:"services"`
	Registry   RegistryConfig      `yaml:"registry"`
	MQTT       MQTTConfig          `yaml:"mqtt"`
	API        APIConfig           `yaml:"api"`
	WebSocket  WebSocketConfig     `yaml:"websocket"`
	Controller ControllerConfig    `yaml:"controller"`
	Rooms      []RoomConfig        `yaml:"rooms"`
	Schedule   map[string][]string `yaml:"schedule"`
	InfluxDB   InfluxDBConfig      `yaml:"influxdb"`
	Logging    LoggingConfig       `yaml:"logging"`
	Security   SecurityConfig      `yaml:"security"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// ServicesConfig selects which services this process runs.
// Both may run in one process; at least one must be enabled.
type ServicesConfig struct {
	Registry   bool `yaml:"registry"`
	Controller bool `yaml:"controller"`
}

// RegistryConfig contains device/service directory settings.
type RegistryConfig struct {
	// APIPrefix is the route prefix the registry endpoints are mounted under.
	APIPrefix string `yaml:"api_prefix"`

	// PublicURL is advertised in the computed registry service entry.
	// Defaults to http://{api.host}:{api.port}{api_prefix} when empty.
	PublicURL string `yaml:"public_url"`

	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
}

// Store backends.
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
	StoreBackendBolt   = "bolt"
)

// StoreConfig selects the persistence backend for the directory document.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// DatabaseConfig contains SQLite database settings used by the sqlite store backend.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// ControllerConfig contains control loop settings.
type ControllerConfig struct {
	// Interval is the decide cycle period in seconds.
	Interval int `yaml:"interval"`

	// RefreshEvery re-derives the topic directory every N cycles.
	RefreshEvery int `yaml:"refresh_every"`

	// MinCommandInterval is the throttle window between commands to one room, in seconds.
	MinCommandInterval int `yaml:"min_command_interval"`

	// RegistryURL is the registry base URL, including the api prefix.
	// Ignored when the registry runs in the same process.
	RegistryURL string `yaml:"registry_url"`

	// RegistryTimeout bounds a single directory request, in seconds.
	RegistryTimeout int `yaml:"registry_timeout"`

	// InboxSize is the capacity of the telemetry queue between the transport and the cache.
	InboxSize int `yaml:"inbox_size"`

	// IncludeMode adds the season mode to ON commands.
	IncludeMode bool `yaml:"include_mode"`

	// DefaultCapacity applies to rooms seen on the bus but absent from the rooms list.
	DefaultCapacity int `yaml:"default_capacity"`

	Policy PolicyConfig `yaml:"policy"`
}

// PolicyConfig contains the hysteresis thresholds in degrees Celsius.
type PolicyConfig struct {
	CoolOn                  float64 `yaml:"cool_on"`
	CoolOff                 float64 `yaml:"cool_off"`
	HeatOn                  float64 `yaml:"heat_on"`
	HeatOff                 float64 `yaml:"heat_off"`
	HighOccupancyRatio      float64 `yaml:"high_occupancy_ratio"`
	HighOccupancyAdjustment float64 `yaml:"high_occupancy_adjustment"`
}

// RoomConfig describes one room's static metadata.
type RoomConfig struct {
	ID       string `yaml:"id"`
	Building string `yaml:"building"`
	Floor    string `yaml:"floor"`
	Type     string `yaml:"type"`
	Capacity int    `yaml:"capacity"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`

	// Clients may exchange a client secret for a bearer token.
	Clients []ClientConfig `yaml:"clients"`
}

// ClientConfig is one service client allowed to request tokens.
// SecretHash is an Argon2id PHC string, as printed by "roomclimate -hash-secret".
type ClientConfig struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secret_hash"`
}

// JWTConfig contains JWT token settings.
// An empty secret leaves the registry routes unauthenticated.
type JWTConfig struct {
	Secret string `yaml:"secret"`

	// TokenTTL is the lifetime of tokens issued to clients, in minutes.
	TokenTTL int `yaml:"token_ttl"`
}

// MinJWTSecretLength is the shortest accepted HS256 secret.
const MinJWTSecretLength = 32

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ROOMCLIMATE_SECTION_KEY
// For example: ROOMCLIMATE_MQTT_HOST, ROOMCLIMATE_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "campus-001",
			Name:     "Smart Campus",
			Timezone: "UTC",
		},
		Services: ServicesConfig{
			Registry:   true,
			Controller: true,
		},
		Registry: RegistryConfig{
			APIPrefix: "/api",
			Store: StoreConfig{
				Backend: StoreBackendFile,
				Path:    "./data/directory.json",
			},
			Database: DatabaseConfig{
				Path:        "./data/directory.db",
				WALMode:     true,
				BusyTimeout: 5,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "roomclimate",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "smartcampus",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Controller: ControllerConfig{
			Interval:           5,
			RefreshEvery:       6,
			MinCommandInterval: 30,
			RegistryURL:        "http://localhost:8080/api",
			RegistryTimeout:    5,
			InboxSize:          1024,
			DefaultCapacity:    30,
			Policy: PolicyConfig{
				CoolOn:                  26,
				CoolOff:                 24,
				HeatOn:                  20,
				HeatOff:                 22,
				HighOccupancyRatio:      0.6,
				HighOccupancyAdjustment: 1,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				TokenTTL: 60,
			},
		},
	}
}

// envBinding maps one ROOMCLIMATE_* variable onto a config field.
type envBinding struct {
	name  string
	apply func(cfg *Config, value string) error
}

func stringVar(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func intVar(field func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func boolVar(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

// envBindings lists every supported override. Deployment secrets
// (MQTT password, InfluxDB token, JWT secret) are expected here rather
// than in the YAML file.
var envBindings = []envBinding{
	{"ROOMCLIMATE_SITE_ID", stringVar(func(c *Config) *string { return &c.Site.ID })},
	{"ROOMCLIMATE_SERVICES_REGISTRY", boolVar(func(c *Config) *bool { return &c.Services.Registry })},
	{"ROOMCLIMATE_SERVICES_CONTROLLER", boolVar(func(c *Config) *bool { return &c.Services.Controller })},

	{"ROOMCLIMATE_STORE_BACKEND", stringVar(func(c *Config) *string { return &c.Registry.Store.Backend })},
	{"ROOMCLIMATE_STORE_PATH", stringVar(func(c *Config) *string { return &c.Registry.Store.Path })},
	{"ROOMCLIMATE_DATABASE_PATH", stringVar(func(c *Config) *string { return &c.Registry.Database.Path })},

	{"ROOMCLIMATE_MQTT_HOST", stringVar(func(c *Config) *string { return &c.MQTT.Broker.Host })},
	{"ROOMCLIMATE_MQTT_PORT", intVar(func(c *Config) *int { return &c.MQTT.Broker.Port })},
	{"ROOMCLIMATE_MQTT_USERNAME", stringVar(func(c *Config) *string { return &c.MQTT.Auth.Username })},
	{"ROOMCLIMATE_MQTT_PASSWORD", stringVar(func(c *Config) *string { return &c.MQTT.Auth.Password })},

	{"ROOMCLIMATE_API_HOST", stringVar(func(c *Config) *string { return &c.API.Host })},
	{"ROOMCLIMATE_API_PORT", intVar(func(c *Config) *int { return &c.API.Port })},

	{"ROOMCLIMATE_REGISTRY_URL", stringVar(func(c *Config) *string { return &c.Controller.RegistryURL })},

	{"ROOMCLIMATE_INFLUXDB_ENABLED", boolVar(func(c *Config) *bool { return &c.InfluxDB.Enabled })},
	{"ROOMCLIMATE_INFLUXDB_URL", stringVar(func(c *Config) *string { return &c.InfluxDB.URL })},
	{"ROOMCLIMATE_INFLUXDB_TOKEN", stringVar(func(c *Config) *string { return &c.InfluxDB.Token })},

	{"ROOMCLIMATE_LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Logging.Level })},

	{"ROOMCLIMATE_JWT_SECRET", stringVar(func(c *Config) *string { return &c.Security.JWT.Secret })},
}

// applyEnvOverrides applies every set ROOMCLIMATE_* variable. A value that
// does not parse is an error rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	for _, b := range envBindings {
		v, ok := os.LookupEnv(b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			return fmt.Errorf("%s=%q: %w", b.name, v, err)
		}
	}
	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone %q is not a known time zone", c.Site.Timezone))
	}

	if !c.Services.Registry && !c.Services.Controller {
		errs = append(errs, "at least one of services.registry or services.controller must be enabled")
	}

	// Registry validation
	if c.Services.Registry {
		switch c.Registry.Store.Backend {
		case StoreBackendFile, StoreBackendBolt:
			if c.Registry.Store.Path == "" {
				errs = append(errs, "registry.store.path is required")
			}
		case StoreBackendSQLite:
			if c.Registry.Database.Path == "" {
				errs = append(errs, "registry.database.path is required for the sqlite backend")
			}
		default:
			errs = append(errs, "registry.store.backend must be file, sqlite, or bolt")
		}
		if !strings.HasPrefix(c.Registry.APIPrefix, "/") {
			errs = append(errs, "registry.api_prefix must start with /")
		}
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Controller validation
	if c.Services.Controller {
		errs = append(errs, c.Controller.validate(c.Services.Registry)...)
	}

	for i, room := range c.Rooms {
		if room.ID == "" {
			errs = append(errs, fmt.Sprintf("rooms[%d].id is required", i))
		}
		if room.Capacity < 0 {
			errs = append(errs, fmt.Sprintf("rooms[%d].capacity must not be negative", i))
		}
	}

	// Security validation: the secret is optional, but a weak one is refused.
	if s := c.Security.JWT.Secret; s != "" && len(s) < MinJWTSecretLength {
		errs = append(errs, fmt.Sprintf("security.jwt.secret must be at least %d characters", MinJWTSecretLength))
	}
	for i, client := range c.Security.Clients {
		if client.ID == "" || client.SecretHash == "" {
			errs = append(errs, fmt.Sprintf("security.clients[%d] needs id and secret_hash", i))
		}
	}
	if len(c.Security.Clients) > 0 && c.Security.JWT.Secret == "" {
		errs = append(errs, "security.clients requires security.jwt.secret")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c ControllerConfig) validate(sameProcessRegistry bool) []string {
	var errs []string
	if c.Interval < 1 {
		errs = append(errs, "controller.interval must be at least 1 second")
	}
	if c.RefreshEvery < 1 {
		errs = append(errs, "controller.refresh_every must be at least 1")
	}
	if c.MinCommandInterval < 0 {
		errs = append(errs, "controller.min_command_interval must not be negative")
	}
	if !sameProcessRegistry && c.RegistryURL == "" {
		errs = append(errs, "controller.registry_url is required when the registry runs elsewhere")
	}
	if c.RegistryTimeout < 1 {
		errs = append(errs, "controller.registry_timeout must be at least 1 second")
	}
	if c.InboxSize < 1 {
		errs = append(errs, "controller.inbox_size must be at least 1")
	}
	if c.Policy.CoolOff > c.Policy.CoolOn {
		errs = append(errs, "controller.policy.cool_off must not exceed cool_on")
	}
	if c.Policy.HeatOn > c.Policy.HeatOff {
		errs = append(errs, "controller.policy.heat_on must not exceed heat_off")
	}
	if c.Policy.HighOccupancyRatio <= 0 || c.Policy.HighOccupancyRatio > 1 {
		errs = append(errs, "controller.policy.high_occupancy_ratio must be in (0, 1]")
	}
	return errs
}

// Location returns the site's time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RegistryPublicURL returns the URL advertised for the registry service.
func (c *Config) RegistryPublicURL() string {
	if c.Registry.PublicURL != "" {
		return c.Registry.PublicURL
	}
	return fmt.Sprintf("http://%s:%d%s", c.API.Host, c.API.Port, c.Registry.APIPrefix)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// CycleInterval returns the control loop period.
func (c ControllerConfig) CycleInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// CommandInterval returns the per-room command throttle window.
func (c ControllerConfig) CommandInterval() time.Duration {
	return time.Duration(c.MinCommandInterval) * time.Second
}

// RequestTimeout returns the registry request timeout.
func (c ControllerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RegistryTimeout) * time.Second
}
