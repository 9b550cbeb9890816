// roomclimate - campus room climate coordination
//
// One binary runs the device/service registry, the control loop, or both.
// The registry keeps the directory of sensors, actuators and services and
// serves it over REST. The control loop discovers telemetry topics from the
// registry, evaluates a seasonal hysteresis policy per room and publishes
// throttled ON/OFF commands over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/nerrad567/roomclimate/internal/api"
	"github.com/nerrad567/roomclimate/internal/auth"
	"github.com/nerrad567/roomclimate/internal/catalog"
	"github.com/nerrad567/roomclimate/internal/control"
	"github.com/nerrad567/roomclimate/internal/infrastructure/config"
	"github.com/nerrad567/roomclimate/internal/infrastructure/database"
	"github.com/nerrad567/roomclimate/internal/infrastructure/influxdb"
	"github.com/nerrad567/roomclimate/internal/infrastructure/logging"
	"github.com/nerrad567/roomclimate/internal/infrastructure/mqtt"
	"github.com/nerrad567/roomclimate/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	configFlag := flag.String("config", "", "Path to config file (overrides ROOMCLIMATE_CONFIG)")
	hashSecret := flag.String("hash-secret", "", "Print the Argon2id hash of a client secret and exit")
	flag.Parse()

	if *hashSecret != "" {
		if err := printSecretHash(os.Stdout, *hashSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, getConfigPath(*configFlag))
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting roomclimate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"registry", cfg.Services.Registry,
		"controller", cfg.Services.Controller,
	)

	checks := make(map[string]api.HealthCheck)

	// Registry
	var registry *catalog.Registry
	if cfg.Services.Registry {
		store, closeStore, storeErr := openStore(ctx, cfg, checks)
		if storeErr != nil {
			return fmt.Errorf("opening registry store: %w", storeErr)
		}
		defer func() {
			log.Info("closing registry store")
			if closeErr := closeStore(); closeErr != nil {
				log.Error("error closing registry store", "error", closeErr)
			}
		}()

		registry = catalog.NewRegistry(store,
			catalog.ProjectInfo{SiteID: cfg.Site.ID, Name: cfg.Site.Name},
			computedServices(cfg),
		)
		registry.SetLogger(log.Component("registry"))
		if loadErr := registry.Load(ctx); loadErr != nil {
			return fmt.Errorf("loading registry: %w", loadErr)
		}
		log.Info("registry loaded",
			"backend", cfg.Registry.Store.Backend,
			"api_prefix", cfg.Registry.APIPrefix,
		)
	}

	// Controller
	var (
		loop *control.Loop
		hub  *api.Hub
		bus  *mqtt.Client
	)
	if cfg.Services.Controller {
		mqttClient, mqttErr := mqtt.Connect(ctx, cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		checks["mqtt"] = mqttClient.HealthCheck
		bus = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// InfluxDB (optional)
		var history control.TelemetryWriter
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
		switch {
		case errors.Is(influxErr, influxdb.ErrDisabled):
			log.Info("InfluxDB disabled")
		case influxErr != nil:
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		default:
			defer func() {
				points, failures := influxClient.Counts()
				log.Info("closing InfluxDB connection", "points", points, "write_failures", failures)
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			checks["influxdb"] = influxClient.HealthCheck
			history = influxClient
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}

		hub = api.NewHub(cfg.WebSocket, log.Component("websocket"))
		go hub.Run(ctx)

		loop = newLoop(cfg, registry, mqttClient, hub, history, log.Component("control"))
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed", "checks", len(checks))

	deps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		APIPrefix: cfg.Registry.APIPrefix,
		Logger:    log.Component("api"),
		Registry:  registry,
		Checks:    checks,
		Version:   version,
	}
	if loop != nil {
		deps.Control = loop
		deps.Bus = bus
		deps.Hub = hub
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	loopDone := make(chan struct{})
	if loop != nil {
		go func() {
			defer close(loopDone)
			if runErr := loop.Run(ctx); runErr != nil {
				log.Error("control loop stopped", "error", runErr)
			}
		}()
	} else {
		close(loopDone)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	<-loopDone

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, registry store.

	log.Info("roomclimate stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// The -config flag wins, then ROOMCLIMATE_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("ROOMCLIMATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openStore opens the configured persistence backend.
//
// Parameters:
//   - ctx: Context for the database ping and migrations
//   - cfg: Application configuration
//   - checks: Receives a "database" check when the sqlite backend is used
//
// Returns:
//   - catalog.Store: The opened store
//   - func() error: Releases the backend
//   - error: If the backend cannot be opened
func openStore(ctx context.Context, cfg *config.Config, checks map[string]api.HealthCheck) (catalog.Store, func() error, error) {
	switch cfg.Registry.Store.Backend {
	case config.StoreBackendSQLite:
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Registry.Database.Path,
			WALMode:     cfg.Registry.Database.WALMode,
			BusyTimeout: cfg.Registry.Database.BusyTimeout,
			Migrations:  migrations.FS,
		})
		if err != nil {
			return nil, nil, err
		}
		checks["database"] = db.HealthCheck
		return catalog.NewSQLiteStore(db.DB), db.Close, nil

	case config.StoreBackendBolt:
		store, err := catalog.OpenBoltStore(cfg.Registry.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return catalog.NewFileStore(cfg.Registry.Store.Path), func() error { return nil }, nil
	}
}

// computedServices returns the service entries derived from configuration.
func computedServices(cfg *config.Config) []catalog.Service {
	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
	return []catalog.Service{
		catalog.BrokerService(cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port, topics.Prefix(), topics.Structure()),
		catalog.RegistryService(cfg.RegistryPublicURL()),
	}
}

// newLoop assembles the control loop.
//
// When the registry runs in this process the loop reads it directly;
// otherwise it queries the configured registry URL.
func newLoop(cfg *config.Config, registry *catalog.Registry, bus *mqtt.Client, hub *api.Hub,
	history control.TelemetryWriter, log *logging.Logger) *control.Loop {
	var source control.DeviceSource
	if registry != nil {
		source = registry
	} else {
		source = control.NewRegistryClient(cfg.Controller.RegistryURL,
			cfg.Controller.RequestTimeout(), cfg.Security.JWT.Secret)
	}

	rooms := make([]control.RoomInfo, 0, len(cfg.Rooms))
	for _, r := range cfg.Rooms {
		rooms = append(rooms, control.RoomInfo{
			ID:       r.ID,
			Building: r.Building,
			Floor:    r.Floor,
			Type:     r.Type,
			Capacity: r.Capacity,
		})
	}

	p := cfg.Controller.Policy
	policy := control.NewPolicy(control.Thresholds{
		CoolOn:                  p.CoolOn,
		CoolOff:                 p.CoolOff,
		HeatOn:                  p.HeatOn,
		HeatOff:                 p.HeatOff,
		HighOccupancyRatio:      p.HighOccupancyRatio,
		HighOccupancyAdjustment: p.HighOccupancyAdjustment,
	})

	loc := cfg.Location()
	return control.NewLoop(control.LoopConfig{
		Interval:       cfg.Controller.CycleInterval(),
		RefreshEvery:   cfg.Controller.RefreshEvery,
		RequestTimeout: cfg.Controller.RequestTimeout(),
		InboxSize:      cfg.Controller.InboxSize,
		QoS:            byte(cfg.MQTT.QoS), //nolint:gosec // Validated to 0-2
		Location:       loc,
	}, control.LoopDeps{
		Source:             source,
		Subscriber:         bus,
		Publisher:          bus,
		Policy:             policy,
		Dashboard:          control.NewDashboard(rooms, cfg.Schedule, loc, cfg.Controller.DefaultCapacity),
		MinCommandInterval: cfg.Controller.CommandInterval(),
		IncludeMode:        cfg.Controller.IncludeMode,
		Broadcaster:        hub,
		History:            history,
		Logger:             log,
	})
}

// healthCheck runs every registered check in name order.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, checks map[string]api.HealthCheck) error {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// printSecretHash writes the PHC-encoded hash for a client secret, ready
// to paste into security.clients[].secret_hash.
func printSecretHash(w io.Writer, secret string) error {
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return fmt.Errorf("hashing secret: %w", err)
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}
