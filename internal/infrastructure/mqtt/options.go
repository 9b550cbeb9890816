package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/roomclimate/internal/infrastructure/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	defaultKeepAlive         = 60 * time.Second

	maxQoS = 2

	// willQoS makes sure the broker stores the "lost" presence message.
	willQoS = 1
)

// Presence states published on {prefix}/system/{client_id}/status.
const (
	statusOnline  = "online"
	statusOffline = "offline"
	statusLost    = "lost"
)

func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// newClientOptions maps the mqtt config section onto paho options.
//
// The session is clean because subscriptions are tracked client-side and
// restored on reconnect. Retry backoff starts at reconnect.initial_delay and
// is capped at reconnect.max_delay (never below the initial delay). The
// Last Will announces "lost" on the status topic so dashboards can tell a
// crash from a shutdown.
func newClientOptions(cfg config.MQTTConfig, topics Topics) *pahomqtt.ClientOptions {
	initial := time.Duration(cfg.Reconnect.InitialDelay) * time.Second
	maxDelay := time.Duration(cfg.Reconnect.MaxDelay) * time.Second
	if maxDelay < initial {
		maxDelay = initial
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(initial).
		SetMaxReconnectInterval(maxDelay).
		SetConnectTimeout(defaultConnectTimeout).
		SetKeepAlive(defaultKeepAlive).
		SetWill(topics.Status(cfg.Broker.ClientID), buildStatusPayload(cfg.Broker.ClientID, statusLost), willQoS, true)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return opts
}

// statusPayload is the body of presence messages.
type statusPayload struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Timestamp string `json:"timestamp"`
}

func buildStatusPayload(clientID, status string) string {
	//nolint:errcheck // Marshalling a struct of strings cannot fail
	data, _ := json.Marshal(statusPayload{
		Status:    status,
		ClientID:  clientID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return string(data)
}
