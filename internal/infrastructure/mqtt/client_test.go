package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/roomclimate/internal/infrastructure/config"
)

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestPublish_ValidatesBeforeConnecting(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "a/b", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "a/b", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "a/b", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribe_ValidatesBeforeConnecting(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("a/b", 5, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 5) error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("a/b", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("a/b", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(disconnected) error = %v, want ErrNotConnected", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0 after failed subscribes", client.SubscriptionCount())
	}
}

func TestValidateTopicFilter(t *testing.T) {
	tests := []struct {
		topic string
		ok    bool
	}{
		{"smartcampus/R1/thermal/1/value", true},
		{"smartcampus/+/+/+/value", true},
		{"smartcampus/#", true},
		{"#", true},
		{"", false},
		{"smartcampus/#/value", false},
		{"smartcampus/R1+/value", false},
		{"smartcampus/R#", false},
		{"a\x00b", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			err := validateTopicFilter(tt.topic)
			if (err == nil) != tt.ok {
				t.Errorf("validateTopicFilter(%q) error = %v, want ok=%v", tt.topic, err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidTopic) {
				t.Errorf("error = %v, want ErrInvalidTopic", err)
			}
		})
	}
}

func TestPublish_RejectsWildcards(t *testing.T) {
	client := &Client{}
	for _, topic := range []string{"smartcampus/+/thermal/1/cmd", "smartcampus/#"} {
		if err := client.Publish(topic, []byte("{}"), 1, false); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("Publish(%q) error = %v, want ErrInvalidTopic", topic, err)
		}
	}
}

func TestUnsubscribe_EmptyTopic(t *testing.T) {
	client := &Client{}
	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscriptions_Sorted(t *testing.T) {
	client := &Client{subscriptions: map[string]subscription{
		"p/R2/thermal/1/value": {},
		"p/R1/thermal/1/value": {},
	}}

	got := client.Subscriptions()
	if len(got) != 2 || got[0] != "p/R1/thermal/1/value" {
		t.Errorf("Subscriptions() = %v, want sorted list", got)
	}
	if !client.HasSubscription("p/R2/thermal/1/value") {
		t.Error("HasSubscription() = false for tracked topic")
	}
}

func TestNewClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 8883, TLS: true, ClientID: "rc"},
		Auth:   config.MQTTAuthConfig{Username: "u", Password: "p"},
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     30,
		},
	}

	opts := newClientOptions(cfg, NewTopics("campus"))

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://broker.local:8883" {
		t.Errorf("Servers = %v, want ssl://broker.local:8883", opts.Servers)
	}
	if opts.ClientID != "rc" || opts.Username != "u" {
		t.Errorf("ClientID, Username = %q, %q", opts.ClientID, opts.Username)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig is nil with TLS enabled")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect with a clean session")
	}
	if opts.MaxReconnectInterval != 30*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 30s", opts.MaxReconnectInterval)
	}
}

func TestNewClientOptions_MaxDelayNotBelowInitial(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker:    config.MQTTBrokerConfig{Host: "h", Port: 1883, ClientID: "rc"},
		Reconnect: config.MQTTReconnectConfig{InitialDelay: 10, MaxDelay: 2},
	}
	opts := newClientOptions(cfg, NewTopics("campus"))
	if opts.MaxReconnectInterval != 10*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 10s", opts.MaxReconnectInterval)
	}
}

func TestNewClientOptions_LastWill(t *testing.T) {
	cfg := config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "h", Port: 1883, ClientID: "rc"}}
	opts := newClientOptions(cfg, NewTopics("campus"))

	if !opts.WillEnabled || opts.WillTopic != "campus/system/rc/status" {
		t.Errorf("will = %v on %q", opts.WillEnabled, opts.WillTopic)
	}
	if !opts.WillRetained || opts.WillQos != willQoS {
		t.Errorf("will retained = %v qos = %d", opts.WillRetained, opts.WillQos)
	}

	var payload statusPayload
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if payload.Status != statusLost || payload.ClientID != "rc" {
		t.Errorf("will payload = %+v", payload)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	got := buildStatusPayload("rc", statusOnline)
	if !strings.Contains(got, `"status":"online"`) || !strings.Contains(got, `"client_id":"rc"`) {
		t.Errorf("buildStatusPayload() = %s", got)
	}
}

// fakeMessage is the minimal pahomqtt.Message a handler sees.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

var _ pahomqtt.Message = fakeMessage{}

func TestWrapHandler_CountsAndRecovers(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	msg := fakeMessage{topic: "smartcampus/R1/thermal/1/value", payload: []byte(`{"v":21}`)}

	var got string
	client.wrapHandler(func(topic string, payload []byte) error {
		got = topic + " " + string(payload)
		return nil
	})(nil, msg)
	if got != `smartcampus/R1/thermal/1/value {"v":21}` {
		t.Errorf("handler saw %q", got)
	}

	client.wrapHandler(func(string, []byte) error { return errors.New("queue full") })(nil, msg)
	client.wrapHandler(func(string, []byte) error { panic("bad payload") })(nil, msg)

	stats := client.Stats()
	if stats.Received != 3 || stats.HandlerErrors != 1 || stats.Panics != 1 {
		t.Errorf("Stats() = %+v, want received 3, handler_errors 1, panics 1", stats)
	}
	if stats.Connected {
		t.Error("Stats().Connected = true for a client that never connected")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker:      config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1, ClientID: "rc-unreachable"},
		Reconnect:   config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 1},
		TopicPrefix: "smartcampus",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Connect(ctx, cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}
