//go:build integration

package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/roomclimate/internal/infrastructure/config"
)

// Integration tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "roomclimate-test",
	}
}

func TestIntegration_ValueRoundTrip(t *testing.T) {
	pub, err := Connect(context.Background(), integrationConfig("rc-test-pub"))
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	sub, err := Connect(context.Background(), integrationConfig("rc-test-sub"))
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	topic := "roomclimate-test/R1/thermal/1/value"
	received := make(chan string, 1)
	if err := sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	want := `{"id":"R1_thermal_sensor_1","v":27,"u":"C","t":1700000000}`
	if err := pub.Publish(topic, []byte(want), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != want {
			t.Errorf("payload = %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	if err := sub.Unsubscribe(topic); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if sub.HasSubscription(topic) {
		t.Error("subscription still tracked after Unsubscribe")
	}
}

func TestIntegration_PublishJSON(t *testing.T) {
	client, err := Connect(context.Background(), integrationConfig("rc-test-json"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	err = client.PublishJSON("roomclimate-test/R1/thermal/1/cmd", map[string]string{"status": "ON"})
	if err != nil {
		t.Errorf("PublishJSON() error = %v", err)
	}
}
