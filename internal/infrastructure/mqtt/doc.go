// Package mqtt provides MQTT client connectivity for roomclimate.
//
// This package manages:
//   - Connection to the campus broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - The device topic layout {prefix}/{room}/{kind}/{index}/{value|cmd|status}
//
// # Architecture
//
// Sensors publish readings on value topics; the control loop subscribes to
// the value topics it learns from the registry and publishes ON/OFF commands
// on actuator cmd topics.
//
//	sensors → broker → control loop → broker → actuators
//
// # Security Considerations
//
//   - TLS should be enabled outside the lab (cfg.Broker.TLS=true)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("smartcampus/R1/thermal/1/value", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("reading: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	client.PublishJSON("smartcampus/R1/thermal/1/cmd", map[string]string{"status": "ON"})
package mqtt
