package mqtt

import (
	"fmt"
	"sort"
	"strings"
)

// Subscribe registers handler for a topic filter and waits for the broker's
// SUBACK. The subscription is remembered and restored after a reconnect.
//
// The control loop subscribes to exact value topics taken from the registry,
// so removing a device stops its ingestion at the next refresh. Wildcard
// filters such as "smartcampus/+/+/+/value" are accepted for diagnostics.
//
// Parameters:
//   - topic: Topic filter; '+' and '#' must fill a whole level
//   - qos: Maximum QoS for delivered messages (0, 1, or 2)
//   - handler: Called on paho's delivery goroutine for each message
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or ErrSubscribeFailed
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := validateTopicFilter(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrSubscribeFailed, topic)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Tracked before the SUBACK so a reconnect racing this call restores it.
	c.subMu.Lock()
	c.subscriptions[topic] = subscription{qos: qos, handler: handler}
	c.subMu.Unlock()

	if err := await(c.client.Subscribe(topic, qos, c.wrapHandler(handler)), ErrSubscribeFailed); err != nil {
		c.forget(topic)
		return err
	}
	return nil
}

// Unsubscribe stops delivery for a topic filter. The subscription is
// forgotten even if the broker does not acknowledge, so it is not restored
// on the next reconnect. Messages already in flight may still arrive.
func (c *Client) Unsubscribe(topic string) error {
	if err := validateTopicFilter(topic); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.forget(topic)
	return await(c.client.Unsubscribe(topic), ErrUnsubscribeFailed)
}

func (c *Client) forget(topic string) {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()
}

// SubscriptionCount returns the number of tracked subscriptions.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription reports whether the exact filter string is tracked.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}

// Subscriptions returns the tracked filters in lexical order.
func (c *Client) Subscriptions() []string {
	c.subMu.RLock()
	out := make([]string, 0, len(c.subscriptions))
	for topic := range c.subscriptions {
		out = append(out, topic)
	}
	c.subMu.RUnlock()
	sort.Strings(out)
	return out
}

// validateTopicFilter checks the MQTT 3.1.1 filter rules: non-empty, no NUL,
// '+' alone in its level and '#' alone in the last level.
func validateTopicFilter(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsRune(topic, 0) {
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidTopic, topic)
	}

	levels := strings.Split(topic, "/")
	for i, level := range levels {
		switch {
		case level == "#" && i != len(levels)-1:
			return fmt.Errorf("%w: %q has '#' before the last level", ErrInvalidTopic, topic)
		case level != "#" && strings.Contains(level, "#"),
			level != "+" && strings.Contains(level, "+"):
			return fmt.Errorf("%w: %q has a wildcard inside a level", ErrInvalidTopic, topic)
		}
	}
	return nil
}

// validateTopicName checks a publish topic, which may not contain wildcards.
func validateTopicName(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#\x00") {
		return fmt.Errorf("%w: %q is not a valid publish topic", ErrInvalidTopic, topic)
	}
	return nil
}
