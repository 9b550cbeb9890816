package catalog

// Computed service identifiers. These entries are built from configuration
// at startup and are never persisted.
const (
	BrokerServiceID   = "broker-01"
	RegistryServiceID = "registry-01"

	ServiceTypeBroker   = "broker"
	ServiceTypeRegistry = "registry"
)

// BrokerService describes the MQTT broker devices should connect to.
// topicStructure is the device topic layout, e.g.
// "smartcampus/{room}/{kind}/{index}".
func BrokerService(host string, port int, topicPrefix, topicStructure string) Service {
	return Service{
		ID:          BrokerServiceID,
		ServiceType: ServiceTypeBroker,
		Endpoint: map[string]any{
			"host":            host,
			"port":            port,
			"topic_prefix":    topicPrefix,
			"topic_structure": topicStructure,
		},
	}
}

// RegistryService describes this registry's REST endpoint.
func RegistryService(url string) Service {
	return Service{
		ID:          RegistryServiceID,
		ServiceType: ServiceTypeRegistry,
		Endpoint:    map[string]any{"url": url},
	}
}
