// Package config loads configs/config.yaml for both roomclimate services.
//
// Values are resolved in three layers: built-in defaults, the YAML file,
// then ROOMCLIMATE_* environment variables. An environment value that does
// not parse (a non-numeric port, say) fails Load instead of being skipped.
//
// Static room metadata (capacity, building, floor) and the teaching schedule
// live in the same file. The control loop reads them; nothing writes them.
//
// Supported overrides:
//
//	ROOMCLIMATE_SITE_ID                 site.id
//	ROOMCLIMATE_SERVICES_REGISTRY       services.registry
//	ROOMCLIMATE_SERVICES_CONTROLLER     services.controller
//	ROOMCLIMATE_STORE_BACKEND           registry.store.backend
//	ROOMCLIMATE_STORE_PATH              registry.store.path
//	ROOMCLIMATE_DATABASE_PATH           registry.database.path
//	ROOMCLIMATE_MQTT_HOST / _PORT       mqtt.broker.host / port
//	ROOMCLIMATE_MQTT_USERNAME           mqtt.auth.username
//	ROOMCLIMATE_MQTT_PASSWORD           mqtt.auth.password
//	ROOMCLIMATE_API_HOST / _PORT        api.host / port
//	ROOMCLIMATE_REGISTRY_URL            controller.registry_url
//	ROOMCLIMATE_INFLUXDB_ENABLED        influxdb.enabled
//	ROOMCLIMATE_INFLUXDB_URL / _TOKEN   influxdb.url / token
//	ROOMCLIMATE_LOG_LEVEL               logging.level
//	ROOMCLIMATE_JWT_SECRET              security.jwt.secret
//
// Keep credentials in the environment and the file at 0600.
package config
