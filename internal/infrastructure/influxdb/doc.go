// Package influxdb exports campus telemetry history to InfluxDB v2.
//
// The control loop keeps only the latest reading per sensor in memory. When
// export is enabled every accepted reading is also written here, together
// with the per-room conditions the policy evaluated each cycle, so trends
// can be charted without touching the control path.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // export off
//	}
//	defer client.Close()
//
//	client.WriteReading("R1", "thermal", "1", "R1_thermal_sensor_1", "C", 23.4, time.Now())
//
// Every point carries a "site" tag with the site id.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; failures arrive on the
// SetOnError callback.
package influxdb
