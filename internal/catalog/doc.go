// Package catalog is the device and service directory.
//
// The Registry is the single writer of the directory document. It validates
// and upserts devices keyed on id, answers filtered lookups, and persists
// every mutation through a Store before reporting success.
//
// # Key Types
//
//   - Device: a sensor or actuator with its room, kind, role and MQTT topics
//   - Service: a network endpoint; broker-01 and registry-01 are computed from config
//   - Document: the persisted form, {project_info, system_settings, devices, services}
//   - Store: FileStore (JSON, temp file + rename), SQLiteStore, BoltStore
//
// # Usage
//
//	store := catalog.NewFileStore(cfg.Registry.Store.Path)
//	reg := catalog.NewRegistry(store, catalog.ProjectInfo{SiteID: cfg.Site.ID}, []catalog.Service{
//	    catalog.BrokerService(host, port, topics.Prefix(), topics.Structure()),
//	    catalog.RegistryService(url),
//	})
//	if err := reg.Load(ctx); err != nil {
//	    return err
//	}
//
//	dev, err := catalog.DecodeDevice(body)
//	id, created, err := reg.UpsertDevice(ctx, dev)
//
// # Device Ids
//
// Devices register with structured ids such as "R1_thermal_sensor_1".
// Filtered deletes read room and kind from the id rather than the body.
// Legacy kind names ("wifi", "temperature") are normalised on input.
package catalog
