// Package control runs the campus climate control loop.
//
// Telemetry arrives on {prefix}/{room}/{kind}/{index}/value topics and is
// queued by HandleMessage, then drained by a single ingest goroutine into a
// TelemetryCache that keeps only the latest reading per sensor. Every cycle
// the loop:
//
//  1. Re-derives the topic directory from the device registry when due,
//     reconciling MQTT subscriptions with it.
//  2. Snapshots the cache and builds dashboard rows joining room metadata,
//     the free-room timetable and the latest readings.
//  3. Evaluates the seasonal hysteresis Policy per room.
//  4. Hands each verdict to the Dispatcher, which throttles and publishes
//     {"status":"ON"|"OFF"} to the room's actuator.
//
// # Concurrency
//
// The transport goroutine only enqueues; a full queue drops and counts. The
// cache is guarded by one mutex and snapshots are deep copies. The topic
// directory is swapped atomically and never mutated in place. Dispatching
// happens on the loop goroutine only.
//
// # Usage
//
//	loop := control.NewLoop(control.LoopConfig{Interval: 30 * time.Second, RefreshEvery: 10}, control.LoopDeps{
//	    Source:     registry,
//	    Subscriber: mqttClient,
//	    Publisher:  mqttClient,
//	    Policy:     control.NewPolicy(control.DefaultThresholds()),
//	    Dashboard:  control.NewDashboard(rooms, schedule, loc, 30),
//	})
//	go loop.Run(ctx)
package control
