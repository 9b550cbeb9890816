package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/roomclimate/internal/catalog"
)

// LoopConfig holds the loop's timing and sizing.
type LoopConfig struct {
	// Interval is the decide cycle period.
	Interval time.Duration

	// RefreshEvery re-derives the topic directory every N cycles, starting with the first.
	RefreshEvery int

	// RequestTimeout bounds one directory listing.
	RequestTimeout time.Duration

	// InboxSize is the capacity of the telemetry queue.
	InboxSize int

	// QoS is used for telemetry subscriptions.
	QoS byte

	// Location is the site time zone; months and timetable slots are read in it.
	Location *time.Location
}

// LoopDeps are the loop's collaborators.
type LoopDeps struct {
	Source     DeviceSource
	Subscriber Subscriber
	Publisher  Publisher
	Policy     *Policy
	Dashboard  *Dashboard

	// MinCommandInterval and IncludeMode configure the dispatcher.
	MinCommandInterval time.Duration
	IncludeMode        bool

	// Broadcaster receives dashboard rows every cycle and each sent command. Optional.
	Broadcaster Broadcaster

	// History receives every accepted reading and each room's conditions. Optional.
	History TelemetryWriter

	Logger Logger
}

// LoopStats are counters exposed on the debug API.
type LoopStats struct {
	Cycles        uint64 `json:"cycles"`
	Ingested      uint64 `json:"ingested"`
	Dropped       uint64 `json:"dropped"`
	Rejected      uint64 `json:"rejected"`
	Subscriptions int    `json:"subscriptions"`
	SkippedDevice int    `json:"skipped_devices"`
}

// Loop is the aggregation-and-control loop.
//
// Three goroutines touch it: the transport's delivery goroutine calls
// HandleMessage, which only enqueues; one ingest goroutine drains the queue
// into the cache; and the Run goroutine refreshes topics and decides. Only
// the Run goroutine calls the dispatcher, so no room is written from two
// goroutines at once.
type Loop struct {
	cfg         LoopConfig
	source      DeviceSource
	subscriber  Subscriber
	cache       *TelemetryCache
	policy      *Policy
	dispatcher  *Dispatcher
	dashboard   *Dashboard
	broadcaster Broadcaster
	history     TelemetryWriter

	directory atomic.Pointer[TopicDirectory]

	// Run goroutine only.
	subscribed map[string]struct{}
	refreshed  bool
	cycle      int

	inbox    chan Message
	cycles   atomic.Uint64
	ingested atomic.Uint64
	dropped  atomic.Uint64
	rejected atomic.Uint64

	now    func() time.Time
	wait   func(ctx context.Context, d time.Duration) bool
	logger Logger
}

// NewLoop wires a loop. Nothing runs until Run is called.
func NewLoop(cfg LoopConfig, deps LoopDeps) *Loop {
	if cfg.RefreshEvery < 1 {
		cfg.RefreshEvery = 1
	}
	if cfg.InboxSize < 1 {
		cfg.InboxSize = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	l := &Loop{
		cfg:         cfg,
		source:      deps.Source,
		subscriber:  deps.Subscriber,
		cache:       NewTelemetryCache(),
		policy:      deps.Policy,
		dashboard:   deps.Dashboard,
		broadcaster: deps.Broadcaster,
		history:     deps.History,
		subscribed:  make(map[string]struct{}),
		inbox:       make(chan Message, cfg.InboxSize),
		now:         time.Now,
		wait:        sleepContext,
		logger:      logger,
	}
	l.directory.Store(BuildTopicDirectory(nil))

	l.dispatcher = NewDispatcher(deps.Publisher, l, DispatcherOptions{
		MinInterval: deps.MinCommandInterval,
		IncludeMode: deps.IncludeMode,
		Broadcaster: deps.Broadcaster,
	})
	l.dispatcher.SetLogger(logger)
	return l
}

// sleepContext waits for d or ctx, reporting whether the full wait elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// HandleMessage queues one telemetry delivery. It never blocks: when the
// queue is full the message is dropped and counted.
//
// The signature matches mqtt.MessageHandler.
func (l *Loop) HandleMessage(topic string, payload []byte) error {
	msg := Message{Topic: topic, Payload: payload, ReceivedAt: l.now()}
	select {
	case l.inbox <- msg:
	default:
		if n := l.dropped.Add(1); n == 1 || n%100 == 0 {
			l.logger.Warn("telemetry inbox full, dropping messages", "dropped_total", n)
		}
	}
	return nil
}

// Run drives the loop until ctx is cancelled.
//
// Each iteration checks ctx, runs one cycle, then waits for the interval or
// ctx. An in-flight cycle is never interrupted. The ingest goroutine runs
// alongside and is stopped before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.ingest(ctx)
	}()
	defer wg.Wait()

	l.logger.Info("control loop started",
		"interval", l.cfg.Interval.String(),
		"refresh_every", l.cfg.RefreshEvery,
	)

	for {
		if ctx.Err() != nil {
			break
		}
		l.runCycle(ctx)
		if ctx.Err() != nil || !l.wait(ctx, l.cfg.Interval) {
			break
		}
	}

	l.logger.Info("control loop stopped", "cycles", l.cycles.Load())
	return nil
}

// runCycle is one refresh-and-decide pass. Panics are logged, not propagated.
func (l *Loop) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("control cycle panic recovered", "panic", r, "cycle", l.cycle)
		}
	}()
	defer func() {
		l.cycle++
		l.cycles.Add(1)
	}()

	// Until one refresh succeeds there is nothing to subscribe to, so retry every cycle.
	if l.cycle%l.cfg.RefreshEvery == 0 || !l.refreshed {
		if err := l.refresh(ctx); err != nil {
			l.logger.Warn("topic refresh failed, keeping previous directory", "error", err)
		}
	}
	l.decide(ctx)
}

// refresh rebuilds the topic directory and reconciles subscriptions.
func (l *Loop) refresh(ctx context.Context) error {
	reqCtx := ctx
	if l.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, l.cfg.RequestTimeout)
		defer cancel()
	}

	devices, err := l.source.ListDevices(reqCtx, catalog.DeviceFilter{})
	if err != nil {
		if errors.Is(err, ErrRegistryUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	dir := BuildTopicDirectory(devices)
	want := make(map[string]struct{})
	for _, topic := range dir.ValueTopics() {
		want[topic] = struct{}{}
		if _, ok := l.subscribed[topic]; ok {
			continue
		}
		if err := l.subscriber.Subscribe(topic, l.cfg.QoS, l.HandleMessage); err != nil {
			l.logger.Warn("subscribe failed", "topic", topic, "error", err)
			continue
		}
		l.subscribed[topic] = struct{}{}
	}
	for topic := range l.subscribed {
		if _, ok := want[topic]; ok {
			continue
		}
		if err := l.subscriber.Unsubscribe(topic); err != nil {
			l.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
			continue
		}
		delete(l.subscribed, topic)
	}

	l.directory.Store(dir)
	l.refreshed = true
	if dir.Skipped > 0 {
		l.logger.Debug("devices without a control role skipped", "count", dir.Skipped)
	}
	l.logger.Debug("topic directory refreshed",
		"devices", len(devices),
		"subscriptions", len(l.subscribed),
		"actuators", len(dir.Commands),
	)
	return nil
}

// decide snapshots the cache and applies the policy to every room.
func (l *Loop) decide(ctx context.Context) {
	now := l.now().In(l.cfg.Location)
	snap := l.cache.Snapshot()
	rooms := l.dashboard.Build(snap, now)

	for _, room := range rooms {
		cond := room.Conditions()
		decision := l.policy.Decide(cond, now.Month())

		outcome, err := l.dispatcher.Apply(ctx, room.RoomID, decision, now)
		if err != nil {
			l.logger.Warn("command dispatch failed", "room", room.RoomID, "error", err)
		} else if outcome != OutcomeDropped {
			l.logger.Debug("room decided", "room", room.RoomID, "decision", decision.String(), "outcome", outcome.String())
		}

		if l.history != nil && (cond.Temperature != nil || cond.Occupants != nil) {
			l.history.WriteRoomConditions(room.RoomID, cond.Temperature, cond.Occupants, now)
		}
	}

	if l.broadcaster != nil {
		l.broadcaster.Broadcast(ChannelDashboard, rooms)
	}
}

// ingest drains the inbox into the cache until ctx is cancelled.
func (l *Loop) ingest(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-l.inbox:
			if err := l.process(msg); err != nil {
				l.rejected.Add(1)
				l.logger.Debug("telemetry rejected", "topic", msg.Topic, "error", err)
			}
		}
	}
}

// process parses one message and records it.
func (l *Loop) process(msg Message) error {
	key, err := parseTelemetryTopic(msg.Topic)
	if err != nil {
		return err
	}
	reading, err := ParseReading(msg.Payload, msg.ReceivedAt)
	if err != nil {
		return err
	}

	l.cache.Record(key.Room, key.Kind, key.Index, reading)
	l.ingested.Add(1)

	if l.history != nil {
		l.history.WriteReading(key.Room, key.Kind, key.Index, reading.SensorID, reading.Unit, reading.Value, reading.ReceivedAt)
	}
	return nil
}

// CommandTopic resolves a room's actuator topic from the current directory.
func (l *Loop) CommandTopic(room string) (string, bool) {
	return l.directory.Load().CommandTopic(room)
}

// Directory returns the current topic directory. It must not be modified.
func (l *Loop) Directory() *TopicDirectory {
	return l.directory.Load()
}

// Snapshot returns a copy of the telemetry cache.
func (l *Loop) Snapshot() Snapshot {
	return l.cache.Snapshot()
}

// DashboardNow builds dashboard rows from the current cache.
func (l *Loop) DashboardNow() []RoomStatus {
	return l.dashboard.Build(l.cache.Snapshot(), l.now().In(l.cfg.Location))
}

// States returns every room's dispatcher state.
func (l *Loop) States() map[string]RoomControlState {
	return l.dispatcher.States()
}

// Stats returns the loop counters.
func (l *Loop) Stats() LoopStats {
	dir := l.directory.Load()
	return LoopStats{
		Cycles:        l.cycles.Load(),
		Ingested:      l.ingested.Load(),
		Dropped:       l.dropped.Load(),
		Rejected:      l.rejected.Load(),
		Subscriptions: len(dir.ValueTopics()),
		SkippedDevice: dir.Skipped,
	}
}
