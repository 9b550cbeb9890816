package control

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Command statuses on the wire.
const (
	StatusOn  = "ON"
	StatusOff = "OFF"
)

// RoomControlState is the dispatcher's memory for one room.
// Nil fields have not been set yet.
type RoomControlState struct {
	ShouldOn      *bool      `json:"should_on,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	LastCmdSentOn *bool      `json:"last_cmd_sent_on,omitempty"`
	LastCmdSentAt *time.Time `json:"last_cmd_sent_at,omitempty"`
}

// Outcome reports what Apply did with a decision.
type Outcome int

// Apply outcomes.
const (
	OutcomeDropped   Outcome = iota // abstain, state untouched
	OutcomeThrottled                // gated out; should_on and decided_at recorded
	OutcomeNoTopic                  // no actuator registered for the room
	OutcomeFailed                   // publish failed
	OutcomeSent                     // command published
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeThrottled:
		return "throttled"
	case OutcomeNoTopic:
		return "no_topic"
	case OutcomeFailed:
		return "failed"
	case OutcomeSent:
		return "sent"
	default:
		return "dropped"
	}
}

// CommandPayload is published to an actuator's cmd topic.
type CommandPayload struct {
	Status string `json:"status"`
	Mode   string `json:"mode,omitempty"`
}

// CommandEvent is broadcast to dashboards for every published command.
type CommandEvent struct {
	Room   string    `json:"room_id"`
	Topic  string    `json:"topic"`
	Status string    `json:"status"`
	Mode   string    `json:"mode,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

// TopicLookup resolves a room's actuator command topic.
type TopicLookup interface {
	CommandTopic(room string) (string, bool)
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// MinInterval is the shortest gap between two commands to one room.
	MinInterval time.Duration

	// IncludeMode adds the season to command payloads.
	IncludeMode bool

	// Broadcaster receives a CommandEvent per published command. Optional.
	Broadcaster Broadcaster
}

// Dispatcher turns decisions into throttled commands.
//
// Only the control loop calls Apply. The state map is still locked because
// the read API inspects it from HTTP goroutines; the lock is never held
// across a publish.
type Dispatcher struct {
	publisher Publisher
	topics    TopicLookup
	opts      DispatcherOptions

	mu     sync.Mutex
	states map[string]*RoomControlState

	logger Logger
}

// NewDispatcher creates a dispatcher publishing through publisher.
func NewDispatcher(publisher Publisher, topics TopicLookup, opts DispatcherOptions) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		topics:    topics,
		opts:      opts,
		states:    make(map[string]*RoomControlState),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Apply applies one decision to a room.
//
// The first decision for a room is always sent. After that a command is
// sent only if the value differs from the last command sent and at least
// MinInterval has passed since it was sent. A gated-out decision records
// should_on and decided_at only.
//
// A missing command topic skips the dispatch without touching state. A
// publish failure returns ErrTransport without touching state. Success
// updates all four state fields.
func (d *Dispatcher) Apply(ctx context.Context, room string, decision Decision, decidedAt time.Time) (Outcome, error) {
	if decision == Abstain {
		return OutcomeDropped, nil
	}
	if err := ctx.Err(); err != nil {
		return OutcomeDropped, err
	}
	on := decision == TurnOn

	d.mu.Lock()
	state, seen := d.states[room]
	if seen && state.LastCmdSentOn != nil && state.LastCmdSentAt != nil {
		changed := *state.LastCmdSentOn != on
		elapsed := decidedAt.Sub(*state.LastCmdSentAt) >= d.opts.MinInterval
		if !changed || !elapsed {
			state.ShouldOn = &on
			state.DecidedAt = &decidedAt
			d.mu.Unlock()
			return OutcomeThrottled, nil
		}
	}
	d.mu.Unlock()

	topic, ok := d.topics.CommandTopic(room)
	if !ok {
		d.logger.Warn("no actuator command topic for room", "room", room, "decision", decision.String())
		return OutcomeNoTopic, nil
	}

	payload := CommandPayload{Status: StatusOff}
	if on {
		payload.Status = StatusOn
	}
	if d.opts.IncludeMode {
		payload.Mode = SeasonFor(decidedAt.Month()).String()
	}

	if err := d.publisher.PublishJSON(topic, payload); err != nil {
		return OutcomeFailed, fmt.Errorf("%w: room %s: %w", ErrTransport, room, err)
	}

	d.mu.Lock()
	state, seen = d.states[room]
	if !seen {
		state = &RoomControlState{}
		d.states[room] = state
	}
	state.ShouldOn = &on
	state.DecidedAt = &decidedAt
	sentOn := on
	sentAt := decidedAt
	state.LastCmdSentOn = &sentOn
	state.LastCmdSentAt = &sentAt
	d.mu.Unlock()

	d.logger.Info("command sent", "room", room, "topic", topic, "status", payload.Status)

	if d.opts.Broadcaster != nil {
		d.opts.Broadcaster.Broadcast(ChannelCommands, CommandEvent{
			Room:   room,
			Topic:  topic,
			Status: payload.Status,
			Mode:   payload.Mode,
			SentAt: decidedAt,
		})
	}
	return OutcomeSent, nil
}

// State returns a copy of one room's state.
func (d *Dispatcher) State(room string) (RoomControlState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.states[room]
	if !ok {
		return RoomControlState{}, false
	}
	return s.clone(), true
}

// States returns a copy of every room's state.
func (d *Dispatcher) States() map[string]RoomControlState {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]RoomControlState, len(d.states))
	for room, s := range d.states {
		out[room] = s.clone()
	}
	return out
}

func (s *RoomControlState) clone() RoomControlState {
	var cp RoomControlState
	if s.ShouldOn != nil {
		v := *s.ShouldOn
		cp.ShouldOn = &v
	}
	if s.DecidedAt != nil {
		v := *s.DecidedAt
		cp.DecidedAt = &v
	}
	if s.LastCmdSentOn != nil {
		v := *s.LastCmdSentOn
		cp.LastCmdSentOn = &v
	}
	if s.LastCmdSentAt != nil {
		v := *s.LastCmdSentAt
		cp.LastCmdSentAt = &v
	}
	return cp
}
