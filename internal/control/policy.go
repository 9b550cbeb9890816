package control

import "time"

// Decision is the policy's verdict for one room.
type Decision int

// Policy decisions. Abstain is a valid outcome, not an error: the policy
// lacks data or the temperature sits inside the hysteresis band.
const (
	Abstain Decision = iota
	TurnOn
	TurnOff
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case TurnOn:
		return "on"
	case TurnOff:
		return "off"
	default:
		return "abstain"
	}
}

// Season is the HVAC mode implied by the calendar month.
type Season int

// Seasons.
const (
	SeasonOff Season = iota
	SeasonCool
	SeasonHeat
)

// String returns the season name used in command payloads.
func (s Season) String() string {
	switch s {
	case SeasonCool:
		return "cool"
	case SeasonHeat:
		return "heat"
	default:
		return "off"
	}
}

// SeasonFor maps a month to its mode: cool May-August, heat November-April,
// off in September and October.
func SeasonFor(month time.Month) Season {
	switch month {
	case time.May, time.June, time.July, time.August:
		return SeasonCool
	case time.November, time.December, time.January, time.February, time.March, time.April:
		return SeasonHeat
	default:
		return SeasonOff
	}
}

// Thresholds are the hysteresis band edges in degrees Celsius.
type Thresholds struct {
	CoolOn  float64
	CoolOff float64
	HeatOn  float64
	HeatOff float64

	// HighOccupancyRatio is the occupants/capacity ratio above which a room is crowded.
	HighOccupancyRatio float64

	// HighOccupancyAdjustment moves the on-threshold towards comfort for crowded rooms.
	HighOccupancyAdjustment float64
}

// DefaultThresholds returns the standard campus band.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CoolOn:                  26,
		CoolOff:                 24,
		HeatOn:                  20,
		HeatOff:                 22,
		HighOccupancyRatio:      0.6,
		HighOccupancyAdjustment: 1,
	}
}

// RoomConditions are the inputs for one room. Nil means unknown.
type RoomConditions struct {
	RoomID      string
	Temperature *float64
	Occupants   *float64
	Capacity    *int
}

// Policy is the seasonal hysteresis controller. It holds no state.
type Policy struct {
	t Thresholds
}

// NewPolicy creates a policy with the given thresholds.
func NewPolicy(t Thresholds) *Policy {
	return &Policy{t: t}
}

// Thresholds returns the configured band.
func (p *Policy) Thresholds() Thresholds {
	return p.t
}

// Decide evaluates one room.
//
// The order of checks:
//  1. Abstain if temperature, occupants or capacity is unknown, or capacity <= 0.
//  2. Turn off if the room is empty, whatever the temperature.
//  3. Abstain in the transition season.
//  4. Compare against the band for the season, with the on-threshold moved
//     by HighOccupancyAdjustment when occupants/capacity > HighOccupancyRatio.
func (p *Policy) Decide(c RoomConditions, month time.Month) Decision {
	if c.Temperature == nil || c.Occupants == nil || c.Capacity == nil || *c.Capacity <= 0 {
		return Abstain
	}
	if *c.Occupants == 0 {
		return TurnOff
	}

	temp := *c.Temperature
	high := *c.Occupants/float64(*c.Capacity) > p.t.HighOccupancyRatio

	switch SeasonFor(month) {
	case SeasonCool:
		on := p.t.CoolOn
		if high {
			on -= p.t.HighOccupancyAdjustment
		}
		switch {
		case temp >= on:
			return TurnOn
		case temp <= p.t.CoolOff:
			return TurnOff
		}
	case SeasonHeat:
		on := p.t.HeatOn
		if high {
			on += p.t.HighOccupancyAdjustment
		}
		switch {
		case temp <= on:
			return TurnOn
		case temp >= p.t.HeatOff:
			return TurnOff
		}
	}
	return Abstain
}
