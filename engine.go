// Package officesim implements the office agent simulation: a per-agent work/rest state
// machine with a continuous energy model and movement toward a shared rest station,
// advanced once per frame tick.
package officesim

import (
	"fmt"

	"officesim/shared"
)

// Simulation constants. Rates are per second of simulated time.
const (
	MaxEnergy        = 100.0
	DecayRate        = 3.0
	FatigueThreshold = 30.0
	ArrivalEpsilon   = 0.1
	Speed            = 2.5
)

// DefaultRestStation is the location of the coffee machine
var DefaultRestStation = shared.Vec3{X: 0, Y: 0, Z: -4}

// RestStation is the shared recovery destination of every agent
type RestStation struct {
	point shared.Vec3
}

// NewRestStation creates a rest station at p
func NewRestStation(p shared.Vec3) RestStation {
	return RestStation{point: p}
}

// Point returns a copy of the station location
func (r RestStation) Point() shared.Vec3 { return r.point }

// Engine holds the agents of one office and advances them tick by tick
type Engine struct {
	station  RestStation
	roster   []RosterEntry
	agents   []*Agent
	index    map[string]int
	tick     int64
	observer Observer
	strict   bool
}

// Option configures an Engine
type Option func(*Engine)

// WithObserver registers fn to receive every transition
func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observer = fn }
}

// WithStrictInvariants makes the engine panic when an agent invariant breaks after a step
func WithStrictInvariants() Option {
	return func(e *Engine) { e.strict = true }
}

// WithRestStation moves the rest station away from DefaultRestStation
func WithRestStation(p shared.Vec3) Option {
	return func(e *Engine) { e.station = NewRestStation(p) }
}

// NewEngine creates an engine with one agent per roster entry
func NewEngine(roster []RosterEntry, opts ...Option) (*Engine, error) {
	if err := ValidateRoster(roster); err != nil {
		return nil, err
	}

	e := &Engine{
		station: NewRestStation(DefaultRestStation),
		roster:  make([]RosterEntry, len(roster)),
		agents:  make([]*Agent, 0, len(roster)),
		index:   make(map[string]int, len(roster)),
	}
	for _, opt := range opts {
		opt(e)
	}

	copy(e.roster, roster)
	for i, entry := range roster {
		e.agents = append(e.agents, NewAgent(entry.ID, entry.Home()))
		e.index[entry.ID] = i
	}
	return e, nil
}

// Advance moves the simulation forward by dt seconds and returns the transitions it produced
func (e *Engine) Advance(dt float64) []Transition {
	e.tick++
	transitions := Advance(e.agents, dt, e.station)
	for i := range transitions {
		transitions[i].Tick = e.tick
		if e.observer != nil {
			e.observer(transitions[i])
		}
	}
	if e.strict {
		for _, a := range e.agents {
			if err := a.Validate(); err != nil {
				panic(err)
			}
		}
	}
	return transitions
}

// Tick returns the number of Advance calls so far
func (e *Engine) Tick() int64 { return e.tick }

// RestStation returns the station location
func (e *Engine) RestStation() shared.Vec3 { return e.station.Point() }

// Agent returns a copy of the agent with the given id
func (e *Engine) Agent(id string) (Agent, bool) {
	i, ok := e.index[id]
	if !ok {
		return Agent{}, false
	}
	return e.agents[i].Clone(), true
}

// Agents returns copies of all agents in roster order
func (e *Engine) Agents() []Agent {
	out := make([]Agent, 0, len(e.agents))
	for _, a := range e.agents {
		out = append(out, a.Clone())
	}
	return out
}

// Advance updates every agent for a tick of dt seconds.
// Agents never read each other, so order does not matter.
// The caller owns agents and must not modify them outside Advance; Engine only hands out clones.
func Advance(agents []*Agent, dt float64, station RestStation) []Transition {
	if dt <= 0 {
		return nil
	}
	var transitions []Transition
	for _, a := range agents {
		transitions = append(transitions, step(a, dt, station)...)
	}
	return transitions
}

// step runs the per-agent update in its fixed order:
// terminal check, decay, incapacitation, fatigue, movement.
// Incapacitation ends the step so a fainting agent never finishes its trip.
func step(a *Agent, dt float64, station RestStation) []Transition {
	if a.State == Incapacitated {
		return nil
	}

	decayEnergy(a, dt)

	if from, ok := incapacitate(a); ok {
		return []Transition{transitionOf(a, from)}
	}

	var transitions []Transition
	if from, ok := checkFatigue(a, station); ok {
		transitions = append(transitions, transitionOf(a, from))
	}
	if from, ok := integrateMovement(a, dt); ok {
		transitions = append(transitions, transitionOf(a, from))
	}
	return transitions
}

func decayEnergy(a *Agent, dt float64) {
	if !a.State.Active() {
		return
	}
	a.Energy = clampEnergy(a.Energy - DecayRate*dt)
}

func incapacitate(a *Agent) (ActivityState, bool) {
	if a.Energy > 0 {
		return a.State, false
	}
	from := a.State
	a.Energy = 0
	a.State = Incapacitated
	a.Target = nil
	return from, true
}

// checkFatigue only fires from Working; a Returning agent is never sent back to rest.
func checkFatigue(a *Agent, station RestStation) (ActivityState, bool) {
	if a.State != Working || a.Energy >= FatigueThreshold {
		return a.State, false
	}
	target := station.Point()
	a.State = GoingToRest
	a.Target = &target
	return Working, true
}

func integrateMovement(a *Agent, dt float64) (ActivityState, bool) {
	if !a.State.Moving() {
		return a.State, false
	}
	if a.Target == nil {
		panic(fmt.Errorf("%w: agent %s is %s without a target", ErrInvariant, a.id, a.State))
	}

	direction := a.Target.Sub(a.Position)
	distance := direction.Len()
	if distance < ArrivalEpsilon {
		return arrive(a), true
	}

	travel := Speed * dt
	if travel >= distance {
		a.Position = *a.Target
		return a.State, false
	}
	a.Position = a.Position.Add(direction.Normalize().Scale(travel))
	return a.State, false
}

func arrive(a *Agent) ActivityState {
	from := a.State
	switch a.State {
	case GoingToRest:
		home := a.home
		a.Energy = MaxEnergy
		a.State = Returning
		a.Target = &home
	case Returning:
		a.State = Working
		a.Target = nil
	}
	return from
}

func clampEnergy(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxEnergy:
		return MaxEnergy
	default:
		return v
	}
}
