package officesim

import (
	"errors"
	"fmt"
	"math"

	"officesim/shared"
)

// ActivityState is the activity an agent is currently engaged in
type ActivityState int

const (
	Working ActivityState = iota
	GoingToRest
	Returning
	Incapacitated
)

// ErrInvariant is wrapped by every error returned from Agent.Validate
var ErrInvariant = errors.New("agent invariant violated")

// String returns the wire name of the state
func (s ActivityState) String() string {
	switch s {
	case Working:
		return "working"
	case GoingToRest:
		return "going_to_rest"
	case Returning:
		return "returning"
	case Incapacitated:
		return "incapacitated"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Label returns the human readable overlay text for the state
func (s ActivityState) Label() string {
	switch s {
	case Working:
		return "Working"
	case GoingToRest:
		return "Heading to coffee..."
	case Returning:
		return "Returning to desk"
	case Incapacitated:
		return "KO"
	default:
		return "--"
	}
}

// Active reports whether energy decays in this state
func (s ActivityState) Active() bool {
	return s == Working || s == GoingToRest || s == Returning
}

// Moving reports whether the state carries a movement target
func (s ActivityState) Moving() bool {
	return s == GoingToRest || s == Returning
}

// Agent represents a simulated office worker
type Agent struct {
	id   string
	home shared.Vec3

	Position shared.Vec3
	Energy   float64
	State    ActivityState
	Target   *shared.Vec3
}

// NewAgent creates an agent sitting at its desk with full energy
func NewAgent(id string, home shared.Vec3) *Agent {
	return &Agent{
		id:       id,
		home:     home,
		Position: home,
		Energy:   MaxEnergy,
		State:    Working,
	}
}

// ID returns the agent identifier
func (a *Agent) ID() string { return a.id }

// Home returns the agent's desk location
func (a *Agent) Home() shared.Vec3 { return a.home }

// Clone returns a deep copy of the agent
func (a *Agent) Clone() Agent {
	c := *a
	if a.Target != nil {
		t := *a.Target
		c.Target = &t
	}
	return c
}

// Validate checks the agent invariants. A failure indicates an engine defect.
func (a *Agent) Validate() error {
	if math.IsNaN(a.Energy) || a.Energy < 0 || a.Energy > MaxEnergy {
		return fmt.Errorf("%w: agent %s energy %v out of range", ErrInvariant, a.id, a.Energy)
	}
	if a.State.Moving() && a.Target == nil {
		return fmt.Errorf("%w: agent %s is %s without a target", ErrInvariant, a.id, a.State)
	}
	if !a.State.Moving() && a.Target != nil {
		return fmt.Errorf("%w: agent %s is %s with a target", ErrInvariant, a.id, a.State)
	}
	if a.State < Working || a.State > Incapacitated {
		return fmt.Errorf("%w: agent %s has unknown state %d", ErrInvariant, a.id, int(a.State))
	}
	return nil
}
