package officesim

import "officesim/shared"

// Transition represents an activity state change of one agent during a tick
type Transition struct {
	AgentID  string
	From     ActivityState
	To       ActivityState
	Energy   float64
	Position shared.Vec3
	Tick     int64
}

// Observer receives every transition produced by Engine.Advance
type Observer func(Transition)

func transitionOf(a *Agent, from ActivityState) Transition {
	return Transition{
		AgentID:  a.id,
		From:     from,
		To:       a.State,
		Energy:   a.Energy,
		Position: a.Position,
	}
}
