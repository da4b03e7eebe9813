package officesim

import (
	"time"

	"officesim/shared"
)

// EnergyColor returns the overlay bar color for an energy level
func EnergyColor(energy float64) string {
	switch {
	case energy > 60:
		return "#22c55e"
	case energy > 30:
		return "#eab308"
	default:
		return "#f97316"
	}
}

// Snapshot returns an immutable view of the office taken at the given time
func (e *Engine) Snapshot(at time.Time) shared.OfficeState {
	agents := make([]shared.AgentState, 0, len(e.agents))
	for i, a := range e.agents {
		entry := e.roster[i]
		tasks := make([]string, len(entry.Tasks))
		copy(tasks, entry.Tasks)
		agents = append(agents, shared.AgentState{
			ID:          a.id,
			Name:        entry.Name,
			Role:        entry.Role,
			Tasks:       tasks,
			Home:        a.home,
			Position:    a.Position,
			Energy:      a.Energy,
			State:       a.State.String(),
			Label:       a.State.Label(),
			EnergyColor: EnergyColor(a.Energy),
		})
	}

	return shared.OfficeState{
		Tick:        e.tick,
		At:          at,
		RestStation: e.station.Point(),
		Agents:      agents,
	}
}

// TransitionEvent converts a transition into its wire form
func (t Transition) TransitionEvent(at time.Time) shared.TransitionEvent {
	return shared.TransitionEvent{
		AgentID:  t.AgentID,
		From:     t.From.String(),
		To:       t.To.String(),
		Energy:   t.Energy,
		Position: t.Position,
		Tick:     t.Tick,
		At:       at,
	}
}
