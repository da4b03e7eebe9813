package officesim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyColor(t *testing.T) {
	assert.Equal(t, "#22c55e", EnergyColor(100))
	assert.Equal(t, "#22c55e", EnergyColor(60.1))
	assert.Equal(t, "#eab308", EnergyColor(60))
	assert.Equal(t, "#eab308", EnergyColor(30.1))
	assert.Equal(t, "#f97316", EnergyColor(30))
	assert.Equal(t, "#f97316", EnergyColor(0))
}

func TestEngine_Snapshot(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 24; i++ {
		e.Advance(1.0)
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	state := e.Snapshot(at)

	assert.Equal(t, int64(24), state.Tick)
	assert.Equal(t, at, state.At)
	assert.Equal(t, DefaultRestStation, state.RestStation)
	require.Len(t, state.Agents, 5)

	writer := state.Agents[2]
	assert.Equal(t, "writer", writer.ID)
	assert.Equal(t, "Writer", writer.Name)
	assert.Equal(t, "Writer Agent", writer.Role)
	assert.Equal(t, []string{"Reports", "Docs", "Summaries"}, writer.Tasks)
	assert.Equal(t, "going_to_rest", writer.State)
	assert.Equal(t, "Heading to coffee...", writer.Label)
	assert.InDelta(t, 28, writer.Energy, 1e-9)
	assert.Equal(t, "#f97316", writer.EnergyColor)

	// the snapshot does not alias engine state
	writer.Tasks[0] = "changed"
	again := e.Snapshot(at)
	assert.Equal(t, "Reports", again.Agents[2].Tasks[0])
}

func TestTransition_TransitionEvent(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	tr := Transition{AgentID: "monitor", From: GoingToRest, To: Incapacitated, Tick: 7}

	ev := tr.TransitionEvent(at)

	assert.Equal(t, "monitor", ev.AgentID)
	assert.Equal(t, "going_to_rest", ev.From)
	assert.Equal(t, "incapacitated", ev.To)
	assert.Equal(t, int64(7), ev.Tick)
	assert.Equal(t, at, ev.At)
}
