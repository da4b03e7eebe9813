package officesim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officesim/shared"
)

var testStation = NewRestStation(DefaultRestStation)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultRoster(), append([]Option{WithStrictInvariants()}, opts...)...)
	require.NoError(t, err)
	return e
}

func assertVecNear(t *testing.T, want, got shared.Vec3, eps float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

func TestNewEngine(t *testing.T) {
	e := newTestEngine(t)

	agents := e.Agents()
	require.Len(t, agents, len(DefaultRoster()))
	for i, entry := range DefaultRoster() {
		a := agents[i]
		assert.Equal(t, entry.ID, a.ID())
		assert.Equal(t, entry.Home(), a.Home())
		assert.Equal(t, a.Home(), a.Position)
		assert.Equal(t, MaxEnergy, a.Energy)
		assert.Equal(t, Working, a.State)
		assert.Nil(t, a.Target)
	}
	assert.Equal(t, DefaultRestStation, e.RestStation())
	assert.Zero(t, e.Tick())
}

func TestNewEngine_RejectsBadRoster(t *testing.T) {
	tests := []struct {
		name   string
		roster []RosterEntry
	}{
		{"empty", nil},
		{"blank id", []RosterEntry{{ID: "", Name: "x"}}},
		{"duplicate id", []RosterEntry{{ID: "a"}, {ID: "a"}}},
		{"uppercase id", []RosterEntry{{ID: "Writer"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.roster)
			assert.Error(t, err)
		})
	}
}

func TestAdvance_EnergyDecay(t *testing.T) {
	tests := []struct {
		name   string
		state  ActivityState
		energy float64
		dt     float64
		want   float64
	}{
		{"working", Working, 100, 1.0, 97},
		{"working small dt", Working, 80, 0.016, 80 - 3*0.016},
		{"going to rest", GoingToRest, 50, 2.0, 44},
		{"returning", Returning, 20, 1.5, 15.5},
		{"zero dt", Working, 64, 0, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAgent("a", shared.Vec3{X: 10})
			a.State = tt.state
			a.Energy = tt.energy
			if tt.state.Moving() {
				// far away so no arrival happens this tick
				far := shared.Vec3{X: 100}
				a.Target = &far
			}

			Advance([]*Agent{a}, tt.dt, testStation)

			assert.InDelta(t, tt.want, a.Energy, 1e-9)
		})
	}
}

func TestAdvance_NegativeDeltaIsNoop(t *testing.T) {
	a := NewAgent("a", shared.Vec3{})
	before := a.Clone()

	transitions := Advance([]*Agent{a}, -1, testStation)

	assert.Empty(t, transitions)
	assert.Equal(t, before, a.Clone())
}

func TestAdvance_FatigueTrigger(t *testing.T) {
	a := NewAgent("writer", shared.Vec3{X: 2, Z: 3})
	a.Energy = 30.5

	transitions := Advance([]*Agent{a}, 0.2, testStation)

	require.Len(t, transitions, 1)
	assert.Equal(t, Working, transitions[0].From)
	assert.Equal(t, GoingToRest, transitions[0].To)
	assert.Equal(t, GoingToRest, a.State)
	require.NotNil(t, a.Target)
	assert.Equal(t, DefaultRestStation, *a.Target)
	assert.InDelta(t, 29.9, a.Energy, 1e-9)
}

func TestAdvance_FatigueNotTriggeredAtThreshold(t *testing.T) {
	a := NewAgent("a", shared.Vec3{})
	a.Energy = 33

	Advance([]*Agent{a}, 1.0, testStation)

	assert.Equal(t, Working, a.State)
	assert.Nil(t, a.Target)
	assert.InDelta(t, FatigueThreshold, a.Energy, 1e-9)
}

func TestAdvance_ReturningNeverRetriggersFatigue(t *testing.T) {
	a := NewAgent("a", shared.Vec3{X: 50})
	a.Position = shared.Vec3{}
	a.State = Returning
	a.Energy = 10
	home := a.Home()
	a.Target = &home

	transitions := Advance([]*Agent{a}, 1.0, testStation)

	assert.Empty(t, transitions)
	assert.Equal(t, Returning, a.State)
	require.NotNil(t, a.Target)
	assert.Equal(t, home, *a.Target)
	assert.InDelta(t, 7, a.Energy, 1e-9)
	assertVecNear(t, shared.Vec3{X: Speed}, a.Position, 1e-9)

	// still below the threshold on the next tick, still heading home
	Advance([]*Agent{a}, 1.0, testStation)

	assert.Equal(t, Returning, a.State)
	assert.InDelta(t, 4, a.Energy, 1e-9)
	assertVecNear(t, shared.Vec3{X: 2 * Speed}, a.Position, 1e-9)
}

func TestAdvance_TargetIsCopyOfStation(t *testing.T) {
	a := NewAgent("a", shared.Vec3{})
	a.Energy = 29.99

	Advance([]*Agent{a}, 0.001, testStation)
	require.NotNil(t, a.Target)
	a.Target.X = 99

	assert.Equal(t, DefaultRestStation, testStation.Point())
}

func TestAdvance_MovementSpeed(t *testing.T) {
	a := NewAgent("a", shared.Vec3{X: 10})
	a.State = GoingToRest
	target := shared.Vec3{}
	a.Target = &target

	Advance([]*Agent{a}, 0.5, testStation)

	assertVecNear(t, shared.Vec3{X: 10 - Speed*0.5}, a.Position, 1e-9)
	assert.Equal(t, GoingToRest, a.State)
}

func TestAdvance_MovementDoesNotOvershoot(t *testing.T) {
	a := NewAgent("a", shared.Vec3{Z: -3})
	a.State = GoingToRest
	target := DefaultRestStation
	a.Target = &target

	Advance([]*Agent{a}, 1.0, testStation)
	assertVecNear(t, DefaultRestStation, a.Position, 1e-12)
	assert.Equal(t, GoingToRest, a.State)

	transitions := Advance([]*Agent{a}, 1.0/60, testStation)
	require.Len(t, transitions, 1)
	assert.Equal(t, Returning, a.State)
}

func TestAdvance_FrameRateStepIsUncapped(t *testing.T) {
	a := NewAgent("a", shared.Vec3{})
	a.State = GoingToRest
	target := DefaultRestStation
	a.Target = &target

	// one frame at 60 fps travels the full speed*dt, well short of the target
	for i := 1; i <= 10; i++ {
		Advance([]*Agent{a}, 1.0/60, testStation)
		assertVecNear(t, shared.Vec3{Z: -Speed * float64(i) / 60}, a.Position, 1e-9)
	}
	assert.Equal(t, GoingToRest, a.State)
}

func TestAdvance_FullRecoveryOnArrival(t *testing.T) {
	for _, energy := range []float64{1, 12.5, 29.9} {
		a := NewAgent("a", shared.Vec3{X: 4})
		a.State = GoingToRest
		a.Energy = energy
		a.Position = shared.Vec3{X: 0.05, Z: -4}
		target := DefaultRestStation
		a.Target = &target

		transitions := Advance([]*Agent{a}, 0.1, testStation)

		require.Len(t, transitions, 1)
		assert.Equal(t, Returning, a.State)
		assert.Equal(t, MaxEnergy, a.Energy)
		assert.Equal(t, MaxEnergy, transitions[0].Energy)
		require.NotNil(t, a.Target)
		assert.Equal(t, a.Home(), *a.Target)
	}
}

func TestAdvance_ConcreteScenario(t *testing.T) {
	a := NewAgent("a", shared.Vec3{})
	a.Energy = 31
	agents := []*Agent{a}

	Advance(agents, 1.0, testStation)
	assert.InDelta(t, 28, a.Energy, 1e-9)
	assert.Equal(t, GoingToRest, a.State)
	require.NotNil(t, a.Target)
	assert.Equal(t, shared.Vec3{Z: -4}, *a.Target)
	assertVecNear(t, shared.Vec3{Z: -2.5}, a.Position, 1e-9)

	Advance(agents, 1.0, testStation)
	assert.InDelta(t, 25, a.Energy, 1e-9)
	assertVecNear(t, shared.Vec3{Z: -4}, a.Position, 1e-9)
	assert.Equal(t, GoingToRest, a.State)

	Advance(agents, 1.0, testStation)
	assert.Equal(t, MaxEnergy, a.Energy)
	assert.Equal(t, Returning, a.State)
	require.NotNil(t, a.Target)
	assert.Equal(t, shared.Vec3{}, *a.Target)
}

func TestAdvance_RoundTrip(t *testing.T) {
	home := shared.Vec3{X: -6, Z: 3}
	a := NewAgent("monitor", home)
	a.Energy = 30.01
	agents := []*Agent{a}

	var seen []ActivityState
	for i := 0; i < 10000 && (len(seen) == 0 || a.State != Working); i++ {
		for _, tr := range Advance(agents, 1.0/60, testStation) {
			seen = append(seen, tr.To)
		}
		require.NotEqual(t, Incapacitated, a.State)
	}

	assert.Equal(t, []ActivityState{GoingToRest, Returning, Working}, seen)
	assert.Equal(t, Working, a.State)
	assert.Nil(t, a.Target)
	assert.Less(t, a.Position.Sub(home).Len(), ArrivalEpsilon)
}

func TestAdvance_IncapacitationMidTransit(t *testing.T) {
	a := NewAgent("a", shared.Vec3{X: 5})
	a.State = GoingToRest
	a.Energy = 2
	a.Position = shared.Vec3{X: 3, Z: -1}
	target := DefaultRestStation
	a.Target = &target

	transitions := Advance([]*Agent{a}, 1.0, testStation)

	require.Len(t, transitions, 1)
	assert.Equal(t, GoingToRest, transitions[0].From)
	assert.Equal(t, Incapacitated, transitions[0].To)
	assert.Equal(t, 0.0, a.Energy)
	assert.Equal(t, Incapacitated, a.State)
	assert.Nil(t, a.Target)
	assert.Equal(t, shared.Vec3{X: 3, Z: -1}, a.Position)
}

func TestAdvance_IncapacitationPreemptsArrival(t *testing.T) {
	a := NewAgent("a", shared.Vec3{})
	a.State = Returning
	a.Energy = 0.5
	a.Position = shared.Vec3{X: 0.01}
	home := a.Home()
	a.Target = &home

	Advance([]*Agent{a}, 1.0, testStation)

	assert.Equal(t, Incapacitated, a.State)
	assert.Equal(t, shared.Vec3{X: 0.01}, a.Position)
}

func TestAdvance_TerminalAbsorption(t *testing.T) {
	a := NewAgent("a", shared.Vec3{X: 1})
	a.Energy = 1

	Advance([]*Agent{a}, 1.0, testStation)
	require.Equal(t, Incapacitated, a.State)
	frozen := a.Clone()

	for _, dt := range []float64{0.016, 1, 10, 1000, 0} {
		transitions := Advance([]*Agent{a}, dt, testStation)
		assert.Empty(t, transitions)
		assert.Equal(t, frozen, a.Clone())
	}
}

func TestAdvance_AgentsAreIndependent(t *testing.T) {
	build := func() []*Agent {
		a := NewAgent("a", shared.Vec3{X: 1})
		a.Energy = 30.2
		b := NewAgent("b", shared.Vec3{X: -3, Z: 2})
		b.Energy = 4
		c := NewAgent("c", shared.Vec3{Z: 9})
		return []*Agent{a, b, c}
	}

	forward := build()
	backward := build()
	reversed := []*Agent{backward[2], backward[1], backward[0]}
	for i := 0; i < 300; i++ {
		Advance(forward, 0.05, testStation)
		Advance(reversed, 0.05, testStation)
	}

	for i := range forward {
		assert.Equal(t, forward[i].Clone(), backward[i].Clone())
	}
}

func TestEngine_AdvanceNotifiesObserver(t *testing.T) {
	var got []Transition
	e := newTestEngine(t, WithObserver(func(tr Transition) { got = append(got, tr) }))

	// 100 energy at 3/s drops below 30 after just over 23.3s
	for i := 0; i < 24; i++ {
		e.Advance(1.0)
	}

	require.Len(t, got, len(DefaultRoster()))
	for _, tr := range got {
		assert.Equal(t, Working, tr.From)
		assert.Equal(t, GoingToRest, tr.To)
		assert.Equal(t, int64(24), tr.Tick)
	}
	assert.Equal(t, int64(24), e.Tick())
}

func TestEngine_AgentLookupReturnsCopy(t *testing.T) {
	e := newTestEngine(t)

	a, ok := e.Agent("writer")
	require.True(t, ok)
	a.Energy = 1

	again, _ := e.Agent("writer")
	assert.Equal(t, MaxEnergy, again.Energy)

	_, ok = e.Agent("nobody")
	assert.False(t, ok)
}

func TestEngine_AgentsReturnsCopies(t *testing.T) {
	e := newTestEngine(t)

	agents := e.Agents()
	agents[0].Energy = 1
	agents[0].State = Incapacitated
	agents[0].Position = shared.Vec3{X: 99}

	fresh := e.Agents()
	assert.Equal(t, MaxEnergy, fresh[0].Energy)
	assert.Equal(t, Working, fresh[0].State)
	assert.Equal(t, fresh[0].Home(), fresh[0].Position)
}

func TestEngine_LongRunKeepsInvariants(t *testing.T) {
	e := newTestEngine(t)

	for i := 0; i < 60*600; i++ {
		e.Advance(1.0 / 60)
	}

	for _, a := range e.Agents() {
		assert.NoError(t, a.Validate())
		assert.False(t, math.IsNaN(a.Position.X))
	}
}

func TestEngine_WithRestStation(t *testing.T) {
	station := shared.Vec3{X: 3, Z: 3}
	e := newTestEngine(t, WithRestStation(station))
	assert.Equal(t, station, e.RestStation())

	for i := 0; i < 24; i++ {
		e.Advance(1.0)
	}
	a, _ := e.Agent("writer")
	require.NotNil(t, a.Target)
	assert.Equal(t, station, *a.Target)
}
