package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"officesim"
	"officesim/shared"
)

// TransitionSink receives every agent transition after the tick that produced it
type TransitionSink func(shared.TransitionEvent)

// StateSink receives the office state after every tick
type StateSink func(shared.OfficeState)

// CoreStats summarizes tick processing times
type CoreStats struct {
	Ticks          int64         `json:"ticks"`
	AvgTickLatency time.Duration `json:"avg_tick_latency_ns"`
	MaxTickLatency time.Duration `json:"max_tick_latency_ns"`
}

// SimulationCore drives the office engine from a frame clock and fans out the results
type SimulationCore struct {
	TickRate   time.Duration
	PrintEvery int64

	engine *officesim.Engine
	clock  *officesim.FrameClock
	now    func() time.Time

	mu              sync.RWMutex
	state           shared.OfficeState
	latencySum      time.Duration
	latencyMax      time.Duration
	transitionSinks []TransitionSink
	stateSinks      []StateSink

	outputFile *os.File
}

// NewSimulationCore creates a core for roster. now may be nil to use the wall clock,
// outputFileName may be empty to disable the text dump.
func NewSimulationCore(roster []officesim.RosterEntry, tickRate time.Duration, outputFileName string, now func() time.Time) (*SimulationCore, error) {
	if now == nil {
		now = time.Now
	}

	engine, err := officesim.NewEngine(roster)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	core := &SimulationCore{
		TickRate:   tickRate,
		PrintEvery: 1,
		engine:     engine,
		clock:      officesim.NewFrameClockWith(now),
		now:        now,
	}
	core.state = engine.Snapshot(now())

	if outputFileName != "" {
		file, err := os.OpenFile(outputFileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open output file %s: %w", outputFileName, err)
		}
		core.outputFile = file
		log.Printf("Office output will be written to %s", outputFileName)
	}

	log.Printf("Simulation core initialized with %d agents", len(roster))
	return core, nil
}

// AddTransitionSink registers a transition consumer. Call before Run.
func (s *SimulationCore) AddTransitionSink(sink TransitionSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionSinks = append(s.transitionSinks, sink)
}

// AddStateSink registers a state consumer. Call before Run.
func (s *SimulationCore) AddStateSink(sink StateSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateSinks = append(s.stateSinks, sink)
}

// Tick advances the office by the time elapsed since the previous tick
func (s *SimulationCore) Tick() int64 {
	s.mu.Lock()
	start := time.Now()
	dt := s.clock.NextDelta()
	transitions := s.engine.Advance(dt)
	at := s.now()
	s.state = s.engine.Snapshot(at)
	state := s.state

	latency := time.Since(start)
	s.latencySum += latency
	if latency > s.latencyMax {
		s.latencyMax = latency
	}
	transitionSinks := s.transitionSinks
	stateSinks := s.stateSinks
	s.mu.Unlock()

	for _, tr := range transitions {
		ev := tr.TransitionEvent(at)
		for _, sink := range transitionSinks {
			sink(ev)
		}
	}
	for _, sink := range stateSinks {
		sink(state)
	}
	return state.Tick
}

// GetTickCount returns the current tick count
func (s *SimulationCore) GetTickCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tick
}

// GetOfficeState returns the state after the latest tick
func (s *SimulationCore) GetOfficeState() shared.OfficeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stats returns tick latency statistics
func (s *SimulationCore) Stats() CoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := CoreStats{Ticks: s.state.Tick, MaxTickLatency: s.latencyMax}
	if s.state.Tick > 0 {
		stats.AvgTickLatency = s.latencySum / time.Duration(s.state.Tick)
	}
	return stats
}

// Run ticks at TickRate until ctx is cancelled
func (s *SimulationCore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.TickRate)
	defer ticker.Stop()

	s.mu.Lock()
	s.clock.Reset()
	s.mu.Unlock()
	s.PrintState()

	for {
		select {
		case <-ctx.Done():
			log.Println("Simulation loop stopped")
			return
		case <-ticker.C:
			tick := s.Tick()
			if s.PrintEvery > 0 && tick%s.PrintEvery == 0 {
				s.PrintState()
			}
		}
	}
}

// writeHeader writes the header information to the output file
func (s *SimulationCore) writeHeader(state shared.OfficeState) error {
	_, err := fmt.Fprintf(s.outputFile, "Tick %d: %s - Current Office State:\n", state.Tick, state.At.Format(time.RFC3339))
	if err != nil {
		return err
	}
	p := state.RestStation
	_, err = fmt.Fprintf(s.outputFile, "Coffee machine at (%.2f, %.2f, %.2f)\n\n", p.X, p.Y, p.Z)
	return err
}

// energyBar renders energy as a 20 character bar
func energyBar(energy float64) string {
	filled := int(energy/5 + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 20-filled) + "]"
}

// writeAgentRows writes one line per agent to the output file
func (s *SimulationCore) writeAgentRows(state shared.OfficeState) error {
	for _, a := range state.Agents {
		_, err := fmt.Fprintf(s.outputFile, "%-14s %-22s %s %5.1f  (%6.2f, %6.2f, %6.2f)\n",
			a.Name, a.Label, energyBar(a.Energy), a.Energy, a.Position.X, a.Position.Y, a.Position.Z)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeStats writes tick latency statistics to the output file
func (s *SimulationCore) writeStats() error {
	stats := s.Stats()
	_, err := fmt.Fprintf(s.outputFile, "\nTick latency: avg %v, max %v\n", stats.AvgTickLatency, stats.MaxTickLatency)
	return err
}

// PrintState writes the current state of the office to the output file
func (s *SimulationCore) PrintState() {
	if s.outputFile == nil {
		return
	}
	state := s.GetOfficeState()

	if _, err := s.outputFile.Seek(0, 0); err != nil {
		log.Printf("Error seeking in output file: %v", err)
		return
	}

	if err := s.outputFile.Truncate(0); err != nil {
		log.Printf("Error truncating output file: %v", err)
		return
	}

	if err := s.writeHeader(state); err != nil {
		log.Printf("Error writing header: %v", err)
		return
	}

	if err := s.writeAgentRows(state); err != nil {
		log.Printf("Error writing agents: %v", err)
		return
	}

	if err := s.writeStats(); err != nil {
		log.Printf("Error writing stats: %v", err)
		return
	}

	if err := s.outputFile.Sync(); err != nil {
		log.Printf("Error syncing output file: %v", err)
	}
}

// Stop gracefully shuts down the simulation core
func (s *SimulationCore) Stop() {
	log.Println("Shutting down simulation core...")

	if s.outputFile != nil {
		log.Printf("Closing output file: %s", s.outputFile.Name())
		if err := s.outputFile.Close(); err != nil {
			log.Printf("Error closing output file: %v", err)
		}
	}
}
