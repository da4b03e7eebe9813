// Package shared contains common types and data structures used across the office system.
// It defines points, agent snapshots, office state and transition records exchanged between
// the simulation server, the viewer and the narrator.
package shared

import (
	"math"
	"time"
)

// Vec3 represents a point or direction in office space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Len returns the euclidean length of v
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// AgentState is the read-only projection of one agent consumed by presentation code
type AgentState struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Tasks       []string `json:"tasks"`
	Home        Vec3     `json:"home"`
	Position    Vec3     `json:"position"`
	Energy      float64  `json:"energy"`
	State       string   `json:"state"`
	Label       string   `json:"label"`
	EnergyColor string   `json:"energy_color"`
}

// OfficeState represents the current state of the whole office
type OfficeState struct {
	Tick        int64        `json:"tick"`
	At          time.Time    `json:"at"`
	RestStation Vec3         `json:"rest_station"`
	Agents      []AgentState `json:"agents"`
}

// TransitionEvent records one activity state change of an agent
type TransitionEvent struct {
	AgentID  string    `json:"agent_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Energy   float64   `json:"energy"`
	Position Vec3      `json:"position"`
	Tick     int64     `json:"tick"`
	At       time.Time `json:"at"`
}

// ViewerMessageType tags messages pushed to websocket viewers
type ViewerMessageType string

const (
	ViewerMessageState      ViewerMessageType = "state"
	ViewerMessageTransition ViewerMessageType = "transition"
)

// ViewerMessage is one websocket frame sent to a viewer
type ViewerMessage struct {
	Type       ViewerMessageType `json:"type"`
	State      *OfficeState      `json:"state,omitempty"`
	Transition *TransitionEvent  `json:"transition,omitempty"`
}
