// Package snapshot implements the state frame: build from live world
// state, delta-encode against a baseline, interpolate between two
// bracketing frames, and apply the result back into the world
// (spec.md §4.5). Grounded on net.cpp's StateFrame / state_frame_build /
// serialize_state_frame / state_frame_interpolate / state_frame_apply.
package snapshot

import (
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/vmath"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// MaxPlayers bounds the fixed-size player/drone arrays (net.cpp's
// MAX_PLAYERS).
const MaxPlayers = 16

// TransformState is one networked mover's snapshot entry (spec.md §3).
type TransformState struct {
	Revision   uint16
	Position   vmath.Vec3
	Rotation   vmath.Quat
	Parent     entity.Ref
	Resolution wire.Resolution
}

func (a TransformState) equal(b TransformState) bool {
	tol := maxTol(a.Resolution.PosTolerance(), b.Resolution.PosTolerance())
	return a.Revision == b.Revision &&
		a.Resolution == b.Resolution &&
		a.Parent == b.Parent &&
		quantEqual(a.Position.X, b.Position.X, tol) &&
		quantEqual(a.Position.Y, b.Position.Y, tol) &&
		quantEqual(a.Position.Z, b.Position.Z, tol) &&
		rotEqual(a.Rotation, b.Rotation, maxRotTol(a.Resolution, b.Resolution))
}

func maxTol(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func maxRotTol(a, b wire.Resolution) float32 {
	return maxTol(a.RotTolerance(), b.RotTolerance())
}

func quantEqual(a, b, tol float32) bool {
	return int32(a/tol) == int32(b/tol)
}

func rotEqual(a, b vmath.Quat, tol float32) bool {
	return a.Dot(b) > 1-tol
}

// PlayerManagerState is one fixed player slot (spec.md §3).
type PlayerManagerState struct {
	Active       bool
	Credits      int32
	Kills        int32
	Respawns     int32
	RespawnTimer float32
	Upgrades     uint32
	Abilities    [3]int8
	Instance     entity.Ref
}

func (a PlayerManagerState) equal(b PlayerManagerState) bool {
	return a.Active == b.Active &&
		a.Credits == b.Credits &&
		a.Kills == b.Kills &&
		a.Respawns == b.Respawns &&
		a.RespawnTimer == b.RespawnTimer &&
		a.Upgrades == b.Upgrades &&
		a.Abilities == b.Abilities &&
		a.Instance == b.Instance
}

// DroneState is one per-player drone-character slot (spec.md §3).
type DroneState struct {
	Revision uint16
	Active   bool
	Charges  int32
}

func (a DroneState) equal(b DroneState) bool {
	return a.Revision == b.Revision && a.Active == b.Active && a.Charges == b.Charges
}

// MinionState is one minion animation entry (spec.md §3).
type MinionState struct {
	Rotation       float32
	AttackTimer    float32
	AnimationAsset uint32
	AnimationTime  float32
}

func (a MinionState) equal(b MinionState) bool {
	const rotTol = 2 * 3.14159265 / 256.0
	return vmath.ClosestAngle(a.Rotation, b.Rotation) < rotTol &&
		vmath.ClosestAngle(a.Rotation, b.Rotation) > -rotTol &&
		absf(a.AnimationTime-b.AnimationTime) < 0.01 &&
		a.AttackTimer == 0 && b.AttackTimer == 0 &&
		a.AnimationAsset == b.AnimationAsset
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Frame is one server-tick snapshot of all replicated world state
// (spec.md §3). Transforms and Minions are sparse sets keyed by entity
// id; Players and Drones are fixed-size arrays.
type Frame struct {
	SequenceID seq.ID
	Timestamp  float64
	Transforms map[entity.ID]TransformState
	Players    [MaxPlayers]PlayerManagerState
	Drones     [MaxPlayers]DroneState
	Minions    map[entity.ID]MinionState
}

func NewFrame() *Frame {
	return &Frame{
		Transforms: make(map[entity.ID]TransformState),
		Minions:    make(map[entity.ID]MinionState),
	}
}

// History is the rolling 256-slot ring of state frames each endpoint
// keeps, evicted FIFO (spec.md §3 Ownership).
const HistorySize = 256

type History struct {
	frames [HistorySize]*Frame
	next   int
}

func NewHistory() *History { return &History{} }

func (h *History) Add(f *Frame) {
	h.frames[h.next%HistorySize] = f
	h.next++
}

// BySequence returns the frame stamped with the given sequence id, or
// nil if it has already been evicted or never arrived.
func (h *History) BySequence(id seq.ID) *Frame {
	for _, f := range h.frames {
		if f != nil && f.SequenceID == id {
			return f
		}
	}
	return nil
}

// Latest returns the most recently added frame, or nil if empty.
func (h *History) Latest() *Frame {
	if h.next == 0 {
		return nil
	}
	return h.frames[(h.next-1)%HistorySize]
}
