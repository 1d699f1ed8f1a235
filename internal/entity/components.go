package entity

import (
	"github.com/deceiver-net/deceiver-net/internal/vmath"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// Transform is the replicated position/rotation component every
// networked mover carries (spec.md §3 TransformState).
type Transform struct {
	Revision   uint16
	Position   vmath.Vec3
	Rotation   vmath.Quat
	Parent     Ref
	Resolution wire.Resolution
}

// ConstraintType enumerates the small set of rigid-body joint kinds a
// networked rigid body may carry (spec.md §4.6).
type ConstraintType int

const (
	ConstraintNone ConstraintType = iota
	ConstraintFixed
	ConstraintHinge
	ConstraintConeTwist
)

// Constraint is one rigid-body joint: a peer reference, the two local
// frames, and a limit vector.
type Constraint struct {
	Type   ConstraintType
	Peer   Ref
	FrameA vmath.Vec3
	FrameB vmath.Vec3
	Limits vmath.Vec3
}

// RigidBody serializes only what the receiver cannot reconstruct: size,
// damping, mass (zero for networked movers so physics treats them as
// kinematic), collision group/filter, the CCD flag, and any attached
// constraints (spec.md §4.6).
type RigidBody struct {
	Revision        uint16
	Size            vmath.Vec3
	Damping         float32
	Mass            float32
	CollisionGroup  uint16
	CollisionFilter uint16
	CCD             bool
	Constraints     []Constraint
}

// PlayerManager is one fixed-size player slot (spec.md §3).
type PlayerManager struct {
	Revision   uint16
	Active     bool
	Credits    int32
	Kills      int32
	Respawns   int32
	RespawnTimer float32
	Upgrades   uint32
	Abilities  [3]int8
	Instance   Ref
}

// Drone is one fixed-size per-player drone-character slot (spec.md §3).
type Drone struct {
	Revision uint16
	Active   bool
	Charges  int32
}

// Minion is one minion animation-state slot (spec.md §3).
type Minion struct {
	Revision      uint16
	Rotation      float32
	AttackTimer   float32
	AnimationAsset uint32
	AnimationTime float32
}

// Encode/Decode below write only the fields the component declares;
// the trailing-zero-bit constraint loop follows spec.md §4.6 exactly.

func (t Transform) Encode(w *wire.Writer) {
	w.WriteBits(uint32(t.Resolution), 2)
	w.WritePosition(t.Position, t.Resolution)
	w.WriteRotation(t.Rotation, t.Resolution)
	w.WriteEntityRef(wire.EntityRef{ID: int32(t.Parent.ID), Revision: t.Parent.Revision, Null: t.Parent.Null}, MaxEntities)
}

// DecodeTransform is self-describing: the resolution tag is read first
// so the position/rotation bit widths that follow are known.
func DecodeTransform(r *wire.Reader) (Transform, error) {
	var t Transform
	res, err := r.ReadBits(2)
	if err != nil {
		return t, err
	}
	t.Resolution = wire.Resolution(res)
	if t.Position, err = r.ReadPosition(t.Resolution); err != nil {
		return t, err
	}
	if t.Rotation, err = r.ReadRotation(t.Resolution); err != nil {
		return t, err
	}
	ref, err := r.ReadEntityRef(MaxEntities)
	if err != nil {
		return t, err
	}
	t.Parent = Ref{ID: ID(ref.ID), Revision: ref.Revision, Null: ref.Null}
	return t, nil
}

func (rb RigidBody) Encode(w *wire.Writer) {
	w.WritePosition(rb.Size, wire.High)
	w.WriteFloat(rb.Damping, 0, 1, 8)
	w.WriteFloat(rb.Mass, 0, 1000, 16)
	w.WriteBits(uint32(rb.CollisionGroup), 16)
	w.WriteBits(uint32(rb.CollisionFilter), 16)
	w.WriteBool(rb.CCD)
	for _, c := range rb.Constraints {
		w.WriteBool(true)
		w.WriteBits(uint32(c.Type), 2)
		w.WriteEntityRef(wire.EntityRef{ID: int32(c.Peer.ID), Revision: c.Peer.Revision, Null: c.Peer.Null}, MaxEntities)
		w.WritePosition(c.FrameA, wire.High)
		w.WritePosition(c.FrameB, wire.High)
		w.WritePosition(c.Limits, wire.Medium)
	}
	w.WriteBool(false) // trailing zero bit terminates the constraint loop
}

func DecodeRigidBody(r *wire.Reader) (RigidBody, error) {
	var rb RigidBody
	var err error
	if rb.Size, err = r.ReadPosition(wire.High); err != nil {
		return rb, err
	}
	if rb.Damping, err = r.ReadFloat(0, 1, 8); err != nil {
		return rb, err
	}
	if rb.Mass, err = r.ReadFloat(0, 1000, 16); err != nil {
		return rb, err
	}
	group, err := r.ReadBits(16)
	if err != nil {
		return rb, err
	}
	rb.CollisionGroup = uint16(group)
	filter, err := r.ReadBits(16)
	if err != nil {
		return rb, err
	}
	rb.CollisionFilter = uint16(filter)
	if rb.CCD, err = r.ReadBool(); err != nil {
		return rb, err
	}
	for {
		more, err := r.ReadBool()
		if err != nil {
			return rb, err
		}
		if !more {
			break
		}
		var c Constraint
		typ, err := r.ReadBits(2)
		if err != nil {
			return rb, err
		}
		c.Type = ConstraintType(typ)
		ref, err := r.ReadEntityRef(MaxEntities)
		if err != nil {
			return rb, err
		}
		c.Peer = Ref{ID: ID(ref.ID), Revision: ref.Revision, Null: ref.Null}
		if c.FrameA, err = r.ReadPosition(wire.High); err != nil {
			return rb, err
		}
		if c.FrameB, err = r.ReadPosition(wire.High); err != nil {
			return rb, err
		}
		if c.Limits, err = r.ReadPosition(wire.Medium); err != nil {
			return rb, err
		}
		rb.Constraints = append(rb.Constraints, c)
	}
	return rb, nil
}
