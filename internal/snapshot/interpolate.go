package snapshot

import (
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// DebugLog receives a line whenever Interpolate extrapolates a minion's
// animation because the two frames' animation times are too far apart
// to lerp. Callers in internal/telemetry
// overwrite this at startup; tests and other callers may leave it as the
// no-op default.
var DebugLog = func(format string, args ...interface{}) {}

// maxExtrapolateTicks bounds, in ticks, the gap between the two
// bracketing frames' animation times within which Interpolate lerps a
// minion's animation time; beyond it Interpolate extrapolates from the
// older frame instead (spec.md §4.5, DESIGN.md Open Question 3).
const maxExtrapolateTicks = 10

// tickDuration is the fixed server tick length animation extrapolation
// is measured against (spec.md §2).
const tickDuration = 1.0 / 60.0

// Interpolate blends two bracketing frames at t in [0, 1] — 0 reproduces
// from, 1 reproduces to — producing the frame a client renders between
// two received snapshots. Grounded on net.cpp's state_frame_interpolate:
// transforms lerp position and nlerp rotation; when the parent changed,
// the transform cuts over to the newer frame's value and is not
// reprojected into the new parent space; minions take the closest-angle
// path for rotation, lerp animation time and attack timer when the two
// frames are close enough and otherwise extrapolate the animation time
// and snap the attack timer to the newer value; players and drones
// are not interpolated, since their visible fields are discrete.
func Interpolate(from, to *Frame, t float32) *Frame {
	out := NewFrame()
	out.SequenceID = to.SequenceID
	out.Timestamp = from.Timestamp + float64(t)*(to.Timestamp-from.Timestamp)

	for id, b := range to.Transforms {
		a, ok := from.Transforms[id]
		if !ok {
			out.Transforms[id] = b
			continue
		}
		if a.Parent != b.Parent {
			// Parent changed between frames: blending position across
			// two different reference spaces produces a visible pop
			// regardless, so just cut to the new frame's value.
			out.Transforms[id] = b
			continue
		}
		out.Transforms[id] = TransformState{
			Revision:   b.Revision,
			Position:   a.Position.Lerp(b.Position, t),
			Rotation:   a.Rotation.Nlerp(b.Rotation, t),
			Parent:     b.Parent,
			Resolution: b.Resolution,
		}
	}

	for id, b := range to.Minions {
		a, ok := from.Minions[id]
		if !ok {
			out.Minions[id] = b
			continue
		}
		out.Minions[id] = MinionState{
			Rotation:       vmath.LerpAngle(a.Rotation, b.Rotation, t),
			AttackTimer:    lerpAttackTimer(a, b, t),
			AnimationAsset: b.AnimationAsset,
			AnimationTime:  extrapolateAnimation(a, b, t, id),
		}
	}

	out.Players = to.Players
	out.Drones = to.Drones
	return out
}

// extrapolateAnimation lerps animation time between the two bracketing
// frames when they agree on the asset and the gap between their
// animation times is within maxExtrapolateTicks; otherwise (a new asset,
// or a gap too wide to mean the same loop) it extrapolates forward from
// the older frame instead of snapping to the newer one, since the newer
// frame's animation_time is not a trustworthy blend target in either case.
func extrapolateAnimation(a, b MinionState, t float32, id entity.ID) float32 {
	if a.AnimationAsset != b.AnimationAsset {
		return a.AnimationTime + t*tickDuration
	}
	delta := b.AnimationTime - a.AnimationTime
	if delta < 0 {
		delta = -delta
	}
	if delta < maxExtrapolateTicks*tickDuration {
		return a.AnimationTime + t*(b.AnimationTime-a.AnimationTime)
	}
	DebugLog("snapshot: minion %v animation time gap exceeded %d ticks, extrapolating", id, maxExtrapolateTicks)
	return a.AnimationTime + t*tickDuration
}

// lerpAttackTimer blends the older and newer attack timer when they're
// within maxExtrapolateTicks of each other, and snaps to the newer value
// otherwise — a gap that wide means an attack fired between the two
// frames and reset the timer, a discontinuity blending would only smear
// (net.cpp:1725-1728).
func lerpAttackTimer(a, b MinionState, t float32) float32 {
	delta := b.AttackTimer - a.AttackTimer
	if delta < 0 {
		delta = -delta
	}
	if delta < maxExtrapolateTicks*tickDuration {
		return a.AttackTimer + t*(b.AttackTimer-a.AttackTimer)
	}
	return b.AttackTimer
}
