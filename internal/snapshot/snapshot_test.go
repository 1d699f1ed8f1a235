package snapshot

import (
	"testing"

	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/vmath"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

func buildTestWorld(t *testing.T) (*entity.World, entity.ID) {
	t.Helper()
	w := entity.NewWorld()
	id, err := w.Entities.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	w.Entities.SetMask(id, entity.Mask(0).Set(entity.FamilyTransform))
	w.Transforms.Set(id, entity.Transform{
		Position:   vmath.Vec3{X: 10, Y: 0, Z: 0},
		Rotation:   vmath.QuatIdentity,
		Resolution: wire.Medium,
		Parent:     entity.Ref{Null: true},
	})
	w.SetPlayer(0, entity.PlayerManager{Active: true, Credits: 100})
	return w, id
}

func TestBuildPopulatesTransformsAndPlayers(t *testing.T) {
	w, id := buildTestWorld(t)
	f := Build(w, 7, 1.0)
	if f.SequenceID != 7 {
		t.Fatalf("got sequence %d", f.SequenceID)
	}
	tr, ok := f.Transforms[id]
	if !ok {
		t.Fatal("expected transform in built frame")
	}
	if vmath.Distance(tr.Position, vmath.Vec3{X: 10}) > 0.001 {
		t.Fatalf("got position %+v", tr.Position)
	}
	if !f.Players[0].Active || f.Players[0].Credits != 100 {
		t.Fatalf("got player %+v", f.Players[0])
	}
}

// TestDeltaRoundTrip covers spec.md §8 property 4: decoding what
// EncodeDelta wrote against the same baseline reproduces the frame.
func TestDeltaRoundTrip(t *testing.T) {
	w, id := buildTestWorld(t)
	baseline := Build(w, 1, 0.0)

	w.Transforms.Set(id, entity.Transform{
		Position:   vmath.Vec3{X: 20, Y: 5, Z: 0},
		Rotation:   vmath.QuatIdentity,
		Resolution: wire.Medium,
		Parent:     entity.Ref{Null: true},
	})
	next := Build(w, 2, 1.0)

	out := wire.NewWriter()
	EncodeDelta(out, next, baseline)

	r := wire.NewReader(out.Bytes())
	got, err := DecodeDelta(r, baseline)
	if err != nil {
		t.Fatal(err)
	}
	if got.SequenceID != 2 {
		t.Fatalf("got sequence %d", got.SequenceID)
	}
	tr := got.Transforms[id]
	// Medium quantizes each axis to 16 bits over +/-2048 (a step of
	// 4096/65535, about 0.0625), so each axis may be off by half a step.
	if vmath.Distance(tr.Position, vmath.Vec3{X: 20, Y: 5, Z: 0}) > 0.06 {
		t.Fatalf("got position %+v", tr.Position)
	}
}

// TestDeltaOmitsUnchangedEntries confirms the sparse encoding only spends
// bits on what actually changed: a second identical Build against the
// same baseline should encode a zero-length change list.
func TestDeltaOmitsUnchangedEntries(t *testing.T) {
	w, _ := buildTestWorld(t)
	baseline := Build(w, 1, 0.0)
	same := Build(w, 2, 1.0)

	out := wire.NewWriter()
	EncodeDelta(out, same, baseline)
	r := wire.NewReader(out.Bytes())
	got, err := DecodeDelta(r, baseline)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Transforms) != len(baseline.Transforms) {
		t.Fatalf("expected unchanged transform set to carry over, got %d vs %d", len(got.Transforms), len(baseline.Transforms))
	}
}

func TestDeltaRemovalClearsEntry(t *testing.T) {
	w, id := buildTestWorld(t)
	baseline := Build(w, 1, 0.0)

	removed := Build(w, 2, 1.0)
	delete(removed.Transforms, id)

	out := wire.NewWriter()
	EncodeDelta(out, removed, baseline)
	r := wire.NewReader(out.Bytes())
	got, err := DecodeDelta(r, baseline)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Transforms[id]; ok {
		t.Fatal("expected removed transform to be absent after decode")
	}
}

// TestInterpolateMidpoint covers spec.md §8 property 5: interpolating
// halfway between two frames lands halfway between their positions, and
// t=0/t=1 reproduce the endpoints exactly.
func TestInterpolateMidpoint(t *testing.T) {
	from := NewFrame()
	to := NewFrame()
	id := entity.ID(3)
	from.Transforms[id] = TransformState{Position: vmath.Vec3{X: 0}, Rotation: vmath.QuatIdentity, Resolution: wire.Medium}
	to.Transforms[id] = TransformState{Position: vmath.Vec3{X: 10}, Rotation: vmath.QuatIdentity, Resolution: wire.Medium}

	mid := Interpolate(from, to, 0.5)
	if vmath.Distance(mid.Transforms[id].Position, vmath.Vec3{X: 5}) > 0.001 {
		t.Fatalf("got %+v", mid.Transforms[id].Position)
	}

	start := Interpolate(from, to, 0)
	if vmath.Distance(start.Transforms[id].Position, vmath.Vec3{X: 0}) > 0.001 {
		t.Fatalf("t=0 got %+v", start.Transforms[id].Position)
	}
	end := Interpolate(from, to, 1)
	if vmath.Distance(end.Transforms[id].Position, vmath.Vec3{X: 10}) > 0.001 {
		t.Fatalf("t=1 got %+v", end.Transforms[id].Position)
	}
}

func TestInterpolateParentChangeCutsOverInsteadOfBlending(t *testing.T) {
	from := NewFrame()
	to := NewFrame()
	id := entity.ID(4)
	from.Transforms[id] = TransformState{Position: vmath.Vec3{X: 0}, Parent: entity.Ref{Null: true}, Resolution: wire.Medium}
	to.Transforms[id] = TransformState{Position: vmath.Vec3{X: 100}, Parent: entity.Ref{ID: 1, Revision: 1}, Resolution: wire.Medium}

	mid := Interpolate(from, to, 0.5)
	if vmath.Distance(mid.Transforms[id].Position, vmath.Vec3{X: 100}) > 0.001 {
		t.Fatalf("expected cut-over to the new frame's value, got %+v", mid.Transforms[id].Position)
	}
}

// TestMinionAnimationExtrapolatesPastLerpWindow covers DESIGN.md's
// resolution of the minion animation open question: when the two
// frames' animation times are more than maxExtrapolateTicks apart, the
// renderer extrapolates from the older frame by t*tickDuration instead
// of blending toward or snapping to the newer value.
func TestMinionAnimationExtrapolatesPastLerpWindow(t *testing.T) {
	from := NewFrame()
	to := NewFrame()
	id := entity.ID(5)
	from.Minions[id] = MinionState{AnimationAsset: 1, AnimationTime: 0}
	to.Minions[id] = MinionState{AnimationAsset: 1, AnimationTime: 1}

	// The animation times are 1s (60 ticks) apart, outside the 10-tick
	// lerp window.
	big := float32(maxExtrapolateTicks+5) * tickDuration
	out := Interpolate(from, to, big)
	want := from.Minions[id].AnimationTime + big*tickDuration
	if out.Minions[id].AnimationTime != want {
		t.Fatalf("expected extrapolation to %v, got %v", want, out.Minions[id].AnimationTime)
	}
}

func TestApplySkipsLocallyControlledTransform(t *testing.T) {
	w := entity.NewWorld()
	id, _ := w.Entities.Alloc()
	w.Entities.SetMask(id, entity.Mask(0).Set(entity.FamilyTransform))
	w.Transforms.Set(id, entity.Transform{Position: vmath.Vec3{X: 1}, Resolution: wire.Medium})

	f := NewFrame()
	f.Transforms[id] = TransformState{Position: vmath.Vec3{X: 99}, Resolution: wire.Medium}

	Apply(f, w, map[entity.ID]bool{id: true})

	tr, _ := w.Transforms.Get(id)
	if vmath.Distance(tr.Position, vmath.Vec3{X: 1}) > 0.001 {
		t.Fatalf("expected locally controlled transform to be left alone, got %+v", tr.Position)
	}
}
