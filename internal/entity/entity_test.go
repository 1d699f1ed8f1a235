package entity

import (
	"testing"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

func TestRefResolvesNullOnRevisionMismatch(t *testing.T) {
	tbl := NewTable()
	id, err := tbl.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	ref := tbl.MakeRef(id)
	tbl.Free(id)
	id2, _ := tbl.Alloc() // reuses the slot, bumps revision
	if id2 != id {
		t.Fatalf("expected slot reuse, got different id")
	}
	if _, ok := tbl.Resolve(ref); ok {
		t.Fatalf("stale ref should not resolve after revision bump")
	}
}

func TestEntityRoundTrip(t *testing.T) {
	w := NewWorld()
	id, err := w.Entities.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	w.Entities.SetMask(id, Mask(0).Set(FamilyTransform))
	w.Transforms.Set(id, Transform{
		Position:   vmath.Vec3{X: 1, Y: 2, Z: 3},
		Rotation:   vmath.QuatIdentity,
		Resolution: wire.High,
		Parent:     Ref{Null: true},
	})

	out := wire.NewWriter()
	w.Encode(id, out)

	w2 := NewWorld()
	r := wire.NewReader(out.Bytes())
	gotID, err := w2.Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if gotID != id {
		t.Fatalf("got id %d want %d", gotID, id)
	}
	tr, ok := w2.Transforms.Get(gotID)
	if !ok {
		t.Fatal("transform not materialized")
	}
	if vmath.Distance(tr.Position, vmath.Vec3{X: 1, Y: 2, Z: 3}) > 0.01 {
		t.Fatalf("got %+v", tr.Position)
	}
	awoken := w2.AwakeAll()
	if len(awoken) != 1 || awoken[0] != id {
		t.Fatalf("expected entity queued for awake, got %v", awoken)
	}
}
