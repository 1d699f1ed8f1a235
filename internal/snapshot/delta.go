package snapshot

import (
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// EncodeDelta writes frame against baseline, emitting only the sparse
// transform/minion indices and fixed player/drone slots that changed
// (per the TransformState/PlayerManagerState/etc equality tolerances),
// using a counted skip-ahead index list for the sparse sets and a
// changed-bit per fixed slot. Grounded on net.cpp's serialize_state_frame.
// baseline may be nil, meaning "diff against an empty frame" (a keyframe).
func EncodeDelta(w *wire.Writer, frame, baseline *Frame) {
	w.WriteBits(uint32(frame.SequenceID), 16)
	if baseline == nil {
		baseline = NewFrame()
	}
	encodeSparseTransforms(w, frame, baseline)
	encodeSparseMinions(w, frame, baseline)
	encodePlayers(w, frame, baseline)
	encodeDrones(w, frame, baseline)
}

// DecodeDelta reads what EncodeDelta wrote, materializing a full Frame by
// starting from a copy of baseline and overlaying the changed entries. A
// nil baseline is treated as empty, same as EncodeDelta.
func DecodeDelta(r *wire.Reader, baseline *Frame) (*Frame, error) {
	if baseline == nil {
		baseline = NewFrame()
	}
	seqBits, err := r.ReadBits(16)
	if err != nil {
		return nil, err
	}
	f := cloneFrame(baseline)
	f.SequenceID = seq.ID(seqBits)

	if err := decodeSparseTransforms(r, f); err != nil {
		return nil, err
	}
	if err := decodeSparseMinions(r, f); err != nil {
		return nil, err
	}
	if err := decodePlayers(r, f); err != nil {
		return nil, err
	}
	if err := decodeDrones(r, f); err != nil {
		return nil, err
	}
	return f, nil
}

func cloneFrame(src *Frame) *Frame {
	f := NewFrame()
	f.SequenceID = src.SequenceID
	f.Timestamp = src.Timestamp
	for id, t := range src.Transforms {
		f.Transforms[id] = t
	}
	for id, m := range src.Minions {
		f.Minions[id] = m
	}
	f.Players = src.Players
	f.Drones = src.Drones
	return f
}

// changedTransformIDs returns, in increasing order, every entity id whose
// transform differs between frame and baseline (added, removed, or
// mutated beyond tolerance).
func changedTransformIDs(frame, baseline *Frame) []entity.ID {
	var ids []entity.ID
	seen := make(map[entity.ID]bool)
	for id, cur := range frame.Transforms {
		seen[id] = true
		if base, ok := baseline.Transforms[id]; !ok || !cur.equal(base) {
			ids = append(ids, id)
		}
	}
	for id := range baseline.Transforms {
		if !seen[id] {
			if _, stillThere := frame.Transforms[id]; !stillThere {
				ids = append(ids, id)
			}
		}
	}
	sortIDs(ids)
	return ids
}

func changedMinionIDs(frame, baseline *Frame) []entity.ID {
	var ids []entity.ID
	seen := make(map[entity.ID]bool)
	for id, cur := range frame.Minions {
		seen[id] = true
		if base, ok := baseline.Minions[id]; !ok || !cur.equal(base) {
			ids = append(ids, id)
		}
	}
	for id := range baseline.Minions {
		if !seen[id] {
			if _, stillThere := frame.Minions[id]; !stillThere {
				ids = append(ids, id)
			}
		}
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []entity.ID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// encodeSparseTransforms writes count, then each changed index as a
// skip-ahead delta from the previous one plus a present flag and, if
// present, the full component (net.cpp encodes sparse families this way
// so runs of unchanged entities cost a handful of delta bits instead of
// one flag bit per slot).
func encodeSparseTransforms(w *wire.Writer, frame, baseline *Frame) {
	ids := changedTransformIDs(frame, baseline)
	w.WriteInt(int64(len(ids)), 0, entity.MaxEntities)
	last := entity.ID(-1)
	for _, id := range ids {
		w.WriteInt(int64(id-last-1), 0, entity.MaxEntities)
		last = id
		t, present := frame.Transforms[id]
		w.WriteBool(present)
		if present {
			w.WriteBits(uint32(t.Revision), 16)
			w.WriteBits(uint32(t.Resolution), 2)
			w.WritePosition(t.Position, t.Resolution)
			w.WriteRotation(t.Rotation, t.Resolution)
			w.WriteEntityRef(wire.EntityRef{ID: int32(t.Parent.ID), Revision: t.Parent.Revision, Null: t.Parent.Null}, entity.MaxEntities)
		}
	}
}

func decodeSparseTransforms(r *wire.Reader, f *Frame) error {
	count, err := r.ReadInt(0, entity.MaxEntities)
	if err != nil {
		return err
	}
	last := entity.ID(-1)
	for i := int64(0); i < count; i++ {
		delta, err := r.ReadInt(0, entity.MaxEntities)
		if err != nil {
			return err
		}
		id := last + entity.ID(delta) + 1
		last = id
		present, err := r.ReadBool()
		if err != nil {
			return err
		}
		if !present {
			delete(f.Transforms, id)
			continue
		}
		var t TransformState
		rev, err := r.ReadBits(16)
		if err != nil {
			return err
		}
		t.Revision = uint16(rev)
		res, err := r.ReadBits(2)
		if err != nil {
			return err
		}
		t.Resolution = wire.Resolution(res)
		if t.Position, err = r.ReadPosition(t.Resolution); err != nil {
			return err
		}
		if t.Rotation, err = r.ReadRotation(t.Resolution); err != nil {
			return err
		}
		ref, err := r.ReadEntityRef(entity.MaxEntities)
		if err != nil {
			return err
		}
		t.Parent = entity.Ref{ID: entity.ID(ref.ID), Revision: ref.Revision, Null: ref.Null}
		f.Transforms[id] = t
	}
	return nil
}

func encodeSparseMinions(w *wire.Writer, frame, baseline *Frame) {
	ids := changedMinionIDs(frame, baseline)
	w.WriteInt(int64(len(ids)), 0, entity.MaxEntities)
	last := entity.ID(-1)
	for _, id := range ids {
		w.WriteInt(int64(id-last-1), 0, entity.MaxEntities)
		last = id
		m, present := frame.Minions[id]
		w.WriteBool(present)
		if present {
			w.WriteFloat(m.Rotation, -3.14159265, 3.14159265, 12)
			w.WriteFloat(m.AttackTimer, 0, 8, 8)
			w.WriteVarAssetID(m.AnimationAsset)
			w.WriteFloat(m.AnimationTime, 0, 20, 11)
		}
	}
}

func decodeSparseMinions(r *wire.Reader, f *Frame) error {
	count, err := r.ReadInt(0, entity.MaxEntities)
	if err != nil {
		return err
	}
	last := entity.ID(-1)
	for i := int64(0); i < count; i++ {
		delta, err := r.ReadInt(0, entity.MaxEntities)
		if err != nil {
			return err
		}
		id := last + entity.ID(delta) + 1
		last = id
		present, err := r.ReadBool()
		if err != nil {
			return err
		}
		if !present {
			delete(f.Minions, id)
			continue
		}
		var m MinionState
		if m.Rotation, err = r.ReadFloat(-3.14159265, 3.14159265, 12); err != nil {
			return err
		}
		if m.AttackTimer, err = r.ReadFloat(0, 8, 8); err != nil {
			return err
		}
		if m.AnimationAsset, err = r.ReadVarAssetID(); err != nil {
			return err
		}
		if m.AnimationTime, err = r.ReadFloat(0, 20, 11); err != nil {
			return err
		}
		f.Minions[id] = m
	}
	return nil
}

// encodePlayers/encodeDrones write one changed-bit per fixed slot rather
// than a sparse index list, since MaxPlayers is small and every slot is
// iterated every tick regardless (net.cpp's players/awks loops).
func encodePlayers(w *wire.Writer, frame, baseline *Frame) {
	for i := 0; i < MaxPlayers; i++ {
		changed := !frame.Players[i].equal(baseline.Players[i])
		w.WriteBool(changed)
		if !changed {
			continue
		}
		p := frame.Players[i]
		w.WriteBool(p.Active)
		w.WriteInt(int64(p.Credits), 0, 1<<20)
		w.WriteInt(int64(p.Kills), 0, 1<<16)
		w.WriteInt(int64(p.Respawns), 0, 1<<16)
		w.WriteFloat(p.RespawnTimer, 0, 30, 8)
		w.WriteBits(p.Upgrades, 32)
		for _, a := range p.Abilities {
			w.WriteInt(int64(a), -128, 127)
		}
		w.WriteEntityRef(wire.EntityRef{ID: int32(p.Instance.ID), Revision: p.Instance.Revision, Null: p.Instance.Null}, entity.MaxEntities)
	}
}

func decodePlayers(r *wire.Reader, f *Frame) error {
	for i := 0; i < MaxPlayers; i++ {
		changed, err := r.ReadBool()
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		var p PlayerManagerState
		if p.Active, err = r.ReadBool(); err != nil {
			return err
		}
		credits, err := r.ReadInt(0, 1<<20)
		if err != nil {
			return err
		}
		p.Credits = int32(credits)
		kills, err := r.ReadInt(0, 1<<16)
		if err != nil {
			return err
		}
		p.Kills = int32(kills)
		respawns, err := r.ReadInt(0, 1<<16)
		if err != nil {
			return err
		}
		p.Respawns = int32(respawns)
		if p.RespawnTimer, err = r.ReadFloat(0, 30, 8); err != nil {
			return err
		}
		upgrades, err := r.ReadBits(32)
		if err != nil {
			return err
		}
		p.Upgrades = upgrades
		for j := range p.Abilities {
			a, err := r.ReadInt(-128, 127)
			if err != nil {
				return err
			}
			p.Abilities[j] = int8(a)
		}
		ref, err := r.ReadEntityRef(entity.MaxEntities)
		if err != nil {
			return err
		}
		p.Instance = entity.Ref{ID: entity.ID(ref.ID), Revision: ref.Revision, Null: ref.Null}
		f.Players[i] = p
	}
	return nil
}

func encodeDrones(w *wire.Writer, frame, baseline *Frame) {
	for i := 0; i < MaxPlayers; i++ {
		changed := !frame.Drones[i].equal(baseline.Drones[i])
		w.WriteBool(changed)
		if !changed {
			continue
		}
		d := frame.Drones[i]
		w.WriteBits(uint32(d.Revision), 16)
		w.WriteBool(d.Active)
		w.WriteInt(int64(d.Charges), 0, 255)
	}
}

func decodeDrones(r *wire.Reader, f *Frame) error {
	for i := 0; i < MaxPlayers; i++ {
		changed, err := r.ReadBool()
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		var d DroneState
		rev, err := r.ReadBits(16)
		if err != nil {
			return err
		}
		d.Revision = uint16(rev)
		if d.Active, err = r.ReadBool(); err != nil {
			return err
		}
		charges, err := r.ReadInt(0, 255)
		if err != nil {
			return err
		}
		d.Charges = int32(charges)
		f.Drones[i] = d
	}
	return nil
}
