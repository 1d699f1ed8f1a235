package entity

import "github.com/deceiver-net/deceiver-net/internal/wire"

// Encode writes id's full wire form — (component_mask, revision,
// {component_slot, slot_revision}*, component_field_blocks*) — filtered
// by ReplicatedMask, for the EntityCreate message sent once per live
// entity during the session handshake (spec.md §4.6, §4.7).
func (w *World) Encode(id ID, out *wire.Writer) {
	slot := w.Entities.Slot(id)
	mask := slot.Mask & ReplicatedMask
	out.WriteBits64(uint64(mask), MaxFamilies)
	out.WriteBits(uint32(slot.Revision), 16)

	if mask.Has(FamilyTransform) {
		if c, ok := w.Transforms.Get(id); ok {
			out.WriteInt(int64(id), 0, MaxEntities-1)
			out.WriteBits(uint32(w.Transforms.Revision(id)), 16)
			c.Encode(out)
		}
	}
	if mask.Has(FamilyRigidBody) {
		if c, ok := w.RigidBodies.Get(id); ok {
			out.WriteInt(int64(id), 0, MaxEntities-1)
			out.WriteBits(uint32(w.RigidBodies.Revision(id)), 16)
			c.Encode(out)
		}
	}
}

// Decode reads the wire form Encode produced, materializing components
// into w via NetAdd — "which may overwrite a stale slot" (spec.md §4.6)
// — and queues the entity to be awoken once Connected, rather than
// waking it immediately.
func (w *World) Decode(r *wire.Reader) (ID, error) {
	maskBits, err := r.ReadBits64(MaxFamilies)
	if err != nil {
		return 0, err
	}
	mask := Mask(maskBits)
	revBits, err := r.ReadBits(16)
	if err != nil {
		return 0, err
	}
	revision := uint16(revBits)

	var id ID
	haveID := false
	readSlotID := func() (ID, error) {
		v, err := r.ReadInt(0, MaxEntities-1)
		if err != nil {
			return 0, err
		}
		return ID(v), nil
	}

	if mask.Has(FamilyTransform) {
		slotID, err := readSlotID()
		if err != nil {
			return 0, err
		}
		id, haveID = slotID, true
		compRev, err := r.ReadBits(16)
		if err != nil {
			return 0, err
		}
		c, err := DecodeTransform(r)
		if err != nil {
			return 0, err
		}
		w.Transforms.NetAdd(slotID, uint16(compRev), c)
	}
	if mask.Has(FamilyRigidBody) {
		slotID, err := readSlotID()
		if err != nil {
			return 0, err
		}
		id, haveID = slotID, true
		compRev, err := r.ReadBits(16)
		if err != nil {
			return 0, err
		}
		c, err := DecodeRigidBody(r)
		if err != nil {
			return 0, err
		}
		w.RigidBodies.NetAdd(slotID, uint16(compRev), c)
	}

	if !haveID {
		return 0, nil
	}
	w.Entities.slots[id].Alive = true
	w.Entities.slots[id].Mask = mask
	w.Entities.slots[id].Revision = revision
	w.QueueAwake(id)
	return id, nil
}
