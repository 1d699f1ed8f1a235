// Package entity implements the replicated entity/component model:
// fixed-capacity entity table, per-family component pools, revisions,
// and the wire serializer that walks an entity's component mask
// (spec.md §3, §4.6). Grounded on net.cpp's serialize_entity and the
// Entity/World model referenced throughout net.cpp (entities.h only
// keeps gameplay-specific component declarations; the table/mask/
// revision machinery itself is net.cpp's).
package entity

import "fmt"

// MaxEntities bounds the entity id space (net.cpp's MAX_ENTITIES).
const MaxEntities = 4096

// MaxFamilies bounds the number of distinct component families
// (net.cpp's MAX_FAMILIES): one bit per family in the component mask.
const MaxFamilies = 64

// ID identifies a slot in the entity table.
type ID int32

// Mask is a bitmask over component families, one bit per family.
type Mask uint64

func (m Mask) Has(family Family) bool { return m&(1<<uint(family)) != 0 }
func (m Mask) Set(family Family) Mask { return m | (1 << uint(family)) }

// Family identifies one replicated component kind.
type Family int

const (
	FamilyTransform Family = iota
	FamilyRigidBody
	FamilyPlayerManager
	FamilyDrone
	FamilyMinion
	FamilyCount
)

// ReplicatedMask is the compile-time whitelist filtering which component
// families are ever put on the wire (spec.md §4.6: "The mask is filtered
// by a compile-time whitelist so that non-replicated components are
// ignored").
const ReplicatedMask Mask = (1 << uint(FamilyTransform)) |
	(1 << uint(FamilyRigidBody)) |
	(1 << uint(FamilyPlayerManager)) |
	(1 << uint(FamilyDrone)) |
	(1 << uint(FamilyMinion))

// Ref is an {id, revision} pair used for cross-entity references. A
// reference is live iff the current revision at id matches (spec.md §3).
type Ref struct {
	ID       ID
	Revision uint16
	Null     bool
}

// Slot holds one entity's bookkeeping: its live component mask and its
// monotonically incrementing revision.
type Slot struct {
	Alive    bool
	Mask     Mask
	Revision uint16
}

// Table is the fixed-capacity entity table; network code never frees
// entities directly, only the world does (spec.md §3 Ownership).
type Table struct {
	slots [MaxEntities]Slot
}

func NewTable() *Table { return &Table{} }

func (t *Table) Alloc() (ID, error) {
	for i := range t.slots {
		if !t.slots[i].Alive {
			t.slots[i].Alive = true
			t.slots[i].Mask = 0
			t.slots[i].Revision++
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("entity: table full (%d entities)", MaxEntities)
}

func (t *Table) Free(id ID) {
	t.slots[id].Alive = false
	t.slots[id].Mask = 0
}

func (t *Table) Slot(id ID) Slot { return t.slots[id] }

func (t *Table) SetMask(id ID, m Mask) { t.slots[id].Mask = m }

// Resolve returns the live id for ref, or (0, false) if the reference is
// stale (revision mismatch) or explicitly null.
func (t *Table) Resolve(ref Ref) (ID, bool) {
	if ref.Null {
		return 0, false
	}
	if int(ref.ID) < 0 || int(ref.ID) >= MaxEntities {
		return 0, false
	}
	s := t.slots[ref.ID]
	if !s.Alive || s.Revision != ref.Revision {
		return 0, false
	}
	return ref.ID, true
}

// MakeRef builds a live reference to id, or a null Ref if id is not
// currently alive.
func (t *Table) MakeRef(id ID) Ref {
	if int(id) < 0 || int(id) >= MaxEntities || !t.slots[id].Alive {
		return Ref{Null: true}
	}
	return Ref{ID: id, Revision: t.slots[id].Revision}
}
