package entity

// MaxPlayers bounds the fixed per-session player/drone slot arrays a
// session hands out independently of the sparse entity id space (spec.md
// §3: players and drones are "fixed-size arrays", unlike transforms and
// minions which are sparse). Session slot index is stable for the life
// of a connection; the entity each slot points at is not.
const MaxPlayers = 16

// Live returns every currently allocated entity id, in ascending order.
// Used by internal/snapshot.Build to walk the world once per tick.
func (w *World) Live() []ID {
	ids := make([]ID, 0, MaxEntities)
	for id := ID(0); id < MaxEntities; id++ {
		if w.Entities.Slot(id).Alive {
			ids = append(ids, id)
		}
	}
	return ids
}

func (w *World) Slot(id ID) Slot { return w.Entities.Slot(id) }

func (w *World) Transform(id ID) (Transform, bool) { return w.Transforms.Get(id) }
func (w *World) SetTransform(id ID, t Transform)   { w.Transforms.Set(id, t) }

func (w *World) Minion(id ID) (Minion, bool) { return w.Minions.Get(id) }
func (w *World) SetMinion(id ID, m Minion)   { w.Minions.Set(id, m) }

// AssignPlayerSlot binds a session-visible player slot to the entity
// backing it. Called once when a player connects and is given a slot.
func (w *World) AssignPlayerSlot(slot int, id ID) {
	w.playerSlots[slot] = id
	w.playerSlotUsed[slot] = true
}

func (w *World) AssignDroneSlot(slot int, id ID) {
	w.droneSlots[slot] = id
	w.droneSlotUsed[slot] = true
}

func (w *World) Player(slot int) (PlayerManager, bool) {
	if !w.playerSlotUsed[slot] {
		return PlayerManager{}, false
	}
	return w.PlayerManagers.Get(w.playerSlots[slot])
}

// SetPlayer writes slot's state, allocating a backing entity the first
// time the slot is used.
func (w *World) SetPlayer(slot int, p PlayerManager) {
	if !w.playerSlotUsed[slot] {
		id, err := w.Entities.Alloc()
		if err != nil {
			return
		}
		w.AssignPlayerSlot(slot, id)
	}
	w.PlayerManagers.Set(w.playerSlots[slot], p)
}

func (w *World) Drone(slot int) (Drone, bool) {
	if !w.droneSlotUsed[slot] {
		return Drone{}, false
	}
	return w.Drones.Get(w.droneSlots[slot])
}

func (w *World) SetDrone(slot int, d Drone) {
	if !w.droneSlotUsed[slot] {
		id, err := w.Entities.Alloc()
		if err != nil {
			return
		}
		w.AssignDroneSlot(slot, id)
	}
	w.Drones.Set(w.droneSlots[slot], d)
}
