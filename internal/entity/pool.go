package entity

// Pool is a dense per-family component store with its own per-slot
// revision counter, mirroring net.cpp's World::component_pools[i] and
// the net_add dispatch each pool exposes for receiver-side materialization
// (spec.md §4.6).
type Pool[T any] struct {
	data      map[ID]T
	revisions map[ID]uint16
}

func NewPool[T any]() *Pool[T] {
	return &Pool[T]{data: make(map[ID]T), revisions: make(map[ID]uint16)}
}

// Revision returns the component's own per-slot revision, independent of
// the owning entity's revision (spec.md §3: "Each component family is a
// dense pool of structs with its own per-slot revision").
func (p *Pool[T]) Revision(id ID) uint16 { return p.revisions[id] }

func (p *Pool[T]) Get(id ID) (T, bool) {
	v, ok := p.data[id]
	return v, ok
}

// NetAdd materializes (or overwrites a stale slot with) a component at
// id with the given revision — the receiver-side entry point spec.md
// §4.6 names explicitly.
func (p *Pool[T]) NetAdd(id ID, revision uint16, value T) {
	p.data[id] = value
	p.revisions[id] = revision
}

// Remove evicts a component, used when an entity loses the family or is
// freed by the world.
func (p *Pool[T]) Remove(id ID) {
	delete(p.data, id)
	delete(p.revisions, id)
}

func (p *Pool[T]) Set(id ID, value T) {
	p.data[id] = value
	p.revisions[id]++
}

// World owns the entity table and one pool per replicated family. It is
// the receiver-side home for materialized entities; awake is deferred
// until the session reaches Connected (spec.md §4.6), so World itself
// never blocks on session state — callers invoke AwakeAll explicitly
// once connected.
type World struct {
	Entities       *Table
	Transforms     *Pool[Transform]
	RigidBodies    *Pool[RigidBody]
	PlayerManagers *Pool[PlayerManager]
	Drones         *Pool[Drone]
	Minions        *Pool[Minion]

	pendingAwake []ID

	playerSlots    [MaxPlayers]ID
	playerSlotUsed [MaxPlayers]bool
	droneSlots     [MaxPlayers]ID
	droneSlotUsed  [MaxPlayers]bool
}

func NewWorld() *World {
	return &World{
		Entities:       NewTable(),
		Transforms:     NewPool[Transform](),
		RigidBodies:    NewPool[RigidBody](),
		PlayerManagers: NewPool[PlayerManager](),
		Drones:         NewPool[Drone](),
		Minions:        NewPool[Minion](),
	}
}

// QueueAwake marks id to be awoken once the session transitions to
// Connected, rather than immediately on receipt (spec.md §4.6).
func (w *World) QueueAwake(id ID) {
	w.pendingAwake = append(w.pendingAwake, id)
}

// AwakeAll wakes every entity queued since the last call, returning the
// ids that were woken (for the caller to invoke gameplay hooks on).
func (w *World) AwakeAll() []ID {
	ids := w.pendingAwake
	w.pendingAwake = nil
	return ids
}
