package snapshot

import (
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// Source is the live-world view Build reads from. entity.World satisfies
// it directly; tests substitute a smaller fake.
type Source interface {
	Slot(id entity.ID) entity.Slot
	Transform(id entity.ID) (entity.Transform, bool)
	Minion(id entity.ID) (entity.Minion, bool)
	Player(slot int) (entity.PlayerManager, bool)
	Drone(slot int) (entity.Drone, bool)
	Live() []entity.ID
}

// resolutionFor mirrors net.cpp's transform_resolution: drones replicate
// at High resolution since their motion is the thing players aim at,
// everything else at Medium. Low is reserved for callers that
// deliberately downgrade a transform (e.g. distant scenery), which
// state_frame_build never does on its own.
func resolutionFor(w Source, id entity.ID) wire.Resolution {
	if w.Slot(id).Mask.Has(entity.FamilyDrone) {
		return wire.High
	}
	return wire.Medium
}

// Build populates a new Frame from the live world, stamping it with
// sequenceID as the caller gives it; Server.Tick passes its own frame
// counter, which advances by one per built frame, not the sequence id
// of an outbound packet. Grounded on net.cpp's state_frame_build.
func Build(w Source, sequenceID seq.ID, timestamp float64) *Frame {
	f := NewFrame()
	f.SequenceID = sequenceID
	f.Timestamp = timestamp

	for _, id := range w.Live() {
		slot := w.Slot(id)
		if !slot.Alive {
			continue
		}
		if tr, ok := w.Transform(id); ok {
			f.Transforms[id] = TransformState{
				Revision:   tr.Revision,
				Position:   tr.Position,
				Rotation:   tr.Rotation,
				Parent:     tr.Parent,
				Resolution: resolutionFor(w, id),
			}
		}
		if m, ok := w.Minion(id); ok {
			f.Minions[id] = MinionState{
				Rotation:       m.Rotation,
				AttackTimer:    m.AttackTimer,
				AnimationAsset: m.AnimationAsset,
				AnimationTime:  m.AnimationTime,
			}
		}
	}

	for i := 0; i < MaxPlayers; i++ {
		if p, ok := w.Player(i); ok {
			f.Players[i] = PlayerManagerState{
				Active:       p.Active,
				Credits:      p.Credits,
				Kills:        p.Kills,
				Respawns:     p.Respawns,
				RespawnTimer: p.RespawnTimer,
				Upgrades:     p.Upgrades,
				Abilities:    p.Abilities,
				Instance:     entity.Ref{ID: p.Instance.ID, Revision: p.Instance.Revision, Null: p.Instance.Null},
			}
		}
		if d, ok := w.Drone(i); ok {
			f.Drones[i] = DroneState{Revision: d.Revision, Active: d.Active, Charges: d.Charges}
		}
	}

	return f
}
