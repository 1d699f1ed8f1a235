package snapshot

import "github.com/deceiver-net/deceiver-net/internal/entity"

// Sink is the live-world view Apply writes into. entity.World satisfies
// it directly.
type Sink interface {
	SetTransform(id entity.ID, t entity.Transform)
	SetMinion(id entity.ID, m entity.Minion)
	SetPlayer(slot int, p entity.PlayerManager)
	SetDrone(slot int, d entity.Drone)
}

// Apply writes an interpolated (or raw) frame's values back into the
// live world, skipping any entity id present in locallyControlled —
// spec.md §4.5's exception for the locally-controlled player's own
// transform, which the client predicts rather than accepts from the
// network wholesale. Grounded on net.cpp's state_frame_apply.
func Apply(frame *Frame, w Sink, locallyControlled map[entity.ID]bool) {
	for id, t := range frame.Transforms {
		if locallyControlled[id] {
			continue
		}
		w.SetTransform(id, entity.Transform{
			Revision:   t.Revision,
			Position:   t.Position,
			Rotation:   t.Rotation,
			Parent:     t.Parent,
			Resolution: t.Resolution,
		})
	}

	for id, m := range frame.Minions {
		w.SetMinion(id, entity.Minion{
			Rotation:       m.Rotation,
			AttackTimer:    m.AttackTimer,
			AnimationAsset: m.AnimationAsset,
			AnimationTime:  m.AnimationTime,
		})
	}

	for i, p := range frame.Players {
		w.SetPlayer(i, entity.PlayerManager{
			Active:       p.Active,
			Credits:      p.Credits,
			Kills:        p.Kills,
			Respawns:     p.Respawns,
			RespawnTimer: p.RespawnTimer,
			Upgrades:     p.Upgrades,
			Abilities:    p.Abilities,
			Instance:     entity.Ref{ID: p.Instance.ID, Revision: p.Instance.Revision, Null: p.Instance.Null},
		})
	}

	for i, d := range frame.Drones {
		w.SetDrone(i, entity.Drone{Revision: d.Revision, Active: d.Active, Charges: d.Charges})
	}
}
