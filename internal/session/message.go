package session

import (
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// MessageKind tags every reliable in-channel message (distinct from the
// packet-level ClientPacketKind/ServerPacketKind transport tags).
// Grounded on net.cpp's MessageType enum, scoped to the handshake and
// ownership-checked control messages this port implements; gameplay-
// specific message kinds (Awk, EnergyPickup, Health, Team,
// ParticleEffect, ...) belong to the game layer this repo doesn't carry.
type MessageKind uint8

const (
	MsgNoop MessageKind = iota
	MsgEntityCreate
	MsgEntityRemove
	MsgInitDone
	MsgLoadingDone
	MsgControlHuman
)

const messageKindBits = 3

// localOnly reports whether a message kind is never dispatched to the
// opposing side's gameplay handlers — it exists purely to keep the
// sequence counter advancing and the channel's ordering guarantees
// intact (spec.md §4.4: "a single Noop message is emitted so every tick
// advances the sequence counter").
func (k MessageKind) localOnly() bool { return k == MsgNoop }

// EncodeNoop writes the single message every otherwise-empty frame
// carries.
func EncodeNoop(w *wire.Writer) { w.WriteBits(uint32(MsgNoop), messageKindBits) }

// EncodeEntityCreate writes one EntityCreate message for id, using the
// entity serializer's wire form (spec.md §4.6).
func EncodeEntityCreate(w *wire.Writer, world *entity.World, id entity.ID) {
	w.WriteBits(uint32(MsgEntityCreate), messageKindBits)
	world.Encode(id, w)
}

// EncodeEntityRemove writes a message telling the peer an entity slot
// has been freed.
func EncodeEntityRemove(w *wire.Writer, id entity.ID) {
	w.WriteBits(uint32(MsgEntityRemove), messageKindBits)
	w.WriteInt(int64(id), 0, entity.MaxEntities-1)
}

func EncodeInitDone(w *wire.Writer) { w.WriteBits(uint32(MsgInitDone), messageKindBits) }

func EncodeLoadingDone(w *wire.Writer) { w.WriteBits(uint32(MsgLoadingDone), messageKindBits) }

// ControlHumanBody is a client's per-tick input message for one locally
// controlled player-manager entity. The receiving server tags it
// Invalid rather than applying it when the entity isn't owned by the
// sending client (spec.md §4.7, §7).
type ControlHumanBody struct {
	Entity entity.Ref
	Move   [2]float32 // x/z analog stick, -1..1
	Look   [2]float32 // yaw/pitch delta, radians
	Fire   bool
	Jump   bool
}

func EncodeControlHuman(w *wire.Writer, body ControlHumanBody) {
	w.WriteBits(uint32(MsgControlHuman), messageKindBits)
	w.WriteEntityRef(wire.EntityRef{ID: int32(body.Entity.ID), Revision: body.Entity.Revision, Null: body.Entity.Null}, entity.MaxEntities)
	w.WriteFloat(body.Move[0], -1, 1, 8)
	w.WriteFloat(body.Move[1], -1, 1, 8)
	w.WriteFloat(body.Look[0], -3.14159265, 3.14159265, 12)
	w.WriteFloat(body.Look[1], -3.14159265, 3.14159265, 12)
	w.WriteBool(body.Fire)
	w.WriteBool(body.Jump)
}

func decodeControlHuman(r *wire.Reader) (ControlHumanBody, error) {
	var b ControlHumanBody
	ref, err := r.ReadEntityRef(entity.MaxEntities)
	if err != nil {
		return b, err
	}
	b.Entity = entity.Ref{ID: entity.ID(ref.ID), Revision: ref.Revision, Null: ref.Null}
	if b.Move[0], err = r.ReadFloat(-1, 1, 8); err != nil {
		return b, err
	}
	if b.Move[1], err = r.ReadFloat(-1, 1, 8); err != nil {
		return b, err
	}
	if b.Look[0], err = r.ReadFloat(-3.14159265, 3.14159265, 12); err != nil {
		return b, err
	}
	if b.Look[1], err = r.ReadFloat(-3.14159265, 3.14159265, 12); err != nil {
		return b, err
	}
	if b.Fire, err = r.ReadBool(); err != nil {
		return b, err
	}
	if b.Jump, err = r.ReadBool(); err != nil {
		return b, err
	}
	return b, nil
}

// Handler receives each decoded message in strict frame/sequence order
// (spec.md §4.4's ordering guarantee). ownerOf resolves which client, if
// any, a given entity is owned by, for MsgControlHuman's ownership
// check; it may be nil on the client side, where nothing needs it.
type Handler struct {
	World   *entity.World
	OwnerOf func(entity.Ref) (clientID int, ok bool)
	// SenderClientID identifies which client sent the message currently
	// being dispatched; set by the caller before each Dispatch call on
	// the server, ignored on the client.
	SenderClientID int

	OnEntityCreated func(entity.ID)
	OnEntityRemoved func(entity.ID)
	OnInitDone      func()
	OnLoadingDone   func()
	OnControlHuman  func(ControlHumanBody)
}

// Dispatch decodes one message from r and invokes the matching hook.
// Per spec.md §4.6, a freshly materialized entity is queued for awake
// rather than woken immediately; callers invoke World.AwakeAll() once
// the session reaches Connected.
func (h *Handler) Dispatch(r *wire.Reader) error {
	kindBits, err := r.ReadBits(messageKindBits)
	if err != nil {
		return err
	}
	switch MessageKind(kindBits) {
	case MsgNoop:
		return nil
	case MsgEntityCreate:
		id, err := h.World.Decode(r)
		if err != nil {
			return err
		}
		if h.OnEntityCreated != nil {
			h.OnEntityCreated(id)
		}
		return nil
	case MsgEntityRemove:
		v, err := r.ReadInt(0, entity.MaxEntities-1)
		if err != nil {
			return err
		}
		if h.OnEntityRemoved != nil {
			h.OnEntityRemoved(entity.ID(v))
		}
		return nil
	case MsgInitDone:
		if h.OnInitDone != nil {
			h.OnInitDone()
		}
		return nil
	case MsgLoadingDone:
		if h.OnLoadingDone != nil {
			h.OnLoadingDone()
		}
		return nil
	case MsgControlHuman:
		body, err := decodeControlHuman(r)
		if err != nil {
			return err
		}
		if h.OwnerOf != nil {
			owner, ok := h.OwnerOf(body.Entity)
			if !ok || owner != h.SenderClientID {
				// Bad ownership (spec.md §7): tagged Invalid by simply
				// not dispatching it further.
				return nil
			}
		}
		if h.OnControlHuman != nil {
			h.OnControlHuman(body)
		}
		return nil
	default:
		return nil
	}
}
