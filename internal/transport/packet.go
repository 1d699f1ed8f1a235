package transport

import "github.com/deceiver-net/deceiver-net/internal/wire"

// ProtocolVersion is compared against every incoming Connect packet; on
// a mismatch the server creates no session and sends no reply.
const ProtocolVersion = 1

// ClientPacketKind tags every packet a client sends (spec.md §4.10).
type ClientPacketKind uint8

const (
	ClientConnect ClientPacketKind = iota
	ClientAckInit
	ClientUpdate
	ClientDisconnect
)

// ServerPacketKind tags every packet a server sends (spec.md §4.10).
type ServerPacketKind uint8

const (
	ServerInit ServerPacketKind = iota
	ServerKeepalive
	ServerUpdate
	ServerDisconnect
)

const kindBits = 2

func (k ClientPacketKind) write(w *wire.Writer) { w.WriteBits(uint32(k), kindBits) }
func (k ServerPacketKind) write(w *wire.Writer) { w.WriteBits(uint32(k), kindBits) }

// WriteClientHeader tags an outbound client packet with its kind,
// ready for the caller to append the kind-specific body.
func WriteClientHeader(w *wire.Writer, kind ClientPacketKind) { kind.write(w) }

// WriteServerHeader is WriteClientHeader's server-side counterpart.
func WriteServerHeader(w *wire.Writer, kind ServerPacketKind) { kind.write(w) }

// ReadClientHeader reads the kind tag WriteClientHeader wrote.
func ReadClientHeader(r *wire.Reader) (ClientPacketKind, error) {
	v, err := r.ReadBits(kindBits)
	return ClientPacketKind(v), err
}

// ReadServerHeader is ReadClientHeader's server-side counterpart.
func ReadServerHeader(r *wire.Reader) (ServerPacketKind, error) {
	v, err := r.ReadBits(kindBits)
	return ServerPacketKind(v), err
}

// ConnectBody is the payload of a client Connect packet: the game
// version the client is running plus its persistent player UUID
// (spec.md §4.7's AckInit carries the rest of the player descriptor; the
// UUID is sent here too so a rejected Connect never needs it echoed
// back).
type ConnectBody struct {
	GameVersion uint32
	PlayerUUID  [16]byte
}

func (b ConnectBody) Encode(w *wire.Writer) {
	w.WriteBits(b.GameVersion, 32)
	w.WriteBytes(b.PlayerUUID[:])
}

func DecodeConnectBody(r *wire.Reader) (ConnectBody, error) {
	var b ConnectBody
	v, err := r.ReadBits(32)
	if err != nil {
		return b, err
	}
	b.GameVersion = v
	raw, err := r.ReadBytes(16)
	if err != nil {
		return b, err
	}
	copy(b.PlayerUUID[:], raw)
	return b, nil
}

// PlayerDescriptor is what AckInit carries for each local player the
// client is about to control (spec.md §4.7: "team assignment, input
// device index, persistent UUID").
type PlayerDescriptor struct {
	Team        uint8
	InputDevice uint8
	UUID        [16]byte
}

func (d PlayerDescriptor) Encode(w *wire.Writer) {
	w.WriteBits(uint32(d.Team), 8)
	w.WriteBits(uint32(d.InputDevice), 8)
	w.WriteBytes(d.UUID[:])
}

func DecodePlayerDescriptor(r *wire.Reader) (PlayerDescriptor, error) {
	var d PlayerDescriptor
	team, err := r.ReadBits(8)
	if err != nil {
		return d, err
	}
	d.Team = uint8(team)
	dev, err := r.ReadBits(8)
	if err != nil {
		return d, err
	}
	d.InputDevice = uint8(dev)
	raw, err := r.ReadBytes(16)
	if err != nil {
		return d, err
	}
	copy(d.UUID[:], raw)
	return d, nil
}

// AckInitBody is a client's AckInit packet body: one descriptor per
// local player it is bringing into the session.
type AckInitBody struct {
	Players []PlayerDescriptor
}

const maxLocalPlayers = 4

func (b AckInitBody) Encode(w *wire.Writer) {
	w.WriteInt(int64(len(b.Players)), 0, maxLocalPlayers)
	for _, p := range b.Players {
		p.Encode(w)
	}
}

func DecodeAckInitBody(r *wire.Reader) (AckInitBody, error) {
	var b AckInitBody
	n, err := r.ReadInt(0, maxLocalPlayers)
	if err != nil {
		return b, err
	}
	for i := int64(0); i < n; i++ {
		p, err := DecodePlayerDescriptor(r)
		if err != nil {
			return b, err
		}
		b.Players = append(b.Players, p)
	}
	return b, nil
}
