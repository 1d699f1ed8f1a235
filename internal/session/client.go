package session

import (
	"fmt"
	"net"

	"github.com/deceiver-net/deceiver-net/internal/channel"
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/snapshot"
	"github.com/deceiver-net/deceiver-net/internal/transport"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// ClientState is the client-side connection state machine (spec.md
// §4.7): Disconnected → Connecting → Acking → Loading → Connected.
type ClientState int

const (
	Disconnected ClientState = iota
	Connecting
	Acking
	Loading
	Connected
)

func (s ClientState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Acking:
		return "Acking"
	case Loading:
		return "Loading"
	case Connected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Timeout is how long a session waits for any packet before declaring
// the peer gone (spec.md §4.7, §7's NET_TIMEOUT).
const Timeout = channel.Timeout

// RetransmitInterval is how often Connecting/Acking resend their
// handshake packet while waiting for a reply (spec.md §4.7).
const RetransmitInterval = 0.25

// TickRate is the fixed server/client tick duration (spec.md §5).
const TickRate = 1.0 / 60.0

// Client drives one client-side connection. Exactly one exists per
// client process; it is the lifecycle-bounded context struct spec.md §9
// calls for in place of implicit globals.
type Client struct {
	State      ClientState
	World      *entity.World
	ServerAddr *net.UDPAddr
	UUID       [16]byte

	localSequence seq.ID
	outHistory    *channel.History
	inHistory     *channel.History
	localAck      seq.Ack // our claim about what we've received from the server
	peerAck       seq.Ack // the server's claim about what it's received from us
	processed     seq.ID
	rtt           float64
	resent        *channel.ResentTracker

	now             float64
	lastPacketAt    float64
	retransmitAt    float64
	entitiesExpected int
	entitiesAwoken  int
	loaded          bool

	frames          *snapshot.History
	lastAppliedFrame seq.ID
	locallyControlled map[entity.ID]bool

	// OnPacketSent mirrors Server.OnPacketSent (spec.md §9's bandwidth
	// counters), left nil for callers (e.g. tests) that don't care.
	OnPacketSent func(bytes int)

	handler *Handler
}

func NewClient(world *entity.World, uuid [16]byte) *Client {
	c := &Client{
		State:             Disconnected,
		World:             world,
		UUID:              uuid,
		localAck:          seq.Ack{SequenceID: seq.Invalid},
		peerAck:           seq.Ack{SequenceID: seq.Invalid},
		processed:         seq.Invalid,
		lastAppliedFrame:  seq.Invalid,
		rtt:               -1,
		resent:            channel.NewResentTracker(int(seq.AckPreviousSequences)),
		outHistory:        channel.NewHistory(),
		inHistory:         channel.NewHistory(),
		frames:            snapshot.NewHistory(),
		locallyControlled: make(map[entity.ID]bool),
	}
	c.handler = &Handler{
		World: world,
		OnEntityCreated: func(id entity.ID) {
			c.entitiesAwoken++
		},
		OnInitDone: func() {
			c.loaded = true
		},
	}
	return c
}

// MarkLocallyControlled excludes id from Apply overwrites — spec.md
// §4.5's exception for a locally predicted player transform.
func (c *Client) MarkLocallyControlled(id entity.ID) { c.locallyControlled[id] = true }

// Connect begins a handshake with addr.
func (c *Client) Connect(addr *net.UDPAddr, now float64) {
	c.State = Connecting
	c.ServerAddr = addr
	c.now = now
	c.lastPacketAt = now
	c.retransmitAt = now
}

// Tick advances timers, retransmits the handshake packet if due, and
// (once Connected) sends the per-tick Update packet.
func (c *Client) Tick(sock *transport.Socket, now float64) error {
	c.now = now
	if c.State == Disconnected {
		return nil
	}
	if now-c.lastPacketAt > Timeout {
		c.State = Disconnected
		return nil
	}

	switch c.State {
	case Connecting:
		if now >= c.retransmitAt {
			c.sendConnect(sock)
			c.retransmitAt = now + RetransmitInterval
		}
	case Acking:
		if now >= c.retransmitAt {
			c.sendAckInit(sock)
			c.retransmitAt = now + RetransmitInterval
		}
	case Loading:
		if c.loaded && c.entitiesAwoken >= c.entitiesExpected {
			for _, id := range c.World.AwakeAll() {
				_ = id
			}
			c.sendLoadingDone(sock)
			c.State = Connected
		}
	case Connected:
		c.sendUpdate(sock)
	}
	return nil
}

func (c *Client) sendConnect(sock *transport.Socket) {
	w := wire.NewWriter()
	transport.WriteClientHeader(w, transport.ClientConnect)
	transport.ConnectBody{GameVersion: transport.ProtocolVersion, PlayerUUID: c.UUID}.Encode(w)
	c.send(sock, w)
}

func (c *Client) sendAckInit(sock *transport.Socket) {
	w := wire.NewWriter()
	transport.WriteClientHeader(w, transport.ClientAckInit)
	transport.AckInitBody{Players: []transport.PlayerDescriptor{{Team: 0, InputDevice: 0, UUID: c.UUID}}}.Encode(w)
	c.send(sock, w)
}

func (c *Client) sendLoadingDone(sock *transport.Socket) {
	w := wire.NewWriter()
	transport.WriteClientHeader(w, transport.ClientUpdate)
	c.writeOutboundFrame(w, EncodeLoadingDone)
	c.send(sock, w)
}

func (c *Client) sendUpdate(sock *transport.Socket) {
	w := wire.NewWriter()
	transport.WriteClientHeader(w, transport.ClientUpdate)
	c.writeOutboundFrame(w, nil)
	c.send(sock, w)
}

// writeOutboundFrame builds this tick's frame, then writes the full
// Update body. If extra is non-nil it writes the frame's messages (e.g.
// LoadingDone); otherwise the frame holds a single Noop so every tick
// still advances the sequence counter (spec.md §4.4).
func (c *Client) writeOutboundFrame(w *wire.Writer, extra func(*wire.Writer)) {
	body := wire.NewWriter()
	if extra != nil {
		extra(body)
	} else {
		EncodeNoop(body)
	}
	c.outHistory.Add(c.localSequence, c.now, channel.EncodeFrame(c.localSequence, body.Bytes()))
	c.localSequence = seq.Advance(c.localSequence, 1)

	transport.WriteUpdateBody(w, c.localAck, c.outHistory, c.peerAck, c.resent, c.rtt, c.now, nil, nil, c.lastAppliedFrame)
}

func (c *Client) send(sock *transport.Socket, w *wire.Writer) {
	if sock == nil || c.ServerAddr == nil {
		return
	}
	packet, err := wire.FinalizePacket(w)
	if err != nil {
		return
	}
	if err := sock.Send(c.ServerAddr, packet); err == nil && c.OnPacketSent != nil {
		c.OnPacketSent(len(packet))
	}
}

// HandlePacket decodes and dispatches one datagram from the server.
func (c *Client) HandlePacket(data []byte, now float64) error {
	c.now = now
	r, err := wire.OpenPacket(data)
	if err != nil {
		return nil // malformed packet: dropped silently (spec.md §7)
	}
	kind, err := transport.ReadServerHeader(r)
	if err != nil {
		return nil
	}

	c.lastPacketAt = now

	switch kind {
	case transport.ServerDisconnect:
		c.State = Disconnected
		return nil
	case transport.ServerInit:
		return c.handleInit(r)
	case transport.ServerKeepalive:
		return nil
	case transport.ServerUpdate:
		return c.handleUpdate(r)
	}
	return nil
}

func (c *Client) handleInit(r *wire.Reader) error {
	if c.State != Connecting {
		return nil
	}
	version, err := r.ReadBits(32)
	if err != nil {
		return nil
	}
	if version != transport.ProtocolVersion {
		c.State = Disconnected
		return ErrVersionMismatch
	}
	expected, err := r.ReadInt(0, entity.MaxEntities)
	if err != nil {
		return nil
	}
	c.entitiesExpected = int(expected)
	c.State = Acking
	c.retransmitAt = c.now
	return nil
}

func (c *Client) handleUpdate(r *wire.Reader) error {
	if c.State == Acking {
		c.State = Loading
	}
	if c.State != Loading && c.State != Connected {
		return nil
	}

	received, frame, _, err := transport.ReadUpdateBody(r, c.inHistory, &c.peerAck, c.now, func(id seq.ID) *snapshot.Frame {
		return c.frames.BySequence(id)
	})
	if err != nil {
		return nil
	}
	channel.CalculateRTT(c.now, c.peerAck, c.outHistory, &c.rtt)

	if received != seq.Invalid {
		if seq.RelativeTo(c.processed, received) < -int32(seq.AckPreviousSequences) {
			c.State = Disconnected
			return fmt.Errorf("session: client dropped: %w", ErrSequenceGapTooLarge)
		}
	}

	for {
		f := channel.AdvanceProcessed(c.inHistory, &c.processed, c.now, TickRate)
		if f == nil {
			break
		}
		c.localAck = seq.Ack{SequenceID: c.processed}
		mr := wire.NewReader(f.Payload)
		_ = c.handler.Dispatch(mr)
	}

	if frame != nil {
		c.frames.Add(frame)
		c.lastAppliedFrame = frame.SequenceID
		if c.State == Connected {
			snapshot.Apply(frame, c.World, c.locallyControlled)
		}
	}
	return nil
}
