package session

import (
	"net"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/xid"

	"github.com/deceiver-net/deceiver-net/internal/channel"
	"github.com/deceiver-net/deceiver-net/internal/entity"
	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/snapshot"
	"github.com/deceiver-net/deceiver-net/internal/transport"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// ServerSessionState is a single client's connection state on the
// server side (spec.md §4.7): Waiting → Active.
type ServerSessionState int

const (
	Waiting ServerSessionState = iota
	Active
)

// ClientSession is the server's bookkeeping for one connected client
// (spec.md §4.2's "Client record"): address, timeout accumulator,
// smoothed RTT, ack state, inbound/outbound history, and the set of
// human players it owns.
type ClientSession struct {
	State   ServerSessionState
	Addr    *net.UDPAddr
	Loaded  bool // has sent LoadingDone
	UUID    [16]byte
	Players []transport.PlayerDescriptor

	// LogID is a short, globally sortable correlation tag for this
	// session's log lines — cheaper to eyeball in a scrolling console
	// than the full 16-byte player UUID. Grounded on
	// runZeroInc-sockstats' exporter example tagging each connection
	// with xid.New().String() for the same reason.
	LogID string

	localSequence seq.ID
	outHistory    *channel.History
	inHistory     *channel.History
	localAck      seq.Ack
	peerAck       seq.Ack
	processed     seq.ID
	rtt           float64
	resent        *channel.ResentTracker

	lastPacketAt float64

	// ackedFrame is the sequence id of the newest state frame this client
	// has told us (via its Update packets' lastAppliedFrame field) that it
	// has successfully decoded and applied. Tick diffs the next frame
	// against this one, not merely the last frame we sent — under loss the
	// two can differ for several ticks, and diffing against a frame the
	// client never received would decode into garbage (spec.md §4.7 step 4).
	ackedFrame seq.ID

	ownedEntities map[entity.ID]bool
}

func newClientSession(addr *net.UDPAddr, now float64) *ClientSession {
	return &ClientSession{
		State:         Waiting,
		Addr:          addr,
		LogID:         xid.New().String(),
		localAck:      seq.Ack{SequenceID: seq.Invalid},
		peerAck:       seq.Ack{SequenceID: seq.Invalid},
		processed:     seq.Invalid,
		ackedFrame:    seq.Invalid,
		rtt:           -1,
		resent:        channel.NewResentTracker(int(seq.AckPreviousSequences)),
		outHistory:    channel.NewHistory(),
		inHistory:     channel.NewHistory(),
		lastPacketAt:  now,
		ownedEntities: make(map[entity.ID]bool),
	}
}

// Server holds every connected session plus the authoritative world. It
// is the single owner of the update loop's replication logic (spec.md
// §9: one thread, no locking needed against the render/physics/AI
// loops).
type Server struct {
	World           *entity.World
	ExpectedClients int
	GameVersion     uint32

	sessions []*ClientSession
	frames   *snapshot.History

	// pending demuxes addresses that have sent Connect but not yet
	// AckInit, so a retransmitted Connect from the same address doesn't
	// need a full scan of sessions to recognize — and, with a TTL equal
	// to the session timeout, a half-connected address that never
	// finishes the handshake is reclaimed automatically rather than
	// wedging a slot forever. Grounded on cppla-moto/controller/server.go's
	// ipCache rate-limit pattern (spec.md §4.13); like that cache, this
	// is the one deliberate package-level-cache-shaped exception to
	// threading all state through explicit structs, since it is pure
	// address bookkeeping, not game state.
	pending *cache.Cache

	// OnPacketSent, if set, is called after every successful outbound
	// send with the packet's wire size — a callback rather than a
	// direct internal/telemetry import, the same style as OwnerOf and
	// the Handler callbacks below, so this package stays ignorant of
	// how (or whether) its caller tracks bandwidth.
	OnPacketSent func(bytes int)

	handler *Handler
}

func NewServer(world *entity.World, expectedClients int) *Server {
	s := &Server{
		World:           world,
		ExpectedClients: expectedClients,
		GameVersion:     transport.ProtocolVersion,
		frames:          snapshot.NewHistory(),
		pending:         cache.New(time.Duration(Timeout*float64(time.Second)), time.Minute),
	}
	s.handler = &Handler{
		World:   world,
		OwnerOf: s.ownerOf,
	}
	return s
}

func (s *Server) ownerOf(ref entity.Ref) (int, bool) {
	id, ok := s.World.Entities.Resolve(ref)
	if !ok {
		return 0, false
	}
	for i, cs := range s.sessions {
		if cs != nil && cs.ownedEntities[id] {
			return i, true
		}
	}
	return 0, false
}

// AllConnected reports whether every expected client slot has reached
// Active (spec.md §4.7: "Once all expected clients are connected, the
// session moves to Active").
func (s *Server) AllConnected() bool {
	if len(s.sessions) < s.ExpectedClients {
		return false
	}
	for _, cs := range s.sessions {
		if cs == nil || cs.State != Active {
			return false
		}
	}
	return true
}

// allLoaded reports whether every active client has sent LoadingDone —
// the barrier gating the first state frame build (spec.md §4.7 step 3).
func (s *Server) allLoaded() bool {
	if !s.AllConnected() {
		return false
	}
	for _, cs := range s.sessions {
		if !cs.Loaded {
			return false
		}
	}
	return true
}

// HandlePacket decodes and dispatches one inbound datagram, identified
// by its source address.
func (s *Server) HandlePacket(addr *net.UDPAddr, data []byte, now float64) error {
	r, err := wire.OpenPacket(data)
	if err != nil {
		return nil
	}
	kind, err := transport.ReadClientHeader(r)
	if err != nil {
		return nil
	}

	if kind == transport.ClientConnect {
		return s.handleConnect(addr, r, now)
	}

	clientID, cs := s.findByAddr(addr)
	if cs == nil {
		return ErrUnknownSender
	}
	cs.lastPacketAt = now

	switch kind {
	case transport.ClientDisconnect:
		s.sessions[clientID] = nil
		s.pending.Delete(addr.String())
		return nil
	case transport.ClientAckInit:
		return s.handleAckInit(clientID, r)
	case transport.ClientUpdate:
		return s.handleUpdate(clientID, r, now)
	}
	return nil
}

// Sessions returns the live session slots, some of which may be nil
// (a freed slot is never compacted, since clientID is also each
// session's index into outbound entity-ownership bookkeeping). Callers
// observing connect/disconnect transitions for logging or metrics
// should diff this against their own last-seen snapshot.
func (s *Server) Sessions() []*ClientSession { return s.sessions }

func (s *Server) findByAddr(addr *net.UDPAddr) (int, *ClientSession) {
	for i, cs := range s.sessions {
		if cs != nil && transport.AddrEqual(cs.Addr, addr) {
			return i, cs
		}
	}
	return -1, nil
}

func (s *Server) handleConnect(addr *net.UDPAddr, r *wire.Reader, now float64) error {
	body, err := transport.DecodeConnectBody(r)
	if err != nil {
		return nil
	}
	if _, ok := s.pending.Get(addr.String()); ok {
		return nil // retransmitted Connect while already waiting on AckInit
	}
	if _, cs := s.findByAddr(addr); cs != nil {
		return nil // already has a session; a stray Connect outlived the pending cache entry
	}
	if body.GameVersion != s.GameVersion {
		return ErrVersionMismatch
	}
	slot := -1
	for i, existing := range s.sessions {
		if existing == nil {
			slot = i
			break
		}
	}
	if slot < 0 && len(s.sessions) >= s.ExpectedClients {
		return nil // full: ignore until a slot frees (no reply per spec.md §7)
	}
	cs := newClientSession(addr, now)
	cs.UUID = body.PlayerUUID
	if slot < 0 {
		s.sessions = append(s.sessions, cs)
	} else {
		s.sessions[slot] = cs
	}
	s.pending.Set(addr.String(), struct{}{}, cache.DefaultExpiration)
	return nil
}

func (s *Server) handleAckInit(clientID int, r *wire.Reader) error {
	cs := s.sessions[clientID]
	if cs == nil || cs.State != Waiting {
		return nil
	}
	body, err := transport.DecodeAckInitBody(r)
	if err != nil {
		return nil
	}
	cs.Players = body.Players
	cs.State = Active
	if s.AllConnected() {
		s.announceEntities()
	}
	return nil
}

// announceEntities queues one EntityCreate per live entity followed by
// InitDone for every now-Active client (spec.md §4.7).
func (s *Server) announceEntities() {
	for _, cs := range s.sessions {
		if cs == nil {
			continue
		}
		body := wire.NewWriter()
		for _, id := range s.World.Live() {
			EncodeEntityCreate(body, s.World, id)
		}
		EncodeInitDone(body)
		cs.outHistory.Add(cs.localSequence, cs.lastPacketAt, channel.EncodeFrame(cs.localSequence, body.Bytes()))
		cs.localSequence = seq.Advance(cs.localSequence, 1)
	}
}

func (s *Server) handleUpdate(clientID int, r *wire.Reader, now float64) error {
	cs := s.sessions[clientID]
	if cs == nil || cs.State != Active {
		return nil
	}

	received, _, lastAppliedFrame, err := transport.ReadUpdateBody(r, cs.inHistory, &cs.peerAck, now, nil)
	if err != nil {
		return nil
	}
	channel.CalculateRTT(now, cs.peerAck, cs.outHistory, &cs.rtt)
	if lastAppliedFrame != seq.Invalid {
		cs.ackedFrame = lastAppliedFrame
	}

	if received != seq.Invalid && seq.RelativeTo(cs.processed, received) < -int32(seq.AckPreviousSequences) {
		s.sessions[clientID] = nil
		return ErrSequenceGapTooLarge
	}

	s.handler.SenderClientID = clientID
	s.handler.OnLoadingDone = func() { cs.Loaded = true }
	for {
		f := channel.AdvanceProcessed(cs.inHistory, &cs.processed, now, TickRate)
		if f == nil {
			break
		}
		cs.localAck = seq.Ack{SequenceID: cs.processed}
		_ = s.handler.Dispatch(wire.NewReader(f.Payload))
	}
	return nil
}

// Tick runs one server update: consolidate each client's outbound
// message frame, build a state frame once every client has loaded, and
// send per-client Update packets (spec.md §4.7 steps 2-4).
func (s *Server) Tick(sock *transport.Socket, now float64) {
	s.reapTimedOutSessions(now)

	var frame *snapshot.Frame
	if s.allLoaded() {
		frame = snapshot.Build(s.World, nextFrameID(s.frames), now)
		s.frames.Add(frame)
	}

	for i, cs := range s.sessions {
		if cs == nil {
			continue
		}
		s.tickClient(i, cs, sock, frame, now)
	}
}

// reapTimedOutSessions drops any session that hasn't sent a packet
// within Timeout, mirroring the client's own NET_TIMEOUT disconnect
// (spec.md §7) on the server side and freeing the matching pending-
// address cache entry so a fresh Connect from the same address is
// accepted rather than silently ignored.
func (s *Server) reapTimedOutSessions(now float64) {
	for i, cs := range s.sessions {
		if cs == nil {
			continue
		}
		if now-cs.lastPacketAt > Timeout {
			s.pending.Delete(cs.Addr.String())
			s.sessions[i] = nil
		}
	}
}

func nextFrameID(h *snapshot.History) seq.ID {
	latest := h.Latest()
	if latest == nil {
		return 0
	}
	return seq.Advance(latest.SequenceID, 1)
}

func (s *Server) tickClient(clientID int, cs *ClientSession, sock *transport.Socket, frame *snapshot.Frame, now float64) {
	w := wire.NewWriter()

	switch cs.State {
	case Waiting:
		transport.WriteServerHeader(w, transport.ServerInit)
		w.WriteBits(s.GameVersion, 32)
		w.WriteInt(int64(len(s.World.Live())), 0, entity.MaxEntities)
	case Active:
		transport.WriteServerHeader(w, transport.ServerUpdate)

		// Every tick still advances the sequence counter even with nothing
		// queued (spec.md §4.4): announceEntities' EntityCreate/InitDone
		// frame, if any, was already appended directly to outHistory, so
		// this tick's own frame is always at least a Noop.
		body := wire.NewWriter()
		EncodeNoop(body)
		cs.outHistory.Add(cs.localSequence, now, channel.EncodeFrame(cs.localSequence, body.Bytes()))
		cs.localSequence = seq.Advance(cs.localSequence, 1)

		var baseline *snapshot.Frame
		if cs.ackedFrame != seq.Invalid {
			baseline = s.frames.BySequence(cs.ackedFrame)
		}
		transport.WriteUpdateBody(w, cs.localAck, cs.outHistory, cs.peerAck, cs.resent, cs.rtt, now, frame, baseline, seq.Invalid)
	}

	if sock == nil || cs.Addr == nil {
		return
	}
	packet, err := wire.FinalizePacket(w)
	if err != nil {
		return
	}
	if err := sock.Send(cs.Addr, packet); err == nil && s.OnPacketSent != nil {
		s.OnPacketSent(len(packet))
	}
}
