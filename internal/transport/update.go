package transport

import (
	"github.com/deceiver-net/deceiver-net/internal/channel"
	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/snapshot"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// WriteUpdateBody writes an Update packet's body — peer ack, the
// reliable message stream, this endpoint's claim about the last state
// frame it applied, and an optional state-frame block prefixed by its
// baseline sequence id — in the order spec.md §4.10 specifies. frame is
// nil before the server has anything to send (or on a client, always —
// clients never build state frames); baseline is nil for a keyframe.
// lastAppliedFrame is the sequence id of the newest state frame this
// endpoint has successfully decoded and applied (seq.Invalid if none
// yet); a client reports this every tick so the server can diff its next
// frame against what the client actually has, not merely what the
// server last sent (spec.md §4.7 step 4). A server has nothing to
// report here, since it never applies state frames of its own.
func WriteUpdateBody(
	w *wire.Writer,
	localAck seq.Ack,
	outHistory *channel.History,
	remoteAck seq.Ack,
	resent *channel.ResentTracker,
	rtt, now float64,
	frame, baseline *snapshot.Frame,
	lastAppliedFrame seq.ID,
) {
	localAck.Encode(w)
	channel.WriteFrames(w, outHistory, remoteAck, resent, rtt, now)
	w.WriteInt(int64(lastAppliedFrame), 0, int64(seq.Invalid))

	w.WriteBool(frame != nil)
	if frame == nil {
		return
	}
	baselineID := seq.Invalid
	if baseline != nil {
		baselineID = baseline.SequenceID
	}
	w.WriteInt(int64(baselineID), 0, int64(seq.Invalid))
	snapshot.EncodeDelta(w, frame, baseline)
}

// BaselineLookup resolves a baseline sequence id to the frame it names,
// or nil if it has already aged out of the sender's history — the
// caller (a session) owns the frame history this looks into.
type BaselineLookup func(seq.ID) *snapshot.Frame

// ReadUpdateBody is WriteUpdateBody's counterpart. lastAppliedFrame is
// the sender's reported last-applied state frame id (seq.Invalid if it
// has none, or doesn't track one).
func ReadUpdateBody(
	r *wire.Reader,
	inHistory *channel.History,
	ack *seq.Ack,
	now float64,
	resolveBaseline BaselineLookup,
) (receivedSequence seq.ID, frame *snapshot.Frame, lastAppliedFrame seq.ID, err error) {
	receivedSequence, err = channel.ReadFrames(r, inHistory, ack, now)
	if err != nil {
		return seq.Invalid, nil, seq.Invalid, err
	}

	lastAppliedVal, err := r.ReadInt(0, int64(seq.Invalid))
	if err != nil {
		return receivedSequence, nil, seq.Invalid, err
	}
	lastAppliedFrame = seq.ID(lastAppliedVal)

	hasFrame, err := r.ReadBool()
	if err != nil {
		return receivedSequence, nil, lastAppliedFrame, err
	}
	if !hasFrame {
		return receivedSequence, nil, lastAppliedFrame, nil
	}

	baselineIDVal, err := r.ReadInt(0, int64(seq.Invalid))
	if err != nil {
		return receivedSequence, nil, lastAppliedFrame, err
	}
	baselineID := seq.ID(baselineIDVal)

	var baseline *snapshot.Frame
	if baselineID != seq.Invalid && resolveBaseline != nil {
		baseline = resolveBaseline(baselineID)
	}
	frame, err = snapshot.DecodeDelta(r, baseline)
	if err != nil {
		return receivedSequence, nil, lastAppliedFrame, err
	}
	return receivedSequence, frame, lastAppliedFrame, nil
}
