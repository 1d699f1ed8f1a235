package channel

import (
	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

// EncodeFrame builds the self-describing blob an outbound History stores:
// a byte length, the sequence id, and the raw payload, byte-aligned at
// the end. WriteFrames blits this blob verbatim on every send and resend
// — the header is written once, at creation time, exactly like
// net.cpp's frame.write buffer is filled once by msg_history_add's
// caller and never re-serialized.
func EncodeFrame(sequenceID seq.ID, raw []byte) []byte {
	w := wire.NewWriter()
	w.WriteInt(int64(len(raw)), 0, MaxMessagesSize)
	w.WriteInt(int64(sequenceID), 0, int64(seq.Count-1))
	w.WriteBytes(raw)
	w.AlignToByte()
	return w.Bytes()
}

// MaxMessagesSize caps how many payload bytes WriteFrames will pack into
// one outbound datagram's message-frame section, leaving the rest of
// wire.MaxPacketSize for the ack header and packet framing overhead
// (spec.md: NET_MAX_MESSAGES_SIZE = NET_MAX_PACKET_SIZE/2).
const MaxMessagesSize = wire.MaxPacketSize / 2

// ResendCooldownCap is the longest WriteFrames will wait before retrying
// an unacked frame, regardless of how bad rtt is — net.cpp's
// vi_min(0.35f, rtt*2.0f).
const ResendCooldownCap = 0.35

// WriteFrames resends any outstanding frame the remote ack says it
// hasn't seen yet (skipping anything resent within the last cooldown
// window), then appends the current tick's frame, then a zero-length
// frame terminator. Grounded on net.cpp's msgs_write.
func WriteFrames(w *wire.Writer, history *History, remoteAck seq.Ack, resent *ResentTracker, rtt, now float64) {
	if cur := history.Current(); cur != nil {
		writeResends(w, history, remoteAck, resent, rtt, now)

		if 32+len(cur.Payload) <= MaxMessagesSize {
			w.AlignToByte()
			w.WriteBytes(cur.Payload)
		}
	}

	w.AlignToByte()
	w.WriteInt(0, 0, MaxMessagesSize)
}

func writeResends(w *wire.Writer, history *History, remoteAck seq.Ack, resent *ResentTracker, rtt, now float64) {
	index := history.current
	for i := 0; i < seq.PreviousSequencesSearch; i++ {
		next := prevIndex(index, len(history.frames))
		if next == history.current || history.frames[next].Timestamp < now-Timeout {
			break
		}
		index = next
	}

	cutoff := ResendCooldownCap
	if rtt*2 < cutoff {
		cutoff = rtt * 2
	}
	timestampCutoff := now - cutoff

	bytes := 0
	for i := 0; i < seq.PreviousSequencesSearch; i++ {
		frame := history.frames[index]
		relative := seq.RelativeTo(frame.SequenceID, remoteAck.SequenceID)
		if relative < 0 &&
			relative >= -seq.AckPreviousSequences &&
			!seq.Get(remoteAck, frame.SequenceID) &&
			!resent.ContainsNewerThan(frame.SequenceID, timestampCutoff) &&
			32+bytes+len(frame.Payload) <= MaxMessagesSize {
			bytes += len(frame.Payload)
			w.AlignToByte()
			w.WriteBytes(frame.Payload)
			resent.Add(frame.SequenceID, now)
		}

		index = nextIndex(index, len(history.frames))
		if index == history.current {
			break
		}
	}
}

// ReadFrames reads what WriteFrames produced: first the sender's ack of
// our own outbound sequences (adopted only if more recent than what we
// already have), then each message frame until the zero-length
// terminator, adding every frame to history and reporting the single
// most recent sequence id actually carried in this datagram. Grounded on
// net.cpp's msgs_read.
func ReadFrames(r *wire.Reader, history *History, ack *seq.Ack, now float64) (seq.ID, error) {
	candidate, err := seq.DecodeAck(r)
	if err != nil {
		return seq.Invalid, err
	}
	if seq.MoreRecent(candidate.SequenceID, ack.SequenceID) {
		*ack = candidate
	}

	received := seq.Invalid
	first := true
	for {
		r.AlignToByte()
		bytes, err := r.ReadInt(0, MaxMessagesSize)
		if err != nil {
			return received, err
		}
		if bytes == 0 {
			break
		}
		sequenceID, err := r.ReadInt(0, int64(seq.Count-1))
		if err != nil {
			return received, err
		}
		payload, err := r.ReadBytes(int(bytes))
		if err != nil {
			return received, err
		}
		r.AlignToByte()

		history.Add(seq.ID(sequenceID), now, payload)
		if first || seq.MoreRecent(seq.ID(sequenceID), received) {
			received = seq.ID(sequenceID)
		}
		first = false
	}
	return received, nil
}
