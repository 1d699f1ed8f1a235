// Package channel implements the reliable-ordered message channel layered
// on top of the unreliable transport: per-tick outbound frame
// consolidation, resend-until-acked delivery bounded by an RTT-derived
// cooldown, and a processed-sequence cursor that advances one slot at a
// time without skipping gaps. Grounded on net.cpp's MessageHistory /
// msgs_write / msgs_read / msg_frame_advance / calculate_rtt.
package channel

import "github.com/deceiver-net/deceiver-net/internal/seq"

// Capacity bounds the ring of outstanding frames either side keeps —
// net.cpp's NET_HISTORY_SIZE.
const Capacity = 256

// Timeout is how long a frame is considered live for resend/ack-scan
// purposes before the history walk gives up on it — net.cpp's
// NET_TIMEOUT.
const Timeout = 2.0

// Frame is one outbound or inbound message batch, stamped with the
// sequence id it was sent/received under. On an outbound History,
// Payload is the result of EncodeFrame — a self-describing blob
// WriteFrames can blit unchanged on every resend. On an inbound History,
// Payload is the decoded raw message bytes with the length/sequence
// header already stripped off by ReadFrames.
type Frame struct {
	SequenceID seq.ID
	Timestamp  float64
	Payload    []byte
}

// History is a ring buffer of Frames, walked backward from the most
// recently added entry the way net.cpp's msg_frame_by_sequence does.
type History struct {
	frames  []Frame
	current int
}

func NewHistory() *History { return &History{} }

// Add appends (or, once full, overwrites the oldest slot with) a new
// frame and returns a pointer to it.
func (h *History) Add(sequenceID seq.ID, timestamp float64, payload []byte) *Frame {
	if len(h.frames) < Capacity {
		h.frames = append(h.frames, Frame{SequenceID: sequenceID, Timestamp: timestamp, Payload: payload})
		h.current = len(h.frames) - 1
	} else {
		h.current = nextIndex(h.current, len(h.frames))
		h.frames[h.current] = Frame{SequenceID: sequenceID, Timestamp: timestamp, Payload: payload}
	}
	return &h.frames[h.current]
}

// Current returns the most recently added frame, or nil if empty.
func (h *History) Current() *Frame {
	if len(h.frames) == 0 {
		return nil
	}
	return &h.frames[h.current]
}

// BySequence walks backward from the current frame up to
// seq.PreviousSequencesSearch steps, stopping once it wraps back to the
// start or hits a frame older than now-Timeout.
func (h *History) BySequence(id seq.ID, now float64) *Frame {
	if len(h.frames) == 0 {
		return nil
	}
	index := h.current
	for i := 0; i < seq.PreviousSequencesSearch; i++ {
		f := &h.frames[index]
		if f.SequenceID == id {
			return f
		}
		index = prevIndex(index, len(h.frames))
		if index == h.current || f.Timestamp < now-Timeout {
			break
		}
	}
	return nil
}

func prevIndex(index, length int) int {
	if index > 0 {
		return index - 1
	}
	return length - 1
}

func nextIndex(index, length int) int {
	if index < length-1 {
		return index + 1
	}
	return 0
}

// AdvanceProcessed advances cursor to the next sequence after it that
// has actually arrived in history, one slot at a time — it never skips
// over a gap, so a missing frame stalls delivery of everything after it
// until it arrives or is resent successfully (spec.md §4.4). tickRate is
// the fixed server tick duration used to pace how quickly a freshly
// arrived frame is allowed to be consumed relative to the one before it.
// Returns nil if there is nothing new to advance to yet.
func AdvanceProcessed(h *History, cursor *seq.ID, timestamp, tickRate float64) *Frame {
	frame := h.BySequence(*cursor, timestamp)
	if frame == nil && *cursor != seq.Invalid {
		return nil
	}
	next := seq.ID(0)
	if *cursor != seq.Invalid {
		next = seq.Advance(*cursor, 1)
	}
	nextFrame := h.BySequence(next, timestamp)
	if nextFrame == nil {
		return nil
	}
	if *cursor == seq.Invalid || frame.Timestamp <= timestamp-tickRate || h.BySequence(seq.Advance(next, 1), timestamp) != nil {
		*cursor = next
		return nextFrame
	}
	return nil
}
