package channel

import (
	"bytes"
	"testing"

	"github.com/deceiver-net/deceiver-net/internal/seq"
	"github.com/deceiver-net/deceiver-net/internal/wire"
)

func TestWriteReadFramesRoundTrip(t *testing.T) {
	outHistory := NewHistory()
	raw := []byte("hello world")
	sequenceID := seq.ID(5)
	outHistory.Add(sequenceID, 1.0, EncodeFrame(sequenceID, raw))

	remoteAck := seq.Ack{SequenceID: seq.Invalid}
	resent := NewResentTracker(int(seq.AckPreviousSequences))

	w := wire.NewWriter()
	localAck := seq.Ack{SequenceID: sequenceID}
	localAck.Encode(w)
	WriteFrames(w, outHistory, remoteAck, resent, 0.1, 1.0)

	r := wire.NewReader(w.Bytes())
	inHistory := NewHistory()
	ackOut := seq.Ack{SequenceID: seq.Invalid}
	received, err := ReadFrames(r, inHistory, &ackOut, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if received != sequenceID {
		t.Fatalf("got received sequence %d want %d", received, sequenceID)
	}
	if ackOut.SequenceID != sequenceID {
		t.Fatalf("ack not adopted: %+v", ackOut)
	}
	frame := inHistory.BySequence(sequenceID, 1.0)
	if frame == nil {
		t.Fatal("expected frame in inbound history")
	}
	if !bytes.Equal(frame.Payload, raw) {
		t.Fatalf("got payload %q want %q", frame.Payload, raw)
	}
}

func TestWriteFramesSkipsAlreadyAckedFrame(t *testing.T) {
	outHistory := NewHistory()
	sequenceID := seq.ID(3)
	outHistory.Add(sequenceID, 1.0, EncodeFrame(sequenceID, []byte("x")))
	// Advance current to a later frame so sequenceID is a "previous" one.
	laterID := seq.ID(4)
	outHistory.Add(laterID, 1.1, EncodeFrame(laterID, []byte("y")))

	remoteAck := seq.Ack{SequenceID: sequenceID} // already acked 3
	resent := NewResentTracker(int(seq.AckPreviousSequences))

	w := wire.NewWriter()
	WriteFrames(w, outHistory, remoteAck, resent, 0.1, 1.1)

	// The already-acked sequenceID should not have been marked as
	// recently resent (it was never resent because ack.Get says it's
	// already known).
	if resent.ContainsNewerThan(sequenceID, 0) {
		t.Fatal("acked frame should not have been resent")
	}
}

func TestResentTrackerCooldown(t *testing.T) {
	rt := NewResentTracker(4)
	rt.Add(seq.ID(10), 5.0)
	if !rt.ContainsNewerThan(seq.ID(10), 4.9) {
		t.Fatal("expected entry newer than cutoff to be found")
	}
	if rt.ContainsNewerThan(seq.ID(10), 5.1) {
		t.Fatal("entry should not be newer than a later cutoff")
	}
}

func TestAdvanceProcessedDoesNotSkipGaps(t *testing.T) {
	h := NewHistory()
	h.Add(seq.ID(0), 10.0, []byte("a"))
	h.Add(seq.ID(2), 10.1, []byte("c")) // sequence 1 never arrives

	cursor := seq.Invalid
	f := AdvanceProcessed(h, &cursor, 10.2, 1.0/60.0)
	if f == nil || cursor != seq.ID(0) {
		t.Fatalf("expected to advance to sequence 0 first, got cursor=%d", cursor)
	}

	// Sequence 1 is missing, so the cursor must not jump to 2.
	f = AdvanceProcessed(h, &cursor, 10.2, 1.0/60.0)
	if f != nil {
		t.Fatalf("expected advance to stall on missing sequence 1, got %+v", f)
	}
	if cursor != seq.ID(0) {
		t.Fatalf("cursor should remain at 0, got %d", cursor)
	}
}

func TestCalculateRTTSmoothsTowardNewSample(t *testing.T) {
	send := NewHistory()
	send.Add(seq.ID(1), 1.0, []byte("a"))

	rtt := 0.5
	ack := seq.Ack{SequenceID: seq.ID(1)}
	CalculateRTT(1.3, ack, send, &rtt)
	want := 0.5*0.95 + 0.3*0.05
	if diff := rtt - want; diff > 0.0001 || diff < -0.0001 {
		t.Fatalf("got rtt %v want %v", rtt, want)
	}
}
