package seq

import "testing"

func TestSequenceWrapAdvanceInverse(t *testing.T) {
	for _, s := range []ID{0, 1, 100, Count - 1} {
		next := Advance(s, 1)
		back := Advance(next, -1)
		if back != s {
			t.Fatalf("advance/unadvance mismatch: %d -> %d -> %d", s, next, back)
		}
	}
}

func TestMoreRecentAgreesWithRelativeTo(t *testing.T) {
	pairs := [][2]ID{
		{10, 5}, {5, 10}, {0, Count - 1}, {Count - 1, 0}, {300, 10}, {10, 300},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		more := MoreRecent(a, b)
		rel := RelativeTo(a, b)
		if more != (rel > 0) {
			t.Fatalf("MoreRecent(%d,%d)=%v but RelativeTo=%d", a, b, more, rel)
		}
	}
}

func TestAckRoundTrip(t *testing.T) {
	const n = 20
	history := make([]ReceivedFrame, 0, n)
	for i := 0; i < n; i++ {
		history = append(history, ReceivedFrame{SequenceID: ID(i), Timestamp: float64(i) * 0.01})
	}
	ack := DeriveAck(history, float64(n)*0.01, 10)
	if ack.SequenceID != ID(n-1) {
		t.Fatalf("SequenceID = %d, want %d", ack.SequenceID, n-1)
	}
	for k := 0; k < n-1 && k < AckPreviousSequences; k++ {
		if !Get(ack, ID(n-1-(k+1))) {
			t.Fatalf("bit %d should be set (sequence %d)", k, n-1-(k+1))
		}
	}
}

func TestAckWithGap(t *testing.T) {
	// Sequences 0..10 received except 5 (scenario S2).
	history := []ReceivedFrame{}
	for i := 0; i <= 10; i++ {
		if i == 5 {
			continue
		}
		history = append(history, ReceivedFrame{SequenceID: ID(i), Timestamp: float64(i) * 0.01})
	}
	ack := DeriveAck(history, 0.11, 10)
	if ack.SequenceID != 10 {
		t.Fatalf("SequenceID = %d, want 10", ack.SequenceID)
	}
	for _, present := range []ID{10, 9, 8, 7, 6, 4, 3, 2, 1, 0} {
		if !Get(ack, present) {
			t.Fatalf("expected sequence %d acked", present)
		}
	}
	if Get(ack, 5) {
		t.Fatalf("sequence 5 should not be acked")
	}
}

func TestInvalidSentinelComparesSmaller(t *testing.T) {
	if !MoreRecent(0, Invalid) {
		t.Fatalf("sequence 0 should be more recent than Invalid")
	}
}
