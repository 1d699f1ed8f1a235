package channel

import "github.com/deceiver-net/deceiver-net/internal/seq"

type resentEntry struct {
	id        seq.ID
	timestamp float64
}

// ResentTracker remembers which sequences were resent recently, so
// WriteFrames doesn't resend the same unacked frame every single tick —
// it waits out a cooldown first. Grounded on net.cpp's SequenceHistory /
// sequence_history_add / sequence_history_contains_newer_than.
type ResentTracker struct {
	entries  []resentEntry
	capacity int
}

func NewResentTracker(capacity int) *ResentTracker {
	return &ResentTracker{capacity: capacity}
}

// Add records sequence id as resent at timestamp, evicting the oldest
// entry first if the tracker is full.
func (t *ResentTracker) Add(id seq.ID, timestamp float64) {
	if len(t.entries) == t.capacity {
		t.entries = t.entries[:len(t.entries)-1]
	}
	t.entries = append([]resentEntry{{id, timestamp}}, t.entries...)
}

// ContainsNewerThan reports whether id was resent more recently than
// timestampCutoff.
func (t *ResentTracker) ContainsNewerThan(id seq.ID, timestampCutoff float64) bool {
	for _, e := range t.entries {
		if e.id == id && e.timestamp > timestampCutoff {
			return true
		}
	}
	return false
}
