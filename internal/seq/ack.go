package seq

// Ack is the receiver's claim about which frames it has seen: the most
// recent sequence id observed, plus a bitmap of the AckPreviousSequences
// ids immediately before it (spec.md §3, §4.3). Bit k set means
// "sequence_id - (k+1) has been received".
type Ack struct {
	SequenceID       ID
	PreviousSequences uint64
}

// Get reports whether sequence was acknowledged by ack.
func Get(ack Ack, sequence ID) bool {
	if MoreRecent(sequence, ack.SequenceID) {
		return false
	}
	if sequence == ack.SequenceID {
		return true
	}
	relative := RelativeTo(sequence, ack.SequenceID)
	if relative < -AckPreviousSequences {
		return false
	}
	return ack.PreviousSequences&(uint64(1)<<uint(-relative-1)) != 0
}

// ReceivedFrame describes one entry of an inbound message-frame history,
// the minimal shape DeriveAck needs to scan.
type ReceivedFrame struct {
	SequenceID ID
	Timestamp  float64
}

// DeriveAck scans up to PreviousSequencesSearch history entries, bounded
// by timeoutAge seconds, sets SequenceID to the most recent observed id
// and lights one bit per received older id within
// [-AckPreviousSequences, -1] (spec.md §4.3).
func DeriveAck(history []ReceivedFrame, now, timeoutAge float64) Ack {
	ack := Ack{SequenceID: Invalid}
	most := mostRecent(history, now, timeoutAge)
	if most == nil {
		return ack
	}
	ack.SequenceID = most.SequenceID

	scanned := 0
	for i := len(history) - 1; i >= 0 && scanned < PreviousSequencesSearch; i-- {
		scanned++
		f := history[i]
		if now-f.Timestamp > timeoutAge {
			continue
		}
		if f.SequenceID == ack.SequenceID {
			continue
		}
		relative := RelativeTo(f.SequenceID, ack.SequenceID)
		if relative < 0 && relative >= -AckPreviousSequences {
			ack.PreviousSequences |= uint64(1) << uint(-relative-1)
		}
	}
	return ack
}

func mostRecent(history []ReceivedFrame, now, timeoutAge float64) *ReceivedFrame {
	var result *ReceivedFrame
	for i := range history {
		f := &history[i]
		if now-f.Timestamp > timeoutAge {
			continue
		}
		if result == nil || MoreRecent(f.SequenceID, result.SequenceID) {
			result = f
		}
	}
	return result
}
