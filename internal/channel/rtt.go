package channel

import "github.com/deceiver-net/deceiver-net/internal/seq"

// CalculateRTT updates rtt from the newest ack the remote side reported,
// smoothing it with a 95/5 exponential moving average rather than
// snapping straight to the new sample. Grounded on net.cpp's
// calculate_rtt.
func CalculateRTT(timestamp float64, ack seq.Ack, sendHistory *History, rtt *float64) {
	newRTT := -1.0
	if frame := sendHistory.BySequence(ack.SequenceID, timestamp); frame != nil {
		newRTT = timestamp - frame.Timestamp
	}
	if newRTT == -1.0 || *rtt == -1.0 {
		*rtt = newRTT
	} else {
		*rtt = (*rtt * 0.95) + (newRTT * 0.05)
	}
}
