package seq

import "github.com/deceiver-net/deceiver-net/internal/wire"

// Encode writes ack exactly as net.cpp's msgs_write header: the sequence
// id ranged over [0, Count-1], then the 64-bit previous_sequences bitmap.
func (a Ack) Encode(w *wire.Writer) {
	w.WriteInt(int64(a.SequenceID), 0, Count-1)
	w.WriteBits64(a.PreviousSequences, 64)
}

// DecodeAck is Encode's counterpart.
func DecodeAck(r *wire.Reader) (Ack, error) {
	var a Ack
	v, err := r.ReadInt(0, Count-1)
	if err != nil {
		return a, err
	}
	a.SequenceID = ID(v)
	a.PreviousSequences, err = r.ReadBits64(64)
	if err != nil {
		return a, err
	}
	return a, nil
}
