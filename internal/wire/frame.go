package wire

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// MaxPacketSize (net.cpp's NET_MAX_PACKET_SIZE) is the maximum payload
// one datagram carries
// (spec.md §4.1).
const MaxPacketSize = 2000

// FinalizePacket deflates the body bits and prefixes the compressed
// frame with a CRC32 computed over the compressed bytes, matching
// spec.md §4.2's "4-byte CRC32 placeholder ... on finalize, body is
// deflated; final CRC32 computed over the full compressed frame and
// written into slot 1." The teacher's BitStream has no compression
// stage; this is grounded directly on net.cpp's packet_finalize, which
// deflates through zlib and stores a CRC over the compressed bytes.
func FinalizePacket(w *Writer) ([]byte, error) {
	w.AlignToByte()
	body := w.Bytes()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("wire: deflate init: %w", err)
	}
	if _, err := fw.Write(body); err != nil {
		return nil, fmt.Errorf("wire: deflate write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("wire: deflate close: %w", err)
	}
	compressed := buf.Bytes()
	if len(compressed)+4 > MaxPacketSize {
		return nil, fmt.Errorf("wire: packet exceeds max size (%d > %d)", len(compressed)+4, MaxPacketSize)
	}

	out := make([]byte, 4+len(compressed))
	copy(out[4:], compressed)
	sum := crc32.ChecksumIEEE(out[4:])
	binary.BigEndian.PutUint32(out[0:4], sum)
	return out, nil
}

// OpenPacket verifies the CRC32 and inflates the body, returning a
// Reader positioned at the start of the decompressed bits. Any checksum
// mismatch is a malformed packet and must be dropped silently by the
// caller (spec.md §7).
func OpenPacket(data []byte) (*Reader, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("wire: %w: packet shorter than checksum", ErrOverflow)
	}
	want := binary.BigEndian.Uint32(data[0:4])
	got := crc32.ChecksumIEEE(data[4:])
	if want != got {
		return nil, ErrChecksumMismatch
	}
	fr := flate.NewReader(bytes.NewReader(data[4:]))
	defer fr.Close()
	body, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("wire: inflate: %w", err)
	}
	return NewReader(body), nil
}

// ErrChecksumMismatch is the malformed-packet failure mode spec.md §7
// names explicitly: the checksum disagrees and the whole packet is
// dropped silently by the session layer.
var ErrChecksumMismatch = fmt.Errorf("wire: checksum mismatch")
