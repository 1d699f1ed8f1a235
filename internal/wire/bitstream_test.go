package wire

import (
	"math"
	"testing"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

func TestWriteReadInt(t *testing.T) {
	w := NewWriter()
	w.WriteInt(5, 0, 9)
	w.WriteInt(-3, -10, 10)
	w.WriteInt(511, 0, 511)

	r := NewReader(w.Bytes())
	v, err := r.ReadInt(0, 9)
	if err != nil || v != 5 {
		t.Fatalf("ReadInt #1 = %d, %v; want 5, nil", v, err)
	}
	v, err = r.ReadInt(-10, 10)
	if err != nil || v != -3 {
		t.Fatalf("ReadInt #2 = %d, %v; want -3, nil", v, err)
	}
	v, err = r.ReadInt(0, 511)
	if err != nil || v != 511 {
		t.Fatalf("ReadInt #3 = %d, %v; want 511, nil", v, err)
	}
}

func TestWriteReadFloatQuantized(t *testing.T) {
	w := NewWriter()
	w.WriteFloat(12.5, -100, 100, 16)
	r := NewReader(w.Bytes())
	got, err := r.ReadFloat(-100, 100, 16)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(got-12.5)) > 0.01 {
		t.Fatalf("got %v, want ~12.5", got)
	}
}

func TestWriteReadBytesAndBool(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteByte(0x42)
	w.WriteBool(false)
	w.WriteBytes([]byte{1, 2, 3})

	r := NewReader(w.Bytes())
	b, _ := r.ReadBool()
	if !b {
		t.Fatal("expected true")
	}
	by, _ := r.ReadByte()
	if by != 0x42 {
		t.Fatalf("got 0x%02X want 0x42", by)
	}
	b, _ = r.ReadBool()
	if b {
		t.Fatal("expected false")
	}
	bs, err := r.ReadBytes(3)
	if err != nil || bs[0] != 1 || bs[1] != 2 || bs[2] != 3 {
		t.Fatalf("got %v, %v", bs, err)
	}
}

func TestOverflowAbortsRead(t *testing.T) {
	w := NewWriter()
	w.WriteByte(1)
	r := NewReader(w.Bytes())
	if _, err := r.ReadBytes(5); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestVarAssetID(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 300, 1 << 20}
	for _, c := range cases {
		w := NewWriter()
		w.WriteVarAssetID(c)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarAssetID()
		if err != nil || got != c {
			t.Fatalf("varint(%d) roundtrip got %d, %v", c, got, err)
		}
	}
}

func TestQuaternionSmallestThreeRoundTrip(t *testing.T) {
	q := vmath.Quat{W: 0.5, X: 0.5, Y: 0.5, Z: 0.5}.Normalized()
	w := NewWriter()
	w.WriteRotation(q, High)
	r := NewReader(w.Bytes())
	got, err := r.ReadRotation(High)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(got.Dot(q))) < 0.999 {
		t.Fatalf("quaternion mismatch: got %+v want %+v", got, q)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	p := vmath.Vec3{X: 10.125, Y: -5.5, Z: 0.25}
	w := NewWriter()
	w.WritePosition(p, Medium)
	r := NewReader(w.Bytes())
	got, err := r.ReadPosition(Medium)
	if err != nil {
		t.Fatal(err)
	}
	// Medium quantizes each axis to 16 bits over +/-2048 (a step of
	// 4096/65535, about 0.0625), so each axis may be off by half a step.
	if vmath.Distance(got, p) > 0.06 {
		t.Fatalf("got %+v want %+v", got, p)
	}
}

func TestEntityRefRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteEntityRef(EntityRef{ID: 12, Revision: 7}, 256)
	w.WriteEntityRef(EntityRef{Null: true}, 256)

	r := NewReader(w.Bytes())
	ref, err := r.ReadEntityRef(256)
	if err != nil || ref.Null || ref.ID != 12 || ref.Revision != 7 {
		t.Fatalf("got %+v, %v", ref, err)
	}
	ref, err = r.ReadEntityRef(256)
	if err != nil || !ref.Null {
		t.Fatalf("expected null ref, got %+v, %v", ref, err)
	}
}

func TestFramingRoundTripAndChecksum(t *testing.T) {
	w := NewWriter()
	w.WriteByte(0xAB)
	w.WriteInt(42, 0, 100)
	w.WriteBytes([]byte("hello world"))

	packet, err := FinalizePacket(w)
	if err != nil {
		t.Fatal(err)
	}

	r, err := OpenPacket(packet)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := r.ReadByte()
	if b != 0xAB {
		t.Fatalf("got 0x%02X want 0xAB", b)
	}
	v, _ := r.ReadInt(0, 100)
	if v != 42 {
		t.Fatalf("got %d want 42", v)
	}

	// Corrupt a bit and confirm silent-drop behavior (checksum mismatch).
	corrupted := append([]byte(nil), packet...)
	corrupted[5] ^= 0x01
	if _, err := OpenPacket(corrupted); err != ErrChecksumMismatch {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}
