package wire

import "github.com/deceiver-net/deceiver-net/internal/vmath"

// Resolution selects both the encoding width and the equality tolerance
// for a transform field (spec.md §3, §4.5, Glossary).
type Resolution int

const (
	Low Resolution = iota
	Medium
	High
)

// posRange is the declared quantization range for position axes; world
// space is assumed to fit within +/-2048 units, generous for level
// geometry of the scale the navmesh compiler handles.
const posRange = 2048

type resParams struct {
	posBits    int
	quatBits   int
	tolPos     float32
	tolRot     float32
}

var resTable = [3]resParams{
	Low:    {posBits: 8, quatBits: 6, tolPos: 0.008, tolRot: 0.002},
	Medium: {posBits: 16, quatBits: 10, tolPos: 0.002, tolRot: 0.001},
	High:   {posBits: 22, quatBits: 14, tolPos: 0.001, tolRot: 0.0001},
}

func (r Resolution) PosTolerance() float32 { return resTable[r].tolPos }
func (r Resolution) RotTolerance() float32 { return resTable[r].tolRot }

// WritePosition quantizes and writes a world-space position at the given
// resolution's bit width, one axis at a time over the declared range.
func (w *Writer) WritePosition(p vmath.Vec3, res Resolution) {
	bits := resTable[res].posBits
	w.WriteFloat(p.X, -posRange, posRange, bits)
	w.WriteFloat(p.Y, -posRange, posRange, bits)
	w.WriteFloat(p.Z, -posRange, posRange, bits)
}

func (r *Reader) ReadPosition(res Resolution) (vmath.Vec3, error) {
	bits := resTable[res].posBits
	x, err := r.ReadFloat(-posRange, posRange, bits)
	if err != nil {
		return vmath.Vec3{}, err
	}
	y, err := r.ReadFloat(-posRange, posRange, bits)
	if err != nil {
		return vmath.Vec3{}, err
	}
	z, err := r.ReadFloat(-posRange, posRange, bits)
	if err != nil {
		return vmath.Vec3{}, err
	}
	return vmath.Vec3{X: x, Y: y, Z: z}, nil
}

// WriteRotation writes q using the smallest-three encoding at the given
// resolution's bit width per component.
func (w *Writer) WriteRotation(q vmath.Quat, res Resolution) {
	bits := resTable[res].quatBits
	largest, _, rest := vmath.SmallestThreeEncode(q)
	w.WriteBits(uint32(largest), 2)
	for _, c := range rest {
		w.WriteNormalizedFloat(c, bits)
	}
}

func (r *Reader) ReadRotation(res Resolution) (vmath.Quat, error) {
	bits := resTable[res].quatBits
	largestU, err := r.ReadBits(2)
	if err != nil {
		return vmath.Quat{}, err
	}
	var rest [3]float32
	for i := range rest {
		c, err := r.ReadNormalizedFloat(bits)
		if err != nil {
			return vmath.Quat{}, err
		}
		rest[i] = c
	}
	return vmath.SmallestThreeDecode(int(largestU), rest), nil
}

// EntityRef is the wire form of an entity reference: a slot id plus the
// revision it was observed at. A reference whose revision mismatches the
// live slot resolves to null on the receiving side (spec.md §3, §9).
type EntityRef struct {
	ID       int32
	Revision uint16
	Null     bool
}

func (w *Writer) WriteEntityRef(ref EntityRef, maxEntities int) {
	w.WriteBool(!ref.Null)
	if ref.Null {
		return
	}
	w.WriteInt(int64(ref.ID), 0, int64(maxEntities-1))
	w.WriteBits(uint32(ref.Revision), 16)
}

func (r *Reader) ReadEntityRef(maxEntities int) (EntityRef, error) {
	present, err := r.ReadBool()
	if err != nil {
		return EntityRef{}, err
	}
	if !present {
		return EntityRef{Null: true}, nil
	}
	id, err := r.ReadInt(0, int64(maxEntities-1))
	if err != nil {
		return EntityRef{}, err
	}
	rev, err := r.ReadBits(16)
	if err != nil {
		return EntityRef{}, err
	}
	return EntityRef{ID: int32(id), Revision: uint16(rev)}, nil
}
