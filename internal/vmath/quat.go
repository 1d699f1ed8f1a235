package vmath

import "math"

// Quat is a unit quaternion (w, x, y, z) used for entity rotations.
type Quat struct {
	W, X, Y, Z float32
}

var QuatIdentity = Quat{W: 1}

func (a Quat) Dot(b Quat) float32 { return a.W*b.W + a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Quat) Negated() Quat { return Quat{-a.W, -a.X, -a.Y, -a.Z} }

func (a Quat) Normalized() Quat {
	l := float32(math.Sqrt(float64(a.Dot(a))))
	if l < 1e-8 {
		return QuatIdentity
	}
	return Quat{a.W / l, a.X / l, a.Y / l, a.Z / l}
}

// Nlerp is the normalized-lerp approximation to slerp used for
// per-tick rotation interpolation, taking the shortest arc.
func (a Quat) Nlerp(b Quat, t float32) Quat {
	if a.Dot(b) < 0 {
		b = b.Negated()
	}
	return Quat{
		a.W + (b.W-a.W)*t,
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}.Normalized()
}

// Mul composes two rotations, a then b (b applied in a's frame).
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
	}
}

func (a Quat) Conjugate() Quat { return Quat{a.W, -a.X, -a.Y, -a.Z} }

// Rotate applies the rotation to a vector.
func (a Quat) Rotate(v Vec3) Vec3 {
	qv := Quat{0, v.X, v.Y, v.Z}
	r := a.Mul(qv).Mul(a.Conjugate())
	return Vec3{r.X, r.Y, r.Z}
}

// SmallestThreeEncode drops the largest-magnitude component and returns
// its index plus the sign-corrected remaining three, for the bit-stream's
// smallest-three quaternion quantization.
func SmallestThreeEncode(q Quat) (largest int, sign float32, rest [3]float32) {
	q = q.Normalized()
	comps := [4]float32{q.W, q.X, q.Y, q.Z}
	largest = 0
	largestAbs := float32(math.Abs(float64(comps[0])))
	for i := 1; i < 4; i++ {
		a := float32(math.Abs(float64(comps[i])))
		if a > largestAbs {
			largestAbs = a
			largest = i
		}
	}
	sign = float32(1)
	if comps[largest] < 0 {
		sign = -1
	}
	j := 0
	for i := 0; i < 4; i++ {
		if i == largest {
			continue
		}
		rest[j] = comps[i] * sign
		j++
	}
	return largest, sign, rest
}

// SmallestThreeDecode reconstructs a unit quaternion from the dropped
// largest-component index and the three remaining (sign-corrected)
// components.
func SmallestThreeDecode(largest int, rest [3]float32) Quat {
	sumSq := rest[0]*rest[0] + rest[1]*rest[1] + rest[2]*rest[2]
	if sumSq > 1 {
		sumSq = 1
	}
	w := float32(math.Sqrt(float64(1 - sumSq)))
	comps := [4]float32{}
	j := 0
	for i := 0; i < 4; i++ {
		if i == largest {
			comps[i] = w
			continue
		}
		comps[i] = rest[j]
		j++
	}
	return Quat{comps[0], comps[1], comps[2], comps[3]}
}

// ClosestAngle returns the signed shortest-path delta from a to b, both
// in radians, used by minion rotation lerp.
func ClosestAngle(a, b float32) float32 {
	d := float32(math.Mod(float64(b-a), 2*math.Pi))
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// LerpAngle advances a toward b by the shortest path at parameter t.
func LerpAngle(a, b, t float32) float32 {
	return a + ClosestAngle(a, b)*t
}
