package drone

import (
	"math"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// Mesh is a plain triangle soup. Whether it is accessible or
// inaccessible is decided by which argument a caller passes it as: the
// accessible mesh is the rasterization source, and both meshes are the
// raycast targets the clearance and adjacency passes test against
// (spec.md §4.9).
type Mesh struct {
	Vertices []vmath.Vec3
	Indices  []int32
}

func (m Mesh) TriangleCount() int { return len(m.Indices) / 3 }

func (m Mesh) Triangle(i int) (a, b, c vmath.Vec3) {
	base := i * 3
	return m.Vertices[m.Indices[base]], m.Vertices[m.Indices[base+1]], m.Vertices[m.Indices[base+2]]
}

func (m Mesh) Normal(i int) vmath.Vec3 {
	a, b, c := m.Triangle(i)
	return b.Sub(a).Cross(c.Sub(a)).Normalized()
}

// uvBasis builds the in-plane (u, v) axes for a triangle's normal,
// choosing canonical world axes when the normal is near-vertical and
// otherwise deriving u from n x Y with the sign flipped so u leans into
// +X/+Z and v into +Y, mirroring import.cpp's triangle-local raster
// basis construction (spec.md §4.9 step 1).
func uvBasis(n vmath.Vec3) (u, v vmath.Vec3) {
	const nearVerticalDot = 0.999
	up := vmath.Vec3{Y: 1}
	if n.Y > nearVerticalDot || n.Y < -nearVerticalDot {
		return vmath.Vec3{X: 1}, vmath.Vec3{Z: 1}
	}
	u = n.Cross(up).Normalized()
	if u.X < 0 || (u.X == 0 && u.Z < 0) {
		u = u.Scale(-1)
	}
	v = n.Cross(u).Normalized()
	if v.Y < 0 {
		v = v.Scale(-1)
	}
	return u, v
}

func toUV(p, origin, u, v vmath.Vec3) (float32, float32) {
	d := p.Sub(origin)
	return d.Dot(u), d.Dot(v)
}

// RasterizeSurfaceSamples walks every accessible triangle, rasterizes it
// on a GridSpacing grid in its local UV plane with a split-at-middle-
// vertex top/bottom-flat scan, and reprojects each emitted grid point to
// world space (spec.md §4.9 step 1).
func RasterizeSurfaceSamples(mesh Mesh) *Graph {
	g := newGraph()
	for i := 0; i < mesh.TriangleCount(); i++ {
		a, b, c := mesh.Triangle(i)
		n := mesh.Normal(i)
		if n.LengthSq() < 1e-12 {
			continue
		}
		u, v := uvBasis(n)
		origin := a

		ua, va := toUV(a, origin, u, v)
		ub, vb := toUV(b, origin, u, v)
		uc, vc := toUV(c, origin, u, v)

		rasterizeTriangleUV(ua, va, ub, vb, uc, vc, func(pu, pv float32) {
			world := origin.Add(u.Scale(pu)).Add(v.Scale(pv))
			g.addSample(world, n)
		})
	}
	g.Bounds = graphBounds(g)
	return g
}

func graphBounds(g *Graph) vmath.AABB {
	if len(g.Samples) == 0 {
		return vmath.AABB{}
	}
	box := vmath.AABB{Min: g.Samples[0].Position, Max: g.Samples[0].Position}
	for _, s := range g.Samples[1:] {
		box.Min = box.Min.Min(s.Position)
		box.Max = box.Max.Max(s.Position)
	}
	return box
}

// rasterizeTriangleUV splits the (u, v)-sorted triangle at its middle
// vertex into a top-flat and bottom-flat half, scanning each row of the
// GridSpacing grid and emitting every grid point whose (u, v) lies
// inside, following import.cpp's split-scanline rasterizer.
func rasterizeTriangleUV(u1, v1, u2, v2, u3, v3 float32, emit func(u, v float32)) {
	type pt struct{ u, v float32 }
	pts := []pt{{u1, v1}, {u2, v2}, {u3, v3}}
	// sort ascending by v
	if pts[0].v > pts[1].v {
		pts[0], pts[1] = pts[1], pts[0]
	}
	if pts[1].v > pts[2].v {
		pts[1], pts[2] = pts[2], pts[1]
	}
	if pts[0].v > pts[1].v {
		pts[0], pts[1] = pts[1], pts[0]
	}
	p1, p2, p3 := pts[0], pts[1], pts[2]

	scanRow := func(vRow, uLeft, uRight float32) {
		if uLeft > uRight {
			uLeft, uRight = uRight, uLeft
		}
		minU := int(math.Floor(float64(uLeft / GridSpacing)))
		maxU := int(math.Ceil(float64(uRight / GridSpacing)))
		for iu := minU; iu <= maxU; iu++ {
			pu := float32(iu) * GridSpacing
			if pu < uLeft-1e-5 || pu > uRight+1e-5 {
				continue
			}
			emit(pu, vRow)
		}
	}

	lerpU := func(a, b pt, v float32) float32 {
		if b.v == a.v {
			return a.u
		}
		t := (v - a.v) / (b.v - a.v)
		return a.u + (b.u-a.u)*t
	}

	minRow := int(math.Ceil(float64(p1.v / GridSpacing)))
	maxRow := int(math.Floor(float64(p3.v / GridSpacing)))
	for row := minRow; row <= maxRow; row++ {
		vRow := float32(row) * GridSpacing
		uOnLong := lerpU(p1, p3, vRow)
		var uOnShort float32
		if vRow <= p2.v {
			uOnShort = lerpU(p1, p2, vRow)
		} else {
			uOnShort = lerpU(p2, p3, vRow)
		}
		scanRow(vRow, uOnLong, uOnShort)
	}
}
