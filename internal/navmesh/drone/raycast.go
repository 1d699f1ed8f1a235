package drone

import "github.com/deceiver-net/deceiver-net/internal/vmath"

// RaycastHit is one segment-vs-mesh intersection result.
type RaycastHit struct {
	Hit      bool
	Distance float32
	Position vmath.Vec3
	Normal   vmath.Vec3
}

// Raycast finds the closest intersection of segment start->end against
// every triangle in mesh, a direct port of import.cpp's
// drone_raycast_chunk's Möller-Trumbore test (spec.md §4.9 steps 2-3
// each call this against both the accessible and inaccessible meshes).
func Raycast(mesh Mesh, start, end vmath.Vec3) RaycastHit {
	dir := end.Sub(start)
	best := RaycastHit{Distance: 1.0}
	for i := 0; i < mesh.TriangleCount(); i++ {
		a, b, c := mesh.Triangle(i)
		ba := b.Sub(a)
		ca := c.Sub(a)

		h := dir.Cross(ca)
		z := ba.Dot(h)
		if z > -0.00001 && z < 0.00001 {
			continue
		}
		f := 1.0 / z
		s := start.Sub(a)
		u := f * s.Dot(h)
		if u < 0 || u > 1 {
			continue
		}
		q := s.Cross(ba)
		v := f * dir.Dot(q)
		if v < 0 || u+v > 1 {
			continue
		}
		dist := f * ca.Dot(q)
		if dist > 0 && dist < best.Distance {
			best.Distance = dist
			best.Position = start.Add(dir.Scale(dist))
			best.Normal = ba.Cross(ca).Normalized()
			best.Hit = true
		}
	}
	return best
}
