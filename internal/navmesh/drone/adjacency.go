package drone

import (
	"math/rand"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// candidate is a provisional adjacency edge awaiting the post-pass
// raycast rejection test (spec.md §4.9 step 3's "candidates are
// shuffled and raycast-tested").
type candidate struct {
	from, to int32
	crawl    bool
}

// BuildAdjacency runs the shoot-edge and crawl-edge passes over every
// sample, testing candidates only against samples within
// neighborChunkRadius() chunks (spec.md §4.9 step 3), then truncates any
// neighbor list past MaxNeighbors, counting the overflow.
func BuildAdjacency(g *Graph, accessible, inaccessible Mesh, rng *rand.Rand) (overflowCount int) {
	radius := neighborChunkRadius()
	var candidates []candidate

	for i := range g.Samples {
		p := g.Samples[i]
		for dz := -radius; dz <= radius; dz++ {
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					coord := ChunkCoord{X: p.Chunk.X + dx, Y: p.Chunk.Y + dy, Z: p.Chunk.Z + dz}
					chunk, ok := g.Chunks[coord]
					if !ok {
						continue
					}
					for _, j := range chunk.SampleIndex {
						if j == int32(i) {
							continue
						}
						q := g.Samples[j]
						if c, ok := shootCandidate(int32(i), p, q, int32(j)); ok {
							candidates = append(candidates, c)
						}
						if c, ok := crawlCandidate(int32(i), p, q, int32(j), accessible, inaccessible); ok {
							candidates = append(candidates, c)
						}
					}
				}
			}
		}
	}

	if rng != nil {
		rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	}

	for _, c := range candidates {
		if c.crawl {
			g.Samples[c.from].Neighbors = append(g.Samples[c.from].Neighbors, Neighbor{Index: c.to, Crawl: true})
			continue
		}
		if !shootSurvivesEscapeCheck(g, c, accessible, inaccessible) {
			continue
		}
		g.Samples[c.from].Neighbors = append(g.Samples[c.from].Neighbors, Neighbor{Index: c.to, Crawl: false})
	}

	for i := range g.Samples {
		if len(g.Samples[i].Neighbors) > MaxNeighbors {
			overflowCount += len(g.Samples[i].Neighbors) - MaxNeighbors
			g.Samples[i].Neighbors = g.Samples[i].Neighbors[:MaxNeighbors]
		}
	}
	return overflowCount
}

// shootCandidate tests the free-flight edge conditions spec.md §4.9 step
// 3 names: forward of the plane, within the shoot distance band, not too
// vertical, and the neighbor facing back.
func shootCandidate(from int32, p, q Sample, to int32) (candidate, bool) {
	delta := q.Position.Sub(p.Position)
	if p.Normal.Dot(delta) <= 0.07 {
		return candidate{}, false
	}
	distSq := delta.LengthSq()
	minDist := float32(DroneRadius * 2)
	maxDist := float32(DroneMaxDistance - DroneRadius)
	if distSq <= minDist*minDist || distSq >= maxDist*maxDist {
		return candidate{}, false
	}
	dir := delta.Normalized()
	absY := dir.Y
	if absY < 0 {
		absY = -absY
	}
	if absY >= DroneVerticalDotLimit {
		return candidate{}, false
	}
	if q.Normal.Dot(delta) >= 0 {
		return candidate{}, false // neighbor normal must face back at us
	}
	return candidate{from: from, to: to, crawl: false}, true
}

// shootSurvivesEscapeCheck is the post-shuffle raycast rejection test:
// drop an edge that would tunnel through the inaccessible mesh, or whose
// closest accessible-mesh hit doesn't match the destination surface
// closely enough (spec.md §4.9 step 3).
func shootSurvivesEscapeCheck(g *Graph, c candidate, accessible, inaccessible Mesh) bool {
	p := g.Samples[c.from].Position
	q := g.Samples[c.to].Position
	if Raycast(inaccessible, p, q).Hit {
		return false
	}
	hit := Raycast(accessible, p, q)
	if !hit.Hit {
		return true
	}
	qNormal := g.Samples[c.to].Normal
	if qNormal.Dot(hit.Normal) <= 0.8 {
		return false
	}
	return vmath.Distance(q, hit.Position) < DroneRadius
}

// crawlCandidate tests the three short-edge (surface-hugging) cases
// spec.md §4.9 step 3 names: same-plane, coplanar, and around-a-corner.
func crawlCandidate(from int32, p, q Sample, to int32, accessible, inaccessible Mesh) (candidate, bool) {
	delta := q.Position.Sub(p.Position)
	maxDist := float32(1.5 * GridSpacing)
	if delta.LengthSq() >= maxDist*maxDist {
		return candidate{}, false
	}

	unobstructed := func(a, b vmath.Vec3) bool {
		return !Raycast(inaccessible, a, b).Hit && !Raycast(accessible, a, b).Hit
	}

	// Same-plane / coplanar: near-identical normals (flat or a shared
	// infinite plane) with a clear line of sight.
	if p.Normal.Dot(q.Normal) > 0.99 && unobstructed(p.Position, q.Position) {
		return candidate{from: from, to: to, crawl: true}, true
	}

	// Around-a-corner: the two surfaces aren't too sharply folded, and a
	// path via the planes' intersection line is unobstructed leg by leg.
	if p.Normal.Dot(q.Normal) < -0.495 {
		return candidate{}, false
	}
	d := p.Normal.Cross(q.Normal)
	if d.LengthSq() < 1e-10 {
		return candidate{}, false
	}
	d = d.Normalized()

	linePoint, ok := planeIntersectionPoint(p.Normal, p.Position, q.Normal, q.Position, d)
	if !ok {
		return candidate{}, false
	}

	toLine := linePoint.Sub(p.Position)
	if toLine.Dot(delta) <= 0 {
		return candidate{}, false // intersection must be forward of p
	}
	if !unobstructed(p.Position, linePoint) || !unobstructed(linePoint, q.Position) {
		return candidate{}, false
	}
	return candidate{from: from, to: to, crawl: true}, true
}

// planeIntersectionPoint finds the point on the line of intersection of
// plane1 (n1·X = n1·p1) and plane2 (n2·X = n2·p2) closest to the line
// through p1 and p2 — the line-to-line closest point (v·d0 = 0, v·d1 =
// 0), not the foot of the perpendicular dropped from p1 (spec.md §4.9
// step 3, import.cpp:2916-2962).
//
// A third plane through the origin perpendicular to d first pins down
// some point on the intersection line; which point doesn't matter, since
// the line-to-line solve below is independent of where along the line
// that anchor sits.
func planeIntersectionPoint(n1, p1, n2, p2, d vmath.Vec3) (vmath.Vec3, bool) {
	a1 := n1.Dot(p1)
	a2 := n2.Dot(p2)

	m := [3][3]float32{
		{n1.X, n1.Y, n1.Z},
		{n2.X, n2.Y, n2.Z},
		{d.X, d.Y, d.Z},
	}
	rhs := [3]float32{a1, a2, 0}

	det := determinant3(m)
	if det > -1e-9 && det < 1e-9 {
		return vmath.Vec3{}, false
	}

	var x [3]float32
	for col := 0; col < 3; col++ {
		mc := m
		for row := 0; row < 3; row++ {
			mc[row][col] = rhs[row]
		}
		x[col] = determinant3(mc) / det
	}
	anchor := vmath.Vec3{X: x[0], Y: x[1], Z: x[2]}

	// Closest point on line (anchor + s*d) to line (p1 + u*e), Goldman's
	// two-line closest-point solve.
	e := p2.Sub(p1)
	if e.LengthSq() < 1e-10 {
		return vmath.Vec3{}, false
	}

	w0 := anchor.Sub(p1)
	a := d.Dot(d)
	b := d.Dot(e)
	c := e.Dot(e)
	dd := d.Dot(w0)
	ee := e.Dot(w0)
	denom := a*c - b*b
	if denom > -1e-9 && denom < 1e-9 {
		return vmath.Vec3{}, false // parallel: p1->p2 runs along the intersection line itself
	}
	s := (b*ee - c*dd) / denom
	return anchor.Add(d.Scale(s)), true
}

func determinant3(m [3][3]float32) float32 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
