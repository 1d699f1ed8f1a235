package walker

import (
	"math"
	"sort"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// span is one walkable or solid vertical interval within a grid column,
// stored in cell-unit heights (rcSpan's floor/ceiling in cell units).
type span struct {
	ymin, ymax int32
	walkable   bool
}

// heightfield is one tile's rasterized grid: width*height columns, each
// holding its spans sorted bottom-up, mirroring rcHeightfield's
// per-column linked span lists.
type heightfield struct {
	width, height int
	cellSize      float32
	bmin          vmath.Vec3
	cols          [][]span // len == width*height
}

func newHeightfield(width, height int, cellSize float32, bmin vmath.Vec3) *heightfield {
	return &heightfield{width: width, height: height, cellSize: cellSize, bmin: bmin, cols: make([][]span, width*height)}
}

func (h *heightfield) index(x, z int) int { return z*h.width + x }

func (h *heightfield) inBounds(x, z int) bool {
	return x >= 0 && x < h.width && z >= 0 && z < h.height
}

// addSpan merges ymin..ymax into column (x,z), combining with any
// existing span whose gap is within walkableClimb cells — rcAddSpan's
// merge rule.
func (h *heightfield) addSpan(x, z int, ymin, ymax int32, walkable bool, walkableClimb int32) {
	if !h.inBounds(x, z) {
		return
	}
	idx := h.index(x, z)
	spans := h.cols[idx]

	for i, s := range spans {
		if ymin > s.ymax+walkableClimb || ymax < s.ymin-walkableClimb {
			continue
		}
		merged := span{
			ymin:     min32(ymin, s.ymin),
			ymax:     max32(ymax, s.ymax),
			walkable: walkable || s.walkable,
		}
		spans[i] = merged
		h.cols[idx] = spans
		return
	}

	spans = append(spans, span{ymin: ymin, ymax: ymax, walkable: walkable})
	sort.Slice(spans, func(i, j int) bool { return spans[i].ymin < spans[j].ymin })
	h.cols[idx] = spans
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// rasterizeWalkableTriangles marks triangles walkable by slope and
// stamps every grid cell their footprint touches with a span spanning
// the triangle's local height, mirroring rcMarkWalkableTriangles +
// rcRasterizeTriangles. This is a cell-center-sampling rasterizer rather
// than Recast's exact polygon-clip rasterizer — adequate for the
// grid resolutions this compiler targets.
func rasterizeWalkableTriangles(hf *heightfield, mesh Mesh, cfg Config) {
	slopeCos := float32(math.Cos(float64(cfg.WalkableSlopeDeg) * math.Pi / 180))
	climbCells := int32(math.Floor(float64(cfg.AgentMaxClimb / cfg.CellSize)))

	for i := 0; i < mesh.TriangleCount(); i++ {
		a, b, c := mesh.Triangle(i)
		n := mesh.Normal(i).Normalized()
		walkable := n.Y >= slopeCos

		box := vmath.AABBFromPoints(a, b, c)
		minX := int((box.Min.X - hf.bmin.X) / hf.cellSize)
		maxX := int((box.Max.X - hf.bmin.X) / hf.cellSize)
		minZ := int((box.Min.Z - hf.bmin.Z) / hf.cellSize)
		maxZ := int((box.Max.Z - hf.bmin.Z) / hf.cellSize)

		ymin := int32((box.Min.Y - hf.bmin.Y) / hf.cellSize)
		ymax := int32((box.Max.Y - hf.bmin.Y) / hf.cellSize)

		for z := minZ; z <= maxZ; z++ {
			for x := minX; x <= maxX; x++ {
				if !hf.inBounds(x, z) {
					continue
				}
				cx := hf.bmin.X + (float32(x)+0.5)*hf.cellSize
				cz := hf.bmin.Z + (float32(z)+0.5)*hf.cellSize
				if !pointInTriangleXZ(cx, cz, a, b, c) {
					continue
				}
				hf.addSpan(x, z, ymin, ymax, walkable, climbCells)
			}
		}
	}
}

func pointInTriangleXZ(px, pz float32, a, b, c vmath.Vec3) bool {
	sign := func(x1, z1, x2, z2, x3, z3 float32) float32 {
		return (x1-x3)*(z2-z3) - (x2-x3)*(z1-z3)
	}
	d1 := sign(px, pz, a.X, a.Z, b.X, b.Z)
	d2 := sign(px, pz, b.X, b.Z, c.X, c.Z)
	d3 := sign(px, pz, c.X, c.Z, a.X, a.Z)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// filterLowHangingObstacles marks a non-walkable span walkable when it
// sits directly atop a walkable one with a gap of at most walkableClimb
// cells, so a low obstacle counts as a step rather than an obstruction —
// rcFilterLowHangingWalkableObstacles.
func filterLowHangingObstacles(hf *heightfield, walkableClimb int32) {
	for idx := range hf.cols {
		spans := hf.cols[idx]
		for i := 1; i < len(spans); i++ {
			if !spans[i].walkable && spans[i-1].walkable && spans[i].ymin-spans[i-1].ymax <= walkableClimb {
				spans[i].walkable = true
			}
		}
	}
}

// filterLedgeSpans marks a walkable span a ledge (unwalkable) when the
// floor heights of the nearest spans in its four neighboring columns
// spread over more than walkableClimb cells; an out-of-bounds or empty
// neighboring column counts as a floor walkableClimb+1 cells below this
// span — after rcFilterLedgeSpans.
func filterLedgeSpans(hf *heightfield, walkableHeight, walkableClimb int32) {
	dx := []int{-1, 1, 0, 0}
	dz := []int{0, 0, -1, 1}
	next := make([][]span, len(hf.cols))
	for idx, spans := range hf.cols {
		cp := make([]span, len(spans))
		copy(cp, spans)
		next[idx] = cp
	}

	for z := 0; z < hf.height; z++ {
		for x := 0; x < hf.width; x++ {
			spans := hf.cols[hf.index(x, z)]
			for si, s := range spans {
				if !s.walkable {
					continue
				}
				minNeighbor := int32(1 << 30)
				maxNeighbor := int32(-(1 << 30))
				for d := 0; d < 4; d++ {
					nx, nz := x+dx[d], z+dz[d]
					if !hf.inBounds(nx, nz) {
						minNeighbor = s.ymax - walkableClimb - 1
						continue
					}
					best := nearestSpan(hf.cols[hf.index(nx, nz)], s.ymax, walkableHeight)
					if best == nil {
						minNeighbor = s.ymax - walkableClimb - 1
						continue
					}
					diff := best.ymax - s.ymax
					if diff < 0 {
						diff = -diff
					}
					if best.ymax < minNeighbor {
						minNeighbor = best.ymax
					}
					if best.ymax > maxNeighbor {
						maxNeighbor = best.ymax
					}
				}
				if maxNeighbor-minNeighbor > walkableClimb {
					next[hf.index(x, z)][si].walkable = false
				}
			}
		}
	}
	hf.cols = next
}

func nearestSpan(spans []span, ymax, walkableHeight int32) *span {
	var best *span
	bestDiff := int32(1 << 30)
	for i := range spans {
		d := spans[i].ymax - ymax
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			bestDiff = d
			best = &spans[i]
		}
	}
	return best
}

// filterLowHeightSpans drops walkable status from any span whose open
// headroom to the next span above is less than walkableHeight cells —
// rcFilterWalkableLowHeightSpans.
func filterLowHeightSpans(hf *heightfield, walkableHeight int32) {
	for idx, spans := range hf.cols {
		for i, s := range spans {
			if !s.walkable {
				continue
			}
			if i+1 < len(spans) && spans[i+1].ymin-s.ymax < walkableHeight {
				hf.cols[idx][i].walkable = false
			}
		}
	}
}
