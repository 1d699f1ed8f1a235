package walker

// compactCell is one column's topmost walkable span reduced to its
// floor height plus a distance-to-border and region id, mirroring
// rcCompactHeightfield's per-cell summary — this compiler only tracks
// the single topmost walkable span per column rather than Recast's full
// multi-span compact representation, since spec.md's layering need is
// satisfied by bucketing height instead (see tilecache.go).
type compactCell struct {
	walkable bool
	floor    int32
	dist     int32
	region   int32
}

type compactHeightfield struct {
	width, height int
	cells         []compactCell
}

const noRegion = 0

func buildCompactHeightfield(hf *heightfield) *compactHeightfield {
	chf := &compactHeightfield{width: hf.width, height: hf.height, cells: make([]compactCell, hf.width*hf.height)}
	for idx, spans := range hf.cols {
		for i := len(spans) - 1; i >= 0; i-- {
			if spans[i].walkable {
				chf.cells[idx] = compactCell{walkable: true, floor: spans[i].ymax, region: noRegion}
				break
			}
		}
	}
	return chf
}

func (c *compactHeightfield) index(x, z int) int { return z*c.width + x }
func (c *compactHeightfield) inBounds(x, z int) bool {
	return x >= 0 && x < c.width && z >= 0 && z < c.height
}

var neighborOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// erodeWalkableArea strips walkable status from any cell within radius
// cells of a border/unwalkable cell, approximating rcErodeWalkableArea's
// agent-radius erosion via a simple multi-pass distance shrink.
func erodeWalkableArea(c *compactHeightfield, radius int32) {
	if radius <= 0 {
		return
	}
	dist := make([]int32, len(c.cells))
	for i, cell := range c.cells {
		if !cell.walkable {
			dist[i] = 0
			continue
		}
		dist[i] = 1 << 30
	}

	// Two-pass chamfer distance transform approximating the BFS-from-
	// border distance Recast computes exactly.
	for pass := 0; pass < 2; pass++ {
		for z := 0; z < c.height; z++ {
			for x := 0; x < c.width; x++ {
				idx := c.index(x, z)
				if !c.cells[idx].walkable {
					continue
				}
				best := dist[idx]
				for _, off := range neighborOffsets {
					nx, nz := x+off[0], z+off[1]
					if !c.inBounds(nx, nz) {
						best = 0
						continue
					}
					nd := dist[c.index(nx, nz)] + 1
					if nd < best {
						best = nd
					}
				}
				dist[idx] = best
			}
		}
		for z := c.height - 1; z >= 0; z-- {
			for x := c.width - 1; x >= 0; x-- {
				idx := c.index(x, z)
				if !c.cells[idx].walkable {
					continue
				}
				best := dist[idx]
				for _, off := range neighborOffsets {
					nx, nz := x-off[0], z-off[1]
					if !c.inBounds(nx, nz) {
						best = 0
						continue
					}
					nd := dist[c.index(nx, nz)] + 1
					if nd < best {
						best = nd
					}
				}
				dist[idx] = best
			}
		}
	}

	for i, cell := range c.cells {
		if cell.walkable && dist[i] < radius {
			c.cells[i].walkable = false
		}
	}
}

// buildDistanceField computes each walkable cell's distance to the
// nearest non-walkable cell or tile border into compactCell.dist — the
// counterpart of rcBuildDistanceField; buildRegions' flood fill does not
// read it. Reuses the same chamfer transform
// erodeWalkableArea uses internally, stored this time rather than
// thresholded away.
func buildDistanceField(c *compactHeightfield) {
	for pass := 0; pass < 2; pass++ {
		for z := 0; z < c.height; z++ {
			for x := 0; x < c.width; x++ {
				idx := c.index(x, z)
				if !c.cells[idx].walkable {
					c.cells[idx].dist = 0
					continue
				}
				best := int32(1 << 30)
				if !c.inBounds(x-1, z) || !c.inBounds(x, z-1) {
					best = 1
				}
				for _, off := range neighborOffsets {
					nx, nz := x+off[0], z+off[1]
					if !c.inBounds(nx, nz) {
						continue
					}
					nd := c.cells[c.index(nx, nz)].dist + 1
					if nd < best {
						best = nd
					}
				}
				c.cells[idx].dist = best
			}
		}
	}
}

// buildRegions flood-fills connected walkable cells into regions, then
// merges any region smaller than minArea into a different region it
// touches, and drops a small region that touches none and is also
// smaller than mergeArea back to unwalkable, after rcBuildRegions'
// minRegionArea/mergeRegionArea parameters.
func buildRegions(c *compactHeightfield, minArea, mergeArea int32) {
	next := int32(1)
	sizes := map[int32]int32{}

	for z := 0; z < c.height; z++ {
		for x := 0; x < c.width; x++ {
			idx := c.index(x, z)
			if !c.cells[idx].walkable || c.cells[idx].region != noRegion {
				continue
			}
			region := next
			next++
			count := floodFill(c, x, z, region)
			sizes[region] = count
		}
	}

	// Merge any region under minArea into the first walkable neighbor
	// region it touches; regions that stay isolated and under mergeArea
	// are dropped back to unwalkable, matching Recast's "small isolated
	// regions are removed" behavior.
	for region, size := range sizes {
		if size >= minArea {
			continue
		}
		merged := false
		for z := 0; z < c.height && !merged; z++ {
			for x := 0; x < c.width && !merged; x++ {
				idx := c.index(x, z)
				if c.cells[idx].region != region {
					continue
				}
				for _, off := range neighborOffsets {
					nx, nz := x+off[0], z+off[1]
					if !c.inBounds(nx, nz) {
						continue
					}
					nIdx := c.index(nx, nz)
					if c.cells[nIdx].region != noRegion && c.cells[nIdx].region != region {
						relabelRegion(c, region, c.cells[nIdx].region)
						merged = true
						break
					}
				}
			}
		}
		if !merged && size < mergeArea {
			for i, cell := range c.cells {
				if cell.region == region {
					c.cells[i].region = noRegion
					c.cells[i].walkable = false
				}
			}
		}
	}
}

func floodFill(c *compactHeightfield, startX, startZ int, region int32) int32 {
	stack := [][2]int{{startX, startZ}}
	count := int32(0)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, z := p[0], p[1]
		if !c.inBounds(x, z) {
			continue
		}
		idx := c.index(x, z)
		if !c.cells[idx].walkable || c.cells[idx].region != noRegion {
			continue
		}
		c.cells[idx].region = region
		count++
		for _, off := range neighborOffsets {
			stack = append(stack, [2]int{x + off[0], z + off[1]})
		}
	}
	return count
}

func relabelRegion(c *compactHeightfield, from, to int32) {
	for i, cell := range c.cells {
		if cell.region == from {
			c.cells[i].region = to
		}
	}
}
