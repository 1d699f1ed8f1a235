package drone

import (
	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// ReverbChunkSize is the edge length of one reverb voxel (spec.md §4.9:
// "3 m voxels", distinct from the 10 m traversal-graph chunk).
const ReverbChunkSize = 3.0

// ReverbBands is the number of distance-bucketed occlusion bands baked
// per voxel, matching import.cpp's MAX_REVERBS-sized blockage histogram
// (near/mid/far, at 6 m/12 m/beyond).
const ReverbBands = 3

var reverbBandDistances = [ReverbBands - 1]float32{6, 12}

// reverbBandOffset/reverbBandGain remap each smoothed band fraction into
// [0, 1] as `(value-offset)/gain`, clamped — import.cpp's hand-tuned
// constants for how much of the raw near/mid/far blockage fraction
// actually reads as audible reverb.
var reverbBandOffset = [ReverbBands]float32{0.25, 0.1, 0.15}
var reverbBandGain = [ReverbBands]float32{0.4, 0.4, 0.3}

const reverbOutdoorOffset = 0.1
const reverbOutdoorGain = 0.25

// ReverbCell is one baked voxel: per-band occlusion fractions plus an
// outdoor-ness fraction, or all -1 when the voxel has no valid sample
// (spec.md §4.9 step 5).
type ReverbCell struct {
	Bands   [ReverbBands]float32
	Outdoor float32
}

func invalidReverbCell() ReverbCell {
	c := ReverbCell{Outdoor: -1}
	for i := range c.Bands {
		c.Bands[i] = -1
	}
	return c
}

func (c ReverbCell) valid() bool { return c.Bands[0] >= 0 }

// ReverbCoord indexes one reverb voxel.
type ReverbCoord struct{ X, Y, Z int32 }

// ReverbVoxelGrid is the dense 3D grid of baked reverb cells covering a
// graph's bounds at ReverbChunkSize resolution.
type ReverbVoxelGrid struct {
	Min       vmath.Vec3
	Size      ReverbCoord
	Cells     []ReverbCell
	ChunkSize float32
}

func newReverbVoxelGrid(bounds vmath.AABB) *ReverbVoxelGrid {
	extent := bounds.Max.Sub(bounds.Min)
	size := ReverbCoord{
		X: dimCells(extent.X),
		Y: dimCells(extent.Y),
		Z: dimCells(extent.Z),
	}
	count := int(size.X) * int(size.Y) * int(size.Z)
	cells := make([]ReverbCell, count)
	return &ReverbVoxelGrid{Min: bounds.Min, Size: size, Cells: cells, ChunkSize: ReverbChunkSize}
}

func dimCells(extent float32) int32 {
	n := int32(extent/ReverbChunkSize) + 1
	if n < 1 {
		n = 1
	}
	return n
}

func (g *ReverbVoxelGrid) index(c ReverbCoord) int {
	return int(c.X) + int(c.Y)*int(g.Size.X) + int(c.Z)*int(g.Size.X)*int(g.Size.Y)
}

func (g *ReverbVoxelGrid) coordOf(i int) ReverbCoord {
	x := int32(i) % g.Size.X
	rem := int32(i) / g.Size.X
	y := rem % g.Size.Y
	z := rem / g.Size.Y
	return ReverbCoord{X: x, Y: y, Z: z}
}

func (g *ReverbVoxelGrid) positionOf(c ReverbCoord) vmath.Vec3 {
	return vmath.Vec3{
		X: g.Min.X + (float32(c.X)+0.5)*g.ChunkSize,
		Y: g.Min.Y + (float32(c.Y)+0.5)*g.ChunkSize,
		Z: g.Min.Z + (float32(c.Z)+0.5)*g.ChunkSize,
	}
}

// icosphereVertexCount is the fixed sample-direction count spec.md §4.9
// step 5 names: a once-subdivided icosahedron (12 original vertices +
// 30 edge midpoints).
const icosphereVertexCount = 42

type icosphere struct {
	vertices  [icosphereVertexCount]vmath.Vec3
	adjacency [icosphereVertexCount][]int32
}

// buildIcosphere constructs the 42-vertex sphere and its edge adjacency
// used as the fixed raycast direction set for the reverb bake, a direct
// port of import.cpp's icosphere_init (spec.md §4.9 step 5).
func buildIcosphere() *icosphere {
	const tao = 1.61803399
	base := [12]vmath.Vec3{
		{X: 1, Y: tao, Z: 0}, {X: -1, Y: tao, Z: 0},
		{X: 1, Y: -tao, Z: 0}, {X: -1, Y: -tao, Z: 0},
		{X: 0, Y: 1, Z: tao}, {X: 0, Y: -1, Z: tao},
		{X: 0, Y: 1, Z: -tao}, {X: 0, Y: -1, Z: -tao},
		{X: tao, Y: 0, Z: 1}, {X: -tao, Y: 0, Z: 1},
		{X: tao, Y: 0, Z: -1}, {X: -tao, Y: 0, Z: -1},
	}
	edges := [30][2]int32{
		{0, 1}, {1, 4}, {0, 4}, {1, 9}, {9, 4}, {9, 5}, {4, 5}, {9, 3}, {5, 3}, {2, 3},
		{3, 7}, {2, 7}, {2, 5}, {7, 10}, {10, 2}, {0, 8}, {8, 10}, {0, 10}, {4, 8}, {8, 2},
		{8, 5}, {0, 6}, {1, 6}, {11, 1}, {11, 6}, {9, 11}, {3, 11}, {6, 10}, {6, 7}, {11, 7},
	}
	faceEdges := [20][3]int32{
		{0, 1, 2}, {3, 4, 1}, {4, 5, 6}, {5, 7, 8}, {9, 10, 11}, {9, 12, 8}, {13, 14, 11}, {15, 16, 17},
		{2, 18, 15}, {19, 14, 16}, {18, 6, 20}, {20, 12, 19}, {0, 21, 22}, {23, 22, 24}, {7, 25, 26},
		{27, 13, 28}, {26, 29, 10}, {24, 28, 29}, {21, 17, 27}, {3, 23, 25},
	}

	ico := &icosphere{}
	for i, v := range base {
		ico.vertices[i] = v.Normalized()
	}
	subdivided := func(edge int32) int32 { return 12 + edge }
	for i, e := range edges {
		mid := ico.vertices[e[0]].Add(ico.vertices[e[1]]).Scale(0.5).Normalized()
		ico.vertices[subdivided(int32(i))] = mid
	}

	addEdge := func(a, b int32) {
		ico.adjacency[a] = append(ico.adjacency[a], b)
		ico.adjacency[b] = append(ico.adjacency[b], a)
	}
	for i, e := range edges {
		addEdge(e[0], subdivided(int32(i)))
		addEdge(e[1], subdivided(int32(i)))
	}
	for _, fe := range faceEdges {
		a, b, c := subdivided(fe[0]), subdivided(fe[1]), subdivided(fe[2])
		addEdge(a, b)
		addEdge(b, c)
		addEdge(a, c)
	}
	return ico
}

// find returns the icosphere vertex whose direction best matches vector,
// by hill-climbing the adjacency graph from vertex 0 (import.cpp's
// icosphere_find).
func (ico *icosphere) find(vector vmath.Vec3) int32 {
	index := int32(0)
	dot := ico.vertices[0].Dot(vector)
	for {
		bestMatch := true
		for _, n := range ico.adjacency[index] {
			d := ico.vertices[n].Dot(vector)
			if d > dot {
				dot = d
				index = n
				bestMatch = false
			}
		}
		if bestMatch {
			return index
		}
	}
}

// BakeReverb casts one ray per icosphere direction from the center of
// each voxel against both meshes, buckets the closest hit by distance
// band, and derives the outdoor fraction, following import.cpp's
// audio_reverb_calc (spec.md §4.9 step 5).
func BakeReverb(accessible, inaccessible Mesh, bounds vmath.AABB) *ReverbVoxelGrid {
	ico := buildIcosphere()
	grid := newReverbVoxelGrid(bounds)

	for i := range grid.Cells {
		pos := grid.positionOf(grid.coordOf(i))
		grid.Cells[i] = bakeCell(ico, accessible, inaccessible, pos)
	}
	return grid
}

func bakeCell(ico *icosphere, accessible, inaccessible Mesh, pos vmath.Vec3) ReverbCell {
	var hitPositions [icosphereVertexCount]vmath.Vec3
	var hitNormals [icosphereVertexCount]vmath.Vec3
	hitValid := false
	outdoorBlockage := 0

	for i, dir := range ico.vertices {
		far := pos.Add(dir.Scale(100.0))
		hit := Raycast(accessible, pos, far)
		hitInaccessible := Raycast(inaccessible, pos, far)
		if hitInaccessible.Hit && (!hit.Hit || hitInaccessible.Distance < hit.Distance) {
			hit = hitInaccessible
		}

		if hit.Hit {
			hitPositions[i] = hit.Position
			hitNormals[i] = hit.Normal
			outdoorBlockage++
		} else {
			hitPositions[i] = far
			hitNormals[i] = dir.Scale(-1)
		}
		if hitNormals[i].Dot(dir) < 0 {
			hitValid = true
		}
	}

	if !hitValid {
		return invalidReverbCell()
	}

	center := vmath.Vec3{}
	for i, dir := range ico.vertices {
		_ = dir
		center = center.Add(hitPositions[i]).Add(hitNormals[i].Scale(5.0))
	}
	center = center.Scale(1.0 / float32(icosphereVertexCount))
	center = pos.Lerp(center, 0.25)

	var cell ReverbCell
	blockage := [ReverbBands]int{}
	for i := range ico.vertices {
		distSq := vmath.Distance(hitPositions[i], center)
		distSq *= distSq
		band := ReverbBands - 1
		for b, threshold := range reverbBandDistances {
			if distSq < threshold*threshold {
				band = b
				break
			}
		}
		blockage[band]++
	}
	for i := range cell.Bands {
		cell.Bands[i] = float32(blockage[i]) / float32(icosphereVertexCount)
	}
	cell.Outdoor = 1.0 - float32(outdoorBlockage)/float32(icosphereVertexCount)
	return cell
}

// SmoothReverb runs one pass of the 6-neighbor (axis-adjacent voxel)
// weighted-average smoothing import.cpp's reverb_smooth performs, called
// twice by the compile pipeline for a two-pass smooth (spec.md §4.9 step
// 5). Invalid cells adopt a weighted average of their valid neighbors,
// or stay invalid if none are valid; valid cells blend a small amount of
// each neighbor into themselves.
func SmoothReverb(grid *ReverbVoxelGrid) {
	const subcellWeight = 0.125
	src := make([]ReverbCell, len(grid.Cells))
	copy(src, grid.Cells)

	addWeighted := func(dst *ReverbCell, src ReverbCell, weight float32) float32 {
		if !src.valid() {
			return 0
		}
		for i := range dst.Bands {
			dst.Bands[i] += src.Bands[i] * weight
		}
		dst.Outdoor += src.Outdoor * weight
		return weight
	}

	for i := range grid.Cells {
		coord := grid.coordOf(i)
		var cell ReverbCell
		var weight float32

		neighbor := func(dc ReverbCoord) (ReverbCoord, bool) {
			c := ReverbCoord{X: coord.X + dc.X, Y: coord.Y + dc.Y, Z: coord.Z + dc.Z}
			if c.X < 0 || c.X >= grid.Size.X || c.Y < 0 || c.Y >= grid.Size.Y || c.Z < 0 || c.Z >= grid.Size.Z {
				return c, false
			}
			return c, true
		}

		offsets := []ReverbCoord{
			{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
		}
		for _, off := range offsets {
			if c, ok := neighbor(off); ok {
				weight += addWeighted(&cell, src[grid.index(c)], subcellWeight)
			}
		}

		if !src[i].valid() {
			if weight > 0 {
				scale := 1.0 / weight
				for b := range cell.Bands {
					cell.Bands[b] *= scale
				}
				cell.Outdoor *= scale
			} else {
				cell = invalidReverbCell()
			}
		} else {
			addWeighted(&cell, src[i], 1.0-weight)
		}
		grid.Cells[i] = cell
	}
}

// RemapReverb linearly remaps each smoothed band and the outdoor scalar
// via their per-band offset and gain, clipping to [0, 1] — the final
// step of the bake, converting raw blockage fractions into values that
// read as reverb wet/dry mix (spec.md §4.9 step 5, import.cpp's "remap
// values" pass).
func RemapReverb(grid *ReverbVoxelGrid) {
	for i := range grid.Cells {
		cell := &grid.Cells[i]
		for b := range cell.Bands {
			cell.Bands[b] = clamp01((cell.Bands[b] - reverbBandOffset[b]) / reverbBandGain[b])
		}
		cell.Outdoor = clamp01((cell.Outdoor - reverbOutdoorOffset) / reverbOutdoorGain)
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
