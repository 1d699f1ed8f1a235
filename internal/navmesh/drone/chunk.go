// Package drone builds the 3D chunked traversal graph and ambient reverb
// voxel grid the drone AI and audio mixer both read at runtime (spec.md
// §4.9). Grounded on import.cpp's surface-sample rasterizer, edge/crawl
// adjacency builder, and audio_reverb_calc's icosphere raycast bake.
package drone

import "github.com/deceiver-net/deceiver-net/internal/vmath"

// ChunkSize is the edge length of one graph chunk (spec.md §4.9: "10 m
// cubes").
const ChunkSize = 10.0

// GridSpacing is the surface-sample raster pitch (spec.md §4.9).
const GridSpacing = 1.25

// MaxNeighbors bounds a sample's adjacency list (spec.md §4.9: "fixed
// capacity, with a per-neighbor crawl flag").
const MaxNeighbors = 8

const (
	DroneRadius           = 0.4
	DroneMaxDistance      = 6.0
	DroneVerticalDotLimit = 0.9
)

// Neighbor is one adjacency entry: the target sample's global index plus
// whether traversing it is a crawl (surface-hugging) move rather than a
// shoot (free-flight) move.
type Neighbor struct {
	Index int32
	Crawl bool
}

// Sample is one rasterized surface point: its world position, outward
// surface normal, and (built in a second pass) adjacency list.
type Sample struct {
	Position  vmath.Vec3
	Normal    vmath.Vec3
	Neighbors []Neighbor
	Chunk     ChunkCoord
}

// ChunkCoord indexes one 10 m cube in chunk space.
type ChunkCoord struct{ X, Y, Z int32 }

func chunkCoordOf(p vmath.Vec3) ChunkCoord {
	return ChunkCoord{
		X: int32(floorDiv(p.X, ChunkSize)),
		Y: int32(floorDiv(p.Y, ChunkSize)),
		Z: int32(floorDiv(p.Z, ChunkSize)),
	}
}

func floorDiv(v, size float32) int32 {
	q := v / size
	f := int32(q)
	if q < 0 && float32(f) != q {
		return f - 1
	}
	return f
}

// Chunk owns the dense sample/normal arrays for one 10 m cube, plus the
// global sample indices it contributes, mirroring the two-parallel-array
// layout spec.md §4.9 calls out explicitly.
type Chunk struct {
	Coord     ChunkCoord
	Positions []vmath.Vec3
	Normals   []vmath.Vec3
	// SampleIndex maps this chunk's local slot to the graph's global
	// Sample index, since adjacency is stored globally for cross-chunk
	// edges.
	SampleIndex []int32
}

// Graph is the compiled drone traversal graph: every sample across every
// chunk, plus a lookup from coordinate to chunk.
type Graph struct {
	Samples []Sample
	Chunks  map[ChunkCoord]*Chunk
	Bounds  vmath.AABB
}

func newGraph() *Graph {
	return &Graph{Chunks: make(map[ChunkCoord]*Chunk)}
}

func (g *Graph) chunkFor(coord ChunkCoord) *Chunk {
	c, ok := g.Chunks[coord]
	if !ok {
		c = &Chunk{Coord: coord}
		g.Chunks[coord] = c
	}
	return c
}

// addSample appends a sample to the graph and its owning chunk, returning
// the sample's global index.
func (g *Graph) addSample(pos, normal vmath.Vec3) int32 {
	idx := int32(len(g.Samples))
	g.Samples = append(g.Samples, Sample{Position: pos, Normal: normal, Chunk: chunkCoordOf(pos)})
	c := g.chunkFor(g.Samples[idx].Chunk)
	c.Positions = append(c.Positions, pos)
	c.Normals = append(c.Normals, normal)
	c.SampleIndex = append(c.SampleIndex, idx)
	return idx
}

// neighborChunkRadius is the chunk search radius around a sample that can
// possibly hold an adjacency candidate (spec.md §4.9: "ceil(DRONE_MAX_DISTANCE / chunk_size)").
func neighborChunkRadius() int32 {
	maxDist := float32(DroneMaxDistance)
	r := int32(maxDist / ChunkSize)
	if float32(r)*ChunkSize < DroneMaxDistance {
		r++
	}
	if r < 1 {
		r = 1
	}
	return r
}
