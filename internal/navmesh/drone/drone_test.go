package drone

import (
	"math/rand"
	"testing"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// flatFloor builds a single large upward-facing quad, large enough to
// rasterize several interior grid samples with room for adjacency edges
// on every side.
func flatFloor(size float32) Mesh {
	return Mesh{
		Vertices: []vmath.Vec3{
			{X: -size, Y: 0, Z: -size},
			{X: -size, Y: 0, Z: size},
			{X: size, Y: 0, Z: size},
			{X: size, Y: 0, Z: -size},
		},
		Indices: []int32{0, 1, 2, 0, 2, 3},
	}
}

func emptyMesh() Mesh { return Mesh{} }

func TestRasterizeSurfaceSamplesCoversFlatFloor(t *testing.T) {
	mesh := flatFloor(5)
	g := RasterizeSurfaceSamples(mesh)
	if len(g.Samples) == 0 {
		t.Fatal("expected at least one rasterized sample")
	}
	for _, s := range g.Samples {
		if s.Position.Y != 0 {
			t.Fatalf("sample left the floor plane: %+v", s.Position)
		}
		if s.Normal.Y <= 0 {
			t.Fatalf("expected an upward-facing normal, got %+v", s.Normal)
		}
	}
}

func TestFilterSurfaceClearanceDropsSamplesUnderACeiling(t *testing.T) {
	floor := flatFloor(5)
	ceiling := Mesh{
		Vertices: []vmath.Vec3{
			{X: -5, Y: 0.1, Z: -5},
			{X: -5, Y: 0.1, Z: 5},
			{X: 5, Y: 0.1, Z: 5},
			{X: 5, Y: 0.1, Z: -5},
		},
		Indices: []int32{0, 1, 2, 0, 2, 3},
	}

	g := RasterizeSurfaceSamples(floor)
	before := len(g.Samples)
	FilterSurfaceClearance(g, floor, ceiling)
	if len(g.Samples) != 0 {
		t.Fatalf("expected every sample to be clipped by a 0.1m ceiling, %d of %d survived", len(g.Samples), before)
	}
}

func TestBuildAdjacencyConnectsNeighboringFloorSamples(t *testing.T) {
	mesh := flatFloor(5)
	g := RasterizeSurfaceSamples(mesh)
	FilterSurfaceClearance(g, mesh, emptyMesh())

	rng := rand.New(rand.NewSource(1))
	overflow := BuildAdjacency(g, mesh, emptyMesh(), rng)
	if overflow < 0 {
		t.Fatal("overflow count must not be negative")
	}

	connected := 0
	for _, s := range g.Samples {
		if len(s.Neighbors) > 0 {
			connected++
		}
	}
	if connected == 0 {
		t.Fatal("expected at least one sample to gain a crawl neighbor on a flat floor")
	}
}

func TestPruneOrphansRemovesIsolatedSamples(t *testing.T) {
	g := newGraph()
	a := g.addSample(vmath.Vec3{X: 0}, vmath.Vec3{Y: 1})
	b := g.addSample(vmath.Vec3{X: 1}, vmath.Vec3{Y: 1})
	g.addSample(vmath.Vec3{X: 100}, vmath.Vec3{Y: 1}) // orphan, no edges
	g.Samples[a].Neighbors = []Neighbor{{Index: b, Crawl: true}}
	g.Samples[b].Neighbors = []Neighbor{{Index: a, Crawl: true}}

	pruned := PruneOrphans(g)
	if pruned != 1 {
		t.Fatalf("expected 1 orphan pruned, got %d", pruned)
	}
	if len(g.Samples) != 2 {
		t.Fatalf("expected 2 surviving samples, got %d", len(g.Samples))
	}
	for _, s := range g.Samples {
		for _, n := range s.Neighbors {
			if int(n.Index) >= len(g.Samples) {
				t.Fatalf("neighbor index %d out of range after remap (len=%d)", n.Index, len(g.Samples))
			}
		}
	}
}

func TestBakeReverbProducesValidCellsInOpenSpace(t *testing.T) {
	bounds := vmath.AABB{Min: vmath.Vec3{X: -3, Y: -3, Z: -3}, Max: vmath.Vec3{X: 3, Y: 3, Z: 3}}
	grid := BakeReverb(emptyMesh(), emptyMesh(), bounds)
	if len(grid.Cells) == 0 {
		t.Fatal("expected a non-empty reverb grid")
	}
	for _, c := range grid.Cells {
		if !c.valid() {
			t.Fatal("expected every cell to be valid in open space with no geometry to hit")
		}
	}
}

func TestSmoothReverbFillsInvalidCellsFromValidNeighbors(t *testing.T) {
	bounds := vmath.AABB{Min: vmath.Vec3{}, Max: vmath.Vec3{X: ReverbChunkSize * 2, Y: 0, Z: 0}}
	grid := newReverbVoxelGrid(bounds)
	for i := range grid.Cells {
		grid.Cells[i] = invalidReverbCell()
	}
	grid.Cells[0] = ReverbCell{Bands: [ReverbBands]float32{1, 0, 0}, Outdoor: 1}

	SmoothReverb(grid)

	if grid.Size.X < 2 {
		t.Fatalf("expected at least 2 voxels along X, got %d", grid.Size.X)
	}
	if !grid.Cells[1].valid() {
		t.Fatal("expected the neighboring cell to pick up a weighted average from the valid cell")
	}
}

func TestIcosphereFindMatchesClosestVertex(t *testing.T) {
	ico := buildIcosphere()
	for _, v := range ico.vertices {
		if ico.find(v) != ico.find(v) {
			t.Fatal("find should be deterministic for a given direction")
		}
	}
	up := vmath.Vec3{Y: 1}
	idx := ico.find(up)
	best := ico.vertices[idx].Dot(up)
	for _, v := range ico.vertices {
		if v.Dot(up) > best+1e-6 {
			t.Fatalf("find returned a non-maximal vertex: best=%f found=%f", v.Dot(up), best)
		}
	}
}
