package drone

import "math/rand"

// CompileResult bundles the compiled traversal graph with the reverb
// voxel bake and the diagnostic counters the importer reports alongside
// them (spec.md §4.9: adjacency overflow and orphan counts surface as
// build warnings, not failures).
type CompileResult struct {
	Graph             *Graph
	Reverb            *ReverbVoxelGrid
	NeighborOverflows int
	OrphansPruned     int
}

// Compile runs the full drone-navmesh pipeline: rasterize surface
// samples from the accessible mesh, drop samples that clip the drone
// body envelope, build shoot/crawl adjacency, prune orphaned samples,
// then bake and smooth the ambient reverb grid (spec.md §4.9 steps
// 1-5).
func Compile(accessible, inaccessible Mesh, rng *rand.Rand) *CompileResult {
	graph := RasterizeSurfaceSamples(accessible)
	FilterSurfaceClearance(graph, accessible, inaccessible)
	overflow := BuildAdjacency(graph, accessible, inaccessible, rng)
	orphans := PruneOrphans(graph)

	reverb := BakeReverb(accessible, inaccessible, graph.Bounds)
	SmoothReverb(reverb)
	SmoothReverb(reverb)
	RemapReverb(reverb)

	return &CompileResult{
		Graph:             graph,
		Reverb:            reverb,
		NeighborOverflows: overflow,
		OrphansPruned:     orphans,
	}
}
