package navmesh

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/deceiver-net/deceiver-net/internal/navmesh/drone"
	"github.com/deceiver-net/deceiver-net/internal/navmesh/walker"
)

// BuildResult bundles both compilers' output plus the diagnostic
// counters spec.md §4.9 says surface as build warnings, not failures.
type BuildResult struct {
	Tiles             *walker.TileCache
	Graph             *drone.Graph
	Reverb            *drone.ReverbVoxelGrid
	NeighborOverflows int
	OrphansPruned     int
}

// Build runs the walker and drone compilers over one level's geometry
// and returns their combined output, ready for WriteFile. rngSeed seeds
// the drone compiler's adjacency-candidate shuffle (spec.md §4.9 step
// 3); the same seed always produces the same graph.
func Build(walkable walker.Mesh, accessible, inaccessible drone.Mesh, walkerCfg walker.Config, rngSeed int64) (*BuildResult, error) {
	tiles, err := walker.Compile(walkable, walkerCfg)
	if err != nil {
		return nil, fmt.Errorf("navmesh: walker compile: %w", err)
	}

	droneResult := drone.Compile(accessible, inaccessible, rand.New(rand.NewSource(rngSeed)))

	return &BuildResult{
		Tiles:             tiles,
		Graph:             droneResult.Graph,
		Reverb:            droneResult.Reverb,
		NeighborOverflows: droneResult.NeighborOverflows,
		OrphansPruned:     droneResult.OrphansPruned,
	}, nil
}

// WriteBuildResult writes r's three sections to w in spec.md §6's order.
func WriteBuildResult(w io.Writer, r *BuildResult) error {
	return WriteFile(w, r.Tiles, r.Graph, r.Reverb)
}
