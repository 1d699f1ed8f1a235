// Package levelsource reads the plain-JSON triangle soup a level's
// collision export hands to the navmesh compilers — the fixed
// interface spec.md §1 describes between the replication/navmesh
// tooling and the (out-of-scope) asset pipeline that actually converts
// scene geometry from the authoring tool's native format.
package levelsource

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deceiver-net/deceiver-net/internal/navmesh/drone"
	"github.com/deceiver-net/deceiver-net/internal/navmesh/walker"
	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// Mesh is one named triangle soup. Vertices already include every scene
// element's world transform baked in, the way import.cpp's load_mesh
// consumes Assimp's already-flattened mesh data rather than flattening
// a scene graph itself — so the level export format for this repo's
// purposes starts one step further along than Assimp's: already-merged
// world-space triangles split by classification (walkable,
// accessible-to-drone, inaccessible-to-drone), with no further mesh
// processing this repo's scope covers.
type Mesh struct {
	Vertices [][3]float32 `json:"vertices"`
	Indices  []int32      `json:"indices"`
}

func (m Mesh) toDrone() drone.Mesh   { return drone.Mesh{Vertices: toVec3(m.Vertices), Indices: m.Indices} }
func (m Mesh) toWalker() walker.Mesh { return walker.Mesh{Vertices: toVec3(m.Vertices), Indices: m.Indices} }

func toVec3(src [][3]float32) []vmath.Vec3 {
	out := make([]vmath.Vec3, len(src))
	for i, v := range src {
		out[i] = vmath.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return out
}

// Level is one level's navmesh-relevant geometry: the walkable surface
// soup the walker compiler rasterizes, and the drone compiler's
// accessible/inaccessible split (spec.md §4.9).
type Level struct {
	Walkable     Mesh `json:"walkable"`
	Accessible   Mesh `json:"accessible"`
	Inaccessible Mesh `json:"inaccessible"`
}

func (l *Level) WalkerMesh() walker.Mesh      { return l.Walkable.toWalker() }
func (l *Level) AccessibleMesh() drone.Mesh   { return l.Accessible.toDrone() }
func (l *Level) InaccessibleMesh() drone.Mesh { return l.Inaccessible.toDrone() }

// Load reads and parses one level source file.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("levelsource: read %q: %w", path, err)
	}
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("levelsource: parse %q: %w", path, err)
	}
	return &lvl, nil
}
