// Package walker compiles a triangle soup into a tiled walkable heightfield
// cache for ground AI, following the tile-by-tile pipeline import.cpp's
// rasterize_tile_layers/build_nav_mesh drive through Recast: rasterize
// walkable triangles, filter unwalkable spans, compact, erode by agent
// radius, build a distance field and regions, then bucket the result into
// height-layered, compressed tiles (spec.md §4.8).
package walker

import "github.com/deceiver-net/deceiver-net/internal/vmath"

// Mesh is a consolidated triangle soup: world-space vertices plus a
// triangle index list, already assembled by applying each scene
// element's world transform and materializing the implicit collision
// meshes (terminal, interactable, spawn) spec.md §4.8 names. Filtering
// by accessible/inaccessible/all is the caller's job before Compile runs.
type Mesh struct {
	Vertices []vmath.Vec3
	Indices  []int32 // triples
}

func (m Mesh) TriangleCount() int { return len(m.Indices) / 3 }

func (m Mesh) Triangle(i int) (a, b, c vmath.Vec3) {
	base := i * 3
	return m.Vertices[m.Indices[base]], m.Vertices[m.Indices[base+1]], m.Vertices[m.Indices[base+2]]
}

// Normal returns the triangle's unnormalized winding normal.
func (m Mesh) Normal(i int) vmath.Vec3 {
	a, b, c := m.Triangle(i)
	return b.Sub(a).Cross(c.Sub(a))
}

func (m Mesh) Bounds() vmath.AABB {
	if len(m.Vertices) == 0 {
		return vmath.AABB{}
	}
	return vmath.AABBFromPoints(m.Vertices...)
}

// Config mirrors build_nav_mesh's rcConfig derivation: lengths and areas
// are world-space meters and the slope limit is in degrees, which
// Compile converts to cell units internally (TileSize is already in
// cells and MaxLayers is a count), matching the teacher's "config holds human units,
// code holds grid units" split nowhere else evident but implied by
// import.cpp's cfg.cs/cfg.ch normalization at the top of build_nav_mesh.
type Config struct {
	CellSize          float32 // cfg.cs / cfg.ch: horizontal+vertical cell size
	AgentHeight       float32
	AgentRadius       float32
	AgentMaxClimb     float32
	WalkableSlopeDeg  float32
	MinRegionArea     float32 // nav_min_region_size, squared internally
	MergeRegionArea   float32 // nav_merged_region_size, squared internally
	TileSize          int     // in cells, nav_tile_size
	MaxLayers         int     // nav_max_layers
}

// DefaultConfig mirrors the constants import.cpp's build_nav_mesh uses
// for a human-scale bipedal agent.
func DefaultConfig() Config {
	return Config{
		CellSize:         0.25,
		AgentHeight:      2.0,
		AgentRadius:      0.4,
		AgentMaxClimb:    0.6,
		WalkableSlopeDeg: 45,
		MinRegionArea:    1.5,
		MergeRegionArea:  4.0,
		TileSize:         64,
		MaxLayers:        8,
	}
}
