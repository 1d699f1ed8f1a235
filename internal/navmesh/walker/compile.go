package walker

import (
	"math"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// Compile runs the full per-tile pipeline over mesh's bounds: rasterize
// walkable triangles by slope, filter overhangs/ledges/low-height spans,
// compact, erode by agent radius, build a distance field and regions,
// then bucket the result into height layers and compress each
// (spec.md §4.8, grounded on import.cpp's build_nav_mesh/
// rasterize_tile_layers tile loop).
func Compile(mesh Mesh, cfg Config) (*TileCache, error) {
	bounds := mesh.Bounds()
	tileWorldSize := float32(cfg.TileSize) * cfg.CellSize
	tilesX := int(math.Ceil(float64((bounds.Max.X - bounds.Min.X) / tileWorldSize)))
	tilesZ := int(math.Ceil(float64((bounds.Max.Z - bounds.Min.Z) / tileWorldSize)))
	if tilesX < 1 {
		tilesX = 1
	}
	if tilesZ < 1 {
		tilesZ = 1
	}

	walkableHeight := int32(math.Ceil(float64(cfg.AgentHeight / cfg.CellSize)))
	walkableClimb := int32(math.Floor(float64(cfg.AgentMaxClimb / cfg.CellSize)))
	walkableRadius := int32(math.Ceil(float64(cfg.AgentRadius / cfg.CellSize)))
	minArea := int32(cfg.MinRegionArea * cfg.MinRegionArea)
	mergeArea := int32(cfg.MergeRegionArea * cfg.MergeRegionArea)

	out := &TileCache{Bounds: bounds}

	for ty := 0; ty < tilesZ; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			tileBMin := vmath.Vec3{
				X: bounds.Min.X + float32(tx)*tileWorldSize,
				Y: bounds.Min.Y,
				Z: bounds.Min.Z + float32(ty)*tileWorldSize,
			}
			hf := newHeightfield(cfg.TileSize, cfg.TileSize, cfg.CellSize, tileBMin)
			rasterizeWalkableTriangles(hf, mesh, cfg)
			filterLowHangingObstacles(hf, walkableClimb)
			filterLedgeSpans(hf, walkableHeight, walkableClimb)
			filterLowHeightSpans(hf, walkableHeight)

			chf := buildCompactHeightfield(hf)
			erodeWalkableArea(chf, walkableRadius)
			buildDistanceField(chf)
			buildRegions(chf, minArea, mergeArea)

			tiles := buildTileLayers(chf, hf, int32(tx), int32(ty), walkableClimb, cfg.MaxLayers)
			out.Tiles = append(out.Tiles, tiles...)
		}
	}
	return out, nil
}
