package walker

import (
	"testing"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

func flatGround(size float32) Mesh {
	return Mesh{
		Vertices: []vmath.Vec3{
			{X: -size, Y: 0, Z: -size},
			{X: size, Y: 0, Z: -size},
			{X: size, Y: 0, Z: size},
			{X: -size, Y: 0, Z: size},
		},
		// Wound so the cross product faces +Y (up): Recast's walkable
		// slope test only accepts upward-facing triangles.
		Indices: []int32{0, 2, 1, 0, 3, 2},
	}
}

func steepWall(size float32) Mesh {
	return Mesh{
		Vertices: []vmath.Vec3{
			{X: -size, Y: 0, Z: 0},
			{X: size, Y: 0, Z: 0},
			{X: size, Y: size * 2, Z: 0},
			{X: -size, Y: size * 2, Z: 0},
		},
		Indices: []int32{0, 1, 2, 0, 2, 3},
	}
}

func TestCompileFlatGroundProducesWalkableTile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TileSize = 16
	cache, err := Compile(flatGround(8), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(cache.Tiles) == 0 {
		t.Fatal("expected at least one tile for flat walkable ground")
	}
	for _, tile := range cache.Tiles {
		areas, _, err := decompressLayer(tile.Payload, int(tile.Header.Width*tile.Header.Height))
		if err != nil {
			t.Fatal(err)
		}
		walkableCount := 0
		for _, a := range areas {
			if a != 0 {
				walkableCount++
			}
		}
		if walkableCount == 0 {
			t.Fatal("expected some walkable cells on flat ground")
		}
	}
}

func TestCompileSteepWallProducesNoWalkableTiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TileSize = 16
	cache, err := Compile(steepWall(4), cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, tile := range cache.Tiles {
		areas, _, err := decompressLayer(tile.Payload, int(tile.Header.Width*tile.Header.Height))
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range areas {
			if a != 0 {
				t.Fatal("a vertical wall should never rasterize as walkable")
			}
		}
	}
}

func TestPointInTriangleXZ(t *testing.T) {
	a := vmath.Vec3{X: 0, Z: 0}
	b := vmath.Vec3{X: 2, Z: 0}
	c := vmath.Vec3{X: 0, Z: 2}
	if !pointInTriangleXZ(0.5, 0.5, a, b, c) {
		t.Fatal("expected point inside triangle")
	}
	if pointInTriangleXZ(5, 5, a, b, c) {
		t.Fatal("expected point outside triangle")
	}
}
