package navmesh

import (
	"bytes"
	"testing"

	"github.com/deceiver-net/deceiver-net/internal/navmesh/drone"
	"github.com/deceiver-net/deceiver-net/internal/navmesh/walker"
	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

func flatFloorWalker(size float32) walker.Mesh {
	return walker.Mesh{
		Vertices: []vmath.Vec3{
			{X: -size, Y: 0, Z: -size},
			{X: size, Y: 0, Z: -size},
			{X: size, Y: 0, Z: size},
			{X: -size, Y: 0, Z: size},
		},
		Indices: []int32{0, 2, 1, 0, 3, 2},
	}
}

func flatFloorDrone(size float32) drone.Mesh {
	return drone.Mesh{
		Vertices: []vmath.Vec3{
			{X: -size, Y: 0, Z: -size},
			{X: size, Y: 0, Z: -size},
			{X: size, Y: 0, Z: size},
			{X: -size, Y: 0, Z: size},
		},
		Indices: []int32{0, 2, 1, 0, 3, 2},
	}
}

func TestWriteFileThenReadFileRoundTripsAllThreeSections(t *testing.T) {
	cfg := walker.DefaultConfig()
	cfg.TileSize = 16
	tiles, err := walker.Compile(flatFloorWalker(8), cfg)
	if err != nil {
		t.Fatalf("walker.Compile: %v", err)
	}

	result := drone.Compile(flatFloorDrone(8), drone.Mesh{}, nil)

	var buf bytes.Buffer
	if err := WriteFile(&buf, tiles, result.Graph, result.Reverb); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	compiled, err := ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if len(compiled.Walker.Tiles) != len(tiles.Tiles) {
		t.Errorf("walker tile count: got %d, want %d", len(compiled.Walker.Tiles), len(tiles.Tiles))
	}
	if len(compiled.Graph.Samples) != len(result.Graph.Samples) {
		t.Fatalf("drone sample count: got %d, want %d", len(compiled.Graph.Samples), len(result.Graph.Samples))
	}
	for i, s := range result.Graph.Samples {
		got := compiled.Graph.Samples[i]
		if got.Position != s.Position || got.Normal != s.Normal {
			t.Errorf("sample %d: got %+v, want %+v", i, got, s)
		}
		if len(got.Neighbors) != len(s.Neighbors) {
			t.Errorf("sample %d neighbor count: got %d, want %d", i, len(got.Neighbors), len(s.Neighbors))
		}
	}
	if len(compiled.Reverb.Cells) != len(result.Reverb.Cells) {
		t.Errorf("reverb cell count: got %d, want %d", len(compiled.Reverb.Cells), len(result.Reverb.Cells))
	}
}
