package levelsource

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesAllThreeMeshes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.level.json")
	data := `{
		"walkable": {"vertices": [[-1,0,-1],[1,0,-1],[1,0,1]], "indices": [0,1,2]},
		"accessible": {"vertices": [[-1,0,-1],[1,0,-1],[1,0,1]], "indices": [0,1,2]},
		"inaccessible": {"vertices": [], "indices": []}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	lvl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(lvl.WalkerMesh().Vertices); got != 3 {
		t.Errorf("walkable vertices: got %d, want 3", got)
	}
	if got := len(lvl.AccessibleMesh().Indices); got != 3 {
		t.Errorf("accessible indices: got %d, want 3", got)
	}
	if got := len(lvl.InaccessibleMesh().Vertices); got != 0 {
		t.Errorf("inaccessible vertices: got %d, want 0", got)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
