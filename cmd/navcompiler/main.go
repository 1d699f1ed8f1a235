// Command navcompiler runs the walker and drone navmesh compilers
// standalone, without the rest of cmd/importer's asset-pipeline
// orchestration — for iterating on the compilers themselves. Grounded
// on cppla-moto's run.go: a thin flag-parsing wrapper around a single
// library call (there, controller.Listen; here, navmesh.Build).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/deceiver-net/deceiver-net/internal/levelsource"
	"github.com/deceiver-net/deceiver-net/internal/navmesh"
	"github.com/deceiver-net/deceiver-net/internal/navmesh/walker"
)

func main() {
	in := flag.String("in", "", "path to a level source JSON file")
	out := flag.String("out", "", "path to write the compiled navmesh file")
	seed := flag.Int64("seed", 1, "drone adjacency shuffle seed")
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "navcompiler: -in and -out are required")
		os.Exit(1)
	}

	if err := run(*in, *out, *seed); err != nil {
		fmt.Fprintln(os.Stderr, "navcompiler:", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, seed int64) error {
	lvl, err := levelsource.Load(inPath)
	if err != nil {
		return err
	}

	result, err := navmesh.Build(lvl.WalkerMesh(), lvl.AccessibleMesh(), lvl.InaccessibleMesh(), walker.DefaultConfig(), seed)
	if err != nil {
		return err
	}
	fmt.Printf("navcompiler: %d walker tiles, %d drone samples (%d orphans pruned, %d neighbor overflows), %d reverb cells\n",
		len(result.Tiles.Tiles), len(result.Graph.Samples), result.OrphansPruned, result.NeighborOverflows, len(result.Reverb.Cells))

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("navcompiler: create %q: %w", outPath, err)
	}
	defer f.Close()

	return navmesh.WriteBuildResult(f, result)
}
