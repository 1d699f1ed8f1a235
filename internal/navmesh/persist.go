// Package navmesh assembles the walker-navmesh, drone-navmesh, and
// reverb-voxel compiler outputs into the single persistent file the
// runtime loads, in the section order spec.md §6 names: walker header
// and per-cell layers, drone header and the flattened sample/adjacency
// arrays, then the reverb voxel grid. Sections are written as raw
// fixed-width little-endian fields with no checksum or compression of
// their own; walker tile payloads are copied through exactly as the
// walker compiler produced them.
package navmesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/deceiver-net/deceiver-net/internal/navmesh/drone"
	"github.com/deceiver-net/deceiver-net/internal/navmesh/walker"
	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

var byteOrder = binary.LittleEndian

// WriteFile serializes the compiled walker navmesh, drone traversal
// graph, and reverb voxel grid in spec.md §6's declared section order.
func WriteFile(w io.Writer, tiles *walker.TileCache, graph *drone.Graph, reverb *drone.ReverbVoxelGrid) error {
	bw := bufio.NewWriter(w)
	if err := writeWalkerSection(bw, tiles); err != nil {
		return fmt.Errorf("navmesh: write walker section: %w", err)
	}
	if err := writeDroneSection(bw, graph); err != nil {
		return fmt.Errorf("navmesh: write drone section: %w", err)
	}
	if err := writeReverbSection(bw, reverb); err != nil {
		return fmt.Errorf("navmesh: write reverb section: %w", err)
	}
	return bw.Flush()
}

func writeVec3(w io.Writer, v vmath.Vec3) error {
	var buf [12]byte
	byteOrder.PutUint32(buf[0:4], math.Float32bits(v.X))
	byteOrder.PutUint32(buf[4:8], math.Float32bits(v.Y))
	byteOrder.PutUint32(buf[8:12], math.Float32bits(v.Z))
	_, err := w.Write(buf[:])
	return err
}

func readVec3(r io.Reader) (vmath.Vec3, error) {
	var buf [12]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return vmath.Vec3{}, err
	}
	return vmath.Vec3{
		X: math.Float32frombits(byteOrder.Uint32(buf[0:4])),
		Y: math.Float32frombits(byteOrder.Uint32(buf[4:8])),
		Z: math.Float32frombits(byteOrder.Uint32(buf[8:12])),
	}, nil
}

func writeI32(w io.Writer, v int32) error {
	var buf [4]byte
	byteOrder.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func readI32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(byteOrder.Uint32(buf[:])), nil
}

func writeF32(w io.Writer, v float32) error {
	var buf [4]byte
	byteOrder.PutUint32(buf[:], math.Float32bits(v))
	_, err := w.Write(buf[:])
	return err
}

func readF32(r io.Reader) (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(byteOrder.Uint32(buf[:])), nil
}

// writeWalkerSection groups TileCache.Tiles (which are flat, keyed loosely
// by (tx, ty, layer)) back into per-(tx, ty) cells, since compile.go
// always appends a tile's layers contiguously.
func writeWalkerSection(w io.Writer, tiles *walker.TileCache) error {
	if err := writeVec3(w, tiles.Bounds.Min); err != nil {
		return err
	}
	extent := tiles.Bounds.Max.Sub(tiles.Bounds.Min)
	if err := writeF32(w, extent.X); err != nil {
		return err
	}
	if err := writeF32(w, extent.Z); err != nil {
		return err
	}

	i := 0
	cellCount := int32(0)
	for i < len(tiles.Tiles) {
		j := i + 1
		for j < len(tiles.Tiles) && tiles.Tiles[j].Header.TX == tiles.Tiles[i].Header.TX && tiles.Tiles[j].Header.TY == tiles.Tiles[i].Header.TY {
			j++
		}
		cellCount++
		i = j
	}
	if err := writeI32(w, cellCount); err != nil {
		return err
	}

	i = 0
	for i < len(tiles.Tiles) {
		j := i + 1
		for j < len(tiles.Tiles) && tiles.Tiles[j].Header.TX == tiles.Tiles[i].Header.TX && tiles.Tiles[j].Header.TY == tiles.Tiles[i].Header.TY {
			j++
		}
		layers := tiles.Tiles[i:j]
		if err := writeI32(w, int32(len(layers))); err != nil {
			return err
		}
		for _, t := range layers {
			if err := writeTileLayer(w, t); err != nil {
				return err
			}
		}
		i = j
	}
	return nil
}

func writeTileLayer(w io.Writer, t walker.Tile) error {
	for _, v := range []int32{t.Header.TX, t.Header.TY, t.Header.Layer, t.Header.Width, t.Header.Height, t.Header.HMin, t.Header.HMax} {
		if err := writeI32(w, v); err != nil {
			return err
		}
	}
	if err := writeVec3(w, t.Header.BMin); err != nil {
		return err
	}
	if err := writeVec3(w, t.Header.BMax); err != nil {
		return err
	}
	if err := writeI32(w, int32(len(t.Payload))); err != nil {
		return err
	}
	_, err := w.Write(t.Payload)
	return err
}

// writeDroneSection persists the whole sample array once (positions,
// normals, global adjacency); no per-chunk membership is written, and
// adjacency is not stored per-chunk-local Recast-style: since
// internal/navmesh/drone.Graph already stores adjacency as global
// sample indices, duplicating a local-index remap here would only
// reintroduce the same remap the runtime loader would have to reverse.
func writeDroneSection(w io.Writer, g *drone.Graph) error {
	if err := writeF32(w, drone.ChunkSize); err != nil {
		return err
	}
	if err := writeVec3(w, g.Bounds.Min); err != nil {
		return err
	}
	extent := g.Bounds.Max.Sub(g.Bounds.Min)
	for _, v := range []float32{extent.X, extent.Y, extent.Z} {
		if err := writeF32(w, v); err != nil {
			return err
		}
	}

	if err := writeI32(w, int32(len(g.Samples))); err != nil {
		return err
	}
	for _, s := range g.Samples {
		if err := writeVec3(w, s.Position); err != nil {
			return err
		}
	}
	for _, s := range g.Samples {
		if err := writeVec3(w, s.Normal); err != nil {
			return err
		}
	}
	for _, s := range g.Samples {
		if err := writeI32(w, int32(len(s.Neighbors))); err != nil {
			return err
		}
		for _, n := range s.Neighbors {
			if err := writeI32(w, n.Index); err != nil {
				return err
			}
			crawl := int32(0)
			if n.Crawl {
				crawl = 1
			}
			if err := writeI32(w, crawl); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReverbSection(w io.Writer, grid *drone.ReverbVoxelGrid) error {
	if err := writeF32(w, grid.ChunkSize); err != nil {
		return err
	}
	if err := writeVec3(w, grid.Min); err != nil {
		return err
	}
	for _, v := range []int32{grid.Size.X, grid.Size.Y, grid.Size.Z} {
		if err := writeI32(w, v); err != nil {
			return err
		}
	}
	for _, c := range grid.Cells {
		for _, band := range c.Bands {
			if err := writeF32(w, band); err != nil {
				return err
			}
		}
		if err := writeF32(w, c.Outdoor); err != nil {
			return err
		}
	}
	return nil
}

// Compiled bundles the three sections ReadFile reconstructs.
type Compiled struct {
	Walker *walker.TileCache
	Graph  *drone.Graph
	Reverb *drone.ReverbVoxelGrid
}

// ReadFile reverses WriteFile. The returned drone.Graph's Chunks map is
// left empty: chunking only matters while BuildAdjacency is searching
// for new edges, and the runtime only ever walks a loaded graph's
// Samples/Neighbors, never re-chunks it.
func ReadFile(r io.Reader) (*Compiled, error) {
	br := bufio.NewReader(r)

	tiles, err := readWalkerSection(br)
	if err != nil {
		return nil, fmt.Errorf("navmesh: read walker section: %w", err)
	}
	graph, err := readDroneSection(br)
	if err != nil {
		return nil, fmt.Errorf("navmesh: read drone section: %w", err)
	}
	reverb, err := readReverbSection(br)
	if err != nil {
		return nil, fmt.Errorf("navmesh: read reverb section: %w", err)
	}
	return &Compiled{Walker: tiles, Graph: graph, Reverb: reverb}, nil
}

func readWalkerSection(r io.Reader) (*walker.TileCache, error) {
	min, err := readVec3(r)
	if err != nil {
		return nil, err
	}
	extentX, err := readF32(r)
	if err != nil {
		return nil, err
	}
	extentZ, err := readF32(r)
	if err != nil {
		return nil, err
	}
	cellCount, err := readI32(r)
	if err != nil {
		return nil, err
	}

	tiles := &walker.TileCache{
		Bounds: vmath.AABB{Min: min, Max: vmath.Vec3{X: min.X + extentX, Y: min.Y, Z: min.Z + extentZ}},
	}
	for i := int32(0); i < cellCount; i++ {
		layerCount, err := readI32(r)
		if err != nil {
			return nil, err
		}
		for l := int32(0); l < layerCount; l++ {
			t, err := readTileLayer(r)
			if err != nil {
				return nil, err
			}
			tiles.Tiles = append(tiles.Tiles, t)
		}
	}
	return tiles, nil
}

func readTileLayer(r io.Reader) (walker.Tile, error) {
	var h walker.TileHeader
	ints := make([]*int32, 7)
	ints[0], ints[1], ints[2] = &h.TX, &h.TY, &h.Layer
	ints[3], ints[4] = &h.Width, &h.Height
	ints[5], ints[6] = &h.HMin, &h.HMax
	for _, p := range ints {
		v, err := readI32(r)
		if err != nil {
			return walker.Tile{}, err
		}
		*p = v
	}
	bmin, err := readVec3(r)
	if err != nil {
		return walker.Tile{}, err
	}
	bmax, err := readVec3(r)
	if err != nil {
		return walker.Tile{}, err
	}
	h.BMin, h.BMax = bmin, bmax

	payloadLen, err := readI32(r)
	if err != nil {
		return walker.Tile{}, err
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return walker.Tile{}, err
	}
	return walker.Tile{Header: h, Payload: payload}, nil
}

func readDroneSection(r io.Reader) (*drone.Graph, error) {
	if _, err := readF32(r); err != nil { // chunk size, fixed at drone.ChunkSize
		return nil, err
	}
	min, err := readVec3(r)
	if err != nil {
		return nil, err
	}
	extentX, err := readF32(r)
	if err != nil {
		return nil, err
	}
	extentY, err := readF32(r)
	if err != nil {
		return nil, err
	}
	extentZ, err := readF32(r)
	if err != nil {
		return nil, err
	}

	sampleCount, err := readI32(r)
	if err != nil {
		return nil, err
	}
	g := &drone.Graph{
		Samples: make([]drone.Sample, sampleCount),
		Bounds:  vmath.AABB{Min: min, Max: vmath.Vec3{X: min.X + extentX, Y: min.Y + extentY, Z: min.Z + extentZ}},
	}
	for i := range g.Samples {
		pos, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		g.Samples[i].Position = pos
	}
	for i := range g.Samples {
		n, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		g.Samples[i].Normal = n
	}
	for i := range g.Samples {
		neighborCount, err := readI32(r)
		if err != nil {
			return nil, err
		}
		g.Samples[i].Neighbors = make([]drone.Neighbor, neighborCount)
		for n := range g.Samples[i].Neighbors {
			idx, err := readI32(r)
			if err != nil {
				return nil, err
			}
			crawl, err := readI32(r)
			if err != nil {
				return nil, err
			}
			g.Samples[i].Neighbors[n] = drone.Neighbor{Index: idx, Crawl: crawl != 0}
		}
	}
	return g, nil
}

func readReverbSection(r io.Reader) (*drone.ReverbVoxelGrid, error) {
	chunkSize, err := readF32(r)
	if err != nil {
		return nil, err
	}
	min, err := readVec3(r)
	if err != nil {
		return nil, err
	}
	var size drone.ReverbCoord
	for _, p := range []*int32{&size.X, &size.Y, &size.Z} {
		v, err := readI32(r)
		if err != nil {
			return nil, err
		}
		*p = v
	}

	cellCount := int(size.X) * int(size.Y) * int(size.Z)
	cells := make([]drone.ReverbCell, cellCount)
	for i := range cells {
		for b := range cells[i].Bands {
			v, err := readF32(r)
			if err != nil {
				return nil, err
			}
			cells[i].Bands[b] = v
		}
		outdoor, err := readF32(r)
		if err != nil {
			return nil, err
		}
		cells[i].Outdoor = outdoor
	}
	return &drone.ReverbVoxelGrid{Min: min, Size: size, Cells: cells, ChunkSize: chunkSize}, nil
}
