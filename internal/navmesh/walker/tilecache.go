package walker

import (
	"bytes"
	"compress/flate"
	"fmt"
	"hash/crc32"

	"github.com/deceiver-net/deceiver-net/internal/vmath"
)

// TileHeader names the fields dtTileCacheLayerHeader stores alongside a
// compressed layer payload (spec.md §4.8: "tiled ... tile cache keyed by
// (tx, ty, layer) with header + compressed layer payload").
type TileHeader struct {
	TX, TY, Layer int32
	Width, Height int32
	BMin, BMax    vmath.Vec3
	HMin, HMax    int32
}

// Tile is one compressed heightfield layer, ready to persist.
type Tile struct {
	Header  TileHeader
	Payload []byte // CRC32 prefix, then deflate-compressed walkable-area bytes followed by floor-height bytes
}

// TileCache is the compiled walker navmesh: every tile, keyed loosely by
// its header's (tx, ty, layer) rather than a map, since tiles are
// produced and consumed in scan order.
type TileCache struct {
	Bounds vmath.AABB
	Tiles  []Tile
}

// buildTileLayers buckets a compacted tile's cells into height layers —
// a simplified stand-in for rcBuildHeightfieldLayers, which Recast
// derives from overlapping spans; here each layer is flood-filled from a
// seed cell and takes the connected walkable cells whose floor lies
// within 4*walkableClimb of the seed's floor, and cells left over start
// later layers, up to maxLayers.
func buildTileLayers(chf *compactHeightfield, hf *heightfield, tx, ty int32, walkableClimb int32, maxLayers int) []Tile {
	assigned := make([]int32, len(chf.cells))
	for i := range assigned {
		assigned[i] = -1
	}

	var layers [][]int32 // per layer: floor heights at assigned indices, -1 elsewhere is tracked via `assigned`
	for idx, cell := range chf.cells {
		if !cell.walkable || assigned[idx] != -1 {
			continue
		}
		layerIdx := len(layers)
		if layerIdx >= maxLayers {
			break
		}
		heights := make([]int32, len(chf.cells))
		for i := range heights {
			heights[i] = -1
		}
		floodAssignLayer(chf, idx, cell.floor, walkableClimb, assigned, int32(layerIdx), heights)
		layers = append(layers, heights)
	}

	tiles := make([]Tile, 0, len(layers))
	for li, heights := range layers {
		hmin, hmax := int32(1<<30), int32(-(1 << 30))
		areas := make([]byte, len(heights))
		heightBytes := make([]byte, len(heights)*2)
		for i, h := range heights {
			if h < 0 {
				continue
			}
			areas[i] = 1
			if h < hmin {
				hmin = h
			}
			if h > hmax {
				hmax = h
			}
			heightBytes[i*2] = byte(h)
			heightBytes[i*2+1] = byte(h >> 8)
		}
		if hmin > hmax {
			hmin, hmax = 0, 0
		}
		payload, err := compressLayer(areas, heightBytes)
		if err != nil {
			continue
		}
		tiles = append(tiles, Tile{
			Header: TileHeader{
				TX: tx, TY: ty, Layer: int32(li),
				Width: int32(chf.width), Height: int32(chf.height),
				BMin: hf.bmin,
				BMax: vmath.Vec3{X: hf.bmin.X + float32(chf.width)*hf.cellSize, Y: hf.bmin.Y + float32(hmax)*hf.cellSize, Z: hf.bmin.Z + float32(chf.height)*hf.cellSize},
				HMin: hmin, HMax: hmax,
			},
			Payload: payload,
		})
	}
	return tiles
}

func floodAssignLayer(c *compactHeightfield, start int, baseFloor int32, walkableClimb int32, assigned []int32, layer int32, heights []int32) {
	stack := []int{start}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if assigned[idx] != -1 {
			continue
		}
		cell := c.cells[idx]
		if !cell.walkable {
			continue
		}
		diff := cell.floor - baseFloor
		if diff < 0 {
			diff = -diff
		}
		if diff > walkableClimb*4 {
			continue // too far a height jump: belongs to a different layer
		}
		assigned[idx] = layer
		heights[idx] = cell.floor

		x, z := idx%c.width, idx/c.width
		for _, off := range neighborOffsets {
			nx, nz := x+off[0], z+off[1]
			if c.inBounds(nx, nz) {
				stack = append(stack, c.index(nx, nz))
			}
		}
	}
}

// compressLayer deflates the concatenated area+height byte arrays and
// prefixes a CRC32 of the compressed bytes, the same shape as
// internal/wire's packet framing (BestSpeed deflate, leading checksum);
// the checksum here is little-endian, while internal/wire writes its
// checksum big-endian.
func compressLayer(areas, heights []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("walker: deflate init: %w", err)
	}
	if _, err := fw.Write(areas); err != nil {
		return nil, fmt.Errorf("walker: deflate areas: %w", err)
	}
	if _, err := fw.Write(heights); err != nil {
		return nil, fmt.Errorf("walker: deflate heights: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("walker: deflate close: %w", err)
	}
	compressed := buf.Bytes()
	out := make([]byte, 4+len(compressed))
	copy(out[4:], compressed)
	sum := crc32.ChecksumIEEE(out[4:])
	out[0], out[1], out[2], out[3] = byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24)
	return out, nil
}

// decompressLayer reverses compressLayer, returning the concatenated
// area+height bytes after a checksum check.
func decompressLayer(data []byte, areaLen int) (areas, heights []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("walker: tile payload too short")
	}
	sum := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	if crc32.ChecksumIEEE(data[4:]) != sum {
		return nil, nil, fmt.Errorf("walker: tile checksum mismatch")
	}
	fr := flate.NewReader(bytes.NewReader(data[4:]))
	defer fr.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(fr); err != nil {
		return nil, nil, fmt.Errorf("walker: inflate: %w", err)
	}
	raw := out.Bytes()
	if len(raw) < areaLen {
		return nil, nil, fmt.Errorf("walker: decompressed tile truncated")
	}
	return raw[:areaLen], raw[areaLen:], nil
}
