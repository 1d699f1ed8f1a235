package drone

// FilterSurfaceClearance removes every sample whose drone-body envelope
// would clip through nearby geometry: a raycast from just off the
// surface to DRONE_RADIUS+0.02 along the normal must miss both meshes
// (spec.md §4.9 step 2).
func FilterSurfaceClearance(g *Graph, accessible, inaccessible Mesh) {
	kept := g.Samples[:0]
	for _, s := range g.Samples {
		near := s.Position.Add(s.Normal.Scale(0.01))
		far := s.Position.Add(s.Normal.Scale(DroneRadius + 0.02))
		if Raycast(accessible, near, far).Hit || Raycast(inaccessible, near, far).Hit {
			continue
		}
		kept = append(kept, s)
	}
	rebuildChunks(g, kept)
}

// rebuildChunks replaces g.Samples and rebuilds the chunk index after a
// pass that drops samples, since dropped samples shift global indices.
func rebuildChunks(g *Graph, samples []Sample) {
	g.Samples = samples
	g.Chunks = make(map[ChunkCoord]*Chunk)
	for idx := range g.Samples {
		s := &g.Samples[idx]
		s.Chunk = chunkCoordOf(s.Position)
		c := g.chunkFor(s.Chunk)
		c.Positions = append(c.Positions, s.Position)
		c.Normals = append(c.Normals, s.Normal)
		c.SampleIndex = append(c.SampleIndex, int32(idx))
	}
	g.Bounds = graphBounds(g)
}
