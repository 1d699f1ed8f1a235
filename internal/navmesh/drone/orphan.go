package drone

// PruneOrphans drops every sample with no adjacency edges (shoot or
// crawl) and removes any chunk left empty afterward (spec.md §4.9 step
// 4). Neighbor indices are global, so dropping samples requires
// remapping every surviving edge to the compacted index space.
func PruneOrphans(g *Graph) (pruned int) {
	keep := make([]bool, len(g.Samples))
	for i, s := range g.Samples {
		keep[i] = len(s.Neighbors) > 0
	}

	remap := make([]int32, len(g.Samples))
	var kept []Sample
	for i, s := range g.Samples {
		if !keep[i] {
			pruned++
			continue
		}
		remap[i] = int32(len(kept))
		kept = append(kept, s)
	}

	for i := range kept {
		survivors := kept[i].Neighbors[:0]
		for _, n := range kept[i].Neighbors {
			if !keep[n.Index] {
				continue
			}
			survivors = append(survivors, Neighbor{Index: remap[n.Index], Crawl: n.Crawl})
		}
		kept[i].Neighbors = survivors
	}

	rebuildChunks(g, kept)
	return pruned
}
