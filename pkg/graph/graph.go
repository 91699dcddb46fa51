package graph

// Graph is the road network for one city in CSR (Compressed Sparse Row) form.
// It is built once, weighted once by the crime exposure model, and read-only
// afterwards; request handlers share a single instance.
type Graph struct {
	NumNodes int32
	NumEdges int32

	FirstOut []int32   // len NumNodes+1; FirstOut[i]..FirstOut[i+1] are edges from node i
	Head     []int32   // len NumEdges; target node per edge
	Length   []float64 // len NumEdges; meters
	Risk     []float64 // len NumEdges; normalized crime exposure, 0 until weighted
	Segment  []int32   // len NumEdges; undirected segment id shared by paired edges

	NodeLat []float64
	NodeLon []float64

	// NumSegments counts undirected road spans; Segment values are < NumSegments.
	NumSegments int32

	// Version identifies the build, used for artifact cache keys.
	Version string
}

// EdgesFrom returns the range of edge indices for edges originating from node u.
func (g *Graph) EdgesFrom(u int32) (start, end int32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// FindEdge returns the index of an edge u->v, or -1 if none exists.
// With parallel edges the shortest one is returned.
func (g *Graph) FindEdge(u, v int32) int32 {
	best := int32(-1)
	start, end := g.EdgesFrom(u)
	for e := start; e < end; e++ {
		if g.Head[e] == v && (best < 0 || g.Length[e] < g.Length[best]) {
			best = e
		}
	}
	return best
}
