package graph

// unionFind is a disjoint-set structure with path halving and union by rank,
// used for connectivity diagnostics on freshly built graphs.
type unionFind struct {
	parent []int32
	rank   []byte
}

func newUnionFind(n int32) *unionFind {
	parent := make([]int32, n)
	for i := range parent {
		parent[i] = int32(i)
	}
	return &unionFind{parent: parent, rank: make([]byte, n)}
}

func (uf *unionFind) find(x int32) int32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int32) {
	rx := uf.find(x)
	ry := uf.find(y)
	if rx == ry {
		return
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}

// ComponentCount returns the number of weakly connected components, treating
// directed edges as undirected. A count above one means some point pairs have
// no route, which is valid data and reported per request, not at build time.
func ComponentCount(g *Graph) int {
	if g.NumNodes == 0 {
		return 0
	}

	uf := newUnionFind(g.NumNodes)
	for u := int32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.union(u, g.Head[e])
		}
	}

	roots := make(map[int32]struct{})
	for i := int32(0); i < g.NumNodes; i++ {
		roots[uf.find(i)] = struct{}{}
	}
	return len(roots)
}
