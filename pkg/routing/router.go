package routing

import (
	"context"
	"errors"
	"math"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/akshita2580/btp/pkg/geo"
	"github.com/akshita2580/btp/pkg/graph"
)

var log = logrus.WithField("module", "routing")

var (
	// ErrLocationOutsideNetwork indicates a coordinate snapped farther from
	// the road network than the configured bound.
	ErrLocationOutsideNetwork = errors.New("location outside road network")

	// ErrNoRouteFound indicates the endpoints sit in disconnected parts of
	// the network. Expected for some inputs, not a defect.
	ErrNoRouteFound = errors.New("no route found")
)

// Kind labels one of the three route objectives.
type Kind string

const (
	KindSafest   Kind = "safest"
	KindFastest  Kind = "fastest"
	KindRiskiest Kind = "riskiest"
)

// riskCap is the upper bound of normalized edge risk; the riskiest profile
// rewards risk by penalizing (riskCap - risk).
const riskCap = 1.0

// RouteResult is one computed route with its true metrics. DistanceKm is the
// physical length of the walk, never the composite search cost; RiskScore is
// the sum of per-edge risk along it.
type RouteResult struct {
	Kind       Kind
	Nodes      []int32
	DistanceKm float64
	RiskScore  float64
}

// RouteSet holds the three routes computed for one request. Riskiest is a
// comparison baseline only and is never presented as a recommendation.
type RouteSet struct {
	Safest   *RouteResult
	Fastest  *RouteResult
	Riskiest *RouteResult
}

// Router computes safest/fastest/riskiest paths over a weighted graph.
// Stateless per request apart from a per-graph snap index cache.
type Router struct {
	alpha    float64
	maxSnap  float64
	snappers *xsync.MapOf[string, *Snapper]
}

// New creates a Router. alpha > 0 controls how strongly risk is penalized
// against distance in the safest profile; maxSnapMeters bounds coordinate
// snapping.
func New(alpha, maxSnapMeters float64) *Router {
	return &Router{
		alpha:    alpha,
		maxSnap:  maxSnapMeters,
		snappers: xsync.NewMapOf[string, *Snapper](),
	}
}

// snapper returns the snap index for the graph, building it on first use.
func (r *Router) snapper(g *graph.Graph) *Snapper {
	if s, ok := r.snappers.Load(g.Version); ok {
		return s
	}
	s, _ := r.snappers.LoadOrStore(g.Version, NewSnapper(g, r.maxSnap))
	return s
}

// FindRoutes snaps both coordinates to the graph and computes all three
// route kinds. Either every kind exists or none does: the three profiles
// differ only in edge cost, so connectivity is shared.
func (r *Router) FindRoutes(ctx context.Context, g *graph.Graph, src, dst geo.Point) (*RouteSet, error) {
	if g.NumNodes == 0 {
		return nil, ErrLocationOutsideNetwork
	}

	snapper := r.snapper(g)
	srcNode, err := snapper.Nearest(src)
	if err != nil {
		return nil, err
	}
	dstNode, err := snapper.Nearest(dst)
	if err != nil {
		return nil, err
	}
	log.Debugf("snapped (%.4f,%.4f)->(%.4f,%.4f) to nodes %d->%d",
		src.Lat, src.Lon, dst.Lat, dst.Lon, srcNode, dstNode)

	profiles := []struct {
		kind Kind
		cost func(e int32) float64
	}{
		{KindFastest, func(e int32) float64 { return g.Length[e] }},
		{KindSafest, func(e int32) float64 { return g.Length[e] * (1 + r.alpha*g.Risk[e]) }},
		{KindRiskiest, func(e int32) float64 { return g.Length[e] * (1 + r.alpha*(riskCap-g.Risk[e])) }},
	}

	set := &RouteSet{}
	for _, p := range profiles {
		edges, ok := r.shortestPath(ctx, g, srcNode, dstNode, p.cost)
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, ErrNoRouteFound
		}
		result := buildResult(g, p.kind, srcNode, edges)
		switch p.kind {
		case KindFastest:
			set.Fastest = result
		case KindSafest:
			set.Safest = result
		case KindRiskiest:
			set.Riskiest = result
		}
	}

	return set, nil
}

// shortestPath runs Dijkstra from src to dst under the given edge cost and
// returns the traversed edge sequence. All costs are non-negative by
// construction, so one algorithm serves every profile. Equal-cost paths
// resolve deterministically toward fewer edges.
func (r *Router) shortestPath(ctx context.Context, g *graph.Graph, src, dst int32, cost func(e int32) float64) ([]int32, bool) {
	n := g.NumNodes
	dist := make([]float64, n)
	hops := make([]int32, n)
	prevEdge := make([]int32, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prevEdge[i] = -1
	}
	dist[src] = 0

	var pq minHeap
	pq.Push(src, 0, 0)

	pops := 0
	for pq.Len() > 0 {
		item := pq.Pop()
		u := item.node

		pops++
		if pops%1024 == 0 && ctx.Err() != nil {
			return nil, false
		}

		if item.cost > dist[u] || (item.cost == dist[u] && item.hops > hops[u]) {
			continue // stale entry
		}
		if u == dst {
			break
		}

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			nc := item.cost + cost(e)
			nh := item.hops + 1
			if nc < dist[v] || (nc == dist[v] && nh < hops[v]) {
				dist[v] = nc
				hops[v] = nh
				prevEdge[v] = e
				pq.Push(v, nc, nh)
			}
		}
	}

	if math.IsInf(dist[dst], 1) {
		return nil, false
	}

	// Reconstruct the edge sequence dst -> src, then reverse.
	var edges []int32
	for v := dst; v != src; {
		e := prevEdge[v]
		edges = append(edges, e)
		v = edgeTail(g, e)
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges, true
}

// buildResult converts an edge walk into a RouteResult with true metrics.
func buildResult(g *graph.Graph, kind Kind, src int32, edges []int32) *RouteResult {
	nodes := make([]int32, 0, len(edges)+1)
	nodes = append(nodes, src)
	for _, e := range edges {
		nodes = append(nodes, g.Head[e])
	}

	meters := lo.SumBy(edges, func(e int32) float64 { return g.Length[e] })
	risk := lo.SumBy(edges, func(e int32) float64 { return g.Risk[e] })

	return &RouteResult{
		Kind:       kind,
		Nodes:      nodes,
		DistanceKm: meters / 1000,
		RiskScore:  risk,
	}
}

// edgeTail finds the source node of edge e via binary search on CSR offsets.
func edgeTail(g *graph.Graph, e int32) int32 {
	low, high := int32(0), g.NumNodes-1
	for low < high {
		mid := (low + high) / 2
		if g.FirstOut[mid+1] <= e {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}
