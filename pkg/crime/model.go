package crime

import (
	"math"

	"github.com/samber/lo"
	"github.com/tidwall/rtree"

	"github.com/akshita2580/btp/pkg/geo"
	"github.com/akshita2580/btp/pkg/graph"
)

// metersPerDegreeLat converts a degree-space distance into a conservative
// meter lower bound (longitude degrees are shorter than latitude degrees).
const metersPerDegreeLat = 111_320.0

// Summary reports diagnostics from a risk-weighting pass.
type Summary struct {
	MappedIncidents int
	RiskEdges       int
	MaxDensity      float64
}

// ApplyRisk joins incidents to their nearest road segment and writes
// normalized risk scores onto the graph's edges. The join uses perpendicular
// distance to the segment line, not nearest-node distance, so mid-block
// incidents credit the block rather than its junctions.
//
// Re-running on the same graph and incident set produces identical scores:
// the pass recomputes every edge from raw sums each time.
func ApplyRisk(g *graph.Graph, incidents []Incident) Summary {
	for i := range g.Risk {
		g.Risk[i] = 0
	}
	if g.NumEdges == 0 || len(incidents) == 0 {
		return Summary{}
	}

	// Spatial index over edge bounding boxes. N incidents against M edges
	// would otherwise be an O(N*M) scan at graph load.
	var tr rtree.RTreeG[int32]
	for u := int32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			minPt := [2]float64{
				math.Min(g.NodeLon[u], g.NodeLon[v]),
				math.Min(g.NodeLat[u], g.NodeLat[v]),
			}
			maxPt := [2]float64{
				math.Max(g.NodeLon[u], g.NodeLon[v]),
				math.Max(g.NodeLat[u], g.NodeLat[v]),
			}
			tr.Insert(minPt, maxPt, e)
		}
	}

	// Accumulate severity onto the undirected segment of the nearest edge,
	// so both directions of a road share its exposure.
	segmentSum := make([]float64, g.NumSegments)
	mapped := 0

	for _, in := range incidents {
		edge := nearestEdge(&tr, g, in.Lat, in.Lon)
		if edge < 0 {
			continue
		}
		segmentSum[g.Segment[edge]] += in.Severity
		mapped++
	}

	// Length-normalize to a risk density so long and short edges compare
	// fairly, then rescale against the densest edge into [0,1]. Edges with no
	// mapped incidents keep exactly 0.
	densities := make([]float64, g.NumEdges)
	for e := int32(0); e < g.NumEdges; e++ {
		raw := segmentSum[g.Segment[e]]
		if raw > 0 {
			densities[e] = raw / g.Length[e]
		}
	}
	maxDensity := lo.Max(densities)

	riskEdges := 0
	if maxDensity > 0 {
		for e := range g.Risk {
			if densities[e] > 0 {
				g.Risk[e] = densities[e] / maxDensity
				riskEdges++
			}
		}
	}

	log.Infof("risk weighting: %d/%d incidents mapped, %d/%d edges weighted",
		mapped, len(incidents), riskEdges, g.NumEdges)

	return Summary{MappedIncidents: mapped, RiskEdges: riskEdges, MaxDensity: maxDensity}
}

// nearestEdge returns the edge index closest to the point by perpendicular
// segment distance, or -1 for an empty index. Candidates arrive ordered by
// bounding-box distance; the scan stops once the box lower bound exceeds the
// best exact distance found.
func nearestEdge(tr *rtree.RTreeG[int32], g *graph.Graph, lat, lon float64) int32 {
	pt := [2]float64{lon, lat}
	best := int32(-1)
	bestMeters := math.Inf(1)
	cosLat := math.Cos(lat * math.Pi / 180)

	tr.Nearby(
		rtree.BoxDist[float64, int32](pt, pt, nil),
		func(min, max [2]float64, e int32, boxDist float64) bool {
			if boxDist*metersPerDegreeLat*cosLat > bestMeters {
				return false
			}

			u := tail(g, e)
			v := g.Head[e]
			meters, _ := geo.PointToSegmentDist(lat, lon,
				g.NodeLat[u], g.NodeLon[u], g.NodeLat[v], g.NodeLon[v])
			if meters < bestMeters {
				bestMeters = meters
				best = e
			}
			return true
		},
	)

	return best
}

// tail finds the source node of edge e by binary search over the CSR offsets.
func tail(g *graph.Graph, e int32) int32 {
	lo32, hi := int32(0), g.NumNodes-1
	for lo32 < hi {
		mid := (lo32 + hi) / 2
		if g.FirstOut[mid+1] <= e {
			lo32 = mid + 1
		} else {
			hi = mid
		}
	}
	return lo32
}
