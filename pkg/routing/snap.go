package routing

import (
	"math"

	"github.com/tidwall/rtree"

	"github.com/akshita2580/btp/pkg/geo"
	"github.com/akshita2580/btp/pkg/graph"
)

const metersPerDegreeLat = 111_320.0

// Snapper maps free coordinates onto their nearest graph node using an
// R-tree point index. One Snapper serves one immutable graph.
type Snapper struct {
	tr        rtree.RTreeG[int32]
	g         *graph.Graph
	maxMeters float64
}

// NewSnapper indexes every node of the graph. maxMeters bounds how far a
// query point may sit from the network before snapping is refused.
func NewSnapper(g *graph.Graph, maxMeters float64) *Snapper {
	s := &Snapper{g: g, maxMeters: maxMeters}
	for i := int32(0); i < g.NumNodes; i++ {
		pt := [2]float64{g.NodeLon[i], g.NodeLat[i]}
		s.tr.Insert(pt, pt, i)
	}
	return s
}

// Nearest returns the closest graph node to the coordinate, or
// ErrLocationOutsideNetwork when the nearest node exceeds the snap bound.
// Candidates arrive ordered by degree-space distance; the scan stops once
// that lower bound (converted conservatively to meters) cannot beat the best
// haversine distance found.
func (s *Snapper) Nearest(p geo.Point) (int32, error) {
	best := int32(-1)
	bestMeters := math.Inf(1)
	cosLat := math.Cos(p.Lat * math.Pi / 180)

	pt := [2]float64{p.Lon, p.Lat}
	s.tr.Nearby(
		rtree.BoxDist[float64, int32](pt, pt, nil),
		func(min, max [2]float64, node int32, boxDist float64) bool {
			if boxDist*metersPerDegreeLat*cosLat > bestMeters {
				return false
			}
			meters := geo.Haversine(p.Lat, p.Lon, s.g.NodeLat[node], s.g.NodeLon[node])
			if meters < bestMeters {
				bestMeters = meters
				best = node
			}
			return true
		},
	)

	if best < 0 || bestMeters > s.maxMeters {
		return -1, ErrLocationOutsideNetwork
	}
	return best, nil
}
