package routing

import (
	"context"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshita2580/btp/pkg/geo"
	"github.com/akshita2580/btp/pkg/graph"
	osmnet "github.com/akshita2580/btp/pkg/osm"
)

// biSpan emits both directions of an undirected span.
func biSpan(a, b osm.NodeID, length float64, seg int32) []osmnet.RawEdge {
	return []osmnet.RawEdge{
		{From: a, To: b, LengthMeters: length, SegmentID: seg},
		{From: b, To: a, LengthMeters: length, SegmentID: seg},
	}
}

// detourGraph has a short direct street between nodes 1 and 2 plus a longer
// detour over nodes 5 and 6:
//
//	5 ---------- 6     lat 38.905
//	|            |
//	1 ---------- 2     lat 38.900
//
// The direct street carries risk 1.0 on both directions; the detour is clean.
func detourGraph(t *testing.T) *graph.Graph {
	t.Helper()
	lat := map[osm.NodeID]float64{1: 38.900, 2: 38.900, 5: 38.905, 6: 38.905}
	lon := map[osm.NodeID]float64{1: -77.030, 2: -77.020, 5: -77.030, 6: -77.020}

	var edges []osmnet.RawEdge
	edges = append(edges, biSpan(1, 2, 866, 0)...)
	edges = append(edges, biSpan(1, 5, 556, 1)...)
	edges = append(edges, biSpan(5, 6, 866, 2)...)
	edges = append(edges, biSpan(6, 2, 556, 3)...)

	g := graph.Build(&osmnet.ParseResult{
		Edges: edges, NodeLat: lat, NodeLon: lon, NumSegments: 4,
	}, "detour")

	for e := int32(0); e < g.NumEdges; e++ {
		if g.Segment[e] == 0 {
			g.Risk[e] = 1.0
		}
	}
	return g
}

var (
	ptNode1 = geo.Point{Lat: 38.900, Lon: -77.030}
	ptNode2 = geo.Point{Lat: 38.900, Lon: -77.020}
)

func TestFindRoutesSafestAvoidsRiskyStreet(t *testing.T) {
	g := detourGraph(t)
	r := New(2.0, 500)

	set, err := r.FindRoutes(context.Background(), g, ptNode1, ptNode2)
	require.NoError(t, err)

	// Fastest takes the short risky street.
	assert.InDelta(t, 0.866, set.Fastest.DistanceKm, 1e-9)
	assert.InDelta(t, 1.0, set.Fastest.RiskScore, 1e-9)

	// Safest pays the longer, incident-free detour.
	assert.InDelta(t, 1.978, set.Safest.DistanceKm, 1e-9)
	assert.InDelta(t, 0.0, set.Safest.RiskScore, 1e-9)
	assert.Len(t, set.Safest.Nodes, 4)

	// Riskiest seeks exposure and matches the direct street here.
	assert.InDelta(t, 1.0, set.Riskiest.RiskScore, 1e-9)

	assert.Less(t, set.Safest.RiskScore, set.Fastest.RiskScore)
	assert.LessOrEqual(t, set.Fastest.DistanceKm, set.Safest.DistanceKm)
	assert.LessOrEqual(t, set.Safest.RiskScore, set.Riskiest.RiskScore)
}

func TestFindRoutesSmallAlphaKeepsDirectPath(t *testing.T) {
	g := detourGraph(t)
	// With a weak risk penalty the 2.3x detour is not worth it.
	r := New(0.5, 500)

	set, err := r.FindRoutes(context.Background(), g, ptNode1, ptNode2)
	require.NoError(t, err)
	assert.InDelta(t, 0.866, set.Safest.DistanceKm, 1e-9)
}

func TestFindRoutesSameSnappedNode(t *testing.T) {
	g := detourGraph(t)
	r := New(1.0, 500)

	// Two coordinates a few meters apart that snap to the same node.
	near := geo.Point{Lat: 38.90001, Lon: -77.03001}
	set, err := r.FindRoutes(context.Background(), g, ptNode1, near)
	require.NoError(t, err)

	for _, res := range []*RouteResult{set.Safest, set.Fastest, set.Riskiest} {
		assert.Equal(t, 0.0, res.DistanceKm)
		assert.Equal(t, 0.0, res.RiskScore)
		assert.Len(t, res.Nodes, 1)
	}
}

func TestFindRoutesDisconnected(t *testing.T) {
	lat := map[osm.NodeID]float64{1: 38.900, 2: 38.901, 7: 38.950, 8: 38.951}
	lon := map[osm.NodeID]float64{1: -77.030, 2: -77.030, 7: -77.030, 8: -77.030}

	var edges []osmnet.RawEdge
	edges = append(edges, biSpan(1, 2, 111, 0)...)
	edges = append(edges, biSpan(7, 8, 111, 1)...)

	g := graph.Build(&osmnet.ParseResult{
		Edges: edges, NodeLat: lat, NodeLon: lon, NumSegments: 2,
	}, "split")

	r := New(1.0, 500)
	_, err := r.FindRoutes(context.Background(), g,
		geo.Point{Lat: 38.900, Lon: -77.030},
		geo.Point{Lat: 38.950, Lon: -77.030})
	assert.ErrorIs(t, err, ErrNoRouteFound)
}

func TestFindRoutesOutsideNetwork(t *testing.T) {
	g := detourGraph(t)
	r := New(1.0, 500)

	// ~11 km north of the network.
	far := geo.Point{Lat: 39.0, Lon: -77.030}
	_, err := r.FindRoutes(context.Background(), g, far, ptNode2)
	assert.ErrorIs(t, err, ErrLocationOutsideNetwork)

	_, err = r.FindRoutes(context.Background(), g, ptNode1, far)
	assert.ErrorIs(t, err, ErrLocationOutsideNetwork)
}

func TestFindRoutesEmptyGraph(t *testing.T) {
	g := graph.Build(&osmnet.ParseResult{
		NodeLat: map[osm.NodeID]float64{},
		NodeLon: map[osm.NodeID]float64{},
	}, "empty")

	r := New(1.0, 500)
	_, err := r.FindRoutes(context.Background(), g, ptNode1, ptNode2)
	assert.ErrorIs(t, err, ErrLocationOutsideNetwork)
}

func TestShortestPathTieBreakPrefersFewerEdges(t *testing.T) {
	// Node 1 to node 2: a single 200 m edge, or 100+100 over node 3.
	lat := map[osm.NodeID]float64{1: 38.900, 2: 38.902, 3: 38.901}
	lon := map[osm.NodeID]float64{1: -77.030, 2: -77.030, 3: -77.029}

	var edges []osmnet.RawEdge
	edges = append(edges, biSpan(1, 2, 200, 0)...)
	edges = append(edges, biSpan(1, 3, 100, 1)...)
	edges = append(edges, biSpan(3, 2, 100, 2)...)

	g := graph.Build(&osmnet.ParseResult{
		Edges: edges, NodeLat: lat, NodeLon: lon, NumSegments: 3,
	}, "tie")

	r := New(1.0, 500)
	set, err := r.FindRoutes(context.Background(), g,
		geo.Point{Lat: 38.900, Lon: -77.030},
		geo.Point{Lat: 38.902, Lon: -77.030})
	require.NoError(t, err)

	assert.Len(t, set.Fastest.Nodes, 2, "equal-cost tie must resolve to fewer edges")
	assert.InDelta(t, 0.2, set.Fastest.DistanceKm, 1e-9)
}

func TestFindRoutesCancelledContext(t *testing.T) {
	g := detourGraph(t)
	r := New(1.0, 500)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Tiny graphs finish between cancellation checks, so either outcome is a
	// non-crash; on error it must be the context's.
	set, err := r.FindRoutes(ctx, g, ptNode1, ptNode2)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	} else {
		assert.NotNil(t, set.Safest)
	}
}
