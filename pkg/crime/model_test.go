package crime

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshita2580/btp/pkg/graph"
	osmnet "github.com/akshita2580/btp/pkg/osm"
)

// testGraph builds two parallel east-west streets joined at both ends:
//
//	3 ---------- 4    lat 38.905
//	|            |
//	1 ---------- 2    lat 38.900
//
// All spans bidirectional.
func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	lat := map[osm.NodeID]float64{1: 38.900, 2: 38.900, 3: 38.905, 4: 38.905}
	lon := map[osm.NodeID]float64{1: -77.030, 2: -77.020, 3: -77.030, 4: -77.020}

	span := func(a, b osm.NodeID, seg int32) []osmnet.RawEdge {
		// Roughly correct lengths: streets ~866 m, connectors ~556 m.
		l := 556.0
		if lat[a] == lat[b] {
			l = 866
		}
		return []osmnet.RawEdge{
			{From: a, To: b, LengthMeters: l, SegmentID: seg},
			{From: b, To: a, LengthMeters: l, SegmentID: seg},
		}
	}

	var edges []osmnet.RawEdge
	edges = append(edges, span(1, 2, 0)...)
	edges = append(edges, span(3, 4, 1)...)
	edges = append(edges, span(1, 3, 2)...)
	edges = append(edges, span(2, 4, 3)...)

	return graph.Build(&osmnet.ParseResult{
		Edges: edges, NodeLat: lat, NodeLon: lon, NumSegments: 4,
	}, "crime-test")
}

// segmentRisk returns the risk of one edge belonging to the given segment.
func segmentRisk(g *graph.Graph, seg int32) float64 {
	for e := int32(0); e < g.NumEdges; e++ {
		if g.Segment[e] == seg {
			return g.Risk[e]
		}
	}
	return -1
}

func TestApplyRiskMapsMidBlockIncidentToSegment(t *testing.T) {
	g := testGraph(t)

	// Mid-block on the southern street: closest edge is segment 0 even
	// though the point is nowhere near either of its endpoints.
	incidents := []Incident{{Lat: 38.9002, Lon: -77.025, Severity: 1.0}}

	sum := ApplyRisk(g, incidents)
	assert.Equal(t, 1, sum.MappedIncidents)

	assert.Greater(t, segmentRisk(g, 0), 0.0, "southern street carries the risk")
	assert.Equal(t, 0.0, segmentRisk(g, 1), "northern street stays clean")
	assert.Equal(t, 0.0, segmentRisk(g, 2))
	assert.Equal(t, 0.0, segmentRisk(g, 3))

	// Both directions of the segment share the score.
	var seen []float64
	for e := int32(0); e < g.NumEdges; e++ {
		if g.Segment[e] == 0 {
			seen = append(seen, g.Risk[e])
		}
	}
	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
}

func TestApplyRiskIdempotent(t *testing.T) {
	g := testGraph(t)
	incidents := []Incident{
		{Lat: 38.9001, Lon: -77.027, Severity: 0.9},
		{Lat: 38.9049, Lon: -77.022, Severity: 0.4},
	}

	first := ApplyRisk(g, incidents)
	snapshot := append([]float64(nil), g.Risk...)

	second := ApplyRisk(g, incidents)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, g.Risk, "re-running must not change scores")
}

func TestApplyRiskNormalization(t *testing.T) {
	g := testGraph(t)
	incidents := []Incident{
		{Lat: 38.9001, Lon: -77.027, Severity: 1.0},
		{Lat: 38.9002, Lon: -77.024, Severity: 1.0},
		{Lat: 38.9049, Lon: -77.025, Severity: 0.5},
	}

	ApplyRisk(g, incidents)

	for e := int32(0); e < g.NumEdges; e++ {
		assert.GreaterOrEqual(t, g.Risk[e], 0.0)
		assert.LessOrEqual(t, g.Risk[e], 1.0)
	}

	// The densest segment (two incidents on the southern street) scores 1.
	assert.InDelta(t, 1.0, segmentRisk(g, 0), 1e-12)
	north := segmentRisk(g, 1)
	assert.Greater(t, north, 0.0)
	assert.Less(t, north, 1.0)
}

func TestApplyRiskNoIncidents(t *testing.T) {
	g := testGraph(t)

	sum := ApplyRisk(g, nil)
	assert.Equal(t, Summary{}, sum)
	for _, r := range g.Risk {
		assert.Equal(t, 0.0, r)
	}
}

func TestApplyRiskEmptyGraph(t *testing.T) {
	g := &graph.Graph{}
	sum := ApplyRisk(g, []Incident{{Lat: 38.9, Lon: -77.0, Severity: 1}})
	assert.Equal(t, Summary{}, sum)
}
