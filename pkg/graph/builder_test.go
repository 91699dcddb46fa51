package graph

import (
	"testing"

	"github.com/paulmach/osm"

	osmnet "github.com/akshita2580/btp/pkg/osm"
)

func TestBuildSimpleGraph(t *testing.T) {
	// Triangle: 100 -> 200 -> 300 -> 100.
	result := &osmnet.ParseResult{
		Edges: []osmnet.RawEdge{
			{From: 100, To: 200, LengthMeters: 1000, SegmentID: 0},
			{From: 200, To: 300, LengthMeters: 2000, SegmentID: 1},
			{From: 300, To: 100, LengthMeters: 3000, SegmentID: 2},
		},
		NodeLat:     map[osm.NodeID]float64{100: 38.90, 200: 38.91, 300: 38.90},
		NodeLon:     map[osm.NodeID]float64{100: -77.03, 200: -77.03, 300: -77.02},
		NumSegments: 3,
	}

	g := Build(result, "test")

	if g.NumNodes != 3 {
		t.Fatalf("NumNodes = %d, want 3", g.NumNodes)
	}
	if g.NumEdges != 3 {
		t.Fatalf("NumEdges = %d, want 3", g.NumEdges)
	}

	for i := int32(0); i < g.NumNodes; i++ {
		start, end := g.EdgesFrom(i)
		if end-start != 1 {
			t.Errorf("node %d has %d edges, want 1", i, end-start)
		}
	}

	var totalLength float64
	for _, l := range g.Length {
		totalLength += l
	}
	if totalLength != 6000 {
		t.Errorf("total length = %f, want 6000", totalLength)
	}

	for _, r := range g.Risk {
		if r != 0 {
			t.Errorf("fresh graph must carry zero risk, got %f", r)
		}
	}
	if g.Version == "" {
		t.Error("graph version must be set")
	}
}

func TestBuildEmptyGraph(t *testing.T) {
	g := Build(&osmnet.ParseResult{
		NodeLat: map[osm.NodeID]float64{},
		NodeLon: map[osm.NodeID]float64{},
	}, "empty")

	if g.NumNodes != 0 || g.NumEdges != 0 {
		t.Errorf("empty input produced %d nodes, %d edges", g.NumNodes, g.NumEdges)
	}
	if g.Version == "" {
		t.Error("even empty graphs carry a version")
	}
}

func TestBuildVersionDeterministic(t *testing.T) {
	result := &osmnet.ParseResult{
		Edges: []osmnet.RawEdge{
			{From: 1, To: 2, LengthMeters: 500, SegmentID: 0},
			{From: 2, To: 1, LengthMeters: 500, SegmentID: 0},
		},
		NodeLat:     map[osm.NodeID]float64{1: 38.90, 2: 38.91},
		NodeLon:     map[osm.NodeID]float64{1: -77.03, 2: -77.03},
		NumSegments: 1,
	}

	a := Build(result, "dc")
	b := Build(result, "dc")
	if a.Version != b.Version {
		t.Errorf("same input must produce the same version: %s vs %s", a.Version, b.Version)
	}

	c := Build(result, "baltimore")
	if a.Version == c.Version {
		t.Error("different source labels must produce different versions")
	}
}

func TestBuildKeepsSegmentPairing(t *testing.T) {
	result := &osmnet.ParseResult{
		Edges: []osmnet.RawEdge{
			{From: 1, To: 2, LengthMeters: 500, SegmentID: 7},
			{From: 2, To: 1, LengthMeters: 500, SegmentID: 7},
		},
		NodeLat:     map[osm.NodeID]float64{1: 38.90, 2: 38.91},
		NodeLon:     map[osm.NodeID]float64{1: -77.03, 2: -77.03},
		NumSegments: 8,
	}

	g := Build(result, "test")
	if g.Segment[0] != 7 || g.Segment[1] != 7 {
		t.Errorf("segment ids not preserved: %v", g.Segment)
	}

	e := g.FindEdge(0, 1)
	if e < 0 {
		t.Fatal("edge 0->1 not found")
	}
	if g.FindEdge(0, 0) != -1 {
		t.Error("nonexistent edge should return -1")
	}
}

func TestComponentCount(t *testing.T) {
	// Two disconnected pairs.
	result := &osmnet.ParseResult{
		Edges: []osmnet.RawEdge{
			{From: 1, To: 2, LengthMeters: 100, SegmentID: 0},
			{From: 2, To: 1, LengthMeters: 100, SegmentID: 0},
			{From: 3, To: 4, LengthMeters: 100, SegmentID: 1},
			{From: 4, To: 3, LengthMeters: 100, SegmentID: 1},
		},
		NodeLat:     map[osm.NodeID]float64{1: 38.90, 2: 38.91, 3: 38.95, 4: 38.96},
		NodeLon:     map[osm.NodeID]float64{1: -77.03, 2: -77.03, 3: -77.03, 4: -77.03},
		NumSegments: 2,
	}

	g := Build(result, "test")
	if got := ComponentCount(g); got != 2 {
		t.Errorf("ComponentCount = %d, want 2", got)
	}
}
