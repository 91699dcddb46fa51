package osm

import (
	"github.com/paulmach/osm"
	"github.com/sirupsen/logrus"

	"github.com/akshita2580/btp/pkg/geo"
)

var log = logrus.WithField("module", "osm")

// RawEdge is a directed road segment extracted from OSM data.
type RawEdge struct {
	From         osm.NodeID
	To           osm.NodeID
	LengthMeters float64
	// SegmentID identifies the undirected road span. The two directed edges
	// of a bidirectional span share the same SegmentID so that risk assigned
	// to the road applies to travel in either direction.
	SegmentID int32
}

// ParseResult holds the road network extracted from an OSM source.
type ParseResult struct {
	Edges       []RawEdge
	NodeLat     map[osm.NodeID]float64
	NodeLon     map[osm.NodeID]float64
	NumSegments int32
}

// routableHighways lists highway tag values kept in the road network.
var routableHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// isRoutable reports whether the way belongs in the road network.
func isRoutable(tags osm.Tags) bool {
	if !routableHighways[tags.Find("highway")] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}
	return true
}

// directionFlags returns (forward, backward) travel permissions for a way.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward = true
	backward = true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent direction, skip entirely.
		forward = false
		backward = false
	}

	return forward, backward
}

// wayInfo holds a routable way collected during scanning.
type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
}

// expandWays turns collected ways into directed edges between consecutive way
// nodes. Spans with either endpoint missing a coordinate, or outside the
// bounding box (when set), are dropped.
func expandWays(ways []wayInfo, nodeLat, nodeLon map[osm.NodeID]float64, bbox geo.BBox) *ParseResult {
	useBBox := !bbox.IsZero()

	var edges []RawEdge
	var nextSegment int32
	var skipped, filtered int

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]

			fromLat, fromOK := nodeLat[fromID]
			fromLon := nodeLon[fromID]
			toLat, toOK := nodeLat[toID]
			toLon := nodeLon[toID]

			if !fromOK || !toOK {
				skipped++
				continue
			}
			if useBBox && (!bbox.Contains(fromLat, fromLon) || !bbox.Contains(toLat, toLon)) {
				filtered++
				continue
			}

			length := geo.Haversine(fromLat, fromLon, toLat, toLon)
			if length <= 0 {
				length = 0.1 // degenerate span, avoid zero-length edges
			}

			seg := nextSegment
			nextSegment++

			if w.Forward {
				edges = append(edges, RawEdge{From: fromID, To: toID, LengthMeters: length, SegmentID: seg})
			}
			if w.Backward {
				edges = append(edges, RawEdge{From: toID, To: fromID, LengthMeters: length, SegmentID: seg})
			}
		}
	}

	if skipped > 0 || filtered > 0 {
		log.Debugf("way expansion: %d spans missing coordinates, %d outside bbox", skipped, filtered)
	}

	return &ParseResult{
		Edges:       edges,
		NodeLat:     nodeLat,
		NodeLon:     nodeLon,
		NumSegments: nextSegment,
	}
}
