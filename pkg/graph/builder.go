package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/paulmach/osm"

	osmnet "github.com/akshita2580/btp/pkg/osm"
)

// Build creates a CSR Graph from extracted OSM edges. sourceLabel feeds the
// graph version so artifacts built against different regions or sources never
// collide.
func Build(result *osmnet.ParseResult, sourceLabel string) *Graph {
	edges := result.Edges
	if len(edges) == 0 {
		return &Graph{Version: version(sourceLabel, 0, 0)}
	}

	// Compact node ID mapping. OSM node IDs are sparse 64-bit values; routing
	// wants dense indices.
	nodeSet := make(map[osm.NodeID]int32)
	var nodeIDs []osm.NodeID

	addNode := func(id osm.NodeID) int32 {
		if idx, ok := nodeSet[id]; ok {
			return idx
		}
		idx := int32(len(nodeIDs))
		nodeSet[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}
	for i := range edges {
		addNode(edges[i].From)
		addNode(edges[i].To)
	}

	numNodes := int32(len(nodeIDs))

	type compactEdge struct {
		from, to int32
		length   float64
		segment  int32
	}
	compact := make([]compactEdge, len(edges))
	for i, e := range edges {
		compact[i] = compactEdge{
			from:    nodeSet[e.From],
			to:      nodeSet[e.To],
			length:  e.LengthMeters,
			segment: e.SegmentID,
		}
	}

	// CSR requires edges grouped by source; secondary sort keeps the build
	// deterministic for a given input.
	sort.Slice(compact, func(i, j int) bool {
		if compact[i].from != compact[j].from {
			return compact[i].from < compact[j].from
		}
		if compact[i].to != compact[j].to {
			return compact[i].to < compact[j].to
		}
		return compact[i].segment < compact[j].segment
	})

	numEdges := int32(len(compact))
	firstOut := make([]int32, numNodes+1)
	head := make([]int32, numEdges)
	length := make([]float64, numEdges)
	segment := make([]int32, numEdges)

	for i, e := range compact {
		head[i] = e.to
		length[i] = e.length
		segment[i] = e.segment
	}
	for _, e := range compact {
		firstOut[e.from+1]++
	}
	for i := int32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	nodeLat := make([]float64, numNodes)
	nodeLon := make([]float64, numNodes)
	for id, idx := range nodeSet {
		nodeLat[idx] = result.NodeLat[id]
		nodeLon[idx] = result.NodeLon[id]
	}

	return &Graph{
		NumNodes:    numNodes,
		NumEdges:    numEdges,
		FirstOut:    firstOut,
		Head:        head,
		Length:      length,
		Risk:        make([]float64, numEdges),
		Segment:     segment,
		NodeLat:     nodeLat,
		NodeLon:     nodeLon,
		NumSegments: result.NumSegments,
		Version:     version(sourceLabel, numNodes, numEdges),
	}
}

// version derives a short deterministic build identifier.
func version(sourceLabel string, nodes, edges int32) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", sourceLabel, nodes, edges)))
	return hex.EncodeToString(sum[:])[:12]
}
