package osm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"

	"github.com/akshita2580/btp/pkg/geo"
)

// DefaultOverpassURL is the public Overpass API endpoint.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// ErrFetchFailed indicates the Overpass API could not be reached or returned
// an unusable response.
var ErrFetchFailed = errors.New("overpass fetch failed")

// OverpassClient fetches a road network from an Overpass API endpoint.
type OverpassClient struct {
	URL        string
	HTTPClient *http.Client
	UserAgent  string
}

// NewOverpassClient creates a client for the given endpoint. An empty endpoint
// selects the public Overpass instance.
func NewOverpassClient(endpoint string) *OverpassClient {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	return &OverpassClient{
		URL:        endpoint,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		UserAgent:  "btp-safe-route/1.0",
	}
}

// query builds an Overpass QL request for all highways inside the bbox,
// including the nodes they reference.
func (c *OverpassClient) query(bbox geo.BBox) string {
	box := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)
	return fmt.Sprintf(`[out:xml][timeout:90];(way["highway"](%s);>;);out body;`, box)
}

// FetchNetwork downloads and extracts the road network for the bounding box.
// The fetch is the slowest one-time operation in the service; callers bound
// it with the context.
func (c *OverpassClient) FetchNetwork(ctx context.Context, bbox geo.BBox) (*ParseResult, error) {
	form := url.Values{"data": {c.query(bbox)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	log.Infof("fetching road network from %s (bbox %.4f,%.4f,%.4f,%.4f)",
		c.URL, bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFetchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	result, err := decodeXML(ctx, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	log.Infof("fetched network: %d edges, %d nodes", len(result.Edges), len(result.NodeLat))
	return result, nil
}

// decodeXML extracts the road network from an OSM XML stream. Unlike the PBF
// path, nodes and ways arrive in a single pass.
func decodeXML(ctx context.Context, r io.Reader) (*ParseResult, error) {
	nodeLat := make(map[osm.NodeID]float64)
	nodeLon := make(map[osm.NodeID]float64)
	var ways []wayInfo

	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			p := o.Point()
			nodeLat[o.ID] = p.Lat()
			nodeLon[o.ID] = p.Lon()
		case *osm.Way:
			if !isRoutable(o.Tags) || len(o.Nodes) < 2 {
				continue
			}
			fwd, bwd := directionFlags(o.Tags)
			if !fwd && !bwd {
				continue
			}
			nodeIDs := make([]osm.NodeID, len(o.Nodes))
			for i, wn := range o.Nodes {
				nodeIDs[i] = wn.ID
			}
			ways = append(ways, wayInfo{NodeIDs: nodeIDs, Forward: fwd, Backward: bwd})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Overpass already clipped to the bbox, no second filter needed.
	return expandWays(ways, nodeLat, nodeLon, geo.BBox{}), nil
}
