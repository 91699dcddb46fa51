package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/akshita2580/btp/pkg/geo"
	"github.com/akshita2580/btp/pkg/graph"
	"github.com/akshita2580/btp/pkg/routing"
)

var log = logrus.WithField("module", "artifact")

// ErrRenderFailure indicates the visualization could not be produced.
// An empty artifact is never written in its place.
var ErrRenderFailure = errors.New("map rendering failed")

// coordPrecision is the decimal rounding applied to coordinates before
// hashing; requests within ~11 m of each other share an artifact.
const coordPrecision = "%.4f"

// Ref points at a rendered artifact. Entries are immutable once created.
type Ref struct {
	Key       string
	FileName  string
	FilePath  string
	CreatedAt time.Time
}

// Builder renders route visualizations and caches them under content-derived
// keys. Concurrent requests for the same uncached key render once.
type Builder struct {
	dir     string
	tmpl    *template.Template
	index   *xsync.MapOf[string, Ref]
	group   singleflight.Group
	renders atomic.Int64
}

// NewBuilder creates a Builder writing artifacts under dir.
func NewBuilder(dir string) (*Builder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create maps dir: %w", err)
	}
	tmpl, err := template.New("map").Parse(mapPage)
	if err != nil {
		return nil, fmt.Errorf("parse map template: %w", err)
	}
	return &Builder{
		dir:   dir,
		tmpl:  tmpl,
		index: xsync.NewMapOf[string, Ref](),
	}, nil
}

// Key derives the cache key from the rounded request coordinates and the
// graph version. Deterministic: equal rounded requests share an artifact.
func Key(src, dst geo.Point, graphVersion string) string {
	payload := fmt.Sprintf(
		coordPrecision+","+coordPrecision+"|"+coordPrecision+","+coordPrecision+"|%s",
		src.Lat, src.Lon, dst.Lat, dst.Lon, graphVersion)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}

// BuildOrGet returns the artifact for the request, rendering it only when no
// cached entry exists. The first completed write wins; the index is never
// overwritten for a key.
func (b *Builder) BuildOrGet(src, dst geo.Point, routes *routing.RouteSet, g *graph.Graph) (Ref, error) {
	key := Key(src, dst, g.Version)

	if ref, ok := b.index.Load(key); ok {
		return ref, nil
	}

	v, err, _ := b.group.Do(key, func() (any, error) {
		if ref, ok := b.index.Load(key); ok {
			return ref, nil
		}

		page, err := b.render(src, dst, routes, g)
		if err != nil {
			return Ref{}, err
		}

		name := "safe_route_" + key + ".html"
		path := filepath.Join(b.dir, name)
		if err := os.WriteFile(path, page, 0o644); err != nil {
			return Ref{}, fmt.Errorf("%w: write %s: %v", ErrRenderFailure, path, err)
		}
		b.renders.Add(1)

		ref, _ := b.index.LoadOrStore(key, Ref{
			Key:       key,
			FileName:  name,
			FilePath:  path,
			CreatedAt: time.Now(),
		})
		log.Debugf("artifact %s rendered (%d bytes)", name, len(page))
		return ref, nil
	})
	if err != nil {
		return Ref{}, err
	}
	return v.(Ref), nil
}

// RenderCount reports how many artifacts have actually been rendered,
// as opposed to served from cache.
func (b *Builder) RenderCount() int64 {
	return b.renders.Load()
}

type routeLayer struct {
	Name    string       `json:"name"`
	Color   string       `json:"color"`
	Weight  int          `json:"weight"`
	Opacity float64      `json:"opacity"`
	Tooltip string       `json:"tooltip"`
	Coords  [][2]float64 `json:"coords"`
}

type pageData struct {
	Center [2]float64   `json:"center"`
	Start  [2]float64   `json:"start"`
	End    [2]float64   `json:"end"`
	Routes []routeLayer `json:"routes"`
	Heat   [][3]float64 `json:"heat"`
}

// render produces the HTML page bytes, or ErrRenderFailure when there is
// nothing plottable.
func (b *Builder) render(src, dst geo.Point, routes *routing.RouteSet, g *graph.Graph) ([]byte, error) {
	if routes == nil || routes.Safest == nil || routes.Fastest == nil || routes.Riskiest == nil {
		return nil, fmt.Errorf("%w: missing route results", ErrRenderFailure)
	}

	layers := []struct {
		result  *routing.RouteResult
		name    string
		color   string
		weight  int
		opacity float64
		label   string
	}{
		{routes.Safest, "safest", "blue", 6, 0.8, "Safest Path"},
		{routes.Fastest, "fastest", "green", 5, 0.7, "Fastest Path"},
		{routes.Riskiest, "riskiest", "red", 5, 0.6, "Riskiest Path"},
	}

	data := pageData{
		Center: [2]float64{(src.Lat + dst.Lat) / 2, (src.Lon + dst.Lon) / 2},
		Start:  [2]float64{src.Lat, src.Lon},
		End:    [2]float64{dst.Lat, dst.Lon},
		Heat:   heatPoints(g),
	}

	for _, l := range layers {
		coords := nodeCoords(g, l.result.Nodes)
		if len(coords) == 0 {
			return nil, fmt.Errorf("%w: %s route has no coordinates", ErrRenderFailure, l.name)
		}
		data.Routes = append(data.Routes, routeLayer{
			Name:    l.name,
			Color:   l.color,
			Weight:  l.weight,
			Opacity: l.opacity,
			Tooltip: fmt.Sprintf("%s (%.1f km, risk %.2f)", l.label, l.result.DistanceKm, l.result.RiskScore),
			Coords:  coords,
		})
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, template.JS(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

// nodeCoords maps a node sequence to lat/lon pairs.
func nodeCoords(g *graph.Graph, nodes []int32) [][2]float64 {
	coords := make([][2]float64, 0, len(nodes))
	for _, n := range nodes {
		coords = append(coords, [2]float64{g.NodeLat[n], g.NodeLon[n]})
	}
	return coords
}

// heatPoints derives heatmap samples from per-edge risk, one per weighted
// undirected segment at the edge midpoint. Using edge risk rather than raw
// incident points keeps the heatmap consistent with the router's weighting.
func heatPoints(g *graph.Graph) [][3]float64 {
	seen := make(map[int32]struct{})
	var points [][3]float64

	for u := int32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if g.Risk[e] <= 0 {
				continue
			}
			seg := g.Segment[e]
			if _, ok := seen[seg]; ok {
				continue
			}
			seen[seg] = struct{}{}

			v := g.Head[e]
			points = append(points, [3]float64{
				(g.NodeLat[u] + g.NodeLat[v]) / 2,
				(g.NodeLon[u] + g.NodeLon[v]) / 2,
				g.Risk[e],
			})
		}
	}
	return points
}
