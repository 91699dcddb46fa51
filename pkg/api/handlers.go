package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akshita2580/btp/pkg/artifact"
	"github.com/akshita2580/btp/pkg/config"
	"github.com/akshita2580/btp/pkg/crime"
	"github.com/akshita2580/btp/pkg/geo"
	"github.com/akshita2580/btp/pkg/geocode"
	"github.com/akshita2580/btp/pkg/graph"
	"github.com/akshita2580/btp/pkg/routing"
)

// Geocoder resolves free text to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (geo.Point, error)
}

// GraphStore serves the shared weighted graph per city.
type GraphStore interface {
	Get(ctx context.Context, cityKey string) (*graph.Graph, error)
}

// RouteFinder computes the three route kinds.
type RouteFinder interface {
	FindRoutes(ctx context.Context, g *graph.Graph, src, dst geo.Point) (*routing.RouteSet, error)
}

// MapBuilder renders or retrieves the visualization artifact.
type MapBuilder interface {
	BuildOrGet(src, dst geo.Point, routes *routing.RouteSet, g *graph.Graph) (artifact.Ref, error)
}

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	cfg      config.Config
	geocoder Geocoder
	store    GraphStore
	router   RouteFinder
	builder  MapBuilder

	// startupErr records a failed crime-data load; the service keeps serving
	// /health but reports itself unhealthy and refuses route requests.
	startupErr error
}

// NewHandlers wires the handlers. startupErr comes from the crime snapshot
// load at boot, nil when it succeeded.
func NewHandlers(cfg config.Config, geocoder Geocoder, store GraphStore, router RouteFinder, builder MapBuilder, startupErr error) *Handlers {
	return &Handlers{
		cfg:        cfg,
		geocoder:   geocoder,
		store:      store,
		router:     router,
		builder:    builder,
		startupErr: startupErr,
	}
}

// fail writes the documented error body. Per the existing client's contract
// these are 200s with a status field, not HTTP error codes.
func fail(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusOK, ErrorResponse{Status: "error", Message: fmt.Sprintf(format, args...)})
}

// HandleSafeRoute handles POST /getSafeRoute.
func (h *Handlers) HandleSafeRoute(c *gin.Context) {
	if h.startupErr != nil {
		fail(c, "crime data is not loaded, the service cannot compute safe routes")
		return
	}

	var req SafeRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "invalid request body")
		return
	}
	req.Source = strings.TrimSpace(req.Source)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Source == "" || req.Destination == "" {
		fail(c, "source and destination are required")
		return
	}

	log.Infof("route request: %q -> %q", req.Source, req.Destination)

	src, err := h.geocodeOne(c.Request.Context(), req.Source)
	if err != nil {
		h.failGeocode(c, req.Source, err)
		return
	}
	dst, err := h.geocodeOne(c.Request.Context(), req.Destination)
	if err != nil {
		h.failGeocode(c, req.Destination, err)
		return
	}

	g, err := h.store.Get(c.Request.Context(), h.cfg.CityName)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			fail(c, "road network is still loading, please retry shortly")
		default:
			fail(c, "road network data is temporarily unavailable, please try again")
		}
		return
	}

	routes, err := h.router.FindRoutes(c.Request.Context(), g, src, dst)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrLocationOutsideNetwork):
			fail(c, "one of the locations is outside the %s road network", h.cfg.CityName)
		case errors.Is(err, routing.ErrNoRouteFound):
			fail(c, "no path exists between these locations on the road network")
		default:
			fail(c, "route computation failed")
		}
		return
	}

	ref, err := h.builder.BuildOrGet(src, dst, routes, g)
	if err != nil {
		fail(c, "map could not be generated")
		return
	}

	c.JSON(http.StatusOK, SafeRouteResponse{
		Status:             "success",
		SafePathDistanceKm: round2(routes.Safest.DistanceKm),
		CrimeScore:         round2(routes.Safest.RiskScore),
		MapURL:             h.mapURL(c, ref.FileName),
		MapFilename:        ref.FileName,
		FastestDistanceKm:  round2(routes.Fastest.DistanceKm),
		FastestCrimeScore:  round2(routes.Fastest.RiskScore),
		RiskiestCrimeScore: round2(routes.Riskiest.RiskScore),
	})
}

// geocodeOne bounds a single geocode call.
func (h *Handlers) geocodeOne(ctx context.Context, text string) (geo.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.GeocodeTimeout)
	defer cancel()
	return h.geocoder.Geocode(ctx, text)
}

func (h *Handlers) failGeocode(c *gin.Context, text string, err error) {
	if errors.Is(err, geocode.ErrNotFound) {
		fail(c, "could not find %q on the map", text)
		return
	}
	fail(c, "geocoding service is unavailable, please try again")
}

// HandleMap handles GET /maps/:name.
func (h *Handlers) HandleMap(c *gin.Context) {
	name := c.Param("name")
	// Artifacts are flat HTML files; refuse anything that smells like a path.
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".html") {
		c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Message: "map not found"})
		return
	}
	path := filepath.Join(h.cfg.MapsDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Message: "map not found"})
		return
	}
	c.File(path)
}

// HandleHealth handles GET /health. A failed crime-data load at startup
// keeps the service from declaring itself healthy.
func (h *Handlers) HandleHealth(c *gin.Context) {
	if h.startupErr != nil {
		msg := "crime data unavailable"
		if errors.Is(h.startupErr, crime.ErrCrimeDataUnavailable) {
			msg = h.startupErr.Error()
		}
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Message: msg})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: "Safe Route API"})
}

// mapURL builds an absolute URL for the artifact from the request host.
func (h *Handlers) mapURL(c *gin.Context, fileName string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/maps/%s", scheme, c.Request.Host, fileName)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
