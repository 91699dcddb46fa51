package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/akshita2580/btp/pkg/geo"
)

// Config holds all startup settings. Nothing here is re-read mid-process.
type Config struct {
	Addr     string
	LogLevel string

	// City served by this instance.
	CityName string
	CityBBox geo.BBox

	// Network source: a local PBF extract when set, Overpass otherwise.
	PBFPath     string
	OverpassURL string

	CrimeDataPath string
	MapsDir       string
	GeocodeURL    string

	// RiskAlpha weights risk against distance in the safest/riskiest costs.
	RiskAlpha     float64
	MaxSnapMeters float64
	BuildTimeout  time.Duration
	// GeocodeTimeout bounds each external geocode call.
	GeocodeTimeout time.Duration
}

// Load reads .env (when present), then flags with environment defaults.
func Load() (Config, error) {
	_ = godotenv.Load() // optional

	var cfg Config
	var bboxStr string
	var buildTimeoutSec, geocodeTimeoutSec int

	flag.StringVar(&cfg.Addr, "addr", envOr("ADDR", ":8000"), "HTTP bind address")
	flag.StringVar(&cfg.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level [debug, info, warn, error, fatal, panic]")
	flag.StringVar(&cfg.CityName, "city", envOr("CITY_NAME", "Washington, D.C., USA"), "city label for the road network")
	flag.StringVar(&bboxStr, "city-bbox", envOr("CITY_BBOX", "38.80,-77.12,39.00,-76.90"), "city bounding box: minLat,minLon,maxLat,maxLon")
	flag.StringVar(&cfg.PBFPath, "pbf", envOr("OSM_PBF_PATH", ""), "local .osm.pbf extract (empty = fetch via Overpass)")
	flag.StringVar(&cfg.OverpassURL, "overpass-url", envOr("OVERPASS_URL", ""), "Overpass API endpoint (empty = public instance)")
	flag.StringVar(&cfg.CrimeDataPath, "crime-data", envOr("CRIME_DATA_PATH", "data/crime_weighted_output.csv"), "crime snapshot CSV path")
	flag.StringVar(&cfg.MapsDir, "maps-dir", envOr("MAPS_DIR", "maps"), "output directory for rendered maps")
	flag.StringVar(&cfg.GeocodeURL, "geocode-url", envOr("GEOCODE_URL", ""), "geocoding endpoint (empty = public Nominatim)")
	flag.Float64Var(&cfg.RiskAlpha, "alpha", envFloatOr("RISK_ALPHA", 1.0), "risk weighting constant (> 0)")
	flag.Float64Var(&cfg.MaxSnapMeters, "max-snap", envFloatOr("MAX_SNAP_METERS", 500), "maximum snap distance in meters")
	flag.IntVar(&buildTimeoutSec, "build-timeout", envIntOr("BUILD_TIMEOUT_SECONDS", 120), "graph build timeout in seconds")
	flag.IntVar(&geocodeTimeoutSec, "geocode-timeout", envIntOr("GEOCODE_TIMEOUT_SECONDS", 10), "geocode timeout in seconds")
	flag.Parse()

	bbox, err := ParseBBox(bboxStr)
	if err != nil {
		return Config{}, err
	}
	cfg.CityBBox = bbox
	cfg.BuildTimeout = time.Duration(buildTimeoutSec) * time.Second
	cfg.GeocodeTimeout = time.Duration(geocodeTimeoutSec) * time.Second

	if cfg.RiskAlpha <= 0 {
		return Config{}, fmt.Errorf("risk alpha must be > 0, got %g", cfg.RiskAlpha)
	}
	return cfg, nil
}

// ParseBBox parses "minLat,minLon,maxLat,maxLon".
func ParseBBox(s string) (geo.BBox, error) {
	var b geo.BBox
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &b.MinLat, &b.MinLon, &b.MaxLat, &b.MaxLon); err != nil {
		return geo.BBox{}, fmt.Errorf("invalid bbox %q (expected minLat,minLon,maxLat,maxLon): %w", s, err)
	}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return geo.BBox{}, fmt.Errorf("invalid bbox %q: min must be below max", s)
	}
	return b, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
