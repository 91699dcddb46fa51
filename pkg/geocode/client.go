package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akshita2580/btp/pkg/geo"
)

var log = logrus.WithField("module", "geocode")

var (
	// ErrNotFound indicates the text did not resolve to any location.
	ErrNotFound = errors.New("location not found")

	// ErrUnavailable indicates the geocoding service could not be reached
	// or answered with garbage.
	ErrUnavailable = errors.New("geocoding service unavailable")
)

// DefaultURL is the public Nominatim endpoint.
const DefaultURL = "https://nominatim.openstreetmap.org"

// Client resolves free-text place names against a Nominatim-compatible API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a geocoding client. An empty baseURL selects the public
// Nominatim instance, which requires the identifying User-Agent.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  "btp-safety-app",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// nominatim answers coordinates as JSON strings.
type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves text to a coordinate, taking the service's first match.
func (c *Client) Geocode(ctx context.Context, text string) (geo.Point, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Point{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return geo.Point{}, fmt.Errorf("%w: %q", ErrNotFound, text)
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return geo.Point{}, fmt.Errorf("%w: bad coordinates for %q", ErrUnavailable, text)
	}

	log.Debugf("%q resolved to (%.4f, %.4f)", text, lat, lon)
	return geo.Point{Lat: lat, Lon: lon}, nil
}
