package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// metersPerDegree is the north-south extent of one degree of latitude.
const metersPerDegree = math.Pi / 180 * earthRadiusMeters

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// PointToSegmentDist computes the perpendicular distance in meters from point P
// to the segment AB, plus the projection ratio along AB clamped to [0,1].
// Works in an equirectangular projection, which is accurate enough for
// city-scale segment lengths.
func PointToSegmentDist(pLat, pLon, aLat, aLon, bLat, bLon float64) (dist float64, ratio float64) {
	cosLat := math.Cos((aLat + bLat) / 2 * math.Pi / 180)

	ax := aLon * cosLat
	ay := aLat
	bx := bLon * cosLat
	by := bLat
	px := pLon * cosLat
	py := pLat

	// Degenerate segment: compare in original coordinates so floating-point
	// noise from the cosLat multiplication cannot split identical endpoints.
	if aLat == bLat && aLon == bLon {
		ex := px - ax
		ey := py - ay
		return math.Sqrt(ex*ex+ey*ey) * metersPerDegree, 0
	}

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy

	var t float64
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	ex := px - (ax + t*dx)
	ey := py - (ay + t*dy)
	return math.Sqrt(ex*ex+ey*ey) * metersPerDegree, t
}

// BBox is a geographic bounding box.
type BBox struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// IsZero reports whether the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLon == 0 && b.MaxLon == 0
}

// Contains reports whether the point lies inside the bounding box.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
