package api

// SafeRouteRequest is the JSON body for POST /getSafeRoute.
type SafeRouteRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// SafeRouteResponse is the success body. The first four fields are the
// contract the existing mobile client depends on; the comparison metrics let
// callers contrast exposure between routes.
type SafeRouteResponse struct {
	Status             string  `json:"status"`
	SafePathDistanceKm float64 `json:"safe_path_distance_km"`
	CrimeScore         float64 `json:"crime_score"`
	MapURL             string  `json:"map_url"`
	MapFilename        string  `json:"map_filename"`

	FastestDistanceKm  float64 `json:"fastest_distance_km"`
	FastestCrimeScore  float64 `json:"fastest_crime_score"`
	RiskiestCrimeScore float64 `json:"riskiest_crime_score"`
}

// ErrorResponse reports request failures. The existing client expects these
// on a 200 with a status field, not on HTTP error codes.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Message string `json:"message,omitempty"`
}
