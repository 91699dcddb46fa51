package crime

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "crime")

// ErrCrimeDataUnavailable indicates the crime snapshot is missing or
// malformed. This is a startup failure, not a per-request one.
var ErrCrimeDataUnavailable = errors.New("crime data unavailable")

// Incident is a single historical crime record. Severity is normalized to
// [0,1] at load time.
type Incident struct {
	Lat      float64
	Lon      float64
	Severity float64
}

// Load reads the crime snapshot CSV. The file must carry latitude and
// longitude columns plus a scoring column whose name contains "score"
// (matched case-insensitively, following the source dataset's convention).
// Rows with missing or zero coordinates are dropped.
func Load(path string) ([]Incident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCrimeDataUnavailable, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows, they are skipped below

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCrimeDataUnavailable, err)
	}

	latCol, lonCol, scoreCol := -1, -1, -1
	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		switch {
		case latCol < 0 && strings.Contains(lower, "latitude"):
			latCol = i
		case lonCol < 0 && strings.Contains(lower, "longitude"):
			lonCol = i
		case scoreCol < 0 && strings.Contains(lower, "score"):
			scoreCol = i
		}
	}
	if latCol < 0 || lonCol < 0 {
		return nil, fmt.Errorf("%w: no latitude/longitude columns in %s", ErrCrimeDataUnavailable, path)
	}
	if scoreCol < 0 {
		return nil, fmt.Errorf("%w: no crime score column in %s", ErrCrimeDataUnavailable, path)
	}

	var incidents []Incident
	var dropped int
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if len(record) <= latCol || len(record) <= lonCol || len(record) <= scoreCol {
			dropped++
			continue
		}

		lat, errLat := strconv.ParseFloat(strings.TrimSpace(record[latCol]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(record[lonCol]), 64)
		score, errScore := strconv.ParseFloat(strings.TrimSpace(record[scoreCol]), 64)
		if errLat != nil || errLon != nil || errScore != nil || lat == 0 || lon == 0 {
			dropped++
			continue
		}

		incidents = append(incidents, Incident{Lat: lat, Lon: lon, Severity: score})
	}

	if len(incidents) == 0 {
		return nil, fmt.Errorf("%w: no usable records in %s", ErrCrimeDataUnavailable, path)
	}

	normalizeSeverity(incidents)

	log.Infof("crime records loaded: %d (%d dropped)", len(incidents), dropped)
	return incidents, nil
}

// normalizeSeverity min-max rescales raw scores into [0,1]. A dataset with a
// single distinct score weights every incident equally at 1.
func normalizeSeverity(incidents []Incident) {
	scores := lo.Map(incidents, func(in Incident, _ int) float64 { return in.Severity })
	minScore := lo.Min(scores)
	maxScore := lo.Max(scores)
	span := maxScore - minScore

	for i := range incidents {
		if span == 0 {
			incidents[i].Severity = 1
		} else {
			incidents[i].Severity = (incidents[i].Severity - minScore) / span
		}
	}
}
