package crime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crime.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCSV(t, `OFFENSE_ID,OFFENSE_LATITUDE,OFFENSE_LONGITUDE,weighted_score
1,38.9012,-77.0365,4.0
2,38.9050,-77.0400,2.0
3,38.9100,-77.0450,3.0
`)

	incidents, err := Load(path)
	require.NoError(t, err)
	require.Len(t, incidents, 3)

	// Severity is min-max normalized: 2.0 -> 0, 4.0 -> 1.
	assert.Equal(t, 1.0, incidents[0].Severity)
	assert.Equal(t, 0.0, incidents[1].Severity)
	assert.Equal(t, 0.5, incidents[2].Severity)
	assert.Equal(t, 38.9012, incidents[0].Lat)
	assert.Equal(t, -77.0365, incidents[0].Lon)
}

func TestLoadDropsBadRows(t *testing.T) {
	path := writeCSV(t, `offense_latitude,offense_longitude,crime_score
38.9012,-77.0365,4.0
0,0,9.0
,,1.0
not-a-number,-77.04,2.0
38.9050,-77.0400,2.0
`)

	incidents, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, incidents, 2)
}

func TestLoadUniformScores(t *testing.T) {
	path := writeCSV(t, `OFFENSE_LATITUDE,OFFENSE_LONGITUDE,score
38.90,-77.03,5.0
38.91,-77.04,5.0
`)

	incidents, err := Load(path)
	require.NoError(t, err)
	for _, in := range incidents {
		assert.Equal(t, 1.0, in.Severity, "uniform scores weight equally")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrCrimeDataUnavailable)
}

func TestLoadNoScoreColumn(t *testing.T) {
	path := writeCSV(t, `OFFENSE_LATITUDE,OFFENSE_LONGITUDE,description
38.90,-77.03,theft
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCrimeDataUnavailable)
	assert.Contains(t, err.Error(), "score")
}

func TestLoadNoCoordinateColumns(t *testing.T) {
	path := writeCSV(t, `id,score
1,5.0
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrCrimeDataUnavailable)
}
