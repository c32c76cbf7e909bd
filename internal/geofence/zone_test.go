package geofence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneMatch_Heading(t *testing.T) {
	z := Zone{Name: "bridge", LimitKmh: 50, HeadingDeg: 350, Polygon: FromRing(square)}

	assert.True(t, z.Match(5, 5, 10, DefaultHeadingToleranceDeg), "wraps through north")
	assert.True(t, z.Match(5, 5, 305, DefaultHeadingToleranceDeg))
	assert.False(t, z.Match(5, 5, 170, DefaultHeadingToleranceDeg))
	assert.True(t, z.Match(5, 5, -1, DefaultHeadingToleranceDeg), "unknown heading matches")
	assert.False(t, z.Match(20, 5, 350, DefaultHeadingToleranceDeg))

	z.HeadingDeg = -1
	assert.True(t, z.Match(5, 5, 170, DefaultHeadingToleranceDeg))
}

func TestParseZones(t *testing.T) {
	zones, err := ParseZones([]byte(`
zones:
  - name: school
    limit: 30
    polygon: [[0, 0], [10, 0], [10, 10], [0, 10]]
  - limit: 50
    heading: -90
    polygon: [[0, 0], [1, 1], [0, 2]]
`))
	require.NoError(t, err)
	require.Len(t, zones, 2)

	assert.Equal(t, "school", zones[0].Name)
	assert.Equal(t, 30, zones[0].LimitKmh)
	assert.Equal(t, -1.0, zones[0].HeadingDeg)
	assert.True(t, zones[0].Polygon.Contains(5, 5))

	assert.Equal(t, "zone-1", zones[1].Name)
	assert.Equal(t, 270.0, zones[1].HeadingDeg)
	assert.Equal(t, 3, zones[1].Polygon.Len())
}

func TestParseZones_Invalid(t *testing.T) {
	cases := map[string]string{
		"too few vertices": "zones:\n  - name: a\n    limit: 30\n    polygon: [[0, 0], [1, 1]]\n",
		"missing limit":    "zones:\n  - name: a\n    polygon: [[0, 0], [1, 1], [0, 2]]\n",
		"bad yaml":         "zones: [",
	}
	for name, in := range cases {
		_, err := ParseZones([]byte(in))
		assert.Error(t, err, name)
	}
}

func TestLoadZones_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zones:\n  - name: a\n    limit: 30\n    polygon: [[0, 0], [1, 1], [0, 2]]\n"), 0o644))

	zones, err := LoadZones(path)
	require.NoError(t, err)
	require.Len(t, zones, 1)

	_, err = LoadZones(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
