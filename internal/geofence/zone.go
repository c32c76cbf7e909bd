package geofence

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHeadingToleranceDeg is the accepted deviation between a zone's
// heading and the fix heading when the zone is directional.
const DefaultHeadingToleranceDeg = 45.0

// Zone is a speed-limited region. HeadingDeg < 0 means the zone applies
// regardless of direction of travel.
type Zone struct {
	Name       string
	LimitKmh   int
	HeadingDeg float64
	Polygon    Polygon
}

// Match reports whether a fix at (lat, lng) travelling along headingDeg
// is inside the zone. The heading check is skipped when either heading
// is negative (unknown).
func (z Zone) Match(lat, lng, headingDeg, toleranceDeg float64) bool {
	if !z.Polygon.Contains(lat, lng) {
		return false
	}
	if z.HeadingDeg < 0 || headingDeg < 0 {
		return true
	}
	return headingDelta(z.HeadingDeg, headingDeg) <= toleranceDeg
}

// headingDelta returns the absolute angular difference in [0, 180].
func headingDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

type zoneFile struct {
	Zones []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	Name    string       `yaml:"name"`
	Limit   int          `yaml:"limit"`
	Heading *float64     `yaml:"heading"`
	Polygon [][2]float64 `yaml:"polygon"`
}

// LoadZones reads a YAML zone file.
//
//	zones:
//	  - name: school
//	    limit: 30
//	    heading: 90     # optional
//	    polygon: [[47.50, 19.04], [47.51, 19.04], [47.51, 19.05]]
//
// Vertices are [lat, lng] pairs.
func LoadZones(path string) ([]Zone, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseZones(b)
}

// ParseZones decodes the zone file format described on LoadZones.
func ParseZones(b []byte) ([]Zone, error) {
	var f zoneFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("geofence: parse zones: %w", err)
	}
	zones := make([]Zone, 0, len(f.Zones))
	for i, e := range f.Zones {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = fmt.Sprintf("zone-%d", i)
		}
		if len(e.Polygon) < 3 {
			return nil, fmt.Errorf("geofence: zone %q needs at least 3 vertices, got %d", name, len(e.Polygon))
		}
		if e.Limit <= 0 {
			return nil, fmt.Errorf("geofence: zone %q limit must be > 0", name)
		}
		ring := make([]Point, 0, len(e.Polygon))
		for _, v := range e.Polygon {
			ring = append(ring, Point{Lat: v[0], Lng: v[1]})
		}
		heading := -1.0
		if e.Heading != nil {
			heading = math.Mod(*e.Heading+360, 360)
		}
		zones = append(zones, Zone{
			Name:       name,
			LimitKmh:   e.Limit,
			HeadingDeg: heading,
			Polygon:    FromRing(ring),
		})
	}
	return zones, nil
}
