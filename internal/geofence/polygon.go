// Package geofence implements the point-in-polygon test used to decide
// whether a fix lies inside a zone.
//
// Coordinates are decimal degrees. Edges are stored as a line
// lat = Slope*lng + Intercept together with the longitude span of the
// edge, so a containment query is a single pass over the edges with no
// division.
package geofence

// Point is a vertex in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Edge is one side of a polygon with its line equation precomputed.
type Edge struct {
	Lng1      float64
	Lng2      float64
	Slope     float64
	Intercept float64
}

// NewEdge precomputes the line through a and b.
//
// A vertical edge (equal longitudes) gets a zero slope and intercept. It
// can never satisfy the half-open span test in Contains, so the line is
// never evaluated.
func NewEdge(a, b Point) Edge {
	e := Edge{Lng1: a.Lng, Lng2: b.Lng}
	if a.Lng == b.Lng {
		return e
	}
	e.Slope = (b.Lat - a.Lat) / (b.Lng - a.Lng)
	e.Intercept = a.Lat - e.Slope*a.Lng
	return e
}

// Polygon is an immutable set of edges.
type Polygon struct {
	edges []Edge
}

// FromEdges builds a polygon from already computed edges.
//
// The edges must close the polygon; no repair is attempted.
func FromEdges(edges []Edge) Polygon {
	cp := make([]Edge, len(edges))
	copy(cp, edges)
	return Polygon{edges: cp}
}

// FromRing builds a polygon from an ordered vertex list. The closing
// edge from the last vertex back to the first is added implicitly, so
// the ring must not repeat its first vertex.
func FromRing(ring []Point) Polygon {
	if len(ring) == 0 {
		return Polygon{}
	}
	edges := make([]Edge, 0, len(ring))
	for i := range ring {
		next := ring[(i+1)%len(ring)]
		edges = append(edges, NewEdge(ring[i], next))
	}
	return Polygon{edges: edges}
}

// Edges returns a copy of the polygon's edges.
func (p Polygon) Edges() []Edge {
	cp := make([]Edge, len(p.edges))
	copy(cp, p.edges)
	return cp
}

// Len returns the number of edges.
func (p Polygon) Len() int { return len(p.edges) }

// Contains reports whether (lat, lng) lies inside the polygon.
//
// A ray is cast from the point toward decreasing latitude. Every edge
// whose longitude span contains lng (open on one end, closed on the
// other, so a shared vertex is counted once) and whose line lies below
// the point flips the parity. Empty polygons contain nothing.
func (p Polygon) Contains(lat, lng float64) bool {
	inside := false
	for i := range p.edges {
		e := &p.edges[i]
		if (e.Lng1 < lng && lng <= e.Lng2) || (e.Lng2 < lng && lng <= e.Lng1) {
			if lng*e.Slope+e.Intercept < lat {
				inside = !inside
			}
		}
	}
	return inside
}
