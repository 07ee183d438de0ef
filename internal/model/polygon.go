package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/yourname/geoplus/internal/geo"
)

// ErrInvalidGeometry reports a malformed ring input.
var ErrInvalidGeometry = errors.New("invalid geometry")

// GeometryKind tags the stored geometry variants. Only KindPolygon carries
// behavior today; the other tags are reserved and fail fast if exercised.
type GeometryKind uint8

const (
	KindPolygon GeometryKind = iota + 1
	KindMultiPolygon
	KindLineString
)

// String returns the GeoJSON-style type name for the kind.
func (k GeometryKind) String() string {
	switch k {
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	case KindLineString:
		return "LineString"
	}
	return fmt.Sprintf("GeometryKind(%d)", uint8(k))
}

// BoundingBox is the min/max lon/lat envelope of a ring plus the ceiling of
// its half-diagonal great-circle distance in meters.
type BoundingBox struct {
	MinLon  float64 `json:"min_lon"`
	MinLat  float64 `json:"min_lat"`
	MaxLon  float64 `json:"max_lon"`
	MaxLat  float64 `json:"max_lat"`
	RadiusM float64 `json:"radius_m"`
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() geo.Point {
	return geo.Point{
		Lon: (b.MinLon + b.MaxLon) / 2,
		Lat: (b.MinLat + b.MaxLat) / 2,
	}
}

// BoundingCircle covers every ring vertex. Center is the ring centroid and
// the radius is rounded up, so radius searches over-include rather than miss
// candidates.
type BoundingCircle struct {
	Center  geo.Point `json:"center"`
	RadiusM float64   `json:"radius_m"`
}

// Polygon is a single closed ring (no holes) with metrics frozen at
// construction. Immutable once built.
type Polygon struct {
	lons []float64
	lats []float64

	perimeter float64
	centroid  geo.Point
	circle    BoundingCircle
	box       BoundingBox
}

// NewPolygon builds a polygon from a flattened lon,lat,lon,lat,... ring.
// The ring must hold at least 3 distinct vertices plus an explicit closing
// vertex equal to the first. Derived metrics are computed here, once.
func NewPolygon(coords []float64) (*Polygon, error) {
	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("%w: odd coordinate count %d", ErrInvalidGeometry, len(coords))
	}
	n := len(coords) / 2
	if n < 4 {
		return nil, fmt.Errorf("%w: ring has %d vertices, need at least 3 plus closure", ErrInvalidGeometry, n)
	}

	lons := make([]float64, n)
	lats := make([]float64, n)
	for i := 0; i < n; i++ {
		lons[i] = coords[2*i]
		lats[i] = coords[2*i+1]
	}
	if lons[0] != lons[n-1] || lats[0] != lats[n-1] {
		return nil, fmt.Errorf("%w: ring is not closed", ErrInvalidGeometry)
	}

	p := &Polygon{lons: lons, lats: lats}
	p.computeMetrics()
	return p, nil
}

// NewPolygonFromParts rebuilds a polygon from already-validated vertex arrays
// and stored metrics. Used by the codec: metrics are trusted as stored, never
// recomputed.
func NewPolygonFromParts(lons, lats []float64, perimeter float64, centroid geo.Point, circle BoundingCircle, box BoundingBox) *Polygon {
	return &Polygon{
		lons:      lons,
		lats:      lats,
		perimeter: perimeter,
		centroid:  centroid,
		circle:    circle,
		box:       box,
	}
}

// computeMetrics walks the ring once for perimeter, coordinate sums and the
// envelope, then a second time for the max centroid distance.
func (p *Polygon) computeMetrics() {
	n := len(p.lons)
	box := BoundingBox{
		MinLon: p.lons[0], MaxLon: p.lons[0],
		MinLat: p.lats[0], MaxLat: p.lats[0],
	}

	var sumLon, sumLat, perimeter float64
	for i := 0; i < n-1; i++ {
		// Closing duplicate excluded from the mean and the envelope.
		sumLon += p.lons[i]
		sumLat += p.lats[i]
		box.MinLon = math.Min(box.MinLon, p.lons[i])
		box.MaxLon = math.Max(box.MaxLon, p.lons[i])
		box.MinLat = math.Min(box.MinLat, p.lats[i])
		box.MaxLat = math.Max(box.MaxLat, p.lats[i])

		perimeter += geo.Distance(
			geo.Point{Lon: p.lons[i], Lat: p.lats[i]},
			geo.Point{Lon: p.lons[i+1], Lat: p.lats[i+1]},
		)
	}

	centroid := geo.Point{Lon: sumLon / float64(n-1), Lat: sumLat / float64(n-1)}

	var maxDist float64
	for i := 0; i < n-1; i++ {
		d := geo.Distance(centroid, geo.Point{Lon: p.lons[i], Lat: p.lats[i]})
		maxDist = math.Max(maxDist, d)
	}

	halfDiag := geo.Distance(
		geo.Point{Lon: box.MinLon, Lat: box.MinLat},
		geo.Point{Lon: box.MaxLon, Lat: box.MaxLat},
	) / 2
	box.RadiusM = math.Ceil(halfDiag)

	p.perimeter = perimeter
	p.centroid = centroid
	p.circle = BoundingCircle{Center: centroid, RadiusM: math.Ceil(maxDist)}
	p.box = box
}

// Kind returns the geometry tag.
func (p *Polygon) Kind() GeometryKind { return KindPolygon }

// TypeName returns "Polygon".
func (p *Polygon) TypeName() string { return KindPolygon.String() }

// Perimeter returns the sum of great-circle edge lengths around the ring,
// in meters.
func (p *Polygon) Perimeter() float64 { return p.perimeter }

// Centroid returns the arithmetic mean of the ring vertices, closing
// duplicate excluded.
func (p *Polygon) Centroid() geo.Point { return p.centroid }

// BoundingCircle returns the frozen bounding circle.
func (p *Polygon) BoundingCircle() BoundingCircle { return p.circle }

// BoundingBox returns the frozen bounding box.
func (p *Polygon) BoundingBox() BoundingBox { return p.box }

// RingVertices returns the ring as lon/lat points, closing duplicate
// included. The slice is a copy; the polygon stays immutable.
func (p *Polygon) RingVertices() []geo.Point {
	out := make([]geo.Point, len(p.lons))
	for i := range p.lons {
		out[i] = geo.Point{Lon: p.lons[i], Lat: p.lats[i]}
	}
	return out
}

// RingCoords returns the ring flattened back to lon,lat,lon,lat,... form.
func (p *Polygon) RingCoords() []float64 {
	out := make([]float64, 0, 2*len(p.lons))
	for i := range p.lons {
		out = append(out, p.lons[i], p.lats[i])
	}
	return out
}

// Contains reports whether (lon, lat) falls inside the ring. Points outside
// the bounding box are rejected without touching the ring. Inside the box an
// even-odd ray cast decides. Points exactly on an edge are indeterminate,
// as with any ray cast.
func (p *Polygon) Contains(lon, lat float64) bool {
	if lon < p.box.MinLon || lon > p.box.MaxLon ||
		lat < p.box.MinLat || lat > p.box.MaxLat {
		return false
	}

	inside := false
	n := len(p.lons)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, yj := p.lats[i], p.lats[j]
		if (yi > lat) == (yj > lat) {
			continue
		}
		xi, xj := p.lons[i], p.lons[j]
		if lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
