package model

// GeoJSON document view, RFC 7946 shaped. Coordinates are [lon, lat].

// Position is a GeoJSON coordinate pair [lon, lat].
type Position [2]float64

// Lon returns the longitude.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[1] }

// GeoJSONGeometry is the geometry member of a Feature. Coordinates stay
// untyped until the feature's type tag is known.
type GeoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is an ordered set of features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection creates an empty collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}
}

// AddFeature appends a feature.
func (fc *FeatureCollection) AddFeature(f Feature) {
	fc.Features = append(fc.Features, f)
}

// NewPointFeature creates a Point feature.
func NewPointFeature(lon, lat float64, props map[string]interface{}) Feature {
	return Feature{
		Type: "Feature",
		Geometry: GeoJSONGeometry{
			Type:        "Point",
			Coordinates: Position{lon, lat},
		},
		Properties: props,
	}
}

// NewPolygonFeature creates a Polygon feature from rings of coordinate
// pairs.
func NewPolygonFeature(rings [][]Position, props map[string]interface{}) Feature {
	return Feature{
		Type: "Feature",
		Geometry: GeoJSONGeometry{
			Type:        "Polygon",
			Coordinates: rings,
		},
		Properties: props,
	}
}

// PolygonFeatureFromRing wraps a flattened lon,lat ring into a one-ring
// Polygon feature.
func PolygonFeatureFromRing(coords []float64, props map[string]interface{}) Feature {
	ring := make([]Position, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		ring = append(ring, Position{coords[i], coords[i+1]})
	}
	return NewPolygonFeature([][]Position{ring}, props)
}
