package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/model"
	"github.com/yourname/geoplus/internal/store"
)

// GeoJSONService converts between FeatureCollection documents and the
// point/polygon representations the rest of the system stores.
type GeoJSONService struct {
	store    store.GeoIndex
	geometry *GeometryService
}

// NewGeoJSONService creates the codec service.
func NewGeoJSONService(s store.GeoIndex, g *GeometryService) *GeoJSONService {
	return &GeoJSONService{store: s, geometry: g}
}

// Import upserts every feature of a collection: Point features into the geo
// index, Polygon features (outer ring only) into the geometry store.
// Aborts on the first invalid feature. Returns the number of features
// written.
func (s *GeoJSONService) Import(ctx context.Context, index, geomKey string, fc model.FeatureCollection) (int, error) {
	if fc.Type != "FeatureCollection" {
		return 0, fmt.Errorf("%w: top-level type %q", ErrInvalidGeoJSON, fc.Type)
	}

	var points []store.Member
	type polygonUpsert struct {
		id     string
		coords []float64
	}
	var polygons []polygonUpsert

	for i, f := range fc.Features {
		id, ok := featureID(f)
		if !ok {
			return 0, fmt.Errorf("%w: feature %d has no id property", ErrInvalidGeoJSON, i)
		}
		switch f.Geometry.Type {
		case "Point":
			pt, err := asPosition(f.Geometry.Coordinates)
			if err != nil {
				return 0, fmt.Errorf("%w: feature %d: %v", ErrInvalidGeoJSON, i, err)
			}
			points = append(points, store.Member{Name: id, Point: pt})
		case "Polygon":
			ring, err := asOuterRing(f.Geometry.Coordinates)
			if err != nil {
				return 0, fmt.Errorf("%w: feature %d: %v", ErrInvalidGeoJSON, i, err)
			}
			polygons = append(polygons, polygonUpsert{id: id, coords: ring})
		default:
			return 0, fmt.Errorf("%w: feature %d has geometry type %q", ErrInvalidGeoJSON, i, f.Geometry.Type)
		}
	}

	if len(points) > 0 {
		if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
			return 0, err
		}
		if _, err := s.store.MemberUpsert(ctx, index, points...); err != nil {
			return 0, err
		}
	}
	for _, p := range polygons {
		if _, err := s.geometry.Upsert(ctx, geomKey, model.KindPolygon.String(), p.id, p.coords); err != nil {
			return 0, err
		}
	}
	return len(points) + len(polygons), nil
}

// Export command names. The allow-list mirrors the read commands whose
// replies can be shaped into features.
const (
	CmdPosition       = "geopos"
	CmdHash           = "geohash"
	CmdRadius         = "georadius"
	CmdRadiusByMember = "georadiusbymember"
	CmdGeometryFilter = "geometryfilter"
)

// ExportRequest is a validated export command plus its arguments. Only the
// fields the named command reads are consulted.
type ExportRequest struct {
	Command string `json:"command"`
	Index   string `json:"index"`

	// geopos / geohash
	Members []string `json:"members,omitempty"`

	// georadius / georadiusbymember
	Center    *geo.Point `json:"center,omitempty"`
	Member    string     `json:"member,omitempty"`
	RadiusM   float64    `json:"radius_m,omitempty"`
	WithCoord bool       `json:"with_coord,omitempty"`
	WithDist  bool       `json:"with_dist,omitempty"`
	WithHash  bool       `json:"with_hash,omitempty"`

	// geometryfilter
	GeometryKey string `json:"geometry_key,omitempty"`
	GeometryID  string `json:"geometry_id,omitempty"`
}

// Export runs one allow-listed read command and shapes its reply into a
// FeatureCollection, one feature per reply row.
func (s *GeoJSONService) Export(ctx context.Context, req ExportRequest) (*model.FeatureCollection, error) {
	switch req.Command {
	case CmdPosition:
		return s.exportPositions(ctx, req, false)
	case CmdHash:
		return s.exportPositions(ctx, req, true)
	case CmdRadius, CmdRadiusByMember:
		return s.exportRadius(ctx, req)
	case CmdGeometryFilter:
		return s.exportFilter(ctx, req)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommand, req.Command)
}

// exportPositions handles geopos and geohash. The hash reply carries no
// coordinates of its own, so positions are looked up for the same members;
// members without a position are skipped.
func (s *GeoJSONService) exportPositions(ctx context.Context, req ExportRequest, withHash bool) (*model.FeatureCollection, error) {
	if err := s.store.CheckKind(ctx, req.Index, store.KindZSet); err != nil {
		return nil, err
	}
	positions, err := s.store.MemberPosition(ctx, req.Index, req.Members...)
	if err != nil {
		return nil, err
	}

	fc := model.NewFeatureCollection()
	for i, pos := range positions {
		if pos == nil {
			continue
		}
		props := map[string]interface{}{"id": req.Members[i]}
		if withHash {
			props["geohash"] = geo.GeohashString(pos.Lon, pos.Lat)
		}
		fc.AddFeature(model.NewPointFeature(pos.Lon, pos.Lat, props))
	}
	return fc, nil
}

func (s *GeoJSONService) exportRadius(ctx context.Context, req ExportRequest) (*model.FeatureCollection, error) {
	if !req.WithCoord {
		return nil, fmt.Errorf("%w: radius export requires with_coord", ErrMissingCoordinates)
	}
	if err := s.store.CheckKind(ctx, req.Index, store.KindZSet); err != nil {
		return nil, err
	}

	center := req.Center
	if req.Command == CmdRadiusByMember {
		positions, err := s.store.MemberPosition(ctx, req.Index, req.Member)
		if err != nil {
			return nil, err
		}
		if len(positions) == 0 || positions[0] == nil {
			return model.NewFeatureCollection(), nil
		}
		center = positions[0]
	}
	if center == nil {
		return nil, fmt.Errorf("%w: radius export requires a center", ErrMissingCoordinates)
	}

	rows, err := s.store.RadiusQuery(ctx, req.Index, *center, req.RadiusM, true, req.WithDist, req.WithHash)
	if err != nil {
		return nil, err
	}

	fc := model.NewFeatureCollection()
	for _, row := range rows {
		if row.Coord == nil {
			return nil, fmt.Errorf("%w: radius reply for %q", ErrMissingCoordinates, row.Name)
		}
		props := map[string]interface{}{"id": row.Name}
		if row.Dist != nil {
			props["distance"] = *row.Dist
		}
		if row.Hash != nil {
			props["rawhash"] = *row.Hash
			props["geohash"] = geo.GeohashString(row.Coord.Lon, row.Coord.Lat)
		}
		fc.AddFeature(model.NewPointFeature(row.Coord.Lon, row.Coord.Lat, props))
	}
	return fc, nil
}

func (s *GeoJSONService) exportFilter(ctx context.Context, req ExportRequest) (*model.FeatureCollection, error) {
	result, err := s.geometry.Filter(ctx, req.GeometryKey, req.Index, req.GeometryID, FilterOptions{WithCoordinates: true})
	if err != nil {
		return nil, err
	}

	fc := model.NewFeatureCollection()
	for _, m := range result.Matches {
		fc.AddFeature(model.NewPointFeature(m.Coord.Lon, m.Coord.Lat, map[string]interface{}{"id": m.Member}))
	}
	return fc, nil
}

// featureID extracts the mandatory id property as a string. Numeric ids
// are accepted and formatted.
func featureID(f model.Feature) (string, bool) {
	v, ok := f.Properties["id"]
	if !ok {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	}
	return "", false
}

// asPosition converts a decoded Point coordinates value to lon/lat.
func asPosition(v interface{}) (geo.Point, error) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) < 2 {
		return geo.Point{}, fmt.Errorf("point coordinates are not a [lon, lat] pair")
	}
	lon, okLon := pair[0].(float64)
	lat, okLat := pair[1].(float64)
	if !okLon || !okLat {
		return geo.Point{}, fmt.Errorf("point coordinates are not numeric")
	}
	return geo.Point{Lon: lon, Lat: lat}, nil
}

// asOuterRing converts decoded Polygon coordinates to a flattened outer
// ring; holes beyond the first ring are not supported and rejected.
func asOuterRing(v interface{}) ([]float64, error) {
	rings, ok := v.([]interface{})
	if !ok || len(rings) == 0 {
		return nil, fmt.Errorf("polygon coordinates hold no rings")
	}
	if len(rings) > 1 {
		return nil, fmt.Errorf("polygons with holes are not supported")
	}
	ring, ok := rings[0].([]interface{})
	if !ok {
		return nil, fmt.Errorf("polygon ring is not a coordinate list")
	}

	coords := make([]float64, 0, 2*len(ring))
	for _, rv := range ring {
		pt, err := asPosition(rv)
		if err != nil {
			return nil, err
		}
		coords = append(coords, pt.Lon, pt.Lat)
	}
	return coords, nil
}
