package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/model"
	"github.com/yourname/geoplus/internal/store"
)

func geojsonFixture(t *testing.T) (*store.Memory, *GeoJSONService) {
	t.Helper()
	mem := store.NewMemory()
	return mem, NewGeoJSONService(mem, NewGeometryService(mem))
}

// decodeCollection round-trips a document through encoding/json so feature
// coordinates arrive as the untyped values the HTTP layer produces.
func decodeCollection(t *testing.T, doc string) model.FeatureCollection {
	t.Helper()
	var fc model.FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(doc), &fc))
	return fc
}

func TestImportPointsAndPolygons(t *testing.T) {
	mem, svc := geojsonFixture(t)

	fc := decodeCollection(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature",
			 "geometry": {"type": "Point", "coordinates": [13.361389, 38.115556]},
			 "properties": {"id": "Palermo"}},
			{"type": "Feature",
			 "geometry": {"type": "Polygon",
			              "coordinates": [[[0,0],[0,1],[1,1],[1,0],[0,0]]]},
			 "properties": {"id": "square"}}
		]
	}`)

	count, err := svc.Import(context.Background(), "points", "geoms", fc)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	positions, err := mem.MemberPosition(context.Background(), "points", "Palermo")
	require.NoError(t, err)
	require.NotNil(t, positions[0])
	assert.InDelta(t, 13.361389, positions[0].Lon, 1e-9)

	payload, err := mem.FieldGet(context.Background(), "geoms", "square")
	require.NoError(t, err)
	require.NotNil(t, payload)
	rec, err := model.DecodeGeometry(payload)
	require.NoError(t, err)
	assert.Equal(t, model.KindPolygon, rec.Kind)
}

func TestImportRejectsWrongTopLevelType(t *testing.T) {
	_, svc := geojsonFixture(t)

	fc := decodeCollection(t, `{"type": "Feature", "features": []}`)
	_, err := svc.Import(context.Background(), "points", "geoms", fc)
	assert.ErrorIs(t, err, ErrInvalidGeoJSON)
}

func TestImportRejectsFeatureWithoutID(t *testing.T) {
	_, svc := geojsonFixture(t)

	fc := decodeCollection(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature",
			 "geometry": {"type": "Point", "coordinates": [1, 2]},
			 "properties": {"name": "anonymous"}}
		]
	}`)
	_, err := svc.Import(context.Background(), "points", "geoms", fc)
	assert.ErrorIs(t, err, ErrInvalidGeoJSON)
}

func TestImportRejectsUnsupportedGeometryType(t *testing.T) {
	_, svc := geojsonFixture(t)

	fc := decodeCollection(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature",
			 "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]},
			 "properties": {"id": "l1"}}
		]
	}`)
	_, err := svc.Import(context.Background(), "points", "geoms", fc)
	assert.ErrorIs(t, err, ErrInvalidGeoJSON)
}

func TestImportAbortsWithoutPartialWrite(t *testing.T) {
	mem, svc := geojsonFixture(t)

	// Second feature is invalid: nothing may land in the store.
	fc := decodeCollection(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature",
			 "geometry": {"type": "Point", "coordinates": [1, 2]},
			 "properties": {"id": "ok"}},
			{"type": "Feature",
			 "geometry": {"type": "Point", "coordinates": [3, 4]},
			 "properties": {}}
		]
	}`)
	_, err := svc.Import(context.Background(), "points", "geoms", fc)
	require.ErrorIs(t, err, ErrInvalidGeoJSON)

	positions, err := mem.MemberPosition(context.Background(), "points", "ok")
	require.NoError(t, err)
	assert.Nil(t, positions[0])
}

func TestExportPositions(t *testing.T) {
	mem, svc := geojsonFixture(t)
	seedIndex(t, mem, "points",
		store.Member{Name: "Palermo", Point: geo.Point{Lon: 13.361389, Lat: 38.115556}},
	)

	fc, err := svc.Export(context.Background(), ExportRequest{
		Command: CmdPosition,
		Index:   "points",
		Members: []string{"Palermo", "missing"},
	})
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Palermo", fc.Features[0].Properties["id"])
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
}

func TestExportHashAttachesGeohash(t *testing.T) {
	mem, svc := geojsonFixture(t)
	seedIndex(t, mem, "points",
		store.Member{Name: "Palermo", Point: geo.Point{Lon: 13.361389, Lat: 38.115556}},
	)

	fc, err := svc.Export(context.Background(), ExportRequest{
		Command: CmdHash,
		Index:   "points",
		Members: []string{"Palermo"},
	})
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "sqc8b49rny0", fc.Features[0].Properties["geohash"])
}

func TestExportRadius(t *testing.T) {
	mem, svc := geojsonFixture(t)
	seedIndex(t, mem, "points",
		store.Member{Name: "near", Point: geo.Point{Lon: 0.01, Lat: 0.01}},
		store.Member{Name: "far", Point: geo.Point{Lon: 10, Lat: 10}},
	)

	fc, err := svc.Export(context.Background(), ExportRequest{
		Command:   CmdRadius,
		Index:     "points",
		Center:    &geo.Point{Lon: 0, Lat: 0},
		RadiusM:   5000,
		WithCoord: true,
		WithDist:  true,
		WithHash:  true,
	})
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	props := fc.Features[0].Properties
	assert.Equal(t, "near", props["id"])
	assert.Contains(t, props, "distance")
	assert.Contains(t, props, "rawhash")
	assert.Contains(t, props, "geohash")
}

func TestExportRadiusRequiresCoordinates(t *testing.T) {
	_, svc := geojsonFixture(t)

	_, err := svc.Export(context.Background(), ExportRequest{
		Command: CmdRadius,
		Index:   "points",
		Center:  &geo.Point{},
		RadiusM: 100,
	})
	assert.ErrorIs(t, err, ErrMissingCoordinates)
}

func TestExportRadiusByMember(t *testing.T) {
	mem, svc := geojsonFixture(t)
	seedIndex(t, mem, "points",
		store.Member{Name: "anchor", Point: geo.Point{Lon: 0, Lat: 0}},
		store.Member{Name: "near", Point: geo.Point{Lon: 0.01, Lat: 0}},
	)

	fc, err := svc.Export(context.Background(), ExportRequest{
		Command:   CmdRadiusByMember,
		Index:     "points",
		Member:    "anchor",
		RadiusM:   5000,
		WithCoord: true,
	})
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)
}

func TestExportGeometryFilter(t *testing.T) {
	mem, svc := geojsonFixture(t)
	_, err := svc.geometry.Upsert(context.Background(), "geoms", "Polygon", "square", squareRing)
	require.NoError(t, err)
	seedIndex(t, mem, "points",
		store.Member{Name: "inside", Point: geo.Point{Lon: 0.5, Lat: 0.5}},
		store.Member{Name: "outside", Point: geo.Point{Lon: 30, Lat: 30}},
	)

	fc, err := svc.Export(context.Background(), ExportRequest{
		Command:     CmdGeometryFilter,
		Index:       "points",
		GeometryKey: "geoms",
		GeometryID:  "square",
	})
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "inside", fc.Features[0].Properties["id"])
}

func TestExportUnsupportedCommand(t *testing.T) {
	_, svc := geojsonFixture(t)

	_, err := svc.Export(context.Background(), ExportRequest{Command: "georem", Index: "points"})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}
