package model

import (
	"encoding/json"
	"testing"
)

func TestPointFeatureJSON(t *testing.T) {
	fc := NewFeatureCollection()
	fc.AddFeature(NewPointFeature(13.361389, 38.115556, map[string]interface{}{"id": "Palermo"}))

	raw, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed FeatureCollection
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Type != "FeatureCollection" || len(parsed.Features) != 1 {
		t.Fatalf("parsed %+v, want one-feature collection", parsed)
	}
	f := parsed.Features[0]
	if f.Geometry.Type != "Point" || f.Properties["id"] != "Palermo" {
		t.Errorf("feature = %+v, want Point with id Palermo", f)
	}
}

func TestPolygonFeatureFromRing(t *testing.T) {
	f := PolygonFeatureFromRing(squareRing, map[string]interface{}{"id": "square"})

	if f.Geometry.Type != "Polygon" {
		t.Fatalf("geometry type = %q, want Polygon", f.Geometry.Type)
	}
	rings, ok := f.Geometry.Coordinates.([][]Position)
	if !ok || len(rings) != 1 {
		t.Fatalf("coordinates %T, want one ring", f.Geometry.Coordinates)
	}
	if len(rings[0]) != 5 {
		t.Errorf("ring has %d positions, want 5", len(rings[0]))
	}
	if rings[0][0] != rings[0][4] {
		t.Errorf("ring not closed: %v != %v", rings[0][0], rings[0][4])
	}
}
