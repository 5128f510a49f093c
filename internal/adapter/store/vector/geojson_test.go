package vector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"

	"go.ngs.io/oresund-charts/internal/domain"
)

func writeAndDecode(t *testing.T, fs *domain.FeatureSet) FeatureCollection {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.geojson")
	if err := WriteGeoJSON(path, fs); err != nil {
		t.Fatalf("WriteGeoJSON: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	return fc
}

func TestWriteGeoJSON_PointFeature(t *testing.T) {
	fs := domain.NewFeatureSet()
	fs.Append(geom.Point{X: 12.5683, Y: 55.6761},
		map[string]any{"name": "København", "pop_max": 1153615.0})

	fc := writeAndDecode(t, fs)
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("got %s with %d features, want FeatureCollection with 1", fc.Type, len(fc.Features))
	}

	f := fc.Features[0]
	if f.Type != "Feature" || f.Geometry.Type != "Point" {
		t.Errorf("feature/geometry types = %s/%s", f.Type, f.Geometry.Type)
	}
	coords, ok := f.Geometry.Coordinates.([]any)
	if !ok || len(coords) != 2 {
		t.Fatalf("point coordinates = %v", f.Geometry.Coordinates)
	}
	// Lon/lat order.
	if coords[0].(float64) != 12.5683 || coords[1].(float64) != 55.6761 {
		t.Errorf("coordinates = %v, want [12.5683, 55.6761]", coords)
	}
	if f.Properties["name"] != "København" {
		t.Errorf("properties = %v", f.Properties)
	}
}

func TestWriteGeoJSON_ClosesOpenRings(t *testing.T) {
	open := geom.Polygon{{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2},
	}}
	fs := domain.NewFeatureSet()
	fs.Append(open, nil)

	fc := writeAndDecode(t, fs)
	ring := fc.Features[0].Geometry.Coordinates.([]any)[0].([]any)
	if len(ring) != 5 {
		t.Fatalf("ring has %d positions, want 5 (closed)", len(ring))
	}
	first := ring[0].([]any)
	last := ring[4].([]any)
	if first[0] != last[0] || first[1] != last[1] {
		t.Errorf("ring not closed: first %v, last %v", first, last)
	}
}

func TestWriteGeoJSON_MultiPolygon(t *testing.T) {
	mp := geom.MultiPolygon{
		{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}},
		{{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}, {X: 5, Y: 5}}},
	}
	fs := domain.NewFeatureSet()
	fs.Append(mp, nil)

	fc := writeAndDecode(t, fs)
	g := fc.Features[0].Geometry
	if g.Type != "MultiPolygon" {
		t.Fatalf("geometry type = %s", g.Type)
	}
	polys := g.Coordinates.([]any)
	if len(polys) != 2 {
		t.Errorf("got %d polygons, want 2", len(polys))
	}
}

func TestWriteGeoJSON_NilPropsBecomeEmptyObject(t *testing.T) {
	fs := domain.NewFeatureSet()
	fs.Append(geom.Point{X: 1, Y: 2}, nil)

	fc := writeAndDecode(t, fs)
	if fc.Features[0].Properties == nil {
		t.Error("properties should decode as an empty object, not null")
	}
}

func TestWriteGeoJSON_UnsupportedGeometry(t *testing.T) {
	fs := domain.NewFeatureSet()
	fs.Append(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 1}}, nil)

	path := filepath.Join(t.TempDir(), "out.geojson")
	if err := WriteGeoJSON(path, fs); err == nil {
		t.Fatal("expected error for unsupported geometry type")
	}
}
