package vector

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ctessum/geom"

	"go.ngs.io/oresund-charts/internal/domain"
)

// FeatureCollection is the GeoJSON document structure written for vector
// outputs.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry carries the geometry type tag and nested coordinate arrays.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// WriteGeoJSON serialises a feature set as a GeoJSON FeatureCollection.
// Coordinates are emitted in lon/lat order; polygon rings are closed as
// the format requires.
func WriteGeoJSON(path string, fs *domain.FeatureSet) error {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, fs.Len())}
	for _, f := range fs.Features {
		g, err := encodeGeometry(f.Geom)
		if err != nil {
			return fmt.Errorf("encode feature: %w", err)
		}
		props := f.Props
		if props == nil {
			props = map[string]any{}
		}
		fc.Features = append(fc.Features, Feature{Type: "Feature", Geometry: g, Properties: props})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()
	if err := json.NewEncoder(file).Encode(fc); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func encodeGeometry(g geom.Geom) (Geometry, error) {
	switch gg := g.(type) {
	case geom.Point:
		return Geometry{Type: "Point", Coordinates: [2]float64{gg.X, gg.Y}}, nil
	case geom.Polygon:
		return Geometry{Type: "Polygon", Coordinates: encodePolygon(gg)}, nil
	case geom.MultiPolygon:
		coords := make([][][][2]float64, len(gg))
		for i, p := range gg {
			coords[i] = encodePolygon(p)
		}
		return Geometry{Type: "MultiPolygon", Coordinates: coords}, nil
	default:
		return Geometry{}, fmt.Errorf("unsupported geometry type %T", g)
	}
}

func encodePolygon(p geom.Polygon) [][][2]float64 {
	rings := make([][][2]float64, len(p))
	for i, ring := range p {
		closed := make([][2]float64, 0, len(ring)+1)
		for _, pt := range ring {
			closed = append(closed, [2]float64{pt.X, pt.Y})
		}
		// Close the ring if the source geometry leaves it open.
		if n := len(closed); n > 0 && closed[0] != closed[n-1] {
			closed = append(closed, closed[0])
		}
		rings[i] = closed
	}
	return rings
}
