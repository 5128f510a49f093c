package usecase

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"go.ngs.io/oresund-charts/internal/config"
	"go.ngs.io/oresund-charts/internal/domain"
)

// fakeCoverage serves a uniform depth grid at whatever size is requested.
type fakeCoverage struct {
	depth float64
}

func (f *fakeCoverage) FetchCoverage(bbox domain.BoundingBox, width, height int) (*domain.RasterGrid, error) {
	g := domain.NewRasterGrid(bbox, width, height)
	for i := range g.Data {
		g.Data[i] = f.depth
	}
	return g, nil
}

// fakeVectors serves canned feature sets (or errors) per layer name.
type fakeVectors struct {
	sets map[string]*domain.FeatureSet
	errs map[string]error
}

func (f *fakeVectors) Load(layer config.VectorLayer, columns []string, pred domain.AttributePredicate) (*domain.FeatureSet, error) {
	if err := f.errs[layer.Name]; err != nil {
		return nil, err
	}
	return f.sets[layer.Name], nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		BBox:      domain.BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1},
		Width:     20,
		Height:    20,
		NativeRes: 0.1,
		Land:      config.VectorLayer{Name: "oresund_land"},
		Places:    config.VectorLayer{Name: "oresund_populated_places", Optional: true},
		DataDir:   t.TempDir(),
	}
}

// leftHalfLand covers the western half of the unit extent.
func leftHalfLand() *domain.FeatureSet {
	fs := domain.NewFeatureSet()
	fs.Append(geom.Polygon{{
		{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1},
	}}, nil)
	return fs
}

func TestRun_ProducesOutputs(t *testing.T) {
	cfg := testConfig(t)
	places := domain.NewFeatureSet()
	places.Append(geom.Point{X: 0.75, Y: 0.5}, map[string]any{"NAME": "Ven"})

	p := &Pipeline{
		cfg:      cfg,
		coverage: &fakeCoverage{depth: -50},
		vectors: &fakeVectors{sets: map[string]*domain.FeatureSet{
			"oresund_land":             leftHalfLand(),
			"oresund_populated_places": places,
		}},
		log: zap.NewNop(),
	}
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{
		"oresund_bathymetry.nc",
		"oresund_bathymetry_sea.nc",
		"oresund_land.geojson",
		"oresund_populated_places.geojson",
	} {
		if _, err := os.Stat(filepath.Join(cfg.DataDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

// TestRun_SkipsOptionalLayer tests the per-layer failure policy: a broken
// optional layer is skipped, the raster outputs still land on disk.
func TestRun_SkipsOptionalLayer(t *testing.T) {
	cfg := testConfig(t)
	p := &Pipeline{
		cfg:      cfg,
		coverage: &fakeCoverage{depth: -50},
		vectors: &fakeVectors{
			sets: map[string]*domain.FeatureSet{"oresund_land": leftHalfLand()},
			errs: map[string]error{"oresund_populated_places": errors.New("attribute table truncated")},
		},
		log: zap.NewNop(),
	}
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.DataDir, "oresund_bathymetry_sea.nc")); err != nil {
		t.Errorf("masked raster missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "oresund_populated_places.geojson")); !os.IsNotExist(err) {
		t.Error("failed optional layer must not leave an output file")
	}
}

func TestRun_MandatoryLayerAborts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Places.Optional = false

	loadErr := errors.New("attribute table truncated")
	p := &Pipeline{
		cfg:      cfg,
		coverage: &fakeCoverage{depth: -50},
		vectors: &fakeVectors{
			sets: map[string]*domain.FeatureSet{"oresund_land": leftHalfLand()},
			errs: map[string]error{"oresund_populated_places": loadErr},
		},
		log: zap.NewNop(),
	}
	if err := p.Run(); !errors.Is(err, loadErr) {
		t.Fatalf("Run error = %v, want the layer load error", err)
	}
}

func TestBboxBoundary(t *testing.T) {
	bbox := domain.BoundingBox{MinLon: 11.95, MinLat: 54.90, MaxLon: 13.35, MaxLat: 56.50}
	frame := bboxBoundary(bbox)

	if frame.Len() != 1 {
		t.Fatalf("frame has %d features, want 1", frame.Len())
	}
	poly, ok := frame.Features[0].Geom.(geom.Polygon)
	if !ok {
		t.Fatalf("frame geometry is %T, want geom.Polygon", frame.Features[0].Geom)
	}
	if got, want := poly.Area(), bbox.Width()*bbox.Height(); math.Abs(got-want) > 1e-9 {
		t.Errorf("frame area = %v, want %v", got, want)
	}

	b := poly.Bounds()
	if b.Min.X != bbox.MinLon || b.Min.Y != bbox.MinLat || b.Max.X != bbox.MaxLon || b.Max.Y != bbox.MaxLat {
		t.Errorf("frame bounds %+v do not match bbox %+v", b, bbox)
	}
}

func TestRenamePlaceProps(t *testing.T) {
	fs := domain.NewFeatureSet()
	fs.Append(geom.Point{X: 12.57, Y: 55.68}, map[string]any{
		"NAME":       "Copenhagen",
		"POP_MAX":    1153615.0,
		"POP_MIN":    1085000.0,
		"ADM0_A3":    "DNK",
		"FEATURECLA": "Admin-0 capital",
		"SCALERANK":  0.0,
		"GEONAMEID":  2618425.0, // not part of the output schema
	})
	fs.Append(geom.Point{X: 13.00, Y: 55.61}, map[string]any{
		"NAME": "Malmö", // sparse rows keep only what they have
	})

	renamePlaceProps(fs)

	want := map[string]any{
		"name":       "Copenhagen",
		"pop_max":    1153615.0,
		"pop_min":    1085000.0,
		"adm0_a3":    "DNK",
		"featurecla": "Admin-0 capital",
		"scalerank":  0.0,
	}
	if diff := cmp.Diff(want, fs.Features[0].Props); diff != "" {
		t.Errorf("renamed props mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"name": "Malmö"}, fs.Features[1].Props); diff != "" {
		t.Errorf("sparse props mismatch (-want +got):\n%s", diff)
	}
}
