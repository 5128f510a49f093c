// Package usecase wires the pipeline stages together: coverage acquisition,
// Lanczos upsampling, land masking, vector clipping and output writing.
package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"go.uber.org/zap"

	"go.ngs.io/oresund-charts/internal/adapter/cache"
	"go.ngs.io/oresund-charts/internal/adapter/fetch"
	"go.ngs.io/oresund-charts/internal/adapter/interp"
	"go.ngs.io/oresund-charts/internal/adapter/store/raster"
	"go.ngs.io/oresund-charts/internal/adapter/store/vector"
	"go.ngs.io/oresund-charts/internal/config"
	"go.ngs.io/oresund-charts/internal/domain"
)

// CoverageSource yields the native-resolution depth grid for a bbox.
// Satisfied by wcs.Client; tests substitute a local fake.
type CoverageSource interface {
	FetchCoverage(bbox domain.BoundingBox, width, height int) (*domain.RasterGrid, error)
}

// VectorSource yields the features of one ancillary layer. Satisfied by
// shapefileSource below; tests substitute a local fake.
type VectorSource interface {
	Load(layer config.VectorLayer, columns []string, pred domain.AttributePredicate) (*domain.FeatureSet, error)
}

// placeColumns are the Natural Earth attribute columns carried onto the
// populated-places output, keyed by output property name.
var placeColumns = map[string]string{
	"name":       "NAME",
	"pop_max":    "POP_MAX",
	"pop_min":    "POP_MIN",
	"adm0_a3":    "ADM0_A3",
	"featurecla": "FEATURECLA",
	"scalerank":  "SCALERANK",
}

// Pipeline is the one-shot batch job producing the Öresund chart data set.
type Pipeline struct {
	cfg      config.Config
	coverage CoverageSource
	vectors  VectorSource
	log      *zap.Logger
}

// NewPipeline assembles a pipeline from its collaborators. The coverage
// source is injected so tests can run against fakes; the vector source
// defaults to cached shapefile loading.
func NewPipeline(cfg config.Config, coverage CoverageSource, c *cache.Cache, f *fetch.Client, log *zap.Logger) *Pipeline {
	vectors := &shapefileSource{cache: c, fetcher: f, bbox: cfg.BBox, dataDir: cfg.DataDir}
	return &Pipeline{cfg: cfg, coverage: coverage, vectors: vectors, log: log}
}

// Run executes the full pipeline. Raster-path failures abort; optional
// vector layers are skipped with a warning.
func (p *Pipeline) Run() error {
	if err := p.cfg.BBox.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Depth raster: native fetch, then client-side Lanczos upsample.
	nativeW, nativeH := p.cfg.NativeSize()
	native, err := p.coverage.FetchCoverage(p.cfg.BBox, nativeW, nativeH)
	if err != nil {
		return err
	}
	p.log.Info("resampling to output grid",
		zap.Int("native_w", native.Width), zap.Int("native_h", native.Height),
		zap.Int("width", p.cfg.Width), zap.Int("height", p.cfg.Height))
	depth, err := interp.ResampleLanczos(native, p.cfg.Width, p.cfg.Height)
	if err != nil {
		return err
	}
	bathyPath := p.outPath("oresund_bathymetry.nc")
	if err := raster.Write(bathyPath, depth); err != nil {
		return err
	}
	p.log.Info("wrote depth raster", zap.String("path", bathyPath))

	// Land polygons: mandatory, they drive the sea mask.
	land, err := p.vectors.Load(p.cfg.Land, nil, nil)
	if err != nil {
		return err
	}
	p.log.Info("loaded land polygons", zap.Int("features", land.Len()))

	frame := bboxBoundary(p.cfg.BBox)
	clippedLand := domain.Clip(land, frame)
	landPath := p.outPath(p.cfg.Land.Name + ".geojson")
	if err := vector.WriteGeoJSON(landPath, clippedLand); err != nil {
		return err
	}
	p.log.Info("wrote land layer", zap.String("path", landPath), zap.Int("features", clippedLand.Len()))

	// Sea-only raster: land cells to NODATA.
	mask := domain.RasterizeMask(land, depth.Width, depth.Height, depth.Transform)
	sea, err := domain.ApplyMask(depth, mask)
	if err != nil {
		return err
	}
	seaPath := p.outPath("oresund_bathymetry_sea.nc")
	if err := raster.Write(seaPath, sea); err != nil {
		return err
	}
	p.log.Info("wrote masked depth raster", zap.String("path", seaPath))

	// Populated places: optional point layer with attributes.
	if err := p.runPlaces(frame); err != nil {
		if !p.cfg.Places.Optional {
			return err
		}
		p.log.Warn("skipping optional places layer", zap.Error(err))
	}

	stats := sea.Summary()
	p.log.Info("depth summary",
		zap.Int("sea_cells", stats.Valid),
		zap.Float64("min_m", stats.Min),
		zap.Float64("max_m", stats.Max),
		zap.Float64("mean_m", stats.Mean))
	return nil
}

func (p *Pipeline) runPlaces(frame *domain.FeatureSet) error {
	columns := make([]string, 0, len(placeColumns))
	for _, src := range placeColumns {
		columns = append(columns, src)
	}
	places, err := p.vectors.Load(p.cfg.Places, columns, nil)
	if err != nil {
		return err
	}
	renamePlaceProps(places)

	clipped := domain.Clip(places, frame)
	path := p.outPath(p.cfg.Places.Name + ".geojson")
	if err := vector.WriteGeoJSON(path, clipped); err != nil {
		return err
	}
	p.log.Info("wrote places layer", zap.String("path", path), zap.Int("features", clipped.Len()))
	return nil
}

// shapefileSource downloads (or reuses) a layer's archive, extracts its
// shapefile group and loads the features overlapping the run bbox.
type shapefileSource struct {
	cache   *cache.Cache
	fetcher *fetch.Client
	bbox    domain.BoundingBox
	dataDir string
}

func (s *shapefileSource) Load(layer config.VectorLayer, columns []string, pred domain.AttributePredicate) (*domain.FeatureSet, error) {
	key := filepath.Base(layer.ArchiveURL)
	archive, err := s.cache.Acquire(key, s.fetcher.URL(layer.ArchiveURL))
	if err != nil {
		return nil, err
	}
	paths, err := cache.ExtractMembers(archive, s.dataDir, layer.Stem)
	if err != nil {
		return nil, err
	}
	shpPath := ""
	for _, path := range paths {
		if strings.HasSuffix(path, ".shp") {
			shpPath = path
			break
		}
	}
	if shpPath == "" {
		return nil, fmt.Errorf("%w: no .shp member in %s", domain.ErrArchive, layer.ArchiveURL)
	}
	return vector.LoadShapefile(shpPath, s.bbox, columns, pred)
}

func (p *Pipeline) outPath(name string) string {
	return filepath.Join(p.cfg.DataDir, name)
}

// bboxBoundary wraps the run bbox as a one-polygon boundary set for the
// clipper, so ancillary layers are truncated at the map frame.
func bboxBoundary(b domain.BoundingBox) *domain.FeatureSet {
	fs := domain.NewFeatureSet()
	fs.Append(geom.Polygon{{
		{X: b.MinLon, Y: b.MinLat},
		{X: b.MaxLon, Y: b.MinLat},
		{X: b.MaxLon, Y: b.MaxLat},
		{X: b.MinLon, Y: b.MaxLat},
	}}, nil)
	return fs
}

// renamePlaceProps maps Natural Earth column names onto the documented
// output schema and drops everything else.
func renamePlaceProps(fs *domain.FeatureSet) {
	for i, f := range fs.Features {
		props := make(map[string]any, len(placeColumns))
		for out, src := range placeColumns {
			if v, ok := f.Props[src]; ok {
				props[out] = v
			}
		}
		fs.Features[i].Props = props
	}
}
