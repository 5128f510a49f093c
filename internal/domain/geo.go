// Package domain holds the core geospatial types and grid operations for
// the Öresund chart pipeline: bounding box, affine raster georeferencing,
// depth grids, land masks, vector feature sets and the error taxonomy.
package domain

import (
	"fmt"
	"math"
)

// NoDataValue is the sentinel written into raster cells that carry no valid
// depth measurement. It never occurs as a real sample (EMODnet depths are
// within a few km of zero).
const NoDataValue = -9999.0

// CRSWGS84 identifies geographic WGS84 coordinates, the single CRS used by
// every pipeline stage after loading.
const CRSWGS84 = "EPSG:4326"

// BoundingBox is a geographic extent in degrees.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Validate checks that the box is non-degenerate.
func (b BoundingBox) Validate() error {
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("bounding box: min lon %.4f must be < max lon %.4f", b.MinLon, b.MaxLon)
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("bounding box: min lat %.4f must be < max lat %.4f", b.MinLat, b.MaxLat)
	}
	return nil
}

// Width returns the longitudinal span in degrees.
func (b BoundingBox) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the latitudinal span in degrees.
func (b BoundingBox) Height() float64 { return b.MaxLat - b.MinLat }

// Contains reports whether (lon, lat) lies inside the box, edges included.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// String formats the box in WCS order (minX,minY,maxX,maxY).
func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Transform is a north-up affine pixel→geographic mapping. Row 0 is the
// northern edge of the raster, so CellH is negative.
type Transform struct {
	OriginLon float64 // longitude of the west edge of column 0
	OriginLat float64 // latitude of the north edge of row 0
	CellW     float64 // cell width in degrees (positive)
	CellH     float64 // cell height in degrees (negative)
}

// TransformFromBounds derives the affine transform of a width×height grid
// spanning exactly the given extent.
func TransformFromBounds(b BoundingBox, width, height int) Transform {
	return Transform{
		OriginLon: b.MinLon,
		OriginLat: b.MaxLat,
		CellW:     b.Width() / float64(width),
		CellH:     -b.Height() / float64(height),
	}
}

// CellCenter returns the geographic coordinate of the center of cell
// (row, col).
func (t Transform) CellCenter(row, col int) (lon, lat float64) {
	lon = t.OriginLon + (float64(col)+0.5)*t.CellW
	lat = t.OriginLat + (float64(row)+0.5)*t.CellH
	return lon, lat
}

// Bounds computes the geographic extent implied by the transform and a grid
// shape.
func (t Transform) Bounds(width, height int) BoundingBox {
	return BoundingBox{
		MinLon: t.OriginLon,
		MaxLon: t.OriginLon + float64(width)*t.CellW,
		MinLat: t.OriginLat + float64(height)*t.CellH,
		MaxLat: t.OriginLat,
	}
}

// ApproxEqual reports whether two transforms agree to within tol degrees in
// origin and cell size.
func (t Transform) ApproxEqual(o Transform, tol float64) bool {
	return math.Abs(t.OriginLon-o.OriginLon) <= tol &&
		math.Abs(t.OriginLat-o.OriginLat) <= tol &&
		math.Abs(t.CellW-o.CellW) <= tol &&
		math.Abs(t.CellH-o.CellH) <= tol
}

// RasterGrid is a georeferenced 2D array of depth values in metres.
// Data is row-major with row 0 at the northern edge.
type RasterGrid struct {
	Width     int
	Height    int
	Data      []float64
	Transform Transform
	CRS       string
	NoData    float64
}

// NewRasterGrid allocates a grid of the given shape spanning bounds, with
// every cell initialised to the NODATA sentinel.
func NewRasterGrid(b BoundingBox, width, height int) *RasterGrid {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = NoDataValue
	}
	return &RasterGrid{
		Width:     width,
		Height:    height,
		Data:      data,
		Transform: TransformFromBounds(b, width, height),
		CRS:       CRSWGS84,
		NoData:    NoDataValue,
	}
}

// Validate checks the shape invariant.
func (g *RasterGrid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("raster grid: non-positive shape %dx%d", g.Width, g.Height)
	}
	if len(g.Data) != g.Width*g.Height {
		return fmt.Errorf("raster grid: %d values for %dx%d grid", len(g.Data), g.Width, g.Height)
	}
	return nil
}

// At returns the value of cell (row, col).
func (g *RasterGrid) At(row, col int) float64 {
	return g.Data[row*g.Width+col]
}

// Set assigns the value of cell (row, col).
func (g *RasterGrid) Set(row, col int, v float64) {
	g.Data[row*g.Width+col] = v
}

// IsNoData reports whether v is the grid's NODATA sentinel (or NaN, which
// some coverage servers emit instead of a fill value).
func (g *RasterGrid) IsNoData(v float64) bool {
	return math.IsNaN(v) || v == g.NoData
}

// Bounds returns the geographic extent covered by the grid.
func (g *RasterGrid) Bounds() BoundingBox {
	return g.Transform.Bounds(g.Width, g.Height)
}

// Stats summarises the valid cells of a grid.
type Stats struct {
	Valid int
	Min   float64
	Max   float64
	Mean  float64
}

// Summary computes min/max/mean over the valid (non-NODATA) cells.
func (g *RasterGrid) Summary() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		s.Valid++
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	if s.Valid > 0 {
		s.Mean = sum / float64(s.Valid)
	} else {
		s.Min, s.Max = 0, 0
	}
	return s
}

// Mask is a boolean grid congruent with a RasterGrid; true marks land.
type Mask struct {
	Width     int
	Height    int
	Cells     []bool
	Transform Transform
}

// At returns the mask value of cell (row, col).
func (m *Mask) At(row, col int) bool {
	return m.Cells[row*m.Width+col]
}
