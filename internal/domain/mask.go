package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/dhconnelly/rtreego"
)

// indexedPolygon wraps a polygonal geometry for the r-tree.
type indexedPolygon struct {
	poly geom.Polygonal
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (p indexedPolygon) Bounds() rtreego.Rect { return p.rect }

const minRectExtent = 1e-12 // rtreego rejects zero-length rectangle sides

func polygonRect(p geom.Polygonal) (rtreego.Rect, error) {
	b := p.Bounds()
	return rtreego.NewRect(
		rtreego.Point{b.Min.X, b.Min.Y},
		[]float64{
			math.Max(b.Max.X-b.Min.X, minRectExtent),
			math.Max(b.Max.Y-b.Min.Y, minRectExtent),
		},
	)
}

// RasterizeMask burns the polygonal features of polys onto a width×height
// grid with the given transform. A cell is land iff its center lies inside
// any polygon; polygon holes subtract coverage (even-odd ring parity).
// The result is a set union over polygons, independent of feature order.
func RasterizeMask(polys *FeatureSet, width, height int, tr Transform) *Mask {
	mask := &Mask{
		Width:     width,
		Height:    height,
		Cells:     make([]bool, width*height),
		Transform: tr,
	}

	tree := rtreego.NewTree(2, 25, 50)
	for _, p := range polys.Polygonals() {
		rect, err := polygonRect(p)
		if err != nil {
			continue
		}
		tree.Insert(indexedPolygon{poly: p, rect: rect})
	}

	west := tr.OriginLon
	spanLon := math.Max(float64(width)*tr.CellW, minRectExtent)
	var crossings []float64
	for row := 0; row < height; row++ {
		_, lat := tr.CellCenter(row, 0)
		rowRect, err := rtreego.NewRect(
			rtreego.Point{west, lat - minRectExtent},
			[]float64{spanLon, 2 * minRectExtent},
		)
		if err != nil {
			continue
		}
		for _, hit := range tree.SearchIntersect(rowRect) {
			ip := hit.(indexedPolygon)
			crossings = ringCrossings(ip.poly, lat, crossings[:0])
			fillRow(mask, row, lat, crossings)
		}
	}
	return mask
}

// ringCrossings collects the longitudes at which the horizontal line at lat
// crosses any ring of the polygon, appended to dst. An even-odd fill over
// the sorted crossings reproduces polygon interiors with holes removed.
func ringCrossings(p geom.Polygonal, lat float64, dst []float64) []float64 {
	for _, poly := range p.Polygons() {
		for _, ring := range poly {
			n := len(ring)
			if n < 3 {
				continue
			}
			for i := 0; i < n; i++ {
				a := ring[i]
				b := ring[(i+1)%n]
				// Half-open rule: count an edge when exactly one endpoint is
				// strictly below the scanline, so vertices on the line are
				// not double-counted.
				if (a.Y <= lat) == (b.Y <= lat) {
					continue
				}
				x := a.X + (lat-a.Y)/(b.Y-a.Y)*(b.X-a.X)
				dst = append(dst, x)
			}
		}
	}
	return dst
}

// fillRow marks the cells of one row whose centers fall inside the even-odd
// intervals defined by the sorted crossings.
func fillRow(mask *Mask, row int, lat float64, crossings []float64) {
	if len(crossings) < 2 {
		return
	}
	sort.Float64s(crossings)
	tr := mask.Transform
	for i := 0; i+1 < len(crossings); i += 2 {
		x0, x1 := crossings[i], crossings[i+1]
		// First and last columns whose centers lie in [x0, x1].
		c0 := int(math.Ceil((x0-tr.OriginLon)/tr.CellW - 0.5))
		c1 := int(math.Floor((x1-tr.OriginLon)/tr.CellW - 0.5))
		if c0 < 0 {
			c0 = 0
		}
		if c1 > mask.Width-1 {
			c1 = mask.Width - 1
		}
		for c := c0; c <= c1; c++ {
			mask.Cells[row*mask.Width+c] = true
		}
	}
}

// ApplyMask returns a copy of grid with every land cell replaced by the
// NODATA sentinel. Sea cells are copied unchanged, including cells that
// were already NODATA, which makes the operation idempotent.
func ApplyMask(grid *RasterGrid, mask *Mask) (*RasterGrid, error) {
	if grid.Width != mask.Width || grid.Height != mask.Height {
		return nil, fmt.Errorf("%w: grid %dx%d vs mask %dx%d",
			ErrShapeMismatch, grid.Width, grid.Height, mask.Width, mask.Height)
	}
	if !grid.Transform.ApproxEqual(mask.Transform, 1e-9) {
		return nil, fmt.Errorf("%w: grid and mask transforms differ", ErrShapeMismatch)
	}

	out := &RasterGrid{
		Width:     grid.Width,
		Height:    grid.Height,
		Data:      make([]float64, len(grid.Data)),
		Transform: grid.Transform,
		CRS:       grid.CRS,
		NoData:    grid.NoData,
	}
	copy(out.Data, grid.Data)
	for i, land := range mask.Cells {
		if land {
			out.Data[i] = out.NoData
		}
	}
	return out, nil
}
