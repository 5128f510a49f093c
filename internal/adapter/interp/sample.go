package interp

import (
	"fmt"
	"math"

	"go.ngs.io/oresund-charts/internal/domain"
)

// SampleBilinear interpolates the grid value at a geographic point from
// the four surrounding cell centers.
//
// Formula:
//
//	f(x,y) ≈ (1-t)(1-u)·v00 + t(1-u)·v10 + (1-t)u·v01 + tu·v11
//
// NODATA corners are dropped and the remaining weights renormalised; if
// all four corners are NODATA the grid's sentinel is returned. Points
// outside the grid extent are an error.
func SampleBilinear(g *domain.RasterGrid, lon, lat float64) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	if !g.Bounds().Contains(lon, lat) {
		return 0, fmt.Errorf("point (%.4f, %.4f) is outside grid extent %s", lon, lat, g.Bounds())
	}

	tr := g.Transform
	// Fractional cell-center coordinates.
	fx := (lon-tr.OriginLon)/tr.CellW - 0.5
	fy := (lat-tr.OriginLat)/tr.CellH - 0.5

	c0 := clampIndex(int(math.Floor(fx)), g.Width-1)
	r0 := clampIndex(int(math.Floor(fy)), g.Height-1)
	c1 := clampIndex(c0+1, g.Width-1)
	r1 := clampIndex(r0+1, g.Height-1)

	t := clamp01(fx - float64(c0))
	u := clamp01(fy - float64(r0))

	corners := [4]float64{g.At(r0, c0), g.At(r0, c1), g.At(r1, c0), g.At(r1, c1)}
	weights := [4]float64{(1 - t) * (1 - u), t * (1 - u), (1 - t) * u, t * u}

	sum, weight := 0.0, 0.0
	for i, v := range corners {
		if g.IsNoData(v) {
			continue
		}
		sum += weights[i] * v
		weight += weights[i]
	}
	if weight == 0 {
		return g.NoData, nil
	}
	return sum / weight, nil
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
