// Package interp implements raster interpolation for the pipeline: the
// Lanczos upsampler that brings the native EMODnet grid to print
// resolution, and a bilinear point sampler used for depth queries.
package interp

import (
	"fmt"
	"math"

	"go.ngs.io/oresund-charts/internal/domain"
)

// lanczosRadius is the kernel radius a. Radius 3 keeps the narrow diagonal
// channels of the strait free of the staircase aliasing that lower-order
// kernels produce at ~5× upsampling.
const lanczosRadius = 3

// lanczos evaluates the windowed sinc kernel L(x) for |x| <= a.
func lanczos(x float64) float64 {
	if x == 0 {
		return 1
	}
	ax := math.Abs(x)
	if ax >= lanczosRadius {
		return 0
	}
	px := math.Pi * x
	return lanczosRadius * math.Sin(px) * math.Sin(px/lanczosRadius) / (px * px)
}

// ResampleLanczos produces a grid of targetW×targetH cells spanning the
// same geographic extent as src, interpolated with a Lanczos-3 kernel.
//
// NODATA handling: source NODATA samples are excluded from the kernel sum
// and the remaining weights renormalised, so invalid cells never bleed
// into valid neighbours. An output cell whose entire support window is
// NODATA becomes NODATA.
func ResampleLanczos(src *domain.RasterGrid, targetW, targetH int) (*domain.RasterGrid, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("%w: non-positive target %dx%d", domain.ErrResample, targetW, targetH)
	}
	if src.Summary().Valid == 0 {
		return nil, fmt.Errorf("%w: source grid has no valid cells", domain.ErrResample)
	}

	out := domain.NewRasterGrid(src.Bounds(), targetW, targetH)
	out.CRS = src.CRS
	out.NoData = src.NoData

	scaleX := float64(src.Width) / float64(targetW)
	scaleY := float64(src.Height) / float64(targetH)

	// Per-axis kernel weights are precomputed once per output row/column;
	// the renormalisation below is per-cell because it depends on which
	// source samples are valid.
	colWeights, colIndex := axisWeights(targetW, src.Width, scaleX)
	rowWeights, rowIndex := axisWeights(targetH, src.Height, scaleY)

	for row := 0; row < targetH; row++ {
		rw := rowWeights[row]
		r0 := rowIndex[row]
		for col := 0; col < targetW; col++ {
			cw := colWeights[col]
			c0 := colIndex[col]

			sum, weight := 0.0, 0.0
			for i, wy := range rw {
				sr := r0 + i
				if sr < 0 || sr >= src.Height || wy == 0 {
					continue
				}
				rowBase := sr * src.Width
				for j, wx := range cw {
					sc := c0 + j
					if sc < 0 || sc >= src.Width || wx == 0 {
						continue
					}
					v := src.Data[rowBase+sc]
					if src.IsNoData(v) {
						continue
					}
					w := wy * wx
					sum += w * v
					weight += w
				}
			}
			if weight != 0 {
				out.Set(row, col, sum/weight)
			}
		}
	}
	return out, nil
}

// axisWeights precomputes, for each output index along one axis, the
// first source index of its support window and the kernel weight of each
// window sample. Source cell centers sit at i+0.5 in pixel space.
func axisWeights(targetN, srcN int, scale float64) ([][]float64, []int) {
	// Downsampling widens the kernel footprint by the scale factor.
	support := scale
	if support < 1 {
		support = 1
	}
	window := int(math.Ceil(lanczosRadius*support))*2 + 1

	weights := make([][]float64, targetN)
	first := make([]int, targetN)
	for i := 0; i < targetN; i++ {
		center := (float64(i)+0.5)*scale - 0.5
		start := int(math.Floor(center)) - window/2
		first[i] = start
		w := make([]float64, window)
		for k := 0; k < window; k++ {
			w[k] = lanczos((center - float64(start+k)) / support)
		}
		weights[i] = w
	}
	return weights, first
}
