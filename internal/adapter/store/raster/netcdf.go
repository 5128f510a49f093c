// Package raster reads and writes georeferenced depth grids as CF-style
// NetCDF: lat/lon coordinate variables holding cell centers, a depth
// variable with a _FillValue, and a global crs attribute. Downstream GIS
// tools pick up the georeferencing without re-deriving it.
package raster

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/oresund-charts/internal/domain"
)

const depthVarName = "depth"

// Read decodes a NetCDF dataset into a RasterGrid. All fill values and
// NaNs are normalised to the pipeline's NODATA sentinel, and rows are
// reordered so row 0 is the northern edge regardless of the latitude axis
// direction in the file.
func Read(path string) (*domain.RasterGrid, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open netcdf %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	lats, err := readCoord(nc, "lat", "latitude", "y")
	if err != nil {
		return nil, err
	}
	lons, err := readCoord(nc, "lon", "longitude", "x")
	if err != nil {
		return nil, err
	}
	if len(lats) < 2 || len(lons) < 2 {
		return nil, fmt.Errorf("degenerate coordinate axes %dx%d", len(lons), len(lats))
	}

	dataVar, err := findVar(nc, depthVarName, "elevation", "Band1", "z", "data")
	if err != nil {
		return nil, err
	}
	values, err := readValues(dataVar, len(lats), len(lons))
	if err != nil {
		return nil, err
	}

	fill, hasFill := fillValue(dataVar)

	// Cell size from center spacing; origin is half a cell outside the
	// first center.
	cellW := (lons[len(lons)-1] - lons[0]) / float64(len(lons)-1)
	cellH := (lats[len(lats)-1] - lats[0]) / float64(len(lats)-1)
	northUp := cellH < 0
	if !northUp {
		cellH = -cellH
	}

	grid := &domain.RasterGrid{
		Width:  len(lons),
		Height: len(lats),
		Data:   make([]float64, len(lons)*len(lats)),
		Transform: domain.Transform{
			OriginLon: lons[0] - cellW/2,
			OriginLat: max(lats[0], lats[len(lats)-1]) + cellH/2,
			CellW:     cellW,
			CellH:     -cellH,
		},
		CRS:    domain.CRSWGS84,
		NoData: domain.NoDataValue,
	}

	for row := 0; row < grid.Height; row++ {
		srcRow := row
		if !northUp {
			srcRow = grid.Height - 1 - row
		}
		for col := 0; col < grid.Width; col++ {
			v := values[srcRow*grid.Width+col]
			if math.IsNaN(v) || (hasFill && v == fill) {
				v = domain.NoDataValue
			}
			grid.Data[row*grid.Width+col] = v
		}
	}
	return grid, nil
}

// Write encodes grid to path, overwriting any previous file. The NODATA
// sentinel is declared as _FillValue on the depth variable.
func Write(path string, grid *domain.RasterGrid) error {
	if err := grid.Validate(); err != nil {
		return err
	}

	nc, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("create netcdf %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	latDim, err := nc.AddDim("lat", uint64(grid.Height))
	if err != nil {
		return err
	}
	lonDim, err := nc.AddDim("lon", uint64(grid.Width))
	if err != nil {
		return err
	}

	// Coordinate variables hold cell centers, north to south, matching the
	// in-memory row order.
	lats := make([]float64, grid.Height)
	for i := range lats {
		_, lats[i] = grid.Transform.CellCenter(i, 0)
	}
	lons := make([]float64, grid.Width)
	for j := range lons {
		lons[j], _ = grid.Transform.CellCenter(0, j)
	}

	latVar, err := nc.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	if err := writeTextAttrs(latVar, map[string]string{
		"units": "degrees_north", "standard_name": "latitude",
	}); err != nil {
		return err
	}

	lonVar, err := nc.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	if err := writeTextAttrs(lonVar, map[string]string{
		"units": "degrees_east", "standard_name": "longitude",
	}); err != nil {
		return err
	}

	depthVar, err := nc.AddVar(depthVarName, netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim})
	if err != nil {
		return err
	}
	if err := writeTextAttrs(depthVar, map[string]string{
		"units": "m", "long_name": "sea floor depth below mean sea level",
	}); err != nil {
		return err
	}
	if err := depthVar.Attr("_FillValue").WriteFloat64s([]float64{grid.NoData}); err != nil {
		return err
	}

	if err := writeTextAttrs(nc, map[string]string{
		"Conventions": "CF-1.8",
		"crs":         grid.CRS,
	}); err != nil {
		return err
	}

	if err := latVar.WriteFloat64s(lats); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lons); err != nil {
		return err
	}
	return depthVar.WriteFloat64s(grid.Data)
}

type attrGetter interface {
	Attr(name string) netcdf.Attr
}

func writeTextAttrs(target attrGetter, attrs map[string]string) error {
	for name, value := range attrs {
		if err := target.Attr(name).WriteBytes([]byte(value)); err != nil {
			return fmt.Errorf("write attribute %s: %w", name, err)
		}
	}
	return nil
}

func findVar(nc netcdf.Dataset, names ...string) (netcdf.Var, error) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, nil
		}
	}
	return netcdf.Var{}, fmt.Errorf("no variable found (tried: %v)", names)
}

func readCoord(nc netcdf.Dataset, names ...string) ([]float64, error) {
	v, err := findVar(nc, names...)
	if err != nil {
		return nil, err
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("coordinate variable must be 1D, got %dD", len(dims))
	}
	n, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	data := make([]float64, n)
	if err := v.ReadFloat64s(data); err != nil {
		return nil, err
	}
	return data, nil
}

// readValues reads the 2D data variable as float64 regardless of its
// stored type, transposing when the file is [lon, lat] ordered.
func readValues(v netcdf.Var, nLat, nLon int) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected 2D data, got %dD", len(dims))
	}
	dim0, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	dim1, err := dims[1].Len()
	if err != nil {
		return nil, err
	}

	flat, err := readFlat(v, int(dim0)*int(dim1))
	if err != nil {
		return nil, err
	}

	switch {
	case dim0 == uint64(nLat) && dim1 == uint64(nLon):
		return flat, nil
	case dim0 == uint64(nLon) && dim1 == uint64(nLat):
		out := make([]float64, nLat*nLon)
		for i := 0; i < nLon; i++ {
			for j := 0; j < nLat; j++ {
				out[j*nLon+i] = flat[i*nLat+j]
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("dimension mismatch: data is [%d, %d], axes are [%d, %d]",
			dim0, dim1, nLat, nLon)
	}
}

func readFlat(v netcdf.Var, n int) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	switch varType {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := v.ReadFloat32s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := v.ReadInt16s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.INT:
		buf := make([]int32, n)
		if err := v.ReadInt32s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("unsupported data type %v", varType)
	}
	return out, nil
}

// fillValue extracts the declared fill value, trying the CF attribute
// first and the COARDS spelling second.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		attr := v.Attr(name)
		if n, err := attr.Len(); err != nil || n == 0 {
			continue
		}
		buf := make([]float64, 1)
		if err := attr.ReadFloat64s(buf); err == nil {
			return buf[0], true
		}
	}
	return 0, false
}
