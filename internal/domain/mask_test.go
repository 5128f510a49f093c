package domain

import (
	"errors"
	"testing"

	"github.com/ctessum/geom"
)

func testGrid(t *testing.T, width, height int, depth float64) *RasterGrid {
	t.Helper()
	g := NewRasterGrid(BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, width, height)
	for i := range g.Data {
		g.Data[i] = depth
	}
	return g
}

func polygonSet(polys ...geom.Polygonal) *FeatureSet {
	fs := NewFeatureSet()
	for _, p := range polys {
		fs.Append(p, nil)
	}
	return fs
}

func rectPolygon(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}}
}

// TestRasterizeMask_LeftHalf tests the end-to-end masking scenario: a land
// polygon over the left half of the extent masks exactly the left-half
// cells, the right half keeps its depths.
func TestRasterizeMask_LeftHalf(t *testing.T) {
	grid := testGrid(t, 10, 10, -50.0)
	land := polygonSet(rectPolygon(0, 0, 0.5, 1))

	mask := RasterizeMask(land, grid.Width, grid.Height, grid.Transform)
	sea, err := ApplyMask(grid, mask)
	if err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}

	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			v := sea.At(row, col)
			if col < 5 && v != NoDataValue {
				t.Fatalf("cell (%d,%d) = %v, want NODATA (left half is land)", row, col, v)
			}
			if col >= 5 && v != -50.0 {
				t.Fatalf("cell (%d,%d) = %v, want -50 (right half is sea)", row, col, v)
			}
		}
	}
}

// TestRasterizeMask_Hole tests that polygon holes subtract coverage.
func TestRasterizeMask_Hole(t *testing.T) {
	// Land covering the whole extent with a hole over the middle.
	outer := rectPolygon(0, 0, 1, 1)[0]
	hole := rectPolygon(0.3, 0.3, 0.7, 0.7)[0]
	land := polygonSet(geom.Polygon{outer, hole})

	tr := TransformFromBounds(BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 10, 10)
	mask := RasterizeMask(land, 10, 10, tr)

	if !mask.At(0, 0) {
		t.Error("corner cell should be land")
	}
	if mask.At(5, 5) {
		t.Error("center cell inside the hole should be sea")
	}
}

// TestRasterizeMask_OrderIndependent tests set-union semantics: the mask
// is the same whichever order overlapping polygons arrive in.
func TestRasterizeMask_OrderIndependent(t *testing.T) {
	a := rectPolygon(0, 0, 0.6, 1)
	b := rectPolygon(0.4, 0, 1, 1)
	tr := TransformFromBounds(BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 16, 16)

	m1 := RasterizeMask(polygonSet(a, b), 16, 16, tr)
	m2 := RasterizeMask(polygonSet(b, a), 16, 16, tr)

	for i := range m1.Cells {
		if m1.Cells[i] != m2.Cells[i] {
			t.Fatalf("mask differs at cell %d depending on polygon order", i)
		}
		if !m1.Cells[i] {
			t.Fatalf("cell %d should be land (polygons cover the extent)", i)
		}
	}
}

// TestRasterizeMask_MultiPolygon tests that every part of a multi-polygon
// is burned.
func TestRasterizeMask_MultiPolygon(t *testing.T) {
	mp := geom.MultiPolygon{
		rectPolygon(0, 0, 0.2, 1),
		rectPolygon(0.8, 0, 1, 1),
	}
	tr := TransformFromBounds(BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}, 10, 10)
	mask := RasterizeMask(polygonSet(mp), 10, 10, tr)

	if !mask.At(5, 0) || !mask.At(5, 9) {
		t.Error("both multi-polygon parts should be land")
	}
	if mask.At(5, 5) {
		t.Error("gap between parts should be sea")
	}
}

// TestApplyMask_Idempotent tests that masking twice equals masking once.
func TestApplyMask_Idempotent(t *testing.T) {
	grid := testGrid(t, 8, 8, -25.0)
	land := polygonSet(rectPolygon(0, 0.5, 1, 1))
	mask := RasterizeMask(land, grid.Width, grid.Height, grid.Transform)

	once, err := ApplyMask(grid, mask)
	if err != nil {
		t.Fatalf("first ApplyMask: %v", err)
	}
	twice, err := ApplyMask(once, mask)
	if err != nil {
		t.Fatalf("second ApplyMask: %v", err)
	}

	for i := range once.Data {
		if once.Data[i] != twice.Data[i] {
			t.Fatalf("cell %d changed on second application: %v vs %v", i, once.Data[i], twice.Data[i])
		}
	}
}

// TestApplyMask_PreservesExistingNoData tests that cells already NODATA
// before masking stay NODATA.
func TestApplyMask_PreservesExistingNoData(t *testing.T) {
	grid := testGrid(t, 4, 4, -10.0)
	grid.Set(0, 3, NoDataValue) // pre-existing gap in the sea half
	land := polygonSet(rectPolygon(0, 0, 0.5, 1))
	mask := RasterizeMask(land, 4, 4, grid.Transform)

	sea, err := ApplyMask(grid, mask)
	if err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}
	if sea.At(0, 3) != NoDataValue {
		t.Error("pre-existing NODATA cell was overwritten")
	}
}

// TestApplyMask_ShapeMismatch tests the congruence precondition.
func TestApplyMask_ShapeMismatch(t *testing.T) {
	grid := testGrid(t, 4, 4, -10.0)
	wrong := &Mask{Width: 5, Height: 4, Cells: make([]bool, 20), Transform: grid.Transform}

	if _, err := ApplyMask(grid, wrong); err == nil {
		t.Fatal("expected shape mismatch error, got nil")
	} else if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("error %v does not wrap ErrShapeMismatch", err)
	}
}

// TestRasterizeMask_EdgeOnCellCenter tests the interval convention: a cell
// whose center sits exactly on a polygon's right edge counts as land.
func TestRasterizeMask_EdgeOnCellCenter(t *testing.T) {
	// 4 columns over [0,4], centers at 0.5, 1.5, 2.5, 3.5; the polygon's
	// right edge runs through the center of column 2.
	tr := TransformFromBounds(BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 4, MaxLat: 1}, 4, 1)
	land := polygonSet(rectPolygon(0, 0, 2.5, 1))

	mask := RasterizeMask(land, 4, 1, tr)
	want := []bool{true, true, true, false}
	for col, w := range want {
		if got := mask.At(0, col); got != w {
			t.Errorf("cell (0,%d) = %v, want %v", col, got, w)
		}
	}
}
