package domain

import (
	"github.com/ctessum/geom"
)

// BoundaryUnion merges the polygonal features of boundary into a single
// polygonal geometry. Returns nil when the boundary holds no polygons.
func BoundaryUnion(boundary *FeatureSet) geom.Polygonal {
	var union geom.Polygonal
	for _, p := range boundary.Polygonals() {
		if union == nil {
			union = p
			continue
		}
		union = union.Union(p)
	}
	return union
}

// Clip intersects every feature of fs with the union of the boundary
// polygons.
//
// Polygonal features are replaced by their geometric intersection with the
// boundary; features whose intersection is empty are dropped. The boolean
// operation rebuilds rings from scratch, which also repairs the
// self-touching rings common in raw shoreline data. Attributes are carried
// over unchanged.
//
// Point features are kept only when they lie inside the boundary union;
// a point exactly on the boundary is kept (inclusive convention).
func Clip(fs *FeatureSet, boundary *FeatureSet) *FeatureSet {
	out := &FeatureSet{CRS: fs.CRS}
	union := BoundaryUnion(boundary)
	if union == nil {
		return out
	}

	for _, f := range fs.Features {
		switch g := f.Geom.(type) {
		case geom.Point:
			if g.Within(union) != geom.Outside {
				out.Append(g, f.Props)
			}
		case geom.Polygonal:
			clipped := g.Intersection(union)
			if clipped == nil || clipped.Area() == 0 {
				continue
			}
			out.Append(clipped, f.Props)
		default:
			// Other geometry kinds pass through untouched when they overlap
			// the boundary's extent.
			if f.Geom.Bounds().Overlaps(union.Bounds()) {
				out.Append(f.Geom, f.Props)
			}
		}
	}
	return out
}
