package domain

import (
	"github.com/ctessum/geom"
)

// Feature pairs a geometry with its attribute mapping. Attribute values are
// scalars (string or float64) as decoded from the source attribute table.
type Feature struct {
	Geom  geom.Geom
	Props map[string]any
}

// FeatureSet is an ordered collection of features sharing one CRS.
type FeatureSet struct {
	CRS      string
	Features []Feature
}

// NewFeatureSet returns an empty set in geographic WGS84.
func NewFeatureSet() *FeatureSet {
	return &FeatureSet{CRS: CRSWGS84}
}

// Len returns the number of features.
func (fs *FeatureSet) Len() int { return len(fs.Features) }

// Append adds a feature, keeping source order.
func (fs *FeatureSet) Append(g geom.Geom, props map[string]any) {
	fs.Features = append(fs.Features, Feature{Geom: g, Props: props})
}

// Polygonals returns the polygonal geometries of the set, skipping points
// and anything else that has no area.
func (fs *FeatureSet) Polygonals() []geom.Polygonal {
	var polys []geom.Polygonal
	for _, f := range fs.Features {
		if p, ok := f.Geom.(geom.Polygonal); ok {
			polys = append(polys, p)
		}
	}
	return polys
}

// AttributePredicate filters features by their attribute mapping during
// loading. A nil predicate keeps everything.
type AttributePredicate func(props map[string]any) bool
