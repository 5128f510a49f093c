// Package vector loads shapefile features and writes GeoJSON feature
// collections for the pipeline's ancillary layers.
package vector

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"golang.org/x/text/encoding/charmap"

	"go.ngs.io/oresund-charts/internal/domain"
)

// longlatWGS84 is the proj4 definition of the pipeline CRS.
const longlatWGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// LoadShapefile reads features from path whose bounds overlap bbox,
// optionally filtered by an attribute predicate, and returns them in
// geographic WGS84. Geometries are only filtered here, never clipped.
//
// attrColumns names the attribute-table columns to decode; numeric values
// are stored as float64, everything else as (recoded) strings. Sources in
// a projected CRS are transformed at load time.
func LoadShapefile(path string, bbox domain.BoundingBox, attrColumns []string, pred domain.AttributePredicate) (*domain.FeatureSet, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrVectorLoad, path, err)
	}
	defer dec.Close()

	trans, err := transformToWGS84(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrVectorLoad, path, err)
	}

	recode := attrRecoder(path)
	window := &geom.Bounds{
		Min: geom.Point{X: bbox.MinLon, Y: bbox.MinLat},
		Max: geom.Point{X: bbox.MaxLon, Y: bbox.MaxLat},
	}

	fs := domain.NewFeatureSet()
	for {
		g, fields, more := dec.DecodeRowFields(attrColumns...)
		if !more {
			break
		}
		if g == nil {
			continue
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("%w: reproject %s: %v", domain.ErrVectorLoad, path, err)
			}
		}
		if !window.Overlaps(g.Bounds()) {
			continue
		}
		props := decodeProps(fields, recode)
		if pred != nil && !pred(props) {
			continue
		}
		fs.Append(g, props)
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrVectorLoad, path, err)
	}
	return fs, nil
}

// transformToWGS84 builds the source→WGS84 transform, or nil when the
// source is already geographic. Shapefiles without a .prj sidecar are
// assumed to be WGS84 already (GSHHG ships that way for some releases).
func transformToWGS84(dec *shp.Decoder) (proj.Transformer, error) {
	srcSR, err := dec.SR()
	if err != nil {
		return nil, nil
	}
	wgs84, err := proj.Parse(longlatWGS84)
	if err != nil {
		return nil, err
	}
	if srcSR.Name == "longlat" {
		return nil, nil
	}
	return srcSR.NewTransform(wgs84)
}

// decodeProps converts field strings to scalars: numbers become float64,
// the rest stay strings after encoding repair.
func decodeProps(fields map[string]string, recode func(string) string) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	props := make(map[string]any, len(fields))
	for name, raw := range fields {
		raw = strings.TrimSpace(raw)
		if n, err := strconv.ParseFloat(raw, 64); err == nil && raw != "" {
			props[name] = n
			continue
		}
		props[name] = recode(raw)
	}
	return props
}

// attrRecoder inspects the .cpg sidecar and returns a string decoder for
// the attribute table. Natural Earth ships UTF-8, but older cultural data
// uses Latin-1 or Windows-1252, which would mangle Nordic place names.
func attrRecoder(shpPath string) func(string) string {
	identity := func(s string) string { return s }
	cpg, err := os.ReadFile(strings.TrimSuffix(shpPath, ".shp") + ".cpg")
	if err != nil {
		return identity
	}
	enc := strings.ToUpper(strings.TrimSpace(string(cpg)))
	var cm *charmap.Charmap
	switch {
	case strings.Contains(enc, "8859-1"), strings.Contains(enc, "88591"):
		cm = charmap.ISO8859_1
	case strings.Contains(enc, "1252"):
		cm = charmap.Windows1252
	default:
		return identity
	}
	dec := cm.NewDecoder()
	return func(s string) string {
		out, err := dec.String(s)
		if err != nil {
			return s
		}
		return out
	}
}
