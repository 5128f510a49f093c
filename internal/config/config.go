// Package config carries the fixed run parameters of the Öresund pipeline.
// Everything is an explicit struct handed to each component, so tests can
// run the stages against synthetic grids and local fakes instead of the
// real remote services.
package config

import (
	"os"
	"path/filepath"

	"go.ngs.io/oresund-charts/internal/domain"
)

// Defaults for the Öresund region: 2× the strait's core extent, A3
// portrait at 150 dpi with the degree aspect ratio preserved
// (1.40°/1.60° = 0.875), EMODnet native grid 1/480° (~230 m).
const (
	DefaultWCSURL     = "https://ows.emodnet-bathymetry.eu/wcs"
	DefaultCoverageID = "emodnet:mean"

	DefaultGSHHGURL = "https://www.ngdc.noaa.gov/mgg/shorelines/data/gshhg/latest/gshhg-shp-2.3.7.zip"
	GSHHGStem       = "GSHHS_f_L1."

	DefaultPlacesURL = "https://naciscdn.org/naturalearth/10m/cultural/ne_10m_populated_places.zip"
	PlacesStem       = "ne_10m_populated_places."

	DefaultWidth  = 3508
	DefaultHeight = 4009

	NativeResolution = 1.0 / 480.0
)

// VectorLayer describes one ancillary vector output.
type VectorLayer struct {
	Name       string // output stem, e.g. "oresund_land"
	ArchiveURL string // zip holding the source shapefile group
	Stem       string // member prefix inside the archive
	Optional   bool   // skip with a warning on load failure instead of aborting
}

// Config is the full parameter set of one pipeline run.
type Config struct {
	BBox       domain.BoundingBox
	Width      int     // output raster width in pixels
	Height     int     // output raster height in pixels
	NativeRes  float64 // coverage grid spacing in degrees
	WCSURL     string
	CoverageID string

	Land   VectorLayer
	Places VectorLayer

	CacheDir string // downloaded artifacts, keyed by source
	DataDir  string // pipeline outputs and extracted shapefiles
}

// Default returns the Öresund production configuration, with cache and
// data directories taken from the environment when set.
func Default() Config {
	dataDir := getEnv("DATA_DIR", "./data")
	return Config{
		BBox:       domain.BoundingBox{MinLon: 11.95, MinLat: 54.90, MaxLon: 13.35, MaxLat: 56.50},
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		NativeRes:  NativeResolution,
		WCSURL:     getEnv("WCS_URL", DefaultWCSURL),
		CoverageID: getEnv("WCS_COVERAGE", DefaultCoverageID),
		Land: VectorLayer{
			Name:       "oresund_land",
			ArchiveURL: getEnv("GSHHG_ZIP_URL", DefaultGSHHGURL),
			Stem:       GSHHGStem,
		},
		Places: VectorLayer{
			Name:       "oresund_populated_places",
			ArchiveURL: getEnv("NE_PLACES_ZIP_URL", DefaultPlacesURL),
			Stem:       PlacesStem,
			Optional:   true,
		},
		CacheDir: getEnv("CACHE_DIR", filepath.Join(dataDir, "cache")),
		DataDir:  dataDir,
	}
}

// NativeSize computes the coverage request dimensions at native resolution.
func (c Config) NativeSize() (width, height int) {
	width = int(c.BBox.Width()/c.NativeRes + 0.5)
	height = int(c.BBox.Height()/c.NativeRes + 0.5)
	return width, height
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
