// Package http exposes the generated chart data over a small preview API:
// point depth queries against the masked raster and the GeoJSON layers as
// produced by the pipeline.
package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"go.ngs.io/oresund-charts/internal/adapter/interp"
	"go.ngs.io/oresund-charts/internal/domain"
)

// layerFiles whitelists the GeoJSON outputs the API will serve.
var layerFiles = map[string]string{
	"land":   "oresund_land.geojson",
	"places": "oresund_populated_places.geojson",
}

// Handler serves preview queries over the pipeline outputs.
type Handler struct {
	sea     *domain.RasterGrid // masked depth raster, land cells NODATA
	dataDir string
}

// NewHandler creates a handler over the masked depth grid and the output
// directory holding the vector layers.
func NewHandler(sea *domain.RasterGrid, dataDir string) *Handler {
	return &Handler{sea: sea, dataDir: dataDir}
}

// GetDepth handles GET /v1/depth?lat=&lon=.
func (h *Handler) GetDepth(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	depth, err := interp.SampleBilinear(h.sea, lon, lat)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"lat": lat, "lon": lon, "crs": h.sea.CRS}
	if h.sea.IsNoData(depth) {
		// Masked cells are land (or gaps in the coverage).
		resp["land"] = true
	} else {
		resp["land"] = false
		resp["depth_m"] = depth
	}
	c.JSON(http.StatusOK, resp)
}

// GetLayer handles GET /v1/layers/:name, serving a generated GeoJSON file.
func (h *Handler) GetLayer(c *gin.Context) {
	name := c.Param("name")
	file, ok := layerFiles[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown layer %q", name)})
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.File(filepath.Join(h.dataDir, file))
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"grid":   fmt.Sprintf("%dx%d", h.sea.Width, h.sea.Height),
		"bounds": h.sea.Bounds().String(),
	})
}
