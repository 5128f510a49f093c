// Package wcs acquires bathymetry coverage subsets from a WCS 1.0.0
// endpoint (EMODnet Bathymetry in production). Responses are cached on
// disk and decoded through the raster store.
package wcs

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"go.ngs.io/oresund-charts/internal/adapter/cache"
	"go.ngs.io/oresund-charts/internal/adapter/fetch"
	"go.ngs.io/oresund-charts/internal/adapter/store/raster"
	"go.ngs.io/oresund-charts/internal/domain"
)

// Client requests coverage subsets for a fixed coverage identifier.
type Client struct {
	baseURL    string
	coverageID string
	cache      *cache.Cache
	fetcher    *fetch.Client
	log        *zap.Logger
}

// New creates a coverage client.
func New(baseURL, coverageID string, c *cache.Cache, f *fetch.Client, log *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		coverageID: coverageID,
		cache:      c,
		fetcher:    f,
		log:        log,
	}
}

// FetchCoverage retrieves the coverage over bbox at the requested pixel
// dimensions and decodes it into a RasterGrid. The response is fetched at
// the service's native resolution, deliberately coarser than the final
// output grid; upsampling happens client-side afterwards.
//
// Services occasionally round the grid by a pixel; an off-by-one response
// is logged and accepted, anything further off wraps ErrRasterFetch.
func (c *Client) FetchCoverage(bbox domain.BoundingBox, width, height int) (*domain.RasterGrid, error) {
	if err := bbox.Validate(); err != nil {
		return nil, err
	}

	reqURL := c.RequestURL(bbox, width, height)
	key := c.cacheKey(bbox, width, height)
	c.log.Info("fetching coverage",
		zap.String("coverage", c.coverageID),
		zap.Int("width", width),
		zap.Int("height", height))

	path, err := c.cache.AcquirePath(key, c.fetcher.URL(reqURL))
	if err != nil {
		return nil, err
	}

	grid, err := raster.Read(path)
	if err != nil {
		// Service errors arrive as XML bodies, which fail raster decoding.
		return nil, fmt.Errorf("%w: %v", domain.ErrRasterFetch, err)
	}

	offByOne, err := checkDimensions(grid.Width, grid.Height, width, height)
	if err != nil {
		return nil, err
	}
	if offByOne {
		c.log.Warn("coverage dimensions off by one, accepting",
			zap.Int("requested_w", width), zap.Int("requested_h", height),
			zap.Int("got_w", grid.Width), zap.Int("got_h", grid.Height))
	}
	return grid, nil
}

// checkDimensions enforces the response-size tolerance: services round the
// requested grid by at most one pixel per axis, so an off-by-one response is
// accepted (offByOne reports it for logging) and anything further off is a
// fetch error.
func checkDimensions(gotW, gotH, wantW, wantH int) (offByOne bool, err error) {
	dw, dh := abs(gotW-wantW), abs(gotH-wantH)
	if dw > 1 || dh > 1 {
		return false, fmt.Errorf("%w: requested %dx%d, got %dx%d",
			domain.ErrRasterFetch, wantW, wantH, gotW, gotH)
	}
	return dw != 0 || dh != 0, nil
}

// RequestURL builds the GetCoverage query for a bbox and pixel dimensions.
func (c *Client) RequestURL(bbox domain.BoundingBox, width, height int) string {
	params := url.Values{}
	params.Set("service", "WCS")
	params.Set("version", "1.0.0")
	params.Set("request", "GetCoverage")
	params.Set("coverage", c.coverageID)
	params.Set("crs", domain.CRSWGS84)
	params.Set("BBOX", bbox.String())
	params.Set("format", "application/x-netcdf")
	params.Set("width", strconv.Itoa(width))
	params.Set("height", strconv.Itoa(height))
	return c.baseURL + "?" + params.Encode()
}

// cacheKey derives a stable file name from the full request identity, so
// runs over different regions never share a cache entry.
func (c *Client) cacheKey(bbox domain.BoundingBox, width, height int) string {
	sanitize := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				return r
			default:
				return '_'
			}
		}, s)
	}
	return fmt.Sprintf("wcs_%s_%s_%dx%d.nc", sanitize(c.coverageID), sanitize(bbox.String()), width, height)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
