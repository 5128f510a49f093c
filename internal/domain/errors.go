package domain

import "errors"

// Pipeline error taxonomy. Lower layers wrap these sentinels with context
// via fmt.Errorf("...: %w", ...); callers match with errors.Is.
var (
	// ErrFetch marks a network or coverage-service failure. Retried by the
	// fetcher; fatal once retries are exhausted.
	ErrFetch = errors.New("remote fetch failed")

	// ErrArchive marks a corrupt or unsafe archive. Fatal.
	ErrArchive = errors.New("archive extraction failed")

	// ErrRasterFetch marks an unusable coverage response (not a raster, or
	// dimensions diverging from the request by more than one pixel). Fatal.
	ErrRasterFetch = errors.New("coverage response invalid")

	// ErrResample marks a resampling failure such as a source grid with no
	// valid cells. Fatal.
	ErrResample = errors.New("resample failed")

	// ErrVectorLoad marks an unreadable or corrupt vector source. Fatal for
	// the layer; the pipeline may continue if the layer is optional.
	ErrVectorLoad = errors.New("vector source unreadable")

	// ErrShapeMismatch marks a raster/mask shape or georeferencing
	// disagreement. A configuration bug; fatal.
	ErrShapeMismatch = errors.New("raster and mask shapes differ")
)
