// Package main provides the oresund-fetch CLI, the one-shot batch job that
// downloads, aligns and masks the Öresund chart data set.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"go.ngs.io/oresund-charts/internal/adapter/cache"
	"go.ngs.io/oresund-charts/internal/adapter/fetch"
	"go.ngs.io/oresund-charts/internal/adapter/wcs"
	"go.ngs.io/oresund-charts/internal/config"
	"go.ngs.io/oresund-charts/internal/usecase"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	verbose := flag.Bool("v", false, "Verbose (console) logging")
	dataDir := flag.String("data-dir", "", "Output directory (overrides DATA_DIR)")
	cacheDir := flag.String("cache-dir", "", "Download cache directory (overrides CACHE_DIR)")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("oresund-fetch version %s\n", version)
		return
	}

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()

	cfg := config.Default()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}

	log.Info("starting pipeline",
		zap.String("bbox", cfg.BBox.String()),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.String("data_dir", cfg.DataDir))

	fetcher := fetch.New(log)
	store := cache.New(cfg.CacheDir, log)
	coverage := wcs.New(cfg.WCSURL, cfg.CoverageID, store, fetcher, log)

	pipeline := usecase.NewPipeline(cfg, coverage, store, fetcher, log)
	if err := pipeline.Run(); err != nil {
		log.Error("pipeline failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("pipeline complete")
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log
	}
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return log
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("oresund-fetch v%s\n\n", version)
	fmt.Println("Fetches Öresund bathymetry from the EMODnet WCS, upsamples it to")
	fmt.Println("print resolution, masks land with GSHHG shoreline polygons and")
	fmt.Println("writes populated-places vectors, all into the data directory.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  oresund-fetch [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  DATA_DIR           Output directory (default ./data)")
	fmt.Println("  CACHE_DIR          Download cache (default <data>/cache)")
	fmt.Println("  WCS_URL            Coverage service endpoint")
	fmt.Println("  WCS_COVERAGE       Coverage identifier (default emodnet:mean)")
	fmt.Println("  GSHHG_ZIP_URL      Shoreline archive URL")
	fmt.Println("  NE_PLACES_ZIP_URL  Populated places archive URL")
}
