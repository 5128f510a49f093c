// Package main provides the chart data preview HTTP server.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"go.ngs.io/oresund-charts/internal/adapter/store/raster"
	"go.ngs.io/oresund-charts/internal/config"
	httpHandler "go.ngs.io/oresund-charts/internal/http"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("oresund-charts server version %s\n", version)
		return
	}

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	port := getEnv("PORT", "8080")
	cfg := config.Default()

	// The server reads what oresund-fetch produced; run that first.
	seaPath := filepath.Join(cfg.DataDir, "oresund_bathymetry_sea.nc")
	sea, err := raster.Read(seaPath)
	if err != nil {
		log.Fatal("failed to load masked depth raster (run oresund-fetch first)",
			zap.String("path", seaPath), zap.Error(err))
	}
	log.Info("loaded masked depth raster",
		zap.String("path", seaPath),
		zap.Int("width", sea.Width),
		zap.Int("height", sea.Height))

	handler := httpHandler.NewHandler(sea, cfg.DataDir)
	router := httpHandler.SetupRouter(handler)

	addr := fmt.Sprintf(":%s", port)
	log.Info("server listening", zap.String("addr", addr))
	log.Info("endpoints: GET /health, GET /v1/depth, GET /v1/layers/:name")
	if err := router.Run(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("oresund-charts preview server v%s\n\n", version)
	fmt.Println("Serves the pipeline outputs over HTTP.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  PORT      Listen port (default 8080)")
	fmt.Println("  DATA_DIR  Directory holding oresund-fetch outputs (default ./data)")
}
