// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpAdapter "github.com/leseb/pdf-columns/pkg/adapters/http"
	"github.com/leseb/pdf-columns/pkg/core/config"
	"github.com/leseb/pdf-columns/pkg/core/services"
	"github.com/leseb/pdf-columns/pkg/filestore"
	_ "github.com/leseb/pdf-columns/pkg/filestore/filesystem"
	_ "github.com/leseb/pdf-columns/pkg/filestore/memory"
	_ "github.com/leseb/pdf-columns/pkg/filestore/s3"
	"github.com/leseb/pdf-columns/pkg/observability/logging"
	"github.com/leseb/pdf-columns/pkg/pdftext"
	"github.com/leseb/pdf-columns/pkg/storage"
	_ "github.com/leseb/pdf-columns/pkg/storage/memory"
	_ "github.com/leseb/pdf-columns/pkg/storage/postgres"
	_ "github.com/leseb/pdf-columns/pkg/storage/sqlite"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Print version
	if *version {
		fmt.Printf("PDF Columns Gateway Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// Load configuration
	usingDefaults := false
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
		usingDefaults = true
	}

	// Override port if specified
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Initialize logger
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting PDF Columns Gateway Server",
		"version", Version,
		"build_time", BuildTime)
	if usingDefaults {
		logger.Warn("Config file not found, using defaults", "path", *configPath)
	}

	initCtx := context.Background()

	// Initialize staging store
	staging, err := filestore.Providers.New(initCtx, cfg.Staging.Type, cfg.Staging.Params())
	if err != nil {
		logger.Error("Failed to initialize staging store", "type", cfg.Staging.Type, "error", err)
		os.Exit(1)
	}
	defer staging.Close(context.Background())
	logger.Info("Initialized staging store", "type", cfg.Staging.Type)

	// Remove uploads left behind by a previous run
	if swept, err := staging.Sweep(initCtx, time.Now().Add(-cfg.Staging.MaxAge)); err != nil {
		logger.Warn("Failed to sweep staging store", "error", err)
	} else if swept > 0 {
		logger.Info("Swept stale staged uploads", "count", swept)
	}

	// Initialize record store
	records, err := storage.Providers.New(initCtx, cfg.Records.Type, cfg.Records.Params())
	if err != nil {
		logger.Error("Failed to initialize record store", "type", cfg.Records.Type, "error", err)
		os.Exit(1)
	}
	defer records.Close(context.Background())
	logger.Info("Initialized record store", "type", cfg.Records.Type)

	// Initialize extractor and service
	extractor := pdftext.New(pdftext.NewDecoder())
	columnService := services.NewColumnService(extractor, records, cfg.Layout.ColumnTolerance, logger)
	logger.Info("Initialized column service", "tolerance", columnService.Tolerance())

	// Initialize HTTP adapter
	handler := httpAdapter.New(columnService, staging, logger, httpAdapter.Options{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		UploadField:    cfg.Upload.Field,
		CORS:           cfg.Server.CORSEnabled(),
	})
	logger.Info("Initialized HTTP adapter")

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("Failed to listen", "address", addr, "error", err)
		os.Exit(1)
	}
	if cfg.Server.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConnections)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", "address", addr, "max_connections", cfg.Server.MaxConnections)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
