// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Command pdfcolumns prints the column map of a PDF's first page as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/leseb/pdf-columns/pkg/layout"
	"github.com/leseb/pdf-columns/pkg/observability/logging"
	"github.com/leseb/pdf-columns/pkg/pdftext"
)

func main() {
	tolerance := flag.Float64("tolerance", layout.DefaultTolerance, "Column width used to bucket x positions")
	indent := flag.Bool("indent", false, "Indent the JSON output")
	verbose := flag.Bool("v", false, "Log extraction details to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file.pdf\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: "text", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, logger, flag.Arg(0), *tolerance, *indent); err != nil {
		logger.Error("Failed to process PDF", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, logger *logging.Logger, path string, tolerance float64, indent bool) error {
	if err := layout.ValidateTolerance(tolerance); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	items, err := pdftext.New(pdftext.NewDecoder()).Extract(ctx, content)
	if err != nil {
		return err
	}
	columns, err := layout.Cluster(items, tolerance)
	if err != nil {
		return err
	}
	logger.Debug("Extracted columns", "items", len(items), "retained", columns.Len(), "columns", len(columns))

	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(columns)
}
