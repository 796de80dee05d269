// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the external PDF-to-HTML renderer (pdf2htmlEX) as a
// child process and classifies how it finished.
//
// The argument vector is fixed: --zoom 1.3 1024 <input> <output>. Exit
// status 0 means the output file exists; any other status is reported as a
// *ConversionError carrying the exit code. stdout and stderr are logged and
// never inspected.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// zoom and fitWidth are passed to every converter run.
	zoom     = "1.3"
	fitWidth = "1024"

	// htmlExt is appended to the input file name to form the output name.
	htmlExt = ".html"
)

// Converter renders the PDF at inputPath into HTML at outputPath and
// returns outputPath on success.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string) (string, error)
}

// Args returns the converter argument vector for one run.
func Args(inputPath, outputPath string) []string {
	return []string{"--zoom", zoom, fitWidth, inputPath, outputPath}
}

// OutputPath derives the HTML path for inputPath inside outputsDir: the
// input file name with ".html" appended.
func OutputPath(outputsDir, inputPath string) string {
	return filepath.Join(outputsDir, filepath.Base(inputPath)+htmlExt)
}

// ConversionError reports a converter run that did not exit with status 0.
// ExitCode is -1 when the process could not be started or was killed
// before it exited on its own (deadline or cancellation).
type ConversionError struct {
	ExitCode int
	Err      error
}

func (e *ConversionError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("pdf2htmlEX exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("pdf2htmlEX did not complete: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// TimedOut reports whether the run was killed because its deadline expired.
func (e *ConversionError) TimedOut() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Status is the per-file outcome of ConvertFile.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

// ConvertFile converts a single PDF into outputsDir, printing one status
// line to w. If the HTML output already exists and force is false, the
// conversion is skipped.
func ConvertFile(ctx context.Context, c Converter, pdfPath, outputsDir string, force bool, w io.Writer) Status {
	base := filepath.Base(pdfPath)
	htmlPath := OutputPath(outputsDir, pdfPath)

	if !force {
		if _, err := os.Stat(htmlPath); err == nil {
			fmt.Fprintf(w, "skipped:   %s (already exists)\n", base)
			return StatusSkipped
		}
	}

	if err := os.MkdirAll(outputsDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", base, err)
		return StatusFailed
	}

	if _, err := c.Convert(ctx, pdfPath, htmlPath); err != nil {
		fmt.Fprintf(w, "failed:    %s (%v)\n", base, err)
		return StatusFailed
	}

	fmt.Fprintf(w, "converted: %s -> %s\n", base, htmlPath)
	return StatusConverted
}

// ConvertBatch runs ConvertFile over pdfPaths in order, printing per-file
// status to w and returning a summary. A cancelled context stops the batch;
// remaining files are not counted.
func ConvertBatch(ctx context.Context, c Converter, pdfPaths []string, outputsDir string, force bool, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range pdfPaths {
		if ctx.Err() != nil {
			break
		}
		switch ConvertFile(ctx, c, p, outputsDir, force, w) {
		case StatusConverted:
			result.Converted++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
