// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConverter writes an empty document for every input except those
// listed in fail, which return the mapped error.
type fakeConverter struct {
	fail  map[string]error
	calls []string
}

func (f *fakeConverter) Convert(_ context.Context, inputPath, outputPath string) (string, error) {
	f.calls = append(f.calls, inputPath)
	if err, ok := f.fail[inputPath]; ok {
		return "", err
	}
	if err := os.WriteFile(outputPath, []byte("<html><body></body></html>"), 0o644); err != nil {
		return "", err
	}
	return outputPath, nil
}

// writePDFs creates named placeholder PDFs under dir/uploads.
func writePDFs(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	uploads := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(uploads, n)
		require.NoError(t, os.WriteFile(paths[i], []byte("%PDF-1.4"), 0o644))
	}
	return paths
}

func TestArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"--zoom", "1.3", "1024", "uploads/a.pdf", "outputs/a.pdf.html"},
		Args("uploads/a.pdf", "outputs/a.pdf.html"))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("outputs", "1700000000000-report.pdf.html"),
		OutputPath("outputs", "uploads/1700000000000-report.pdf"))
	assert.Equal(t, filepath.Join("/srv/out", "a b.pdf.html"),
		OutputPath("/srv/out", "/tmp/x/a b.pdf"))
}

func TestConversionError(t *testing.T) {
	exit := &ConversionError{ExitCode: 1, Err: errors.New("exit status 1")}
	assert.Equal(t, "pdf2htmlEX exited with code 1", exit.Error())
	assert.False(t, exit.TimedOut())

	timeout := &ConversionError{ExitCode: -1, Err: context.DeadlineExceeded}
	assert.True(t, timeout.TimedOut())
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.Contains(t, timeout.Error(), "did not complete")
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name       string
		existing   bool
		force      bool
		fail       error
		wantStatus Status
		wantCalls  int
		wantOut    string
	}{
		{name: "converts", wantStatus: StatusConverted, wantCalls: 1, wantOut: "converted:"},
		{name: "skips existing output", existing: true, wantStatus: StatusSkipped, wantOut: "skipped:"},
		{name: "force reconverts", existing: true, force: true, wantStatus: StatusConverted, wantCalls: 1, wantOut: "converted:"},
		{name: "reports failure", fail: &ConversionError{ExitCode: 1}, wantStatus: StatusFailed, wantCalls: 1, wantOut: "pdf2htmlEX exited with code 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			pdf := writePDFs(t, dir, "1700000000000-report.pdf")[0]
			outputs := filepath.Join(dir, "outputs")
			if tt.existing {
				require.NoError(t, os.MkdirAll(outputs, 0o755))
				require.NoError(t, os.WriteFile(OutputPath(outputs, pdf), []byte("existing"), 0o644))
			}
			conv := &fakeConverter{}
			if tt.fail != nil {
				conv.fail = map[string]error{pdf: tt.fail}
			}

			var out bytes.Buffer
			status := ConvertFile(context.Background(), conv, pdf, outputs, tt.force, &out)

			assert.Equal(t, tt.wantStatus, status)
			assert.Len(t, conv.calls, tt.wantCalls)
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	paths := writePDFs(t, dir, "a.pdf", "b.pdf", "c.pdf")
	outputs := filepath.Join(dir, "outputs")
	require.NoError(t, os.MkdirAll(outputs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputs, "b.pdf.html"), []byte("existing"), 0o644))

	conv := &fakeConverter{fail: map[string]error{paths[2]: &ConversionError{ExitCode: 2}}}
	var out bytes.Buffer
	result := ConvertBatch(context.Background(), conv, paths, outputs, false, &out)

	assert.Equal(t, BatchResult{Converted: 1, Skipped: 1, Failed: 1}, result)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasFailures())
	assert.Contains(t, out.String(), "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)")
	assert.FileExists(t, filepath.Join(outputs, "a.pdf.html"))
	assert.Equal(t, []string{paths[0], paths[2]}, conv.calls)
}

func TestConvertBatch_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	paths := writePDFs(t, dir, "a.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &fakeConverter{}
	result := ConvertBatch(ctx, conv, paths, filepath.Join(dir, "outputs"), false, &bytes.Buffer{})

	assert.Zero(t, result.Total())
	assert.Empty(t, conv.calls)
}
