// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one conversion job: convert the stored upload
// to HTML, extract blocks from the HTML, then delete the upload.
//
// A Pipeline holds configuration and collaborators only; every Run owns
// its own ConversionJob, so concurrent runs share nothing but the upload
// and output directories, whose file names are unique per upload.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pdfblocks/internal/convert"
	"github.com/pdiddy/pdfblocks/pkg/types"
)

// Converter renders a PDF to HTML. *convert.PDF2HTML implements it.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string) (string, error)
}

// Extractor reads blocks from an HTML file. extract.Extractor implements it.
type Extractor interface {
	Extract(htmlPath string) ([]types.Block, error)
}

// Pipeline runs conversion jobs.
type Pipeline struct {
	cfg    types.PipelineConfig
	conv   Converter
	ext    Extractor
	remove func(string) error
	logger zerolog.Logger
}

// New returns a Pipeline using the directories in cfg.
func New(cfg types.PipelineConfig, conv Converter, ext Extractor, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		conv:   conv,
		ext:    ext,
		remove: os.Remove,
		logger: logger.With().Str("component", "pipeline").Logger(),
	}
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() types.PipelineConfig { return p.cfg }

// Run converts the PDF at uploadPath and returns its blocks. On failure it
// returns a *Error naming the stage and no blocks. Extraction is never
// attempted after a conversion failure or once ctx is done.
func (p *Pipeline) Run(ctx context.Context, uploadPath string) ([]types.Block, error) {
	job := types.NewConversionJob(uploadPath, convert.OutputPath(p.cfg.Dirs.Outputs, uploadPath))
	log := p.logger.With().Str("job_id", job.ID).Str("input", job.InputPath).Logger()
	log.Info().Str("output", job.OutputPath).Msg("job received")

	p.advance(job, types.JobConverting, log)
	if err := os.MkdirAll(p.cfg.Dirs.Outputs, 0o755); err != nil {
		return nil, p.fail(job, types.StageConversion, fmt.Errorf("creating outputs dir: %w", err), log)
	}
	htmlPath, err := p.conv.Convert(ctx, job.InputPath, job.OutputPath)
	if err != nil {
		return nil, p.fail(job, types.StageConversion, err, log)
	}

	p.advance(job, types.JobExtracting, log)
	if err := ctx.Err(); err != nil {
		return nil, p.fail(job, types.StageExtraction, err, log)
	}
	blocks, err := p.ext.Extract(htmlPath)
	if err != nil {
		return nil, p.fail(job, types.StageExtraction, err, log)
	}

	p.advance(job, types.JobCompleted, log)
	if err := p.Cleanup(job.InputPath); err != nil {
		log.Warn().Err(err).Msg("upload cleanup failed")
	}
	log.Info().Int("blocks", len(blocks)).Dur("elapsed", job.UpdatedAt.Sub(job.CreatedAt)).Msg("job completed")
	return blocks, nil
}

// Cleanup deletes a stored upload. A failure, including a file that is
// already gone, is returned as *CleanupWarning and is never fatal.
func (p *Pipeline) Cleanup(uploadPath string) error {
	if err := p.remove(uploadPath); err != nil {
		return &CleanupWarning{Path: uploadPath, Err: err}
	}
	return nil
}

func (p *Pipeline) advance(job *types.ConversionJob, to types.JobState, log zerolog.Logger) {
	if err := job.Transition(to); err != nil {
		log.Error().Err(err).Msg("job state")
		return
	}
	log.Debug().Str("state", string(job.State)).Msg("job state")
}

func (p *Pipeline) fail(job *types.ConversionJob, stage types.Stage, err error, log zerolog.Logger) error {
	p.advance(job, types.JobFailed, log)
	log.Error().Err(err).Str("stage", string(stage)).Msg("job failed")
	return &Error{JobID: job.ID, Stage: stage, Err: err}
}

// Error is the uniform failure of a job: the stage that failed and why.
type Error struct {
	JobID string
	Stage types.Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CleanupWarning reports an upload that could not be deleted after a
// successful job.
type CleanupWarning struct {
	Path string
	Err  error
}

func (w *CleanupWarning) Error() string {
	return fmt.Sprintf("removing upload %s: %v", w.Path, w.Err)
}

func (w *CleanupWarning) Unwrap() error { return w.Err }

// Machine-readable failure reasons returned to callers.
const (
	ReasonConversionFailed  = "conversion_failed"
	ReasonConversionTimeout = "conversion_timeout"
	ReasonExtractionFailed  = "extraction_failed"
	ReasonInternal          = "internal"
)

// Reason maps a Run error to its machine-readable reason code.
func Reason(err error) string {
	var pErr *Error
	if !errors.As(err, &pErr) {
		return ReasonInternal
	}
	switch pErr.Stage {
	case types.StageConversion:
		var convErr *convert.ConversionError
		if errors.As(pErr.Err, &convErr) && convErr.TimedOut() {
			return ReasonConversionTimeout
		}
		return ReasonConversionFailed
	case types.StageExtraction:
		return ReasonExtractionFailed
	}
	return ReasonInternal
}
