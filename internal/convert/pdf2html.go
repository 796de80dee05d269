// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pdfblocks/internal/container"
	"github.com/pdiddy/pdfblocks/pkg/types"
)

const (
	// DefaultBinary is the renderer path relative to the working directory.
	DefaultBinary = "./bin/pdf2htmlEX"
	// DefaultTimeout bounds one run when the config does not set one.
	DefaultTimeout = 60 * time.Second
	// DefaultImage is the upstream pdf2htmlEX image used by the container launcher.
	DefaultImage = "pdf2htmlex/pdf2htmlex:0.18.8.rc2-master-20200820-ubuntu-20.04-x86_64"

	// waitDelay bounds how long Wait keeps draining stdout/stderr after the
	// process has exited or been killed.
	waitDelay = 5 * time.Second

	// stopTimeout bounds the teardown of a killed run.
	stopTimeout = 10 * time.Second
)

// invocation is one converter command line. stop, when set, tears down
// whatever the command started that killing the process itself cannot
// reach.
type invocation struct {
	name string
	args []string
	stop func(ctx context.Context) error
}

// launcher builds the invocation for one converter run.
type launcher interface {
	command(inputPath, outputPath string) (invocation, error)
}

// nativeLauncher runs the converter binary directly.
type nativeLauncher struct {
	binary string
}

func (l nativeLauncher) command(inputPath, outputPath string) (invocation, error) {
	return invocation{name: l.binary, args: Args(inputPath, outputPath)}, nil
}

// containerLauncher runs the converter inside an image. Input and output
// directories are mounted at their absolute host paths. Every run gets its
// own container name so a killed run can be force-removed: killing the
// engine client leaves the container running.
type containerLauncher struct {
	rt         container.Runtime
	image      string
	entrypoint string
	newName    func() string
}

func (l containerLauncher) command(inputPath, outputPath string) (invocation, error) {
	absIn, err := filepath.Abs(inputPath)
	if err != nil {
		return invocation{}, fmt.Errorf("resolving %s: %w", inputPath, err)
	}
	absOut, err := filepath.Abs(outputPath)
	if err != nil {
		return invocation{}, fmt.Errorf("resolving %s: %w", outputPath, err)
	}
	mounts := []container.Mount{{Dir: filepath.Dir(absIn), ReadOnly: true}}
	if outDir := filepath.Dir(absOut); outDir != filepath.Dir(absIn) {
		mounts = append(mounts, container.Mount{Dir: outDir})
	} else {
		mounts[0].ReadOnly = false
	}

	newName := l.newName
	if newName == nil {
		newName = containerName
	}
	cname := newName()
	bin, args := l.rt.RunArgs(cname, l.image, l.entrypoint, mounts, Args(absIn, absOut))
	return invocation{
		name: bin,
		args: args,
		stop: func(ctx context.Context) error { return l.rt.Remove(ctx, cname) },
	}, nil
}

// containerName returns a unique name for one converter container.
func containerName() string {
	return "pdfblocks-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// runner starts a process and waits for it to exit.
type runner interface {
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osRunner is the production runner backed by os/exec. The child is killed
// when ctx is done.
type osRunner struct{}

func (osRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	return cmd.Run()
}

// PDF2HTML is the Converter backed by the pdf2htmlEX process.
type PDF2HTML struct {
	launch  launcher
	run     runner
	timeout time.Duration
	logger  zerolog.Logger
}

// New builds a PDF2HTML from cfg. The container launcher detects docker or
// podman and verifies that the image exists locally before returning.
func New(ctx context.Context, cfg types.ConverterConfig, logger zerolog.Logger) (*PDF2HTML, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var l launcher
	switch cfg.Launcher {
	case "", types.LauncherNative:
		bin := cfg.Binary
		if bin == "" {
			bin = DefaultBinary
		}
		l = nativeLauncher{binary: bin}
	case types.LauncherContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		image := cfg.Image
		if image == "" {
			image = DefaultImage
		}
		if err := rt.ImageExists(ctx, image); err != nil {
			return nil, fmt.Errorf("pdf2htmlEX image not available in %s: %w", rt.Name(), err)
		}
		l = containerLauncher{rt: rt, image: image, entrypoint: cfg.Entrypoint}
	default:
		return nil, fmt.Errorf("unknown converter launcher %q", cfg.Launcher)
	}

	return &PDF2HTML{
		launch:  l,
		run:     osRunner{},
		timeout: timeout,
		logger:  logger.With().Str("component", "converter").Logger(),
	}, nil
}

// Convert runs pdf2htmlEX once. It never retries. When the deadline
// expires or ctx is cancelled the child is killed and any partial output
// file is removed.
func (p *PDF2HTML) Convert(ctx context.Context, inputPath, outputPath string) (string, error) {
	inv, err := p.launch.command(inputPath, outputPath)
	if err != nil {
		return "", &ConversionError{ExitCode: -1, Err: err}
	}
	name := inv.name

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log := p.logger.With().Str("input", inputPath).Str("output", outputPath).Logger()
	stdout := newLineLogger(log, zerolog.DebugLevel, "stdout")
	stderr := newLineLogger(log, zerolog.WarnLevel, "stderr")

	start := time.Now()
	log.Debug().Str("program", name).Strs("args", inv.args).Msg("starting converter")

	runErr := p.run.Run(ctx, name, inv.args, stdout, stderr)
	stdout.Flush()
	stderr.Flush()

	if runErr == nil {
		log.Info().Dur("elapsed", time.Since(start)).Msg("conversion finished")
		return outputPath, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		p.stop(inv, log)
		p.discard(outputPath)
		log.Error().Err(ctxErr).Dur("elapsed", time.Since(start)).Msg("converter killed")
		return "", &ConversionError{ExitCode: -1, Err: fmt.Errorf("running %s: %w", name, ctxErr)}
	}

	// The converter exited 0 but something it spawned kept the output
	// pipes open past waitDelay.
	if errors.Is(runErr, exec.ErrWaitDelay) {
		log.Warn().Err(runErr).Dur("elapsed", time.Since(start)).Msg("conversion finished with output still open")
		return outputPath, nil
	}

	var exited interface{ ExitCode() int }
	if errors.As(runErr, &exited) {
		code := exited.ExitCode()
		log.Error().Int("exit_code", code).Msg("converter failed")
		return "", &ConversionError{ExitCode: code, Err: runErr}
	}

	log.Error().Err(runErr).Msg("converter could not be started")
	return "", &ConversionError{ExitCode: -1, Err: fmt.Errorf("launching %s: %w", name, runErr)}
}

// stop runs the invocation's teardown, if any, on a fresh deadline: the
// run's own context is already done.
func (p *PDF2HTML) stop(inv invocation, log zerolog.Logger) {
	if inv.stop == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := inv.stop(ctx); err != nil {
		log.Warn().Err(err).Msg("stopping converter container")
	}
}

// discard removes a partial output file left by a killed run.
func (p *PDF2HTML) discard(outputPath string) {
	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn().Err(err).Str("output", outputPath).Msg("removing partial output")
	}
}
