package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfblocks/internal/convert"
	"github.com/pdiddy/pdfblocks/internal/extract"
	"github.com/pdiddy/pdfblocks/internal/pipeline"
	"github.com/pdiddy/pdfblocks/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload service",
	Long: `Serve accepts PDF uploads on POST /upload (multipart field "pdf"),
converts each upload with pdf2htmlEX, and responds with the extracted
blocks as JSON. Converted HTML is served under /outputs/. Each upload is
handled by its own job; concurrent uploads do not share state.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	serveCmd.Flags().Int64("max-upload-bytes", 0, "upload size limit in bytes (default 50MB)")
	bindFlags(viper.GetViper(), serveCmd.Flags(), map[string]string{
		"server.addr":             "addr",
		"server.max_upload_bytes": "max-upload-bytes",
	})

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, dir := range []string{cfg.Dirs.Uploads, cfg.Dirs.Outputs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	conv, err := convert.New(ctx, cfg.Converter, logger)
	if err != nil {
		return err
	}
	p := pipeline.New(cfg.Pipeline(), conv, extract.Extractor{}, logger)

	logger.Info().
		Str("uploads", cfg.Dirs.Uploads).
		Str("outputs", cfg.Dirs.Outputs).
		Str("launcher", string(cfg.Converter.Launcher)).
		Dur("timeout", cfg.Converter.Timeout).
		Msg("starting pdfblocks")

	return server.New(cfg.Server, cfg.Dirs, p, logger).ListenAndServe(ctx)
}
