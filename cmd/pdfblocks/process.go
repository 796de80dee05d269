package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfblocks/internal/convert"
	"github.com/pdiddy/pdfblocks/internal/extract"
	"github.com/pdiddy/pdfblocks/internal/intake"
	"github.com/pdiddy/pdfblocks/internal/pipeline"
	"github.com/pdiddy/pdfblocks/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process <pdf>",
	Short: "Run the full pipeline on one PDF",
	Long: `Process stores a copy of the PDF in the uploads directory under a unique
name, converts it, extracts the blocks and prints the same payload the
upload endpoint returns. The stored copy is removed when the job succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().String("format", "json", "output format: json or yaml")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	name := filepath.Base(args[0])
	store := intake.NewStore(cfg.Dirs.Uploads, cfg.Server.MaxUploadBytes)
	uploadPath, err := store.Save(f, name, mime.TypeByExtension(filepath.Ext(name)))
	if err != nil {
		return err
	}

	conv, err := convert.New(cmd.Context(), cfg.Converter, logger)
	if err != nil {
		return err
	}
	p := pipeline.New(cfg.Pipeline(), conv, extract.Extractor{}, logger)

	blocks, err := p.Run(cmd.Context(), uploadPath)
	if err != nil {
		return fmt.Errorf("%s: %w", pipeline.Reason(err), err)
	}
	return writeResponse(cmd.OutOrStdout(), types.NewResponse(blocks), format)
}
