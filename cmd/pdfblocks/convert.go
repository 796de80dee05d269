package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfblocks/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to HTML with pdf2htmlEX",
	Long: `Convert runs pdf2htmlEX on each PDF and writes the HTML into the outputs
directory under the PDF's file name plus ".html". PDFs whose output
already exists are skipped unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("force", false, "reconvert even when the HTML output exists")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	conv, err := convert.New(cmd.Context(), cfg.Converter, logger)
	if err != nil {
		return err
	}

	result := convert.ConvertBatch(cmd.Context(), conv, args, cfg.Dirs.Outputs, force, cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d PDF(s) failed conversion", result.Failed)
	}
	return nil
}
