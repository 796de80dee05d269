package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfblocks/internal/extract"
	"github.com/pdiddy/pdfblocks/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <html>",
	Short: "Extract paragraph, image and table blocks from converted HTML",
	Long: `Extract parses an HTML file produced by pdf2htmlEX, removes styling,
and prints the content blocks in document order.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("format", "json", "output format: json or yaml")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	blocks, err := extract.File(args[0])
	if err != nil {
		return err
	}
	return writeResponse(cmd.OutOrStdout(), types.NewResponse(blocks), format)
}

func checkFormat(format string) error {
	switch format {
	case "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}

// writeResponse prints resp as indented JSON or YAML.
func writeResponse(w io.Writer, resp types.Response, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
