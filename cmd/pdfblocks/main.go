// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfblocks CLI: the HTTP upload
// server plus one subcommand per pipeline stage.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfblocks/internal/convert"
	"github.com/pdiddy/pdfblocks/internal/intake"
	"github.com/pdiddy/pdfblocks/internal/logging"
	"github.com/pdiddy/pdfblocks/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdfblocks CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfblocks",
	Short: "Convert PDFs to HTML and extract structured content blocks",
	Long: `pdfblocks converts uploaded PDF documents to HTML with pdf2htmlEX and
returns the document content as an ordered list of paragraph, image and
table blocks.

"serve" runs the HTTP upload service. "convert", "extract" and "process"
run the pipeline stages from the command line.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pdfblocks.yaml or ~/.config/pdfblocks/pdfblocks.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("uploads-dir", "", "directory for stored uploads")
	pf.String("outputs-dir", "", "directory for converted HTML")
	pf.String("binary", "", "path to the pdf2htmlEX executable")
	pf.String("launcher", "", "converter launcher: native or container")
	pf.Duration("timeout", 0, "converter timeout per document")

	bindFlags(viper.GetViper(), pf, map[string]string{
		"log.level":          "log-level",
		"log.format":         "log-format",
		"dirs.uploads":       "uploads-dir",
		"dirs.outputs":       "outputs-dir",
		"converter.binary":   "binary",
		"converter.launcher": "launcher",
		"converter.timeout":  "timeout",
	})
}

func initConfig() {
	v := viper.GetViper()
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdfblocks")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pdfblocks"))
		}
	}

	setDefaults(v)
	v.SetEnvPrefix("PDFBLOCKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
}

// setDefaults registers every config key so that environment variables
// are honored by Unmarshal even when no config file sets the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("converter.binary", convert.DefaultBinary)
	v.SetDefault("converter.timeout", convert.DefaultTimeout)
	v.SetDefault("converter.launcher", string(types.LauncherNative))
	v.SetDefault("converter.image", convert.DefaultImage)
	v.SetDefault("converter.entrypoint", "")
	v.SetDefault("dirs.uploads", "uploads")
	v.SetDefault("dirs.outputs", "outputs")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.max_upload_bytes", intake.DefaultMaxBytes)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// bindFlags binds config keys to the named flags of fs. Flags the user did
// not set do not override the file or the environment.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// loadConfig decodes the merged configuration into types.Config.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger for a command.
func setup(cmd *cobra.Command) (types.Config, zerolog.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return types.Config{}, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Log, cmd.ErrOrStderr()), nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
