package types

import "time"

// Launcher selects how the converter process is started.
type Launcher string

const (
	// LauncherNative executes the converter binary directly.
	LauncherNative Launcher = "native"
	// LauncherContainer runs the converter inside a container image through
	// docker or podman.
	LauncherContainer Launcher = "container"
)

// ConverterConfig holds settings for the converter process adapter. The
// argument vector passed to the converter is fixed and is not part of it.
type ConverterConfig struct {
	// Binary is the path to the pdf2htmlEX executable (native launcher).
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Timeout bounds one converter run. The process is killed when it expires.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Launcher is native or container.
	Launcher Launcher `json:"launcher" yaml:"launcher" mapstructure:"launcher"`

	// Image is the container image used by the container launcher.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Entrypoint optionally overrides the image entrypoint.
	Entrypoint string `json:"entrypoint,omitempty" yaml:"entrypoint,omitempty" mapstructure:"entrypoint"`
}

// DirsConfig names the working directories of the pipeline.
type DirsConfig struct {
	// Uploads holds transient input PDFs; they are removed after a job succeeds.
	Uploads string `json:"uploads" yaml:"uploads" mapstructure:"uploads"`

	// Outputs holds converted HTML; files are retained and served by path.
	Outputs string `json:"outputs" yaml:"outputs" mapstructure:"outputs"`
}

// PipelineConfig is passed to the orchestrator at construction.
type PipelineConfig struct {
	Dirs DirsConfig `json:"dirs" yaml:"dirs" mapstructure:"dirs"`
}

// ServerConfig holds settings for the HTTP intake server.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes caps the size of an uploaded PDF (default 50MB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig selects log level and output format (json or console).
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every section of pdfblocks.yaml.
type Config struct {
	Converter ConverterConfig `json:"converter" yaml:"converter" mapstructure:"converter"`
	Dirs      DirsConfig      `json:"dirs" yaml:"dirs" mapstructure:"dirs"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// Pipeline returns the orchestrator view of the config.
func (c Config) Pipeline() PipelineConfig {
	return PipelineConfig{Dirs: c.Dirs}
}
