package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "sigitm/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "SIGITM"

// Config represents the complete application configuration
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// IngestConfig controls where workbooks are searched for and how they are read
type IngestConfig struct {
	Directory       string `yaml:"directory" envconfig:"DIRECTORY" validate:"required"`
	Prefix          string `yaml:"prefix" envconfig:"PREFIX" validate:"required"`
	Sheet           string `yaml:"sheet" envconfig:"SHEET"`
	CreateDirectory bool   `yaml:"create_directory" envconfig:"CREATE_DIRECTORY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Default returns default configuration. The search directory is the
// user's downloads folder; it is left empty when it cannot be resolved.
func Default() *Config {
	downloads, _ := DownloadsDir()
	return &Config{
		Ingest: IngestConfig{
			Directory:       downloads,
			Prefix:          DefaultPrefix,
			CreateDirectory: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/sigitm.log",
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			ServiceName:   AppName,
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at
// filePath (skipped when empty), then SIGITM_* environment variables.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", filePath)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints on the configuration
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
