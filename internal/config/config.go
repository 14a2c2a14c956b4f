// Package config loads gridview settings from defaults, an optional YAML
// file and GRIDVIEW_* environment variables, in increasing precedence.
// Variable names follow the field path, e.g. GRIDVIEW_SOURCE_SPREADSHEET_ID.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "gridview/internal/errors"
	"gridview/internal/merge"
)

// EnvPrefix is the prefix of every environment variable.
const EnvPrefix = "GRIDVIEW"

// Source kinds.
const (
	SourceMemory = "memory"
	SourceCSV    = "csv"
	SourceXLSX   = "xlsx"
	SourceSheets = "sheets"
)

// Config is the complete application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SourceConfig selects and tunes the grid source.
type SourceConfig struct {
	Kind              string   `yaml:"kind" split_words:"true" validate:"required,oneof=memory csv xlsx sheets"`
	Path              string   `yaml:"path" split_words:"true" validate:"required_if=Kind csv,required_if=Kind xlsx"`
	Sheet             string   `yaml:"sheet" split_words:"true" validate:"required_if=Kind sheets"`
	Comma             string   `yaml:"comma" split_words:"true" validate:"len=1"`
	SpreadsheetID     string   `yaml:"spreadsheet_id" split_words:"true" validate:"required_if=Kind sheets"`
	CredentialsFile   string   `yaml:"credentials_file" split_words:"true"`
	ValueInputOption  string   `yaml:"value_input_option" split_words:"true" validate:"oneof=RAW USER_ENTERED"`
	RequestsPerSecond float64  `yaml:"requests_per_second" split_words:"true" validate:"gte=0"`
	Burst             int      `yaml:"burst" split_words:"true" validate:"gte=0"`
	Merges            []string `yaml:"merges" split_words:"true"`
	SourceMerges      bool     `yaml:"source_merges" split_words:"true"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string          `yaml:"host" split_words:"true"`
	Port            int             `yaml:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains HTTP rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true" validate:"gte=0"`
	Burst   int     `yaml:"burst" split_words:"true" validate:"gte=0"`
}

// TelemetryConfig contains OpenTelemetry configuration.
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" split_words:"true" validate:"required"`
	Environment   string  `yaml:"environment" split_words:"true"`
	TraceExporter string  `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	Metrics       bool    `yaml:"metrics" split_words:"true"`
	SampleRatio   float64 `yaml:"sample_ratio" split_words:"true" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:              SourceMemory,
			Comma:             ",",
			ValueInputOption:  "RAW",
			RequestsPerSecond: 1,
			Burst:             1,
			SourceMerges:      true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/gridview.log",
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "gridview",
			Environment:   "development",
			TraceExporter: "none",
			Metrics:       true,
			SampleRatio:   1,
		},
	}
}

// Load reads the config file named by GRIDVIEW_CONFIG, or the first of the
// default locations that exists, then applies the environment.
func Load() (*Config, error) {
	return LoadFile(configFilePath())
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("failed to read config file", err).WithContext("path", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewConfigError("failed to parse config file", err).WithContext("path", path)
	}
	return nil
}

func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	for _, candidate := range []string{"gridview.yaml", "configs/gridview.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the merged-range list.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError(describe(err), err)
	}
	if _, err := c.Regions(); err != nil {
		return apperrors.NewConfigError("invalid merged range", err)
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "config validation failed"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return "config validation failed: " + strings.Join(parts, "; ")
}

// Regions parses the configured merged ranges.
func (c *Config) Regions() ([]merge.Region, error) {
	return merge.ParseRanges(c.Source.Merges)
}

// CommaRune returns the CSV delimiter as a rune.
func (s SourceConfig) CommaRune() rune {
	if s.Comma == "" {
		return ','
	}
	return []rune(s.Comma)[0]
}

// Address returns the server listen address.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
