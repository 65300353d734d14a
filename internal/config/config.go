package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "PRODTRACK"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Columns   ColumnsConfig   `yaml:"columns" envconfig:"COLUMNS"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Refresh   RefreshConfig   `yaml:"refresh" envconfig:"REFRESH"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"min=1"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// Source kinds
const (
	SourceCSV    = "csv"
	SourceXLSX   = "xlsx"
	SourceAuto   = "auto"
	SourceSheets = "sheets"
)

// SourceConfig describes where the spreadsheet export is read from.
type SourceConfig struct {
	Kind            string        `yaml:"kind" envconfig:"KIND" validate:"oneof=csv xlsx auto sheets"`
	URL             string        `yaml:"url" envconfig:"URL" validate:"omitempty,url"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	XLSXSheet       string        `yaml:"xlsx_sheet" envconfig:"XLSX_SHEET"`
	SheetID         string        `yaml:"sheet_id" envconfig:"SHEET_ID"`
	SheetRange      string        `yaml:"sheet_range" envconfig:"SHEET_RANGE"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// ColumnsConfig names the spreadsheet columns the dashboard relies on.
// Names are matched after trimming and upper-casing.
type ColumnsConfig struct {
	Filter      string   `yaml:"filter" envconfig:"FILTER"`
	Total       string   `yaml:"total" envconfig:"TOTAL" validate:"required"`
	Pending     string   `yaml:"pending" envconfig:"PENDING" validate:"required"`
	Date        string   `yaml:"date" envconfig:"DATE"`
	Numeric     []string `yaml:"numeric" envconfig:"NUMERIC"`
	DateLayouts []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS"`
}

// CacheConfig controls how long a normalized snapshot is served before a refetch.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"TTL" validate:"gt=0"`
}

// RefreshConfig controls the background refresh that pushes updates to
// connected dashboards.
type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED"`
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL" validate:"gte=0"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// NumericColumns returns the total, pending and extra numeric columns in
// canonical form without duplicates.
func (c ColumnsConfig) NumericColumns() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 2+len(c.Numeric))
	for _, col := range append([]string{c.Total, c.Pending}, c.Numeric...) {
		key := strings.ToUpper(strings.TrimSpace(col))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFrom(configFile string) (*Config, error) {
	return LoadWithOverrides(configFile, nil)
}

// LoadWithOverrides is LoadFrom with a final layer applied after the
// environment and before validation, for command-line flags.
func LoadWithOverrides(configFile string, override func(*Config)) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints and the cross-field source rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceSheets:
		if c.Source.SheetID == "" {
			return fmt.Errorf("source.sheet_id is required for the sheets source")
		}
		if c.Source.APIKey == "" && c.Source.CredentialsFile == "" {
			return fmt.Errorf("source.api_key or source.credentials_file is required for the sheets source")
		}
	default:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required for the %s source", c.Source.Kind)
		}
	}

	if c.Refresh.Enabled && c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive when refresh is enabled")
	}

	// Logs are always JSON
	c.Logging.Format = "json"
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/prodtrack.log",
		},
		Source: SourceConfig{
			Kind:       SourceAuto,
			Timeout:    30 * time.Second,
			SheetRange: "A:Z",
		},
		Columns: ColumnsConfig{
			Filter:  "ORDEN DE COMPRA",
			Total:   "TOTAL PATINES",
			Pending: "PENDIENTES",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Second,
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
