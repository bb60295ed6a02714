// Package config loads fwrules settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Source   SourceConfig   `yaml:"source"`
	Validate ValidateConfig `yaml:"validate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`   // empty means stderr
}

type ServerConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// SourceConfig selects where rule documents come from when no paths are
// given on the command line.
type SourceConfig struct {
	Provider string `yaml:"provider"` // file, mariadb, mysql, sqlite
	DSN      string `yaml:"dsn"`
	Profile  string `yaml:"profile"`
}

type ValidateConfig struct {
	Workers    int           `yaml:"workers"`
	Output     string        `yaml:"output"`
	Extensions []string      `yaml:"extensions"`
	Debounce   time.Duration `yaml:"debounce"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "fwrules"
	}
	if cfg.Source.Provider == "" {
		cfg.Source.Provider = "file"
	}
	if cfg.Validate.Output == "" {
		cfg.Validate.Output = "text"
	}
	if len(cfg.Validate.Extensions) == 0 {
		cfg.Validate.Extensions = []string{".rules", ".fw"}
	}
	if cfg.Validate.Debounce == 0 {
		cfg.Validate.Debounce = 200 * time.Millisecond
	}
}

func Validate(cfg *Config) error {
	var errs []error
	switch strings.ToUpper(cfg.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", cfg.Log.Level))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be json or text, got %q", cfg.Log.Format))
	}
	switch strings.ToLower(cfg.Source.Provider) {
	case "file", "mariadb", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("source.provider: unknown provider %q", cfg.Source.Provider))
	}
	if cfg.Validate.Workers < 0 {
		errs = append(errs, fmt.Errorf("validate.workers: must not be negative"))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes: must not be negative"))
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path: must start with /"))
	}
	return errors.Join(errs...)
}

// ValidateSource checks what reading rule documents from src needs. Only
// commands that load documents call it, so a SQL provider without a DSN does
// not block highlight, parse or serve.
func ValidateSource(src SourceConfig) error {
	switch strings.ToLower(src.Provider) {
	case "mariadb", "mysql", "sqlite":
		if src.DSN == "" {
			return fmt.Errorf("source.dsn: required for provider %s", src.Provider)
		}
	}
	return nil
}

// LoadConfig reads the YAML file at path and applies defaults. It does not
// validate: environment and flag layers may still change the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads path (or defaults when path is empty) and
// then applies FWRULES_* environment variables, which always win over the
// file. Callers run Validate once their own overrides are applied.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("FWRULES_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("FWRULES_LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}
	if val := os.Getenv("FWRULES_LOG_FILE"); val != "" {
		cfg.Log.File = val
	}
	if val := os.Getenv("FWRULES_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("FWRULES_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("FWRULES_SOURCE_PROVIDER"); val != "" {
		cfg.Source.Provider = val
	}
	if val := os.Getenv("FWRULES_SOURCE_DSN"); val != "" {
		cfg.Source.DSN = val
	}
	if val := os.Getenv("FWRULES_VALIDATE_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Validate.Workers = i
		}
	}
}
