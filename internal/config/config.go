package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
)

// Global configuration structure.
type Global struct {
	// Profiling limits
	MaxCells             int     `mapstructure:"max_cells" yaml:"max_cells"`
	HeaderScanRows       int     `mapstructure:"header_scan_rows" yaml:"header_scan_rows"`
	PreviewRows          int     `mapstructure:"preview_rows" yaml:"preview_rows"`
	OutlierZ             float64 `mapstructure:"outlier_z" yaml:"outlier_z"`
	CorrelationThreshold float64 `mapstructure:"correlation_threshold" yaml:"correlation_threshold"`

	// Path to a YAML token-weight model; empty selects the keyword classifier.
	ClassifierModel string `mapstructure:"classifier_model" yaml:"classifier_model"`

	// HTTP server
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

var defaults = map[string]any{
	"max_cells":             200000,
	"header_scan_rows":      8,
	"preview_rows":          20,
	"outlier_z":             3.0,
	"correlation_threshold": 0.5,
	"classifier_model":      "",
	"listen_addr":           "127.0.0.1:8080",
	"max_upload_mb":         25,
	"log_level":             "info",
}

// Keys lists the configuration keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultPath is ~/.smartdoc/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".smartdoc", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.smartdoc/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SMARTDOC")
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return v
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	var c Global
	_ = newViper().Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := newViper()
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the profiler cannot run with.
func (c *Global) Validate() error {
	switch {
	case c.MaxCells <= 0:
		return apperr.Validation("max_cells", "must be positive, got %d", c.MaxCells)
	case c.HeaderScanRows <= 0:
		return apperr.Validation("header_scan_rows", "must be positive, got %d", c.HeaderScanRows)
	case c.PreviewRows < 0:
		return apperr.Validation("preview_rows", "must not be negative, got %d", c.PreviewRows)
	case c.OutlierZ <= 0:
		return apperr.Validation("outlier_z", "must be positive, got %g", c.OutlierZ)
	case c.CorrelationThreshold < 0 || c.CorrelationThreshold > 1:
		return apperr.Validation("correlation_threshold", "must be within [0,1], got %g", c.CorrelationThreshold)
	case c.MaxUploadMB <= 0:
		return apperr.Validation("max_upload_mb", "must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// Set assigns one key from its string form, as typed on the command line.
func (c *Global) Set(key, value string) error {
	v := viper.New()
	v.Set(key, value)
	switch key {
	case "max_cells":
		c.MaxCells = v.GetInt(key)
	case "header_scan_rows":
		c.HeaderScanRows = v.GetInt(key)
	case "preview_rows":
		c.PreviewRows = v.GetInt(key)
	case "outlier_z":
		c.OutlierZ = v.GetFloat64(key)
	case "correlation_threshold":
		c.CorrelationThreshold = v.GetFloat64(key)
	case "classifier_model":
		c.ClassifierModel = value
	case "listen_addr":
		c.ListenAddr = value
	case "max_upload_mb":
		c.MaxUploadMB = v.GetInt(key)
	case "log_level":
		c.LogLevel = value
	default:
		return apperr.Validation("key", "unknown config key %q", key)
	}
	return c.Validate()
}

// Values returns the configuration keyed like the config file.
func (c *Global) Values() map[string]any {
	return map[string]any{
		"max_cells":             c.MaxCells,
		"header_scan_rows":      c.HeaderScanRows,
		"preview_rows":          c.PreviewRows,
		"outlier_z":             c.OutlierZ,
		"correlation_threshold": c.CorrelationThreshold,
		"classifier_model":      c.ClassifierModel,
		"listen_addr":           c.ListenAddr,
		"max_upload_mb":         c.MaxUploadMB,
		"log_level":             c.LogLevel,
	}
}
