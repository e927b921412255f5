// Package config provides configuration loading and validation for the
// ranking engine's host process. It uses koanf to merge environment
// variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the ranking engine host.
type Config struct {
	// Env selects the logging profile ("production" switches to JSON).
	Env string `koanf:"env"`

	// CalibrationPath points at the optional ranking-weights
	// calibration file loaded at startup.
	CalibrationPath string `koanf:"calibration_path"`

	// DiscoveryRatio overrides the target discovery fraction of the
	// mixed feed window. Zero means "use the weights store value".
	DiscoveryRatio float64 `koanf:"discovery_ratio"`

	// BatchLimit caps the number of candidate posts accepted per
	// ranking request.
	BatchLimit int `koanf:"batch_limit"`
}

// Configuration validation errors.
var (
	ErrInvalidDiscoveryRatio = errors.New("DISCOVERY_RATIO must be in [0, 1]")
	ErrInvalidBatchLimit     = errors.New("BATCH_LIMIT must be positive")
)

// Default values.
const (
	DefaultEnv        = "development"
	DefaultBatchLimit = 100
)

// Load reads configuration from environment variables and an optional
// YAML config file. Environment variables take precedence over file
// values. Returns the loaded config and a slice of validation errors
// (empty if valid). If a config file path is provided and the file
// cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	ratio, ratioErr := getEnvFloatOrDefault("FEEDRANK_DISCOVERY_RATIO", k, "discovery_ratio", 0)
	if ratioErr != nil {
		loadErrs = append(loadErrs, ratioErr)
	}

	batchLimit, batchErr := getEnvIntOrDefault("FEEDRANK_BATCH_LIMIT", k, "batch_limit", DefaultBatchLimit)
	if batchErr != nil {
		loadErrs = append(loadErrs, batchErr)
	}

	cfg := &Config{
		Env:             getEnvOrDefault("FEEDRANK_ENV", k.String("env"), DefaultEnv),
		CalibrationPath: getEnvOrKoanf("FEEDRANK_CALIBRATION_PATH", k, "calibration_path"),
		DiscoveryRatio:  ratio,
		BatchLimit:      batchLimit,
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// Validate checks the loaded values and returns every violation found.
func (c *Config) Validate() []error {
	var errs []error
	if c.DiscoveryRatio < 0 || c.DiscoveryRatio > 1 {
		errs = append(errs, ErrInvalidDiscoveryRatio)
	}
	if c.BatchLimit <= 0 {
		errs = append(errs, ErrInvalidBatchLimit)
	}
	return errs
}

// getEnvOrKoanf returns the environment variable value if set,
// otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault parses an integer from the environment, falling
// back to the koanf value and then the default.
func getEnvIntOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		return parsed, nil
	}
	if k.Exists(koanfKey) {
		return k.Int(koanfKey), nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault parses a float from the environment, falling
// back to the koanf value and then the default.
func getEnvFloatOrDefault(envKey string, k *koanf.Koanf, koanfKey string, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		return parsed, nil
	}
	if k.Exists(koanfKey) {
		return k.Float64(koanfKey), nil
	}
	return defaultVal, nil
}
