package weights

import (
	"fmt"
	"log/slog"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadCalibration loads initial ranking weights from a calibration file
// (YAML; JSON files parse too since YAML is a superset). Partial files
// are shallow-merged over defaults so deployments can calibrate a
// handful of constants without restating the full configuration.
//
// On any error the defaults are returned alongside the error so the
// caller can degrade gracefully; a missing path simply means "use
// defaults".
func LoadCalibration(path string) (Weights, error) {
	defaults := Defaults()
	if path == "" {
		return defaults, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", path,
			"error", err)
		return defaults, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var override Weights
	if err := k.Unmarshal("", &override); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", path,
			"error", err)
		return defaults, fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := Merge(defaults, override)
	if err := merged.Validate(); err != nil {
		slog.Warn("calibration file failed validation, using defaults",
			"path", path,
			"error", err)
		return defaults, fmt.Errorf("invalid calibration: %w", err)
	}

	logCalibrationOverrides(defaults, merged)
	return merged, nil
}

// logCalibrationOverrides logs which weight sections were changed from
// defaults by a calibration file.
func logCalibrationOverrides(defaults, loaded Weights) {
	var overrides []string

	if loaded.Engagement != defaults.Engagement {
		overrides = append(overrides, "engagement")
	}
	if loaded.Freshness != defaults.Freshness {
		overrides = append(overrides, "freshness")
	}
	if loaded.Discovery != defaults.Discovery {
		overrides = append(overrides, "discovery")
	}
	if loaded.Network != defaults.Network {
		overrides = append(overrides, "network")
	}
	if loaded.Quality != defaults.Quality {
		overrides = append(overrides, "quality")
	}
	if loaded.Penalty != defaults.Penalty {
		overrides = append(overrides, "penalty")
	}
	if loaded.Blend != defaults.Blend {
		overrides = append(overrides, "blend")
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"sections", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
