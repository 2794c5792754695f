// Package config handles facerecon configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/morphface/internal/logger"
	"github.com/Faultbox/morphface/pkg/crop"
)

// Config holds all facerecon settings.
type Config struct {
	Model   ModelConfig   `yaml:"model" toml:"model"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Crop    CropConfig    `yaml:"crop" toml:"crop"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ModelConfig locates the basis model container.
type ModelConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// OutputConfig controls where and how meshes are written.
type OutputConfig struct {
	Dir         string `yaml:"dir" toml:"dir"`                 // Directory for relative output paths
	Textureless bool   `yaml:"textureless" toml:"textureless"` // Write geometry-only PLY by default
}

// CropConfig holds face crop settings.
type CropConfig struct {
	DetectorProfile  [4]float64 `yaml:"detector_profile" toml:"detector_profile"`
	LandmarkProfile  [4]float64 `yaml:"landmark_profile" toml:"landmark_profile"`
	InputSize        int        `yaml:"input_size" toml:"input_size"` // 0 keeps the crop size
	OverlayThickness int        `yaml:"overlay_thickness" toml:"overlay_thickness"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Path: "bfm.bin",
		},
		Output: OutputConfig{
			Dir:         ".",
			Textureless: false,
		},
		Crop: CropConfig{
			DetectorProfile:  crop.DetectorProfile,
			LandmarkProfile:  crop.LandmarkProfile,
			InputSize:        crop.DefaultInputSize,
			OverlayThickness: crop.DefaultOverlayThickness,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is empty")
	}
	if err := crop.Profile(c.Crop.DetectorProfile).Validate(); err != nil {
		return fmt.Errorf("crop.detector_profile: %w", err)
	}
	if err := crop.Profile(c.Crop.LandmarkProfile).Validate(); err != nil {
		return fmt.Errorf("crop.landmark_profile: %w", err)
	}
	if c.Crop.InputSize < 0 {
		return fmt.Errorf("crop.input_size must not be negative, got %d", c.Crop.InputSize)
	}
	if c.Crop.OverlayThickness < 0 {
		return fmt.Errorf("crop.overlay_thickness must not be negative, got %d", c.Crop.OverlayThickness)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
