// Package config handles tintool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/tinbridge/internal/logger"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Export formats.
const (
	FormatYAML    = "yaml"
	FormatGeoJSON = "geojson"
)

// Config holds all tintool settings.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Import  ImportConfig  `yaml:"import"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds mesh construction settings.
type EngineConfig struct {
	SnapTolerance        float64 `yaml:"snap_tolerance"`         // Merge distance for duplicate points
	ReconnectMaxSteps    int     `yaml:"reconnect_max_steps"`    // 0 means the number of points
	ShortestPathFallback bool    `yaml:"shortest_path_fallback"` // Search the edge graph when the angle walk fails
}

// ImportConfig holds settings for meshes read from a host.
type ImportConfig struct {
	TrimHull          bool    `yaml:"trim_hull"`
	MaxTriangleLength float64 `yaml:"max_triangle_length"`
}

// ExportConfig holds settings for meshes handed to a host.
type ExportConfig struct {
	PaddingRatio          float64 `yaml:"padding_ratio"`
	EmitBoundingRectangle bool    `yaml:"emit_bounding_rectangle"`
	Format                string  `yaml:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			SnapTolerance:        1e-9,
			ReconnectMaxSteps:    0,
			ShortestPathFallback: true,
		},
		Import: ImportConfig{
			TrimHull:          true,
			MaxTriangleLength: 0,
		},
		Export: ExportConfig{
			PaddingRatio:          0.05,
			EmitBoundingRectangle: false,
			Format:                FormatYAML,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	switch {
	case c.Engine.SnapTolerance < 0:
		return fmt.Errorf("%w: snap_tolerance %g is negative", ErrInvalidConfig, c.Engine.SnapTolerance)
	case c.Engine.ReconnectMaxSteps < 0:
		return fmt.Errorf("%w: reconnect_max_steps %d is negative", ErrInvalidConfig, c.Engine.ReconnectMaxSteps)
	case c.Import.MaxTriangleLength < 0:
		return fmt.Errorf("%w: max_triangle_length %g is negative", ErrInvalidConfig, c.Import.MaxTriangleLength)
	case c.Export.PaddingRatio <= 0 || c.Export.PaddingRatio >= 1:
		return fmt.Errorf("%w: padding_ratio %g must be between 0 and 1", ErrInvalidConfig, c.Export.PaddingRatio)
	case c.Export.Format != FormatYAML && c.Export.Format != FormatGeoJSON:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Export.Format)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
