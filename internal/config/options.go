package config

import (
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/pkg/exchange"
	"github.com/Faultbox/tinbridge/pkg/tin"
)

// MeshOptions returns the engine settings as mesh options.
func (c *Config) MeshOptions() []tin.Option {
	return []tin.Option{
		tin.WithSnapTolerance(c.Engine.SnapTolerance),
		tin.WithReconnectMaxSteps(c.Engine.ReconnectMaxSteps),
		tin.WithShortestPathFallback(c.Engine.ShortestPathFallback),
	}
}

// ImportOptions returns the import settings for an exchange.Import call.
func (c *Config) ImportOptions(log *zap.Logger) exchange.ImportOptions {
	return exchange.ImportOptions{
		Logger:            log,
		TrimHull:          c.Import.TrimHull,
		MaxTriangleLength: c.Import.MaxTriangleLength,
		MeshOptions:       c.MeshOptions(),
	}
}

// ExportOptions returns the export settings for an exchange.Export call.
func (c *Config) ExportOptions(log *zap.Logger) exchange.ExportOptions {
	return exchange.ExportOptions{
		PaddingRatio:          c.Export.PaddingRatio,
		EmitBoundingRectangle: c.Export.EmitBoundingRectangle,
		Logger:                log,
	}
}
