package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Engine defaults
	if cfg.Engine.SnapTolerance != 1e-9 {
		t.Errorf("expected snap tolerance 1e-9, got %g", cfg.Engine.SnapTolerance)
	}
	if cfg.Engine.ReconnectMaxSteps != 0 {
		t.Errorf("expected reconnect max steps 0, got %d", cfg.Engine.ReconnectMaxSteps)
	}
	if !cfg.Engine.ShortestPathFallback {
		t.Error("expected shortest path fallback to be enabled by default")
	}

	// Import defaults
	if !cfg.Import.TrimHull {
		t.Error("expected trim_hull to be true by default")
	}
	if cfg.Import.MaxTriangleLength != 0 {
		t.Errorf("expected max triangle length 0, got %g", cfg.Import.MaxTriangleLength)
	}

	// Export defaults
	if cfg.Export.PaddingRatio != 0.05 {
		t.Errorf("expected padding ratio 0.05, got %g", cfg.Export.PaddingRatio)
	}
	if cfg.Export.EmitBoundingRectangle {
		t.Error("expected emit_bounding_rectangle to be false by default")
	}
	if cfg.Export.Format != FormatYAML {
		t.Errorf("expected format yaml, got %s", cfg.Export.Format)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero padding", func(c *Config) { c.Export.PaddingRatio = 0 }},
		{"padding of one", func(c *Config) { c.Export.PaddingRatio = 1 }},
		{"negative tolerance", func(c *Config) { c.Engine.SnapTolerance = -1e-6 }},
		{"negative steps", func(c *Config) { c.Engine.ReconnectMaxSteps = -2 }},
		{"negative triangle length", func(c *Config) { c.Import.MaxTriangleLength = -5 }},
		{"unknown format", func(c *Config) { c.Export.Format = "dxf" }},
		{"unknown level", func(c *Config) { c.Logging.Level = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
engine:
  snap_tolerance: 0.001
  reconnect_max_steps: 50
  shortest_path_fallback: false

import:
  trim_hull: false
  max_triangle_length: 250

export:
  padding_ratio: 0.1
  emit_bounding_rectangle: true
  format: geojson

logging:
  level: "debug"
  log_file: "tintool.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.SnapTolerance != 0.001 {
		t.Errorf("expected snap tolerance 0.001, got %g", cfg.Engine.SnapTolerance)
	}
	if cfg.Engine.ReconnectMaxSteps != 50 {
		t.Errorf("expected max steps 50, got %d", cfg.Engine.ReconnectMaxSteps)
	}
	if cfg.Engine.ShortestPathFallback {
		t.Error("expected shortest path fallback to be false")
	}
	if cfg.Import.TrimHull {
		t.Error("expected trim_hull to be false")
	}
	if cfg.Import.MaxTriangleLength != 250 {
		t.Errorf("expected max triangle length 250, got %g", cfg.Import.MaxTriangleLength)
	}
	if cfg.Export.PaddingRatio != 0.1 {
		t.Errorf("expected padding ratio 0.1, got %g", cfg.Export.PaddingRatio)
	}
	if !cfg.Export.EmitBoundingRectangle {
		t.Error("expected emit_bounding_rectangle to be true")
	}
	if cfg.Export.Format != FormatGeoJSON {
		t.Errorf("expected format geojson, got %s", cfg.Export.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "tintool.log" {
		t.Errorf("expected log file 'tintool.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("export:\n  padding_ratio: 0.2\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Export.PaddingRatio != 0.2 {
		t.Errorf("expected padding ratio 0.2, got %g", cfg.Export.PaddingRatio)
	}
	// Untouched sections keep their defaults
	if !cfg.Import.TrimHull || cfg.Export.Format != FormatYAML {
		t.Error("expected defaults to survive a partial file")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("expected empty file to load, got %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad syntax", "engine:\n  snap_tolerance: not a number\n  invalid syntax here\n"},
		{"unknown field", "graphics:\n  width: 1280\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid config, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/tintool.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("export:\n  format: geojson\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Export.PaddingRatio = 0.25
	cfg.Import.TrimHull = false
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Export.PaddingRatio != 0.25 || loaded.Import.TrimHull {
		t.Errorf("saved config not restored: %+v", loaded)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "log file flag",
			setup: func() { *flagLogFile = "run.log" },
			verify: func(cfg *Config) {
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLogFile = "" },
		},
		{
			name:  "padding flag",
			setup: func() { *flagPadding = 0.2 },
			verify: func(cfg *Config) {
				if cfg.Export.PaddingRatio != 0.2 {
					t.Errorf("expected padding 0.2, got %g", cfg.Export.PaddingRatio)
				}
			},
			teardown: func() { *flagPadding = 0 },
		},
		{
			name: "zero tolerance and step limit",
			setup: func() {
				*flagTolerance = 0
				*flagMaxSteps = 12
			},
			verify: func(cfg *Config) {
				if cfg.Engine.SnapTolerance != 0 {
					t.Errorf("expected tolerance 0, got %g", cfg.Engine.SnapTolerance)
				}
				if cfg.Engine.ReconnectMaxSteps != 12 {
					t.Errorf("expected max steps 12, got %d", cfg.Engine.ReconnectMaxSteps)
				}
			},
			teardown: func() {
				*flagTolerance = -1
				*flagMaxSteps = -1
			},
		},
		{
			name:  "keep hull flag",
			setup: func() { *flagKeepHull = true },
			verify: func(cfg *Config) {
				if cfg.Import.TrimHull {
					t.Error("expected trim_hull to be false with keep-hull flag")
				}
			},
			teardown: func() { *flagKeepHull = false },
		},
		{
			name: "triangle length and rectangle flags",
			setup: func() {
				*flagMaxTriLength = 40
				*flagEmitRectangle = true
			},
			verify: func(cfg *Config) {
				if cfg.Import.MaxTriangleLength != 40 {
					t.Errorf("expected max triangle length 40, got %g", cfg.Import.MaxTriangleLength)
				}
				if !cfg.Export.EmitBoundingRectangle {
					t.Error("expected emit_bounding_rectangle with emit-rectangle flag")
				}
			},
			teardown: func() {
				*flagMaxTriLength = 0
				*flagEmitRectangle = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	yamlContent := `
export:
  padding_ratio: 0.1
  emit_bounding_rectangle: false
import:
  max_triangle_length: 80
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagPadding = 0.3
	defer func() {
		*flagConfig = ""
		*flagPadding = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Padding comes from the flag, not the file
	if cfg.Export.PaddingRatio != 0.3 {
		t.Errorf("expected padding 0.3 from flag, got %g", cfg.Export.PaddingRatio)
	}
	// Triangle length comes from the file since no flag overrides it
	if cfg.Import.MaxTriangleLength != 80 {
		t.Errorf("expected max triangle length 80 from file, got %g", cfg.Import.MaxTriangleLength)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("export:\n  padding_ratio: 1.5\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Import.MaxTriangleLength = 30
	cfg.Export.EmitBoundingRectangle = true

	imp := cfg.ImportOptions(nil)
	if !imp.TrimHull || imp.MaxTriangleLength != 30 || len(imp.MeshOptions) != 3 {
		t.Errorf("unexpected import options %+v", imp)
	}
	exp := cfg.ExportOptions(nil)
	if exp.PaddingRatio != 0.05 || !exp.EmitBoundingRectangle {
		t.Errorf("unexpected export options %+v", exp)
	}
}
