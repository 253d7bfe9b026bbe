package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile       = flag.String("log-file", "", "Write logs to a rotating file")
	flagPadding       = flag.Float64("padding", 0, "Export padding ratio")
	flagTolerance     = flag.Float64("tolerance", -1, "Snap tolerance for duplicate points")
	flagMaxSteps      = flag.Int("max-steps", -1, "Step limit for the reconnect angle walk (0 = number of points)")
	flagTrimHull      = flag.Bool("trim-hull", false, "Remove the host's bounding rectangle on import")
	flagKeepHull      = flag.Bool("keep-hull", false, "Keep the boundary of an imported mesh as supplied")
	flagMaxTriLength  = flag.Float64("max-tri-length", 0, "Remove boundary triangles with a longer hull side")
	flagEmitRectangle = flag.Bool("emit-rectangle", false, "Send the padding rectangle as a feature on export")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagPadding > 0 {
		cfg.Export.PaddingRatio = *flagPadding
	}
	if *flagTolerance >= 0 {
		cfg.Engine.SnapTolerance = *flagTolerance
	}
	if *flagMaxSteps >= 0 {
		cfg.Engine.ReconnectMaxSteps = *flagMaxSteps
	}
	if *flagTrimHull {
		cfg.Import.TrimHull = true
	}
	if *flagKeepHull {
		cfg.Import.TrimHull = false
	}
	if *flagMaxTriLength > 0 {
		cfg.Import.MaxTriangleLength = *flagMaxTriLength
	}
	if *flagEmitRectangle {
		cfg.Export.EmitBoundingRectangle = true
	}
}
