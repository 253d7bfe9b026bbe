// tintool is a CLI utility for importing, inspecting and exporting TIN meshes.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/tinbridge/internal/config"
	"github.com/Faultbox/tinbridge/internal/logger"
	"github.com/Faultbox/tinbridge/pkg/exchange"
	"github.com/Faultbox/tinbridge/pkg/formats"
	"github.com/Faultbox/tinbridge/pkg/tin"
)

func main() {
	// Parse global flags first
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "export":
		err = cmdExport(cfg, args)
	case "clip":
		err = cmdClip(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		logger.Sync()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tintool - TIN mesh interchange utility

Usage:
  tintool [global flags] <command> [options] <doc.yaml>

Commands:
  info <doc.yaml>                                Import a document and show mesh statistics
  export [-o out] [-format yaml|geojson] <doc.yaml>
                                                 Import, pad and export a document
  clip -feature <id> [-internal] [-o out] <doc.yaml>
                                                 Import and clip to a polygon feature

Global flags:
  -config <path>        Config file (default ./tintool.yaml or the user config dir)
  -debug                Enable debug logging
  -log-file <path>      Write logs to a rotating file
  -padding <ratio>      Export padding ratio
  -tolerance <dist>     Snap tolerance for duplicate points
  -max-steps <n>        Reconnect angle walk step limit (0 = number of points)
  -trim-hull            Remove the host's bounding rectangle on import
  -keep-hull            Keep an imported boundary as supplied
  -max-tri-length <len> Remove boundary triangles with a longer hull side
  -emit-rectangle       Send the padding rectangle as a feature on export

Examples:
  tintool info site.yaml
  tintool -padding 0.1 export -o site-out.yaml site.yaml
  tintool export -format geojson -o site.geojson site.yaml
  tintool clip -feature 3 -internal site.yaml`)
}

// importDocument loads and imports a stream document.
func importDocument(cfg *config.Config, path string) (*exchange.Result, error) {
	doc, err := formats.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	res, err := exchange.Import(doc, cfg.ImportOptions(logger.Log))
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	for _, d := range res.DroppedFeatures() {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", d)
	}
	return res, nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: tintool info <doc.yaml>")
	}
	res, err := importDocument(cfg, args[0])
	if err != nil {
		return err
	}
	m := res.Mesh

	fmt.Printf("Document:  %s\n", args[0])
	fmt.Printf("Points:    %d\n", m.NumPoints())
	fmt.Printf("Edges:     %d\n", m.NumEdges())
	fmt.Printf("Triangles: %d\n", m.TriangleCount())
	fmt.Printf("Hull:      %d points\n", len(m.HullPoints()))
	fmt.Printf("Features:  %d\n", m.NumFeatures())
	fmt.Printf("Dropped:   %d\n", len(res.DroppedFeatures()))

	if m.NumFeatures() == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Features by type:")
	byType := make(map[tin.FeatureType]int)
	for _, f := range m.Features() {
		byType[f.Type]++
	}
	types := make([]tin.FeatureType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Printf("  %-26s %d\n", t, byType[t])
	}
	return nil
}

func cmdExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default stdout)")
	format := fs.String("format", cfg.Export.Format, "Output format: yaml or geojson")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: tintool export [-o out] [-format yaml|geojson] <doc.yaml>")
	}
	res, err := importDocument(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	return writeMesh(cfg, res.Mesh, *format, *output)
}

func cmdClip(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("clip", flag.ExitOnError)
	featureID := fs.Int("feature", 0, "Id of the polygon feature to clip to")
	internal := fs.Bool("internal", false, "Cut the polygon out instead of keeping it")
	output := fs.String("o", "", "Write the clipped mesh as an export document")
	fs.Parse(args)

	if fs.NArg() < 1 || *featureID <= 0 {
		return fmt.Errorf("usage: tintool clip -feature <id> [-internal] [-o out] <doc.yaml>")
	}
	res, err := importDocument(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	m := res.Mesh

	f, ok := m.Feature(tin.FeatureID(*featureID))
	if !ok {
		return fmt.Errorf("%w: %d", tin.ErrUnknownFeature, *featureID)
	}
	opt := tin.ClipExternal
	if *internal {
		opt = tin.ClipInternal
	}
	before := m.TriangleCount()
	if err := m.ClipToPolygon(f.Points, opt); err != nil {
		return fmt.Errorf("clipping to feature %d: %w", f.ID, err)
	}
	logger.Info("clipped mesh",
		zap.Int("feature", int(f.ID)), zap.Stringer("option", opt),
		zap.Int("before", before), zap.Int("after", m.TriangleCount()))

	fmt.Printf("Clipped %s to %s feature %d (%s)\n", fs.Arg(0), f.Type, f.ID, opt)
	fmt.Printf("Points:    %d\n", m.NumPoints())
	fmt.Printf("Triangles: %d (was %d)\n", m.TriangleCount(), before)
	fmt.Printf("Hull:      %d points\n", len(m.HullPoints()))

	if *output == "" {
		return nil
	}
	return writeMesh(cfg, m, config.FormatYAML, *output)
}

// writeMesh exports m to path, or to stdout when path is empty.
func writeMesh(cfg *config.Config, m *tin.Mesh, format, path string) (err error) {
	var w io.Writer = os.Stdout
	if path != "" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("creating output: %w", cerr)
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		w = f
	}

	switch format {
	case config.FormatYAML:
		var rec formats.Recorder
		if err := exchange.Export(m, &rec, cfg.ExportOptions(logger.Log)); err != nil {
			return fmt.Errorf("exporting mesh: %w", err)
		}
		return rec.Doc.Write(w)
	case config.FormatGeoJSON:
		return writePaddedGeoJSON(w, m, cfg.Export.PaddingRatio)
	}
	return fmt.Errorf("unknown format %q", format)
}

// writePaddedGeoJSON writes m as the host would receive it, padding included.
func writePaddedGeoJSON(w io.Writer, m *tin.Mesh, ratio float64) (err error) {
	island, err := m.InsertPaddingRectangle(ratio)
	if err != nil {
		return fmt.Errorf("padding mesh: %w", err)
	}
	defer func() {
		if serr := m.ClipToIslandFeature(island); serr != nil {
			err = multierr.Append(err, fmt.Errorf("stripping padding: %w", serr))
		}
	}()
	return formats.WriteGeoJSON(w, m)
}
