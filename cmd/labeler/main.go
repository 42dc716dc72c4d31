// labeler renders one labelled image per counter value (or a single literal
// text) on top of a background image.
//
// Usage:
//
//	labeler -bg card.png -out ./out -start 1 -end 100 [options]
//	labeler -bg card.png -out ./out -ranges "1-10:2, 40-35" [options]
//	labeler -bg card.png -out ./out -text "VIP" [options]
//	labeler -job job.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"image-labeler/internal/app"
	"image-labeler/internal/config"
	"image-labeler/internal/domain"
	"image-labeler/internal/usecase/render"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	if err := run(os.Args[1:]); err != nil {
		zlog.Logger.Error().Err(err).Msg("Labeler failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	spec, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := validator.New().Struct(spec); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	// A local -out is relative to the working directory, not the storage root.
	if spec.OutputDir != "" && cfg.Storage.Backend != app.BackendMinIO {
		if spec.OutputDir, err = filepath.Abs(spec.OutputDir); err != nil {
			return fmt.Errorf("invalid output directory: %w", err)
		}
	}

	stack, err := app.NewRenderStack(cfg, &zlog.Logger)
	if err != nil {
		return err
	}

	bg, err := render.LoadBackground(spec.Background)
	if err != nil {
		return err
	}

	if spec.ID == "" {
		spec.ID = uuid.New().String()
	}
	job, err := render.NewJob(spec.ID, spec, bg, stack.Fonts, stack.Limits)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := stack.Runner.Start(ctx, job)
	var failure string
	for ev := range r.Events() {
		switch ev.Type {
		case domain.EventEstimate:
			zlog.Logger.Info().Int("total", ev.Total).Msg("Generation started")
		case domain.EventProgress:
			zlog.Logger.Info().Int("processed", ev.Processed).Int("total", ev.Total).Msg("Progress")
		case domain.EventLog:
			zlog.Logger.Info().Msg(ev.Message)
		case domain.EventError:
			failure = ev.Message
		case domain.EventDone:
			zlog.Logger.Info().
				Str("state", string(ev.State)).
				Int("processed", ev.Processed).
				Str("output_dir", ev.OutputDir).
				Msg("Generation finished")
		}
	}

	if r.Wait() == domain.StateFailed {
		return fmt.Errorf("run failed: %s", failure)
	}
	return nil
}

func parseFlags(args []string) (domain.JobSpec, error) {
	fs := flag.NewFlagSet("labeler", flag.ExitOnError)

	var (
		spec     domain.JobSpec
		jobFile  string
		text     string
		ranges   string
		color    string
		padding  int
		format   string
		manifest string
		fit      string
		unit     string
		hAlign   string
		vAlign   string
	)

	fs.StringVar(&jobFile, "job", "", "JSON job file; other flags are ignored")
	fs.StringVar(&spec.Background, "bg", "", "Background image path")
	fs.StringVar(&spec.OutputDir, "out", "", "Output directory (storage default when empty)")
	fs.StringVar(&spec.BaseName, "name", domain.DefaultBaseName, "Base filename")
	fs.StringVar(&format, "format", "jpg", "Output format: jpg, png, tiff")
	fs.StringVar(&manifest, "report", "xlsx", "Report format: xlsx, csv")
	fs.StringVar(&fit, "fit", "cover", "Background fit: cover, contain")
	fs.BoolVar(&spec.Canvas.Auto, "auto", false, "Use the background's own pixel size")
	fs.Float64Var(&spec.Canvas.Width, "width", 2, "Canvas width")
	fs.Float64Var(&spec.Canvas.Height, "height", 3, "Canvas height")
	fs.StringVar(&unit, "unit", "inches", "Canvas unit: inches, cm, mm")
	fs.IntVar(&spec.Canvas.DPI, "dpi", domain.DefaultDPI, "Dots per inch")
	fs.StringVar(&spec.FontPath, "font", "", "TrueType font file")
	fs.IntVar(&spec.FontSize, "size", domain.DefaultFontSize, "Font size")
	fs.StringVar(&color, "color", "0,0,0", "Text color as r,g,b")
	fs.BoolVar(&spec.Outline, "outline", false, "Draw a 1px black outline")
	fs.IntVar(&padding, "pad", domain.DefaultPadding, "Padding on every side")
	fs.StringVar(&hAlign, "halign", "center", "Horizontal alignment: left, center, right")
	fs.StringVar(&vAlign, "valign", "middle", "Vertical alignment: top, middle, bottom")
	fs.StringVar(&text, "text", "", "Literal text; renders a single image")
	fs.IntVar(&spec.Source.Start, "start", 1, "First counter value")
	fs.IntVar(&spec.Source.End, "end", 10, "Last counter value")
	fs.IntVar(&spec.Source.Step, "step", 1, "Counter step")
	fs.StringVar(&ranges, "ranges", "", `Batch ranges, e.g. "1-10:2, 15; 20-18"`)
	fs.StringVar(&spec.Source.Prefix, "prefix", "", "Counter label prefix")
	fs.StringVar(&spec.Source.Suffix, "suffix", "", "Counter label suffix")

	if err := fs.Parse(args); err != nil {
		return spec, err
	}

	if jobFile != "" {
		return readJobFile(jobFile)
	}

	if spec.Background == "" {
		return spec, fmt.Errorf("background image is required (-bg)")
	}

	rgb, err := parseRGB(color)
	if err != nil {
		return spec, err
	}
	spec.Color = rgb
	spec.Padding = domain.Padding{Left: padding, Right: padding, Top: padding, Bottom: padding}
	spec.Format = domain.ImageFormat(strings.ToLower(format))
	spec.Manifest = domain.ManifestFormat(strings.ToLower(manifest))
	spec.Fit = domain.FitMode(fit)
	spec.Canvas.Unit = domain.Unit(unit)
	spec.HAlign = domain.HAlign(hAlign)
	spec.VAlign = domain.VAlign(vAlign)

	switch {
	case text != "":
		spec.Source.Kind = domain.SourceText
		spec.Source.Text = text
	case ranges != "":
		spec.Source.Kind = domain.SourceRanges
		spec.Source.Ranges = ranges
	default:
		spec.Source.Kind = domain.SourceNumbers
	}

	return spec, nil
}

func readJobFile(path string) (domain.JobSpec, error) {
	var spec domain.JobSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("failed to read job file: %w", err)
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("failed to parse job file: %w", err)
	}
	return spec, nil
}

func parseRGB(s string) (domain.RGB, error) {
	parts := strings.Split(strings.ReplaceAll(s, " ", ""), ",")
	if len(parts) != 3 {
		return domain.RGB{}, fmt.Errorf("invalid color %q, want r,g,b", s)
	}

	var ch [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return domain.RGB{}, fmt.Errorf("invalid color component %q", p)
		}
		ch[i] = v
	}
	return domain.RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}
