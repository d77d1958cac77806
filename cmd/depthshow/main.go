// Package main provides the CLI entry point for depthshow.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/depthshow/pkg/adapters/ggrenderer"
	"github.com/user/depthshow/pkg/adapters/httpdisplay"
	"github.com/user/depthshow/pkg/adapters/logger"
	"github.com/user/depthshow/pkg/adapters/nulldisplay"
	"github.com/user/depthshow/pkg/adapters/osfilesystem"
	"github.com/user/depthshow/pkg/adapters/rawsource"
	"github.com/user/depthshow/pkg/adapters/synthsource"
	"github.com/user/depthshow/pkg/config"
	"github.com/user/depthshow/pkg/depthshow"
	"github.com/user/depthshow/pkg/display"
	"github.com/user/depthshow/pkg/metrics"
	"github.com/user/depthshow/pkg/orchestrator"
	"github.com/user/depthshow/pkg/ports"
	"github.com/user/depthshow/pkg/preview"
	"github.com/user/depthshow/pkg/processor"
	"github.com/user/depthshow/pkg/summarizer"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "depthshow",
		Usage:       l10n.T("Visualize depth sensor frames in false color"),
		Version:     version,
		Description: l10n.T("depthshow colors depth frames by distance and shows them in the browser."),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T("Configuration")},
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: l10n.T("Sensor preset (kinect-v2, kinect-v1, realsense)"), Category: l10n.T("Configuration")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
		},
		Commands: []*cli.Command{
			{
				Name:        "serve",
				Usage:       l10n.T("Process frames and serve a live preview over HTTP"),
				Description: l10n.T("Read depth frames, color them and stream the result as MJPEG."),
				Flags:       append(sourceFlags(), previewFlags()...),
				Action:      runServe,
			},
			{
				Name:        "bench",
				Usage:       l10n.T("Process frames without a display and report throughput"),
				Description: l10n.T("Process a fixed number of frames and write a Markdown summary."),
				Flags: append(sourceFlags(),
					&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Usage: l10n.T("Number of frames to process (default: 300)"), Category: l10n.T("Benchmark")},
					&cli.StringFlag{Name: "summary", Aliases: []string{"o"}, Usage: l10n.T("Output execution summary to file (Markdown format)"), Category: l10n.T("Benchmark")},
				),
				Action: runBench,
			},
			{
				Name:   "version",
				Usage:  l10n.T("Show version information"),
				Action: runVersion,
			},
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "replay", Aliases: []string{"r"}, Usage: l10n.T("Replay frames from a recorded stream instead of the synthetic scene"), Category: l10n.T("Source")},
		&cli.BoolFlag{Name: "loop", Usage: l10n.T("Restart the replay at the end of the stream"), Category: l10n.T("Source")},
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Synthetic frame width"), Category: l10n.T("Source")},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Synthetic frame height"), Category: l10n.T("Source")},
		&cli.UintFlag{Name: "min-reliable", Usage: l10n.T("Minimum reliable distance in millimeters"), Category: l10n.T("Source")},
		&cli.UintFlag{Name: "max-reliable", Usage: l10n.T("Maximum reliable distance in millimeters"), Category: l10n.T("Source")},
		&cli.Float64Flag{Name: "fps", Usage: l10n.T("Source frame rate (0 = as fast as possible)"), Category: l10n.T("Source")},
		&cli.IntFlag{Name: "switch-after", Usage: l10n.T("Toggle the synthetic resolution every N frames"), Category: l10n.T("Source")},

		&cli.UintFlag{Name: "hue-max-depth", Usage: l10n.T("Depth in millimeters where the hue completes one turn"), Category: l10n.T("Color")},
		&cli.StringFlag{Name: "markers", Usage: l10n.T("Marker palette (classic, highlight)"), Category: l10n.T("Color")},
		&cli.BoolFlag{Name: "no-lut", Usage: l10n.T("Map every pixel directly instead of using a lookup table"), Category: l10n.T("Color")},

		&cli.BoolFlag{Name: "no-auto-reconfigure", Usage: l10n.T("Skip frames of another size instead of resizing"), Category: l10n.T("Processing")},
		&cli.IntFlag{Name: "max-frames", Usage: l10n.T("Stop after this many frames (0 = unlimited)"), Category: l10n.T("Processing")},
	}
}

func previewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "listen", Aliases: []string{"a"}, Usage: l10n.T("Preview server address"), Category: l10n.T("Preview")},
		&cli.Float64Flag{Name: "scale", Usage: l10n.T("Preview scale factor"), Category: l10n.T("Preview")},
		&cli.StringFlag{Name: "filter", Usage: l10n.T("Scaling filter (nearest, smooth)"), Category: l10n.T("Preview")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("Preview JPEG quality (1-100)"), Category: l10n.T("Preview")},
		&cli.Float64Flag{Name: "max-fps", Usage: l10n.T("Frame rate cap per stream (0 = unlimited)"), Category: l10n.T("Preview")},
		&cli.BoolFlag{Name: "no-legend", Usage: l10n.T("Hide the legend bar"), Category: l10n.T("Preview")},
		&cli.BoolFlag{Name: "no-status", Usage: l10n.T("Hide the status row"), Category: l10n.T("Preview")},
	}
}

// loadConfig layers the config file, the preset flag and the command flags.
func loadConfig(c *cli.Context, fs ports.FileSystem) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(fs, path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("preset") {
		if err := cfg.ApplyPreset(c.String("preset")); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("replay") {
		cfg.Source.Kind = string(depthshow.SourceReplay)
		cfg.Source.Path = c.String("replay")
	}
	if c.IsSet("loop") {
		cfg.Source.Loop = c.Bool("loop")
	}
	if c.IsSet("width") {
		cfg.Source.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Source.Height = c.Int("height")
	}
	if c.IsSet("min-reliable") {
		v, err := depthFlag(c, "min-reliable")
		if err != nil {
			return cfg, err
		}
		cfg.Source.MinReliable = v
	}
	if c.IsSet("max-reliable") {
		v, err := depthFlag(c, "max-reliable")
		if err != nil {
			return cfg, err
		}
		cfg.Source.MaxReliable = v
	}
	if c.IsSet("fps") {
		cfg.Source.FPS = c.Float64("fps")
	}
	if c.IsSet("switch-after") {
		// toggle between the configured size and half of it
		cfg.Source.SwitchAfter = c.Int("switch-after")
		if cfg.Source.SwitchWidth == 0 || cfg.Source.SwitchHeight == 0 {
			cfg.Source.SwitchWidth = cfg.Source.Width / 2
			cfg.Source.SwitchHeight = cfg.Source.Height / 2
		}
	}
	if c.IsSet("hue-max-depth") {
		v, err := depthFlag(c, "hue-max-depth")
		if err != nil {
			return cfg, err
		}
		cfg.Color.HueMaxDepth = v
	}
	if c.IsSet("markers") {
		cfg.Color.Markers = c.String("markers")
	}
	if c.Bool("no-lut") {
		cfg.Color.LookupTable = false
	}
	if c.Bool("no-auto-reconfigure") {
		cfg.Processing.AutoReconfigure = false
	}
	if c.IsSet("max-frames") {
		cfg.Processing.MaxFrames = c.Int("max-frames")
	}

	if c.IsSet("listen") {
		cfg.Preview.Listen = c.String("listen")
	}
	if c.IsSet("scale") {
		cfg.Preview.Scale = c.Float64("scale")
	}
	if c.IsSet("filter") {
		cfg.Preview.Filter = c.String("filter")
	}
	if c.IsSet("quality") {
		cfg.Preview.Quality = c.Int("quality")
	}
	if c.IsSet("max-fps") {
		cfg.Preview.MaxFPS = c.Float64("max-fps")
	}
	if c.Bool("no-legend") {
		cfg.Preview.Legend = false
	}
	if c.Bool("no-status") {
		cfg.Preview.Status = false
	}

	if c.IsSet("frames") {
		cfg.Bench.Frames = c.Int("frames")
	}
	if c.IsSet("summary") {
		cfg.Bench.Summary = c.String("summary")
	}

	return cfg, cfg.Validate()
}

// depthFlag reads a millimeter flag, rejecting values a depth sample cannot hold.
func depthFlag(c *cli.Context, name string) (uint16, error) {
	v := c.Uint(name)
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("--%s %d exceeds %d mm: %w", name, v, math.MaxUint16, config.ErrInvalidConfig)
	}
	return uint16(v), nil
}

func newLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func openSource(cfg depthshow.Config, fs ports.FileSystem, log ports.Logger) (ports.FrameSource, error) {
	switch cfg.Source {
	case depthshow.SourceReplay:
		log.Info("Replaying frames from %s", cfg.ReplayPath)
		return rawsource.Open(fs, cfg.ReplayPath, cfg.ReplayOptions(), log)
	default:
		log.Info("Using synthetic source (%dx%d, reliable %d-%d mm)", cfg.Width, cfg.Height, cfg.MinReliable, cfg.MaxReliable)
		return synthsource.New(cfg.SynthOptions(), log), nil
	}
}

func newProcessor(cfg depthshow.Config, log ports.Logger) *processor.Processor {
	return processor.New(cfg.Mapper(),
		processor.WithLogger(log),
		processor.WithLookupTable(cfg.LookupTable),
	)
}

type loopResult struct {
	result orchestrator.RunResult
	err    error
}

func runServe(c *cli.Context) error {
	fs := osfilesystem.New()
	log := newLogger(c)

	fileCfg, err := loadConfig(c, fs)
	if err != nil {
		return err
	}
	cfg, err := fileCfg.Build()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(c.Context)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	source, err := openSource(cfg, fs, log)
	if err != nil {
		return err
	}
	defer source.Close()

	m := metrics.New()
	presenter := display.NewPresenter()
	orch := orchestrator.New(source, newProcessor(cfg, log), presenter, m, log)

	composer := preview.NewComposer(presenter, ggrenderer.New(), cfg.Mapper(), cfg.PreviewOptions(), log)
	server := httpdisplay.New(composer, m, httpdisplay.Options{
		MaxFPS:  cfg.MaxFPS,
		Stats:   func() any { return orch.Stats() },
		Version: version,
	}, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(runCtx, cfg.Listen)
	}()

	loopDone := make(chan loopResult, 1)
	go func() {
		result, err := orch.Run(runCtx, cfg.ToOrchestratorConfig())
		loopDone <- loopResult{result, err}
	}()

	select {
	case err := <-serverErr:
		cancel()
		<-loopDone
		presenter.Close()
		return err

	case done := <-loopDone:
		if done.err != nil {
			cancel()
			presenter.Close()
			<-serverErr
			return done.err
		}
	}

	// The source ended; keep serving the last frame until interrupted.
	select {
	case <-runCtx.Done():
	case err := <-serverErr:
		presenter.Close()
		return err
	}
	presenter.Close()
	return <-serverErr
}

func runBench(c *cli.Context) error {
	fs := osfilesystem.New()
	log := newLogger(c)

	fileCfg, err := loadConfig(c, fs)
	if err != nil {
		return err
	}
	// Benchmarks run unpaced unless a frame rate is requested.
	if !c.IsSet("fps") {
		fileCfg.Source.FPS = 0
	}
	if fileCfg.Bench.Frames > 0 {
		fileCfg.Processing.MaxFrames = fileCfg.Bench.Frames
	}
	cfg, err := fileCfg.Build()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	source, err := openSource(cfg, fs, log)
	if err != nil {
		return err
	}
	defer source.Close()

	orchCfg := cfg.ToOrchestratorConfig()
	orchCfg.ReportInterval = 0
	orch := orchestrator.New(source, newProcessor(cfg, log), nulldisplay.New(), nil, log)

	result, err := orch.Run(ctx, orchCfg)
	if err != nil {
		return err
	}

	summary := buildSummary(cfg, result)
	writer := summarizer.NewWriter(
		summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		),
		fs,
	)

	if path := fileCfg.Bench.Summary; path != "" {
		if err := writer.Write(path, summary); err != nil {
			log.Error("Failed to write summary: %s", err.Error())
			return err
		}
		log.Info("Summary saved to %s", path)
		return nil
	}
	return writer.WriteTo(c.App.Writer, summary)
}

func buildSummary(cfg depthshow.Config, result orchestrator.RunResult) *summarizer.Summary {
	source := summarizer.SourceInfo{
		Kind:        string(cfg.Source),
		Path:        cfg.ReplayPath,
		Width:       result.Width,
		Height:      result.Height,
		MinReliable: result.MinReliable,
		MaxReliable: result.MaxReliable,
	}
	if source.Width == 0 {
		source.Width, source.Height = cfg.Width, cfg.Height
	}

	return summarizer.NewBuilder().
		WithSource(source).
		WithSettings(summarizer.Settings{
			Preset:          string(cfg.Preset),
			Markers:         cfg.MarkerName,
			HueMaxDepth:     cfg.HueMaxDepth,
			LookupTable:     cfg.LookupTable,
			AutoReconfigure: cfg.AutoReconfigure,
			BytesPerPixel:   cfg.BytesPerPixel,
		}).
		WithRun(summarizer.RunInfo{
			FramesRead:       result.FramesRead,
			FramesProcessed:  result.FramesProcessed,
			FramesSkipped:    result.FramesSkipped,
			Reconfigurations: result.Reconfigurations,
			Duration:         result.Duration,
			AvgProcessTime:   result.AvgProcessTime(),
			MaxProcessTime:   result.MaxProcessTime,
			StopReason:       result.StopReason,
		}).
		WithPixels(result.Pixels).
		Build()
}

func runVersion(c *cli.Context) error {
	_, err := fmt.Fprintln(c.App.Writer, l10n.F("depthshow version %s", version))
	return err
}
