// Package depthshow provides a high-level API for configuring depth
// visualization runs.
package depthshow

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/user/depthshow/pkg/adapters/rawsource"
	"github.com/user/depthshow/pkg/adapters/synthsource"
	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/orchestrator"
	"github.com/user/depthshow/pkg/pipeline"
	"github.com/user/depthshow/pkg/ports"
	"github.com/user/depthshow/pkg/preview"
)

// ErrUnknownPreset is returned for a sensor preset name that is not defined.
var ErrUnknownPreset = errors.New("unknown sensor preset")

// Preset represents a sensor preset name.
type Preset string

const (
	PresetKinectV2  Preset = "kinect-v2"
	PresetKinectV1  Preset = "kinect-v1"
	PresetRealSense Preset = "realsense"
)

// Presets returns all preset names.
func Presets() []Preset {
	return []Preset{PresetKinectV2, PresetKinectV1, PresetRealSense}
}

// SensorSettings contains the frame geometry and reliable range of a sensor.
type SensorSettings struct {
	Width       int
	Height      int
	MinReliable uint16 // mm
	MaxReliable uint16 // mm
	FPS         float64
}

// GetSensorSettings returns sensor settings for the given preset.
func GetSensorSettings(preset Preset) (SensorSettings, error) {
	switch preset {
	case PresetKinectV2:
		return SensorSettings{Width: 512, Height: 424, MinReliable: 500, MaxReliable: 4500, FPS: 30}, nil
	case PresetKinectV1:
		return SensorSettings{Width: 640, Height: 480, MinReliable: 800, MaxReliable: 4000, FPS: 30}, nil
	case PresetRealSense:
		return SensorSettings{Width: 848, Height: 480, MinReliable: 300, MaxReliable: 10000, FPS: 30}, nil
	default:
		return SensorSettings{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
}

// SourceKind selects where frames come from.
type SourceKind string

const (
	SourceSynthetic SourceKind = "synthetic"
	SourceReplay    SourceKind = "replay"
)

// Config represents the configuration for a depthshow run.
type Config struct {
	Preset Preset

	// Source
	Source      SourceKind
	ReplayPath  string // Recorded frame stream for SourceReplay
	Loop        bool   // Restart the replay at the end of the stream
	Width       int    // Frame width of the synthetic scene
	Height      int    // Frame height of the synthetic scene
	MinReliable uint16 // Reliable range of the synthetic scene in mm
	MaxReliable uint16
	FPS         float64 // Source frame rate (0 = as fast as possible)

	// Synthetic resolution switching
	SwitchAfter  int
	SwitchWidth  int
	SwitchHeight int

	// Color mapping
	HueMaxDepth uint16 // Depth in mm where the hue completes one turn
	MarkerName  string
	Markers     colormap.Markers
	LookupTable bool

	// Processing
	BytesPerPixel   int
	AutoReconfigure bool
	MaxFrames       int // Stop after this many frames (0 = unlimited)
	ReportInterval  time.Duration

	// Preview
	Listen     string
	Scale      float64
	Filter     ports.ScaleFilter
	Quality    int // JPEG quality (1-100)
	MaxFPS     float64
	ShowLegend bool
	ShowStatus bool

	// Style
	BackgroundColor color.Color
	TextColor       color.Color
	BorderColor     color.Color
	FontPath        string
	FontSize        float64
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with kinect-v2 preset defaults.
func NewConfigBuilder() *ConfigBuilder {
	b, _ := NewPresetConfigBuilder(PresetKinectV2)
	return b
}

// NewPresetConfigBuilder creates a new ConfigBuilder with the given preset's
// sensor settings.
func NewPresetConfigBuilder(preset Preset) (*ConfigBuilder, error) {
	sensor, err := GetSensorSettings(preset)
	if err != nil {
		return nil, err
	}
	return &ConfigBuilder{config: defaults(preset, sensor)}, nil
}

func defaults(preset Preset, sensor SensorSettings) Config {
	theme := pipeline.DefaultTheme()
	return Config{
		Preset: preset,

		// Source
		Source:      SourceSynthetic,
		Width:       sensor.Width,
		Height:      sensor.Height,
		MinReliable: sensor.MinReliable,
		MaxReliable: sensor.MaxReliable,
		FPS:         sensor.FPS,

		// Color mapping
		HueMaxDepth: colormap.HueMapMaxDepthMM,
		MarkerName:  "classic",
		Markers:     colormap.ClassicMarkers(),
		LookupTable: true,

		// Processing
		BytesPerPixel:   depth.BytesPerPixelBGR32,
		AutoReconfigure: true,
		ReportInterval:  10 * time.Second,

		// Preview
		Listen:     "127.0.0.1:8080",
		Scale:      1,
		Filter:     ports.ScaleNearest,
		Quality:    80,
		MaxFPS:     15,
		ShowLegend: true,
		ShowStatus: true,

		// Style
		BackgroundColor: theme.BackgroundColor,
		TextColor:       theme.TextColor,
		BorderColor:     theme.BorderColor,
		FontSize:        theme.FontSize,
	}
}

// Build returns the final Config, applying validation and constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	if cfg.Width < 1 {
		cfg.Width = 1
	}
	if cfg.Height < 1 {
		cfg.Height = 1
	}
	if cfg.MaxReliable < cfg.MinReliable {
		cfg.MinReliable, cfg.MaxReliable = cfg.MaxReliable, cfg.MinReliable
	}
	if cfg.FPS < 0 {
		cfg.FPS = 0
	}
	if cfg.HueMaxDepth == 0 {
		cfg.HueMaxDepth = colormap.HueMapMaxDepthMM
	}
	if cfg.BytesPerPixel < 3 {
		cfg.BytesPerPixel = depth.BytesPerPixelBGR32
	}
	if cfg.MaxFrames < 0 {
		cfg.MaxFrames = 0
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	cfg.Quality = min(max(cfg.Quality, 1), 100)
	if cfg.MaxFPS < 0 {
		cfg.MaxFPS = 0
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = pipeline.DefaultTheme().FontSize
	}

	return cfg
}

// WithSensor replaces the synthetic frame geometry and reliable range.
func (b *ConfigBuilder) WithSensor(sensor SensorSettings) *ConfigBuilder {
	b.config.Width = sensor.Width
	b.config.Height = sensor.Height
	b.config.MinReliable = sensor.MinReliable
	b.config.MaxReliable = sensor.MaxReliable
	b.config.FPS = sensor.FPS
	return b
}

// WithSynthetic selects the synthetic scene as the frame source.
func (b *ConfigBuilder) WithSynthetic() *ConfigBuilder {
	b.config.Source = SourceSynthetic
	b.config.ReplayPath = ""
	return b
}

// WithReplay selects a recorded frame stream as the frame source.
func (b *ConfigBuilder) WithReplay(path string, loop bool) *ConfigBuilder {
	b.config.Source = SourceReplay
	b.config.ReplayPath = path
	b.config.Loop = loop
	return b
}

// WithSize sets the synthetic frame size.
func (b *ConfigBuilder) WithSize(width, height int) *ConfigBuilder {
	b.config.Width = width
	b.config.Height = height
	return b
}

// WithReliableRange sets the synthetic reliable range in millimeters.
func (b *ConfigBuilder) WithReliableRange(minMM, maxMM uint16) *ConfigBuilder {
	b.config.MinReliable = minMM
	b.config.MaxReliable = maxMM
	return b
}

// WithFPS sets the source frame rate.
func (b *ConfigBuilder) WithFPS(fps float64) *ConfigBuilder {
	b.config.FPS = fps
	return b
}

// WithResolutionSwitch toggles the synthetic resolution every n frames.
func (b *ConfigBuilder) WithResolutionSwitch(n, width, height int) *ConfigBuilder {
	b.config.SwitchAfter = n
	b.config.SwitchWidth = width
	b.config.SwitchHeight = height
	return b
}

// WithHueMaxDepth sets the depth at which the hue sweep completes one turn.
func (b *ConfigBuilder) WithHueMaxDepth(mm uint16) *ConfigBuilder {
	b.config.HueMaxDepth = mm
	return b
}

// WithMarkers sets the sentinel colors. name is reported in summaries.
func (b *ConfigBuilder) WithMarkers(name string, markers colormap.Markers) *ConfigBuilder {
	b.config.MarkerName = name
	b.config.Markers = markers
	return b
}

// WithLookupTable enables or disables the per-range color lookup table.
func (b *ConfigBuilder) WithLookupTable(enabled bool) *ConfigBuilder {
	b.config.LookupTable = enabled
	return b
}

// WithBytesPerPixel sets the display buffer pixel size (min: 3).
func (b *ConfigBuilder) WithBytesPerPixel(n int) *ConfigBuilder {
	b.config.BytesPerPixel = n
	return b
}

// WithAutoReconfigure controls whether frame size changes resize the buffers.
func (b *ConfigBuilder) WithAutoReconfigure(enabled bool) *ConfigBuilder {
	b.config.AutoReconfigure = enabled
	return b
}

// WithMaxFrames stops the run after n frames.
func (b *ConfigBuilder) WithMaxFrames(n int) *ConfigBuilder {
	b.config.MaxFrames = n
	return b
}

// WithReportInterval sets how often progress is logged.
func (b *ConfigBuilder) WithReportInterval(d time.Duration) *ConfigBuilder {
	b.config.ReportInterval = d
	return b
}

// WithListen sets the preview server address.
func (b *ConfigBuilder) WithListen(addr string) *ConfigBuilder {
	b.config.Listen = addr
	return b
}

// WithScale sets the preview scale factor.
func (b *ConfigBuilder) WithScale(scale float64) *ConfigBuilder {
	b.config.Scale = scale
	return b
}

// WithFilter sets the preview resampling filter.
func (b *ConfigBuilder) WithFilter(filter ports.ScaleFilter) *ConfigBuilder {
	b.config.Filter = filter
	return b
}

// WithQuality sets the preview JPEG quality (1-100).
func (b *ConfigBuilder) WithQuality(quality int) *ConfigBuilder {
	b.config.Quality = quality
	return b
}

// WithMaxFPS caps the preview stream frame rate.
func (b *ConfigBuilder) WithMaxFPS(fps float64) *ConfigBuilder {
	b.config.MaxFPS = fps
	return b
}

// WithLegend shows or hides the legend bar.
func (b *ConfigBuilder) WithLegend(show bool) *ConfigBuilder {
	b.config.ShowLegend = show
	return b
}

// WithStatus shows or hides the status row.
func (b *ConfigBuilder) WithStatus(show bool) *ConfigBuilder {
	b.config.ShowStatus = show
	return b
}

// WithBackgroundColor sets the preview background color.
func (b *ConfigBuilder) WithBackgroundColor(c color.Color) *ConfigBuilder {
	b.config.BackgroundColor = c
	return b
}

// WithTextColor sets the preview text color.
func (b *ConfigBuilder) WithTextColor(c color.Color) *ConfigBuilder {
	b.config.TextColor = c
	return b
}

// WithBorderColor sets the frame border color.
func (b *ConfigBuilder) WithBorderColor(c color.Color) *ConfigBuilder {
	b.config.BorderColor = c
	return b
}

// WithFont sets the label font. An empty path uses the built-in face.
func (b *ConfigBuilder) WithFont(path string, size float64) *ConfigBuilder {
	b.config.FontPath = path
	b.config.FontSize = size
	return b
}

// Mapper returns the color mapper described by c.
func (c Config) Mapper() colormap.Mapper {
	return colormap.New().
		WithMarkers(c.Markers).
		WithHueMaxDepth(c.HueMaxDepth)
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.Config{
		BytesPerPixel:   c.BytesPerPixel,
		AutoReconfigure: c.AutoReconfigure,
		MaxFrames:       c.MaxFrames,
		ReportInterval:  c.ReportInterval,
	}
	// Replayed streams configure from their first frame.
	if c.Source == SourceSynthetic {
		cfg.Width = c.Width
		cfg.Height = c.Height
	}
	return cfg
}

// SynthOptions returns the synthetic scene options.
func (c Config) SynthOptions() synthsource.Options {
	return synthsource.Options{
		Width:        c.Width,
		Height:       c.Height,
		MinReliable:  c.MinReliable,
		MaxReliable:  c.MaxReliable,
		FPS:          c.FPS,
		SwitchAfter:  c.SwitchAfter,
		SwitchWidth:  c.SwitchWidth,
		SwitchHeight: c.SwitchHeight,
	}
}

// ReplayOptions returns the replay options.
func (c Config) ReplayOptions() rawsource.Options {
	return rawsource.Options{
		Loop: c.Loop,
		FPS:  c.FPS,
	}
}

// PreviewOptions returns the preview rendering options.
func (c Config) PreviewOptions() preview.Options {
	opts := preview.DefaultOptions()
	opts.Scale = c.Scale
	opts.Filter = c.Filter
	opts.Quality = c.Quality
	opts.ShowLegend = c.ShowLegend
	opts.ShowStatus = c.ShowStatus
	opts.Theme = pipeline.Theme{
		BackgroundColor: c.BackgroundColor,
		TextColor:       c.TextColor,
		BorderColor:     c.BorderColor,
		FontPath:        c.FontPath,
		FontSize:        c.FontSize,
	}
	return opts
}
