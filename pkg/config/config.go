// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depthshow"
	"github.com/user/depthshow/pkg/orchestrator"
	"github.com/user/depthshow/pkg/ports"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the full configuration file for depthshow.
type Config struct {
	Preset     string           `yaml:"preset"`
	Source     SourceConfig     `yaml:"source"`
	Color      ColorConfig      `yaml:"color"`
	Processing ProcessingConfig `yaml:"processing"`
	Preview    PreviewConfig    `yaml:"preview"`
	Bench      BenchConfig      `yaml:"bench"`
}

// SourceConfig selects and shapes the frame source.
type SourceConfig struct {
	Kind        string  `yaml:"kind"` // synthetic or replay
	Path        string  `yaml:"path"`
	Loop        bool    `yaml:"loop"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	MinReliable uint16  `yaml:"min_reliable"`
	MaxReliable uint16  `yaml:"max_reliable"`
	FPS         float64 `yaml:"fps"`

	SwitchAfter  int `yaml:"switch_after"`
	SwitchWidth  int `yaml:"switch_width"`
	SwitchHeight int `yaml:"switch_height"`
}

// ColorConfig represents the color mapping options.
type ColorConfig struct {
	HueMaxDepth uint16 `yaml:"hue_max_depth"`
	Markers     string `yaml:"markers"` // classic or highlight

	// Optional marker overrides (hex, e.g. #f2ef29)
	NoData     string `yaml:"no_data"`
	OutOfRange string `yaml:"out_of_range"`

	LookupTable bool `yaml:"lookup_table"`
}

// ProcessingConfig represents the frame loop options.
type ProcessingConfig struct {
	BytesPerPixel   int           `yaml:"bytes_per_pixel"`
	AutoReconfigure bool          `yaml:"auto_reconfigure"`
	MaxFrames       int           `yaml:"max_frames"`
	ReportInterval  time.Duration `yaml:"report_interval"`
}

// PreviewConfig represents the HTTP preview options.
type PreviewConfig struct {
	Listen  string      `yaml:"listen"`
	Scale   float64     `yaml:"scale"`
	Filter  string      `yaml:"filter"` // nearest or smooth
	Quality int         `yaml:"quality"`
	MaxFPS  float64     `yaml:"max_fps"`
	Legend  bool        `yaml:"legend"`
	Status  bool        `yaml:"status"`
	Theme   ThemeConfig `yaml:"theme"`
}

// ThemeConfig represents theming options.
type ThemeConfig struct {
	BackgroundColor string  `yaml:"background_color"`
	TextColor       string  `yaml:"text_color"`
	BorderColor     string  `yaml:"border_color"`
	FontPath        string  `yaml:"font_path"`
	FontSize        float64 `yaml:"font_size"`
}

// BenchConfig represents the bench command options.
type BenchConfig struct {
	Frames  int    `yaml:"frames"`
	Summary string `yaml:"summary"`
}

// Defaults returns a Config with kinect-v2 default values.
func Defaults() Config {
	cfg, _ := DefaultsFor(string(depthshow.PresetKinectV2))
	return cfg
}

// DefaultsFor returns a Config with the default values of the given sensor
// preset.
func DefaultsFor(preset string) (Config, error) {
	b, err := depthshow.NewPresetConfigBuilder(depthshow.Preset(preset))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	d := b.Build()

	return Config{
		Preset: preset,
		Source: SourceConfig{
			Kind:        string(d.Source),
			Width:       d.Width,
			Height:      d.Height,
			MinReliable: d.MinReliable,
			MaxReliable: d.MaxReliable,
			FPS:         d.FPS,
		},
		Color: ColorConfig{
			HueMaxDepth: d.HueMaxDepth,
			Markers:     d.MarkerName,
			LookupTable: d.LookupTable,
		},
		Processing: ProcessingConfig{
			BytesPerPixel:   d.BytesPerPixel,
			AutoReconfigure: d.AutoReconfigure,
			MaxFrames:       d.MaxFrames,
			ReportInterval:  d.ReportInterval,
		},
		Preview: PreviewConfig{
			Listen:  d.Listen,
			Scale:   d.Scale,
			Filter:  "nearest",
			Quality: d.Quality,
			MaxFPS:  d.MaxFPS,
			Legend:  d.ShowLegend,
			Status:  d.ShowStatus,
			Theme: ThemeConfig{
				BackgroundColor: FormatColor(d.BackgroundColor),
				TextColor:       FormatColor(d.TextColor),
				BorderColor:     FormatColor(d.BorderColor),
				FontSize:        d.FontSize,
			},
		},
		Bench: BenchConfig{
			Frames: 300,
		},
	}, nil
}

// LoadFromFile loads configuration from a YAML file. Values missing from
// the file keep the defaults of the preset named in the file.
func LoadFromFile(fs ports.FileSystem, path string) (Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return Defaults(), fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults of its preset.
func Parse(data []byte) (Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Defaults(), fmt.Errorf("parse config: %w", err)
	}

	cfg := Defaults()
	if head.Preset != "" {
		var err error
		if cfg, err = DefaultsFor(head.Preset); err != nil {
			return Defaults(), err
		}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyPreset replaces the source geometry with the given preset's sensor
// settings.
func (c *Config) ApplyPreset(preset string) error {
	sensor, err := depthshow.GetSensorSettings(depthshow.Preset(preset))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.Preset = preset
	c.Source.Width = sensor.Width
	c.Source.Height = sensor.Height
	c.Source.MinReliable = sensor.MinReliable
	c.Source.MaxReliable = sensor.MaxReliable
	c.Source.FPS = sensor.FPS
	return nil
}

// Validate reports every invalid field, joined into one error.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := depthshow.GetSensorSettings(depthshow.Preset(c.Preset)); err != nil {
		fail("preset %q", c.Preset)
	}

	switch depthshow.SourceKind(c.Source.Kind) {
	case depthshow.SourceSynthetic:
	case depthshow.SourceReplay:
		if c.Source.Path == "" {
			fail("source.path is required for replay")
		}
	default:
		fail("source.kind %q (want synthetic or replay)", c.Source.Kind)
	}
	if c.Source.Width <= 0 || c.Source.Height <= 0 {
		fail("source size %dx%d", c.Source.Width, c.Source.Height)
	}
	if c.Source.MinReliable > c.Source.MaxReliable {
		fail("reliable range %d-%d", c.Source.MinReliable, c.Source.MaxReliable)
	}
	if c.Source.FPS < 0 {
		fail("source.fps %v", c.Source.FPS)
	}

	if _, ok := colormap.MarkersByName(c.Color.Markers); !ok {
		fail("color.markers %q (want classic or highlight)", c.Color.Markers)
	}
	for name, hex := range map[string]string{
		"color.no_data":                  c.Color.NoData,
		"color.out_of_range":             c.Color.OutOfRange,
		"preview.theme.background_color": c.Preview.Theme.BackgroundColor,
		"preview.theme.text_color":       c.Preview.Theme.TextColor,
		"preview.theme.border_color":     c.Preview.Theme.BorderColor,
	} {
		if hex == "" {
			continue
		}
		if _, err := ParseColor(hex); err != nil {
			fail("%s: %v", name, err)
		}
	}

	if c.Processing.BytesPerPixel < 3 {
		fail("processing.bytes_per_pixel %d (min: 3)", c.Processing.BytesPerPixel)
	}
	if c.Processing.MaxFrames < 0 {
		fail("processing.max_frames %d", c.Processing.MaxFrames)
	}

	if c.Preview.Scale <= 0 {
		fail("preview.scale %v", c.Preview.Scale)
	}
	if c.Preview.Filter != "" && c.Preview.Filter != "nearest" && c.Preview.Filter != "smooth" {
		fail("preview.filter %q (want nearest or smooth)", c.Preview.Filter)
	}
	if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
		fail("preview.quality %d (1-100)", c.Preview.Quality)
	}
	if c.Bench.Frames < 0 {
		fail("bench.frames %d", c.Bench.Frames)
	}

	return errors.Join(errs...)
}

// Build validates c and converts it to a depthshow.Config.
func (c Config) Build() (depthshow.Config, error) {
	if err := c.Validate(); err != nil {
		return depthshow.Config{}, err
	}

	b, err := depthshow.NewPresetConfigBuilder(depthshow.Preset(c.Preset))
	if err != nil {
		return depthshow.Config{}, err
	}

	if depthshow.SourceKind(c.Source.Kind) == depthshow.SourceReplay {
		b.WithReplay(c.Source.Path, c.Source.Loop)
	} else {
		b.WithSynthetic()
	}
	b.WithSize(c.Source.Width, c.Source.Height).
		WithReliableRange(c.Source.MinReliable, c.Source.MaxReliable).
		WithFPS(c.Source.FPS).
		WithResolutionSwitch(c.Source.SwitchAfter, c.Source.SwitchWidth, c.Source.SwitchHeight)

	markers, _ := colormap.MarkersByName(c.Color.Markers)
	if c.Color.NoData != "" {
		markers.NoData = mustRGB(c.Color.NoData)
	}
	if c.Color.OutOfRange != "" {
		markers.OutOfRange = mustRGB(c.Color.OutOfRange)
	}
	b.WithMarkers(c.Color.Markers, markers).
		WithHueMaxDepth(c.Color.HueMaxDepth).
		WithLookupTable(c.Color.LookupTable)

	b.WithBytesPerPixel(c.Processing.BytesPerPixel).
		WithAutoReconfigure(c.Processing.AutoReconfigure).
		WithMaxFrames(c.Processing.MaxFrames).
		WithReportInterval(c.Processing.ReportInterval)

	b.WithListen(c.Preview.Listen).
		WithScale(c.Preview.Scale).
		WithFilter(ports.ParseScaleFilter(c.Preview.Filter)).
		WithQuality(c.Preview.Quality).
		WithMaxFPS(c.Preview.MaxFPS).
		WithLegend(c.Preview.Legend).
		WithStatus(c.Preview.Status).
		WithFont(c.Preview.Theme.FontPath, c.Preview.Theme.FontSize)
	if c.Preview.Theme.BackgroundColor != "" {
		b.WithBackgroundColor(mustColor(c.Preview.Theme.BackgroundColor))
	}
	if c.Preview.Theme.TextColor != "" {
		b.WithTextColor(mustColor(c.Preview.Theme.TextColor))
	}
	if c.Preview.Theme.BorderColor != "" {
		b.WithBorderColor(mustColor(c.Preview.Theme.BorderColor))
	}

	return b.Build(), nil
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() (orchestrator.Config, error) {
	d, err := c.Build()
	if err != nil {
		return orchestrator.Config{}, err
	}
	return d.ToOrchestratorConfig(), nil
}

// ParseColor parses a hex color string ("#dcdcdc", "dcdcdc" or "#ddd").
func ParseColor(hex string) (color.Color, error) {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ParseMarker parses a hex color string into a marker color.
func ParseMarker(hex string) (colormap.RGB, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return colormap.RGB{}, err
	}
	rgba := c.(color.RGBA)
	return colormap.RGB{R: rgba.R, G: rgba.G, B: rgba.B}, nil
}

// FormatColor formats c as #rrggbb.
func FormatColor(c color.Color) string {
	if c == nil {
		return ""
	}
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

// mustColor and mustRGB are only called on values accepted by Validate.
func mustColor(hex string) color.Color {
	c, _ := ParseColor(hex)
	return c
}

func mustRGB(hex string) colormap.RGB {
	c, _ := ParseMarker(hex)
	return c
}
