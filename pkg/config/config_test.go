package config

import (
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depthshow"
	"github.com/user/depthshow/pkg/mocks"
	"github.com/user/depthshow/pkg/ports"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Preset != "kinect-v2" {
		t.Errorf("expected kinect-v2, got %q", cfg.Preset)
	}
	if cfg.Source.Width != 512 || cfg.Source.Height != 424 {
		t.Errorf("expected 512x424, got %dx%d", cfg.Source.Width, cfg.Source.Height)
	}
	if cfg.Preview.Theme.BackgroundColor != "#18181c" {
		t.Errorf("unexpected background %q", cfg.Preview.Theme.BackgroundColor)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDefaultsFor_UnknownPreset(t *testing.T) {
	if _, err := DefaultsFor("lidar"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/etc/depthshow.yaml", []byte(`
preset: realsense
source:
  fps: 15
color:
  markers: highlight
  no_data: "#112233"
processing:
  report_interval: 2s
preview:
  listen: ":9090"
  filter: smooth
`))

	cfg, err := LoadFromFile(fs, "/etc/depthshow.yaml")
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	// preset defaults fill the fields the file leaves out
	if cfg.Source.Width != 848 || cfg.Source.Height != 480 || cfg.Source.MaxReliable != 10000 {
		t.Errorf("expected realsense geometry, got %+v", cfg.Source)
	}
	if cfg.Source.FPS != 15 {
		t.Errorf("expected fps 15, got %v", cfg.Source.FPS)
	}
	if cfg.Processing.ReportInterval != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.Processing.ReportInterval)
	}
	if !cfg.Color.LookupTable {
		t.Error("expected lookup table default to survive")
	}

	d, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := colormap.Markers{NoData: colormap.RGB{R: 0x11, G: 0x22, B: 0x33}, OutOfRange: colormap.HighlightOutOfRange}
	if diff := cmp.Diff(want, d.Markers); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}
	if d.Filter != ports.ScaleSmooth || d.Listen != ":9090" {
		t.Errorf("unexpected preview settings %+v", d)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/bad.yaml", []byte("source: [unclosed"))
	fs.AddFile("/preset.yaml", []byte("preset: lidar"))

	if _, err := LoadFromFile(fs, "/missing.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := LoadFromFile(fs, "/bad.yaml"); err == nil {
		t.Error("expected an error for malformed YAML")
	}
	if _, err := LoadFromFile(fs, "/preset.yaml"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for an unknown preset, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"unknown preset", func(c *Config) { c.Preset = "lidar" }, "preset"},
		{"unknown source", func(c *Config) { c.Source.Kind = "camera" }, "source.kind"},
		{"replay without path", func(c *Config) { c.Source.Kind = "replay" }, "source.path"},
		{"zero size", func(c *Config) { c.Source.Width = 0 }, "source size"},
		{"inverted range", func(c *Config) { c.Source.MinReliable = 5000 }, "reliable range"},
		{"unknown markers", func(c *Config) { c.Color.Markers = "neon" }, "color.markers"},
		{"bad marker color", func(c *Config) { c.Color.OutOfRange = "#zzzzzz" }, "color.out_of_range"},
		{"bad theme color", func(c *Config) { c.Preview.Theme.TextColor = "red" }, "preview.theme.text_color"},
		{"narrow pixels", func(c *Config) { c.Processing.BytesPerPixel = 2 }, "bytes_per_pixel"},
		{"zero scale", func(c *Config) { c.Preview.Scale = 0 }, "preview.scale"},
		{"unknown filter", func(c *Config) { c.Preview.Filter = "bilinear" }, "preview.filter"},
		{"quality", func(c *Config) { c.Preview.Quality = 101 }, "preview.quality"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to mention %q, got %v", tt.field, err)
			}
			if _, err := cfg.Build(); err == nil {
				t.Error("expected Build to fail")
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Preview.Scale = 0
	cfg.Preview.Quality = 0

	err := cfg.Validate()
	if got := strings.Count(err.Error(), "invalid configuration"); got != 2 {
		t.Errorf("expected 2 problems, got %d: %v", got, err)
	}
}

func TestApplyPreset(t *testing.T) {
	cfg := Defaults()
	cfg.Preview.Quality = 60

	if err := cfg.ApplyPreset("kinect-v1"); err != nil {
		t.Fatal(err)
	}
	if cfg.Source.Width != 640 || cfg.Source.MinReliable != 800 {
		t.Errorf("expected kinect-v1 geometry, got %+v", cfg.Source)
	}
	if cfg.Preview.Quality != 60 {
		t.Error("expected unrelated settings to be kept")
	}
	if err := cfg.ApplyPreset("lidar"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestToOrchestratorConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Processing.MaxFrames = 42
	cfg.Processing.AutoReconfigure = false

	orch, err := cfg.ToOrchestratorConfig()
	if err != nil {
		t.Fatal(err)
	}
	if orch.MaxFrames != 42 || orch.AutoReconfigure || orch.Width != 512 {
		t.Errorf("unexpected orchestrator config %+v", orch)
	}

	cfg.Source.Kind = string(depthshow.SourceReplay)
	if _, err := cfg.ToOrchestratorConfig(); err == nil {
		t.Error("expected an error for replay without a path")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#dcdcdc", color.RGBA{R: 220, G: 220, B: 220, A: 255}},
		{"b4b4b4", color.RGBA{R: 180, G: 180, B: 180, A: 255}},
		{"#f00", color.RGBA{R: 255, A: 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseColor(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}

	if _, err := ParseColor("#nothex"); err == nil {
		t.Error("expected an error for an invalid color")
	}
	if got := FormatColor(color.RGBA{R: 242, G: 239, B: 41, A: 255}); got != "#f2ef29" {
		t.Errorf("expected #f2ef29, got %s", got)
	}
}
