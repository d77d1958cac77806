package preview

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"testing"

	"github.com/user/depthshow/pkg/adapters/ggrenderer"
	"github.com/user/depthshow/pkg/adapters/logger"
	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/display"
	"github.com/user/depthshow/pkg/mocks"
	"github.com/user/depthshow/pkg/pipeline"
	"github.com/user/depthshow/pkg/processor"
)

func presentFrame(t *testing.T, p *display.Presenter, w, h int) {
	t.Helper()
	proc := processor.New(colormap.New())
	if err := proc.Configure(uint32(w), uint32(h), 4); err != nil {
		t.Fatal(err)
	}
	samples := make([]uint16, w*h)
	for i := range samples {
		samples[i] = uint16(500 + i%800)
	}
	buf, ok := proc.Process(&depth.Frame{
		Width: uint32(w), Height: uint32(h), Samples: samples,
		MinReliableDistance: 500, MaxReliableDistance: 4500,
	})
	if !ok {
		t.Fatal("frame not processed")
	}
	p.Present(buf, depth.FrameInfo{MinReliable: 500, MaxReliable: 4500, Stats: proc.Stats().LastFrame})
}

func TestComposer_NoFrame(t *testing.T) {
	c := NewComposer(display.NewPresenter(), &mocks.Renderer{}, colormap.New(), DefaultOptions(), logger.NewNoop())

	img, ok, err := c.Latest(context.Background())
	if err != nil || ok || img != nil {
		t.Errorf("expected no preview, got %v %v %v", img, ok, err)
	}
}

func TestComposer_CachesPerFrame(t *testing.T) {
	p := display.NewPresenter()
	c := NewComposer(p, &mocks.Renderer{}, colormap.New(), DefaultOptions(), logger.NewNoop())

	presentFrame(t, p, 8, 6)
	a, ok, err := c.Latest(context.Background())
	if err != nil || !ok {
		t.Fatalf("Latest: %v %v", ok, err)
	}
	b, _, _ := c.Latest(context.Background())
	if a != b {
		t.Error("expected the cached preview for the same frame")
	}
	if c.Renders() != 1 {
		t.Errorf("expected 1 render, got %d", c.Renders())
	}

	presentFrame(t, p, 8, 6)
	d, _, _ := c.Latest(context.Background())
	if d == a || d.Info.Seq != 2 {
		t.Errorf("expected a new preview for frame 2, got seq %d", d.Info.Seq)
	}
}

func TestComposer_RealJPEG(t *testing.T) {
	p := display.NewPresenter()
	opts := DefaultOptions()
	opts.Scale = 2
	c := NewComposer(p, ggrenderer.New(), colormap.New(), opts, logger.NewNoop())

	presentFrame(t, p, 40, 30)
	img, ok, err := c.Latest(context.Background())
	if err != nil || !ok {
		t.Fatalf("Latest: %v %v", ok, err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("invalid JPEG: %v", err)
	}
	// 80x60 frame plus padding, legend and status rows
	if cfg.Width != 80+24 || cfg.Height <= 60 {
		t.Errorf("unexpected preview size %dx%d", cfg.Width, cfg.Height)
	}
	if img.ContentType() != "image/jpeg" {
		t.Errorf("unexpected content type %q", img.ContentType())
	}
}

func TestComposer_FrameOnly(t *testing.T) {
	p := display.NewPresenter()
	opts := DefaultOptions()
	opts.ShowLegend = false
	opts.ShowStatus = false
	renderer := &mocks.Renderer{}
	c := NewComposer(p, renderer, colormap.New(), opts, logger.NewNoop())

	presentFrame(t, p, 10, 10)
	if _, _, err := c.Latest(context.Background()); err != nil {
		t.Fatal(err)
	}

	canvas := renderer.Canvases[0]
	if canvas.Width != 34 || canvas.Height != 34 {
		t.Errorf("expected 34x34 canvas, got %dx%d", canvas.Width, canvas.Height)
	}
	if n := len(canvas.CallsOf("text")); n != 0 {
		t.Errorf("expected no text, got %d calls", n)
	}
}

func TestComposer_EncodeFailure(t *testing.T) {
	p := display.NewPresenter()
	c := NewComposer(p, &mocks.Renderer{}, colormap.New(), DefaultOptions(), logger.NewNoop())
	errBroken := errors.New("encoder broken")
	c.encode = pipeline.StageFunc[pipeline.EncodeInput, pipeline.EncodeResult](
		func(context.Context, pipeline.EncodeInput) (pipeline.EncodeResult, error) {
			return pipeline.EncodeResult{}, errBroken
		})

	presentFrame(t, p, 4, 3)
	img, ok, err := c.Latest(context.Background())
	if !errors.Is(err, errBroken) || ok || img != nil {
		t.Fatalf("expected the encode error, got %v %v %v", img, ok, err)
	}
	if c.Renders() != 0 {
		t.Errorf("expected a failed render not to count, got %d", c.Renders())
	}
}
