package composite

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/user/depthshow/pkg/adapters/ggrenderer"
	"github.com/user/depthshow/pkg/adapters/logger"
	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/mocks"
	"github.com/user/depthshow/pkg/pipeline"
	"github.com/user/depthshow/pkg/ports"
	"github.com/user/depthshow/pkg/stages/layout"
)

func testInput(w, h int, scale float64) pipeline.CompositeInput {
	layoutInput := pipeline.DefaultLayoutInput(w, h)
	layoutInput.Scale = scale

	return pipeline.CompositeInput{
		Frame: depth.PixelBuffer{
			Pix:           make([]byte, w*h*4),
			Width:         w,
			Height:        h,
			BytesPerPixel: 4,
		},
		Info: depth.FrameInfo{
			Seq:         42,
			MinReliable: 500,
			MaxReliable: 4500,
			Stats:       depth.FrameStats{NoData: 10, OutOfRange: 30, InRange: 60},
		},
		Layout: layout.ComputeLayout(layoutInput),
		Theme:  pipeline.DefaultTheme(),
	}
}

func TestStage_Execute(t *testing.T) {
	renderer := &mocks.Renderer{}
	stage := NewStage(renderer, colormap.New(), logger.NewNoop())
	input := testInput(64, 48, 1)

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(renderer.Canvases) != 1 {
		t.Fatalf("expected 1 canvas, got %d", len(renderer.Canvases))
	}
	canvas := renderer.Canvases[0]
	if canvas.Width != input.Layout.Canvas.Width || canvas.Height != input.Layout.Canvas.Height {
		t.Errorf("expected %+v canvas, got %dx%d", input.Layout.Canvas, canvas.Width, canvas.Height)
	}

	b := result.Image.Bounds()
	if b.Dx() != input.Layout.Canvas.Width || b.Dy() != input.Layout.Canvas.Height {
		t.Errorf("unexpected image size %dx%d", b.Dx(), b.Dy())
	}

	images := canvas.CallsOf("image")
	if len(images) != 2 {
		t.Fatalf("expected frame and legend images, got %d", len(images))
	}
	if images[0].X != input.Layout.Frame.X || images[0].Y != input.Layout.Frame.Y {
		t.Errorf("frame drawn at (%d,%d), expected (%d,%d)", images[0].X, images[0].Y, input.Layout.Frame.X, input.Layout.Frame.Y)
	}
	if images[1].W != input.Layout.Legend.Width || images[1].Y != input.Layout.Legend.Y {
		t.Errorf("unexpected legend draw %+v", images[1])
	}
}

func TestStage_ScalesWhenNeeded(t *testing.T) {
	var resized []image.Point
	renderer := &mocks.Renderer{
		ResizeImageFunc: func(img image.Image, w, h int, filter ports.ScaleFilter) image.Image {
			resized = append(resized, image.Pt(w, h))
			return image.NewRGBA(image.Rect(0, 0, w, h))
		},
	}
	stage := NewStage(renderer, colormap.New(), logger.NewNoop())

	if _, err := stage.Execute(context.Background(), testInput(64, 48, 1)); err != nil {
		t.Fatal(err)
	}
	if len(resized) != 0 {
		t.Errorf("expected no resize at scale 1, got %v", resized)
	}

	if _, err := stage.Execute(context.Background(), testInput(64, 48, 2)); err != nil {
		t.Fatal(err)
	}
	if len(resized) != 1 || resized[0] != image.Pt(128, 96) {
		t.Errorf("expected one resize to 128x96, got %v", resized)
	}
}

func TestStage_Labels(t *testing.T) {
	renderer := &mocks.Renderer{}
	stage := NewStage(renderer, colormap.New(), logger.NewNoop())

	if _, err := stage.Execute(context.Background(), testInput(400, 300, 1)); err != nil {
		t.Fatal(err)
	}

	var texts []string
	for _, c := range renderer.Canvases[0].CallsOf("text") {
		texts = append(texts, c.Text)
	}
	joined := strings.Join(texts, "|")

	for _, want := range []string{"500 mm", "4500 mm", "1150", "no data 10.0%", "out of range 30.0%", "#42  400x300"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected label %q, got %q", want, joined)
		}
	}
}

func TestStage_SwatchColors(t *testing.T) {
	renderer := &mocks.Renderer{}
	mapper := colormap.New().WithMarkers(colormap.HighlightMarkers())
	stage := NewStage(renderer, mapper, logger.NewNoop())

	if _, err := stage.Execute(context.Background(), testInput(64, 48, 1)); err != nil {
		t.Fatal(err)
	}

	var fills []color.Color
	for _, c := range renderer.Canvases[0].CallsOf("rect") {
		if c.W == c.H {
			fills = append(fills, c.Color)
		}
	}
	want := []color.Color{
		color.RGBA{242, 239, 41, 255},
		color.RGBA{255, 0, 25, 255},
	}
	if len(fills) != 2 || fills[0] != want[0] || fills[1] != want[1] {
		t.Errorf("expected swatches %v, got %v", want, fills)
	}
}

func TestStage_EmptyFrame(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, colormap.New(), logger.NewNoop())
	input := testInput(4, 4, 1)
	input.Frame = depth.PixelBuffer{}

	if _, err := stage.Execute(context.Background(), input); err == nil {
		t.Error("expected an error for an empty frame")
	}
}

func TestStage_Cancelled(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, colormap.New(), logger.NewNoop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := stage.Execute(ctx, testInput(4, 4, 1)); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestStage_LegendCache(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, colormap.New(), logger.NewNoop())

	a := stage.legendImage(100, 10, 500, 4500)
	b := stage.legendImage(100, 10, 500, 4500)
	if a != b {
		t.Error("expected the legend to be cached")
	}
	if c := stage.legendImage(100, 10, 800, 4000); c == a {
		t.Error("expected a new legend for a new range")
	}
}

func TestStage_LegendMatchesMapper(t *testing.T) {
	mapper := colormap.New()
	stage := NewStage(ggrenderer.New(), mapper, logger.NewNoop())

	img := stage.legendImage(101, 4, 500, 1500)
	for _, x := range []int{0, 25, 50, 100} {
		c := mapper.Map(LegendDepth(x, 101, 500, 1500), 500, 1500)
		got := img.RGBAAt(x, 2)
		if got.R != c.R || got.G != c.G || got.B != c.B {
			t.Errorf("column %d: expected %v, got %v", x, c, got)
		}
	}

	// the leftmost column is the minimum reliable distance: red
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("expected red at the left edge, got %v", got)
	}
}

func TestStage_RealRenderer(t *testing.T) {
	stage := NewStage(ggrenderer.New(), colormap.New(), logger.NewNoop())
	input := testInput(64, 48, 1.5)

	result, err := stage.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// frame pixels are black (no data), the background is not
	f := input.Layout.Frame
	got := color.RGBAModel.Convert(result.Image.At(f.X+f.Width/2, f.Y+f.Height/2)).(color.RGBA)
	if got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("expected black frame pixel, got %v", got)
	}
}

func TestLegendDepth(t *testing.T) {
	tests := []struct {
		x, width   int
		minD, maxD uint16
		want       uint16
	}{
		{0, 401, 500, 4500, 500},
		{400, 401, 500, 4500, 4500},
		{200, 401, 500, 4500, 2500},
		{0, 1, 500, 4500, 500},
		{5, 10, 4500, 500, 4500},
	}
	for _, tt := range tests {
		if got := LegendDepth(tt.x, tt.width, tt.minD, tt.maxD); got != tt.want {
			t.Errorf("LegendDepth(%d, %d, %d, %d): expected %d, got %d", tt.x, tt.width, tt.minD, tt.maxD, tt.want, got)
		}
	}
}

func TestWrapPosition(t *testing.T) {
	if x, ok := WrapPosition(1150, 500, 4500, 401); !ok || x != 65 {
		t.Errorf("expected wrap at 65, got %d (%v)", x, ok)
	}
	if _, ok := WrapPosition(1150, 500, 1000, 401); ok {
		t.Error("expected no wrap below the hue ceiling")
	}
	if _, ok := WrapPosition(1150, 1150, 4500, 401); ok {
		t.Error("expected no wrap at the minimum")
	}
}
