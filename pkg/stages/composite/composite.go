// Package composite implements the preview composition stage.
package composite

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/pipeline"
	"github.com/user/depthshow/pkg/ports"
)

// minWrapLabelGap keeps the wrap label clear of the range labels.
const minWrapLabelGap = 40

// Stage draws a rendered depth frame onto a preview canvas together with a
// hue legend for the frame's reliable range and a status row.
type Stage struct {
	renderer ports.Renderer
	mapper   colormap.Mapper
	logger   ports.Logger

	mu     sync.Mutex
	legend *image.RGBA
	key    legendKey
}

type legendKey struct {
	width, height int
	min, max      uint16
}

// NewStage creates a new composite stage. mapper must be the mapper that
// rendered the frames so that the legend matches them.
func NewStage(renderer ports.Renderer, mapper colormap.Mapper, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		mapper:   mapper,
		logger:   logger.WithComponent("composite"),
	}
}

// Execute composes one preview image.
func (s *Stage) Execute(ctx context.Context, input pipeline.CompositeInput) (pipeline.CompositeResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.CompositeResult{}, err
	}
	if input.Frame.Empty() {
		return pipeline.CompositeResult{}, fmt.Errorf("compose preview: empty frame")
	}

	layout := input.Layout
	theme := input.Theme
	canvas := s.renderer.CreateCanvas(layout.Canvas.Width, layout.Canvas.Height, theme.BackgroundColor)

	// Frame
	frame := layout.Frame
	var img image.Image = input.Frame
	if frame.Width != input.Frame.Width || frame.Height != input.Frame.Height {
		img = s.renderer.ResizeImage(input.Frame, frame.Width, frame.Height, input.Filter)
	}
	canvas.DrawImage(img, frame.X, frame.Y)
	canvas.DrawRectStroke(frame.X, frame.Y, frame.Width, frame.Height, theme.BorderColor, 1)

	if !layout.Legend.Empty() {
		s.drawLegend(canvas, input)
	}
	if !layout.Status.Empty() {
		s.drawStatus(canvas, input)
	}

	return pipeline.CompositeResult{Image: canvas.ToImage()}, nil
}

// drawLegend draws the hue bar from the minimum to the maximum reliable
// distance with its labels. When the hue sweep wraps inside the range, the
// wrap depth is marked.
func (s *Stage) drawLegend(canvas ports.Canvas, input pipeline.CompositeInput) {
	legend := input.Layout.Legend
	labels := input.Layout.Labels
	minD, maxD := input.Info.MinReliable, input.Info.MaxReliable

	canvas.DrawImage(s.legendImage(legend.Width, legend.Height, minD, maxD), legend.X, legend.Y)
	canvas.DrawRectStroke(legend.X, legend.Y, legend.Width, legend.Height, input.Theme.BorderColor, 1)

	style := ports.TextStyle{
		FontSize: input.Theme.FontSize,
		FontPath: input.Theme.FontPath,
		Color:    input.Theme.TextColor,
	}
	labelY := labels.Y + labels.Height/2

	style.Align = ports.AlignLeft
	canvas.DrawText(fmt.Sprintf("%d mm", minD), labels.X, labelY, style)
	style.Align = ports.AlignRight
	canvas.DrawText(fmt.Sprintf("%d mm", maxD), labels.X+labels.Width, labelY, style)

	if x, ok := WrapPosition(s.mapper.HueMaxDepth, minD, maxD, legend.Width); ok {
		canvas.DrawRect(legend.X+x, legend.Y, 1, legend.Height, input.Theme.TextColor)
		if x >= minWrapLabelGap && legend.Width-x >= minWrapLabelGap {
			style.Align = ports.AlignCenter
			canvas.DrawText(fmt.Sprintf("%d", s.mapper.HueMaxDepth), legend.X+x, labelY, style)
		}
	}
}

// legendImage returns the cached legend strip, rebuilding it when the size
// or the reliable range changed.
func (s *Stage) legendImage(width, height int, minD, maxD uint16) *image.RGBA {
	key := legendKey{width, height, minD, maxD}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.legend != nil && s.key == key {
		return s.legend
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		c := s.mapper.Map(LegendDepth(x, width, minD, maxD), minD, maxD)
		for y := 0; y < height; y++ {
			o := img.PixOffset(x, y)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = c.R, c.G, c.B, 0xff
		}
	}

	s.legend, s.key = img, key
	s.logger.Debug("Legend rebuilt for %d-%d mm", minD, maxD)
	return img
}

// drawStatus draws the marker swatches with the share of pixels in each
// class, and the frame number and size at the right edge.
func (s *Stage) drawStatus(canvas ports.Canvas, input pipeline.CompositeInput) {
	status := input.Layout.Status
	size := input.Layout.SwatchSize
	info := input.Info
	theme := input.Theme

	style := ports.TextStyle{
		FontSize: theme.FontSize,
		FontPath: theme.FontPath,
		Color:    theme.TextColor,
		Align:    ports.AlignLeft,
	}
	centerY := status.Y + status.Height/2
	swatchY := status.Y + (status.Height-size)/2

	total := info.Stats.Total()
	entries := []struct {
		label string
		color colormap.RGB
		count int
	}{
		{"no data", s.mapper.NoData, info.Stats.NoData},
		{"out of range", s.mapper.OutOfRange, info.Stats.OutOfRange},
	}

	x := status.X
	for _, e := range entries {
		canvas.DrawRect(x, swatchY, size, size, toColor(e.color))
		canvas.DrawRectStroke(x, swatchY, size, size, theme.BorderColor, 1)
		x += size + 4

		text := fmt.Sprintf("%s %.1f%%", e.label, percent(e.count, total))
		canvas.DrawText(text, x, centerY, style)
		w, _ := canvas.MeasureText(text, style)
		x += int(w) + 12
	}

	style.Align = ports.AlignRight
	canvas.DrawText(StatusText(info, input.Frame), status.X+status.Width, centerY, style)
}

// LegendDepth returns the depth shown at column x of a legend width pixels
// wide spanning [minD, maxD].
func LegendDepth(x, width int, minD, maxD uint16) uint16 {
	if width <= 1 || maxD <= minD {
		return minD
	}
	span := int(maxD) - int(minD)
	return uint16(int(minD) + (span*x+(width-1)/2)/(width-1))
}

// WrapPosition returns the legend column where the hue sweep completes one
// turn, if hueMax lies strictly inside (minD, maxD).
func WrapPosition(hueMax, minD, maxD uint16, width int) (int, bool) {
	if hueMax <= minD || hueMax >= maxD || width <= 1 {
		return 0, false
	}
	x := int(hueMax-minD) * (width - 1) / int(maxD-minD)
	return x, true
}

// StatusText formats the frame number and size.
func StatusText(info depth.FrameInfo, frame depth.PixelBuffer) string {
	return fmt.Sprintf("#%d  %dx%d", info.Seq, frame.Width, frame.Height)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func toColor(c colormap.RGB) color.Color {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
