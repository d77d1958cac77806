// Package layout implements the preview layout calculation stage.
package layout

import (
	"context"
	"math"

	"github.com/user/depthshow/pkg/pipeline"
)

// Stage calculates the preview geometry.
// This is a pure function with no external dependencies.
type Stage struct{}

// NewStage creates a new layout stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute calculates the layout based on the input parameters.
func (s *Stage) Execute(ctx context.Context, input pipeline.LayoutInput) (pipeline.LayoutResult, error) {
	return ComputeLayout(input), nil
}

// ComputeLayout performs the layout calculation.
// This is exposed as a standalone function for testing and reuse.
//
// From top to bottom: padding, scaled frame, gap, legend bar, label row, gap,
// status row, padding. Rows with zero height are left out together with the
// gap above them.
func ComputeLayout(input pipeline.LayoutInput) pipeline.LayoutResult {
	scale := input.Scale
	if scale <= 0 {
		scale = 1
	}
	frameW := max(int(math.Round(float64(input.FrameWidth)*scale)), 1)
	frameH := max(int(math.Round(float64(input.FrameHeight)*scale)), 1)

	p := input.Padding
	frame := pipeline.Rectangle{X: p, Y: p, Width: frameW, Height: frameH}
	y := frame.Y + frame.Height

	var legend, labels pipeline.Rectangle
	if input.LegendHeight > 0 {
		y += input.Gap
		legend = pipeline.Rectangle{X: p, Y: y, Width: frameW, Height: input.LegendHeight}
		y += input.LegendHeight
		labels = pipeline.Rectangle{X: p, Y: y, Width: frameW, Height: input.LabelHeight}
		y += input.LabelHeight
	}

	var status pipeline.Rectangle
	if input.StatusHeight > 0 {
		y += input.Gap
		status = pipeline.Rectangle{X: p, Y: y, Width: frameW, Height: input.StatusHeight}
		y += input.StatusHeight
	}

	swatch := min(input.SwatchSize, input.StatusHeight)

	return pipeline.LayoutResult{
		Canvas: pipeline.Dimension{
			Width:  frameW + p*2,
			Height: y + p,
		},
		Frame:      frame,
		Legend:     legend,
		Labels:     labels,
		Status:     status,
		SwatchSize: swatch,
	}
}
