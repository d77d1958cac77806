package pipeline

import (
	"image"
	"image/color"

	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Rectangle represents a rectangular area.
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle has no area.
func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// =============================================================================
// Layout Stage Types
// =============================================================================

// LayoutInput contains parameters for the preview layout.
type LayoutInput struct {
	FrameWidth   int     // Source frame width in pixels
	FrameHeight  int     // Source frame height in pixels
	Scale        float64 // Preview scale factor (default: 1)
	Padding      int     // Padding around the canvas (default: 12)
	Gap          int     // Vertical gap between frame, legend and status (default: 8)
	LegendHeight int     // Height of the hue legend bar, 0 disables it (default: 14)
	LabelHeight  int     // Height of the legend label row (default: 16)
	StatusHeight int     // Height of the status row, 0 disables it (default: 18)
	SwatchSize   int     // Size of the marker swatches in the status row (default: 12)
}

// DefaultLayoutInput returns LayoutInput with default values for a frame of
// width x height.
func DefaultLayoutInput(width, height int) LayoutInput {
	return LayoutInput{
		FrameWidth:   width,
		FrameHeight:  height,
		Scale:        1,
		Padding:      12,
		Gap:          8,
		LegendHeight: 14,
		LabelHeight:  16,
		StatusHeight: 18,
		SwatchSize:   12,
	}
}

// LayoutResult contains the calculated preview geometry.
type LayoutResult struct {
	// Canvas is the size of the composed preview image.
	Canvas Dimension

	// Frame is where the scaled depth image is drawn.
	Frame Rectangle

	// Legend is the hue bar; empty when disabled.
	Legend Rectangle

	// Labels is the row below the legend holding the range labels.
	Labels Rectangle

	// Status is the bottom row; empty when disabled.
	Status Rectangle

	// SwatchSize is the edge length of the marker swatches.
	SwatchSize int
}

// =============================================================================
// Composite Stage Types
// =============================================================================

// Theme defines colors and fonts for the preview.
type Theme struct {
	BackgroundColor color.Color
	TextColor       color.Color
	BorderColor     color.Color
	FontPath        string
	FontSize        float64
}

// DefaultTheme returns the default dark preview theme.
func DefaultTheme() Theme {
	return Theme{
		BackgroundColor: color.RGBA{R: 24, G: 24, B: 28, A: 255},
		TextColor:       color.RGBA{R: 230, G: 230, B: 230, A: 255},
		BorderColor:     color.RGBA{R: 90, G: 90, B: 96, A: 255},
		FontSize:        12,
	}
}

// CompositeInput contains one rendered frame to decorate.
type CompositeInput struct {
	Frame  depth.PixelBuffer
	Info   depth.FrameInfo
	Layout LayoutResult
	Theme  Theme
	Filter ports.ScaleFilter
}

// CompositeResult contains the composed preview image.
type CompositeResult struct {
	Image image.Image
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains an image to encode.
type EncodeInput struct {
	Image   image.Image
	Format  ports.ImageFormat
	Quality int // JPEG quality 1-100 (default: 80)
}

// EncodeResult contains the encoded image.
type EncodeResult struct {
	Data   []byte
	Format ports.ImageFormat
}

// ContentType returns the MIME type of the encoded data.
func (r EncodeResult) ContentType() string {
	if r.Format == ports.FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}
