package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts image processing operations used by the preview.
type Renderer interface {
	// CreateCanvas creates a new drawing canvas with the specified dimensions and background color.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage scales an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int, filter ScaleFilter) image.Image
}

// Canvas provides drawing operations for composing preview images.
type Canvas interface {
	// DrawImage draws an image at the specified position.
	DrawImage(img image.Image, x, y int)

	// DrawRect draws a filled rectangle.
	DrawRect(x, y, w, h int, c color.Color)

	// DrawRectStroke draws a rectangle outline.
	DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64)

	// DrawText draws text at the specified position.
	DrawText(text string, x, y int, style TextStyle)

	// MeasureText returns the width and height of the text.
	MeasureText(text string, style TextStyle) (width, height float64)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign specifies text alignment.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// ScaleFilter selects the resampling kernel for ResizeImage.
type ScaleFilter int

const (
	// ScaleNearest keeps hard edges between depth bands.
	ScaleNearest ScaleFilter = iota
	// ScaleSmooth uses Catmull-Rom resampling.
	ScaleSmooth
)

// ParseScaleFilter parses "nearest" or "smooth". Unknown names yield ScaleNearest.
func ParseScaleFilter(s string) ScaleFilter {
	if s == "smooth" {
		return ScaleSmooth
	}
	return ScaleNearest
}
