// Package depth defines the depth frame and pixel buffer types shared by the
// processing core and its adapters.
package depth

import (
	"image"
	"image/color"
	"time"
)

// BytesPerPixelBGR32 is the pixel size of the packed 32-bit BGR format
// (blue, green, red, unused padding byte).
const BytesPerPixelBGR32 = 4

// Frame is a single depth frame delivered by a sensor.
// Samples are row-major millimeter distances, 0 meaning "no data".
// A Frame is only valid for the duration of one processing call; the
// processor copies what it needs and never retains the slice.
type Frame struct {
	Width   uint32
	Height  uint32
	Samples []uint16

	// Sensor-reported reliable range in millimeters.
	MinReliableDistance uint16
	MaxReliableDistance uint16

	// Timestamp is the capture time reported by the source (zero if unknown).
	Timestamp time.Time
}

// PixelCount returns width*height.
func (f *Frame) PixelCount() int {
	return int(f.Width) * int(f.Height)
}

// FrameStats classifies the pixels of one processed frame.
type FrameStats struct {
	NoData     int // depth == 0
	OutOfRange int // outside [min, max] reliable distance
	InRange    int // hue-mapped pixels
}

// Total returns the number of classified pixels.
func (s FrameStats) Total() int {
	return s.NoData + s.OutOfRange + s.InRange
}

// FrameInfo is the metadata that travels with a presented pixel buffer.
type FrameInfo struct {
	Seq         uint64
	MinReliable uint16
	MaxReliable uint16
	Stats       FrameStats
	Timestamp   time.Time
}

// PixelBuffer is a row-major packed BGR pixel buffer with optional padding
// bytes after each pixel. The zero value is an empty buffer.
//
// PixelBuffer implements image.Image so display adapters can draw or scale it
// directly. It does not own its memory: a buffer returned by the processor
// aliases the processor's internal storage.
type PixelBuffer struct {
	Pix           []byte
	Width         int
	Height        int
	BytesPerPixel int
}

// Stride returns the number of bytes per row.
func (b PixelBuffer) Stride() int {
	return b.Width * b.BytesPerPixel
}

// Len returns the expected length of Pix for the buffer dimensions.
func (b PixelBuffer) Len() int {
	return b.Width * b.Height * b.BytesPerPixel
}

// Empty reports whether the buffer holds no pixels.
func (b PixelBuffer) Empty() bool {
	return b.Width == 0 || b.Height == 0 || len(b.Pix) < b.Len()
}

// ColorModel implements image.Image.
func (b PixelBuffer) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (b PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// At implements image.Image. Padding bytes are ignored; pixels are opaque.
func (b PixelBuffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height || b.Empty() {
		return color.RGBA{}
	}
	i := y*b.Stride() + x*b.BytesPerPixel
	return color.RGBA{R: b.Pix[i+2], G: b.Pix[i+1], B: b.Pix[i], A: 0xff}
}

// PixelOffset returns the index of the first byte of pixel (x, y).
func (b PixelBuffer) PixelOffset(x, y int) int {
	return y*b.Stride() + x*b.BytesPerPixel
}

var _ image.Image = PixelBuffer{}
