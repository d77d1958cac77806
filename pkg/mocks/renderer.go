package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/depthshow/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int, filter ports.ScaleFilter) image.Image

	mu       sync.Mutex
	Canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{Width: width, Height: height, Background: bg}
	m.mu.Lock()
	m.Canvases = append(m.Canvases, c)
	m.mu.Unlock()
	return c
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{0xFF, 0xD8, 0xFF, 0xD9}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int, filter ports.ScaleFilter) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height, filter)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// DrawCall records one canvas drawing operation.
type DrawCall struct {
	Op    string
	X, Y  int
	W, H  int
	Color color.Color
	Text  string
}

// Canvas is a mock implementation of ports.Canvas that records draw calls.
type Canvas struct {
	Width      int
	Height     int
	Background color.Color
	Calls      []DrawCall
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	b := img.Bounds()
	m.Calls = append(m.Calls, DrawCall{Op: "image", X: x, Y: y, W: b.Dx(), H: b.Dy()})
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	m.Calls = append(m.Calls, DrawCall{Op: "rect", X: x, Y: y, W: w, H: h, Color: c})
}

func (m *Canvas) DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64) {
	m.Calls = append(m.Calls, DrawCall{Op: "stroke", X: x, Y: y, W: w, H: h, Color: c})
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Calls = append(m.Calls, DrawCall{Op: "text", X: x, Y: y, Color: style.Color, Text: text})
}

func (m *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	return float64(len(text)) * style.FontSize * 0.5, style.FontSize
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

// CallsOf returns the recorded calls with the given op.
func (m *Canvas) CallsOf(op string) []DrawCall {
	var calls []DrawCall
	for _, c := range m.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

var _ ports.Canvas = (*Canvas)(nil)
