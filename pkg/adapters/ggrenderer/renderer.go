// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct {
	fonts *fontCache
}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{fonts: &fontCache{faces: make(map[fontKey]font.Face)}}
}

// CreateCanvas creates a new drawing canvas.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc, fonts: r.fonts}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage scales an image to the specified dimensions.
// Depth pixel buffers are unpacked to RGBA first so that the scaler can use
// its fast path.
func (r *Renderer) ResizeImage(img image.Image, width, height int, filter ports.ScaleFilter) image.Image {
	if pb, ok := img.(depth.PixelBuffer); ok {
		img = toRGBA(pb)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	var scaler draw.Scaler = draw.NearestNeighbor
	if filter == ports.ScaleSmooth {
		scaler = draw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// toRGBA unpacks a BGR pixel buffer into an opaque RGBA image.
func toRGBA(pb depth.PixelBuffer) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, pb.Width, pb.Height))
	if pb.Empty() {
		return dst
	}
	bpp := pb.BytesPerPixel
	n := pb.Width * pb.Height
	for i := 0; i < n; i++ {
		s := pb.Pix[i*bpp : i*bpp+3]
		d := dst.Pix[i*4 : i*4+4]
		d[0], d[1], d[2], d[3] = s[2], s[1], s[0], 0xff
	}
	return dst
}

var _ ports.Renderer = (*Renderer)(nil)

type fontKey struct {
	path string
	size float64
}

// fontCache shares parsed font faces between canvases.
type fontCache struct {
	mu    sync.Mutex
	faces map[fontKey]font.Face
}

func (fc *fontCache) face(path string, size float64) font.Face {
	key := fontKey{path, size}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if f, ok := fc.faces[key]; ok {
		return f
	}
	f, err := gg.LoadFontFace(path, size)
	if err != nil {
		// remembered as nil so a missing font is not reloaded on every frame
		f = nil
	}
	fc.faces[key] = f
	return f
}

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc    *gg.Context
	fonts *fontCache
}

// DrawImage draws an image at the specified position.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	if pb, ok := img.(depth.PixelBuffer); ok {
		img = toRGBA(pb)
	}
	c.dc.DrawImage(img, x, y)
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// DrawRectStroke draws a rectangle outline.
func (c *Canvas) DrawRectStroke(x, y, w, h int, col color.Color, strokeWidth float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(strokeWidth)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Stroke()
}

// DrawText draws text vertically centered on y.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	c.applyFont(style)
	c.dc.SetColor(style.Color)

	ax := 0.0
	switch style.Align {
	case ports.AlignCenter:
		ax = 0.5
	case ports.AlignRight:
		ax = 1.0
	}

	c.dc.DrawStringAnchored(text, float64(x), float64(y), ax, 0.5)
}

// MeasureText returns the width and height of the text.
func (c *Canvas) MeasureText(text string, style ports.TextStyle) (width, height float64) {
	c.applyFont(style)
	return c.dc.MeasureString(text)
}

// applyFont switches to the style's font. Without a font path, or when the
// font cannot be loaded, gg's built-in face is kept.
func (c *Canvas) applyFont(style ports.TextStyle) {
	if style.FontPath == "" {
		return
	}
	if f := c.fonts.face(style.FontPath, style.FontSize); f != nil {
		c.dc.SetFontFace(f)
	}
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var _ ports.Canvas = (*Canvas)(nil)
