// Package preview turns presented frames into encoded preview images by
// running the layout, composite and encode stages.
package preview

import (
	"context"
	"sync"

	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/display"
	"github.com/user/depthshow/pkg/pipeline"
	"github.com/user/depthshow/pkg/ports"
	"github.com/user/depthshow/pkg/stages/composite"
	"github.com/user/depthshow/pkg/stages/encode"
	"github.com/user/depthshow/pkg/stages/layout"
)

// Options configures the preview rendering.
type Options struct {
	Scale      float64
	Filter     ports.ScaleFilter
	Quality    int
	Format     ports.ImageFormat
	ShowLegend bool
	ShowStatus bool
	Theme      pipeline.Theme
}

// DefaultOptions returns a full-size JPEG preview with legend and status.
func DefaultOptions() Options {
	return Options{
		Scale:      1,
		Filter:     ports.ScaleNearest,
		Quality:    encode.DefaultQuality,
		Format:     ports.FormatJPEG,
		ShowLegend: true,
		ShowStatus: true,
		Theme:      pipeline.DefaultTheme(),
	}
}

// Image is one encoded preview.
type Image struct {
	pipeline.EncodeResult
	Info depth.FrameInfo
}

// Composer renders the Presenter's front buffer on demand. The last encoded
// image is cached by sequence number so that concurrent viewers share the
// work for each frame.
type Composer struct {
	presenter *display.Presenter
	opts      Options
	logger    ports.Logger

	layout    pipeline.Stage[pipeline.LayoutInput, pipeline.LayoutResult]
	composite pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult]
	encode    pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]

	mu      sync.Mutex
	scratch []byte
	cached  *Image
	renders uint64
}

// NewComposer creates a Composer drawing with renderer. mapper must match
// the processor's mapper so that the legend agrees with the frames.
func NewComposer(presenter *display.Presenter, renderer ports.Renderer, mapper colormap.Mapper, opts Options, logger ports.Logger) *Composer {
	return &Composer{
		presenter: presenter,
		opts:      opts,
		logger:    logger.WithComponent("preview"),
		layout:    pipeline.Named[pipeline.LayoutInput, pipeline.LayoutResult]("layout", layout.NewStage()),
		composite: pipeline.Named[pipeline.CompositeInput, pipeline.CompositeResult]("composite", composite.NewStage(renderer, mapper, logger)),
		encode:    pipeline.Named[pipeline.EncodeInput, pipeline.EncodeResult]("encode", encode.NewStage(renderer)),
	}
}

// Latest returns the preview of the current front buffer. ok is false while
// no frame has been presented.
func (c *Composer) Latest(ctx context.Context) (img *Image, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.presenter.Seq()
	if seq == 0 {
		return nil, false, nil
	}
	if c.cached != nil && c.cached.Info.Seq == seq {
		return c.cached, true, nil
	}

	buf, info, ok := c.presenter.Snapshot(c.scratch)
	if !ok {
		return nil, false, nil
	}
	c.scratch = buf.Pix

	img, err = c.render(ctx, buf, info)
	if err != nil {
		return nil, false, err
	}
	c.cached = img
	c.renders++
	return img, true, nil
}

func (c *Composer) render(ctx context.Context, buf depth.PixelBuffer, info depth.FrameInfo) (*Image, error) {
	layoutInput := pipeline.DefaultLayoutInput(buf.Width, buf.Height)
	layoutInput.Scale = c.opts.Scale
	if !c.opts.ShowLegend {
		layoutInput.LegendHeight = 0
	}
	if !c.opts.ShowStatus {
		layoutInput.StatusHeight = 0
	}

	layoutResult, err := c.layout.Execute(ctx, layoutInput)
	if err != nil {
		return nil, err
	}

	composed, err := c.composite.Execute(ctx, pipeline.CompositeInput{
		Frame:  buf,
		Info:   info,
		Layout: layoutResult,
		Theme:  c.opts.Theme,
		Filter: c.opts.Filter,
	})
	if err != nil {
		return nil, err
	}

	encoded, err := c.encode.Execute(ctx, pipeline.EncodeInput{
		Image:   composed.Image,
		Format:  c.opts.Format,
		Quality: c.opts.Quality,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Preview rendered for frame %d: %d bytes", info.Seq, len(encoded.Data))
	return &Image{EncodeResult: encoded, Info: info}, nil
}

// Renders returns how many previews were rendered (cache misses).
func (c *Composer) Renders() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Presenter returns the frame source of the composer.
func (c *Composer) Presenter() *display.Presenter {
	return c.presenter
}
