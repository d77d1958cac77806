// Package processor implements the per-frame depth colorization.
//
// A Processor owns a depth buffer and a packed BGR pixel buffer sized by
// Configure. Process copies one frame's samples, maps every sample through the
// color mapper and writes the result in place. Frames whose size does not
// match the configured buffers are dropped without touching the previous
// output.
//
// A Processor is not safe for concurrent use: one frame is processed at a time
// and the returned PixelBuffer must be consumed (or copied) before the next
// call to Process.
package processor

import (
	"errors"
	"fmt"

	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// Configuration errors.
var (
	ErrInvalidDimensions  = errors.New("invalid frame dimensions")
	ErrInvalidPixelFormat = errors.New("invalid pixel format")
)

// lutSize covers every uint16 depth value.
const lutSize = 1 << 16

// State is the lifecycle state of a Processor.
type State int

const (
	// StateUnconfigured means no buffers are allocated; Process is a no-op.
	StateUnconfigured State = iota
	// StateConfigured means buffers are sized and Process renders frames.
	StateConfigured
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	default:
		return "unknown"
	}
}

// SkipReason explains why a frame was dropped.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipUnconfigured
	SkipNilFrame
	SkipDimensionMismatch
	SkipSampleCountMismatch
)

// String returns the reason as a metric label.
func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipUnconfigured:
		return "unconfigured"
	case SkipNilFrame:
		return "nil_frame"
	case SkipDimensionMismatch:
		return "dimension_mismatch"
	case SkipSampleCountMismatch:
		return "sample_count_mismatch"
	default:
		return "unknown"
	}
}

// Stats holds lifetime counters.
type Stats struct {
	Processed   uint64
	Skipped     uint64
	Configures  uint64
	LastSkip    SkipReason
	LastFrame   depth.FrameStats
	LUTRebuilds uint64
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for configuration and skip events.
func WithLogger(logger ports.Logger) Option {
	return func(p *Processor) {
		p.logger = logger.WithComponent("processor")
	}
}

// WithLookupTable precomputes the color of every depth value for the current
// reliable range. The table is rebuilt only when the range changes.
func WithLookupTable(enabled bool) Option {
	return func(p *Processor) {
		p.useLUT = enabled
	}
}

// Processor converts depth frames into packed BGR pixel buffers.
type Processor struct {
	mapper colormap.Mapper
	logger ports.Logger

	state         State
	width         int
	height        int
	bytesPerPixel int

	depthBuf []uint16
	pixels   []byte

	useLUT   bool
	lut      []colormap.RGB
	lutValid bool
	lutMin   uint16
	lutMax   uint16

	skipping bool
	stats    Stats
}

// New creates an unconfigured Processor using mapper.
func New(mapper colormap.Mapper, opts ...Option) *Processor {
	p := &Processor{
		mapper: mapper,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.useLUT {
		p.lut = make([]colormap.RGB, lutSize)
	}
	return p
}

// Configure sizes the depth and pixel buffers for frames of width x height,
// packed with bytesPerPixel bytes per pixel (at least 3: blue, green, red;
// extra bytes are padding). Reconfiguring discards previous contents.
// On error the processor keeps its previous configuration.
func (p *Processor) Configure(width, height, bytesPerPixel uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("configure %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	if bytesPerPixel < 3 {
		return fmt.Errorf("configure %d bytes per pixel: %w", bytesPerPixel, ErrInvalidPixelFormat)
	}

	count := uint64(width) * uint64(height)
	if count > uint64(maxInt)/uint64(bytesPerPixel) {
		return fmt.Errorf("configure %dx%d: %w", width, height, ErrInvalidDimensions)
	}

	p.width = int(width)
	p.height = int(height)
	p.bytesPerPixel = int(bytesPerPixel)
	p.depthBuf = make([]uint16, int(count))
	p.pixels = make([]byte, int(count)*p.bytesPerPixel)
	p.state = StateConfigured
	p.skipping = false
	p.stats.Configures++

	p.logger.Debug("Configured buffers: %dx%d, %d bytes per pixel", width, height, bytesPerPixel)
	return nil
}

// Process renders frame into the pixel buffer and returns it.
//
// The returned buffer aliases the processor's storage and stays valid until
// the next Configure; it is overwritten by the next successful Process.
// When the frame cannot be rendered (unconfigured, nil frame, or size
// mismatch) Process returns the current buffer unchanged and false.
func (p *Processor) Process(frame *depth.Frame) (depth.PixelBuffer, bool) {
	if reason := p.check(frame); reason != SkipNone {
		p.skip(frame, reason)
		return p.Buffer(), false
	}
	if p.skipping {
		p.logger.Info("Frame size matches again, resuming")
		p.skipping = false
	}

	copy(p.depthBuf, frame.Samples)

	minDepth := frame.MinReliableDistance
	maxDepth := frame.MaxReliableDistance

	var fs depth.FrameStats
	if p.useLUT {
		p.prepareLUT(minDepth, maxDepth)
		fs = p.renderLUT(minDepth, maxDepth)
	} else {
		fs = p.render(minDepth, maxDepth)
	}

	p.stats.Processed++
	p.stats.LastFrame = fs
	return p.Buffer(), true
}

// check validates a frame against the configured buffers.
func (p *Processor) check(frame *depth.Frame) SkipReason {
	switch {
	case p.state != StateConfigured:
		return SkipUnconfigured
	case frame == nil:
		return SkipNilFrame
	case int(frame.Width) != p.width || int(frame.Height) != p.height:
		return SkipDimensionMismatch
	case frame.PixelCount() != len(p.depthBuf) || len(frame.Samples) != len(p.depthBuf):
		return SkipSampleCountMismatch
	default:
		return SkipNone
	}
}

// skip records a dropped frame. Only the first skip of a streak is logged.
func (p *Processor) skip(frame *depth.Frame, reason SkipReason) {
	p.stats.Skipped++
	p.stats.LastSkip = reason

	if p.skipping {
		return
	}
	p.skipping = true

	switch reason {
	case SkipDimensionMismatch, SkipSampleCountMismatch:
		p.logger.Warn("Skipping frames: got %dx%d with %d samples, configured for %dx%d",
			frame.Width, frame.Height, len(frame.Samples), p.width, p.height)
	default:
		p.logger.Debug("Skipping frame: %s", reason.String())
	}
}

// render maps every sample directly through the mapper.
func (p *Processor) render(minDepth, maxDepth uint16) depth.FrameStats {
	var fs depth.FrameStats
	bpp := p.bytesPerPixel
	pix := p.pixels

	for i, d := range p.depthBuf {
		c := p.mapper.Map(d, minDepth, maxDepth)
		o := i * bpp
		pix[o] = c.B
		pix[o+1] = c.G
		pix[o+2] = c.R
		for k := 3; k < bpp; k++ {
			pix[o+k] = 0
		}
		classify(&fs, d, minDepth, maxDepth)
	}
	return fs
}

// renderLUT maps every sample through the precomputed table.
func (p *Processor) renderLUT(minDepth, maxDepth uint16) depth.FrameStats {
	var fs depth.FrameStats
	bpp := p.bytesPerPixel
	pix := p.pixels
	lut := p.lut

	for i, d := range p.depthBuf {
		c := lut[d]
		o := i * bpp
		pix[o] = c.B
		pix[o+1] = c.G
		pix[o+2] = c.R
		for k := 3; k < bpp; k++ {
			pix[o+k] = 0
		}
		classify(&fs, d, minDepth, maxDepth)
	}
	return fs
}

// prepareLUT rebuilds the table in place when the reliable range changed.
func (p *Processor) prepareLUT(minDepth, maxDepth uint16) {
	if p.lutValid && p.lutMin == minDepth && p.lutMax == maxDepth {
		return
	}
	for d := range p.lut {
		p.lut[d] = p.mapper.Map(uint16(d), minDepth, maxDepth)
	}
	p.lutMin, p.lutMax, p.lutValid = minDepth, maxDepth, true
	p.stats.LUTRebuilds++
}

func classify(fs *depth.FrameStats, d, minDepth, maxDepth uint16) {
	switch {
	case d == 0:
		fs.NoData++
	case d < minDepth || d > maxDepth:
		fs.OutOfRange++
	default:
		fs.InRange++
	}
}

// Buffer returns the current pixel buffer without processing.
// It is empty while unconfigured.
func (p *Processor) Buffer() depth.PixelBuffer {
	return depth.PixelBuffer{
		Pix:           p.pixels,
		Width:         p.width,
		Height:        p.height,
		BytesPerPixel: p.bytesPerPixel,
	}
}

// DepthBuffer returns the samples of the last processed frame.
// The slice aliases internal storage.
func (p *Processor) DepthBuffer() []uint16 {
	return p.depthBuf
}

// State returns the lifecycle state.
func (p *Processor) State() State {
	return p.state
}

// Size returns the configured frame dimensions.
func (p *Processor) Size() (width, height int) {
	return p.width, p.height
}

// Matches reports whether frame has the configured dimensions.
func (p *Processor) Matches(frame *depth.Frame) bool {
	return p.state == StateConfigured && frame != nil &&
		int(frame.Width) == p.width && int(frame.Height) == p.height
}

// Stats returns a copy of the lifetime counters.
func (p *Processor) Stats() Stats {
	return p.stats
}

// Mapper returns the color mapper in use.
func (p *Processor) Mapper() colormap.Mapper {
	return p.mapper
}

// Release drops both buffers and returns to the unconfigured state.
func (p *Processor) Release() {
	p.depthBuf = nil
	p.pixels = nil
	p.width, p.height, p.bytesPerPixel = 0, 0, 0
	p.state = StateUnconfigured
	p.skipping = false
}

const maxInt = int(^uint(0) >> 1)

// noopLogger keeps the zero-option Processor free of nil checks.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})        {}
func (noopLogger) Info(string, ...interface{})         {}
func (noopLogger) Warn(string, ...interface{})         {}
func (noopLogger) Error(string, ...interface{})        {}
func (l noopLogger) WithComponent(string) ports.Logger { return l }
