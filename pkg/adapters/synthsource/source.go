// Package synthsource generates an animated synthetic depth scene.
//
// The scene is a tilted back wall with a sphere moving in front of it, plus
// regions that exercise every color rule: a grid of holes without data, a
// band closer than the reliable range and a corner beyond it.
package synthsource

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/user/depthshow/pkg/adapters/pacer"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// Options configures the generator.
type Options struct {
	Width  int
	Height int

	MinReliable uint16
	MaxReliable uint16

	// FPS paces Next to a fixed frame rate. Zero generates frames as fast as
	// they are requested.
	FPS float64

	// Frames stops the source with io.EOF after this many frames. Zero is
	// unlimited.
	Frames int

	// SwitchAfter changes the resolution to SwitchWidth x SwitchHeight after
	// this many frames, toggling back and forth. Zero disables switching.
	SwitchAfter  int
	SwitchWidth  int
	SwitchHeight int
}

// DefaultOptions returns a 512x424 scene with a 500-4500 mm reliable range.
func DefaultOptions() Options {
	return Options{
		Width:       512,
		Height:      424,
		MinReliable: 500,
		MaxReliable: 4500,
		FPS:         30,
	}
}

// Source is a ports.FrameSource producing synthetic frames.
type Source struct {
	opts   Options
	logger ports.Logger

	frame   depth.Frame
	samples []uint16
	count   int
	width   int
	height  int

	pacer *pacer.Pacer
	now   func() time.Time
}

// New creates a synthetic source.
func New(opts Options, logger ports.Logger) *Source {
	s := &Source{
		opts:   opts,
		logger: logger.WithComponent("synth"),
		width:  opts.Width,
		height: opts.Height,
		pacer:  pacer.New(opts.FPS),
		now:    time.Now,
	}
	return s
}

// Next generates the next frame. The returned frame and its samples are
// reused by the following call.
func (s *Source) Next(ctx context.Context) (*depth.Frame, error) {
	if s.opts.Frames > 0 && s.count >= s.opts.Frames {
		return nil, io.EOF
	}
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	if s.opts.SwitchAfter > 0 && s.count > 0 && s.count%s.opts.SwitchAfter == 0 {
		s.toggleResolution()
	}

	n := s.width * s.height
	if cap(s.samples) < n {
		s.samples = make([]uint16, n)
	}
	s.samples = s.samples[:n]
	s.render(s.count)

	s.frame = depth.Frame{
		Width:               uint32(s.width),
		Height:              uint32(s.height),
		Samples:             s.samples,
		MinReliableDistance: s.opts.MinReliable,
		MaxReliableDistance: s.opts.MaxReliable,
		Timestamp:           s.now(),
	}
	s.count++
	return &s.frame, nil
}

// Close releases nothing; it exists to satisfy ports.FrameSource.
func (s *Source) Close() error {
	return nil
}

// Count returns the number of frames generated.
func (s *Source) Count() int {
	return s.count
}

func (s *Source) toggleResolution() {
	if s.opts.SwitchWidth <= 0 || s.opts.SwitchHeight <= 0 {
		return
	}
	if s.width == s.opts.Width && s.height == s.opts.Height {
		s.width, s.height = s.opts.SwitchWidth, s.opts.SwitchHeight
	} else {
		s.width, s.height = s.opts.Width, s.opts.Height
	}
	s.logger.Info("Switching synthetic resolution to %dx%d", s.width, s.height)
}

// render fills the sample buffer with scene t.
func (s *Source) render(t int) {
	w, h := s.width, s.height
	lo := float64(s.opts.MinReliable)
	hi := float64(s.opts.MaxReliable)
	span := hi - lo

	// sphere orbits the middle of the frame
	phase := float64(t) * 2 * math.Pi / 120
	cx := float64(w) * (0.5 + 0.3*math.Cos(phase))
	cy := float64(h) * (0.5 + 0.2*math.Sin(phase))
	radius := float64(min(w, h)) * 0.18
	sphereDepth := lo + span*0.15

	cell := max(min(w, h)/16, 4)
	nearBand := h - h/12
	farCornerX := w - w/6
	farCornerY := h / 6

	for y := 0; y < h; y++ {
		row := y * w
		// the wall recedes toward the top of the frame
		wall := lo + span*(0.35+0.4*(1-float64(y)/float64(h)))

		for x := 0; x < w; x++ {
			var d float64
			switch {
			case y >= nearBand:
				d = lo * 0.5
			case x >= farCornerX && y < farCornerY:
				d = hi + 250
			case x%cell == cell/2 && y%cell == cell/2:
				d = 0
			default:
				dx := float64(x) - cx
				dy := float64(y) - cy
				if r2 := dx*dx + dy*dy; r2 < radius*radius {
					d = sphereDepth - math.Sqrt(radius*radius-r2)*span/float64(w)
				} else {
					d = wall + float64(x)*span*0.05/float64(w)
				}
			}
			s.samples[row+x] = clampDepth(d)
		}
	}
}

func clampDepth(d float64) uint16 {
	switch {
	case d <= 0:
		return 0
	case d >= math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(d)
	}
}

var _ ports.FrameSource = (*Source)(nil)
