// Package nulldisplay provides a display sink that discards frames.
package nulldisplay

import (
	"sync/atomic"

	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// Sink is a no-op implementation of ports.DisplaySink.
// It counts presented frames and bytes and discards the pixels.
type Sink struct {
	frames atomic.Uint64
	bytes  atomic.Uint64
}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// Present counts the frame.
func (s *Sink) Present(buf depth.PixelBuffer, info depth.FrameInfo) {
	s.frames.Add(1)
	s.bytes.Add(uint64(len(buf.Pix)))
}

// Frames returns the number of presented frames.
func (s *Sink) Frames() uint64 {
	return s.frames.Load()
}

// Bytes returns the total size of the presented buffers.
func (s *Sink) Bytes() uint64 {
	return s.bytes.Load()
}

var _ ports.DisplaySink = (*Sink)(nil)
