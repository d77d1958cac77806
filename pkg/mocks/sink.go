package mocks

import (
	"sync"

	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// DisplaySink is a mock implementation of ports.DisplaySink.
// It keeps a copy of every presented buffer.
type DisplaySink struct {
	mu sync.Mutex

	Frames [][]byte
	Infos  []depth.FrameInfo
}

// NewDisplaySink creates a new mock DisplaySink.
func NewDisplaySink() *DisplaySink {
	return &DisplaySink{}
}

func (m *DisplaySink) Present(buf depth.PixelBuffer, info depth.FrameInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, append([]byte(nil), buf.Pix...))
	m.Infos = append(m.Infos, info)
}

// Count returns the number of presented frames.
func (m *DisplaySink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Frames)
}

var _ ports.DisplaySink = (*DisplaySink)(nil)
