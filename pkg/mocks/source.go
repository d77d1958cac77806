package mocks

import (
	"context"
	"io"

	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource that replays a
// fixed list of frames and then returns io.EOF.
type FrameSource struct {
	Frames []*depth.Frame
	Err    error // returned instead of io.EOF when set

	NextCalls int
	Closed    bool
}

// NewFrameSource creates a mock source that yields frames in order.
func NewFrameSource(frames ...*depth.Frame) *FrameSource {
	return &FrameSource{Frames: frames}
}

func (m *FrameSource) Next(ctx context.Context) (*depth.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := m.NextCalls
	m.NextCalls++
	if i < len(m.Frames) {
		return m.Frames[i], nil
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return nil, io.EOF
}

func (m *FrameSource) Close() error {
	m.Closed = true
	return nil
}

var _ ports.FrameSource = (*FrameSource)(nil)
