package ports

import (
	"context"

	"github.com/user/depthshow/pkg/depth"
)

// FrameSource delivers depth frames one at a time.
//
// The frame returned by Next is only valid until the following call to Next;
// callers must copy anything they keep. Next returns io.EOF when the stream
// has ended and ctx.Err() when the context is cancelled.
type FrameSource interface {
	Next(ctx context.Context) (*depth.Frame, error)
	Close() error
}
