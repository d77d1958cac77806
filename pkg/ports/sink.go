package ports

import (
	"github.com/user/depthshow/pkg/depth"
)

// DisplaySink receives rendered pixel buffers for display.
//
// Present must finish reading buf before it returns: the buffer is reused
// for the next frame. Implementations that display asynchronously copy it.
type DisplaySink interface {
	Present(buf depth.PixelBuffer, info depth.FrameInfo)
}
