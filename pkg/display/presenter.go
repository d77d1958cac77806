// Package display hands rendered frames from the processing loop to viewers.
//
// The processing loop owns one pixel buffer that is overwritten on every
// frame. Viewers (the HTTP preview, snapshots) run on other goroutines and
// must never observe a half-written frame, so Presenter keeps its own double
// buffer: Present fills the back buffer without holding the lock and swaps it
// to the front under a short write lock.
package display

import (
	"sync"
	"sync/atomic"

	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/ports"
)

// Presenter is a double-buffered display sink.
//
// Present must be called from a single goroutine. Snapshot, Updated and Seq
// are safe to call from any goroutine.
type Presenter struct {
	// back is only touched by the presenting goroutine.
	back []byte

	mu      sync.RWMutex
	front   []byte
	width   int
	height  int
	bpp     int
	info    depth.FrameInfo
	seq     uint64
	updated chan struct{}
	closed  bool

	snapshots atomic.Uint64
}

// NewPresenter creates an empty Presenter.
func NewPresenter() *Presenter {
	return &Presenter{
		updated: make(chan struct{}),
	}
}

// Present copies buf into the back buffer and makes it the front buffer.
// buf is not retained.
func (p *Presenter) Present(buf depth.PixelBuffer, info depth.FrameInfo) {
	if buf.Empty() {
		return
	}

	n := buf.Len()
	if cap(p.back) < n {
		p.back = make([]byte, n)
	}
	p.back = p.back[:n]
	copy(p.back, buf.Pix[:n])

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.front, p.back = p.back, p.front
	p.width, p.height, p.bpp = buf.Width, buf.Height, buf.BytesPerPixel
	p.seq++
	info.Seq = p.seq
	p.info = info
	wake := p.updated
	p.updated = make(chan struct{})
	p.mu.Unlock()

	close(wake)
}

// Snapshot copies the front buffer into dst, growing it when needed, and
// returns a PixelBuffer backed by dst. ok is false until the first frame is
// presented.
func (p *Presenter) Snapshot(dst []byte) (buf depth.PixelBuffer, info depth.FrameInfo, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.seq == 0 {
		return depth.PixelBuffer{Pix: dst[:0]}, depth.FrameInfo{}, false
	}

	n := len(p.front)
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	copy(dst, p.front)
	p.snapshots.Add(1)

	return depth.PixelBuffer{
		Pix:           dst,
		Width:         p.width,
		Height:        p.height,
		BytesPerPixel: p.bpp,
	}, p.info, true
}

// Updated returns a channel that is closed when the next frame is presented
// or the Presenter is closed.
func (p *Presenter) Updated() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updated
}

// Seq returns the sequence number of the front buffer (0 before the first frame).
func (p *Presenter) Seq() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.seq
}

// Size returns the dimensions of the front buffer.
func (p *Presenter) Size() (width, height int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.width, p.height
}

// Snapshots returns how many snapshots have been taken.
func (p *Presenter) Snapshots() uint64 {
	return p.snapshots.Load()
}

// Close wakes all waiters and stops accepting frames. The last frame stays
// available through Snapshot.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.updated)
}

// Closed reports whether Close has been called.
func (p *Presenter) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

var _ ports.DisplaySink = (*Presenter)(nil)
