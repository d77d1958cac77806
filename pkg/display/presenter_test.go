package display

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/user/depthshow/pkg/depth"
)

func pixelBuffer(w, h int, fill byte) depth.PixelBuffer {
	pix := make([]byte, w*h*depth.BytesPerPixelBGR32)
	for i := range pix {
		pix[i] = fill
	}
	return depth.PixelBuffer{Pix: pix, Width: w, Height: h, BytesPerPixel: depth.BytesPerPixelBGR32}
}

func TestPresenter_SnapshotBeforeFirstFrame(t *testing.T) {
	p := NewPresenter()

	buf, _, ok := p.Snapshot(nil)
	if ok {
		t.Fatal("expected no snapshot before the first frame")
	}
	if !buf.Empty() {
		t.Errorf("expected empty buffer, got %+v", buf)
	}
}

func TestPresenter_PresentAndSnapshot(t *testing.T) {
	p := NewPresenter()
	src := pixelBuffer(2, 2, 7)

	p.Present(src, depth.FrameInfo{MinReliable: 500, MaxReliable: 4500})

	// the source buffer is owned by the caller and may be overwritten
	for i := range src.Pix {
		src.Pix[i] = 0
	}

	buf, info, ok := p.Snapshot(nil)
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if diff := cmp.Diff(pixelBuffer(2, 2, 7), buf); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if info.Seq != 1 || info.MinReliable != 500 || info.MaxReliable != 4500 {
		t.Errorf("unexpected info %+v", info)
	}
	if p.Snapshots() != 1 {
		t.Errorf("expected 1 snapshot, got %d", p.Snapshots())
	}
}

func TestPresenter_SnapshotReusesDestination(t *testing.T) {
	p := NewPresenter()
	p.Present(pixelBuffer(2, 1, 1), depth.FrameInfo{})

	dst := make([]byte, 0, 64)
	buf, _, _ := p.Snapshot(dst)
	if &buf.Pix[0] != &dst[:1][0] {
		t.Error("expected snapshot to reuse the destination buffer")
	}
}

func TestPresenter_Resize(t *testing.T) {
	p := NewPresenter()
	p.Present(pixelBuffer(2, 2, 1), depth.FrameInfo{})
	p.Present(pixelBuffer(4, 1, 2), depth.FrameInfo{})
	p.Present(pixelBuffer(1, 1, 3), depth.FrameInfo{})

	buf, info, _ := p.Snapshot(nil)
	if diff := cmp.Diff(pixelBuffer(1, 1, 3), buf); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if info.Seq != 3 {
		t.Errorf("expected seq 3, got %d", info.Seq)
	}
	if w, h := p.Size(); w != 1 || h != 1 {
		t.Errorf("expected 1x1, got %dx%d", w, h)
	}
}

func TestPresenter_IgnoresEmptyBuffer(t *testing.T) {
	p := NewPresenter()
	p.Present(depth.PixelBuffer{}, depth.FrameInfo{})

	if p.Seq() != 0 {
		t.Errorf("expected seq 0, got %d", p.Seq())
	}
}

func TestPresenter_UpdatedWakesWaiters(t *testing.T) {
	p := NewPresenter()
	ch := p.Updated()

	select {
	case <-ch:
		t.Fatal("channel closed before any frame")
	default:
	}

	p.Present(pixelBuffer(1, 1, 1), depth.FrameInfo{})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken")
	}

	if p.Updated() == ch {
		t.Error("expected a fresh channel after a swap")
	}
}

func TestPresenter_Close(t *testing.T) {
	p := NewPresenter()
	p.Present(pixelBuffer(1, 1, 9), depth.FrameInfo{})
	ch := p.Updated()

	p.Close()
	p.Close()

	select {
	case <-ch:
	default:
		t.Fatal("expected Close to wake waiters")
	}
	if !p.Closed() {
		t.Error("expected Closed to report true")
	}

	p.Present(pixelBuffer(1, 1, 1), depth.FrameInfo{})
	buf, _, ok := p.Snapshot(nil)
	if !ok || buf.Pix[0] != 9 {
		t.Errorf("expected the last frame to survive Close, got %v", buf.Pix)
	}
}

func TestPresenter_ConcurrentReaders(t *testing.T) {
	p := NewPresenter()
	const frames = 200

	var wg sync.WaitGroup
	done := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var dst []byte
			for {
				select {
				case <-done:
					return
				default:
				}
				buf, _, ok := p.Snapshot(dst)
				if !ok {
					continue
				}
				dst = buf.Pix
				// every frame is uniform; a torn read mixes fill values
				for _, b := range buf.Pix {
					if b != buf.Pix[0] {
						t.Errorf("torn frame: %v", buf.Pix)
						return
					}
				}
			}
		}()
	}

	src := pixelBuffer(16, 16, 0)
	for i := 1; i <= frames; i++ {
		for j := range src.Pix {
			src.Pix[j] = byte(i)
		}
		p.Present(src, depth.FrameInfo{})
	}
	close(done)
	wg.Wait()

	if p.Seq() != frames {
		t.Errorf("expected seq %d, got %d", frames, p.Seq())
	}
}
