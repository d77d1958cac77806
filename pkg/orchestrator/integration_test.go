package orchestrator_test

import (
	"bytes"
	"context"
	"image/jpeg"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/user/depthshow/pkg/adapters/ggrenderer"
	"github.com/user/depthshow/pkg/adapters/logger"
	"github.com/user/depthshow/pkg/adapters/synthsource"
	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/display"
	"github.com/user/depthshow/pkg/metrics"
	"github.com/user/depthshow/pkg/orchestrator"
	"github.com/user/depthshow/pkg/preview"
	"github.com/user/depthshow/pkg/processor"
)

// switchingSource toggles between 64x48 and 32x24 every three frames.
func switchingSource() *synthsource.Source {
	opts := synthsource.DefaultOptions()
	opts.Width, opts.Height = 64, 48
	opts.FPS = 0
	opts.SwitchAfter = 3
	opts.SwitchWidth, opts.SwitchHeight = 32, 24
	return synthsource.New(opts, logger.NewNoop())
}

// TestSourceToPreview runs the synthetic scene through the loop and renders
// the final frame as a JPEG preview.
func TestSourceToPreview(t *testing.T) {
	log := logger.NewNoop()
	mapper := colormap.New()
	m := metrics.New()
	presenter := display.NewPresenter()

	orch := orchestrator.New(switchingSource(), processor.New(mapper, processor.WithLookupTable(true)), presenter, m, log)

	cfg := orchestrator.DefaultConfig()
	cfg.Width, cfg.Height = 64, 48
	cfg.MaxFrames = 7
	cfg.ReportInterval = 0

	result, err := orch.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 64x48 up front, 32x24 at frame 4, 64x48 again at frame 7
	if result.FramesProcessed != 7 || result.FramesSkipped != 0 {
		t.Errorf("expected 7 processed and none skipped, got %+v", result)
	}
	if result.Reconfigurations != 3 {
		t.Errorf("expected 3 reconfigurations, got %d", result.Reconfigurations)
	}
	if got := testutil.ToFloat64(m.Reconfigurations); got != 3 {
		t.Errorf("expected 3 reconfigurations in metrics, got %v", got)
	}
	if w, h := presenter.Size(); w != 64 || h != 48 {
		t.Errorf("expected 64x48 front buffer, got %dx%d", w, h)
	}
	if presenter.Seq() != 7 {
		t.Errorf("expected seq 7, got %d", presenter.Seq())
	}

	composer := preview.NewComposer(presenter, ggrenderer.New(), mapper, preview.DefaultOptions(), log)
	img, ok, err := composer.Latest(context.Background())
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if img.Info.Seq != 7 {
		t.Errorf("expected preview of frame 7, got %d", img.Info.Seq)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	// frame plus padding, legend, labels and status row
	if b := decoded.Bounds(); b.Dx() != 88 || b.Dy() != 136 {
		t.Errorf("expected 88x136 preview, got %dx%d", b.Dx(), b.Dy())
	}
}

// TestSourceWithoutReconfigure skips the frames of the other size.
func TestSourceWithoutReconfigure(t *testing.T) {
	m := metrics.New()
	presenter := display.NewPresenter()
	orch := orchestrator.New(switchingSource(), processor.New(colormap.New()), presenter, m, logger.NewNoop())

	cfg := orchestrator.DefaultConfig()
	cfg.Width, cfg.Height = 64, 48
	cfg.AutoReconfigure = false
	cfg.MaxFrames = 7
	cfg.ReportInterval = 0

	result, err := orch.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.FramesProcessed != 4 || result.FramesSkipped != 3 {
		t.Errorf("expected 4 processed and 3 skipped, got %d and %d", result.FramesProcessed, result.FramesSkipped)
	}
	if result.Reconfigurations != 1 {
		t.Errorf("expected 1 reconfiguration, got %d", result.Reconfigurations)
	}
	if result.LastSkip != "dimension_mismatch" {
		t.Errorf("expected dimension_mismatch, got %q", result.LastSkip)
	}
	if got := testutil.ToFloat64(m.FramesSkipped.WithLabelValues("dimension_mismatch")); got != 3 {
		t.Errorf("expected 3 skips in metrics, got %v", got)
	}
	if presenter.Seq() != 4 {
		t.Errorf("expected 4 presented frames, got %d", presenter.Seq())
	}
}
