package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/user/depthshow/pkg/adapters/logger"
	"github.com/user/depthshow/pkg/colormap"
	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/metrics"
	"github.com/user/depthshow/pkg/mocks"
	"github.com/user/depthshow/pkg/processor"
)

func frame(w, h uint32, samples ...uint16) *depth.Frame {
	return &depth.Frame{
		Width:               w,
		Height:              h,
		Samples:             samples,
		MinReliableDistance: 500,
		MaxReliableDistance: 1500,
	}
}

func newOrchestrator(frames ...*depth.Frame) (*Orchestrator, *mocks.FrameSource, *mocks.DisplaySink, *metrics.Metrics) {
	source := mocks.NewFrameSource(frames...)
	sink := mocks.NewDisplaySink()
	m := metrics.New()
	proc := processor.New(colormap.New())
	return New(source, proc, sink, m, logger.NewNoop()), source, sink, m
}

func TestRun_ProcessesUntilEndOfStream(t *testing.T) {
	o, _, sink, m := newOrchestrator(
		frame(2, 1, 0, 2000),
		frame(2, 1, 500, 500),
	)

	result, err := o.Run(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.StopReason != StopEndOfStream {
		t.Errorf("expected %q, got %q", StopEndOfStream, result.StopReason)
	}
	if result.FramesRead != 2 || result.FramesProcessed != 2 || result.FramesSkipped != 0 {
		t.Errorf("unexpected counts %+v", result)
	}
	if result.Reconfigurations != 1 || result.Width != 2 || result.Height != 1 {
		t.Errorf("expected one configure to 2x1, got %+v", result)
	}

	if sink.Count() != 2 {
		t.Fatalf("expected 2 presented frames, got %d", sink.Count())
	}
	want := [][]byte{
		{0, 0, 0, 0, 255, 255, 255, 0},
		{0, 0, 255, 0, 0, 0, 255, 0},
	}
	if diff := cmp.Diff(want, sink.Frames); diff != "" {
		t.Errorf("presented frames mismatch (-want +got):\n%s", diff)
	}
	if sink.Infos[0].Stats != (depth.FrameStats{NoData: 1, OutOfRange: 1}) {
		t.Errorf("unexpected frame stats %+v", sink.Infos[0].Stats)
	}
	if result.Pixels != (depth.FrameStats{NoData: 1, OutOfRange: 1, InRange: 2}) {
		t.Errorf("unexpected pixel totals %+v", result.Pixels)
	}

	if got := testutil.ToFloat64(m.FramesProcessed); got != 2 {
		t.Errorf("expected 2 processed in metrics, got %v", got)
	}
}

func TestRun_AutoReconfigure(t *testing.T) {
	o, _, sink, _ := newOrchestrator(
		frame(2, 1, 500, 500),
		frame(1, 2, 500, 500),
		frame(1, 1, 500),
	)

	result, err := o.Run(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if result.Reconfigurations != 3 || result.FramesProcessed != 3 {
		t.Errorf("expected 3 reconfigurations and 3 processed frames, got %+v", result)
	}
	if result.Width != 1 || result.Height != 1 {
		t.Errorf("expected final size 1x1, got %dx%d", result.Width, result.Height)
	}
	if sink.Count() != 3 {
		t.Errorf("expected 3 presented frames, got %d", sink.Count())
	}
}

func TestRun_FixedSizeSkipsMismatches(t *testing.T) {
	o, _, sink, m := newOrchestrator(
		frame(2, 1, 500, 500),
		frame(3, 1, 500, 500, 500),
		frame(2, 1, 0, 0),
	)

	config := DefaultConfig()
	config.Width, config.Height = 2, 1
	config.AutoReconfigure = false

	result, err := o.Run(context.Background(), config)
	if err != nil {
		t.Fatal(err)
	}

	if result.FramesProcessed != 2 || result.FramesSkipped != 1 {
		t.Errorf("expected 2 processed and 1 skipped, got %+v", result)
	}
	if result.LastSkip != processor.SkipDimensionMismatch.String() {
		t.Errorf("unexpected skip reason %q", result.LastSkip)
	}
	if result.Reconfigurations != 1 {
		t.Errorf("expected only the initial configure, got %d", result.Reconfigurations)
	}
	if sink.Count() != 2 {
		t.Errorf("expected 2 presented frames, got %d", sink.Count())
	}
	if got := testutil.ToFloat64(m.FramesSkipped.WithLabelValues("dimension_mismatch")); got != 1 {
		t.Errorf("expected 1 skipped in metrics, got %v", got)
	}
}

func TestRun_SampleCountMismatch(t *testing.T) {
	o, _, sink, _ := newOrchestrator(
		frame(2, 2, 500, 500, 500), // declares 4 samples, carries 3
	)

	result, err := o.Run(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if result.FramesSkipped != 1 || sink.Count() != 0 {
		t.Errorf("expected the frame to be skipped, got %+v", result)
	}
}

func TestRun_MaxFrames(t *testing.T) {
	frames := make([]*depth.Frame, 10)
	for i := range frames {
		frames[i] = frame(1, 1, 700)
	}
	o, source, _, _ := newOrchestrator(frames...)

	config := DefaultConfig()
	config.MaxFrames = 4

	result, err := o.Run(context.Background(), config)
	if err != nil {
		t.Fatal(err)
	}
	if result.StopReason != StopMaxFrames || result.FramesRead != 4 {
		t.Errorf("expected stop after 4 frames, got %+v", result)
	}
	if source.NextCalls != 4 {
		t.Errorf("expected 4 reads, got %d", source.NextCalls)
	}
}

func TestRun_Cancelled(t *testing.T) {
	o, _, _, _ := newOrchestrator(frame(1, 1, 700))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Run(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("expected cancellation to be a clean stop, got %v", err)
	}
	if result.StopReason != StopCancelled {
		t.Errorf("expected %q, got %q", StopCancelled, result.StopReason)
	}
}

func TestRun_SourceError(t *testing.T) {
	failure := errors.New("sensor unplugged")
	o, source, _, _ := newOrchestrator(frame(1, 1, 700))
	source.Err = failure

	result, err := o.Run(context.Background(), DefaultConfig())
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if result.FramesProcessed != 1 {
		t.Errorf("expected the first frame to be processed, got %d", result.FramesProcessed)
	}
}

func TestRun_InvalidInitialSize(t *testing.T) {
	o, _, _, _ := newOrchestrator()
	config := DefaultConfig()
	config.Width, config.Height = 2, 1
	config.BytesPerPixel = 2

	if _, err := o.Run(context.Background(), config); !errors.Is(err, processor.ErrInvalidPixelFormat) {
		t.Errorf("expected ErrInvalidPixelFormat, got %v", err)
	}
}

func TestStats_Duration(t *testing.T) {
	o, _, _, _ := newOrchestrator(frame(1, 1, 700))
	result, _ := o.Run(context.Background(), DefaultConfig())

	time.Sleep(5 * time.Millisecond)
	if later := o.Stats(); later.Duration != result.Duration {
		t.Errorf("expected duration frozen after the run, got %v then %v", result.Duration, later.Duration)
	}
}

func TestRunResult_Rates(t *testing.T) {
	r := RunResult{FramesProcessed: 30, Duration: 2 * time.Second, ProcessTime: 60 * time.Millisecond}
	if r.FPS() != 15 {
		t.Errorf("expected 15 fps, got %v", r.FPS())
	}
	if r.AvgProcessTime() != 2*time.Millisecond {
		t.Errorf("expected 2ms, got %v", r.AvgProcessTime())
	}
	if (RunResult{}).FPS() != 0 || (RunResult{}).AvgProcessTime() != 0 {
		t.Error("expected zero rates for an empty run")
	}
}
