// Package orchestrator runs the frame loop: read a depth frame, colorize it
// and hand it to the display.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/user/depthshow/pkg/depth"
	"github.com/user/depthshow/pkg/metrics"
	"github.com/user/depthshow/pkg/ports"
	"github.com/user/depthshow/pkg/processor"
)

// Stop reasons reported in RunResult.
const (
	StopEndOfStream = "end_of_stream"
	StopMaxFrames   = "max_frames"
	StopCancelled   = "cancelled"
)

// Config contains all configuration for the frame loop.
type Config struct {
	// Width and Height pre-configure the processor. When zero the processor
	// is configured from the first frame.
	Width  int
	Height int

	// BytesPerPixel of the display buffer (default: 4).
	BytesPerPixel int

	// AutoReconfigure resizes the buffers when the frame size changes.
	// Without it frames of another size are skipped.
	AutoReconfigure bool

	// MaxFrames stops the loop after this many frames were read. Zero is
	// unlimited.
	MaxFrames int

	// ReportInterval logs progress periodically. Zero disables it.
	ReportInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BytesPerPixel:   depth.BytesPerPixelBGR32,
		AutoReconfigure: true,
		ReportInterval:  10 * time.Second,
	}
}

// RunResult contains the statistics of a run. It doubles as the live
// statistics snapshot served to viewers.
type RunResult struct {
	FramesRead       int              `json:"framesRead"`
	FramesProcessed  int              `json:"framesProcessed"`
	FramesSkipped    int              `json:"framesSkipped"`
	Reconfigurations int              `json:"reconfigurations"`
	Width            int              `json:"width"`
	Height           int              `json:"height"`
	MinReliable      uint16           `json:"minReliable"`
	MaxReliable      uint16           `json:"maxReliable"`
	LastFrame        depth.FrameStats `json:"lastFrame"`
	Pixels           depth.FrameStats `json:"pixels"`
	LastSkip         string           `json:"lastSkip,omitempty"`

	Duration       time.Duration `json:"duration"`
	ProcessTime    time.Duration `json:"processTime"`
	MaxProcessTime time.Duration `json:"maxProcessTime"`
	StopReason     string        `json:"stopReason,omitempty"`
}

// FPS returns the processed frames per second over the run.
func (r RunResult) FPS() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.FramesProcessed) / r.Duration.Seconds()
}

// AvgProcessTime returns the mean colorization time per processed frame.
func (r RunResult) AvgProcessTime() time.Duration {
	if r.FramesProcessed == 0 {
		return 0
	}
	return r.ProcessTime / time.Duration(r.FramesProcessed)
}

// Orchestrator owns the processor and drives frames from the source to the
// display sink on a single goroutine.
type Orchestrator struct {
	source  ports.FrameSource
	proc    *processor.Processor
	sink    ports.DisplaySink
	metrics *metrics.Metrics
	logger  ports.Logger

	mu    sync.Mutex
	stats RunResult
	start time.Time
	end   time.Time
}

// New creates a new Orchestrator. m may be nil.
func New(source ports.FrameSource, proc *processor.Processor, sink ports.DisplaySink, m *metrics.Metrics, logger ports.Logger) *Orchestrator {
	return &Orchestrator{
		source:  source,
		proc:    proc,
		sink:    sink,
		metrics: m,
		logger:  logger.WithComponent("loop"),
	}
}

// Run processes frames until the source ends, MaxFrames is reached or ctx is
// cancelled. Cancellation is a normal stop and returns no error.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	if config.BytesPerPixel == 0 {
		config.BytesPerPixel = depth.BytesPerPixelBGR32
	}

	o.mu.Lock()
	o.stats = RunResult{}
	o.start = time.Now()
	o.end = time.Time{}
	o.mu.Unlock()

	if config.Width > 0 && config.Height > 0 {
		if err := o.configure(config.Width, config.Height, config.BytesPerPixel); err != nil {
			return o.Stats(), err
		}
	}

	o.logger.Info("Starting processing loop")
	lastReport := time.Now()

	for {
		if config.MaxFrames > 0 && o.framesRead() >= config.MaxFrames {
			return o.finish(StopMaxFrames), nil
		}

		frame, err := o.source.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				o.logger.Info("Source exhausted after %d frames", o.framesRead())
				return o.finish(StopEndOfStream), nil
			case ctx.Err() != nil:
				o.logger.Info("Interrupted, shutting down...")
				return o.finish(StopCancelled), nil
			default:
				o.logger.Error("Failed to read frame: %s", err.Error())
				return o.finish(""), fmt.Errorf("read frame: %w", err)
			}
		}

		o.step(frame, config)

		if config.ReportInterval > 0 && time.Since(lastReport) >= config.ReportInterval {
			s := o.Stats()
			o.logger.Info("Processed %d frames (%d skipped), %.1f fps", s.FramesProcessed, s.FramesSkipped, s.FPS())
			lastReport = time.Now()
		}
	}
}

// step handles one frame.
func (o *Orchestrator) step(frame *depth.Frame, config Config) {
	if o.metrics != nil {
		o.metrics.RecordRead()
	}
	o.mu.Lock()
	o.stats.FramesRead++
	o.mu.Unlock()

	if frame != nil && !o.proc.Matches(frame) &&
		(o.proc.State() == processor.StateUnconfigured || config.AutoReconfigure) {
		if err := o.configure(int(frame.Width), int(frame.Height), config.BytesPerPixel); err != nil {
			o.logger.Warn("Failed to configure processor: %s", err.Error())
		}
	}

	start := time.Now()
	buf, ok := o.proc.Process(frame)
	elapsed := time.Since(start)

	if !ok {
		reason := o.proc.Stats().LastSkip.String()
		o.mu.Lock()
		o.stats.FramesSkipped++
		o.stats.LastSkip = reason
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.RecordSkipped(reason)
		}
		return
	}

	fs := o.proc.Stats().LastFrame
	info := depth.FrameInfo{
		MinReliable: frame.MinReliableDistance,
		MaxReliable: frame.MaxReliableDistance,
		Stats:       fs,
		Timestamp:   frame.Timestamp,
	}

	o.mu.Lock()
	o.stats.FramesProcessed++
	o.stats.MinReliable = info.MinReliable
	o.stats.MaxReliable = info.MaxReliable
	o.stats.LastFrame = fs
	o.stats.Pixels.NoData += fs.NoData
	o.stats.Pixels.OutOfRange += fs.OutOfRange
	o.stats.Pixels.InRange += fs.InRange
	o.stats.ProcessTime += elapsed
	o.stats.MaxProcessTime = max(o.stats.MaxProcessTime, elapsed)
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.RecordProcessed(fs, elapsed.Seconds())
	}

	o.sink.Present(buf, info)
}

func (o *Orchestrator) configure(width, height, bytesPerPixel int) error {
	if width < 0 || height < 0 || bytesPerPixel < 0 {
		return fmt.Errorf("configure %dx%d: %w", width, height, processor.ErrInvalidDimensions)
	}
	if err := o.proc.Configure(uint32(width), uint32(height), uint32(bytesPerPixel)); err != nil {
		return err
	}

	o.logger.Info("Reconfiguring for %dx%d frames", width, height)
	o.mu.Lock()
	o.stats.Reconfigurations++
	o.stats.Width, o.stats.Height = width, height
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.RecordReconfigure(width, height)
	}
	return nil
}

func (o *Orchestrator) framesRead() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats.FramesRead
}

func (o *Orchestrator) finish(reason string) RunResult {
	o.mu.Lock()
	o.stats.StopReason = reason
	o.end = time.Now()
	o.mu.Unlock()
	return o.Stats()
}

// Stats returns a snapshot of the current run. Safe for concurrent use.
func (o *Orchestrator) Stats() RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats
	switch {
	case o.start.IsZero():
	case o.end.IsZero():
		s.Duration = time.Since(o.start)
	default:
		s.Duration = o.end.Sub(o.start)
	}
	return s
}
