// Package summarizer provides summary generation for benchmark runs.
package summarizer

import (
	"time"

	"github.com/user/depthshow/pkg/depth"
)

// Summary contains all data collected during a run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Frame source
	Source SourceInfo

	// Processing settings
	Settings Settings

	// Run results
	Run RunInfo

	// Pixel classification totals over all processed frames
	Pixels depth.FrameStats
}

// SourceInfo describes where frames came from.
type SourceInfo struct {
	Kind        string // "synthetic" or "replay"
	Path        string
	Width       int
	Height      int
	MinReliable uint16
	MaxReliable uint16
}

// Settings contains the processing configuration.
type Settings struct {
	Preset          string
	Markers         string
	HueMaxDepth     uint16
	LookupTable     bool
	AutoReconfigure bool
	BytesPerPixel   int
}

// RunInfo contains the measured results.
type RunInfo struct {
	FramesRead       int
	FramesProcessed  int
	FramesSkipped    int
	Reconfigurations int
	Duration         time.Duration
	AvgProcessTime   time.Duration
	MaxProcessTime   time.Duration
	StopReason       string
}

// FPS returns processed frames per second.
func (r RunInfo) FPS() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.FramesProcessed) / r.Duration.Seconds()
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets frame source information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets processing settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithRun sets run results.
func (b *Builder) WithRun(run RunInfo) *Builder {
	b.summary.Run = run
	return b
}

// WithPixels sets the pixel classification totals.
func (b *Builder) WithPixels(pixels depth.FrameStats) *Builder {
	b.summary.Pixels = pixels
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
