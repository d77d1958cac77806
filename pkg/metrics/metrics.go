// Package metrics exposes Prometheus metrics for the depth pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/depthshow/pkg/depth"
)

const namespace = "depthshow"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Frame metrics
	FramesRead       prometheus.Counter
	FramesProcessed  prometheus.Counter
	FramesSkipped    *prometheus.CounterVec
	Reconfigurations prometheus.Counter
	ProcessDuration  prometheus.Histogram

	// Pixel classification of the last processed frame
	NoDataRatio     prometheus.Gauge
	OutOfRangeRatio prometheus.Gauge
	FrameWidth      prometheus.Gauge
	FrameHeight     prometheus.Gauge

	// Preview metrics
	PreviewClients prometheus.Gauge
	PreviewFrames  prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
}

// New creates all metrics on a private registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FramesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_read_total",
			Help:      "Total number of frames read from the source",
		}),
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_processed_total",
			Help:      "Total number of frames colorized",
		}),
		FramesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_skipped_total",
				Help:      "Total number of frames dropped without rendering",
			},
			[]string{"reason"},
		),
		Reconfigurations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconfigurations_total",
			Help:      "Total number of buffer reconfigurations",
		}),
		ProcessDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time spent colorizing one frame",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
		}),

		NoDataRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_frame_no_data_ratio",
			Help:      "Share of pixels without depth data in the last frame",
		}),
		OutOfRangeRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_frame_out_of_range_ratio",
			Help:      "Share of pixels outside the reliable range in the last frame",
		}),
		FrameWidth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_width_pixels",
			Help:      "Configured frame width",
		}),
		FrameHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_height_pixels",
			Help:      "Configured frame height",
		}),

		PreviewClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_clients",
			Help:      "Number of connected MJPEG preview clients",
		}),
		PreviewFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preview_frames_sent_total",
			Help:      "Total number of preview images sent to clients",
		}),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path", "status"},
		),
	}
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRead records a frame taken from the source.
func (m *Metrics) RecordRead() {
	m.FramesRead.Inc()
}

// RecordProcessed records a colorized frame and its pixel classification.
func (m *Metrics) RecordProcessed(stats depth.FrameStats, seconds float64) {
	m.FramesProcessed.Inc()
	m.ProcessDuration.Observe(seconds)

	total := stats.Total()
	if total == 0 {
		return
	}
	m.NoDataRatio.Set(float64(stats.NoData) / float64(total))
	m.OutOfRangeRatio.Set(float64(stats.OutOfRange) / float64(total))
}

// RecordSkipped records a dropped frame.
func (m *Metrics) RecordSkipped(reason string) {
	m.FramesSkipped.WithLabelValues(reason).Inc()
}

// RecordReconfigure records a buffer reconfiguration to width x height.
func (m *Metrics) RecordReconfigure(width, height int) {
	m.Reconfigurations.Inc()
	m.FrameWidth.Set(float64(width))
	m.FrameHeight.Set(float64(height))
}

// RecordClientConnected records a new preview client.
func (m *Metrics) RecordClientConnected() {
	m.PreviewClients.Inc()
}

// RecordClientDisconnected records a closed preview client.
func (m *Metrics) RecordClientDisconnected() {
	m.PreviewClients.Dec()
}

// RecordPreviewFrame records one preview image sent.
func (m *Metrics) RecordPreviewFrame() {
	m.PreviewFrames.Inc()
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(path string, status int) {
	m.HTTPRequests.WithLabelValues(path, statusClass(status)).Inc()
}

// statusClass collapses a status code into its class label.
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
