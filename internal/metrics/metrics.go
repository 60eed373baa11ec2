package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Frame hand-off metrics
	framesPushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewport_frames_pushed_total",
		Help: "Frames offered to the presentation buffer by the decoder",
	})

	framesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewport_frames_skipped_total",
		Help: "Frames overwritten in the presentation buffer before being consumed",
	})

	framesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewport_frames_rendered_total",
		Help: "Frames presented to the window",
	})

	renderFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viewport_render_fps",
		Help: "Frames rendered per second over the last counting interval",
	})

	// Presentation state metrics
	contentWidth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viewport_content_width_pixels",
		Help: "Width of the current video content",
	})

	contentHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viewport_content_height_pixels",
		Help: "Height of the current video content",
	})

	pausedState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viewport_display_paused",
		Help: "1 while the display is paused, 0 otherwise",
	})

	// Pre-processing metrics
	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "viewport_processing_duration_seconds",
		Help:    "Per-frame pre-processing duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~400ms
	})

	processingErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewport_processing_errors_total",
		Help: "Pre-processing failures by stage",
	}, []string{"stage"})

	// Export metrics
	exportStreamFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewport_export_stream_frames_total",
		Help: "Frames written to the export stream",
	})

	exportStreamBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewport_export_stream_bytes_total",
		Help: "Bytes written to the export stream",
	})

	exportImagesSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewport_export_images_saved_total",
		Help: "Still images saved to disk",
	})

	exportErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewport_export_errors_total",
		Help: "Export failures by sink",
	}, []string{"sink"})

	exportWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viewport_export_write_duration_seconds",
		Help:    "Export write duration in seconds by sink",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	}, []string{"sink"})

	// Window metrics
	windowEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viewport_window_events_total",
		Help: "Window events handled by type",
	}, []string{"event"})
)

// IncrementFramesPushed counts a frame offered to the presentation buffer.
func IncrementFramesPushed() {
	framesPushedTotal.Inc()
}

// AddFramesSkipped counts frames dropped by the most-recent-wins policy.
func AddFramesSkipped(n int) {
	framesSkippedTotal.Add(float64(n))
}

// IncrementFramesRendered counts a frame presented to the window.
func IncrementFramesRendered() {
	framesRenderedTotal.Inc()
}

// SetRenderFPS publishes the measured render rate.
func SetRenderFPS(fps float64) {
	renderFPS.Set(fps)
}

// SetContentSize publishes the current content dimensions.
func SetContentSize(width, height int) {
	contentWidth.Set(float64(width))
	contentHeight.Set(float64(height))
}

// SetPaused publishes the pause state.
func SetPaused(paused bool) {
	if paused {
		pausedState.Set(1)
	} else {
		pausedState.Set(0)
	}
}

// ObserveProcessingDuration records one pre-processing pass.
func ObserveProcessingDuration(seconds float64) {
	processingDuration.Observe(seconds)
}

// IncrementProcessingError counts a pre-processing failure for a stage.
func IncrementProcessingError(stage string) {
	processingErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordStreamExport counts one frame written to the export stream.
func RecordStreamExport(bytes int) {
	exportStreamFramesTotal.Inc()
	exportStreamBytesTotal.Add(float64(bytes))
}

// IncrementImagesSaved counts one still image written to disk.
func IncrementImagesSaved() {
	exportImagesSavedTotal.Inc()
}

// IncrementExportError counts an export failure for a sink.
func IncrementExportError(sink string) {
	exportErrorsTotal.WithLabelValues(sink).Inc()
}

// ObserveExportWriteDuration records an export write for a sink.
func ObserveExportWriteDuration(sink string, seconds float64) {
	exportWriteDuration.WithLabelValues(sink).Observe(seconds)
}

// IncrementWindowEvent counts a handled window event.
func IncrementWindowEvent(event string) {
	windowEventsTotal.WithLabelValues(event).Inc()
}
