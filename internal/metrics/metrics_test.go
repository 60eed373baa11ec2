package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func TestFrameCounters(t *testing.T) {
	initialPushed := testutil.ToFloat64(framesPushedTotal)
	initialSkipped := testutil.ToFloat64(framesSkippedTotal)
	initialRendered := testutil.ToFloat64(framesRenderedTotal)

	IncrementFramesPushed()
	IncrementFramesPushed()
	AddFramesSkipped(3)
	IncrementFramesRendered()

	assert.Equal(t, initialPushed+2, testutil.ToFloat64(framesPushedTotal))
	assert.Equal(t, initialSkipped+3, testutil.ToFloat64(framesSkippedTotal))
	assert.Equal(t, initialRendered+1, testutil.ToFloat64(framesRenderedTotal))
}

func TestSetRenderFPS(t *testing.T) {
	rates := []float64{0, 30.5, 59.94, 0}

	for _, fps := range rates {
		SetRenderFPS(fps)
		assert.Equal(t, fps, testutil.ToFloat64(renderFPS))
	}
}

func TestSetContentSize(t *testing.T) {
	SetContentSize(1920, 1024)
	assert.Equal(t, float64(1920), testutil.ToFloat64(contentWidth))
	assert.Equal(t, float64(1024), testutil.ToFloat64(contentHeight))

	// Overlay growth updates the published height
	SetContentSize(1920, 1084)
	assert.Equal(t, float64(1084), testutil.ToFloat64(contentHeight))
}

func TestSetPaused(t *testing.T) {
	SetPaused(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(pausedState))

	SetPaused(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(pausedState))
}

func TestObserveProcessingDuration(t *testing.T) {
	durations := []float64{0.0005, 0.002, 0.016}

	for _, d := range durations {
		ObserveProcessingDuration(d)
	}

	var m dto.Metric
	err := processingDuration.Write(&m)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, m.Histogram.GetSampleCount(), uint64(len(durations)))
}

func TestRecordStreamExport(t *testing.T) {
	initialFrames := testutil.ToFloat64(exportStreamFramesTotal)
	initialBytes := testutil.ToFloat64(exportStreamBytesTotal)

	// 32-byte header plus a 16x16 I420 payload
	RecordStreamExport(32 + 384)
	RecordStreamExport(32 + 384)

	assert.Equal(t, initialFrames+2, testutil.ToFloat64(exportStreamFramesTotal))
	assert.Equal(t, initialBytes+float64(2*(32+384)), testutil.ToFloat64(exportStreamBytesTotal))
}

func TestIncrementImagesSaved(t *testing.T) {
	initial := testutil.ToFloat64(exportImagesSavedTotal)

	IncrementImagesSaved()
	IncrementImagesSaved()
	IncrementImagesSaved()

	assert.Equal(t, initial+3, testutil.ToFloat64(exportImagesSavedTotal))
}

func TestIncrementExportError(t *testing.T) {
	initialStream := testutil.ToFloat64(exportErrorsTotal.WithLabelValues("stream"))
	initialImage := testutil.ToFloat64(exportErrorsTotal.WithLabelValues("image"))

	IncrementExportError("stream")
	IncrementExportError("image")
	IncrementExportError("image")

	assert.Equal(t, initialStream+1, testutil.ToFloat64(exportErrorsTotal.WithLabelValues("stream")))
	assert.Equal(t, initialImage+2, testutil.ToFloat64(exportErrorsTotal.WithLabelValues("image")))
}

func TestObserveExportWriteDuration(t *testing.T) {
	ObserveExportWriteDuration("stream", 0.001)
	ObserveExportWriteDuration("stream", 0.004)

	histogram := exportWriteDuration.WithLabelValues("stream").(prometheus.Histogram)

	var m dto.Metric
	err := histogram.Write(&m)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, m.Histogram.GetSampleCount(), uint64(2))
}

func TestIncrementWindowEvent(t *testing.T) {
	initial := testutil.ToFloat64(windowEventsTotal.WithLabelValues("size_changed"))

	IncrementWindowEvent("size_changed")
	IncrementWindowEvent("size_changed")

	assert.Equal(t, initial+2, testutil.ToFloat64(windowEventsTotal.WithLabelValues("size_changed")))
}

func TestIncrementProcessingError(t *testing.T) {
	initial := testutil.ToFloat64(processingErrorsTotal.WithLabelValues("remap"))

	IncrementProcessingError("remap")

	assert.Equal(t, initial+1, testutil.ToFloat64(processingErrorsTotal.WithLabelValues("remap")))
}

func TestConcurrentMetricsUpdates(t *testing.T) {
	initialPushed := testutil.ToFloat64(framesPushedTotal)
	initialSkipped := testutil.ToFloat64(framesSkippedTotal)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				IncrementFramesPushed()
				AddFramesSkipped(1)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, initialPushed+1000, testutil.ToFloat64(framesPushedTotal))
	assert.Equal(t, initialSkipped+1000, testutil.ToFloat64(framesSkippedTotal))
}
