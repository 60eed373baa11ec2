package processing

import (
	"fmt"
	"time"

	"github.com/zsiec/viewport/internal/config"
	"github.com/zsiec/viewport/internal/devicetime"
	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/media"
	"github.com/zsiec/viewport/internal/metrics"
)

// Processor runs the per-frame pre-processing chain: undistortion through
// the calibration maps, then the timestamp overlay band. Input frames are
// never modified; when at least one stage runs the result is a fresh
// frame.
//
// The calibration file is loaded exactly once, on first use. When it
// cannot be loaded, undistortion is disabled for the session: frames
// still get the overlay when that is requested, otherwise they pass
// through unmodified. Processor is owned by the presentation context and
// is not safe for concurrent use.
type Processor struct {
	undistort       bool
	overlay         bool
	calibrationPath string
	correlator      *devicetime.Correlator
	log             logger.Logger

	loadAttempted bool
	calibration   *Calibration
}

// NewProcessor builds a Processor from configuration.
func NewProcessor(cfg *config.ProcessingConfig, correlator *devicetime.Correlator, log logger.Logger) *Processor {
	return &Processor{
		undistort:       cfg.Undistort,
		overlay:         cfg.TimestampOverlay,
		calibrationPath: cfg.CalibrationPath,
		correlator:      correlator,
		log:             log,
	}
}

// Enabled reports whether any processing stage is configured.
func (p *Processor) Enabled() bool {
	return p.undistort || p.overlay
}

// Process runs the configured stages on a frame and returns the result.
// With no stage configured the input frame is returned as-is. On a
// per-frame failure the input frame is returned alongside the error so
// the caller can continue with the unprocessed picture.
func (p *Processor) Process(f *media.Frame) (*media.Frame, error) {
	if !p.Enabled() {
		return f, nil
	}

	start := time.Now()
	p.ensureCalibration()

	out := f
	if p.calibration != nil {
		if !p.calibration.FitsFrame(f.Width, f.Height) {
			p.log.WithFields(map[string]interface{}{
				"frame_size": f.Size().String(),
				"map_size":   fmt.Sprintf("%dx%d", p.calibration.LeftMapX.Cols, p.calibration.LeftMapX.Rows),
			}).Error("Calibration maps do not fit the frame, undistortion disabled")
			metrics.IncrementProcessingError("calibration")
			p.calibration = nil
		} else {
			remapped, err := p.undistortFrame(out)
			if err != nil {
				metrics.IncrementProcessingError("undistort")
				return f, fmt.Errorf("undistort frame: %w", err)
			}
			out = remapped
		}
	}

	if p.overlay {
		grown, err := ApplyTimestampOverlay(out, p.correlator.Label(f.PTS))
		if err != nil {
			metrics.IncrementProcessingError("overlay")
			return f, fmt.Errorf("timestamp overlay: %w", err)
		}
		out = grown
	}

	metrics.ObserveProcessingDuration(time.Since(start).Seconds())
	return out, nil
}

// ensureCalibration loads the calibration maps on first use. Load
// failures disable undistortion for the session; the session itself
// continues.
func (p *Processor) ensureCalibration() {
	if !p.undistort || p.loadAttempted {
		return
	}
	p.loadAttempted = true

	if p.calibrationPath == "" {
		p.logCalibrationFailure(nil)
		return
	}
	cal, err := LoadCalibration(p.calibrationPath)
	if err != nil {
		p.logCalibrationFailure(err)
		return
	}

	p.log.WithFields(map[string]interface{}{
		"path":      p.calibrationPath,
		"left_map":  fmt.Sprintf("%dx%d", cal.LeftMapX.Cols, cal.LeftMapX.Rows),
		"right_map": fmt.Sprintf("%dx%d", cal.RightMapX.Cols, cal.RightMapX.Rows),
	}).Info("Loaded calibration maps")
	p.calibration = cal
}

func (p *Processor) logCalibrationFailure(err error) {
	metrics.IncrementProcessingError("calibration")
	entry := p.log.WithField("path", p.calibrationPath)
	if err != nil {
		entry = entry.WithError(err)
	}
	if p.overlay {
		entry.Warn("Calibration unavailable, continuing with timestamp overlay only")
	} else {
		entry.Error("Calibration unavailable, frames pass through unprocessed")
	}
}

func (p *Processor) undistortFrame(f *media.Frame) (*media.Frame, error) {
	rgb := FrameToRGB(f)
	remapped := p.calibration.Remap(rgb, f.Width, f.Height)

	out, err := media.NewFrame(f.Width, f.Height, f.PTS)
	if err != nil {
		return nil, err
	}
	rgbIntoFrame(remapped, out)
	return out, nil
}
