package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/zsiec/viewport/internal/devicetime"
	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/media"
	"github.com/zsiec/viewport/internal/metrics"
	"github.com/zsiec/viewport/internal/processing"
)

// ImageSink dumps frames as binary PPM files into a directory. Files are
// named by a per-session counter plus, when the frame carries a
// timestamp, the correlated wall-clock time in milliseconds:
//
//	frame_000042.ppm
//	frame_000042_1700000012345.ppm
//
// A failed write abandons that frame only; the session continues.
//
// ImageSink is owned by the presentation context and is not safe for
// concurrent use.
type ImageSink struct {
	dir        string
	correlator *devicetime.Correlator
	limiter    *rate.Limiter
	log        logger.Logger
	counter    uint64
	saved      uint64
}

// NewImageSink creates the sink, creating dir if it does not exist.
// maxPerSecond caps the save rate; 0 saves every frame.
func NewImageSink(dir string, correlator *devicetime.Correlator, maxPerSecond float64, log logger.Logger) (*ImageSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory %s: %w", dir, err)
	}

	var limiter *rate.Limiter
	if maxPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxPerSecond), 1)
	}

	return &ImageSink{
		dir:        dir,
		correlator: correlator,
		limiter:    limiter,
		log:        log,
	}, nil
}

// SaveFrame writes one frame as a PPM file. Frames above the configured
// save rate are silently skipped. The per-session counter advances for
// every attempted save, failed or not, so filenames reflect the frame
// sequence rather than the number of files on disk.
func (s *ImageSink) SaveFrame(frame *media.Frame) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return nil
	}

	counter := s.counter
	s.counter++

	name := fmt.Sprintf("frame_%06d.ppm", counter)
	if timestampMS, ok := s.correlator.TimestampMS(frame.PTS); ok {
		name = fmt.Sprintf("frame_%06d_%d.ppm", counter, timestampMS)
	}

	start := time.Now()
	path := filepath.Join(s.dir, name)
	if err := writePPM(path, frame); err != nil {
		metrics.IncrementExportError("image")
		return fmt.Errorf("save frame image %s: %w", name, err)
	}

	s.saved++
	metrics.IncrementImagesSaved()
	metrics.ObserveExportWriteDuration("image", time.Since(start).Seconds())
	return nil
}

// Saved returns the number of images written successfully.
func (s *ImageSink) Saved() uint64 {
	return s.saved
}

// Dir returns the directory the sink writes into.
func (s *ImageSink) Dir() string {
	return s.dir
}

// writePPM converts the frame to interleaved RGB and writes a binary
// PPM: the magic token, ASCII dimensions and max sample value, then raw
// row-major RGB bytes.
func writePPM(path string, frame *media.Frame) error {
	rgb := processing.FrameToRGB(frame)

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriterSize(f, streamBufferSize)
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", frame.Width, frame.Height); err != nil {
		f.Close()
		return err
	}
	if _, err := w.Write(rgb); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
