package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zsiec/viewport/internal/devicetime"
	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/media"
	"github.com/zsiec/viewport/internal/metrics"
)

// ErrSinkDisabled is returned by a stream sink after a write failure has
// permanently disabled it. Resuming mid-frame is not well-defined on a
// stream, so the first partial write ends the sink for the session.
var ErrSinkDisabled = errors.New("stream sink disabled after write failure")

// streamBufferSize keeps full rows buffered between flushes.
const streamBufferSize = 64 * 1024

// StreamSink writes every frame to a byte stream in the framed wire
// format: a 32-byte header followed by tightly packed Y, U and V rows.
// Rows are copied out of the source strides, so the on-wire payload is
// always width-by-width even when the frame storage is padded. The sink
// flushes after each frame so a downstream reader observes complete
// frames without indefinite buffering.
//
// StreamSink is owned by the presentation context and is not safe for
// concurrent use.
type StreamSink struct {
	w          *bufio.Writer
	correlator *devicetime.Correlator
	log        logger.Logger
	failed     bool
	frames     uint64
	bytes      uint64
}

// NewStreamSink creates a sink writing to w. The caller retains
// ownership of the underlying writer and closes it after Close.
func NewStreamSink(w io.Writer, correlator *devicetime.Correlator, log logger.Logger) *StreamSink {
	return &StreamSink{
		w:          bufio.NewWriterSize(w, streamBufferSize),
		correlator: correlator,
		log:        log,
	}
}

// WriteFrame encodes and writes one frame. Any write or flush failure
// disables the sink for the remainder of the session and is reported to
// the caller; subsequent calls return ErrSinkDisabled.
func (s *StreamSink) WriteFrame(frame *media.Frame) error {
	if s.failed {
		return ErrSinkDisabled
	}

	start := time.Now()
	timestampMS, _ := s.correlator.TimestampMS(frame.PTS)
	header := NewFrameHeader(frame, timestampMS).Encode()

	if err := s.writeFrame(header, frame); err != nil {
		s.failed = true
		metrics.IncrementExportError("stream")
		s.log.WithError(err).WithFields(map[string]interface{}{
			"frames_written": s.frames,
			"bytes_written":  s.bytes,
		}).Error("Stream sink disabled after write failure")
		return err
	}

	total := HeaderSize + frame.PayloadSize()
	s.frames++
	s.bytes += uint64(total)
	metrics.RecordStreamExport(total)
	metrics.ObserveExportWriteDuration("stream", time.Since(start).Seconds())
	return nil
}

func (s *StreamSink) writeFrame(header [HeaderSize]byte, frame *media.Frame) error {
	if _, err := s.w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}

	for y := 0; y < frame.Height; y++ {
		if _, err := s.w.Write(frame.Row(y)); err != nil {
			return fmt.Errorf("write luma row %d: %w", y, err)
		}
	}
	chromaHeight := frame.ChromaHeight()
	for y := 0; y < chromaHeight; y++ {
		if _, err := s.w.Write(frame.ChromaRowU(y)); err != nil {
			return fmt.Errorf("write chroma U row %d: %w", y, err)
		}
	}
	for y := 0; y < chromaHeight; y++ {
		if _, err := s.w.Write(frame.ChromaRowV(y)); err != nil {
			return fmt.Errorf("write chroma V row %d: %w", y, err)
		}
	}

	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}

// Failed reports whether the sink has been disabled by a write failure.
func (s *StreamSink) Failed() bool {
	return s.failed
}

// Frames returns the number of frames successfully written.
func (s *StreamSink) Frames() uint64 {
	return s.frames
}

// Close flushes any buffered bytes. The underlying writer is not closed.
func (s *StreamSink) Close() error {
	if s.failed {
		return nil
	}
	return s.w.Flush()
}
