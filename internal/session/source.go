// Package session assembles one mirroring session: the frame source,
// the presentation controller, the export sinks and the optional
// presence registry, under a single Run that owns their lifecycles.
package session

import (
	"context"
	"errors"
	"io"
	"time"

	apperrors "github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/export"
	"github.com/zsiec/viewport/internal/framebuffer"
	"github.com/zsiec/viewport/internal/logger"
)

// Source delivers decoded frames into a sink until the stream ends, the
// sink is closed, or the context is canceled.
type Source interface {
	Run(ctx context.Context, sink framebuffer.FrameSink) error
}

// maxReplayGap caps the pause between paced frames. The capture side
// only emits frames when the screen changes, so recorded gaps can span
// minutes of static screen; replay compresses those.
const maxReplayGap = time.Second

// StreamSource feeds a session from the framed wire format, either live
// from a pipe the capture client writes or from a recorded export file.
// Recorded wall-clock timestamps become the frames' presentation
// timestamps, so overlay and re-export reproduce the original times.
type StreamSource struct {
	r        io.Reader
	log      logger.Logger
	realtime bool
}

// NewStreamSource creates a source decoding frames from r. With realtime
// set, delivery is paced by the recorded frame timestamps instead of
// running as fast as the stream can be read.
func NewStreamSource(r io.Reader, realtime bool, log logger.Logger) *StreamSource {
	return &StreamSource{r: r, realtime: realtime, log: log}
}

// Run decodes frames and pushes them into sink. The sink is opened on
// the first frame and closed when the source stops. When the input also
// implements io.Closer it is closed on context cancellation to unblock
// a pending read.
func (s *StreamSource) Run(ctx context.Context, sink framebuffer.FrameSink) error {
	reader := export.NewReader(s.r)

	if c, ok := s.r.(io.Closer); ok {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				c.Close()
			case <-stop:
			}
		}()
	}

	opened := false
	defer func() {
		if opened {
			sink.Close()
		}
	}()

	var prevTS int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sf, err := reader.Next()
		if err != nil {
			return s.finish(ctx, reader, opened, err)
		}

		// A zero wire timestamp means the capture side had none; the
		// frame keeps NoPTS.
		ts := sf.Header.TimestampMS
		if ts != 0 {
			sf.Frame.PTS = ts * 1000
		}

		if !opened {
			format := framebuffer.Format{Width: sf.Frame.Width, Height: sf.Frame.Height}
			if err := sink.Open(format); err != nil {
				return err
			}
			opened = true
		}

		if err := s.pace(ctx, prevTS, ts); err != nil {
			return err
		}
		prevTS = ts

		if err := sink.Push(sf.Frame); err != nil {
			if errors.Is(err, apperrors.ErrSinkClosed) {
				s.log.Debug("Frame sink closed, stopping source")
				return nil
			}
			return err
		}
	}
}

// pace sleeps out the recorded gap to the previous frame.
func (s *StreamSource) pace(ctx context.Context, prevTS, ts int64) error {
	if !s.realtime || prevTS == 0 || ts <= prevTS {
		return nil
	}
	gap := time.Duration(ts-prevTS) * time.Millisecond
	if gap > maxReplayGap {
		gap = maxReplayGap
	}
	t := time.NewTimer(gap)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *StreamSource) finish(ctx context.Context, reader *export.Reader, opened bool, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	stats := reader.Stats()
	fields := map[string]interface{}{
		"frames":            stats.Frames,
		"resyncs":           stats.Resyncs,
		"checksum_failures": stats.ChecksumFailures,
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		if !opened {
			return apperrors.Degraded("source", "stream ended before the first frame")
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// Expected when the capture side was killed mid-frame.
			s.log.WithFields(fields).Warn("Frame stream ended mid-frame")
		} else {
			s.log.WithFields(fields).Info("Frame stream ended")
		}
		return nil
	}

	return apperrors.WrapDegraded(err, "source", "frame stream read failed")
}
