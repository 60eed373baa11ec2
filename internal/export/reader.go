package export

import (
	"bufio"
	"io"

	"github.com/zsiec/viewport/internal/media"
)

// ReaderStats counts what a Reader observed on the stream.
type ReaderStats struct {
	Frames           uint64 // frames decoded successfully
	ChecksumFailures uint64 // headers rejected by checksum
	InvalidHeaders   uint64 // checksum-valid headers with impossible contents
	Resyncs          uint64 // times the reader had to hunt for a delimiter
	BytesSkipped     uint64 // bytes discarded while resynchronizing
}

// StreamFrame couples a decoded header with the frame it framed.
type StreamFrame struct {
	Header FrameHeader
	Frame  *media.Frame
}

// Reader decodes the framed export stream. After a checksum mismatch or
// truncated frame it resynchronizes by scanning forward for the next
// delimiter, so one corrupted frame costs at most itself plus the frame
// whose delimiter fell inside the discarded bytes.
type Reader struct {
	br      *bufio.Reader
	pending []byte
	stats   ReaderStats
}

// NewReader wraps r for frame-by-frame decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, streamBufferSize)}
}

// Next returns the next well-formed frame on the stream. It returns
// io.EOF at a clean end of stream and io.ErrUnexpectedEOF when the
// stream ends inside a header or payload.
func (r *Reader) Next() (*StreamFrame, error) {
	for {
		skipped, err := r.seekDelimiter()
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			r.stats.Resyncs++
			r.stats.BytesSkipped += skipped
		}

		var header [HeaderSize]byte
		copy(header[:DelimiterSize], Delimiter[:])
		if err := r.readFull(header[DelimiterSize:]); err != nil {
			return nil, err
		}

		h, err := DecodeFrameHeader(header[:])
		if err != nil {
			r.stats.ChecksumFailures++
			r.requeue(header[DelimiterSize:])
			continue
		}
		if err := h.Validate(); err != nil {
			r.stats.InvalidHeaders++
			r.requeue(header[DelimiterSize:])
			continue
		}

		frame, err := media.NewFrame(int(h.Width), int(h.Height), media.NoPTS)
		if err != nil {
			// Validate already bounds the dimensions.
			r.stats.InvalidHeaders++
			continue
		}
		if err := r.readFull(frame.Y); err != nil {
			return nil, err
		}
		if err := r.readFull(frame.U); err != nil {
			return nil, err
		}
		if err := r.readFull(frame.V); err != nil {
			return nil, err
		}

		r.stats.Frames++
		return &StreamFrame{Header: h, Frame: frame}, nil
	}
}

// Stats returns a snapshot of the reader counters.
func (r *Reader) Stats() ReaderStats {
	return r.stats
}

// seekDelimiter consumes bytes until eight consecutive 0xFF have been
// read, returning how many bytes before them were discarded.
func (r *Reader) seekDelimiter() (uint64, error) {
	var skipped uint64
	run := 0
	for {
		b, err := r.readByte()
		if err != nil {
			return skipped, err
		}
		if b == 0xFF {
			run++
			if run == DelimiterSize {
				return skipped, nil
			}
		} else {
			skipped += uint64(run) + 1
			run = 0
		}
	}
}

// requeue schedules header-rest bytes for re-scanning after a rejected
// header: a genuine delimiter may begin inside them. The rejected
// delimiter itself counts as skipped.
func (r *Reader) requeue(b []byte) {
	buf := make([]byte, 0, len(b)+len(r.pending))
	buf = append(buf, b...)
	buf = append(buf, r.pending...)
	r.pending = buf
	r.stats.BytesSkipped += DelimiterSize
}

func (r *Reader) readByte() (byte, error) {
	if len(r.pending) > 0 {
		b := r.pending[0]
		r.pending = r.pending[1:]
		return b, nil
	}
	return r.br.ReadByte()
}

func (r *Reader) readFull(buf []byte) error {
	n := 0
	for n < len(buf) && len(r.pending) > 0 {
		buf[n] = r.pending[0]
		r.pending = r.pending[1:]
		n++
	}
	if n == len(buf) {
		return nil
	}
	if _, err := io.ReadFull(r.br, buf[n:]); err != nil {
		// readFull only runs after a delimiter was consumed, so any end
		// of stream here is mid-record.
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
