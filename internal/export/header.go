// Package export encodes frames for consumers outside the process: a
// framed binary stream with a checksum-validated header, and still-image
// dumps. It also ships the reference reader for the framed stream.
package export

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zsiec/viewport/internal/media"
)

const (
	// HeaderSize is the fixed encoded size of a FrameHeader.
	HeaderSize = 32

	// DelimiterSize is the length of the frame delimiter.
	DelimiterSize = 8

	// checksumOffset is where the checksum field starts; the checksum
	// covers every header byte before it.
	checksumOffset = HeaderSize - 4
)

// Delimiter opens every frame header. YUV420P sample values never reach
// 0xFF (luma caps at 235, chroma at 240), so eight 0xFF bytes cannot
// occur inside frame payloads and a reader can resynchronize on them.
var Delimiter = [DelimiterSize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

var (
	// ErrShortHeader is returned when fewer than HeaderSize bytes are
	// available to decode.
	ErrShortHeader = errors.New("short frame header")
	// ErrBadDelimiter is returned when a header does not start with the
	// frame delimiter.
	ErrBadDelimiter = errors.New("missing frame delimiter")
	// ErrChecksumMismatch is returned when the stored header checksum
	// does not match the computed one.
	ErrChecksumMismatch = errors.New("header checksum mismatch")
)

// FrameHeader precedes each frame payload on the streamed sink. All
// integers are encoded little-endian; the layout is fixed at 32 bytes
// with no padding.
type FrameHeader struct {
	TimestampMS int64  // wall-clock milliseconds since epoch, 0 when unknown
	Width       int32  // luma plane width in pixels
	Height      int32  // luma plane height in pixels
	FrameSize   uint32 // payload bytes following the header
	Checksum    uint32 // checksum over the first 28 header bytes
}

// NewFrameHeader builds the header for a frame. timestampMS carries the
// correlated wall-clock time, or 0 when the frame has no timestamp.
func NewFrameHeader(frame *media.Frame, timestampMS int64) FrameHeader {
	return FrameHeader{
		TimestampMS: timestampMS,
		Width:       int32(frame.Width),
		Height:      int32(frame.Height),
		FrameSize:   uint32(frame.PayloadSize()),
	}
}

// Encode renders the wire form, computing and embedding the checksum.
func (h FrameHeader) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[:DelimiterSize], Delimiter[:])
	binary.LittleEndian.PutUint64(buf[8:16], uint64(h.TimestampMS))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.Width))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(h.Height))
	binary.LittleEndian.PutUint32(buf[24:28], h.FrameSize)

	checksum := HeaderChecksum(buf[:checksumOffset])
	binary.LittleEndian.PutUint32(buf[checksumOffset:], checksum)
	return buf
}

// DecodeFrameHeader parses and validates a wire-form header: the
// delimiter must be present and the stored checksum must match the bytes.
func DecodeFrameHeader(b []byte) (FrameHeader, error) {
	if len(b) < HeaderSize {
		return FrameHeader{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}
	for i := 0; i < DelimiterSize; i++ {
		if b[i] != Delimiter[i] {
			return FrameHeader{}, ErrBadDelimiter
		}
	}

	h := FrameHeader{
		TimestampMS: int64(binary.LittleEndian.Uint64(b[8:16])),
		Width:       int32(binary.LittleEndian.Uint32(b[16:20])),
		Height:      int32(binary.LittleEndian.Uint32(b[20:24])),
		FrameSize:   binary.LittleEndian.Uint32(b[24:28]),
		Checksum:    binary.LittleEndian.Uint32(b[checksumOffset:HeaderSize]),
	}
	if computed := HeaderChecksum(b[:checksumOffset]); computed != h.Checksum {
		return h, fmt.Errorf("%w: stored %#x computed %#x",
			ErrChecksumMismatch, h.Checksum, computed)
	}
	return h, nil
}

// Validate checks that the header describes a decodable frame: in-range
// dimensions and a payload size consistent with YUV420P.
func (h FrameHeader) Validate() error {
	if err := media.ValidateDimensions(int(h.Width), int(h.Height)); err != nil {
		return err
	}
	w, ht := int(h.Width), int(h.Height)
	expected := w*ht + 2*((w/2)*(ht/2))
	if int(h.FrameSize) != expected {
		return fmt.Errorf("frame size %d does not match %dx%d YUV420P (%d)",
			h.FrameSize, h.Width, h.Height, expected)
	}
	return nil
}

// HeaderChecksum computes the rolling header checksum over b: for each
// byte, checksum = (checksum << 8) XOR byte.
func HeaderChecksum(b []byte) uint32 {
	var checksum uint32
	for _, by := range b {
		checksum = checksum<<8 ^ uint32(by)
	}
	return checksum
}
