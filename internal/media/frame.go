// Package media defines the planar video frame model passed between the
// decoder boundary, the presentation loop and the export sinks.
package media

import (
	"fmt"
	"math"

	"github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/geometry"
)

// NoPTS marks a frame whose presentation timestamp is unknown.
const NoPTS int64 = math.MinInt64

// MaxDimension is the largest width or height a frame may carry. The
// window system and the export header both encode dimensions in 16 bits.
const MaxDimension = 0xFFFF

// Frame is an owned YUV420P picture: a full-resolution luma plane and two
// chroma planes at half resolution in each dimension, each plane with its
// own stride (row length in bytes, may exceed the visible width).
//
// A frame belongs to exactly one pipeline stage at a time. Stages that
// mutate pixel data work on a private copy obtained via Clone; a frame is
// never shared across the producer/presentation boundary.
type Frame struct {
	Width  int
	Height int

	// PTS is the presentation timestamp in microseconds relative to
	// stream start, or NoPTS when the decoder did not provide one.
	PTS int64

	Y []byte
	U []byte
	V []byte

	YStride int
	UStride int
	VStride int
}

// NewFrame allocates a tightly packed frame (stride == width) with the
// given dimensions and presentation timestamp.
func NewFrame(width, height int, pts int64) (*Frame, error) {
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	cw := width / 2
	ch := height / 2
	return &Frame{
		Width:   width,
		Height:  height,
		PTS:     pts,
		Y:       make([]byte, width*height),
		U:       make([]byte, cw*ch),
		V:       make([]byte, cw*ch),
		YStride: width,
		UStride: cw,
		VStride: cw,
	}, nil
}

// ValidateDimensions rejects zero, negative or 16-bit-overflowing frame
// dimensions.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", errors.ErrInvalidFrame, width, height)
	}
	return nil
}

// ChromaWidth returns the width of the chroma planes.
func (f *Frame) ChromaWidth() int {
	return f.Width / 2
}

// ChromaHeight returns the height of the chroma planes.
func (f *Frame) ChromaHeight() int {
	return f.Height / 2
}

// Size returns the frame dimensions.
func (f *Frame) Size() geometry.Size {
	return geometry.Size{Width: f.Width, Height: f.Height}
}

// HasPTS returns true if the frame carries a known presentation timestamp.
func (f *Frame) HasPTS() bool {
	return f.PTS != NoPTS
}

// PayloadSize returns the number of bytes the frame occupies when packed
// tightly (no stride padding): width*height luma plus two quarter-size
// chroma planes.
func (f *Frame) PayloadSize() int {
	luma := f.Width * f.Height
	chroma := f.ChromaWidth() * f.ChromaHeight()
	return luma + 2*chroma
}

// Clone returns a deep copy of the frame. The copy owns its plane
// buffers; mutating one frame never affects the other.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Width:   f.Width,
		Height:  f.Height,
		PTS:     f.PTS,
		Y:       make([]byte, len(f.Y)),
		U:       make([]byte, len(f.U)),
		V:       make([]byte, len(f.V)),
		YStride: f.YStride,
		UStride: f.UStride,
		VStride: f.VStride,
	}
	copy(c.Y, f.Y)
	copy(c.U, f.U)
	copy(c.V, f.V)
	return c
}

// Row returns the visible bytes of luma row y, excluding stride padding.
func (f *Frame) Row(y int) []byte {
	off := y * f.YStride
	return f.Y[off : off+f.Width]
}

// ChromaRowU returns the visible bytes of chroma row y from the U plane.
func (f *Frame) ChromaRowU(y int) []byte {
	off := y * f.UStride
	return f.U[off : off+f.ChromaWidth()]
}

// ChromaRowV returns the visible bytes of chroma row y from the V plane.
func (f *Frame) ChromaRowV(y int) []byte {
	off := y * f.VStride
	return f.V[off : off+f.ChromaWidth()]
}
