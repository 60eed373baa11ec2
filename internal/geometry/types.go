// Package geometry provides the pure size, rectangle and orientation
// computations used to fit mirrored content into a window: oriented sizes,
// optimal (letterbox-cropping) window sizes, centered content rectangles
// and drawable-to-content coordinate mapping.
package geometry

import "fmt"

// Size represents a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewSize creates a Size.
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// IsZero returns true if either dimension is zero.
func (s Size) IsZero() bool {
	return s.Width == 0 || s.Height == 0
}

// Swap returns the size with width and height exchanged.
func (s Size) Swap() Size {
	return Size{Width: s.Height, Height: s.Width}
}

// Orient returns the size as seen under the given orientation: width and
// height are exchanged iff the orientation implies a 90° or 270° rotation.
func (s Size) Orient(o Orientation) Size {
	if o.IsSwap() {
		return s.Swap()
	}
	return s
}

// String returns the "WxH" representation.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Point represents a coordinate pair.
type Point struct {
	X int
	Y int
}

// Rect represents an offset plus size rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Size returns the rectangle dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// IsZero returns true if either rectangle dimension is zero.
func (r Rect) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}
