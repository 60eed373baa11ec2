package geometry

// Orientation is one of the eight fixed rotation/flip values applied to
// content before display. Rotations are counter-clockwise; the flip
// variants mirror horizontally before rotating.
type Orientation uint8

const (
	Orientation0 Orientation = iota
	Orientation90
	Orientation180
	Orientation270
	OrientationFlip0
	OrientationFlip90
	OrientationFlip180
	OrientationFlip270
)

// String returns the canonical orientation name.
func (o Orientation) String() string {
	switch o {
	case Orientation0:
		return "0"
	case Orientation90:
		return "90"
	case Orientation180:
		return "180"
	case Orientation270:
		return "270"
	case OrientationFlip0:
		return "flip0"
	case OrientationFlip90:
		return "flip90"
	case OrientationFlip180:
		return "flip180"
	case OrientationFlip270:
		return "flip270"
	default:
		return "unknown"
	}
}

// IsSwap returns true if the orientation exchanges width and height
// (a 90° or 270° rotation, flipped or not).
func (o Orientation) IsSwap() bool {
	return o&1 != 0
}

// IsFlipped returns true for the four mirrored orientations.
func (o Orientation) IsFlipped() bool {
	return o&4 != 0
}

// Inverse returns the orientation that undoes this one. The pure
// rotations 90 and 270 are each other's inverse; 0, 180 and all flipped
// orientations are involutions.
func (o Orientation) Inverse() Orientation {
	switch o {
	case Orientation90:
		return Orientation270
	case Orientation270:
		return Orientation90
	default:
		return o
	}
}

// ParseOrientation maps a quarter-turn count (0-3) to the matching
// unflipped orientation.
func ParseOrientation(quarterTurns int) (Orientation, bool) {
	if quarterTurns < 0 || quarterTurns > 3 {
		return Orientation0, false
	}
	return Orientation(quarterTurns), true
}
