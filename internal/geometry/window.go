package geometry

// IsOptimal reports whether one dimension of window can be exactly
// recomputed from the other for the content aspect ratio (truncating
// integer division). An optimal window has no black borders. The content
// size must be non-empty.
func IsOptimal(window, content Size) bool {
	return window.Height == window.Width*content.Height/content.Width ||
		window.Width == window.Height*content.Width/content.Height
}

// OptimalSize returns the window size that crops letterboxing while
// preserving the content aspect ratio:
//   - it attempts to keep at least one dimension of current (cropping the
//     black borders on the other axis),
//   - it scales down to fit within bounds when bounds is non-zero,
//   - it never upscales beyond the (clamped) current size.
//
// An empty content size returns current unchanged.
func OptimalSize(current, content, bounds Size) Size {
	if content.IsZero() {
		return current
	}

	window := current
	if !bounds.IsZero() {
		window.Width = minInt(current.Width, bounds.Width)
		window.Height = minInt(current.Height, bounds.Height)
	}

	if IsOptimal(window, content) {
		return window
	}

	keepWidth := content.Width*window.Height > content.Height*window.Width
	if keepWidth {
		// remove black borders on top and bottom
		window.Height = content.Height * window.Width / content.Width
	} else {
		// remove black borders on left and right (or none at all if it
		// already fits)
		window.Width = content.Width * window.Height / content.Height
	}

	return window
}

// InitialSize computes the first window size shown for a session. When
// neither dimension is requested the content size itself is used as the
// starting point, clamped to bounds; a single requested dimension derives
// the other from the content aspect ratio; two requested dimensions are
// returned verbatim.
func InitialSize(content Size, reqWidth, reqHeight int, bounds Size) Size {
	if reqWidth == 0 && reqHeight == 0 {
		return OptimalSize(content, content, bounds)
	}

	var window Size
	if reqWidth != 0 {
		window.Width = reqWidth
	} else {
		window.Width = reqHeight * content.Width / content.Height
	}
	if reqHeight != 0 {
		window.Height = reqHeight
	} else {
		window.Height = reqWidth * content.Height / content.Width
	}
	return window
}

// ContentRect centers and letterboxes the content within the drawable
// area, preserving the content aspect ratio. When the drawable is already
// optimal the rectangle covers it entirely.
func ContentRect(drawable, content Size) Rect {
	if IsOptimal(drawable, content) {
		return Rect{Width: drawable.Width, Height: drawable.Height}
	}

	keepWidth := content.Width*drawable.Height > content.Height*drawable.Width
	var r Rect
	if keepWidth {
		r.Width = drawable.Width
		r.Height = drawable.Width * content.Height / content.Width
		r.Y = (drawable.Height - r.Height) / 2
	} else {
		r.Height = drawable.Height
		r.Width = drawable.Height * content.Width / content.Height
		r.X = (drawable.Width - r.Width) / 2
	}
	return r
}

// MapDrawableToContent inverse-maps a drawable-space coordinate into
// content space: first undo the content rectangle's offset and scale,
// then undo the orientation's rotation/flip. The rectangle must be
// non-empty (it is always derived from a rendered frame).
func MapDrawableToContent(p Point, content Size, rect Rect, o Orientation) Point {
	w := content.Width
	h := content.Height

	// 64-bit intermediates to avoid overflow on large drawables
	x := int(int64(p.X-rect.X) * int64(w) / int64(rect.Width))
	y := int(int64(p.Y-rect.Y) * int64(h) / int64(rect.Height))

	switch o {
	case Orientation0:
		return Point{X: x, Y: y}
	case Orientation90:
		return Point{X: y, Y: w - x}
	case Orientation180:
		return Point{X: w - x, Y: h - y}
	case Orientation270:
		return Point{X: h - y, Y: x}
	case OrientationFlip0:
		return Point{X: w - x, Y: y}
	case OrientationFlip90:
		return Point{X: h - y, Y: w - x}
	case OrientationFlip180:
		return Point{X: x, Y: h - y}
	default: // OrientationFlip270
		return Point{X: y, Y: x}
	}
}

// ScaleToDrawable converts window coordinates to drawable coordinates,
// accounting for the HiDPI scale (drawable/window ratio per axis).
func ScaleToDrawable(p Point, window, drawable Size) Point {
	return Point{
		X: int(int64(p.X) * int64(drawable.Width) / int64(window.Width)),
		Y: int(int64(p.Y) * int64(drawable.Height) / int64(window.Height)),
	}
}

// minInt returns the minimum of two int values
// Named to avoid conflict with Go 1.21+ built-in min function
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
