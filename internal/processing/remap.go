package processing

// Remap applies the calibration maps to an interleaved RGB image,
// remapping the left and right halves independently with bilinear
// sampling. Source coordinates are relative to the half being remapped;
// samples falling outside it come out black.
func (c *Calibration) Remap(rgb []byte, width, height int) []byte {
	out := make([]byte, len(rgb))
	leftWidth := width / 2

	remapHalf(rgb, out, width, height, 0, leftWidth, &c.LeftMapX, &c.LeftMapY)
	remapHalf(rgb, out, width, height, leftWidth, width-leftWidth, &c.RightMapX, &c.RightMapY)
	return out
}

// remapHalf fills the destination columns [offset, offset+halfWidth)
// by sampling the same source columns through the coordinate maps.
func remapHalf(src, dst []byte, width, height, offset, halfWidth int, mapX, mapY *Matrix) {
	for y := 0; y < height; y++ {
		dstRow := dst[(y*width+offset)*3:]
		for x := 0; x < halfWidth; x++ {
			sx := float64(mapX.At(y, x))
			sy := float64(mapY.At(y, x))
			r, g, b := sampleBilinear(src, width, height, offset, halfWidth, sx, sy)
			dstRow[x*3] = r
			dstRow[x*3+1] = g
			dstRow[x*3+2] = b
		}
	}
}

// sampleBilinear interpolates the half-image at fractional coordinates.
// Coordinates outside the half-image produce black, matching
// constant-border remap semantics.
func sampleBilinear(src []byte, width, height, offset, halfWidth int, sx, sy float64) (byte, byte, byte) {
	if sx < 0 || sy < 0 || sx > float64(halfWidth-1) || sy > float64(height-1) {
		return 0, 0, 0
	}

	x0 := int(sx)
	y0 := int(sy)
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	x1 := x0 + 1
	if x1 > halfWidth-1 {
		x1 = halfWidth - 1
	}
	y1 := y0 + 1
	if y1 > height-1 {
		y1 = height - 1
	}

	w00 := (1 - fx) * (1 - fy)
	w10 := fx * (1 - fy)
	w01 := (1 - fx) * fy
	w11 := fx * fy

	var out [3]byte
	for ch := 0; ch < 3; ch++ {
		p00 := float64(src[(y0*width+offset+x0)*3+ch])
		p10 := float64(src[(y0*width+offset+x1)*3+ch])
		p01 := float64(src[(y1*width+offset+x0)*3+ch])
		p11 := float64(src[(y1*width+offset+x1)*3+ch])
		out[ch] = byte(p00*w00 + p10*w10 + p01*w01 + p11*w11 + 0.5)
	}
	return out[0], out[1], out[2]
}
