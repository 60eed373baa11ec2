// Package processing prepares frames for presentation and export:
// optional undistortion through calibration maps and an optional
// timestamp overlay band. Stages never mutate their input frame; every
// transformed frame is a fresh allocation.
package processing

import (
	"image/color"

	"github.com/zsiec/viewport/internal/media"
)

// FrameToRGB converts a planar frame to tightly packed interleaved
// 8-bit RGB, row-major, three bytes per pixel.
func FrameToRGB(f *media.Frame) []byte {
	rgb := make([]byte, f.Width*f.Height*3)

	maxCX := f.ChromaWidth() - 1
	maxCY := f.ChromaHeight() - 1
	for y := 0; y < f.Height; y++ {
		cy := clampInt(y/2, maxCY)
		yRow := f.Y[y*f.YStride:]
		uRow := f.U[cy*f.UStride:]
		vRow := f.V[cy*f.VStride:]
		out := rgb[y*f.Width*3:]

		for x := 0; x < f.Width; x++ {
			cx := clampInt(x/2, maxCX)
			r, g, b := color.YCbCrToRGB(yRow[x], uRow[cx], vRow[cx])
			out[x*3] = r
			out[x*3+1] = g
			out[x*3+2] = b
		}
	}
	return rgb
}

// rgbIntoFrame writes an interleaved RGB image back into the plane
// layout of dst. dst must already have the image dimensions; its chroma
// samples are averaged over each 2x2 pixel block.
func rgbIntoFrame(rgb []byte, dst *media.Frame) {
	cw := dst.ChromaWidth()
	ch := dst.ChromaHeight()
	cbSum := make([]uint32, cw*ch)
	crSum := make([]uint32, cw*ch)
	cnt := make([]uint32, cw*ch)

	maxCX := cw - 1
	maxCY := ch - 1
	for y := 0; y < dst.Height; y++ {
		cy := clampInt(y/2, maxCY)
		row := rgb[y*dst.Width*3:]
		yRow := dst.Y[y*dst.YStride:]

		for x := 0; x < dst.Width; x++ {
			luma, cb, cr := color.RGBToYCbCr(row[x*3], row[x*3+1], row[x*3+2])
			yRow[x] = luma

			ci := cy*cw + clampInt(x/2, maxCX)
			cbSum[ci] += uint32(cb)
			crSum[ci] += uint32(cr)
			cnt[ci]++
		}
	}

	for cy := 0; cy < ch; cy++ {
		uRow := dst.U[cy*dst.UStride:]
		vRow := dst.V[cy*dst.VStride:]
		for cx := 0; cx < cw; cx++ {
			ci := cy*cw + cx
			if cnt[ci] == 0 {
				continue
			}
			uRow[cx] = byte(cbSum[ci] / cnt[ci])
			vRow[cx] = byte(crSum[ci] / cnt[ci])
		}
	}
}

func clampInt(v, max int) int {
	if v > max {
		return max
	}
	return v
}
