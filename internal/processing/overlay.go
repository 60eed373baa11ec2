package processing

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/zsiec/viewport/internal/media"
)

const (
	// OverlayBandHeight is the fixed height of the timestamp band
	// prepended above the frame.
	OverlayBandHeight = 60

	// neutralChroma is the U/V value for colorless (black/white) pixels.
	neutralChroma = 128

	textMarginX = 10
	textMarginY = 10
)

// ApplyTimestampOverlay returns a new frame grown by OverlayBandHeight
// rows: a black band carrying the label in white text, with the original
// picture below it. The input frame is not modified. Frames too tall to
// grow return an error.
func ApplyTimestampOverlay(f *media.Frame, label string) (*media.Frame, error) {
	out, err := media.NewFrame(f.Width, f.Height+OverlayBandHeight, f.PTS)
	if err != nil {
		return nil, err
	}

	// Band luma starts black; draw the label into it.
	band := image.NewGray(image.Rect(0, 0, f.Width, OverlayBandHeight))
	d := &font.Drawer{
		Dst:  band,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(textMarginX, OverlayBandHeight-textMarginY),
	}
	d.DrawString(label)
	for y := 0; y < OverlayBandHeight; y++ {
		copy(out.Y[y*out.YStride:(y+1)*out.YStride], band.Pix[y*band.Stride:])
	}

	// Band chroma is neutral: the band stays grayscale.
	chromaBand := OverlayBandHeight / 2
	for y := 0; y < chromaBand; y++ {
		uRow := out.U[y*out.UStride : y*out.UStride+out.ChromaWidth()]
		vRow := out.V[y*out.VStride : y*out.VStride+out.ChromaWidth()]
		for x := range uRow {
			uRow[x] = neutralChroma
			vRow[x] = neutralChroma
		}
	}

	// Original picture below the band.
	for y := 0; y < f.Height; y++ {
		copy(out.Y[(y+OverlayBandHeight)*out.YStride:], f.Row(y))
	}
	for y := 0; y < f.ChromaHeight(); y++ {
		copy(out.U[(y+chromaBand)*out.UStride:], f.ChromaRowU(y))
		copy(out.V[(y+chromaBand)*out.VStride:], f.ChromaRowV(y))
	}

	return out, nil
}
