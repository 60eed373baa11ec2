package media

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/geometry"
)

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(640, 360, 1000000)
	require.NoError(t, err)

	assert.Equal(t, 640, f.Width)
	assert.Equal(t, 360, f.Height)
	assert.Equal(t, int64(1000000), f.PTS)
	assert.Len(t, f.Y, 640*360)
	assert.Len(t, f.U, 320*180)
	assert.Len(t, f.V, 320*180)
	assert.Equal(t, 640, f.YStride)
	assert.Equal(t, 320, f.UStride)
	assert.Equal(t, 320, f.VStride)
	assert.Equal(t, geometry.Size{Width: 640, Height: 360}, f.Size())
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantErr bool
	}{
		{
			name:   "Valid dimensions",
			width:  1920,
			height: 1024,
		},
		{
			name:   "Maximum dimensions",
			width:  0xFFFF,
			height: 0xFFFF,
		},
		{
			name:    "Zero width",
			width:   0,
			height:  1024,
			wantErr: true,
		},
		{
			name:    "Zero height",
			width:   1920,
			height:  0,
			wantErr: true,
		},
		{
			name:    "Negative width",
			width:   -1,
			height:  1024,
			wantErr: true,
		},
		{
			name:    "Width exceeds 16-bit bound",
			width:   0x10000,
			height:  1024,
			wantErr: true,
		},
		{
			name:    "Height exceeds 16-bit bound",
			width:   1920,
			height:  0x10000,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.width, tt.height)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrInvalidFrame))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFrame_Clone(t *testing.T) {
	f, err := NewFrame(64, 48, 5000)
	require.NoError(t, err)
	f.Y[0] = 0x10
	f.U[0] = 0x20
	f.V[0] = 0x30

	c := f.Clone()
	assert.Equal(t, f.Width, c.Width)
	assert.Equal(t, f.Height, c.Height)
	assert.Equal(t, f.PTS, c.PTS)
	assert.Equal(t, f.Y, c.Y)
	assert.Equal(t, f.U, c.U)
	assert.Equal(t, f.V, c.V)

	// Mutating the original must not affect the clone.
	f.Y[0] = 0xFF
	f.U[0] = 0xFF
	f.V[0] = 0xFF
	assert.Equal(t, byte(0x10), c.Y[0])
	assert.Equal(t, byte(0x20), c.U[0])
	assert.Equal(t, byte(0x30), c.V[0])
}

func TestFrame_PayloadSize(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		expected int
	}{
		{
			name:     "VGA-class frame",
			width:    640,
			height:   360,
			expected: 640*360 + 2*(640*360/4),
		},
		{
			name:     "Overlay-grown frame",
			width:    1920,
			height:   1084,
			expected: 1920*1084 + 2*(1920*1084/4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFrame(tt.width, tt.height, NoPTS)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f.PayloadSize())
		})
	}
}

func TestFrame_HasPTS(t *testing.T) {
	f, err := NewFrame(16, 16, NoPTS)
	require.NoError(t, err)
	assert.False(t, f.HasPTS())

	f.PTS = 0
	assert.True(t, f.HasPTS())

	f.PTS = 123456
	assert.True(t, f.HasPTS())
}

func TestFrame_RowHonorsStride(t *testing.T) {
	// A frame whose storage rows are wider than the visible width.
	f := &Frame{
		Width:   4,
		Height:  2,
		PTS:     NoPTS,
		Y:       make([]byte, 8*2),
		U:       make([]byte, 4*1),
		V:       make([]byte, 4*1),
		YStride: 8,
		UStride: 4,
		VStride: 4,
	}
	for i := range f.Y {
		f.Y[i] = byte(i)
	}

	assert.Equal(t, []byte{0, 1, 2, 3}, f.Row(0))
	assert.Equal(t, []byte{8, 9, 10, 11}, f.Row(1))

	for i := range f.U {
		f.U[i] = byte(0x40 + i)
		f.V[i] = byte(0x80 + i)
	}
	assert.Equal(t, []byte{0x40, 0x41}, f.ChromaRowU(0))
	assert.Equal(t, []byte{0x80, 0x81}, f.ChromaRowV(0))
}
