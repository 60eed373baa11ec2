package processing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrixYAML(name string, rows, cols int, data []float32) string {
	vals := make([]string, len(data))
	for i, v := range data {
		vals[i] = fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("%s:\n  rows: %d\n  cols: %d\n  data: [%s]\n",
		name, rows, cols, strings.Join(vals, ", "))
}

// identityCalibrationYAML builds maps that sample every pixel from itself
// for a frame of the given size.
func identityCalibrationYAML(width, height int) string {
	leftW := width / 2
	rightW := width - leftW

	build := func(cols int, fromX bool) []float32 {
		data := make([]float32, height*cols)
		for y := 0; y < height; y++ {
			for x := 0; x < cols; x++ {
				if fromX {
					data[y*cols+x] = float32(x)
				} else {
					data[y*cols+x] = float32(y)
				}
			}
		}
		return data
	}

	var sb strings.Builder
	sb.WriteString(matrixYAML("leftMapX", height, leftW, build(leftW, true)))
	sb.WriteString(matrixYAML("leftMapY", height, leftW, build(leftW, false)))
	sb.WriteString(matrixYAML("rightMapX", height, rightW, build(rightW, true)))
	sb.WriteString(matrixYAML("rightMapY", height, rightW, build(rightW, false)))
	return sb.String()
}

func writeCalibrationFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCalibration(t *testing.T) {
	path := writeCalibrationFile(t, identityCalibrationYAML(4, 2))

	c, err := LoadCalibration(path)
	require.NoError(t, err)

	assert.Equal(t, 2, c.LeftMapX.Rows)
	assert.Equal(t, 2, c.LeftMapX.Cols)
	assert.Equal(t, float32(1), c.LeftMapX.At(0, 1))
	assert.Equal(t, float32(1), c.LeftMapY.At(1, 0))
	assert.True(t, c.FitsFrame(4, 2))
	assert.False(t, c.FitsFrame(8, 2))
	assert.False(t, c.FitsFrame(4, 4))
}

func TestLoadCalibration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "DataLengthMismatch",
			content: matrixYAML("leftMapX", 2, 2, []float32{0, 1, 0}) +
				matrixYAML("leftMapY", 2, 2, []float32{0, 0, 1, 1}) +
				matrixYAML("rightMapX", 2, 2, []float32{0, 1, 0, 1}) +
				matrixYAML("rightMapY", 2, 2, []float32{0, 0, 1, 1}),
		},
		{
			name: "PairShapeMismatch",
			content: matrixYAML("leftMapX", 2, 2, []float32{0, 1, 0, 1}) +
				matrixYAML("leftMapY", 1, 2, []float32{0, 0}) +
				matrixYAML("rightMapX", 2, 2, []float32{0, 1, 0, 1}) +
				matrixYAML("rightMapY", 2, 2, []float32{0, 0, 1, 1}),
		},
		{
			name:    "MalformedYAML",
			content: "leftMapX: [not, a, matrix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCalibrationFile(t, tt.content)
			_, err := LoadCalibration(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadCalibration_MissingFile(t *testing.T) {
	_, err := LoadCalibration(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
