package processing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Matrix is a dense row-major float32 matrix as stored in calibration
// files.
type Matrix struct {
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	Data []float32 `yaml:"data"`
}

// At returns the element at row y, column x.
func (m *Matrix) At(y, x int) float32 {
	return m.Data[y*m.Cols+x]
}

func (m *Matrix) validate(name string) error {
	if m.Rows <= 0 || m.Cols <= 0 {
		return fmt.Errorf("%s: invalid dimensions %dx%d", name, m.Cols, m.Rows)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%s: %d values for %dx%d matrix", name, len(m.Data), m.Cols, m.Rows)
	}
	return nil
}

// Calibration holds the four undistortion maps: per output pixel of each
// half-image, the source coordinate to sample. The map dimensions define
// the half-image they apply to.
type Calibration struct {
	LeftMapX  Matrix `yaml:"leftMapX"`
	LeftMapY  Matrix `yaml:"leftMapY"`
	RightMapX Matrix `yaml:"rightMapX"`
	RightMapY Matrix `yaml:"rightMapY"`
}

// LoadCalibration reads and validates a calibration file.
func LoadCalibration(path string) (*Calibration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var cal Calibration
	if err := yaml.Unmarshal(raw, &cal); err != nil {
		return nil, fmt.Errorf("parse calibration file %s: %w", path, err)
	}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return &cal, nil
}

// Validate checks matrix shapes and that each X/Y map pair agrees.
func (c *Calibration) Validate() error {
	for _, m := range []struct {
		name string
		mat  *Matrix
	}{
		{"leftMapX", &c.LeftMapX},
		{"leftMapY", &c.LeftMapY},
		{"rightMapX", &c.RightMapX},
		{"rightMapY", &c.RightMapY},
	} {
		if err := m.mat.validate(m.name); err != nil {
			return err
		}
	}

	if c.LeftMapX.Rows != c.LeftMapY.Rows || c.LeftMapX.Cols != c.LeftMapY.Cols {
		return fmt.Errorf("left map pair disagrees: %dx%d vs %dx%d",
			c.LeftMapX.Cols, c.LeftMapX.Rows, c.LeftMapY.Cols, c.LeftMapY.Rows)
	}
	if c.RightMapX.Rows != c.RightMapY.Rows || c.RightMapX.Cols != c.RightMapY.Cols {
		return fmt.Errorf("right map pair disagrees: %dx%d vs %dx%d",
			c.RightMapX.Cols, c.RightMapX.Rows, c.RightMapY.Cols, c.RightMapY.Rows)
	}
	return nil
}

// FitsFrame reports whether the maps cover a frame of the given
// dimensions split into left and right halves.
func (c *Calibration) FitsFrame(width, height int) bool {
	leftWidth := width / 2
	rightWidth := width - leftWidth
	return c.LeftMapX.Cols == leftWidth && c.LeftMapX.Rows == height &&
		c.RightMapX.Cols == rightWidth && c.RightMapX.Rows == height
}
