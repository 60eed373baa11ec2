package devicetime

import (
	"time"

	"github.com/zsiec/viewport/internal/media"
)

// NoTimestampLabel is returned for frames whose presentation timestamp
// is unknown.
const NoTimestampLabel = "No timestamps"

// labelFormat renders local time with millisecond precision.
const labelFormat = "2006-01-02 15:04:05.000"

// Correlator converts stream-relative presentation timestamps into
// wall-clock values using the device boot time captured at session start.
type Correlator struct {
	bootTimeMS int64
}

// NewCorrelator creates a Correlator for the given boot time.
func NewCorrelator(bootTimeMS int64) *Correlator {
	return &Correlator{bootTimeMS: bootTimeMS}
}

// BootTimeMS returns the boot time the correlator was built with.
func (c *Correlator) BootTimeMS() int64 {
	return c.bootTimeMS
}

// TimestampMS converts a PTS in microseconds to epoch milliseconds. The
// second return is false when the PTS is unknown.
func (c *Correlator) TimestampMS(pts int64) (int64, bool) {
	if pts == media.NoPTS {
		return 0, false
	}
	return c.bootTimeMS + pts/1000, true
}

// Label formats the wall-clock time for a PTS, or the sentinel label when
// the PTS is unknown. A fresh string is returned on every call.
func (c *Correlator) Label(pts int64) string {
	ms, ok := c.TimestampMS(pts)
	if !ok {
		return NoTimestampLabel
	}
	return FormatTimestamp(ms)
}

// FormatTimestamp renders epoch milliseconds as local time with
// millisecond precision.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format(labelFormat)
}
