package devicetime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/viewport/internal/logger"
	"github.com/zsiec/viewport/internal/media"
)

func TestCorrelator_TimestampMS(t *testing.T) {
	c := NewCorrelator(5000)

	ms, ok := c.TimestampMS(2500000)
	require.True(t, ok)
	assert.Equal(t, int64(7500), ms)

	_, ok = c.TimestampMS(media.NoPTS)
	assert.False(t, ok)
}

func TestCorrelator_Label(t *testing.T) {
	c := NewCorrelator(5000)

	// PTS in microseconds: 2.5s after boot at epoch 5s.
	label := c.Label(2500000)
	assert.Equal(t, time.UnixMilli(7500).Format("2006-01-02 15:04:05.000"), label)

	assert.Equal(t, "No timestamps", c.Label(media.NoPTS))
}

func TestCorrelator_LabelTruncatesMicroseconds(t *testing.T) {
	c := NewCorrelator(0)

	// 1999µs truncates to 1ms.
	label := c.Label(1999)
	assert.Equal(t, time.UnixMilli(1).Format("2006-01-02 15:04:05.000"), label)
}

func TestFormatTimestamp(t *testing.T) {
	label := FormatTimestamp(7)
	assert.True(t, len(label) == len("2006-01-02 15:04:05.000"))
	assert.Equal(t, ".007", label[len(label)-4:], "milliseconds are zero padded")
}

func TestADBClock_BootTime(t *testing.T) {
	clock := NewADBClock("adb", "192.168.1.20:5555", time.Second, logger.NewNullLogger())

	var commands [][]string
	clock.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		commands = append(commands, append([]string{name}, args...))
		switch args[len(args)-1] {
		case "+%s%3N":
			return []byte("1700000000123\n"), nil
		case "/proc/uptime":
			return []byte("12345.67 45678.90\n"), nil
		}
		return nil, fmt.Errorf("unexpected command")
	}

	bootTime, err := clock.BootTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123-12345670), bootTime)

	require.Len(t, commands, 2)
	assert.Equal(t, []string{"adb", "-s", "192.168.1.20:5555", "shell", "date", "+%s%3N"}, commands[0])
	assert.Equal(t, []string{"adb", "-s", "192.168.1.20:5555", "shell", "cat", "/proc/uptime"}, commands[1])
}

func TestADBClock_BootTimeNoSerial(t *testing.T) {
	clock := NewADBClock("adb", "", time.Second, logger.NewNullLogger())
	clock.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		assert.NotContains(t, args, "-s")
		switch args[len(args)-1] {
		case "+%s%3N":
			return []byte("1000\n"), nil
		default:
			return []byte("0.5 0.9\n"), nil
		}
	}

	bootTime, err := clock.BootTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(500), bootTime)
}

func TestADBClock_BootTimeErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context, name string, args ...string) ([]byte, error)
	}{
		{
			name: "Device time query fails",
			run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return nil, fmt.Errorf("device offline")
			},
		},
		{
			name: "Garbage device time",
			run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte("not-a-number\n"), nil
			},
		},
		{
			name: "Garbage uptime",
			run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				if args[len(args)-1] == "+%s%3N" {
					return []byte("1700000000123\n"), nil
				}
				return []byte("bogus\n"), nil
			},
		},
		{
			name: "Empty uptime",
			run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				if args[len(args)-1] == "+%s%3N" {
					return []byte("1700000000123\n"), nil
				}
				return []byte("\n"), nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewADBClock("adb", "serial", time.Second, logger.NewNullLogger())
			clock.run = tt.run
			_, err := clock.BootTime(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFixedClock(t *testing.T) {
	bootTime, err := FixedClock(1234567890).BootTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890), bootTime)
}
