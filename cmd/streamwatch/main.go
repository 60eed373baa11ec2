// streamwatch tails a framed export stream and shows what is flowing:
// frame and byte rates, dimensions, timestamps, and the integrity
// counters of the reader (checksum failures, resynchronizations).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zsiec/viewport/internal/export"
	"github.com/zsiec/viewport/pkg/version"
)

func main() {
	var (
		inputPath   string
		showVersion bool
	)

	flag.StringVar(&inputPath, "input", "-", "Stream file or pipe to watch, - for stdin")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	in, name, err := openInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open input: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	c := &collector{}
	go c.run(in)

	p := tea.NewProgram(newModel(c, name), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Dashboard failed: %v\n", err)
		os.Exit(1)
	}
}

func openInput(path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return os.Stdin, "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

// collector drains the stream on its own goroutine and accumulates the
// counters the dashboard samples on every tick.
type collector struct {
	mu sync.Mutex

	bytes     uint64
	width     int
	height    int
	lastTS    int64 // epoch ms of the newest frame, 0 when the stream has none
	reader    export.ReaderStats
	done      bool
	truncated bool
	err       error
}

// snapshot is one point-in-time copy of the collector state.
type snapshot struct {
	Frames           uint64
	Bytes            uint64
	Width            int
	Height           int
	LastTS           int64
	ChecksumFailures uint64
	InvalidHeaders   uint64
	Resyncs          uint64
	BytesSkipped     uint64
	Done             bool
	Truncated        bool
	Err              error
}

func (c *collector) run(r io.Reader) {
	reader := export.NewReader(r)
	for {
		sf, err := reader.Next()

		c.mu.Lock()
		c.reader = reader.Stats()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
			case errors.Is(err, io.ErrUnexpectedEOF):
				c.truncated = true
			default:
				c.err = err
			}
			c.done = true
			c.mu.Unlock()
			return
		}
		c.bytes += export.HeaderSize + uint64(sf.Frame.PayloadSize())
		c.width = sf.Frame.Width
		c.height = sf.Frame.Height
		c.lastTS = sf.Header.TimestampMS
		c.mu.Unlock()
	}
}

func (c *collector) snapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot{
		Frames:           c.reader.Frames,
		Bytes:            c.bytes,
		Width:            c.width,
		Height:           c.height,
		LastTS:           c.lastTS,
		ChecksumFailures: c.reader.ChecksumFailures,
		InvalidHeaders:   c.reader.InvalidHeaders,
		Resyncs:          c.reader.Resyncs,
		BytesSkipped:     c.reader.BytesSkipped,
		Done:             c.done,
		Truncated:        c.truncated,
		Err:              c.err,
	}
}
