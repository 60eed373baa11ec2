package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zsiec/viewport/internal/devicetime"
)

const (
	refreshInterval = 500 * time.Millisecond
	panelWidth      = 46
)

type tickMsg time.Time

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	c      *collector
	source string
	start  time.Time

	width    int
	quitting bool

	snap   snapshot
	prev   snapshot
	prevAt time.Time

	fps      float64
	byteRate float64
}

func newModel(c *collector, source string) *model {
	now := time.Now()
	return &model{c: c, source: source, start: now, prevAt: now}
}

func (m *model) Init() tea.Cmd {
	return tickEvery(refreshInterval)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		now := time.Time(msg)
		snap := m.c.snapshot()

		if dt := now.Sub(m.prevAt).Seconds(); dt > 0 {
			m.fps = float64(snap.Frames-m.prev.Frames) / dt
			m.byteRate = float64(snap.Bytes-m.prev.Bytes) / dt
		}
		m.prev = snap
		m.prevAt = now
		m.snap = snap

		return m, tickEvery(refreshInterval)
	}

	return m, nil
}

func (m *model) View() string {
	if m.quitting {
		return "Closing stream watch...\n"
	}

	panel := panelStyle
	if m.width > 0 && m.width < panelWidth+2 {
		panel = panel.Width(m.width - 2)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("streamwatch  " + m.source))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(panel.Render(m.streamPanel()))
	b.WriteString("\n")
	b.WriteString(panel.Render(m.integrityPanel()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m *model) statusLine() string {
	switch {
	case m.snap.Err != nil:
		return errorStyle.Render("ERROR ") + m.snap.Err.Error()
	case m.snap.Truncated:
		return warnStyle.Render("ENDED ") + mutedStyle.Render("stream ended mid-frame")
	case m.snap.Done:
		return mutedStyle.Render("ENDED")
	case m.snap.Frames == 0:
		return mutedStyle.Render("WAITING for the first frame")
	default:
		return liveStyle.Render("LIVE")
	}
}

func (m *model) streamPanel() string {
	s := m.snap

	dims := "-"
	if s.Width > 0 {
		dims = fmt.Sprintf("%dx%d", s.Width, s.Height)
	}

	last := devicetime.NoTimestampLabel
	if s.LastTS != 0 {
		last = devicetime.FormatTimestamp(s.LastTS)
	}

	rows := []string{
		row("Frames", valueStyle.Render(fmt.Sprintf("%d", s.Frames))),
		row("Frame rate", valueStyle.Render(fmt.Sprintf("%.1f fps", m.fps))),
		row("Data", valueStyle.Render(humanBytes(s.Bytes))),
		row("Byte rate", valueStyle.Render(humanBytes(uint64(m.byteRate))+"/s")),
		row("Dimensions", valueStyle.Render(dims)),
		row("Last frame", valueStyle.Render(last)),
		row("Watching for", valueStyle.Render(time.Since(m.start).Truncate(time.Second).String())),
	}
	return strings.Join(rows, "\n")
}

func (m *model) integrityPanel() string {
	s := m.snap

	flagged := func(n uint64) string {
		v := fmt.Sprintf("%d", n)
		if n > 0 {
			return warnStyle.Render(v)
		}
		return valueStyle.Render(v)
	}

	rows := []string{
		row("Checksum failures", flagged(s.ChecksumFailures)),
		row("Invalid headers", flagged(s.InvalidHeaders)),
		row("Resyncs", flagged(s.Resyncs)),
		row("Bytes skipped", valueStyle.Render(humanBytes(s.BytesSkipped))),
	}
	return strings.Join(rows, "\n")
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
