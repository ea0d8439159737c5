// ABOUTME: Bubbletea model for the transform progress TUI
// ABOUTME: Defines job state and update logic
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Job
	source string
	factor float64
	method string

	// Output format
	sampleRate int
	channels   int
	bitDepth   int

	// Progress
	framesIn    int64
	framesOut   int64
	totalFrames int64
	expected    int64
	started     time.Time

	// Outcome
	done     bool
	path     string
	err      error
	quitting bool

	cancel func()

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case ProgressMsg:
		m.applyProgress(msg)
	case DoneMsg:
		m.done = true
		m.path = msg.Path
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	s := m.renderHeader()
	s += m.renderProgress()
	s += m.renderOutcome()
	s += m.renderHelp()
	return s
}

func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ Cinesnap ───────────────────────────────────────────┐
│ Source: %-44s │
│ Speed:  %-44s │
│ Output: %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(filepath.Base(m.source), 44),
		fmt.Sprintf("%.2fx (%s)", m.factor, m.method),
		fmt.Sprintf("%dHz %s %d-bit WAV", m.sampleRate, channelName(m.channels), m.bitDepth))
}

func (m Model) renderProgress() string {
	percent := m.percent()
	bar := renderBar(percent, 100, 30)

	label := fmt.Sprintf("%3d%%", percent)
	if m.totalFrames == 0 {
		label = " ?? "
	}

	elapsed := time.Duration(0)
	if !m.started.IsZero() {
		elapsed = time.Since(m.started).Truncate(100 * time.Millisecond)
	}

	return fmt.Sprintf("│ [%s] %s%-16s │\n"+
		"│ Frames: %-44s │\n"+
		"│ Elapsed: %-43s │\n",
		bar, label, "",
		m.framesLine(),
		elapsed)
}

func (m Model) renderOutcome() string {
	switch {
	case m.err != nil:
		return fmt.Sprintf("│ Failed: %-44s │\n", truncate(m.err.Error(), 44))
	case m.done:
		return fmt.Sprintf("│ Wrote:  %-44s │\n", truncate(m.path, 44))
	case m.quitting:
		return "│ Cancelling...                                        │\n"
	default:
		return "│                                                      │\n"
	}
}

func (m Model) renderHelp() string {
	return `│ q:Cancel                                             │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.done {
			return m, tea.Quit
		}
		// Keep running until the transformer reports back
		if !m.quitting && m.cancel != nil {
			m.cancel()
		}
		m.quitting = true
	}
	return m, nil
}

func (m *Model) applyProgress(msg ProgressMsg) {
	if m.started.IsZero() {
		m.started = time.Now()
	}
	m.framesIn = msg.FramesIn
	m.framesOut = msg.FramesOut
	if msg.TotalFrames != 0 {
		m.totalFrames = msg.TotalFrames
	}
	if msg.ExpectedFrames != 0 {
		m.expected = msg.ExpectedFrames
	}
}

func (m Model) framesLine() string {
	if m.expected > 0 {
		return fmt.Sprintf("%d in / %d of %d out", m.framesIn, m.framesOut, m.expected)
	}
	return fmt.Sprintf("%d in / %d out", m.framesIn, m.framesOut)
}

func (m Model) percent() int {
	if m.done && m.err == nil {
		return 100
	}
	if m.totalFrames <= 0 {
		return 0
	}
	p := int(m.framesIn * 100 / m.totalFrames)
	if p > 100 {
		p = 100
	}
	return p
}

// ProgressMsg reports pipeline progress
type ProgressMsg struct {
	FramesIn       int64
	FramesOut      int64
	TotalFrames    int64
	ExpectedFrames int64 // predicted output length
}

// DoneMsg reports the end of the job
type DoneMsg struct {
	Path string
	Err  error
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// pad returns the filler width that keeps the frames line inside the box
