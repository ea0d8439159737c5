// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program that follows a transform
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Job describes the transform being displayed
type Job struct {
	Source     string
	Factor     float64
	Method     string
	SampleRate int
	Channels   int
	BitDepth   int

	// Cancel is invoked when the user asks to stop
	Cancel func()
}

// NewModel creates a new TUI model
func NewModel(job Job) Model {
	return Model{
		source:     job.Source,
		factor:     job.Factor,
		method:     job.Method,
		sampleRate: job.SampleRate,
		channels:   job.Channels,
		bitDepth:   job.BitDepth,
		cancel:     job.Cancel,
	}
}

// Run creates the TUI program. The caller starts it with Run and feeds it
// ProgressMsg and DoneMsg through Send.
func Run(job Job) *tea.Program {
	return tea.NewProgram(NewModel(job))
}
