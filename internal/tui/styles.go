package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the TUI styling definitions
type Styles struct {
	// Tab bar
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabBar      lipgloss.Style

	// Canvas
	Canvas      lipgloss.Style
	CanvasEmpty lipgloss.Style

	// Status bar
	StatusBar     lipgloss.Style
	StatusPlacing lipgloss.Style
	StatusError   lipgloss.Style
	StatusOK      lipgloss.Style

	// Prompt line
	Prompt      lipgloss.Style
	PromptLabel lipgloss.Style

	// General
	Muted  lipgloss.Style
	Bold   lipgloss.Style
	Accent lipgloss.Style
}

// DefaultStyles creates the default style set using the default renderer.
func DefaultStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// NewStyles creates the style set using the given renderer.
// Over SSH, pass the renderer from wishbubbletea.MakeRenderer(sess)
// so that styles emit ANSI colors appropriate for the SSH client's terminal.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		// Tab bar
		TabActive: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2),
		TabInactive: r.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 2),
		TabBar: r.NewStyle().
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")),

		// Canvas
		Canvas: r.NewStyle(),
		CanvasEmpty: r.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),

		// Status bar
		StatusBar: r.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		StatusPlacing: r.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		StatusError: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		StatusOK: r.NewStyle().
			Foreground(lipgloss.Color("76")),

		// Prompt line
		Prompt: r.NewStyle().
			Padding(0, 1),
		PromptLabel: r.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true),

		// General
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("245")),
		Bold: r.NewStyle().
			Bold(true),
		Accent: r.NewStyle().
			Foreground(lipgloss.Color("213")),
	}
}
