package tui

import (
	"fmt"
	"image"
	"strings"

	"minview/internal/editor"
)

// StatusBarModel manages the bottom status bar
type StatusBarModel struct {
	ImageSize   image.Point
	Count       int
	EditorState editor.State
	Summary     string // one-line status of the active module
	Message     string
	Err         error
	Busy        string // set while a background job runs
	SSHUser     string // set for SSH sessions
	Width       int
	Styles      Styles
}

// NewStatusBarModel creates a new status bar
func NewStatusBarModel(styles Styles) StatusBarModel {
	return StatusBarModel{
		Styles:      styles,
		EditorState: editor.StateIdle,
	}
}

// SetError shows err until the next message
func (s *StatusBarModel) SetError(err error) {
	s.Err = err
	s.Message = ""
}

// SetMessage shows msg and clears any error
func (s *StatusBarModel) SetMessage(msg string) {
	s.Message = msg
	s.Err = nil
}

// View renders the status bar
func (s StatusBarModel) View() string {
	var parts []string

	if s.ImageSize.X > 0 && s.ImageSize.Y > 0 {
		parts = append(parts, s.Styles.Muted.Render(fmt.Sprintf("%dx%d", s.ImageSize.X, s.ImageSize.Y)))
	} else {
		parts = append(parts, s.Styles.Muted.Render("no image"))
	}

	parts = append(parts, fmt.Sprintf("%d minutiae", s.Count))

	if s.EditorState == editor.StatePlacing {
		parts = append(parts, s.Styles.StatusPlacing.Render("placing"))
	}

	if s.Summary != "" {
		parts = append(parts, s.Styles.Accent.Render(s.Summary))
	}

	if s.Busy != "" {
		parts = append(parts, s.Styles.StatusPlacing.Render(s.Busy))
	}

	if s.Err != nil {
		parts = append(parts, s.Styles.StatusError.Render("error: "+s.Err.Error()))
	} else if s.Message != "" {
		parts = append(parts, s.Styles.StatusOK.Render(s.Message))
	}

	// SSH indicator
	if s.SSHUser != "" {
		parts = append(parts, s.Styles.Accent.Render(fmt.Sprintf("SSH: %s", s.SSHUser)))
	}

	content := strings.Join(parts, "  |  ")
	return s.Styles.StatusBar.Width(s.Width).MaxHeight(1).Render(content)
}
