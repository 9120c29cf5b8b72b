package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TabBarModel manages the module tab bar. There is one tab per registered
// module, in registration order.
type TabBarModel struct {
	Tabs      []string
	ActiveIdx int
	Width     int
	Styles    Styles
}

// NewTabBarModel creates a tab bar with the given labels
func NewTabBarModel(styles Styles, labels []string) TabBarModel {
	return TabBarModel{
		Tabs:   labels,
		Styles: styles,
	}
}

// Active returns the label of the active tab
func (t TabBarModel) Active() string {
	if t.ActiveIdx >= 0 && t.ActiveIdx < len(t.Tabs) {
		return t.Tabs[t.ActiveIdx]
	}
	return ""
}

// Next activates the following tab, wrapping around
func (t *TabBarModel) Next() {
	if len(t.Tabs) == 0 {
		return
	}
	t.ActiveIdx = (t.ActiveIdx + 1) % len(t.Tabs)
}

// Prev activates the preceding tab, wrapping around
func (t *TabBarModel) Prev() {
	if len(t.Tabs) == 0 {
		return
	}
	t.ActiveIdx = (t.ActiveIdx - 1 + len(t.Tabs)) % len(t.Tabs)
}

// View renders the tab bar
func (t TabBarModel) View() string {
	if len(t.Tabs) == 0 {
		return ""
	}

	var tabs []string
	for i, label := range t.Tabs {
		var style lipgloss.Style
		if i == t.ActiveIdx {
			style = t.Styles.TabActive
		} else {
			style = t.Styles.TabInactive
		}
		tabs = append(tabs, style.Render(label))
	}

	bar := strings.Join(tabs, " ")
	return t.Styles.TabBar.Width(t.Width).Render(bar)
}
