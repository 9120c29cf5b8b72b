package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings of the editor
type KeyMap struct {
	Open      key.Binding
	Save      key.Binding
	Catalog   key.Binding
	Extract   key.Binding
	QualityUp key.Binding
	QualityDn key.Binding
	Algorithm key.Binding
	Reset     key.Binding
	Cancel    key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open minutiae"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save minutiae"),
		),
		Catalog: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "save to catalog"),
		),
		Extract: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "run mindtct"),
		),
		QualityUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "raise quality"),
		),
		QualityDn: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "lower quality"),
		),
		Algorithm: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle algorithm"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset settings"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Save, k.Extract, k.NextTab, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Save, k.Catalog},
		{k.Extract, k.QualityUp, k.QualityDn, k.Algorithm, k.Reset},
		{k.Cancel, k.NextTab, k.PrevTab},
		{k.Help, k.Quit},
	}
}
