package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"minview/internal/catalog"
	"minview/internal/mindtct"
	"minview/internal/modules"
	"minview/internal/session"
)

// QualityStep is how far + and - move the quality threshold
const QualityStep = 0.05

// tab bar + border
const tabBarHeight = 2

// CatalogSaver stores explicit saves. *catalog.Store implements it.
type CatalogSaver interface {
	Save(ctx context.Context, e catalog.Entry) (string, error)
}

// ModelConfig holds the configuration for creating a new TUI model
type ModelConfig struct {
	Session *session.Session
	// NewExtractor builds the detector for one run with the given
	// algorithm. Nil disables extraction.
	NewExtractor func(mindtct.Algorithm) session.Extractor
	// Catalog receives saves made with c. Nil disables them.
	Catalog CatalogSaver
	// ImagePath is recorded with catalog saves
	ImagePath string
	// MinutiaePath pre-fills the open and save prompts
	MinutiaePath string
	// Context bounds background work; over SSH it is the connection's context
	Context context.Context
	// Renderer is the Lip Gloss renderer to use for styling. Over SSH, pass the
	// renderer from wishbubbletea.MakeRenderer so colors work correctly. If nil,
	// the default renderer (local terminal) is used.
	Renderer *lipgloss.Renderer
	// SSHUser is shown in the status bar for SSH sessions
	SSHUser string
}

type promptMode int

const (
	promptNone promptMode = iota
	promptOpen
	promptSave
	promptNote
)

// Model is the root BubbleTea model
type Model struct {
	config   ModelConfig
	session  *session.Session
	renderer *lipgloss.Renderer
	styles   Styles
	keys     KeyMap

	// Sub-models
	tabBar    TabBarModel
	statusBar StatusBarModel
	help      help.Model
	prompt    textinput.Model

	promptMode promptMode

	width      int
	height     int
	canvasCols int
	canvasRows int
	canvasView string

	// generation counts image loads so a stale extraction result can be dropped
	generation int
	extracting bool
	quitting   bool
}

// NewModel creates the root TUI model
func NewModel(config ModelConfig) Model {
	r := config.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	styles := NewStyles(r)

	var labels []string
	for _, mod := range config.Session.Registry().Modules() {
		labels = append(labels, mod.Name())
	}

	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Prompt = ""
	ti.Cursor.Blink = false // Disable blinking for SSH compatibility

	h := help.New()
	h.Styles.ShortKey = styles.Accent
	h.Styles.FullKey = styles.Accent

	m := Model{
		config:    config,
		session:   config.Session,
		renderer:  r,
		styles:    styles,
		keys:      DefaultKeyMap(),
		tabBar:    NewTabBarModel(styles, labels),
		statusBar: NewStatusBarModel(styles),
		help:      h,
		prompt:    ti,
	}
	m.statusBar.SSHUser = config.SSHUser
	m.refresh()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Session returns the session the model edits
func (m Model) Session() *session.Session {
	return m.session
}

// ActiveTab returns the name of the active module tab
func (m Model) ActiveTab() string {
	return m.tabBar.Active()
}

// mindtctModule returns the MINDTCT module if it is registered
func (m *Model) mindtctModule() *modules.Mindtct {
	mod, ok := m.session.Registry().Get(modules.MindtctName)
	if !ok {
		return nil
	}
	mt, _ := mod.(*modules.Mindtct)
	return mt
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if m.promptMode != promptNone {
			cmd = m.handlePromptKey(msg)
		} else {
			cmd = m.handleKeyMsg(msg)
		}
		if m.quitting {
			return m, tea.Quit
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case ExtractDoneMsg:
		m.extracting = false
		m.statusBar.Busy = ""
		switch {
		case msg.Generation != m.generation:
			m.statusBar.SetMessage("discarded detection for a previous image")
		case msg.Err != nil:
			m.statusBar.SetError(msg.Err)
		default:
			m.session.SetMinutiae(msg.Minutiae)
			m.statusBar.SetMessage(fmt.Sprintf("MINDTCT (%s) found %d minutiae", msg.Algorithm, msg.Minutiae.Len()))
		}

	case CatalogSavedMsg:
		if msg.Err != nil {
			m.statusBar.SetError(msg.Err)
		} else {
			m.statusBar.SetMessage("saved to catalog as " + msg.ID)
		}
	}

	m.refresh()
	return m, cmd
}

// handleKeyMsg processes keyboard input outside the prompt
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.session.Cancel()

	case key.Matches(msg, m.keys.NextTab):
		m.session.Cancel()
		m.tabBar.Next()

	case key.Matches(msg, m.keys.PrevTab):
		m.session.Cancel()
		m.tabBar.Prev()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.updateLayout()

	case key.Matches(msg, m.keys.Open):
		return m.openPrompt(promptOpen, m.config.MinutiaePath)

	case key.Matches(msg, m.keys.Save):
		return m.openPrompt(promptSave, m.config.MinutiaePath)

	case key.Matches(msg, m.keys.Catalog):
		if m.config.Catalog == nil {
			m.statusBar.SetError(errors.New("no catalog configured"))
			return nil
		}
		return m.openPrompt(promptNote, "")

	case key.Matches(msg, m.keys.Extract):
		return m.startExtraction()

	case key.Matches(msg, m.keys.QualityUp):
		if mt := m.tabModule(); mt != nil {
			mt.AdjustQuality(QualityStep)
		}

	case key.Matches(msg, m.keys.QualityDn):
		if mt := m.tabModule(); mt != nil {
			mt.AdjustQuality(-QualityStep)
		}

	case key.Matches(msg, m.keys.Algorithm):
		if mt := m.tabModule(); mt != nil {
			mt.ToggleAlgorithm()
		}

	case key.Matches(msg, m.keys.Reset):
		if mt := m.tabModule(); mt != nil {
			mt.Reset()
			m.statusBar.SetMessage("MINDTCT settings reset")
		}
	}
	return nil
}

// tabModule returns the MINDTCT module when its tab is active
func (m *Model) tabModule() *modules.Mindtct {
	if m.tabBar.Active() != modules.MindtctName {
		return nil
	}
	return m.mindtctModule()
}

func (m *Model) openPrompt(mode promptMode, value string) tea.Cmd {
	m.session.Cancel()
	m.promptMode = mode
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.promptMode = promptNone
	m.prompt.Blur()
	m.prompt.Reset()
}

// handlePromptKey feeds keys to the path prompt; enter submits, esc cancels
func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return tea.Quit
	case "esc":
		m.closePrompt()
		return nil
	case "enter":
		value := strings.TrimSpace(m.prompt.Value())
		mode := m.promptMode
		m.closePrompt()
		return m.submitPrompt(mode, value)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) submitPrompt(mode promptMode, value string) tea.Cmd {
	switch mode {
	case promptOpen:
		if value == "" {
			return nil
		}
		if err := m.session.LoadMinutiae(value); err != nil {
			m.statusBar.SetError(err)
			return nil
		}
		m.config.MinutiaePath = value
		m.statusBar.SetMessage(fmt.Sprintf("loaded %d minutiae from %s", m.session.Collection().Len(), value))

	case promptSave:
		if value == "" {
			return nil
		}
		if err := m.session.SaveMinutiae(value); err != nil {
			m.statusBar.SetError(err)
			return nil
		}
		m.config.MinutiaePath = value
		m.statusBar.SetMessage(fmt.Sprintf("saved %d minutiae to %s", m.session.Collection().Len(), value))

	case promptNote:
		return m.saveToCatalog(value)
	}
	return nil
}

// saveToCatalog stores the collection off the UI loop. The entry is built
// here so the command does not touch the session.
func (m *Model) saveToCatalog(note string) tea.Cmd {
	if m.session.Image() == nil {
		m.statusBar.SetError(session.ErrNoImage)
		return nil
	}
	entry := catalog.Entry{
		ImagePath: m.config.ImagePath,
		Dims:      m.session.Dims(),
		Note:      note,
		Source:    m.catalogSource(),
		Minutiae:  m.session.Collection().All(),
	}
	if entry.ImagePath == "" {
		entry.ImagePath = "(unnamed)"
	}
	store, ctx := m.config.Catalog, m.config.Context
	return func() tea.Msg {
		id, err := store.Save(ctx, entry)
		return CatalogSavedMsg{ID: id, Err: err}
	}
}

func (m *Model) catalogSource() catalog.Source {
	switch m.tabBar.Active() {
	case modules.EditorName:
		return catalog.SourceManual
	case modules.MindtctName:
		return catalog.SourceMindtct
	default:
		return catalog.SourceFile
	}
}

// startExtraction runs mindtct as a command so the UI keeps responding.
// The result is applied in Update.
func (m *Model) startExtraction() tea.Cmd {
	if m.tabBar.Active() != modules.MindtctName {
		m.statusBar.SetError(fmt.Errorf("switch to the %s tab to run detection", modules.MindtctName))
		return nil
	}
	if m.config.NewExtractor == nil {
		m.statusBar.SetError(errors.New("minutiae detection is not available"))
		return nil
	}
	if m.extracting {
		return nil
	}
	img := m.session.Image()
	if img == nil {
		m.statusBar.SetError(session.ErrNoImage)
		return nil
	}

	algorithm := mindtct.AlgorithmM1
	if mt := m.mindtctModule(); mt != nil {
		algorithm = mt.Settings().Algorithm
	}
	ex := m.config.NewExtractor(algorithm)
	ctx, gen := m.config.Context, m.generation

	m.extracting = true
	m.statusBar.Busy = "running mindtct..."
	return func() tea.Msg {
		c, err := ex.Extract(ctx, img)
		return ExtractDoneMsg{Generation: gen, Algorithm: algorithm, Minutiae: c, Err: err}
	}
}

// handleMouse forwards pointer events on the canvas to the editor. Only the
// manual labeling tab edits.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.tabBar.Active() != modules.EditorName || m.promptMode != promptNone {
		return
	}
	row := msg.Y - tabBarHeight
	p := CellToPixel(msg.X, row)
	inCanvas := msg.X >= 0 && msg.X < m.canvasCols && row >= 0 && row < m.canvasRows

	switch msg.Action {
	case tea.MouseActionPress:
		if !inCanvas {
			return
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.session.Press(p, msg.Ctrl)
		case tea.MouseButtonRight:
			if del, ok := m.session.SecondaryClick(p); ok {
				m.statusBar.SetMessage(fmt.Sprintf("deleted %s at (%d, %d)", del.Type, del.X, del.Y))
			}
		}

	case tea.MouseActionMotion:
		if msg.Button == tea.MouseButtonLeft {
			m.session.Drag(p)
		}

	case tea.MouseActionRelease:
		if placed, ok := m.session.Release(p); ok {
			m.statusBar.SetMessage(fmt.Sprintf("placed %s at (%d, %d) %.1f°", placed.Type, placed.X, placed.Y, placed.Angle))
		}
	}
}

// LoadImage replaces the session image and drops any running detection
func (m *Model) LoadImage(img image.Image) {
	m.generation++
	m.session.LoadImage(img)
	m.refresh()
}

// updateLayout recalculates sub-model dimensions and the canvas size
func (m *Model) updateLayout() {
	statusBarHeight := 1
	m.tabBar.Width = m.width
	m.statusBar.Width = m.width
	m.help.Width = m.width
	m.prompt.Width = m.width - 20

	bottomHeight := 1
	if m.help.ShowAll {
		bottomHeight = lipgloss.Height(m.help.View(m.keys))
	}

	m.canvasCols = m.width
	m.canvasRows = m.height - tabBarHeight - statusBarHeight - bottomHeight
	if m.canvasRows < 0 {
		m.canvasRows = 0
	}
	m.session.SetCanvas(CanvasSize(m.canvasCols, m.canvasRows))
}

// refresh syncs the status bar with the session and redraws the canvas
func (m *Model) refresh() {
	m.statusBar.ImageSize = m.session.Dims()
	m.statusBar.Count = m.session.Collection().Len()
	m.statusBar.EditorState = m.session.Editor().State()
	m.statusBar.Summary = ""
	if mod, ok := m.session.Registry().Get(m.tabBar.Active()); ok {
		if s, ok := mod.(modules.Summarizer); ok {
			m.statusBar.Summary = s.Summary()
		}
	}
	m.redraw()
}

func (m *Model) redraw() {
	if m.canvasCols <= 0 || m.canvasRows <= 0 {
		m.canvasView = ""
		return
	}
	img, err := m.session.Render()
	if err != nil {
		m.canvasView = m.styles.CanvasEmpty.
			Width(m.canvasCols).
			Height(m.canvasRows).
			Render("no image loaded")
		return
	}
	m.canvasView = RenderHalfBlocks(m.renderer, img, m.canvasCols, m.canvasRows)
}

// View renders the entire TUI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	sections := []string{
		m.tabBar.View(),
		m.styles.Canvas.Render(m.canvasView),
		m.statusBar.View(),
		m.bottomView(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// bottomView is the prompt while one is open, otherwise the key help
func (m Model) bottomView() string {
	if m.promptMode != promptNone {
		label := map[promptMode]string{
			promptOpen: "Open minutiae:",
			promptSave: "Save minutiae as:",
			promptNote: "Catalog note:",
		}[m.promptMode]
		return m.styles.Prompt.Render(m.styles.PromptLabel.Render(label) + " " + m.prompt.View())
	}

	helpView := m.help.View(m.keys)
	if m.help.ShowAll {
		return helpView
	}
	if mod, ok := m.session.Registry().Get(m.tabBar.Active()); ok {
		if h, ok := mod.(interface{ Hint() string }); ok {
			line := m.styles.Muted.Render(h.Hint()) + "  " + helpView
			return m.renderer.NewStyle().MaxWidth(m.width).Render(line)
		}
	}
	return helpView
}
