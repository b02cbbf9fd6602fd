// Package tui is the interactive pairwise chooser: two task panes side
// by side, one keypress per decision, until the ranking engine reports
// it is done.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stackrank/internal/model"
	"stackrank/internal/rank"
)

type keyMap struct {
	PickLeft  key.Binding
	PickRight key.Binding
	Focus     key.Binding
	Edit      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PickLeft, k.PickRight, k.Focus, k.Edit, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		PickLeft:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pick left")),
		PickRight: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pick right")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus other pane")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit focused task")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save and quit")),
	}
}

const (
	paneCandidate = iota
	paneProbe
)

// Field order in edit mode.
const (
	editCategory = iota
	editEffort
	editJoy
	editLink
	editFieldCount
)

type Model struct {
	orch       *rank.Orchestrator
	listTitle  string
	categories []string

	pair    *rank.Pair
	focus   int
	warning string
	done    bool

	editing bool
	editIdx int
	inputs  []textinput.Model

	width  int
	height int
	keys   keyMap
	help   help.Model
}

func New(orch *rank.Orchestrator, listTitle string, categories []string) Model {
	m := Model{
		orch:       orch,
		listTitle:  listTitle,
		categories: categories,
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
	m.advance()
	return m
}

// Done reports whether the session finished before the program even
// started (everything trivial or already ranked).
func (m Model) Done() bool { return m.done }

func (m Model) Init() tea.Cmd {
	if m.done {
		return tea.Quit
	}
	return nil
}

func (m *Model) advance() {
	m.pair = m.orch.NextPair()
	if w := m.orch.LastWarning(); w != "" {
		m.warning = w
	}
	m.focus = paneCandidate
	if m.pair == nil {
		m.orch.Flush()
		if w := m.orch.LastWarning(); w != "" {
			m.warning = w
		}
		m.done = true
	}
}

func (m *Model) decide(candidateWins bool) {
	m.warning = ""
	m.orch.Decide(candidateWins)
	m.advance()
}

func (m Model) focusedItem() *model.Item {
	if m.pair == nil {
		return nil
	}
	if m.focus == paneProbe {
		return m.pair.Probe
	}
	return m.pair.Candidate
}

func (m *Model) beginEdit() {
	it := m.focusedItem()
	if it == nil {
		return
	}
	m.inputs = make([]textinput.Model, editFieldCount)
	seed := []string{it.Category, it.Effort, it.Joy, it.Link}
	prompts := []string{"category: ", "effort: ", "joy: ", "link: "}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = prompts[i]
		ti.SetValue(seed[i])
		if i == editCategory && len(m.categories) > 0 {
			ti.ShowSuggestions = true
			ti.SetSuggestions(m.categories)
		}
		m.inputs[i] = ti
	}
	m.editIdx = editCategory
	m.inputs[m.editIdx].Focus()
	m.editing = true
}

func (m *Model) applyEdit() {
	it := m.focusedItem()
	if it == nil {
		m.editing = false
		return
	}
	it.Category = m.inputs[editCategory].Value()
	it.Effort = m.inputs[editEffort].Value()
	it.Joy = m.inputs[editJoy].Value()
	it.Link = m.inputs[editLink].Value()
	m.editing = false
}

func (m *Model) cycleEditFocus(delta int) {
	m.inputs[m.editIdx].Blur()
	m.editIdx = (m.editIdx + delta + editFieldCount) % editFieldCount
	m.inputs[m.editIdx].Focus()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.orch.Flush()
			return m, tea.Quit
		case key.Matches(msg, m.keys.PickLeft):
			m.decide(true)
		case key.Matches(msg, m.keys.PickRight):
			m.decide(false)
		case key.Matches(msg, m.keys.Focus):
			if m.focus == paneCandidate {
				m.focus = paneProbe
			} else {
				m.focus = paneCandidate
			}
		case key.Matches(msg, m.keys.Edit):
			m.beginEdit()
		}
		if m.done {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		m.applyEdit()
		return m, nil
	case "tab", "down":
		m.cycleEditFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.cycleEditFocus(-1)
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.editIdx], cmd = m.inputs[m.editIdx].Update(msg)
	return m, cmd
}

// Run drives one full ranking session and returns when the engine is
// done or the user quits. Decisions and edits mutate the engine's items
// directly, so everything placed so far is persisted either way.
func Run(orch *rank.Orchestrator, listTitle string, categories []string) error {
	applyColorProfilePreference()
	m := New(orch, listTitle, categories)
	if m.Done() {
		return nil
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
