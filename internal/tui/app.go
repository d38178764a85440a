package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/bulk"
	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/db"
	"github.com/pdxmph/people-tui/internal/filter"
	"github.com/pdxmph/people-tui/internal/people"
)

// chipFields are the fields the chip row can filter on.
var chipFields = []filter.Field{
	filter.Title, filter.Company, filter.City, filter.State, filter.Employees,
	filter.Industry, filter.Seniority, filter.Department,
}

// Prompt kinds
const (
	promptNone = iota
	promptList
	promptSequence
	promptSelectN
	promptExport
	promptConfirmDelete
)

// Styles
var (
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	checkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	chipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// Options configures the People view.
type Options struct {
	// ExportDir is where exports of the selection are written.
	ExportDir string
	Logger    *zap.Logger
}

// Model is the People view
type Model struct {
	store   *people.Store
	actions *bulk.Service
	opts    Options
	logger  *zap.Logger

	events <-chan people.Event
	unsub  func()

	cursor int // row on the current page
	width  int
	height int
	busy   bool
	notice string

	// Quick search
	searchMode bool
	search     textinput.Model

	// Chip filters
	chipMode   bool
	chipField  int // index into chipFields
	chipInput  textinput.Model
	suggestion int

	// Inline edit
	editMode  bool
	editField int // index into bulk.EditableFields
	editInput textinput.Model

	// Prompts for bulk actions
	prompt      int
	promptInput textinput.Model
}

func newInput(placeholder string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Width = width
	ti.CharLimit = 100
	ti.Prompt = "> "
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	return ti
}

// New creates the People view over a loaded store.
func New(store *people.Store, actions *bulk.Service, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	events, unsub := store.Subscribe()
	return &Model{
		store:       store,
		actions:     actions,
		opts:        opts,
		logger:      opts.Logger.Named("tui"),
		events:      events,
		unsub:       unsub,
		search:      newInput("Search people...", 30),
		chipInput:   newInput("Add filter...", 30),
		editInput:   newInput("", 40),
		promptInput: newInput("", 30),
	}
}

// Close stops listening to the store.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// Init starts listening for store events
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 0 {
			m.search.Width = m.width/2 - 6
			m.chipInput.Width = m.width/2 - 6
		}
		return m, nil

	case storeEventMsg:
		if msg.Kind == people.EventNotice && msg.Err != nil {
			m.notice = msg.Err.Error()
		}
		m.cursor = m.clampCursor()
		return m, waitForEvent(m.events)

	case pageLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		m.cursor = m.clampCursor()
		return m, nil

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = msg.notice
		}
		m.cursor = m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.prompt != promptNone:
			return m.updatePrompt(msg)
		case m.editMode:
			return m.updateEdit(msg)
		case m.chipMode:
			return m.updateChips(msg)
		case m.searchMode:
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	items := m.store.PageItems()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(items)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "l", "right", "pgdown":
		return m.gotoPage(m.store.Page() + 1)

	case "h", "left", "pgup":
		return m.gotoPage(m.store.Page() - 1)

	case "g", "home":
		return m.gotoPage(1)

	case "G", "end":
		return m.gotoPage(m.store.PageCount())

	case " ", "x":
		if len(items) > 0 {
			m.store.Toggle(items[m.cursor].ID)
		}

	case "a":
		m.store.SelectPage()

	case "u":
		m.store.ClearSelection()

	case "N":
		return m.openPrompt(promptSelectN, "How many?", "")

	case "/":
		m.searchMode = true
		m.search.SetValue(m.store.Criteria().Query)
		m.search.CursorEnd()
		m.search.Focus()
		return m, textinput.Blink

	case "f":
		m.chipMode = true
		m.chipInput.Reset()
		m.chipInput.Focus()
		m.suggestion = 0
		return m, textinput.Blink

	case "E":
		m.store.UpdateCriteria(func(cr *filter.Criteria) { cr.RequireEmail = !cr.RequireEmail })
		m.cursor = 0

	case "P":
		m.store.UpdateCriteria(func(cr *filter.Criteria) { cr.RequirePhone = !cr.RequirePhone })
		m.cursor = 0

	case "C":
		m.store.UpdateCriteria(func(cr *filter.Criteria) {
			cr.Tokens.ClearAll()
			cr.Query = ""
			cr.RequireEmail = false
			cr.RequirePhone = false
		})
		m.cursor = 0

	case "e":
		if len(items) == 0 {
			return m, nil
		}
		m.editMode = true
		m.editField = 0
		m.loadEditValue(items[m.cursor])
		return m, textinput.Blink

	case "d":
		if len(m.store.Selection()) == 0 {
			m.notice = bulk.ErrNothingSelected.Error()
			return m, nil
		}
		return m.openPrompt(promptConfirmDelete, "", "")

	case "L":
		return m.openPrompt(promptList, "List name", "")

	case "s":
		return m.openPrompt(promptSequence, "Sequence name", "")

	case "X":
		return m.openPrompt(promptExport, "Format ("+strings.Join(bulk.ListFormats(), "/")+")", "csv")

	case "r":
		m.busy = true
		return m, reload(m.store)
	}

	return m, nil
}

func (m Model) gotoPage(n int) (tea.Model, tea.Cmd) {
	if n < 1 || n > m.store.PageCount() || n == m.store.Page() {
		return m, nil
	}
	m.busy = true
	m.cursor = 0
	return m, goToPage(m.store, n)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.search.Blur()
		m.store.UpdateCriteria(func(cr *filter.Criteria) { cr.Query = "" })
		m.cursor = 0
		return m, nil
	case "enter":
		m.searchMode = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	q := m.search.Value()
	if q != m.store.Criteria().Query {
		m.store.UpdateCriteria(func(cr *filter.Criteria) { cr.Query = q })
		m.cursor = m.clampCursor()
	}
	return m, cmd
}

// suggestions returns the pool values for the active chip field that match
// the chip input.
func (m Model) suggestions() []string {
	field := chipFields[m.chipField]
	cr := m.store.Criteria()
	return cr.Tokens.List(field).Suggestions(m.chipInput.Value(), m.store.Pools()[field], filter.DefaultSuggestionLimit)
}

func (m Model) updateChips(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := chipFields[m.chipField]

	switch msg.String() {
	case "esc":
		m.chipMode = false
		m.chipInput.Blur()
		return m, nil

	case "tab":
		m.chipField = (m.chipField + 1) % len(chipFields)
		m.suggestion = 0
		return m, nil

	case "shift+tab":
		m.chipField = (m.chipField + len(chipFields) - 1) % len(chipFields)
		m.suggestion = 0
		return m, nil

	case "down", "ctrl+n":
		if m.suggestion < len(m.suggestions())-1 {
			m.suggestion++
		}
		return m, nil

	case "up", "ctrl+p":
		if m.suggestion > 0 {
			m.suggestion--
		}
		return m, nil

	case "enter":
		label := strings.TrimSpace(m.chipInput.Value())
		if sugg := m.suggestions(); len(sugg) > 0 {
			label = sugg[min(m.suggestion, len(sugg)-1)]
		}
		if label == "" {
			return m, nil
		}
		m.store.UpdateCriteria(func(cr *filter.Criteria) { cr.Tokens.List(field).Add(label) })
		m.chipInput.Reset()
		m.suggestion = 0
		m.cursor = 0
		return m, nil

	case "backspace":
		if m.chipInput.Value() == "" {
			m.store.UpdateCriteria(func(cr *filter.Criteria) { cr.Tokens.List(field).RemoveLast() })
			m.cursor = m.clampCursor()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.chipInput, cmd = m.chipInput.Update(msg)
	m.suggestion = 0
	return m, cmd
}

func (m *Model) loadEditValue(c contact.Contact) {
	m.editInput.Reset()
	m.editInput.Placeholder = bulk.EditableFields[m.editField]
	m.editInput.SetValue(editValue(c, bulk.EditableFields[m.editField]))
	m.editInput.CursorEnd()
	m.editInput.Focus()
}

func editValue(c contact.Contact, field string) string {
	switch field {
	case "title":
		return c.Title
	case "email":
		return c.Email
	case "mobile":
		return c.Mobile
	case "workDirectPhone":
		return c.WorkDirectPhone
	case "otherPhone":
		return c.OtherPhone
	case "city":
		return c.City
	case "state":
		return c.State
	}
	return ""
}

func (m Model) current() (contact.Contact, bool) {
	items := m.store.PageItems()
	if len(items) == 0 || m.cursor >= len(items) {
		return contact.Contact{}, false
	}
	return items[m.cursor], true
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c, ok := m.current()
	if !ok {
		m.editMode = false
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.editMode = false
		m.editInput.Blur()
		return m, nil

	case "tab", "down":
		m.editField = (m.editField + 1) % len(bulk.EditableFields)
		m.loadEditValue(c)
		return m, nil

	case "shift+tab", "up":
		m.editField = (m.editField + len(bulk.EditableFields) - 1) % len(bulk.EditableFields)
		m.loadEditValue(c)
		return m, nil

	case "enter":
		field := bulk.EditableFields[m.editField]
		value := strings.TrimSpace(m.editInput.Value())
		m.editMode = false
		m.editInput.Blur()
		if value == editValue(c, field) {
			return m, nil
		}
		m.busy = true
		return m, editField(m.actions, c.ID, field, value)
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m Model) openPrompt(kind int, placeholder, value string) (tea.Model, tea.Cmd) {
	m.prompt = kind
	m.promptInput.Reset()
	m.promptInput.Placeholder = placeholder
	m.promptInput.SetValue(value)
	m.promptInput.CursorEnd()
	m.promptInput.Focus()
	return m, textinput.Blink
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt == promptConfirmDelete {
		m.prompt = promptNone
		if msg.String() != "y" && msg.String() != "Y" {
			return m, nil
		}
		m.busy = true
		return m, deleteSelected(m.actions)
	}

	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		m.promptInput.Blur()
		return m, nil

	case "enter":
		kind := m.prompt
		value := strings.TrimSpace(m.promptInput.Value())
		m.prompt = promptNone
		m.promptInput.Blur()
		if value == "" {
			return m, nil
		}
		switch kind {
		case promptList:
			m.busy = true
			return m, addSelectedTo(m.actions, db.KindList, value)
		case promptSequence:
			m.busy = true
			return m, addSelectedTo(m.actions, db.KindSequence, value)
		case promptExport:
			m.busy = true
			return m, exportSelected(m.actions, m.opts.ExportDir, value)
		case promptSelectN:
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				m.notice = fmt.Sprintf("not a count: %q", value)
				return m, nil
			}
			added := m.store.SelectFirstN(n)
			m.notice = fmt.Sprintf("Selected %d more", added)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}

// clampCursor keeps the cursor on the current page
func (m Model) clampCursor() int {
	n := len(m.store.PageItems())
	if n == 0 || m.cursor < 0 {
		return 0
	}
	if m.cursor >= n {
		return n - 1
	}
	return m.cursor
}
