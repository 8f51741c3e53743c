// Package tui is the interactive history browser behind 'haste browse'.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yiblet/haste/internal/clipboard"
	"github.com/yiblet/haste/internal/preview"
	"github.com/yiblet/haste/internal/store"
)

// History is the part of the store the browser drives.
type History interface {
	Search(query string, limit int) ([]*store.Item, error)
	List(limit int) ([]*store.Item, error)
	Pin(id int64, pinned bool) error
	Delete(id int64) error
}

// UIMode represents the current modal state of the browser
type UIMode int

const (
	NormalMode UIMode = iota
	FilterMode
	DeleteMode
)

const flashDuration = 2 * time.Second

type flashExpiredMsg struct{}

// Model is the bubbletea model for the browser.
type Model struct {
	Width       int
	Height      int
	CurrentMode UIMode

	Query    string
	Input    textinput.Model
	Items    []*store.Item
	Selected int
	Offset   int // first visible row
	Limit    int // max items fetched per refresh

	// Chosen is the item the user picked with enter, if any.
	Chosen *store.Item

	FlashMessage string
	FlashExpiry  time.Time
	Err          error

	history   History
	clipboard clipboard.Clipboard
	now       func() time.Time
}

// NewModel creates a browser over history. clip may be nil, in which case
// enter only records the chosen item.
func NewModel(history History, clip clipboard.Clipboard, limit int) *Model {
	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "search"
	input.CharLimit = 256

	m := &Model{
		Width:     100,
		Height:    20,
		Input:     input,
		Limit:     limit,
		history:   history,
		clipboard: clip,
		now:       time.Now,
	}
	m.refresh()
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.clampScroll()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case flashExpiredMsg:
		if !m.now().Before(m.FlashExpiry) {
			m.FlashMessage = ""
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.CurrentMode {
	case FilterMode:
		return m.handleFilterModeKeys(msg)
	case DeleteMode:
		return m.handleDeleteModeKeys(msg.String())
	default:
		return m.handleNormalModeKeys(msg.String())
	}
}

func (m *Model) handleNormalModeKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "j", "down":
		m.move(1)
	case "k", "up":
		m.move(-1)
	case "g", "home":
		m.move(-len(m.Items))
	case "G", "end":
		m.move(len(m.Items))
	case "/":
		m.CurrentMode = FilterMode
		return m, m.Input.Focus()
	case "p":
		return m, m.togglePin()
	case "d":
		if m.selected() != nil {
			m.CurrentMode = DeleteMode
		}
	case "enter", "c":
		return m.choose()
	}
	return m, nil
}

func (m *Model) handleFilterModeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.CurrentMode = NormalMode
		m.Input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.CurrentMode = NormalMode
		m.Input.Blur()
		m.Input.Reset()
		m.setQuery("")
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	m.setQuery(m.Input.Value())
	return m, cmd
}

// setQuery refreshes the results when the query changed.
func (m *Model) setQuery(query string) {
	if query == m.Query {
		return
	}
	m.Query = query
	m.Selected = 0
	m.refresh()
}

func (m *Model) handleDeleteModeKeys(key string) (tea.Model, tea.Cmd) {
	m.CurrentMode = NormalMode
	if key != "y" {
		return m, m.flash("Delete cancelled")
	}

	item := m.selected()
	if item == nil {
		return m, nil
	}
	if err := m.history.Delete(item.ID); err != nil {
		m.Err = err
		return m, nil
	}
	m.refresh()
	return m, m.flash(fmt.Sprintf("Deleted #%d", item.ID))
}

func (m *Model) togglePin() tea.Cmd {
	item := m.selected()
	if item == nil {
		return nil
	}
	id, pinned := item.ID, !item.Pinned
	if err := m.history.Pin(id, pinned); err != nil {
		m.Err = err
		return nil
	}

	verb := "Pinned"
	if !pinned {
		verb = "Unpinned"
	}
	m.refresh()
	m.selectID(id)
	return m.flash(fmt.Sprintf("%s #%d", verb, id))
}

func (m *Model) choose() (tea.Model, tea.Cmd) {
	item := m.selected()
	if item == nil {
		return m, nil
	}
	m.Chosen = item

	if m.clipboard == nil || !m.clipboard.IsSupported() {
		return m, tea.Quit
	}
	if err := m.clipboard.WriteText(item.ContentRef); err != nil {
		m.Err = err
		return m, nil
	}
	return m, tea.Quit
}

// refresh reloads Items for the current query. An empty query lists the
// history pinned first.
func (m *Model) refresh() {
	var (
		items []*store.Item
		err   error
	)
	if m.Query == "" {
		items, err = m.history.List(m.Limit)
	} else {
		items, err = m.history.Search(m.Query, m.Limit)
	}

	m.Err = err
	if err != nil {
		items = nil
	}
	m.Items = items
	m.move(0)
}

func (m *Model) selected() *store.Item {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return nil
	}
	return m.Items[m.Selected]
}

func (m *Model) selectID(id int64) {
	for i, item := range m.Items {
		if item.ID == id {
			m.Selected = i
			m.clampScroll()
			return
		}
	}
}

func (m *Model) move(delta int) {
	m.Selected += delta
	if m.Selected >= len(m.Items) {
		m.Selected = len(m.Items) - 1
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
	m.clampScroll()
}

func (m *Model) visibleRows() int {
	// header and status line
	if rows := m.Height - 2; rows > 0 {
		return rows
	}
	return 1
}

func (m *Model) clampScroll() {
	rows := m.visibleRows()
	if m.Selected < m.Offset {
		m.Offset = m.Selected
	}
	if m.Selected >= m.Offset+rows {
		m.Offset = m.Selected - rows + 1
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func (m *Model) flash(msg string) tea.Cmd {
	m.FlashMessage = msg
	m.FlashExpiry = m.now().Add(flashDuration)
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{}
	})
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	pinnedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	flashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("haste (%d)", len(m.Items))))
	switch {
	case m.CurrentMode == FilterMode:
		b.WriteString(" " + m.Input.View())
	case m.Query != "":
		b.WriteString(" /" + m.Query)
	}
	b.WriteString("\n")

	if len(m.Items) == 0 {
		b.WriteString(dimStyle.Render("No items"))
		b.WriteString("\n")
	}

	end := m.Offset + m.visibleRows()
	if end > len(m.Items) {
		end = len(m.Items)
	}
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusLine())
	return b.String()
}

func (m *Model) renderRow(i int) string {
	item := m.Items[i]

	marker := " "
	if item.Pinned {
		marker = pinnedStyle.Render("*")
	}

	width := m.Width - 16
	if width < 10 {
		width = 10
	}
	line := fmt.Sprintf("%-6s %-5s %s %s", fmt.Sprintf("#%d", item.ID), item.Kind, marker, preview.Item(item, width))

	if i == m.Selected {
		return selectedStyle.Render(line)
	}
	return line
}

func (m *Model) renderStatusLine() string {
	switch {
	case m.Err != nil:
		return errorStyle.Render("Error: " + m.Err.Error())
	case m.FlashMessage != "" && m.now().Before(m.FlashExpiry):
		return flashStyle.Render(m.FlashMessage)
	}

	switch m.CurrentMode {
	case FilterMode:
		return dimStyle.Render("Type to search (Enter to keep, Esc to clear)")
	case DeleteMode:
		if item := m.selected(); item != nil {
			return fmt.Sprintf("Delete #%d? (y/n)", item.ID)
		}
	}
	return dimStyle.Render("j/k move  / search  p pin  d delete  enter copy  q quit")
}
