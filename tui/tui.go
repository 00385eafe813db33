// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Kanban pipeline board and contact list over the CRM services
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewContacts
	ViewDetail
	ViewNewContact
	ViewGraph
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	svc      *services.Services
	viewMode ViewMode
	backTo   ViewMode

	// Board view state
	board *board.Board
	col   int
	row   int

	// Contacts view state
	contacts    []models.Contact
	status      string
	search      textinput.Model
	searching   bool
	selectedRow int

	// Detail view state
	detail *services.ContactDetail

	// New contact form state
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graphDOT string

	// UI state
	notice board.Notice
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, svc *services.Services) Model {
	search := textinput.New()
	search.Placeholder = "Search contacts..."
	search.CharLimit = 100

	return Model{
		ctx:      ctx,
		svc:      svc,
		viewMode: ViewBoard,
		status:   models.StatusAll,
		search:   search,
		width:    80,
		height:   24,
	}
}

// Run starts the full-screen program and blocks until it exits.
func Run(ctx context.Context, svc *services.Services) error {
	p := tea.NewProgram(NewModel(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadPipeline(), m.loadContacts())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case pipelineLoadedMsg:
		return m.onPipelineLoaded(msg)
	case contactsLoadedMsg:
		return m.onContactsLoaded(msg)
	case moveDoneMsg:
		return m.onMoveDone(msg)
	case detailLoadedMsg:
		return m.onDetailLoaded(msg)
	case contactCreatedMsg:
		return m.onContactCreated(msg)
	case contactDeletedMsg:
		return m.onContactDeleted(msg)
	case graphLoadedMsg:
		return m.onGraphLoaded(msg)
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewBoard:
		return m.renderBoardView()
	case ViewContacts:
		return m.renderContactsView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewNewContact:
		return m.renderNewContactView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

// capturesText reports whether keys go to a text input rather than shortcuts.
func (m Model) capturesText() bool {
	return m.viewMode == ViewNewContact || (m.viewMode == ViewContacts && m.searching)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !m.capturesText() {
			return m, tea.Quit
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKeys(msg)
	case ViewContacts:
		return m.handleContactsKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewNewContact:
		return m.handleNewContactKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m Model) renderTabs() string {
	tabs := []struct {
		name string
		mode ViewMode
	}{
		{"Pipeline", ViewBoard},
		{"Contacts", ViewContacts},
	}
	var rendered []string
	for _, tab := range tabs {
		if tab.mode == m.viewMode {
			rendered = append(rendered, tabActiveStyle.Render(tab.name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab.name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderNotice() string {
	if m.notice.IsZero() {
		return ""
	}
	switch m.notice.Kind {
	case board.NoticeSuccess:
		return successStyle.Render(m.notice.Message)
	case board.NoticeError:
		return errorStyle.Render(m.notice.Message)
	}
	return infoStyle.Render(m.notice.Message)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)
