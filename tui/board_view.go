// ABOUTME: Kanban pipeline view for the TUI
// ABOUTME: Keyboard drag and drop of deals between stage columns
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/viz"
)

const msgMoveInFlight = "Stage update in progress"

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	hoverColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	draggedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEALDECK PIPELINE"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch {
	case m.board == nil && m.err != nil:
		s.WriteString(errorStyle.Render("Oops! Something went wrong: " + m.err.Error()))
		s.WriteString("\n")
		s.WriteString(mutedStyle.Render("Press r to try again"))
	case m.board == nil:
		s.WriteString("Loading pipeline...")
	default:
		s.WriteString(m.renderPipelineSummary())
		s.WriteString("\n\n")
		s.WriteString(m.renderColumns())
	}

	s.WriteString("\n")
	if n := m.renderNotice(); n != "" {
		s.WriteString(n)
		s.WriteString("\n")
	}
	s.WriteString(m.renderBoardHelp())
	return s.String()
}

func (m Model) renderPipelineSummary() string {
	var total float64
	count := 0
	for _, col := range m.board.Columns() {
		total += col.Total
		count += len(col.Deals)
	}
	if count == 0 {
		return mutedStyle.Render("No deals in pipeline")
	}
	return fmt.Sprintf("%s total value across %d deals", viz.FormatThousands(total), count)
}

func (m Model) columnWidth(n int) int {
	if n == 0 {
		return 0
	}
	w := m.width/n - 4
	if w < 18 {
		w = 18
	}
	return w
}

func (m Model) renderColumns() string {
	cols := m.board.Columns()
	if len(cols) == 0 {
		return mutedStyle.Render("No stages configured")
	}

	dragged, dragging := m.board.Dragged()
	hovered := m.board.Hovered()
	width := m.columnWidth(len(cols))
	now := m.svc.Now()

	rendered := make([]string, 0, len(cols))
	for ci, col := range cols {
		var body strings.Builder
		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(stageColor(col.Stage))).Render(col.Stage.Name)
		body.WriteString(fmt.Sprintf("%s (%d)\n", header, len(col.Deals)))
		body.WriteString(mutedStyle.Render(viz.FormatThousands(col.Total)))
		body.WriteString("\n\n")

		if len(col.Deals) == 0 {
			body.WriteString(mutedStyle.Render("No deals in this stage"))
		}
		for ri, d := range col.Deals {
			style := cardStyle
			marker := "  "
			switch {
			case dragging && d.ID == dragged.ID:
				style = draggedCardStyle
				marker = "» "
			case !dragging && ci == m.col && ri == m.row:
				style = selectedCardStyle
				marker = "> "
			}
			body.WriteString(style.Render(marker + truncate(d.Title, width-2)))
			body.WriteString("\n")
			body.WriteString(mutedStyle.Render(fmt.Sprintf("  %s · %s",
				viz.FormatCurrency(d.Value), truncate(m.board.ContactName(d.ContactID), width-14))))
			body.WriteString("\n")
			body.WriteString(mutedStyle.Render(fmt.Sprintf("  %d%% · %dd in stage", d.Probability, d.DaysInStage(now))))
			body.WriteString("\n")
		}

		style := columnStyle
		if dragging && col.Stage.Key() == hovered {
			style = hoverColumnStyle
		}
		rendered = append(rendered, style.Width(width).Render(strings.TrimRight(body.String(), "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func stageColor(st models.Stage) string {
	if st.Color == "" {
		return "252"
	}
	return st.Color
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) renderBoardHelp() string {
	var help []string
	if m.board != nil && m.board.State() == board.Dragging {
		help = []string{
			"←/→: Choose stage",
			"Space/Enter: Drop",
			"Esc: Cancel",
		}
	} else {
		help = []string{
			"←/→/↑/↓: Navigate",
			"Space/Enter: Pick up deal",
			"Tab: Contacts",
			"g: Graph",
			"r: Reload",
			"q: Quit",
		}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.board == nil {
		switch msg.String() {
		case "r":
			return m, m.loadPipeline()
		case "tab":
			m.viewMode = ViewContacts
		}
		return m, nil
	}

	state := m.board.State()
	switch msg.String() {
	case "left", "h":
		if state == board.Dragging {
			m.hoverBy(-1)
		} else if m.col > 0 {
			m.col--
			m.clampCursor()
		}
	case "right", "l":
		if state == board.Dragging {
			m.hoverBy(1)
		} else {
			m.col++
			m.clampCursor()
		}
	case "up", "k":
		if state == board.Idle && m.row > 0 {
			m.row--
		}
	case "down", "j":
		if state == board.Idle {
			m.row++
			m.clampCursor()
		}
	case " ", "enter":
		switch state {
		case board.Idle:
			d, ok := m.selectedDeal()
			if !ok {
				return m, nil
			}
			if err := m.board.Grab(d.ID); err != nil {
				m.notice = board.Error(err.Error())
				return m, nil
			}
			m.notice = board.Notice{}
		case board.Dragging:
			return m, m.release()
		case board.Pending:
			m.notice = board.Info(msgMoveInFlight)
		}
	case "esc":
		if state == board.Dragging {
			m.board.Cancel()
		}
	case "tab":
		if state == board.Idle {
			m.viewMode = ViewContacts
		}
	case "n":
		m.notice = board.Info(board.MsgAddDealComingSoon)
	case "g":
		if state == board.Idle {
			m.backTo = ViewBoard
			m.viewMode = ViewGraph
			m.graphDOT = ""
			return m, m.generateGraph()
		}
	case "r":
		if state == board.Idle {
			return m, m.loadPipeline()
		}
	}
	return m, nil
}

// hoverBy shifts the dragged deal's target column and keeps the cursor on it.
func (m *Model) hoverBy(delta int) {
	stages := m.board.Stages()
	if len(stages) == 0 {
		return
	}
	idx := 0
	hovered := m.board.Hovered()
	for i, st := range stages {
		if st.Key() == hovered {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 || idx >= len(stages) {
		return
	}
	if err := m.board.Move(stages[idx].Key()); err != nil {
		m.notice = board.Error(err.Error())
		return
	}
	m.col = idx
}

func (m Model) selectedDeal() (models.Deal, bool) {
	if m.board == nil {
		return models.Deal{}, false
	}
	cols := m.board.Columns()
	if m.col >= len(cols) || m.row >= len(cols[m.col].Deals) {
		return models.Deal{}, false
	}
	return cols[m.col].Deals[m.row], true
}

func (m *Model) clampCursor() {
	if m.board == nil {
		return
	}
	cols := m.board.Columns()
	if len(cols) == 0 {
		m.col, m.row = 0, 0
		return
	}
	if m.col >= len(cols) {
		m.col = len(cols) - 1
	}
	if n := len(cols[m.col].Deals); m.row >= n {
		m.row = max(n-1, 0)
	}
}

// focusDeal moves the cursor onto a deal after it changed columns.
func (m *Model) focusDeal(id int64) {
	if m.board == nil {
		return
	}
	for ci, col := range m.board.Columns() {
		for ri, d := range col.Deals {
			if d.ID == id {
				m.col, m.row = ci, ri
				return
			}
		}
	}
	m.clampCursor()
}
