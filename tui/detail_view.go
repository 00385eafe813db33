package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/viz"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CONTACT DETAIL"))
	s.WriteString("\n\n")

	if m.detail == nil {
		s.WriteString("Loading contact...")
		return s.String()
	}

	c := m.detail.Contact
	s.WriteString(m.renderField("Name", c.Name))
	s.WriteString(m.renderField("Email", c.Email))
	s.WriteString(m.renderField("Phone", c.Phone))
	s.WriteString(m.renderField("Company", c.Company))
	s.WriteString(m.renderField("Status", c.Status))
	s.WriteString(m.renderField("Tags", strings.Join(c.Tags, ", ")))
	if !c.LastContactDate.IsZero() {
		s.WriteString(m.renderField("Last Contact", c.LastContactDate.Format("2006-01-02")))
	}
	s.WriteString(m.renderField("Notes", c.Notes))

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("DEALS (%d)", len(m.detail.Deals))))
	s.WriteString("\n")
	for _, d := range m.detail.Deals {
		s.WriteString(fmt.Sprintf("  • %s [%s] %s\n", d.Title, d.Stage, viz.FormatCurrency(d.Value)))
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("ACTIVITY"))
	s.WriteString("\n")
	for _, a := range m.detail.Activities {
		s.WriteString(fmt.Sprintf("  • [%s] %s: %s\n", a.Timestamp.Format("2006-01-02"), a.Type, a.Description))
	}

	if n := m.renderNotice(); n != "" {
		s.WriteString("\n")
		s.WriteString(n)
	}
	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"d: Delete",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewContacts
	case "e":
		m.notice = board.Info(board.MsgEditComingSoon)
	case "d":
		if m.detail != nil {
			m.backTo = ViewDetail
			m.viewMode = ViewConfirmDelete
		}
	}

	return m, nil
}
