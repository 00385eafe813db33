package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
)

var statusCycle = []string{models.StatusAll, models.StatusActive, models.StatusInactive, models.StatusLead}

func statusLabel(status string) string {
	if status == models.StatusAll {
		return "All Status"
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

func (m Model) visibleContacts() []models.Contact {
	return services.FilterContacts(m.contacts, m.status, m.search.Value())
}

func (m Model) renderContactsView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEALDECK CONTACTS"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("Manage your %d contacts   Status: %s\n", len(m.contacts), statusLabel(m.status)))
	s.WriteString(m.search.View())
	s.WriteString("\n\n")

	visible := m.visibleContacts()
	if len(visible) == 0 {
		s.WriteString("No contacts found\n")
		if m.search.Value() != "" || m.status != models.StatusAll {
			s.WriteString(mutedStyle.Render("Try adjusting your filters or search query"))
		} else {
			s.WriteString(mutedStyle.Render("Get started by adding your first contact"))
		}
	} else {
		s.WriteString(m.renderContactsTable(visible))
	}

	s.WriteString("\n")
	if n := m.renderNotice(); n != "" {
		s.WriteString(n)
		s.WriteString("\n")
	}
	s.WriteString(m.renderContactsHelp())
	return s.String()
}

func (m Model) renderContactsTable(contacts []models.Contact) string {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Email", Width: 30},
		{Title: "Company", Width: 22},
		{Title: "Status", Width: 10},
	}

	rows := make([]table.Row, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, table.Row{c.Name, c.Email, c.Company, c.Status})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(!m.searching),
		table.WithHeight(max(m.height-14, 5)),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderContactsHelp() string {
	if m.searching {
		return helpStyle.Render("Type to filter • Enter/Esc: Done")
	}
	help := []string{
		"↑/↓: Navigate",
		"/: Search",
		"s: Status",
		"Enter: Details",
		"n: New",
		"d: Delete",
		"Tab: Pipeline",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) selectedContact() (models.Contact, bool) {
	visible := m.visibleContacts()
	if m.selectedRow >= len(visible) {
		return models.Contact{}, false
	}
	return visible[m.selectedRow], true
}

func (m Model) handleContactsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.selectedRow = 0
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.visibleContacts())-1 {
			m.selectedRow++
		}
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "s":
		for i, st := range statusCycle {
			if st == m.status {
				m.status = statusCycle[(i+1)%len(statusCycle)]
				break
			}
		}
		m.selectedRow = 0
	case "enter":
		if c, ok := m.selectedContact(); ok {
			return m, m.loadDetail(c.ID)
		}
	case "n":
		m.initContactForm()
		m.viewMode = ViewNewContact
	case "e":
		m.notice = board.Info(board.MsgEditComingSoon)
	case "d":
		if c, ok := m.selectedContact(); ok {
			m.detail = &services.ContactDetail{Contact: c}
			m.backTo = ViewContacts
			m.viewMode = ViewConfirmDelete
		}
	case "tab":
		m.viewMode = ViewBoard
	case "r":
		return m, m.loadContacts()
	}

	return m, nil
}
