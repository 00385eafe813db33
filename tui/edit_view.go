package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/recordstore"
)

// Contact form fields, in tab order.
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldCompany
	fieldStatus
	fieldTags
	fieldNotes
)

func (m Model) renderNewContactView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("NEW CONTACT"))
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if n := m.renderNotice(); n != "" {
		s.WriteString(n)
		s.WriteString("\n")
	}
	s.WriteString(m.renderNewContactHelp())

	return s.String()
}

func (m Model) renderNewContactHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleNewContactKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewContacts
		m.formInputs = nil
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		c := m.contactFromForm()
		if c.Name == "" || c.Email == "" {
			m.notice = board.Error("Name and email are required")
			return m, nil
		}
		return m, m.createContact(c)
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initContactForm() {
	inputs := make([]textinput.Model, fieldNotes+1)
	inputs[fieldName] = newInput("Full Name", 100)
	inputs[fieldEmail] = newInput("Email", 100)
	inputs[fieldPhone] = newInput("Phone", 30)
	inputs[fieldCompany] = newInput("Company", 100)
	inputs[fieldStatus] = newInput("Status (lead/active/inactive)", 10)
	inputs[fieldStatus].SetValue(models.StatusLead)
	inputs[fieldTags] = newInput("Tags (comma separated)", 200)
	inputs[fieldNotes] = newInput("Notes", 500)

	m.formInputs = inputs
	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m Model) contactFromForm() models.Contact {
	value := func(i int) string { return strings.TrimSpace(m.formInputs[i].Value()) }
	return models.Contact{
		Name:    value(fieldName),
		Email:   value(fieldEmail),
		Phone:   value(fieldPhone),
		Company: value(fieldCompany),
		Status:  strings.ToLower(value(fieldStatus)),
		Tags:    recordstore.SplitTags(value(fieldTags)),
		Notes:   value(fieldNotes),
	}
}
