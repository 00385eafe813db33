// ABOUTME: Async commands and their result messages for the TUI
// ABOUTME: Store calls run off the update loop and report back as tea messages
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/dealdeck/board"
	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
	"github.com/harperreed/dealdeck/viz"
)

type pipelineLoadedMsg struct {
	data *services.PipelineData
	err  error
}

type contactsLoadedMsg struct {
	contacts []models.Contact
	err      error
}

type moveDoneMsg struct {
	dealID int64
	notice board.Notice
	err    error
}

type detailLoadedMsg struct {
	detail *services.ContactDetail
	err    error
}

type contactCreatedMsg struct {
	contact *models.Contact
	err     error
}

type contactDeletedMsg struct {
	id  int64
	err error
}

type graphLoadedMsg struct {
	dot string
	err error
}

func (m Model) loadPipeline() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		data, err := svc.LoadPipeline(ctx)
		return pipelineLoadedMsg{data: data, err: err}
	}
}

func (m Model) loadContacts() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		contacts, err := svc.Contacts.GetAll(ctx)
		return contactsLoadedMsg{contacts: contacts, err: err}
	}
}

// release finishes the drag in progress. The board guards against a second
// drop while this one is in flight.
func (m Model) release() tea.Cmd {
	ctx, b := m.ctx, m.board
	dragged, ok := b.Dragged()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		notice, err := b.Release(ctx)
		return moveDoneMsg{dealID: dragged.ID, notice: notice, err: err}
	}
}

func (m Model) loadDetail(id int64) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		detail, err := svc.LoadContactDetail(ctx, id)
		return detailLoadedMsg{detail: detail, err: err}
	}
}

func (m Model) createContact(c models.Contact) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		created, err := svc.Contacts.Create(ctx, c)
		return contactCreatedMsg{contact: created, err: err}
	}
}

func (m Model) deleteContact(id int64) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return contactDeletedMsg{id: id, err: svc.Contacts.Delete(ctx, id)}
	}
}

func (m Model) generateGraph() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		format, err := viz.ParseFormat("dot")
		if err != nil {
			return graphLoadedMsg{err: err}
		}
		dot, err := viz.NewGraphGenerator(svc).GeneratePipelineGraph(ctx, format)
		return graphLoadedMsg{dot: dot, err: err}
	}
}

func (m Model) onPipelineLoaded(msg pipelineLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	m.board = board.FromPipeline(m.svc.Deals, msg.data)
	m.clampCursor()
	return m, nil
}

func (m Model) onContactsLoaded(msg contactsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.contacts = msg.contacts
	if n := len(m.visibleContacts()); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
	return m, nil
}

func (m Model) onMoveDone(msg moveDoneMsg) (tea.Model, tea.Cmd) {
	m.notice = msg.notice
	if msg.err != nil && m.notice.IsZero() {
		m.notice = board.Error(board.MsgMoveFailed)
	}
	if msg.err == nil {
		m.focusDeal(msg.dealID)
	}
	return m, nil
}

func (m Model) onDetailLoaded(msg detailLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = board.Error(msg.err.Error())
		m.viewMode = ViewContacts
		return m, nil
	}
	m.detail = msg.detail
	m.viewMode = ViewDetail
	return m, nil
}

func (m Model) onContactCreated(msg contactCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = board.Error(board.MsgContactAddFailed)
		return m, nil
	}
	m.notice = board.Success(board.MsgContactAdded)
	m.viewMode = ViewContacts
	m.formInputs = nil
	return m, tea.Batch(m.loadContacts(), m.loadPipeline())
}

func (m Model) onContactDeleted(msg contactDeletedMsg) (tea.Model, tea.Cmd) {
	m.viewMode = ViewContacts
	if msg.err != nil {
		m.notice = board.Error(board.MsgContactDelFailed)
		return m, nil
	}
	m.notice = board.Success(board.MsgContactDeleted)
	m.detail = nil
	return m, tea.Batch(m.loadContacts(), m.loadPipeline())
}

func (m Model) onGraphLoaded(msg graphLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = board.Error(msg.err.Error())
		m.viewMode = ViewBoard
		return m, nil
	}
	m.graphDOT = msg.dot
	return m, nil
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}
