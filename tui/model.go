// Package tui is the terminal note browser. It renders the view state, sends
// the commands the state emits to the API and feeds live query results back.
package tui

import (
	"notepin/notepin/client"
	"notepin/notepin/models"
	"notepin/notepin/viewstate"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

type Model struct {
	api   API
	live  Live
	state *viewstate.State
	keys  keyMap

	search    textinput.Model
	title     textinput.Model
	body      textarea.Model
	searching bool
	searchGen int

	// wantKey is the key of the query last sent; subID is the confirmed
	// subscription whose results are shown. prevID is the subscription being
	// replaced, dropped once the new one is confirmed.
	wantKey string
	subID   string
	prevID  string

	width  int
	height int
	status string
}

func New(api API, live Live) *Model {
	search := textinput.New()
	search.Placeholder = "Search notes"
	search.Prompt = "/ "
	search.CharLimit = 200

	title := textinput.New()
	title.Placeholder = models.DefaultTitle
	title.Prompt = ""
	title.CharLimit = 200

	body := textarea.New()
	body.Placeholder = "Write something..."
	body.ShowLineNumbers = false
	body.Prompt = ""
	body.CharLimit = 0
	body.Blur()

	return &Model{
		api:    api,
		live:   live,
		state:  viewstate.New(),
		keys:   defaultKeyMap(),
		search: search,
		title:  title,
		body:   body,
		width:  100,
		height: 30,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.resubscribe(), waitForEvent(m.live.Events()))
}

// resubscribe asks for the live query the state needs, if it changed.
func (m *Model) resubscribe() tea.Cmd {
	query := m.state.Query()
	if query.Key() == m.wantKey {
		return nil
	}
	m.wantKey = query.Key()
	if m.subID != "" {
		m.prevID = m.subID
		m.subID = ""
	}
	return subscribeCmd(m.live, query)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case liveEventMsg:
		cmd := m.handleLiveEvent(msg.event)
		return m, tea.Batch(cmd, waitForEvent(m.live.Events()))

	case liveClosedMsg:
		m.status = "disconnected from server"
		log.Warn().Msg("live query connection closed")
		return m, nil

	case searchTickMsg:
		if msg.gen != m.searchGen {
			return m, nil
		}
		if m.state.SetSearch(m.search.Value()) {
			return m, m.resubscribe()
		}
		return m, nil

	case commandResultMsg:
		return m, m.handleResult(msg)

	case errMsg:
		m.status = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleLiveEvent(event client.Event) tea.Cmd {
	switch event.Type {
	case models.SubscriptionMessage:
		if event.Query.Key() != m.wantKey {
			return unsubscribeCmd(m.live, event.SubscriptionID)
		}
		m.subID = event.SubscriptionID
		if old := m.prevID; old != "" {
			m.prevID = ""
			if old != m.subID {
				return unsubscribeCmd(m.live, old)
			}
		}
	case models.ResultMessage:
		if event.SubscriptionID != m.subID {
			return nil
		}
		notes, err := event.Notes()
		if err != nil {
			m.status = "bad result: " + err.Error()
			return nil
		}
		m.state.SetResults(notes)
		m.syncFocus()
	case models.ErrorMessage:
		if event.Err != nil {
			m.status = event.Err.Error()
		}
	}
	return nil
}

func (m *Model) handleResult(msg commandResultMsg) tea.Cmd {
	if msg.err != nil {
		m.status = string(msg.action) + " failed: " + msg.err.Error()
		return nil
	}

	switch msg.action {
	case viewstate.ActionCreate:
		m.state.Created(msg.note)
		m.search.SetValue(m.state.Search())
		m.loadEditors()
		m.status = "new note"
		return m.resubscribe()
	case viewstate.ActionUpdate:
		m.state.Applied(msg.note)
		m.status = "saved"
	case viewstate.ActionSetPinned, viewstate.ActionSetColor:
		m.state.Applied(msg.note)
		m.status = ""
	case viewstate.ActionTrash:
		m.status = "moved to trash"
	case viewstate.ActionRestore:
		m.status = "restored"
	case viewstate.ActionDeleteForever:
		m.status = "deleted forever"
	case viewstate.ActionEmptyTrash:
		m.status = "trash emptied"
	default:
		m.status = ""
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	switch {
	case m.state.Pending() != viewstate.ConfirmNone:
		return m.handleConfirmKey(msg)
	case m.searching:
		return m.handleSearchKey(msg)
	case m.state.IsEditing():
		return m.handleEditKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Yes):
		if cmd, ok := m.state.Confirm(true); ok {
			return execute(m.api, cmd)
		}
	case key.Matches(msg, m.keys.No):
		m.state.Confirm(false)
	}
	return nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
		m.searching = false
		m.search.Blur()
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return cmd
	}
	m.searchGen++
	return tea.Batch(cmd, searchTick(m.searchGen))
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Save):
		cmd, ok := m.state.Save()
		m.syncFocus()
		if ok {
			return execute(m.api, cmd)
		}
		return nil
	case key.Matches(msg, m.keys.Cancel):
		m.state.Cancel()
		m.syncFocus()
		return nil
	case key.Matches(msg, m.keys.SwitchField):
		if m.state.Focus() == viewstate.FocusTitle {
			m.state.SetFocus(viewstate.FocusBody)
		} else {
			m.state.SetFocus(viewstate.FocusTitle)
		}
		m.syncFocus()
		return nil
	}

	var cmd tea.Cmd
	if m.state.Focus() == viewstate.FocusTitle {
		m.title, cmd = m.title.Update(msg)
		m.state.EditTitle(m.title.Value())
	} else {
		m.body, cmd = m.body.Update(msg)
		m.state.EditBody(m.body.Value())
	}
	return cmd
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.state.Move(1)
	case key.Matches(msg, m.keys.Up):
		m.state.Move(-1)
	case key.Matches(msg, m.keys.Search):
		if !m.state.InTrash() {
			m.searching = true
			return m.search.Focus()
		}
	case key.Matches(msg, m.keys.TabAll):
		return m.switchTab(viewstate.TabAll)
	case key.Matches(msg, m.keys.TabPinned):
		return m.switchTab(viewstate.TabPinned)
	case key.Matches(msg, m.keys.TabTrash):
		return m.switchTab(viewstate.TabTrash)
	case key.Matches(msg, m.keys.New):
		return execute(m.api, m.state.NewNote())
	case key.Matches(msg, m.keys.Edit):
		return m.beginEdit(viewstate.FocusBody)
	case key.Matches(msg, m.keys.Rename):
		return m.beginEdit(viewstate.FocusTitle)
	case key.Matches(msg, m.keys.Pin):
		if cmd, ok := m.state.TogglePin(); ok {
			return execute(m.api, cmd)
		}
	case key.Matches(msg, m.keys.Color):
		if note, ok := m.state.Selected(); ok {
			if cmd, ok := m.state.SetColor(nextColor(note.Color)); ok {
				return execute(m.api, cmd)
			}
		}
	case key.Matches(msg, m.keys.Delete):
		if m.state.InTrash() {
			m.state.RequestDeleteForever()
		} else {
			m.state.RequestTrash()
		}
	case key.Matches(msg, m.keys.Restore):
		if cmd, ok := m.state.Restore(); ok {
			return execute(m.api, cmd)
		}
	case key.Matches(msg, m.keys.EmptyTrash):
		m.state.RequestEmptyTrash()
	}
	return nil
}

func (m *Model) switchTab(tab viewstate.Tab) tea.Cmd {
	if !m.state.SetTab(tab) {
		return nil
	}
	m.syncFocus()
	return m.resubscribe()
}

func (m *Model) beginEdit(focus viewstate.Focus) tea.Cmd {
	if !m.state.BeginEdit(focus) {
		return nil
	}
	m.loadEditors()
	return textarea.Blink
}

// loadEditors copies the draft into the input widgets.
func (m *Model) loadEditors() {
	draft := m.state.Draft()
	m.title.SetValue(draft.Title)
	m.title.CursorEnd()
	m.body.SetValue(draft.Body)
	m.syncFocus()
}

func (m *Model) syncFocus() {
	m.title.Blur()
	m.body.Blur()
	if !m.state.IsEditing() {
		return
	}
	switch m.state.Focus() {
	case viewstate.FocusTitle:
		m.title.Focus()
	default:
		m.body.Focus()
	}
}

func nextColor(current string) string {
	for i, color := range models.AllowedColors {
		if color == current {
			return models.AllowedColors[(i+1)%len(models.AllowedColors)]
		}
	}
	return models.DefaultColor
}
