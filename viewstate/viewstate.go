// Package viewstate is the client-side state machine behind the note browser.
// It performs no IO: mutations come back as Commands for the caller to run,
// and live query results are fed in through SetResults.
package viewstate

import (
	"html"
	"strings"

	"notepin/notepin/models"

	"github.com/microcosm-cc/bluemonday"
)

type Tab string

const (
	TabAll    Tab = "all"
	TabPinned Tab = "pinned"
	TabTrash  Tab = "trash"
)

type Mode string

const (
	ModeView Mode = "view"
	ModeEdit Mode = "edit"
)

type Focus string

const (
	FocusNone  Focus = "none"
	FocusTitle Focus = "title"
	FocusBody  Focus = "body"
)

type Confirm string

const (
	ConfirmNone          Confirm = ""
	ConfirmTrash         Confirm = "trash"
	ConfirmDeleteForever Confirm = "delete_forever"
	ConfirmEmptyTrash    Confirm = "empty_trash"
)

type Action string

const (
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionSetPinned     Action = "set_pinned"
	ActionSetColor      Action = "set_color"
	ActionTrash         Action = "trash"
	ActionRestore       Action = "restore"
	ActionDeleteForever Action = "delete_forever"
	ActionEmptyTrash    Action = "empty_trash"
)

// Command is a mutation the caller should send to the server.
type Command struct {
	Action Action
	NoteID string
	Title  string
	Body   string
	Color  string
	Pinned bool
}

type Draft struct {
	Title string
	Body  string
}

const summaryLength = 80

// State holds everything the note browser shows. The zero value is not
// usable; call New.
type State struct {
	tab    Tab
	mode   Mode
	focus  Focus
	search string

	notes      []models.Note
	selectedID string
	draft      Draft
	pending    Confirm
	pendingID  string

	// created is a note we just made, shown until the next result set.
	created *models.Note
}

func New() *State {
	return &State{
		tab:   TabAll,
		mode:  ModeView,
		focus: FocusNone,
	}
}

func (s *State) Tab() Tab              { return s.tab }
func (s *State) Mode() Mode            { return s.mode }
func (s *State) Focus() Focus          { return s.focus }
func (s *State) Search() string        { return s.search }
func (s *State) SelectedID() string    { return s.selectedID }
func (s *State) Draft() Draft          { return s.draft }
func (s *State) Pending() Confirm      { return s.pending }
func (s *State) Notes() []models.Note  { return s.notes }
func (s *State) HasSelection() bool    { return s.selectedID != "" }
func (s *State) IsEditing() bool       { return s.mode == ModeEdit }
func (s *State) InTrash() bool         { return s.tab == TabTrash }
func (s *State) SetFocus(focus Focus)  { s.focus = focus }
func (s *State) PendingNoteID() string { return s.pendingID }

// Query is the live query the current tab and search need.
func (s *State) Query() models.LiveQuery {
	if s.tab == TabTrash {
		return models.LiveQuery{Query: models.QueryTrash}
	}
	return models.LiveQuery{
		Query:  models.QueryList,
		Search: s.search,
		Pinned: s.tab == TabPinned,
	}
}

// Selected returns the selected note from the visible results, or the
// just-created note until the next result set arrives.
func (s *State) Selected() (models.Note, bool) {
	if s.selectedID == "" {
		return models.Note{}, false
	}
	if note, ok := s.find(s.selectedID); ok {
		return note, true
	}
	if s.created != nil && s.created.ID.String() == s.selectedID {
		return *s.created, true
	}
	return models.Note{}, false
}

func (s *State) find(id string) (models.Note, bool) {
	for _, note := range s.notes {
		if note.ID.String() == id {
			return note, true
		}
	}
	return models.Note{}, false
}

func (s *State) clearSelection() {
	s.selectedID = ""
	s.mode = ModeView
	s.focus = FocusNone
	s.draft = Draft{}
	s.pending = ConfirmNone
	s.pendingID = ""
}

func (s *State) loadDraft() {
	note, ok := s.Selected()
	if !ok {
		s.draft = Draft{}
		return
	}
	s.draft = Draft{Title: note.Title, Body: note.Body}
}

// Select makes id the selected note and leaves edit mode.
func (s *State) Select(id string) {
	if s.created != nil && s.created.ID.String() != id {
		s.created = nil
	}
	s.selectedID = id
	s.mode = ModeView
	s.focus = FocusNone
	s.pending = ConfirmNone
	s.pendingID = ""
	s.loadDraft()
}

// SetResults replaces the visible notes. A selection that is not in notes is
// cleared.
func (s *State) SetResults(notes []models.Note) {
	s.notes = notes
	s.created = nil

	if s.selectedID == "" {
		return
	}
	if _, ok := s.Selected(); !ok {
		s.clearSelection()
		return
	}
	if s.mode == ModeView {
		s.loadDraft()
	}
}

// Ordered lists the visible notes in display order: pinned first on the
// all tab, result order otherwise.
func (s *State) Ordered() []models.Note {
	if s.tab != TabAll {
		return s.notes
	}
	return append(s.Pinned(), s.Others()...)
}

func (s *State) Pinned() []models.Note {
	out := []models.Note{}
	for _, note := range s.notes {
		if note.Pinned {
			out = append(out, note)
		}
	}
	return out
}

func (s *State) Others() []models.Note {
	out := []models.Note{}
	for _, note := range s.notes {
		if !note.Pinned {
			out = append(out, note)
		}
	}
	return out
}

// Move selects the note delta places away in display order, wrapping at
// the ends. It does nothing while editing.
func (s *State) Move(delta int) {
	if s.mode == ModeEdit {
		return
	}
	ordered := s.Ordered()
	if len(ordered) == 0 {
		return
	}

	idx := -1
	for i, note := range ordered {
		if note.ID.String() == s.selectedID {
			idx = i
			break
		}
	}

	switch {
	case idx < 0 && delta >= 0:
		idx = 0
	case idx < 0:
		idx = len(ordered) - 1
	default:
		idx = ((idx+delta)%len(ordered) + len(ordered)) % len(ordered)
	}
	s.Select(ordered[idx].ID.String())
}

// BeginEdit snapshots the selected note into the draft. Trashed notes are
// read-only.
func (s *State) BeginEdit(focus Focus) bool {
	if s.tab == TabTrash {
		return false
	}
	if _, ok := s.Selected(); !ok {
		return false
	}
	if focus == FocusNone {
		focus = FocusBody
	}
	s.loadDraft()
	s.mode = ModeEdit
	s.focus = focus
	return true
}

func (s *State) EditTitle(title string) {
	if s.mode == ModeEdit {
		s.draft.Title = title
	}
}

func (s *State) EditBody(body string) {
	if s.mode == ModeEdit {
		s.draft.Body = body
	}
}

// Save emits an update with the draft and returns to view mode.
func (s *State) Save() (Command, bool) {
	if s.mode != ModeEdit {
		return Command{}, false
	}
	note, ok := s.Selected()
	if !ok {
		return Command{}, false
	}

	s.mode = ModeView
	s.focus = FocusNone
	return Command{
		Action: ActionUpdate,
		NoteID: note.ID.String(),
		Title:  s.draft.Title,
		Body:   s.draft.Body,
	}, true
}

// Cancel drops draft edits and returns to view mode.
func (s *State) Cancel() {
	if s.pending != ConfirmNone {
		s.pending = ConfirmNone
		s.pendingID = ""
		return
	}
	if s.mode != ModeEdit {
		return
	}
	s.mode = ModeView
	s.focus = FocusNone
	s.loadDraft()
}

// NewNote emits a create for a blank yellow note.
func (s *State) NewNote() Command {
	return Command{Action: ActionCreate, Title: "", Body: "", Color: models.DefaultColor}
}

// Created selects a newly created note and opens it for editing with the
// title focused. The view switches to the unfiltered all tab so the note can
// appear in the next results.
func (s *State) Created(note models.Note) {
	if s.tab != TabAll || s.search != "" {
		s.tab = TabAll
		s.search = ""
		s.notes = nil
	}
	s.created = &note
	s.selectedID = note.ID.String()
	s.pending = ConfirmNone
	s.pendingID = ""
	s.draft = Draft{Title: note.Title, Body: note.Body}
	s.mode = ModeEdit
	s.focus = FocusTitle
}

// Applied records a mutation result for a note that has not shown up in
// the results yet.
func (s *State) Applied(note models.Note) {
	if s.created == nil || s.created.ID != note.ID {
		return
	}
	s.created = &note
	if s.mode == ModeView && s.selectedID == note.ID.String() {
		s.loadDraft()
	}
}

// RequestTrash asks for confirmation before trashing the selected note.
func (s *State) RequestTrash() bool {
	if s.tab == TabTrash || !s.HasSelection() {
		return false
	}
	s.pending = ConfirmTrash
	s.pendingID = s.selectedID
	return true
}

// RequestDeleteForever asks for confirmation before deleting the selected
// trashed note.
func (s *State) RequestDeleteForever() bool {
	if s.tab != TabTrash || !s.HasSelection() {
		return false
	}
	s.pending = ConfirmDeleteForever
	s.pendingID = s.selectedID
	return true
}

// RequestEmptyTrash asks for confirmation before deleting every trashed note.
func (s *State) RequestEmptyTrash() bool {
	if s.tab != TabTrash || len(s.notes) == 0 {
		return false
	}
	s.pending = ConfirmEmptyTrash
	s.pendingID = ""
	return true
}

// Confirm resolves a pending confirmation. Declining emits nothing.
func (s *State) Confirm(yes bool) (Command, bool) {
	pending, id := s.pending, s.pendingID
	s.pending = ConfirmNone
	s.pendingID = ""

	if pending == ConfirmNone || !yes {
		return Command{}, false
	}

	var cmd Command
	switch pending {
	case ConfirmTrash:
		cmd = Command{Action: ActionTrash, NoteID: id}
	case ConfirmDeleteForever:
		cmd = Command{Action: ActionDeleteForever, NoteID: id}
	case ConfirmEmptyTrash:
		cmd = Command{Action: ActionEmptyTrash}
	}
	s.clearSelection()
	s.created = nil
	return cmd, true
}

// Restore emits a restore for the selected trashed note.
func (s *State) Restore() (Command, bool) {
	if s.tab != TabTrash || !s.HasSelection() {
		return Command{}, false
	}
	cmd := Command{Action: ActionRestore, NoteID: s.selectedID}
	s.clearSelection()
	return cmd, true
}

func (s *State) TogglePin() (Command, bool) {
	note, ok := s.Selected()
	if !ok || s.tab == TabTrash {
		return Command{}, false
	}
	return Command{Action: ActionSetPinned, NoteID: note.ID.String(), Pinned: !note.Pinned}, true
}

func (s *State) SetColor(color string) (Command, bool) {
	note, ok := s.Selected()
	if !ok || s.tab == TabTrash {
		return Command{}, false
	}
	return Command{Action: ActionSetColor, NoteID: note.ID.String(), Color: color}, true
}

// SetTab switches tabs and reports whether the live query changed.
func (s *State) SetTab(tab Tab) bool {
	if tab == s.tab {
		return false
	}
	s.tab = tab
	s.notes = nil
	s.created = nil
	s.clearSelection()
	return true
}

// SetSearch updates the search text and reports whether the live query
// changed. The trash tab ignores search.
func (s *State) SetSearch(text string) bool {
	if text == s.search {
		return false
	}
	s.search = text
	return s.tab != TabTrash
}

var strictPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from a note body.
func PlainText(body string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(body))
	return strings.Join(strings.Fields(text), " ")
}

// Summary is the first 80 characters of the body as plain text.
func Summary(note models.Note) string {
	runes := []rune(PlainText(note.Body))
	if len(runes) <= summaryLength {
		return string(runes)
	}
	return string(runes[:summaryLength])
}
