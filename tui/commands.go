package tui

import (
	"context"
	"fmt"
	"time"

	"notepin/notepin/client"
	"notepin/notepin/models"
	"notepin/notepin/viewstate"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

const (
	searchDebounce = 250 * time.Millisecond
	requestTimeout = 10 * time.Second
)

// API is the part of the HTTP client the browser mutates notes through.
type API interface {
	CreateNote(ctx context.Context, title, body, color string) (models.Note, error)
	UpdateNote(ctx context.Context, id, title, body string) (models.Note, error)
	SetPinned(ctx context.Context, id string, pinned bool) (models.Note, error)
	SetColor(ctx context.Context, id, color string) (models.Note, error)
	Trash(ctx context.Context, id string, trashed bool) (models.Note, error)
	Restore(ctx context.Context, id string) (models.Note, error)
	DeleteForever(ctx context.Context, id string) error
	EmptyTrash(ctx context.Context) (int64, error)
}

// Live is the live query connection the browser reads results from.
type Live interface {
	Subscribe(query models.LiveQuery) error
	Unsubscribe(subscriptionID string) error
	Events() <-chan client.Event
}

type liveEventMsg struct{ event client.Event }

type liveClosedMsg struct{}

type searchTickMsg struct{ gen int }

type commandResultMsg struct {
	action viewstate.Action
	note   models.Note
	count  int64
	err    error
}

type errMsg struct{ err error }

func waitForEvent(events <-chan client.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return liveClosedMsg{}
		}
		return liveEventMsg{event: event}
	}
}

func searchTick(gen int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{gen: gen}
	})
}

func subscribeCmd(live Live, query models.LiveQuery) tea.Cmd {
	return func() tea.Msg {
		if err := live.Subscribe(query); err != nil {
			return errMsg{err: fmt.Errorf("subscribe %s: %w", query.Key(), err)}
		}
		return nil
	}
}

func unsubscribeCmd(live Live, subscriptionID string) tea.Cmd {
	return func() tea.Msg {
		if err := live.Unsubscribe(subscriptionID); err != nil {
			log.Warn().Err(err).Str("subscription_id", subscriptionID).Msg("unsubscribe failed")
		}
		return nil
	}
}

// execute runs a view state command against the API.
func execute(api API, cmd viewstate.Command) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result := commandResultMsg{action: cmd.Action}
		switch cmd.Action {
		case viewstate.ActionCreate:
			result.note, result.err = api.CreateNote(ctx, cmd.Title, cmd.Body, cmd.Color)
		case viewstate.ActionUpdate:
			result.note, result.err = api.UpdateNote(ctx, cmd.NoteID, cmd.Title, cmd.Body)
		case viewstate.ActionSetPinned:
			result.note, result.err = api.SetPinned(ctx, cmd.NoteID, cmd.Pinned)
		case viewstate.ActionSetColor:
			result.note, result.err = api.SetColor(ctx, cmd.NoteID, cmd.Color)
		case viewstate.ActionTrash:
			result.note, result.err = api.Trash(ctx, cmd.NoteID, true)
		case viewstate.ActionRestore:
			result.note, result.err = api.Restore(ctx, cmd.NoteID)
		case viewstate.ActionDeleteForever:
			result.err = api.DeleteForever(ctx, cmd.NoteID)
		case viewstate.ActionEmptyTrash:
			result.count, result.err = api.EmptyTrash(ctx)
		default:
			result.err = fmt.Errorf("unknown action %q", cmd.Action)
		}

		if result.err != nil {
			log.Error().Err(result.err).Str("action", string(cmd.Action)).Str("note_id", cmd.NoteID).Msg("command failed")
		}
		return result
	}
}
