package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"notepin/notepin/broker"
	"notepin/notepin/config"
	"notepin/notepin/models"
	"notepin/notepin/routes"
	"notepin/notepin/services"
	"notepin/notepin/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	client     *Client
	dispatcher *services.EventHandlerService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutils.SetupTestDB(t)
	feed := broker.NewMemoryBroker()

	notes := services.NewNoteService(false)
	trash := services.NewTrashService(notes)
	dispatcher := services.NewEventHandlerService(db, feed, time.Hour)

	live := services.NewLiveQueryService(db, notes)
	require.NoError(t, live.Start(feed))
	hub := services.NewWebSocketService(live)
	hub.Start()

	router := routes.NewRouter(routes.Dependencies{
		Config:           config.Config{AppEnv: "test", AllowedOrigins: "*"},
		DB:               db,
		NoteService:      notes,
		TrashService:     trash,
		WebSocketService: hub,
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
		live.Stop()
		feed.Close()
	})

	return &stack{client: New(server.URL), dispatcher: dispatcher}
}

func nextEvent(t *testing.T, live *LiveConn) Event {
	t.Helper()
	select {
	case event, ok := <-live.Events():
		require.True(t, ok, "live connection closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for live event")
		return Event{}
	}
}

func TestClient_NoteLifecycle(t *testing.T) {
	s := newStack(t)
	c := s.client
	ctx := context.Background()

	created, err := c.CreateNote(ctx, "", "", "yellow")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", created.Title)
	assert.Equal(t, "yellow", created.Color)

	id := created.ID.String()

	updated, err := c.UpdateNote(ctx, id, "Shopping", "<p>Milk and bread</p>")
	require.NoError(t, err)
	assert.Equal(t, "Shopping", updated.Title)
	assert.Greater(t, updated.UpdatedAt, created.UpdatedAt)

	found, err := c.ListNotes(ctx, "milk", false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	none, err := c.ListNotes(ctx, "zzz", false)
	require.NoError(t, err)
	assert.Empty(t, none)

	pinned, err := c.SetPinned(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	pinnedOnly, err := c.ListNotes(ctx, "", true)
	require.NoError(t, err)
	assert.Len(t, pinnedOnly, 1)

	recolored, err := c.SetColor(ctx, id, "grey")
	require.NoError(t, err)
	assert.Equal(t, "yellow", recolored.Color)

	_, err = c.Trash(ctx, id, true)
	require.NoError(t, err)

	active, err := c.ListNotes(ctx, "", false)
	require.NoError(t, err)
	assert.Empty(t, active)

	trashed, err := c.ListTrash(ctx)
	require.NoError(t, err)
	require.Len(t, trashed, 1)

	restored, err := c.Restore(ctx, id)
	require.NoError(t, err)
	assert.False(t, restored.Trashed)
	assert.True(t, restored.Pinned)

	require.NoError(t, c.DeleteForever(ctx, id))

	_, err = c.GetNote(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.DeleteForever(ctx, id), ErrNotFound)

	_, err = c.GetNote(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_EmptyTrash(t *testing.T) {
	s := newStack(t)
	c := s.client
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		note, err := c.CreateNote(ctx, "bin", "", "")
		require.NoError(t, err)
		_, err = c.Trash(ctx, note.ID.String(), true)
		require.NoError(t, err)
	}

	count, err := c.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	trashed, err := c.ListTrash(ctx)
	require.NoError(t, err)
	assert.Empty(t, trashed)
}

func TestClient_LiveQueries(t *testing.T) {
	s := newStack(t)
	c := s.client
	ctx := context.Background()

	live, err := c.Live(ctx)
	require.NoError(t, err)
	defer live.Close()

	require.NoError(t, live.Subscribe(models.LiveQuery{Query: models.QueryList}))

	confirmed := nextEvent(t, live)
	require.Equal(t, models.SubscriptionMessage, confirmed.Type)
	require.NotEmpty(t, confirmed.SubscriptionID)

	initial := nextEvent(t, live)
	require.Equal(t, models.ResultMessage, initial.Type)
	assert.Equal(t, confirmed.SubscriptionID, initial.SubscriptionID)
	notes, err := initial.Notes()
	require.NoError(t, err)
	assert.Empty(t, notes)

	created, err := c.CreateNote(ctx, "live", "", "blue")
	require.NoError(t, err)
	_, err = s.dispatcher.DispatchPending()
	require.NoError(t, err)

	pushed := nextEvent(t, live)
	require.Equal(t, models.ResultMessage, pushed.Type)
	notes, err = pushed.Notes()
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, created.ID, notes[0].ID)

	require.NoError(t, live.Subscribe(models.LiveQuery{Query: models.QueryNote, ID: created.ID.String()}))
	noteSub := nextEvent(t, live)
	require.Equal(t, models.SubscriptionMessage, noteSub.Type)
	lookupEvent := nextEvent(t, live)
	lookup, err := lookupEvent.Lookup()
	require.NoError(t, err)
	assert.True(t, lookup.Found)

	require.NoError(t, live.Unsubscribe(confirmed.SubscriptionID))
	require.NoError(t, c.DeleteForever(ctx, created.ID.String()))
	_, err = s.dispatcher.DispatchPending()
	require.NoError(t, err)

	gone := nextEvent(t, live)
	for gone.SubscriptionID != noteSub.SubscriptionID {
		gone = nextEvent(t, live)
	}
	lookup, err = gone.Lookup()
	require.NoError(t, err)
	assert.False(t, lookup.Found)
}

func TestClient_LiveQueryError(t *testing.T) {
	s := newStack(t)

	live, err := s.client.Live(context.Background())
	require.NoError(t, err)
	defer live.Close()

	require.NoError(t, live.Subscribe(models.LiveQuery{Query: "everything"}))
	event := nextEvent(t, live)
	assert.Equal(t, models.ErrorMessage, event.Type)
	assert.Error(t, event.Err)
}
