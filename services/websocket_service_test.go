package services

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notepin/notepin/models"
	"notepin/notepin/testutils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFixture struct {
	service *WebSocketService
	live    *LiveQueryService
	notes   *NoteService
	server  *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutils.SetupTestDB(t)
	notes := NewNoteService(false)
	live := NewLiveQueryService(db, notes)
	service := NewWebSocketService(live)
	service.Start()

	router := gin.New()
	router.GET("/ws", service.HandleConnection)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		service.Stop()
	})

	f := &wsFixture{service: service, live: live, notes: notes, server: server}
	return f
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readServerMessage(t *testing.T, conn *websocket.Conn) models.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg models.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func subscribe(t *testing.T, conn *websocket.Conn, query models.LiveQuery) string {
	t.Helper()
	payload, err := json.Marshal(query)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.SubscribeMessage, Payload: payload}))

	confirmation := readServerMessage(t, conn)
	require.Equal(t, models.SubscriptionMessage, confirmation.Type)
	assert.Equal(t, "confirmed", confirmation.Event)

	var confirmed models.SubscriptionPayload
	require.NoError(t, json.Unmarshal(confirmation.Payload, &confirmed))
	assert.Equal(t, query, confirmed.Query)
	return confirmed.SubscriptionID
}

func readResult(t *testing.T, conn *websocket.Conn) models.ResultPayload {
	t.Helper()
	msg := readServerMessage(t, conn)
	require.Equal(t, models.ResultMessage, msg.Type)
	var result models.ResultPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &result))
	return result
}

func TestWebSocket_SubscribeAndReceive(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	subID := subscribe(t, conn, models.LiveQuery{Query: models.QueryList})
	initial := readResult(t, conn)
	assert.Equal(t, subID, initial.SubscriptionID)
	assert.JSONEq(t, `[]`, string(initial.Data))

	db := f.live.db
	_, err := f.notes.CreateNote(db, "pushed", "", "")
	require.NoError(t, err)
	f.live.Refresh()

	update := readResult(t, conn)
	var notes []models.Note
	require.NoError(t, json.Unmarshal(update.Data, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "pushed", notes[0].Title)
}

func TestWebSocket_Errors(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	t.Run("Malformed message", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
		msg := readServerMessage(t, conn)
		assert.Equal(t, models.ErrorMessage, msg.Type)
	})

	t.Run("Unknown query", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(models.ClientMessage{
			Type:    models.SubscribeMessage,
			Payload: json.RawMessage(`{"query":"everything"}`),
		}))
		msg := readServerMessage(t, conn)
		assert.Equal(t, models.ErrorMessage, msg.Type)
		assert.Equal(t, "subscribe", msg.Event)
	})

	t.Run("Unknown subscription", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(models.ClientMessage{
			Type:    models.UnsubscribeMessage,
			Payload: json.RawMessage(`{"subscription_id":"nope"}`),
		}))
		msg := readServerMessage(t, conn)
		assert.Equal(t, models.ErrorMessage, msg.Type)

		var payload models.ErrorPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, ErrSubscriptionNotFound.Error(), payload.Message)
	})

	t.Run("Unknown type", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: "shout"}))
		msg := readServerMessage(t, conn)
		assert.Equal(t, models.ErrorMessage, msg.Type)
	})
}

func TestWebSocket_UnsubscribeAndDisconnect(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t)

	first := subscribe(t, conn, models.LiveQuery{Query: models.QueryTrash})
	readResult(t, conn)
	subscribe(t, conn, models.LiveQuery{Query: models.QueryList, Search: "x"})
	readResult(t, conn)
	assert.Equal(t, 2, f.live.Count())

	payload, err := json.Marshal(models.UnsubscribePayload{SubscriptionID: first})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.UnsubscribeMessage, Payload: payload}))
	assert.Eventually(t, func() bool { return f.live.Count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(models.ClientMessage{Type: models.PingMessage}))
	assert.Eventually(t, func() bool { return f.service.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool {
		return f.live.Count() == 0 && f.service.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
