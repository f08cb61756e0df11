package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"notepin/notepin/models"

	"github.com/gorilla/websocket"
)

// Event is one server message on the live query socket.
type Event struct {
	Type           models.WebSocketMessageType
	SubscriptionID string
	Query          models.LiveQuery
	Data           json.RawMessage
	Err            error
}

// LiveConn is a live query connection. Events arrive on Events until the
// connection closes.
type LiveConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	events  chan Event
	done    chan struct{}
	once    sync.Once
}

// Live opens the live query socket.
func (c *Client) Live(ctx context.Context) (*LiveConn, error) {
	wsURL := c.baseURL + "/api/v1/ws"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial live queries: %w", err)
	}

	l := &LiveConn{
		conn:   conn,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go l.readLoop()
	return l, nil
}

func (l *LiveConn) Events() <-chan Event {
	return l.events
}

func (l *LiveConn) readLoop() {
	defer close(l.events)
	for {
		var msg models.ServerMessage
		if err := l.conn.ReadJSON(&msg); err != nil {
			select {
			case <-l.done:
			default:
				l.emit(Event{Type: models.ErrorMessage, Err: err})
			}
			return
		}

		event, err := decodeEvent(msg)
		if err != nil {
			event = Event{Type: models.ErrorMessage, Err: err}
		}
		if !l.emit(event) {
			return
		}
	}
}

func (l *LiveConn) emit(event Event) bool {
	select {
	case l.events <- event:
		return true
	case <-l.done:
		return false
	}
}

func decodeEvent(msg models.ServerMessage) (Event, error) {
	event := Event{Type: msg.Type}
	switch msg.Type {
	case models.SubscriptionMessage:
		var payload models.SubscriptionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return event, err
		}
		event.SubscriptionID = payload.SubscriptionID
		event.Query = payload.Query
	case models.ResultMessage:
		var payload models.ResultPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return event, err
		}
		event.SubscriptionID = payload.SubscriptionID
		event.Query = models.LiveQuery{Query: msg.Event}
		event.Data = payload.Data
	case models.ErrorMessage:
		var payload models.ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return event, err
		}
		event.Err = fmt.Errorf("%s: %s", msg.Event, payload.Message)
	default:
		return event, fmt.Errorf("unexpected message type %q", msg.Type)
	}
	return event, nil
}

func (l *LiveConn) send(msgType models.WebSocketMessageType, payload interface{}) error {
	msg := models.ClientMessage{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Payload = raw
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.conn.WriteJSON(msg)
}

// Subscribe asks for query. The subscription id arrives in a
// SubscriptionMessage event, followed by the first result.
func (l *LiveConn) Subscribe(query models.LiveQuery) error {
	return l.send(models.SubscribeMessage, query)
}

func (l *LiveConn) Unsubscribe(subscriptionID string) error {
	return l.send(models.UnsubscribeMessage, models.UnsubscribePayload{SubscriptionID: subscriptionID})
}

func (l *LiveConn) Ping() error {
	return l.send(models.PingMessage, nil)
}

func (l *LiveConn) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		l.writeMu.Lock()
		_ = l.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		l.writeMu.Unlock()
		err = l.conn.Close()
	})
	return err
}

// Notes decodes a list or trash result.
func (e Event) Notes() ([]models.Note, error) {
	var notes []models.Note
	err := json.Unmarshal(e.Data, &notes)
	return notes, err
}

// Lookup decodes a single-note result.
func (e Event) Lookup() (models.NoteLookup, error) {
	var lookup models.NoteLookup
	err := json.Unmarshal(e.Data, &lookup)
	return lookup, err
}
