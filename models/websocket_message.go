package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// WebSocketMessageType represents message type constants
type WebSocketMessageType string

const (
	// Client -> server
	SubscribeMessage   WebSocketMessageType = "subscribe"
	UnsubscribeMessage WebSocketMessageType = "unsubscribe"
	PingMessage        WebSocketMessageType = "ping"

	// Server -> client
	SubscriptionMessage WebSocketMessageType = "subscription"
	ResultMessage       WebSocketMessageType = "result"
	ErrorMessage        WebSocketMessageType = "error"
)

// Live query names.
const (
	QueryList  = "list"
	QueryTrash = "trash"
	QueryNote  = "note"
)

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type    WebSocketMessageType `json:"type"`
	Payload json.RawMessage      `json:"payload,omitempty"`
}

// ServerMessage represents a message to the client
type ServerMessage struct {
	Type    WebSocketMessageType `json:"type"`
	Event   string               `json:"event,omitempty"`
	Payload json.RawMessage      `json:"payload,omitempty"`
}

// LiveQuery names a query and its parameters. Subscriptions with equal keys
// share one evaluation per change.
type LiveQuery struct {
	Query  string `json:"query"`
	Search string `json:"search,omitempty"`
	Pinned bool   `json:"pinned,omitempty"`
	ID     string `json:"id,omitempty"`
}

func (q LiveQuery) Key() string {
	switch q.Query {
	case QueryList:
		return fmt.Sprintf("list?search=%s&pinned=%s", url.QueryEscape(q.Search), strconv.FormatBool(q.Pinned))
	case QueryNote:
		return "note/" + q.ID
	default:
		return q.Query
	}
}

type UnsubscribePayload struct {
	SubscriptionID string `json:"subscription_id"`
}

type SubscriptionPayload struct {
	SubscriptionID string    `json:"subscription_id"`
	Query          LiveQuery `json:"query"`
}

type ResultPayload struct {
	SubscriptionID string          `json:"subscription_id"`
	Data           json.RawMessage `json:"data"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewServerMessage marshals payload into a ServerMessage.
func NewServerMessage(msgType WebSocketMessageType, event string, payload interface{}) (*ServerMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &ServerMessage{
		Type:    msgType,
		Event:   event,
		Payload: raw,
	}, nil
}
