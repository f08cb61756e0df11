package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"notepin/notepin/middleware"
	"notepin/notepin/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// WebSocketServiceInterface defines the operations provided by the WebSocket service
type WebSocketServiceInterface interface {
	Start()
	Stop()
	HandleConnection(c *gin.Context)
	ClientCount() int
}

// Client represents a connected WebSocket client
type Client struct {
	ID   string
	Hub  *WebSocketService
	Conn *websocket.Conn
	Send chan []byte

	subsMutex     sync.Mutex
	Subscriptions map[string]*LiveSubscription

	closed    chan struct{}
	closeOnce sync.Once
}

// WebSocketService manages WebSocket connections and binds each client's
// subscriptions to the live query registry.
type WebSocketService struct {
	// Client management
	clients      map[string]*Client
	register     chan *Client
	unregister   chan *Client
	clientsMutex sync.RWMutex

	// Configuration
	upgrader    websocket.Upgrader
	liveQueries LiveQueryServiceInterface

	// Control
	runMutex  sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewWebSocketService creates a new WebSocket service
func NewWebSocketService(liveQueries LiveQueryServiceInterface) *WebSocketService {
	return &WebSocketService{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		liveQueries: liveQueries,

		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the hub loop
func (ws *WebSocketService) Start() {
	ws.runMutex.Lock()
	defer ws.runMutex.Unlock()

	if ws.isRunning {
		return
	}
	ws.isRunning = true
	go ws.run()
	log.Info().Msg("WebSocket hub started")
}

// Stop gracefully shuts down the WebSocket service
func (ws *WebSocketService) Stop() {
	ws.runMutex.Lock()
	if !ws.isRunning {
		ws.runMutex.Unlock()
		return
	}
	ws.isRunning = false
	close(ws.stopChan)
	ws.runMutex.Unlock()

	<-ws.done

	ws.clientsMutex.Lock()
	for id, client := range ws.clients {
		client.shutdown()
		client.Conn.Close()
		delete(ws.clients, id)
	}
	ws.clientsMutex.Unlock()
	middleware.WebSocketClients.Set(0)

	log.Info().Msg("WebSocket hub stopped")
}

func (ws *WebSocketService) ClientCount() int {
	ws.clientsMutex.RLock()
	defer ws.clientsMutex.RUnlock()
	return len(ws.clients)
}

// run handles the main client message hub
func (ws *WebSocketService) run() {
	defer close(ws.done)
	for {
		select {
		case <-ws.stopChan:
			return

		case client := <-ws.register:
			ws.clientsMutex.Lock()
			ws.clients[client.ID] = client
			count := len(ws.clients)
			ws.clientsMutex.Unlock()
			middleware.WebSocketClients.Set(float64(count))
			log.Info().Str("client_id", client.ID).Msg("client connected")

		case client := <-ws.unregister:
			ws.clientsMutex.Lock()
			if _, ok := ws.clients[client.ID]; ok {
				delete(ws.clients, client.ID)
				client.shutdown()
				log.Info().Str("client_id", client.ID).Msg("client disconnected")
			}
			count := len(ws.clients)
			ws.clientsMutex.Unlock()
			middleware.WebSocketClients.Set(float64(count))
		}
	}
}

// HandleConnection upgrades the request to a WebSocket and starts its pumps
func (ws *WebSocketService) HandleConnection(c *gin.Context) {
	conn, err := ws.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(fmt.Errorf("%w: %v", ErrWebSocketConnection, err)).Msg("error upgrading to WebSocket")
		return
	}

	client := &Client{
		ID:            uuid.New().String(),
		Hub:           ws,
		Conn:          conn,
		Send:          make(chan []byte, sendBufferSize),
		Subscriptions: make(map[string]*LiveSubscription),
		closed:        make(chan struct{}),
	}

	select {
	case ws.register <- client:
	case <-ws.stopChan:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// send queues msg for the write pump. A client whose buffer is full is
// disconnected.
func (c *Client) send(msg *models.ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("error serializing server message")
		return false
	}

	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.Send <- data:
		return true
	case <-c.closed:
		return false
	default:
		log.Warn().Str("client_id", c.ID).Msg("client send buffer full, disconnecting")
		c.Conn.Close()
		return false
	}
}

func (c *Client) sendError(event, message string) {
	msg, err := models.NewServerMessage(models.ErrorMessage, event, models.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	c.send(msg)
}

// readPump handles incoming messages from the WebSocket client
func (c *Client) readPump() {
	defer func() {
		c.dropSubscriptions()
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.stopChan:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client_id", c.ID).Msg("error reading from WebSocket")
			}
			return
		}
		c.processMessage(message)
	}
}

// writePump writes queued messages, one frame per message, and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// processMessage handles messages received from the client
func (c *Client) processMessage(raw []byte) {
	var clientMsg models.ClientMessage
	if err := json.Unmarshal(raw, &clientMsg); err != nil {
		log.Warn().Err(err).Str("client_id", c.ID).Msg("error parsing client message")
		c.sendError("parse", "malformed message")
		return
	}

	switch clientMsg.Type {
	case models.SubscribeMessage:
		c.handleSubscribe(clientMsg)
	case models.UnsubscribeMessage:
		c.handleUnsubscribe(clientMsg)
	case models.PingMessage:
		// keepalive only
	default:
		log.Warn().Str("type", string(clientMsg.Type)).Msg("unknown message type")
		c.sendError("unknown", fmt.Sprintf("unknown message type %q", clientMsg.Type))
	}
}

// handleSubscribe registers a live query, confirms it, and then forwards
// every result for it.
func (c *Client) handleSubscribe(msg models.ClientMessage) {
	var query models.LiveQuery
	if err := json.Unmarshal(msg.Payload, &query); err != nil {
		c.sendError(string(models.SubscribeMessage), "malformed subscription payload")
		return
	}

	sub, err := c.Hub.liveQueries.Subscribe(query)
	if err != nil {
		log.Warn().Err(err).Str("client_id", c.ID).Msg("subscription rejected")
		c.sendError(string(models.SubscribeMessage), err.Error())
		return
	}

	c.subsMutex.Lock()
	c.Subscriptions[sub.ID] = sub
	c.subsMutex.Unlock()

	confirmation, err := models.NewServerMessage(models.SubscriptionMessage, "confirmed", models.SubscriptionPayload{
		SubscriptionID: sub.ID,
		Query:          query,
	})
	if err == nil {
		c.send(confirmation)
	}

	go c.forward(sub)
}

func (c *Client) forward(sub *LiveSubscription) {
	for {
		select {
		case result := <-sub.Results():
			msg, err := models.NewServerMessage(models.ResultMessage, result.Query.Query, models.ResultPayload{
				SubscriptionID: result.SubscriptionID,
				Data:           result.Data,
			})
			if err != nil {
				log.Error().Err(err).Msg("error building result message")
				continue
			}
			if !c.send(msg) {
				return
			}
		case <-sub.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// handleUnsubscribe processes unsubscription requests
func (c *Client) handleUnsubscribe(msg models.ClientMessage) {
	var payload models.UnsubscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.sendError(string(models.UnsubscribeMessage), "malformed unsubscription payload")
		return
	}

	c.subsMutex.Lock()
	_, ok := c.Subscriptions[payload.SubscriptionID]
	delete(c.Subscriptions, payload.SubscriptionID)
	c.subsMutex.Unlock()

	if !ok {
		c.sendError(string(models.UnsubscribeMessage), ErrSubscriptionNotFound.Error())
		return
	}

	if err := c.Hub.liveQueries.Unsubscribe(payload.SubscriptionID); err != nil {
		log.Warn().Err(err).Str("subscription_id", payload.SubscriptionID).Msg("error removing subscription")
	}
}

func (c *Client) dropSubscriptions() {
	c.subsMutex.Lock()
	ids := make([]string, 0, len(c.Subscriptions))
	for id := range c.Subscriptions {
		ids = append(ids, id)
	}
	c.Subscriptions = make(map[string]*LiveSubscription)
	c.subsMutex.Unlock()

	for _, id := range ids {
		_ = c.Hub.liveQueries.Unsubscribe(id)
	}
}
