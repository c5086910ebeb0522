package server

import (
	"encoding/json"
	"log"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/0x00ASTRA/coffee-shop-game/internal/network"
	"github.com/0x00ASTRA/coffee-shop-game/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Width of the chat rate limit window
	chatWindow = time.Minute
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	// WebSocket connection
	ws *websocket.Conn

	// Server reference
	server *Server

	// Player information (set after authentication)
	player *models.Player

	// Buffered channel for outbound messages
	send chan []byte

	// Is connection authenticated
	authenticated bool

	// Chat rate limiting state. Only touched from readPump, so no
	// locking is needed.
	chatWindowStart time.Time
	chatCount       int
}

// NewConnection creates a new connection
func NewConnection(ws *websocket.Conn, server *Server) *Connection {
	return &Connection{
		ws:            ws,
		server:        server,
		send:          make(chan []byte, 256),
		authenticated: false,
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	// Set up connection parameters
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Start read and write pumps
	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server
func (c *Connection) readPump() {
	defer func() {
		c.Close()
	}()

	for {
		// Read message
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		// Parse message
		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Failed to parse client message: %v", err)
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		// Handle message based on type
		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Write message
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			// Send ping
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.ctx.Done():
			// Server shutting down
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	log.Printf("Received message type: %s", msg.Type)

	switch msg.Type {
	case network.MsgTypeJoin:
		c.handleJoin(msg.Payload)

	case network.MsgTypeLeave:
		c.handleLeave()

	case network.MsgTypeChat:
		c.handleChat(msg.Payload)

	case network.MsgTypePing:
		c.handlePing()

	case network.MsgTypeShopState:
		c.handleShopState()

	case network.MsgTypePlant:
		c.handlePlant(msg.Payload)

	case network.MsgTypeHarvest:
		c.handleHarvest(msg.Payload)

	case network.MsgTypeBrew:
		c.handleBrew(msg.Payload)

	case network.MsgTypeCancelBrew:
		c.handleCancelBrew(msg.Payload)

	case network.MsgTypeBuy:
		c.handleBuy(msg.Payload)

	case network.MsgTypeSell:
		c.handleSell(msg.Payload)

	case network.MsgTypeMoveStack:
		c.handleMoveStack(msg.Payload)

	default:
		log.Printf("Unknown message type: %s", msg.Type)
		c.SendError("unknown_message_type", "Unknown message type")
	}
}

// gamePlayer returns the authenticated player's ID, or sends an error
// and reports false. Game operations require an authenticated player.
func (c *Connection) gamePlayer() (string, bool) {
	if !c.authenticated || c.player == nil {
		c.SendError("not_authenticated", "Connection not authenticated")
		return "", false
	}
	return c.player.ID, true
}

// sendShopState pushes a fresh shop view to the client.
func (c *Connection) sendShopState(view *network.ShopStateView) {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeShopState,
		Payload: view,
	})
}

// handleJoin handles player join requests
func (c *Connection) handleJoin(payload json.RawMessage) {
	if !c.authenticated || c.player == nil {
		c.SendError("not_authenticated", "Connection not authenticated")
		return
	}

	log.Printf("Player join request from %s", c.player.Username)

	// Update player connection state
	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.player.SessionID = c.server.session.ID

	// Add player to session
	if err := c.server.session.AddPlayer(c.player, c); err != nil {
		log.Printf("Failed to add player to session: %v", err)
		c.SendError("join_failed", "Failed to join session")
		return
	}

	// Gather everything the client needs to render the shop
	catalog, recipes, shop, opErr := c.server.session.WelcomeData(c.player.ID)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}

	status := c.server.session.GetStatus()
	welcome := network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID:  c.player.ID,
			Username:  c.player.Username,
			SessionID: c.server.session.ID,
			SessionStatus: network.SessionStatus{
				State:       status.State,
				PlayerCount: status.PlayerCount,
				MaxPlayers:  status.MaxPlayers,
				ServerTick:  status.ServerTick,
				Uptime:      status.Uptime,
			},
			Catalog: catalog,
			Recipes: recipes,
			Shop:    *shop,
		},
	}

	c.SendMessage(&welcome)

	// Broadcast player joined to all other players
	c.server.session.BroadcastExcept(c, &network.ServerMessage{
		Type: network.MsgTypePlayerJoined,
		Payload: network.PlayerJoinedPayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
			Email:    c.player.Email,
		},
	})

	log.Printf("Player %s joined session %s", c.player.Username, c.server.session.ID)
}

// handleLeave handles player leave requests
func (c *Connection) handleLeave() {
	if c.player != nil {
		c.server.session.RemovePlayer(c.player.ID)

		// Broadcast player left
		c.server.session.BroadcastMessage(&network.ServerMessage{
			Type: network.MsgTypePlayerLeft,
			Payload: network.PlayerLeftPayload{
				PlayerID: c.player.ID,
				Username: c.player.Username,
			},
		})
	}
}

// handleChat handles chat messages
func (c *Connection) handleChat(payload json.RawMessage) {
	if !c.authenticated || c.player == nil {
		c.SendError("not_authenticated", "Must be authenticated to chat")
		return
	}

	// Parse chat payload
	var chatMsg network.ChatPayload
	if err := json.Unmarshal(payload, &chatMsg); err != nil {
		log.Printf("Failed to parse chat payload: %v", err)
		c.SendError("invalid_chat", "Invalid chat message")
		return
	}

	if chatMsg.Message == "" {
		c.SendError("invalid_chat", "Empty chat message")
		return
	}
	if maxLen := c.server.config.Chat.MaxMessageLength; utf8.RuneCountInString(chatMsg.Message) > maxLen {
		c.SendError("message_too_long", "Chat message exceeds length limit")
		return
	}

	// Fixed-window rate limit
	now := time.Now()
	if now.Sub(c.chatWindowStart) >= chatWindow {
		c.chatWindowStart = now
		c.chatCount = 0
	}
	c.chatCount++
	if c.chatCount > c.server.config.Chat.RateLimit {
		c.SendError("rate_limited", "Too many chat messages, slow down")
		return
	}

	// Broadcast chat message to all players
	broadcast := &network.ServerMessage{
		Type: network.MsgTypeChatBroadcast,
		Payload: network.ChatBroadcastPayload{
			PlayerID:  c.player.ID,
			Username:  c.player.Username,
			Message:   chatMsg.Message,
			Timestamp: time.Now().Unix(),
		},
	}

	c.server.session.BroadcastMessage(broadcast)
	log.Printf("Chat from %s: %s", c.player.Username, chatMsg.Message)
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

// handleShopState answers a client query for the current shop view
func (c *Connection) handleShopState() {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	view, opErr := c.server.session.ShopState(playerID)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}
	c.sendShopState(view)
}

// handlePlant handles seed planting requests
func (c *Connection) handlePlant(payload json.RawMessage) {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	var p network.PlantPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError("invalid_payload", "Invalid plant payload")
		return
	}

	view, opErr := c.server.session.PlantSeed(playerID, p.Plot, p.Seed)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}
	c.sendShopState(view)
}

// handleHarvest handles harvest requests
func (c *Connection) handleHarvest(payload json.RawMessage) {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	var p network.HarvestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError("invalid_payload", "Invalid harvest payload")
		return
	}

	result, view, opErr := c.server.session.HarvestPlot(playerID, p.Plot)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}

	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeHarvestResult,
		Payload: result,
	})
	c.sendShopState(view)
}

// handleBrew handles production start requests
func (c *Connection) handleBrew(payload json.RawMessage) {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	var p network.BrewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError("invalid_payload", "Invalid brew payload")
		return
	}

	result, opErr := c.server.session.StartBrew(playerID, p.Recipe, p.Repeat)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}

	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeBrewStarted,
		Payload: result,
	})
}

// handleCancelBrew handles production cancel requests
func (c *Connection) handleCancelBrew(payload json.RawMessage) {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	var p network.CancelBrewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError("invalid_payload", "Invalid cancel payload")
		return
	}

	result, view, opErr := c.server.session.CancelBrew(playerID, p.JobID, p.Refund)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}

	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeBrewCancelled,
		Payload: result,
	})
	c.sendShopState(view)
}

// handleBuy handles market purchase requests
func (c *Connection) handleBuy(payload json.RawMessage) {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	var p network.BuyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError("invalid_payload", "Invalid buy payload")
		return
	}

	result, view, opErr := c.server.session.BuyItems(playerID, p.Item, p.Qty, p.Slot)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}

	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePurchaseResult,
		Payload: result,
	})
	c.sendShopState(view)
}

// handleSell handles market sale requests
func (c *Connection) handleSell(payload json.RawMessage) {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	var p network.SellPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError("invalid_payload", "Invalid sell payload")
		return
	}

	result, view, opErr := c.server.session.SellItems(playerID, p.Item, p.Qty)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}

	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeSaleResult,
		Payload: result,
	})
	c.sendShopState(view)
}

// handleMoveStack handles storage slot rearrangement requests
func (c *Connection) handleMoveStack(payload json.RawMessage) {
	playerID, ok := c.gamePlayer()
	if !ok {
		return
	}

	var p network.MoveStackPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.SendError("invalid_payload", "Invalid move payload")
		return
	}

	view, opErr := c.server.session.MoveStack(playerID, p.From, p.To)
	if opErr != nil {
		c.SendError(opErr.Code, opErr.Message)
		return
	}
	c.sendShopState(view)
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("Send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close closes the connection
func (c *Connection) Close() {
	// Remove player from session if authenticated
	if c.authenticated && c.player != nil {
		c.handleLeave()
	}

	// Close send channel
	close(c.send)

	// Close WebSocket connection
	c.ws.Close()
}
